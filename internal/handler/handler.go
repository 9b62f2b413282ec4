// Package handler exposes the hostel services over HTTP under /api.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel/internal/access"
	"hostel/internal/accounts"
	"hostel/internal/apperr"
	"hostel/internal/attendance"
	"hostel/internal/auth"
	"hostel/internal/cloudinary"
	"hostel/internal/complaints"
	"hostel/internal/rooms"
	"hostel/internal/store"
	"hostel/internal/students"
)

// Uploader stores images and returns their public URL.
type Uploader interface {
	Configured() bool
	Upload(ctx context.Context, r io.Reader, filename string) (*cloudinary.UploadResult, error)
	UploadDataURL(ctx context.Context, data string) (*cloudinary.UploadResult, error)
}

// Deps are the services a Handler serves.
type Deps struct {
	Accounts   *accounts.Service
	Students   *students.Service
	Rooms      *rooms.Service
	Attendance *attendance.Recorder
	Complaints *complaints.Service
	Uploads    Uploader

	Store  store.Store
	Mode   string
	Redis  *store.Redis
	Logger *slog.Logger
}

type Handler struct {
	accounts   *accounts.Service
	students   *students.Service
	rooms      *rooms.Service
	attendance *attendance.Recorder
	complaints *complaints.Service
	uploads    Uploader

	store  store.Store
	mode   string
	redis  *store.Redis
	logger *slog.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		accounts:   d.Accounts,
		students:   d.Students,
		rooms:      d.Rooms,
		attendance: d.Attendance,
		complaints: d.Complaints,
		uploads:    d.Uploads,
		store:      d.Store,
		mode:       d.Mode,
		redis:      d.Redis,
		logger:     d.Logger,
	}
}

// Routes mounts every endpoint on api. Everything except health, register,
// login and refresh goes through authn.
func (h *Handler) Routes(api *gin.RouterGroup, authn access.Authenticator) {
	requireCaller := auth.Middleware(authn)

	api.GET("/health", h.Health)

	a := api.Group("/auth")
	a.POST("/register", h.Register)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.GET("/me", requireCaller, h.Me)

	p := api.Group("", requireCaller)

	p.GET("/students", h.ListStudents)
	p.POST("/students", h.CreateStudent)
	p.GET("/students/:id", h.GetStudent)
	p.PUT("/students/:id", h.UpdateStudent)
	p.DELETE("/students/:id", h.DeleteStudent)

	p.GET("/rooms", h.ListRooms)
	p.POST("/rooms", h.CreateRoom)
	p.GET("/rooms/:id", h.GetRoom)
	p.PUT("/rooms/:id", h.UpdateRoom)
	p.DELETE("/rooms/:id", h.DeleteRoom)

	p.GET("/attendance", h.ListAttendance)
	p.POST("/attendance", h.MarkAttendance)
	p.GET("/attendance/stats", h.AttendanceStats)
	p.GET("/attendance/export", h.ExportAttendance)

	p.GET("/complaints", h.ListComplaints)
	p.POST("/complaints", h.CreateComplaint)
	p.PUT("/complaints/:id", h.UpdateComplaint)

	p.POST("/uploads", h.Upload)
}

func caller(c *gin.Context) access.Caller {
	cl, _ := auth.CallerFrom(c)
	return cl
}

// bind decodes the JSON body into v, answering 400 on failure.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// fail maps a service error onto a status code and a {"message"} body.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if errors.Is(err, apperr.ErrDuplicate) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"message": err.Error(), "fields": verr.Fields})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, apperr.ErrNoProfile):
		c.JSON(http.StatusForbidden, gin.H{"message": "no student profile linked"})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.Is(err, apperr.ErrUnavailable):
		h.logger.Error("store unavailable", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "storage unavailable"})
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
