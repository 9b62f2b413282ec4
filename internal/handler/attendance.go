package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hostel/internal/attendance"
	"hostel/internal/export"
)

func attendanceFilter(c *gin.Context) attendance.Filter {
	return attendance.Filter{Date: c.Query("date"), StudentID: c.Query("studentId")}
}

func (h *Handler) ListAttendance(c *gin.Context) {
	list, err := h.attendance.List(c.Request.Context(), caller(c), attendanceFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkAttendance answers 201 when a record was created and 200 when the
// day's record was overwritten.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var in attendance.MarkInput
	if !bind(c, &in) {
		return
	}
	rec, created, err := h.attendance.Mark(c.Request.Context(), caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, rec)
}

func (h *Handler) AttendanceStats(c *gin.Context) {
	stats, err := h.attendance.Stats(c.Request.Context(), caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ExportAttendance(c *gin.Context) {
	f := attendanceFilter(c)
	var buf bytes.Buffer
	if err := h.attendance.Export(c.Request.Context(), caller(c), f, &buf); err != nil {
		h.fail(c, err)
		return
	}
	suffix := f.Date
	if suffix == "" {
		suffix = time.Now().In(h.attendance.Location()).Format(time.DateOnly)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.xlsx"`, suffix))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
