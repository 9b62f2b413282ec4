package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel/internal/complaints"
	"hostel/internal/rooms"
	"hostel/internal/students"
)

// ---------- Students ----------

func (h *Handler) ListStudents(c *gin.Context) {
	list, err := h.students.List(c.Request.Context(), caller(c), students.Filter{RoomNumber: c.Query("roomNumber")})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetStudent(c *gin.Context) {
	st, err := h.students.Get(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var in students.Input
	if !bind(c, &in) {
		return
	}
	st, err := h.students.Create(c.Request.Context(), caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	var in students.UpdateInput
	if !bind(c, &in) {
		return
	}
	st, err := h.students.Update(c.Request.Context(), caller(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student removed"})
}

// ---------- Rooms ----------

func (h *Handler) ListRooms(c *gin.Context) {
	list, err := h.rooms.List(c.Request.Context(), caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetRoom(c *gin.Context) {
	rm, err := h.rooms.Get(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rm)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var in rooms.CreateInput
	if !bind(c, &in) {
		return
	}
	rm, err := h.rooms.Create(c.Request.Context(), caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rm)
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	var in rooms.UpdateInput
	if !bind(c, &in) {
		return
	}
	rm, err := h.rooms.Update(c.Request.Context(), caller(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rm)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	if err := h.rooms.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room removed"})
}

// ---------- Complaints ----------

func (h *Handler) ListComplaints(c *gin.Context) {
	list, err := h.complaints.List(c.Request.Context(), caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateComplaint(c *gin.Context) {
	var in complaints.CreateInput
	if !bind(c, &in) {
		return
	}
	cp, err := h.complaints.Create(c.Request.Context(), caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

func (h *Handler) UpdateComplaint(c *gin.Context) {
	var in complaints.UpdateInput
	if !bind(c, &in) {
		return
	}
	cp, err := h.complaints.Update(c.Request.Context(), caller(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}
