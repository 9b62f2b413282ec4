package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel/internal/accounts"
)

// sessionBody flattens the account next to its tokens.
func sessionBody(s accounts.Session) gin.H {
	return gin.H{
		"_id":              s.User.ID,
		"name":             s.User.Name,
		"email":            s.User.Email,
		"role":             s.User.Role,
		"studentProfile":   s.User.StudentProfile,
		"token":            s.Tokens.AccessToken,
		"refreshToken":     s.Tokens.RefreshToken,
		"expiresAt":        s.Tokens.AccessExp,
		"refreshExpiresAt": s.Tokens.RefreshExp,
	}
}

func (h *Handler) Register(c *gin.Context) {
	var in accounts.RegisterInput
	if !bind(c, &in) {
		return
	}
	sess, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionBody(sess))
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bind(c, &req) {
		return
	}
	sess, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody(sess))
}

func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	sess, err := h.accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody(sess))
}

func (h *Handler) Me(c *gin.Context) {
	p, err := h.accounts.Me(c.Request.Context(), caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	body := gin.H{
		"_id":            p.User.ID,
		"name":           p.User.Name,
		"email":          p.User.Email,
		"role":           p.User.Role,
		"studentProfile": p.User.StudentProfile,
	}
	if p.Student != nil {
		body["student"] = p.Student
	}
	c.JSON(http.StatusOK, body)
}
