package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ishaan-vashist/chatcraft-ai/middleware"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
	"github.com/ishaan-vashist/chatcraft-ai/tools/httpx"
)

// Handler exposes the auth REST surface.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rt *middleware.Router) {
	rt.POST("/api/auth/register", h.register, middleware.RouteOpt{})
	rt.POST("/api/auth/login", h.login, middleware.RouteOpt{})
}

type registerReq struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName" binding:"required,max=64"`
	Password    string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, errs.ErrValidation.WrapMsg(err.Error()))
		return
	}
	u, err := h.svc.Register(c.Request.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, errs.ErrValidation.WrapMsg(err.Error()))
		return
	}
	token, expireAt, u, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"expireAt": expireAt,
		"user":     u,
	})
}
