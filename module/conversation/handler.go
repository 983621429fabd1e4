package conversation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ishaan-vashist/chatcraft-ai/middleware"
	midsec "github.com/ishaan-vashist/chatcraft-ai/middleware/security"
	"github.com/ishaan-vashist/chatcraft-ai/service/chat"
	"github.com/ishaan-vashist/chatcraft-ai/service/storage"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
	"github.com/ishaan-vashist/chatcraft-ai/tools/httpx"
)

// Handler exposes the conversation, message-history and contact REST
// surface. Posting a message goes through chat.Server.PostMessage, the same
// path the socket uses, so REST-posted messages fan out to connected
// members too.
type Handler struct {
	store    *storage.Store
	srv      *chat.Server
	presence *storage.PresenceManager
}

func NewHandler(store *storage.Store, srv *chat.Server, presence *storage.PresenceManager) *Handler {
	return &Handler{store: store, srv: srv, presence: presence}
}

func (h *Handler) RegisterRoutes(rt *middleware.Router) {
	auth := middleware.RouteOpt{IsAuth: true}
	rt.POST("/api/conversations", h.create, auth)
	rt.GET("/api/conversations", h.list, auth)
	rt.GET("/api/conversations/:id/messages", h.listMessages, auth)
	rt.POST("/api/conversations/:id/messages", h.postMessage, auth)
	rt.POST("/api/contacts", h.addContact, auth)
	rt.GET("/api/contacts", h.listContacts, auth)
	rt.GET("/api/users/:id/presence", h.userPresence, auth)
}

type createReq struct {
	PeerID string `json:"peerId" binding:"required"`
}

func (h *Handler) create(c *gin.Context) {
	id, _ := midsec.IdentityFromContext(c)
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, errs.ErrValidation.WrapMsg(err.Error()))
		return
	}
	conv, err := h.store.CreateConversation(c.Request.Context(), id.ID, req.PeerID)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

func (h *Handler) list(c *gin.Context) {
	id, _ := midsec.IdentityFromContext(c)
	convs, err := h.store.ListConversations(c.Request.Context(), id.ID)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *Handler) listMessages(c *gin.Context) {
	id, _ := midsec.IdentityFromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	msgs, err := h.store.ListMessages(c.Request.Context(), c.Param("id"), id.ID, limit)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type postMessageReq struct {
	Content string `json:"content" binding:"required,max=8000"`
}

func (h *Handler) postMessage(c *gin.Context) {
	id, _ := midsec.IdentityFromContext(c)
	var req postMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, errs.ErrValidation.WrapMsg(err.Error()))
		return
	}
	m, err := h.srv.PostMessage(c.Request.Context(), c.Param("id"), id, req.Content)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": m})
}

type addContactReq struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *Handler) addContact(c *gin.Context) {
	id, _ := midsec.IdentityFromContext(c)
	var req addContactReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, errs.ErrValidation.WrapMsg(err.Error()))
		return
	}
	if err := h.store.AddContact(c.Request.Context(), id.ID, req.UserID); err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *Handler) userPresence(c *gin.Context) {
	online, err := h.presence.IsOnline(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.WriteError(c, errs.ErrPersistence.WrapMsg(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": c.Param("id"), "online": online})
}

func (h *Handler) listContacts(c *gin.Context) {
	id, _ := midsec.IdentityFromContext(c)
	contacts, err := h.store.ListContacts(c.Request.Context(), id.ID)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}
