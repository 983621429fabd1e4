package chat

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ishaan-vashist/chatcraft-ai/logger"
	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
	"github.com/ishaan-vashist/chatcraft-ai/tools/ids"
	"github.com/ishaan-vashist/chatcraft-ai/tools/safe"
)

const (
	readLimit      = 1 << 20 // 1MB
	pongWait       = 75 * time.Second
	handshakeWait  = 5 * time.Second
	bridgePubWait  = 3 * time.Second
	defaultPersist = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServerConfig carries the knobs the gateway needs at construction time.
type ServerConfig struct {
	GatewayID      string
	PersistTimeout time.Duration
}

// Server is the connection gateway: it accepts transports, runs the
// authentication handshake, owns the resulting sessions and wires them into
// the dispatcher and registry. Collaborators are injected; there is no
// ambient global state, so tests can run several independent servers.
type Server struct {
	cfg      ServerConfig
	verifier TokenVerifier
	store    MessageStore
	registry *Registry
	disp     *Dispatcher
	presence Presence
	bridge   EventBridge
}

func NewServer(cfg ServerConfig, verifier TokenVerifier, store MessageStore, registry *Registry, presence Presence, bridge EventBridge) *Server {
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaultPersist
	}
	return &Server{
		cfg:      cfg,
		verifier: verifier,
		store:    store,
		registry: registry,
		disp:     NewDispatcher(),
		presence: presence,
		bridge:   bridge,
	}
}

func (s *Server) Disp() *Dispatcher   { return s.disp }
func (s *Server) Registry() *Registry { return s.registry }

// PostMessage is the one write path for conversation messages: persist via
// the store (which owns participant authorization) and, only on success,
// broadcast message:new to the room's current members — sender included if
// subscribed. REST and socket sends both land here, so authorization
// semantics cannot drift between them.
func (s *Server) PostMessage(ctx context.Context, conversationID string, sender chatmodel.Identity, content string) (*chatmodel.Message, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()

	m, err := s.store.CreateMessage(cctx, conversationID, sender, content)
	if err != nil {
		if stderrors.Is(cctx.Err(), context.DeadlineExceeded) {
			return nil, errs.ErrPersistence.WrapMsg("storage timeout")
		}
		return nil, err
	}

	s.registry.Broadcast(RoomID(m.ConversationID), BuildMessageNew(m), nil)

	if s.bridge != nil {
		msg := m
		safe.Go(func() {
			bctx, bcancel := context.WithTimeout(context.Background(), bridgePubWait)
			defer bcancel()
			if err := s.bridge.PublishMessage(bctx, msg); err != nil {
				logger.Warnf("[gateway] bridge publish failed msg=%s err=%v", msg.ID, err)
			}
		})
	}
	return m, nil
}

// Broadcast exposes room fan-out to out-of-process producers (the assistant
// worker delivers its replies through here).
func (s *Server) Broadcast(roomID RoomID, payload []byte) {
	s.registry.Broadcast(roomID, payload, nil)
}

// HandleWS upgrades the HTTP request, authenticates the bearer token and,
// only then, creates the session and enters the per-connection read loop.
// A failed handshake closes the transport with an auth error and creates
// no session at all.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[gateway] upgrade failed: %v", err)
		return
	}

	identity, err := s.authenticate(c)
	if err != nil {
		logger.Infof("[gateway] handshake rejected: %v", err)
		_ = ws.WriteMessage(websocket.TextMessage, BuildErrorEvent(errs.ErrAuth.Wrap()))
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}

	connID := ids.GenerateString()
	sess := NewSession(connID, identity, ws, func(dead *Session) {
		s.registry.RemoveSession(dead)
		if s.presence != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.presence.Offline(ctx, dead.Identity.ID, dead.ConnID); err != nil {
				logger.Warnf("[gateway] presence offline err user=%s err=%v", dead.Identity.ID, err)
			}
		}
		logger.Infof("[gateway] session closed conn=%s user=%s", dead.ConnID, dead.Identity.ID)
	})
	go sess.Run()

	if s.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.presence.Online(ctx, identity.ID, connID); err != nil {
			logger.Warnf("[gateway] presence online err user=%s err=%v", identity.ID, err)
		}
		cancel()
	}
	logger.Infof("[gateway] session open conn=%s user=%s gw=%s", connID, identity.ID, s.cfg.GatewayID)

	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		if s.presence != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = s.presence.Touch(ctx, identity.ID, connID)
		}
		return nil
	})

	// Read loop: events from one connection are handled in arrival order.
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[gateway] peer closed conn=%s", connID)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[gateway] read timeout conn=%s", connID)
			} else {
				logger.Infof("[gateway] read err conn=%s err=%v", connID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		if err := s.disp.Dispatch(context.Background(), &Context{S: s}, sess, data); err != nil {
			logger.Debugf("[gateway] event rejected conn=%s user=%s err=%v", connID, identity.ID, err)
		}
	}

	sess.Close()
}

// authenticate pulls the bearer token from the handshake request (query
// param `token`, else Authorization header) and verifies it.
func (s *Server) authenticate(c *gin.Context) (chatmodel.Identity, error) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		authz := strings.TrimSpace(c.GetHeader("Authorization"))
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[len("bearer "):])
		}
	}
	if token == "" {
		return chatmodel.Identity{}, errs.ErrAuth.WrapMsg("missing token")
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), handshakeWait)
	defer cancel()
	return s.verifier.Verify(ctx, token)
}
