package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/ishaan-vashist/chatcraft-ai/config"
	"github.com/ishaan-vashist/chatcraft-ai/logger"
	"github.com/ishaan-vashist/chatcraft-ai/middleware"
	"github.com/ishaan-vashist/chatcraft-ai/module/assistant"
	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
	"github.com/ishaan-vashist/chatcraft-ai/module/conversation"
	"github.com/ishaan-vashist/chatcraft-ai/module/user"
	"github.com/ishaan-vashist/chatcraft-ai/service/chat"
	"github.com/ishaan-vashist/chatcraft-ai/service/chat/handlers"
	"github.com/ishaan-vashist/chatcraft-ai/service/natsx"
	"github.com/ishaan-vashist/chatcraft-ai/service/storage"
	storageredis "github.com/ishaan-vashist/chatcraft-ai/service/storage/redis"
	"github.com/ishaan-vashist/chatcraft-ai/tools/crypto"
	"github.com/ishaan-vashist/chatcraft-ai/tools/ids"
	"github.com/ishaan-vashist/chatcraft-ai/tools/security"
)

// main stays a thin shell around run so deferred cleanup unwinds before the
// process reports a failed boot to its supervisor.
func main() {
	if err := run(); err != nil {
		logger.Errorf("gateway exit: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	logger.SetLevel(cfg.LogLevel)
	ids.SetNodeID(cfg.NodeID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	key, err := cfg.AESKeyBytes()
	if err != nil {
		return errors.Wrap(err, "aes key")
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return errors.Wrap(err, "init cipher")
	}

	store, err := storage.NewStore(ctx, cfg.PostgresDSN, cipher)
	if err != nil {
		return errors.Wrap(err, "init store")
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return errors.Wrap(err, "ensure schema")
	}

	rdb, err := storageredis.New(storageredis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return errors.Wrap(err, "init redis")
	}
	defer func() { _ = rdb.Close() }()

	gatewayID := ids.GenerateString()
	presence := storage.NewPresenceManager(rdb, gatewayID)

	jwtOpts := security.DefaultOptions([]byte(cfg.JWTSecret))
	jwtOpts.TTL = cfg.TokenTTL
	userSvc := user.NewService(store, jwtOpts)

	// Bus and assistant are optional: without a NATS url the gateway runs
	// standalone and messages simply never leave the process.
	var bridge *natsx.Bridge
	var busClient *natsx.Client
	if cfg.NATSUrl != "" {
		busClient, err = natsx.New(natsx.Config{URL: cfg.NATSUrl, Name: "chatcraft-gateway"})
		if err != nil {
			return errors.Wrap(err, "init nats")
		}
		defer func() { _ = busClient.Close() }()
		bridge = natsx.NewBridge(busClient)
	}

	srv := chat.NewServer(chat.ServerConfig{
		GatewayID:      gatewayID,
		PersistTimeout: cfg.PersistTimeout,
	}, userSvc, store, chat.NewRegistry(), presence, bridgeOrNil(bridge))
	handlers.RegisterAll(srv)

	if bridge != nil && cfg.OpenAIKey != "" {
		assistantID := chatmodel.Identity{ID: cfg.AssistantUserID, DisplayName: "Assistant"}
		if err := store.EnsureUser(ctx, assistantID.ID, assistantID.ID+"@chatcraft.local", assistantID.DisplayName); err != nil {
			return errors.Wrap(err, "ensure assistant user")
		}
		responder := assistant.NewOpenAIResponder(cfg.OpenAIKey, cfg.AssistantModel)
		worker := assistant.NewWorker(store, srv, responder, bridge, assistantID, cfg.AssistantTimeout)
		if err := worker.Start(); err != nil {
			return errors.Wrap(err, "start assistant worker")
		}
		defer worker.Stop()
	}

	r := gin.Default()
	r.GET("/chat", srv.HandleWS)

	rt := middleware.NewRouter(r, userSvc)
	user.NewHandler(userSvc).RegisterRoutes(rt)
	conversation.NewHandler(store, srv, presence).RegisterRoutes(rt)

	logger.Infof("gateway %s listening on %s", gatewayID, cfg.HTTPAddr)
	return errors.Wrap(r.Run(cfg.HTTPAddr), "http server")
}

// bridgeOrNil keeps a typed-nil *natsx.Bridge out of the chat.EventBridge
// interface value.
func bridgeOrNil(b *natsx.Bridge) chat.EventBridge {
	if b == nil {
		return nil
	}
	return b
}
