package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	httpapi "github.com/aidbridge/backend/adapters/http"
	"github.com/aidbridge/backend/adapters/auth"
	"github.com/aidbridge/backend/adapters/hasher"
	"github.com/aidbridge/backend/adapters/llm"
	"github.com/aidbridge/backend/adapters/mailer"
	"github.com/aidbridge/backend/adapters/message_broker"
	"github.com/aidbridge/backend/adapters/store"
	"github.com/aidbridge/backend/adapters/websocket"
	"github.com/aidbridge/backend/config"
	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/usecase"
	"github.com/aidbridge/backend/utils/log"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the optional YAML config file")
	flag.Parse()

	defer log.Sync()
	if err := run(*configPath); err != nil {
		log.With().Error("server stopped", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.SetDevelopment(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	verifyURL := strings.TrimRight(cfg.HTTP.PublicBaseURL, "/") + "/api/v1/auth/verify"
	accountStore, err := store.NewSQLiteStore(
		db,
		hasher.NewPasswordHasher(bcrypt.DefaultCost),
		hasher.NewTokenHasher(),
		mailer.NewLogSender(),
		verifyURL,
	)
	if err != nil {
		return err
	}

	// Without a key the responder answers with the setup instructions.
	var backend domain.Llm
	if key, ok := cfg.GenerationAPIKey(); ok {
		gemini, err := llm.NewGeminiClient(ctx, key, cfg.Gemini.Model, cfg.Gemini.Timeout)
		if err != nil {
			return err
		}
		backend = gemini
	} else {
		log.With().Warn("⚠️ GEMINI_API_KEY not set, chat will answer with setup instructions")
	}

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	chat := usecase.NewChatService(usecase.NewResponder(backend, cfg))
	accounts := usecase.NewAccountService(accountStore, broker)
	help := usecase.NewHelpRequestService(accountStore, broker)
	tokens := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	wsServer := websocket.NewServer(chat, broker, tokens)
	go func() {
		if err := wsServer.Run(ctx); err != nil {
			log.WithCtx(ctx).Error("❌ WebSocket relay stopped", zap.Error(err))
		}
	}()

	handler := httpapi.NewHandler(chat, accounts, help, tokens, cfg.Auth.AdminToken)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(httpapi.RequestContext)
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.HTTP.RateLimit))))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestID,
			"X-Admin-Token",
		},
		MaxAge: 86400, // 24 hours
	}))

	e.GET("/ws", wsServer.Handler)
	handler.Routes(e)

	errCh := make(chan error, 1)
	go func() {
		log.With().Info("🚀 Starting server",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("model", cfg.Gemini.Model),
			zap.Bool("gemini_configured", backend != nil))
		if err := e.Start(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.With().Info("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	wsServer.GetHub().CloseAll()
	return e.Shutdown(shutdownCtx)
}
