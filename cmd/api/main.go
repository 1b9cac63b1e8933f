package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"skillsync/backend/internal/config"
	"skillsync/backend/internal/domain/card"
	"skillsync/backend/internal/domain/chat"
	"skillsync/backend/internal/domain/session"
	"skillsync/backend/internal/domain/skill"
	"skillsync/backend/internal/domain/stats"
	"skillsync/backend/internal/domain/user"
	"skillsync/backend/internal/firebase"
	apihttp "skillsync/backend/internal/http"
	"skillsync/backend/internal/mirror"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap init failed: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		logger.Fatal("firebase init failed", zap.Error(err))
	}
	defer clients.Close()

	mirrorStore, err := mirror.NewRedisStore(ctx, mirror.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Fatal("redis mirror init failed", zap.Error(err))
	}
	defer mirrorStore.Close()

	// Repositories
	userRepo := user.NewRepo(clients.Firestore)
	skillRepo := skill.NewRepo(clients.Firestore)
	cardRepo := card.NewRepo(clients.Firestore)
	chatRepo := chat.NewRepo(clients.Firestore)
	sessionRepo := session.NewRepo(clients.Firestore)
	imageStore := card.NewImageStore(clients.Storage, clients.Bucket)

	// Services
	userSvc := user.NewService(userRepo, mirrorStore, clients.Auth, logger)
	skillSvc := skill.NewService(skillRepo, mirrorStore, logger)
	cardSvc := card.NewService(cardRepo, imageStore, userRepo, logger)
	chatSvc := chat.NewService(chatRepo, logger)
	sessionSvc := session.NewService(sessionRepo)
	statsSvc := stats.NewService(sessionRepo, skillRepo, logger)

	// Push notifications are optional; without FCM access messages still
	// commit, recipients just get no push.
	if clients.Messaging != nil {
		chatSvc.SetNotifier(chat.NewNotifier(clients.Messaging, userRepo, logger))
	} else {
		logger.Warn("messaging client unavailable, push notifications disabled")
	}

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Cfg:        cfg,
		AuthClient: clients.Auth,
		UserSvc:    userSvc,
		SkillSvc:   skillSvc,
		SkillRepo:  skillRepo,
		CardSvc:    cardSvc,
		ChatSvc:    chatSvc,
		ChatRepo:   chatRepo,
		SessionSvc: sessionSvc,
		StatsSvc:   statsSvc,
		Log:        logger,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the live counter endpoint holds a long-lived
		// event stream open.
		IdleTimeout: 60 * time.Second,
	}

	// graceful shutdown
	go func() {
		logger.Info("API listening",
			zap.String("port", cfg.Port), zap.String("project", cfg.ProjectID))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down")
	_ = srv.Shutdown(ctxShutdown)
}
