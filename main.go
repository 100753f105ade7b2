package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raushankrgupta/fitly/api"
	"github.com/raushankrgupta/fitly/assistant"
	"github.com/raushankrgupta/fitly/auth"
	"github.com/raushankrgupta/fitly/config"
	"github.com/raushankrgupta/fitly/store"
	"github.com/raushankrgupta/fitly/utils"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/api/option"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()

	// 1. Store
	var (
		users       store.UserStore
		mongoClient *mongo.Client
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		users = store.NewMemoryStore()
	default:
		mongoClient, err = utils.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.DBName))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
		users = mongoStore
		logger.Info("connected to MongoDB", "database", cfg.DBName)
	}

	// 2. Providers
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	verifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID, option.WithHTTPClient(httpClient))
	if err != nil {
		return err
	}
	if cfg.GoogleClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set, Google sign-in will be rejected")
	}

	var mailer auth.Mailer = utils.LogMailer{}
	if sg, err := utils.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName); err == nil {
		mailer = sg
	} else {
		logger.Warn("email delivery disabled", "reason", err)
	}

	var storage api.ObjectStorage
	if cfg.AWSBucketName != "" {
		s3Storage, err := utils.NewS3Storage(ctx, cfg.AWSRegion, cfg.AWSBucketName, cfg.AWSPublicBaseURL)
		if err != nil {
			return fmt.Errorf("failed to set up S3: %w", err)
		}
		storage = s3Storage
	} else {
		logger.Warn("AWS_BUCKET_NAME not set, profile image upload disabled")
	}

	var chat assistant.Completer
	switch cfg.ChatProvider {
	case config.ChatGemini:
		if cfg.GeminiAPIKey != "" {
			gemini, err := assistant.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return fmt.Errorf("failed to create Gemini client: %w", err)
			}
			defer gemini.Close()
			chat = gemini
		}
	default:
		if cfg.OpenAIAPIKey != "" {
			chat = assistant.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
		}
	}
	if chat == nil {
		logger.Warn("no API key for chat provider, AI assistant disabled", "provider", cfg.ChatProvider)
	}

	// 3. Services
	authService := auth.NewService(users, auth.NewPasswordHasher(), auth.NewTokenIssuer(cfg.JWTSecret),
		verifier, mailer, auth.Options{
			FrontendURL:     cfg.FrontendURL,
			UpstreamTimeout: cfg.UpstreamTimeout,
		})

	handler := api.NewHandler(api.Deps{
		Auth:            authService,
		Users:           users,
		Storage:         storage,
		Chat:            chat,
		GoogleOAuth:     api.NewGoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		CORSOrigin:      cfg.CORSOrigin,
		UpstreamTimeout: cfg.UpstreamTimeout,
	})

	// 4. Server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
	}

	done := make(chan bool, 1)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down gracefully, press Ctrl+C again to force")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
		if mongoClient != nil {
			if err := mongoClient.Disconnect(shutdownCtx); err != nil {
				logger.Error("failed to disconnect from MongoDB", "error", err)
			}
		}
		done <- true
	}()

	logger.Info("Server starting", "port", cfg.Port, "store", cfg.StoreDriver, "chat", cfg.ChatProvider)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	logger.Info("Graceful shutdown complete")
	return nil
}
