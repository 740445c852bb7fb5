package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ytakahashi/task-reminder-api/internal/auth"
	"github.com/ytakahashi/task-reminder-api/internal/config"
	"github.com/ytakahashi/task-reminder-api/internal/handlers"
	"github.com/ytakahashi/task-reminder-api/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := services.NewFirestoreStore(ctx, cfg.ProjectID)
	if err != nil {
		log.Fatalf("Failed to create Firestore store: %v", err)
	}
	defer store.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
	}
	defer redisClient.Close()

	bot, err := messaging_api.NewMessagingApiAPI(cfg.LineChannelToken)
	if err != nil {
		log.Fatalf("Failed to create LINE bot client: %v", err)
	}

	queue := services.NewRedisAlertQueue(redisClient, "reminder:")
	cache := services.NewRedisListCache(redisClient, "reminder:", cfg.CacheTTL)
	notifier := services.NewLineNotifier(bot)
	dispatcher := services.NewDispatcher(queue, notifier, cfg.DispatchInterval)

	taskService, err := services.NewTaskService(store, queue, cache)
	if err != nil {
		log.Fatalf("Failed to create task service: %v", err)
	}

	jwtManager := auth.NewManager(auth.Config{
		SecretKey:     cfg.JWTSecret,
		TokenDuration: cfg.JWTTokenTTL,
		Issuer:        "task-reminder-api",
	})

	taskHandler := handlers.NewTaskHandler(taskService)
	authHandler := handlers.NewAuthHandler(jwtManager)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.POST("/auth/token", authHandler.IssueToken)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	g := e.Group("/tasks", auth.Middleware(jwtManager))
	g.GET("", taskHandler.List)
	g.POST("", taskHandler.Create)
	g.GET("/:id", taskHandler.Get)
	g.PATCH("/:id", taskHandler.Update)
	g.POST("/:id/toggle", taskHandler.Toggle)
	g.DELETE("/:id", taskHandler.Delete)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return dispatcher.Run(ctx)
	})

	group.Go(func() error {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Println("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	log.Println("Server stopped")
}
