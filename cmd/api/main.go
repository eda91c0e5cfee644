package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/draftarena/backend/internal/auth"
	"github.com/draftarena/backend/internal/broadcast"
	"github.com/draftarena/backend/internal/config"
	"github.com/draftarena/backend/internal/database"
	"github.com/draftarena/backend/internal/handlers"
	"github.com/draftarena/backend/internal/middleware"
	"github.com/draftarena/backend/internal/models"
	"github.com/draftarena/backend/internal/ratelimit"
	"github.com/draftarena/backend/internal/repositories"
	"github.com/draftarena/backend/internal/services"
	"github.com/draftarena/backend/internal/session"
	"github.com/draftarena/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.App.LogLevel, Format: "json"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbConfig := database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	}

	db, err := database.NewPostgresDB(dbConfig)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.Health(ctx); err != nil {
		log.Fatal("Database health check failed", "error", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed", "error", err)
	}

	// Identity: kept from the teacher's email/password + JWT flow, the
	// concrete stand-in for external identity resolution.
	userRepo := repositories.NewPostgresUserRepository(db)
	authRepo := repositories.NewPostgresAuthRepository(db)
	jwtManager := auth.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	authService := services.NewAuthService(authRepo, userRepo, jwtManager)
	userService := services.NewUserService(userRepo)

	// Draft core: repository, cost presets, the Reducer/Timer-backed
	// service, the per-session actor hub, and the spectator broadcast hub.
	sessionRepo := session.NewPostgresRepository(db)
	presetRepo := repositories.NewPostgresPresetRepository(db)
	presetSvc := session.NewPresetService(presetRepo)
	sessionSvc := session.NewService(sessionRepo, redisClient, presetRepo)

	hub := broadcast.NewHub()
	actors := session.NewActorHub(sessionSvc, func(id string, sess *models.Session, deleted bool) {
		if deleted {
			hub.PushDeleted(id)
			return
		}
		var preset *models.CostPreset
		if sess.CostProfileID != nil {
			if p, err := presetRepo.Get(context.Background(), *sess.CostProfileID); err == nil {
				preset = p
			}
		}
		hub.PushUpdate(id, session.ShapeSession(sess, preset))
	})

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	healthHandler := handlers.NewHealthHandler(db, redisClient)
	presetHandler := handlers.NewPresetHandler(presetSvc)
	sessionHandler := handlers.NewSessionHandler(sessionSvc, actors, hub, presetRepo)

	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))

	// Spectator clients (the stream and recent/live listing endpoints) are
	// expected to run on a separate origin from the API.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/health", healthHandler.Health)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "draftarena API",
			"version": "0.1.0",
		})
	})

	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.RefreshToken)
	}

	authed := auth.AuthMiddleware(jwtManager)

	// Two token-bucket pools: per-session draft actions, keyed by session id
	// and client address (the player token travels in the JSON body, which
	// is not read here), and per-owner mutations (create/update/delete
	// session, preset CRUD).
	// Stream endpoints are wired outside both.
	actionLimiter := ratelimit.New(cfg.RateLimit.ActionsPerSecond, cfg.RateLimit.ActionsBurst)
	mutationLimiter := ratelimit.New(cfg.RateLimit.MutationsPerSecond, cfg.RateLimit.MutationsBurst)

	actionLimit := actionLimiter.Middleware(func(c *gin.Context) string {
		return ratelimit.ActionKey(c.Param("id"), "", c.ClientIP())
	})
	mutationLimit := mutationLimiter.Middleware(func(c *gin.Context) string {
		if ownerID, ok := auth.GetUserID(c); ok {
			return ownerID.String()
		}
		return c.ClientIP()
	})

	api := r.Group("/api")
	{
		userRoutes := api.Group("/users")
		userRoutes.Use(authed)
		{
			userRoutes.GET("/profile", userHandler.GetProfile)
			userRoutes.PUT("/profile", userHandler.UpdateProfile)
			userRoutes.DELETE("/account", userHandler.DeleteAccount)
			userRoutes.POST("/password", userHandler.ChangePassword)
		}

		api.POST("/auth/logout", authed, authHandler.Logout)

		sessionHandler.RegisterRoutes(api, authed, mutationLimit, actionLimit)
		presetHandler.RegisterRoutes(api, authed, mutationLimit)
	}

	port := cfg.Server.Port
	log.Info("Starting server", "port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server", "error", err)
	}
}
