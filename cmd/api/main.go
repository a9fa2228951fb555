package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/handler"
	apimiddleware "github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/middleware"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/api/router"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/adapter/repository"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/infrastructure/firebase"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/infrastructure/realtime"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/usecase"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption

	// Service account from environment variable (production) or file path
	// (local development).
	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	// The push channel rides on Redis pub/sub; without REDIS_ADDR a single
	// process falls back to the in-memory broker.
	var broker realtime.Broker
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		defer redisClient.Close()
		broker = realtime.NewRedisBroker(redisClient)
		log.Printf("Using Redis push channel at %s", cfg.RedisAddr)
	} else {
		broker = realtime.NewMemoryBroker()
		log.Printf("REDIS_ADDR not set, using in-process push channel")
	}

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)
	favoriteRepo := repository.NewFirestoreFavoriteRepository(firestoreClient)

	var verifier firebase.TokenVerifier = firebase.NewFirebaseAuthClient(authClient)
	if cfg.Environment == "development" && cfg.JWTSecret != "" {
		verifier = firebase.NewDevTokenVerifier(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
		log.Printf("Development mode: accepting locally signed tokens")
	}

	messagingUseCase := usecase.NewMessagingUseCase(conversationRepo, broker)
	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, broker)
	favoriteUseCase := usecase.NewFavoriteUseCase(favoriteRepo, broker)
	sessionFactory := usecase.NewSessionFactory(messagingUseCase, notificationUseCase, favoriteUseCase, broker, cfg.SuppressionWindow)

	conversationHandler := handler.NewConversationHandler(messagingUseCase)
	notificationHandler := handler.NewNotificationHandler(notificationUseCase)
	favoriteHandler := handler.NewFavoriteHandler(favoriteUseCase)
	sessionHandler := handler.NewSessionHandler(sessionFactory)

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)

	e := echo.New()
	e.Validator = api.NewValidator()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	router.SetupHealthRouter(e)
	router.SetupConversationRouter(e, conversationHandler, authMiddleware)
	router.SetupNotificationRouter(e, notificationHandler, authMiddleware)
	router.SetupFavoriteRouter(e, favoriteHandler, authMiddleware)
	router.SetupSessionRouter(e, sessionHandler, authMiddleware)

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
