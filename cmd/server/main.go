package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"medichat/infrastructure/cache"
	"medichat/infrastructure/db"
	"medichat/infrastructure/ws"
	httpHandler "medichat/internal/delivery/http"
	"medichat/internal/delivery/websocket"
	"medichat/internal/repository"
	"medichat/internal/usecase"
	"medichat/pkg/jwt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func Run() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("godotenv: error loading .env file")
	}

	ctx := context.Background()

	mongoDbHost := os.Getenv("MONGODB_URI")
	mongoDbName := os.Getenv("MONGODB_DATABASE")
	mongoDb, err := db.NewMongoStore(ctx, mongoDbHost, mongoDbName)
	if err != nil {
		panic(err)
	}

	log.Println("Connected to MongoDB")

	if err := mongoDb.EnsureIndexes(ctx); err != nil {
		log.Printf("Warning: index setup failed: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(mongoDb.DB)
	chatRepo := repository.NewChatRepository(mongoDb.DB)
	messageRepo := repository.NewMessageRepository(mongoDb.DB)
	consultationRepo := repository.NewConsultationRepository(mongoDb.DB)

	// Initialize JWT manager
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-this-in-production" // Default for development
		log.Println("Warning: Using default JWT secret. Set JWT_SECRET in .env for production")
	}
	jwtManager := jwt.NewJWTManager(jwtSecret, 24*time.Hour)

	// Initialize use cases
	memCache := cache.NewMemCache(time.Minute)
	defer memCache.Close()

	authUc := usecase.NewAuthUsecase(userRepo, jwtManager)
	userUc := usecase.NewUserUsecase(userRepo, memCache)
	chatUc := usecase.NewChatUsecase(chatRepo, messageRepo, userRepo, consultationRepo)
	messageUc := usecase.NewMessageUsecase(messageRepo, chatRepo)
	consultationUc := usecase.NewConsultationUsecase(consultationRepo, chatRepo, messageRepo, userUc)

	hub := ws.NewHub()
	hub.SetOnClientUnregister(func(client *ws.UserClient) error {
		userUc.HandleDisconnect(client.UserId)
		return nil
	})
	go hub.Run()

	log.Println("Websocket is running")

	// CORS middleware
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:3000")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			// Handle preflight requests
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Initialize handlers
	websocketH := websocket.NewWebsocketHandler(hub, authUc, userUc, chatUc, messageUc)
	httpH := httpHandler.NewHttpHandler(chatUc, messageUc, consultationUc)
	authH := httpHandler.NewAuthHandler(authUc)
	authMiddleware := httpHandler.NewAuthMiddleware(authUc)

	// Map routes
	httpHandler.MapHttpRoutes(router, *httpH, *websocketH, *authH, authMiddleware)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("HTTP server is running on :%s", port)

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}
