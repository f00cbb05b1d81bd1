package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"linkcraft/internal/ai"
	appsvc "linkcraft/internal/app"
	"linkcraft/internal/bootstrap"
	"linkcraft/internal/cache"
	"linkcraft/internal/platform/rabbitmq"
	"linkcraft/internal/repository"
	"linkcraft/internal/transport/http/handler"
	"linkcraft/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	userPostRepo := repository.NewUserPostRepository(app.MySQL)
	userVectorRepo := repository.NewUserPostEmbeddingRepository(app.MySQL)
	viralPostRepo := repository.NewViralPostRepository(app.MySQL)
	viralVectorRepo := repository.NewViralPostEmbeddingRepository(app.MySQL)
	generationRepo := repository.NewGenerationRepository(app.MySQL)

	llmClient := ai.NewOpenAICompatibleClient()
	embeddingService := ai.NewEmbeddingService(llmClient, ai.EmbeddingConfig{
		BaseURL:    app.Config.LLM.BaseURL,
		APIKey:     app.Config.LLM.APIKey,
		Model:      app.Config.LLM.EmbeddingModel,
		Dimensions: app.Config.LLM.EmbeddingDimensions,
	})

	retrievalCache := cache.NewRetrievalCache(
		app.Redis,
		time.Duration(app.Config.Redis.RetrievalTTLHours)*time.Hour,
	)
	generationPublisher := rabbitmq.NewGenerationPublisher(app.MQConn, app.Config.RabbitMQ.GenerationPersistQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
		uint(app.Config.Credits.SignupGrant),
	)
	retrievalService := appsvc.NewRetrievalService(
		userPostRepo,
		userVectorRepo,
		viralPostRepo,
		viralVectorRepo,
		retrievalCache,
	)
	generationService := appsvc.NewGenerationService(
		userRepo,
		embeddingService,
		retrievalService,
		llmClient,
		generationPublisher,
		ai.ChatConfig{
			BaseURL:     app.Config.LLM.BaseURL,
			APIKey:      app.Config.LLM.APIKey,
			Model:       app.Config.LLM.Model,
			Temperature: app.Config.LLM.Temperature,
			MaxTokens:   app.Config.LLM.MaxTokens,
		},
	)
	ingestService := appsvc.NewIngestService(
		userRepo,
		userPostRepo,
		userVectorRepo,
		viralPostRepo,
		viralVectorRepo,
		embeddingService,
	)

	authHandler := handler.NewAuthHandler(authService)
	generateHandler := handler.NewGenerateHandler(generationService, generationRepo)
	retrieveHandler := handler.NewRetrieveHandler(retrievalService, embeddingService)
	ingestHandler := handler.NewIngestHandler(ingestService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	authed := v1.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	authed.POST("/personalized/generate", generateHandler.Generate)
	authed.POST("/rag/retrieve", retrieveHandler.Retrieve)
	authed.POST("/ingest/user-posts", ingestHandler.IngestUserPosts)
	authed.POST("/ingest/viral-posts", ingestHandler.IngestViralPosts)
	authed.GET("/generations", generateHandler.ListGenerations)
	authed.GET("/generations/:id", generateHandler.GetGeneration)
	authed.GET("/credits", authHandler.Credits)

	return router
}
