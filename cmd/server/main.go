package main

import (
	"log"

	"github.com/hildolfr/dazza-sub007/internal/chat"
	"github.com/hildolfr/dazza-sub007/internal/config"
	"github.com/hildolfr/dazza-sub007/internal/database"
	"github.com/hildolfr/dazza-sub007/internal/handlers"
	"github.com/hildolfr/dazza-sub007/internal/heist"
	"github.com/hildolfr/dazza-sub007/internal/middleware"
	"github.com/hildolfr/dazza-sub007/internal/services"
	"github.com/hildolfr/dazza-sub007/internal/ws"

	_ "github.com/hildolfr/dazza-sub007/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Dazza Heist API
// @version         1.0
// @description     Chat-room heist minigame: scheduled heists, crime votes, payouts and trust, with host management over HTTP
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	roomService := services.NewRoomService(db)
	crimeService := services.NewCrimeService(db)
	heistService := services.NewHeistService(db)
	economyService := services.NewEconomyService(db)
	trustService := services.NewTrustService(db)
	configService := services.NewRoomConfigService(db)

	if err := crimeService.SeedDefaults(); err != nil {
		log.Fatalf("failed to seed crime catalog: %v", err)
	}

	chatClient := chat.NewClient(cfg.ChatBaseURL, cfg.ChatToken)
	announcer := chat.NewAnnouncer(chatClient, roomService)
	defer announcer.Stop()

	registry := heist.NewRegistry(heist.Deps{
		Config:   configService,
		Sessions: heistService,
		Catalog:  crimeService,
		Economy:  economyService,
		Trust:    trustService,
		Announce: heist.MultiAnnouncer{announcer, ws.NewEvents(hub)},
		Timing: heist.Timing{
			MinDelay:    cfg.Heist.MinDelay,
			MaxDelay:    cfg.Heist.MaxDelay,
			AnnounceFor: cfg.Heist.AnnounceWindow,
			VoteWindow:  cfg.Heist.VoteWindow,
			HeistFor:    cfg.Heist.HeistDuration,
			Cooldown:    cfg.Heist.Cooldown,
		},
	})
	defer registry.Stop()

	chatManager := chat.NewManager(
		db, chatClient, registry,
		crimeService, economyService, trustService,
		cfg.RoomRefresh,
	)
	if cfg.ChatBaseURL != "" {
		chatManager.Start()
		defer chatManager.Stop()
	} else {
		log.Println("CHAT_BASE_URL not set, chat manager disabled")
	}

	// Rooms with heists enabled pick their cycles back up before the API
	// starts taking commands.
	if ids, err := roomService.EnabledRoomIDs(); err != nil {
		log.Printf("failed to list heist rooms: %v", err)
	} else {
		registry.Restore(ids)
	}

	authHandler := handlers.NewAuthHandler(authService)
	roomHandler := handlers.NewRoomHandler(roomService, heistService, registry, hub, chatManager.Refresh)
	heistHandler := handlers.NewHeistHandler(registry, heistService)
	crimeHandler := handlers.NewCrimeHandler(crimeService)
	economyHandler := handlers.NewEconomyHandler(economyService)
	trustHandler := handlers.NewTrustHandler(trustService)
	wsHandler := handlers.NewWSHandler(hub, roomService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Bot-API-Key"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/room/:code", wsHandler.HandleRoomWebSocket)
	r.POST("/webhook/chat", middleware.BotAuth(cfg.BotAPIKey), chatManager.HandleWebhook)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		rooms := api.Group("/rooms")
		{
			rooms.POST("", middleware.JWTAuth(authService), roomHandler.CreateRoom)
			rooms.GET("", middleware.JWTAuth(authService), roomHandler.ListActiveRooms)
			rooms.GET("/:id", middleware.FlexAuth(authService, cfg.BotAPIKey), roomHandler.GetRoom)
			rooms.POST("/:id/close", middleware.JWTAuth(authService), roomHandler.CloseRoom)
			rooms.PUT("/:id/heists", middleware.JWTAuth(authService), roomHandler.SetHeists)

			rooms.GET("/:id/heist", middleware.FlexAuth(authService, cfg.BotAPIKey), heistHandler.GetStatus)
			rooms.POST("/:id/heist/advance", middleware.FlexAuth(authService, cfg.BotAPIKey), heistHandler.ForceAdvance)
			rooms.POST("/:id/heist/vote", middleware.FlexAuth(authService, cfg.BotAPIKey), heistHandler.CastVote)
			rooms.GET("/:id/heists", middleware.FlexAuth(authService, cfg.BotAPIKey), heistHandler.ListRoomHeists)

			rooms.POST("/join", roomHandler.JoinRoom)
			rooms.POST("/reconnect", roomHandler.Reconnect)
		}

		heists := api.Group("/heists")
		{
			heists.GET("/:id", middleware.FlexAuth(authService, cfg.BotAPIKey), heistHandler.GetHeist)
		}

		crimes := api.Group("/crimes")
		crimes.Use(middleware.JWTAuth(authService))
		{
			crimes.GET("", crimeHandler.ListCrimes)
			crimes.POST("", crimeHandler.CreateCrime)
			crimes.GET("/export", crimeHandler.ExportCrimes)
			crimes.POST("/import", crimeHandler.ImportCrimes)
			crimes.GET("/:id", crimeHandler.GetCrime)
			crimes.PUT("/:id", crimeHandler.UpdateCrime)
			crimes.DELETE("/:id", crimeHandler.DeleteCrime)
			crimes.PUT("/:id/enabled", crimeHandler.SetEnabled)
		}

		economy := api.Group("/economy")
		economy.Use(middleware.FlexAuth(authService, cfg.BotAPIKey))
		{
			economy.GET("/top", economyHandler.TopBalances)
			economy.GET("/:username", economyHandler.GetBalance)
		}

		trust := api.Group("/trust")
		trust.Use(middleware.FlexAuth(authService, cfg.BotAPIKey))
		{
			trust.GET("/top", trustHandler.Leaderboard)
			trust.GET("/:username", trustHandler.GetRecord)
			trust.GET("/:username/history", trustHandler.GetHistory)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
