package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/aggregate"
	apirest "github.com/orbstation/portal/api/rest"
	"github.com/orbstation/portal/api/sse"
	"github.com/orbstation/portal/cache"
	"github.com/orbstation/portal/config"
	"github.com/orbstation/portal/identity"
	mw "github.com/orbstation/portal/middleware"
	"github.com/orbstation/portal/scheduler"
	"github.com/orbstation/portal/social"
	"github.com/orbstation/portal/upstream"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Upstream + Services ----
	api := upstream.New(cfg.Upstream, logger)
	identSvc := identity.NewService(api, logger)
	socialSvc := social.NewService(api, logger)
	aggSvc := aggregate.NewService(api, c, cfg.Cache.ResourceTTL, cfg.Cache.StatusTTL, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// The status poll feeds both the cached /api/server endpoint and the
	// SSE stream.
	sched.AddTicker("server_status_poll", cfg.Cache.StatusTTL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Upstream.Timeout+time.Second)
		defer cancel()
		if err := aggSvc.RefreshServerStatus(ctx, pubsub); err != nil {
			logger.Warn("server status poll failed", zap.Error(err))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	corsCfg := cors.DefaultConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Security.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowCredentials = !corsCfg.AllowAllOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Admin-Key")
	r.Use(cors.New(corsCfg))

	// Session claims are attached when a valid token is present; the
	// middleware never rejects on its own.
	r.Use(mw.Session(cfg.Security, c))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(cfg, identSvc, c, logger)
	playerH := apirest.NewPlayerHandler(aggSvc, api, logger)
	socialH := apirest.NewSocialHandler(socialSvc, logger)
	roundsH := apirest.NewRoundsHandler(aggSvc, logger)
	eventsH := apirest.NewEventsHandler(aggSvc, logger)
	serverH := apirest.NewServerHandler(aggSvc, logger)
	adminH := apirest.NewAdminHandler(c, sched, logger)

	apiG := r.Group("/api")
	{
		authG := apiG.Group("/auth")
		authG.GET("/login", authH.Login)
		authG.GET("/callback", authH.Callback)
		authG.POST("/logout", authH.Logout)
		authG.POST("/refresh", mw.RequireAuth(), authH.Refresh)

		apiG.GET("/session", mw.RequireAuth(), authH.Session)
		apiG.POST("/verify", mw.RequireAuth(), authH.Verify)

		apiG.GET("/server", serverH.Status)
		apiG.GET("/rounds", roundsH.List)
		apiG.GET("/rounds/:round_id", roundsH.Detail)
		apiG.GET("/events/crimes", eventsH.Crimes)
		apiG.GET("/events/overview", eventsH.Overview)
		apiG.GET("/players/:ckey", playerH.Profile)
		apiG.GET("/player/favorite_character", playerH.FavoriteCharacter)
		apiG.GET("/autocomplete/ckey", playerH.Autocomplete)

		playerG := apiG.Group("/player")
		playerG.Use(mw.RequireLink())
		playerG.GET("/friends", socialH.List)
		playerG.GET("/friends/check", socialH.Check)
		playerG.POST("/friends", socialH.Add)
		playerG.POST("/friends/:id/accept", socialH.Accept)
		playerG.POST("/friends/:id/decline", socialH.Decline)
		playerG.DELETE("/friends/:id", socialH.Remove)
		playerG.GET("/bans", playerH.Bans)
		playerG.GET("/rounds", playerH.Rounds)
		playerG.GET("/tickets", playerH.Tickets)

		adminG := apiG.Group("/admin")
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/cache/stats", adminH.CacheStats)
		adminG.POST("/cache/purge", adminH.CachePurge)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, aggSvc, logger)
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
