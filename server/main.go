package main

import (
	"context"
	"flag"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cordonhq/cordon/pkg/aiexplain"
	"github.com/cordonhq/cordon/pkg/config"
	"github.com/cordonhq/cordon/pkg/store"
	"github.com/cordonhq/cordon/pkg/stream"
	"github.com/cordonhq/cordon/pkg/telemetry"
)

var (
	configPath = flag.String("config", "cordon.yaml", "Config file path")
	Version    = "dev"
)

// Server wires the store, change feed and AI analyst behind the HTTP API.
// It is constructed once at startup; nothing here is a hidden singleton.
type Server struct {
	store      *store.Store
	hub        *stream.Hub
	analyst    aiexplain.Analyst
	limiter    *RateLimiter
	log        zerolog.Logger
	cfg        *config.Config
	adminToken string
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger := telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info().Str("version", Version).Msg("cordon server starting")

	ctx := context.Background()
	provider, err := telemetry.SetupTracing(ctx, "cordon-server", Version, cfg.Tracing.Endpoint, cfg.Tracing.Insecure, cfg.Tracing.SampleRatio)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	db, err := gorm.Open(sqlite.Open(cfg.Server.DBPath), &gorm.Config{})
	if err != nil {
		logger.Fatal().Err(err).Str("db_path", cfg.Server.DBPath).Msg("failed to open database")
	}

	hub := stream.NewHub(logger.With().Str("component", "stream").Logger())
	st := store.New(db, logger.With().Str("component", "store").Logger(), hub)
	if err := st.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("schema migration failed")
	}

	for _, tenant := range cfg.Server.SeedTenants {
		if err := st.Seed(ctx, tenant); err != nil {
			logger.Fatal().Err(err).Str("tenant_id", tenant).Msg("seeding failed")
		}
		logger.Info().Str("tenant_id", tenant).Msg("tenant seeded")
	}

	var analyst aiexplain.Analyst = aiexplain.Simulated{}
	if !cfg.AI.Simulate {
		analyst = aiexplain.NewClient(cfg.AI.Endpoint, cfg.AI.APIKey, cfg.AI.Model, time.Duration(cfg.AI.TimeoutS)*time.Second)
		logger.Info().Str("model", cfg.AI.Model).Msg("using live AI analyst")
	}

	srv := &Server{
		store:      st,
		hub:        hub,
		analyst:    analyst,
		limiter:    NewRateLimiter(),
		log:        logger,
		cfg:        cfg,
		adminToken: cfg.Server.AdminToken,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(withRequestContext(logger))
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		r.Use(cors.New(corsCfg))
	}

	srv.registerRoutes(r)

	logger.Info().Str("listen", cfg.Server.Listen).Msg("listening")
	if err := r.Run(cfg.Server.Listen); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/v1/health", s.handleHealth)

	admin := r.Group("/v1/admin", s.requireAdmin)
	admin.POST("/users", s.handleBindUser)
	admin.POST("/tenants/:id/seed", s.handleSeedTenant)

	api := r.Group("/v1", s.requireUser)
	api.GET("/me", s.handleMe)

	api.GET("/devices", s.handleListDevices)
	api.POST("/devices", s.handleEnrollDevice)
	api.GET("/devices/:id", s.handleGetDevice)
	api.POST("/devices/isolate", s.handleIsolateDevices)
	api.POST("/devices/:id/policy", s.handleChangeDevicePolicy)

	api.GET("/alerts", s.handleListAlerts)
	api.GET("/alerts/:id", s.handleGetAlert)
	api.POST("/alerts/:id/status", s.handleUpdateAlertStatus)
	api.POST("/alerts/:id/isolate-device", s.handleIsolateFromAlert)
	api.POST("/alerts/:id/explain", s.handleExplainAlert)

	api.GET("/policies", s.handleListPolicies)
	api.GET("/policies/:name", s.handleGetPolicy)
	api.PUT("/policies/:name", s.handleSavePolicy)

	api.GET("/audit", s.handleListAudit)
	api.GET("/stats", s.handleStats)
	api.POST("/ai/summarize", s.handleSummarize)

	api.POST("/enroll/tokens", s.handleIssueToken)
	api.GET("/enroll/tokens", s.handleListTokens)

	api.GET("/stream", s.handleStream)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":       "healthy",
		"version":      Version,
		"feed_clients": s.hub.ClientCount(),
		"rate_limiter": s.limiter.Stats(),
	})
}
