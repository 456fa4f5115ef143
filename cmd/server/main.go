package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crm/backend/internal/application/bulk"
	"github.com/crm/backend/internal/application/contact"
	"github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/application/listing"
	"github.com/crm/backend/internal/application/settings"
	"github.com/crm/backend/internal/application/tagging"
	"github.com/crm/backend/internal/application/task"
	"github.com/crm/backend/internal/application/team"
	"github.com/crm/backend/internal/application/triage"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting CRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Token blacklist: Redis when reachable, in-memory otherwise so a
	// cache outage at boot does not keep the API from starting.
	var blacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory token blacklist", zap.Error(err))
		blacklist = auth.NewMemoryTokenBlacklist()
	} else {
		defer func() {
			if err := redisBlacklist.Close(); err != nil {
				log.Error("Error closing redis connection", zap.Error(err))
			}
		}()
		blacklist = redisBlacklist
		log.Info("Redis token blacklist connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Repositories
	identityRepo := persistence.NewIdentityRepository(db.DB)
	personRepo := persistence.NewPersonRepository(db.DB)
	householdRepo := persistence.NewHouseholdRepository(db.DB)
	tagRepo := persistence.NewTagRepository(db.DB)
	listRepo := persistence.NewListRepository(db.DB)
	teamRepo := persistence.NewTeamRepository(db.DB)
	taskRepo := persistence.NewTaskRepository(db.DB)
	importRepo := persistence.NewDataImportRepository(db.DB)
	messageRepo := persistence.NewEmailMessageRepository(db.DB)
	settingRepo := persistence.NewSettingRepository(db.DB)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identity.NewAuthService(db, identityRepo, personRepo, jwtService, blacklist, log)
	personService := contact.NewPersonService(db, personRepo, householdRepo, listRepo, teamRepo, taskRepo, messageRepo, settingRepo, log)
	householdService := contact.NewHouseholdService(db, householdRepo, personRepo, listRepo, settingRepo, log)
	tagService := tagging.NewTagService(db, tagRepo, personRepo, householdRepo, log)
	listService := listing.NewListService(db, listRepo, personRepo, householdRepo, log)
	teamService := team.NewTeamService(db, teamRepo, personRepo, taskRepo, log)
	importService := bulk.NewImportService(db, importRepo, personRepo, householdRepo, tagRepo, listRepo, teamRepo, taskRepo, messageRepo, log)
	taskService := task.NewTaskService(taskRepo, log)
	triageService := triage.NewTriageService(messageRepo, personRepo, log)
	settingService := settings.NewSettingService(settingRepo, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID(log))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.App.Name))
	engine.Use(middleware.TraceAttributes())
	engine.Use(middleware.CORS(cfg.HTTP.CORSAllowOrigins))
	if cfg.HTTP.RateLimitRequests > 0 {
		engine.Use(middleware.RateLimit(
			middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
	}

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		JWTService: jwtService,
		Blacklist:  blacklist,
		Logger:     log,
	})

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithProtection(authMiddleware),
	)

	r.Register(handler.NewHealthHandler(db, version))
	r.Register(handler.NewAuthHandler(authService, authMiddleware))

	r.RegisterProtected(handler.NewPersonHandler(personService))
	r.RegisterProtected(handler.NewHouseholdHandler(householdService))
	r.RegisterProtected(handler.NewTagHandler(tagService))
	r.RegisterProtected(handler.NewListHandler(listService))
	r.RegisterProtected(handler.NewTeamHandler(teamService))
	r.RegisterProtected(handler.NewImportHandler(importService))
	r.RegisterProtected(handler.NewTaskHandler(taskService))
	r.RegisterProtected(handler.NewTriageHandler(triageService))
	r.RegisterProtected(handler.NewSettingHandler(settingService))

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
