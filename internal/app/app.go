package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"symposium_backend/internal/config"
	"symposium_backend/internal/controller"
	"symposium_backend/internal/repository"
	"symposium_backend/internal/service"
	"symposium_backend/internal/util"
	"symposium_backend/pkg/configwatcher"
	"symposium_backend/pkg/database"
	"symposium_backend/pkg/logger"
	"symposium_backend/pkg/monitoring"
	"symposium_backend/pkg/security"
	"symposium_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
	tracer          *sdktrace.TracerProvider
}

type repositories struct {
	attempt     *repository.AttemptRepository
	event       *repository.EventRepository
	rule        *repository.RuleRepository
	participant *repository.ParticipantRepository
	question    *repository.QuestionRepository
}

type services struct {
	rule        *service.RuleService
	scoring     *service.ScoringService
	archive     *service.ArchiveService
	attempt     *service.AttemptService
	violation   *service.ViolationService
	leaderboard *service.LeaderboardService
	broker      service.Broker
	redisBroker *service.RedisBroker
	sweeper     *service.Sweeper
}

type controllers struct {
	attempt     *controller.AttemptController
	admin       *controller.AdminController
	leaderboard *controller.LeaderboardController
	realtime    *controller.RealtimeController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		attempt:     repository.NewAttemptRepository(db),
		event:       repository.NewEventRepository(db),
		rule:        repository.NewRuleRepository(db),
		participant: repository.NewParticipantRepository(db),
		question:    repository.NewQuestionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	local := service.NewLocalBroker(0)
	s.broker = local
	if cfg.Proctoring.Broker == "redis" && rdb != nil {
		s.redisBroker = service.NewRedisBroker(rdb, cfg.Proctoring.NotifierChannel, local)
		s.broker = s.redisBroker
	}

	s.rule = service.NewRuleService(repos.event, repos.rule)
	s.scoring = service.NewScoringService()
	s.archive = service.NewArchiveService(cfg)
	s.attempt = service.NewAttemptService(
		db,
		repos.attempt,
		repos.event,
		repos.participant,
		repos.question,
		s.rule,
		s.scoring,
		s.broker,
		s.archive,
	)
	s.violation = service.NewViolationService(s.attempt)
	s.leaderboard = service.NewLeaderboardService(repos.attempt, repos.event, repos.participant, repos.question, s.attempt, s.broker)
	s.sweeper = service.NewSweeper(s.attempt, cfg.Proctoring.SweepInterval)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		attempt:     controller.NewAttemptController(s.attempt, s.violation, s.rule),
		admin:       controller.NewAdminController(s.attempt, s.leaderboard),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		realtime:    controller.NewRealtimeController(s.broker),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 {
		window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
		if window <= 0 {
			window = time.Minute
		}
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 启动过期扫描、Redis 中继与配置热更新，ctx 取消时全部退出
func (a *App) startBackgroundTasks(ctx context.Context) {
	s := a.services
	go s.sweeper.Run(ctx)

	if s.redisBroker != nil {
		go s.redisBroker.Run(ctx)
	}

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.sweeper.SetInterval(newCfg.Proctoring.SweepInterval)
		if s.archive != nil {
			s.archive.Enabled = newCfg.Proctoring.ArchiveEnabled
		}
	})

	if a.Config.ConfigFile != "" {
		go func() {
			err := configwatcher.WatchConfig(ctx, a.Config.ConfigFile, func(newCfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(newCfg)
				}
			})
			if err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}
}

// New 组装路由与服务，不启动任何后台任务
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	if err := util.RegisterValidators(); err != nil {
		logger.Log.Fatal("Failed to register validators", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal && cfg.Proctoring.ArchiveEnabled {
		router.Static("/archives", cfg.Storage.LocalPath)
	}

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.Server.Mode != "release" || cfg.ForceMigrate
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	var rdb *redis.Client
	if cfg.Proctoring.Broker == "redis" {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

func (a *App) Run() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a.startBackgroundTasks(ctx)

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// 先停后台任务，再关闭 HTTP
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
