package app

import (
	"context"
	"edu_tutor_backend/internal/config"
	"edu_tutor_backend/internal/controller"
	"edu_tutor_backend/internal/repository"
	"edu_tutor_backend/internal/service"
	"edu_tutor_backend/pkg/database"
	"edu_tutor_backend/pkg/logger"
	"edu_tutor_backend/pkg/monitoring"
	"edu_tutor_backend/pkg/security"
	"edu_tutor_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user     *repository.UserRepository
	standard *repository.StandardRepository
	result   *repository.QuizResultRepository
	setting  *repository.SettingRepository
	session  *repository.QuizSessionStore
}

type services struct {
	ai        service.AIClient
	storage   service.StorageProvider
	auth      *service.AuthService
	study     *service.StudyService
	quiz      *service.QuizService
	speech    *service.SpeechService
	settings  *service.SettingsService
	dashboard *service.DashboardService
}

type controllers struct {
	auth      *controller.AuthController
	standard  *controller.StandardController
	study     *controller.StudyController
	quiz      *controller.QuizController
	speech    *controller.SpeechController
	result    *controller.ResultController
	dashboard *controller.DashboardController
	settings  *controller.SettingsController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		standard: repository.NewStandardRepository(db),
		result:   repository.NewQuizResultRepository(db),
		setting:  repository.NewSettingRepository(db),
		session:  repository.NewQuizSessionStore(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	storage, err := service.NewStorageProvider(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	s.ai = service.NewAIService(cfg.AI, cfg.Speech)
	s.auth = service.NewAuthService(repos.user, cfg.JWT)
	s.study = service.NewStudyService(repos.standard, s.ai, s.storage, rdb)
	s.quiz = service.NewQuizService(repos.session, repos.standard, repos.result, s.ai, s.storage)
	s.speech = service.NewSpeechService(s.ai, s.storage, cfg.Speech.DefaultVoice)
	s.settings = service.NewSettingsService(repos.setting, s.ai)
	s.dashboard = service.NewDashboardService(repos.result)

	return s, nil
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		standard:  controller.NewStandardController(repos.standard),
		study:     controller.NewStudyController(s.study),
		quiz:      controller.NewQuizController(s.quiz),
		speech:    controller.NewSpeechController(s.speech),
		result:    controller.NewResultController(repos.result),
		dashboard: controller.NewDashboardController(s.dashboard),
		settings:  controller.NewSettingsController(s.settings),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 600
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	// 未显式关闭的学习会话定期回收，避免goroutine与内存泄漏
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		for range ticker.C {
			if removed := s.study.CleanupExpired(2 * time.Hour); removed > 0 {
				logger.Log.Info("cleaned up expired study sessions", zap.Int("removed", removed))
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, repos, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("edu-tutor-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
