package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-results-api/api/swagger"
	"github.com/noah-isme/sma-results-api/internal/handler"
	"github.com/noah-isme/sma-results-api/internal/middleware"
	"github.com/noah-isme/sma-results-api/internal/repository"
	"github.com/noah-isme/sma-results-api/internal/router"
	"github.com/noah-isme/sma-results-api/internal/service"
	"github.com/noah-isme/sma-results-api/pkg/cache"
	"github.com/noah-isme/sma-results-api/pkg/config"
	"github.com/noah-isme/sma-results-api/pkg/database"
	"github.com/noah-isme/sma-results-api/pkg/jobs"
	"github.com/noah-isme/sma-results-api/pkg/logger"
)

// @title School Results API
// @version 1.0.0
// @description Score entry, grading policies and public exam number result lookup.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, results cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	policy, err := config.LoadGradingPolicy(cfg.Grading.PolicyFile)
	if err != nil {
		logr.Warn("grading policy file ignored", zap.String("path", cfg.Grading.PolicyFile), zap.Error(err))
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ResultsTTL, logr, redisClient != nil)

	gradeConfigRepo := repository.NewGradeConfigRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classSubjectRepo := repository.NewClassSubjectRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	reportCardRepo := repository.NewReportCardRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	teacherAssignmentRepo := repository.NewTeacherAssignmentRepository(db)

	gradeConfigs := service.NewGradeConfigService(gradeConfigRepo, cacheSvc, service.PolicyFromSettings(policy), validate, logr)
	classes := service.NewClassService(classRepo, subjectRepo, classSubjectRepo, cacheSvc, validate, logr)
	subjects := service.NewSubjectService(subjectRepo, classRepo, classSubjectRepo, cacheSvc, validate, logr)
	students := service.NewStudentService(studentRepo, classRepo, cacheSvc, validate, logr)
	teachers := service.NewTeacherService(teacherRepo, validate, logr)
	teacherAssignments := service.NewTeacherAssignmentService(teacherRepo, classRepo, classSubjectRepo, teacherAssignmentRepo, validate, logr)
	results := service.NewResultService(service.ResultServiceParams{
		Students:    studentRepo,
		Classes:     classRepo,
		Assessments: assessmentRepo,
		ReportCards: reportCardRepo,
		Configs:     gradeConfigs,
		Access:      teacherAssignments,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Logger:      logr,
	})

	var warmer *service.ResultsWarmer
	if cfg.Warmer.Enabled {
		warmer = service.NewResultsWarmer(results, metrics, jobs.QueueConfig{
			Workers:    cfg.Warmer.Workers,
			BufferSize: cfg.Warmer.Buffer,
			MaxRetries: cfg.Warmer.MaxRetries,
			RetryDelay: cfg.Warmer.RetryDelay,
			Logger:     logr,
		})
		warmer.Start(ctx)
		defer warmer.Stop()
	}
	assessments := service.NewAssessmentService(studentRepo, classSubjectRepo, assessmentRepo, reportCardRepo, teacherAssignments, cacheSvc, warmer, validate, logr)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go limiter.Run(ctx)

	handlers := router.Handlers{
		GradeConfigs: handler.NewGradeConfigHandler(gradeConfigs),
		Classes:      handler.NewClassHandler(classes, results),
		Subjects:     handler.NewSubjectHandler(subjects),
		Students:     handler.NewStudentHandler(students, assessments),
		Teachers:     handler.NewTeacherHandler(teachers, teacherAssignments),
		Results:      handler.NewResultHandler(results),
		Metrics: handler.NewMetricsHandler(metrics, warmer, map[string]handler.Pinger{
			"database": handler.PingFunc(db.PingContext),
			"cache":    cacheRepo,
		}),
	}
	engine := router.New(handlers, router.Options{
		APIPrefix:      cfg.APIPrefix,
		EnableDocs:     cfg.Env != config.EnvProduction,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
		Metrics:        metrics,
		Verifier:       service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		Limiter:        limiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("grading_policy", policy.CalculationMethod))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}
