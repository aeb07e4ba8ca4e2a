// Package router assembles the HTTP surface of the results API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/handler"
	"github.com/noah-isme/sma-results-api/internal/middleware"
	"github.com/noah-isme/sma-results-api/internal/models"
	"github.com/noah-isme/sma-results-api/internal/service"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
	"github.com/noah-isme/sma-results-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-results-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-results-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-results-api/pkg/response"
)

// Handlers groups every HTTP handler mounted by New.
type Handlers struct {
	GradeConfigs *handler.GradeConfigHandler
	Classes      *handler.ClassHandler
	Subjects     *handler.SubjectHandler
	Students     *handler.StudentHandler
	Teachers     *handler.TeacherHandler
	Results      *handler.ResultHandler
	Metrics      *handler.MetricsHandler
}

// Options carries the cross-cutting collaborators of the router.
type Options struct {
	APIPrefix      string
	EnableDocs     bool
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Verifier       middleware.TokenVerifier
	Limiter        *middleware.IPRateLimiter
}

var (
	adminRoles = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin}
	staffRoles = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher}
)

// New builds the gin engine with ops endpoints, the public lookup and staff routes.
func New(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)

	public := api.Group("/results", middleware.RateLimit(opts.Limiter, opts.Metrics))
	public.GET("/:examNumber", h.Results.Lookup)
	public.GET("/:examNumber/report-card", h.Results.ReportCard)

	staff := api.Group("", middleware.JWT(opts.Verifier), middleware.RequireRoles(staffRoles...))
	admin := staff.Group("", middleware.RequireRoles(adminRoles...))

	admin.GET("/grade-configs", h.GradeConfigs.List)
	admin.POST("/grade-configs", h.GradeConfigs.Create)
	staff.GET("/grade-configs/active", h.GradeConfigs.Active)
	admin.GET("/grade-configs/:id", h.GradeConfigs.Get)
	admin.PUT("/grade-configs/:id", h.GradeConfigs.Update)
	admin.POST("/grade-configs/:id/activate", h.GradeConfigs.Activate)

	staff.GET("/classes", h.Classes.List)
	admin.POST("/classes", h.Classes.Create)
	staff.GET("/classes/academic-years", h.Classes.AcademicYears)
	staff.GET("/classes/:id", h.Classes.Get)
	admin.PUT("/classes/:id", h.Classes.Update)
	admin.DELETE("/classes/:id", h.Classes.Delete)
	staff.GET("/classes/:id/subjects", h.Classes.ListSubjects)
	admin.PUT("/classes/:id/subjects", h.Classes.AssignSubjects)
	staff.GET("/classes/:id/results", h.Classes.Results)

	staff.GET("/subjects", h.Subjects.List)
	admin.POST("/subjects", h.Subjects.Create)
	staff.GET("/subjects/:id", h.Subjects.Get)
	admin.PUT("/subjects/:id", h.Subjects.Update)
	admin.DELETE("/subjects/:id", h.Subjects.Delete)

	staff.GET("/students", h.Students.List)
	admin.POST("/students", h.Students.Create)
	staff.GET("/students/:id", h.Students.Get)
	admin.PUT("/students/:id", h.Students.Update)
	admin.DELETE("/students/:id", h.Students.Delete)
	staff.GET("/students/:id/assessments", h.Students.Assessments)
	staff.PUT("/students/:id/assessments", h.Students.SaveAssessments)
	staff.PUT("/students/:id/report-card", h.Students.SaveReportCard)

	admin.GET("/teachers", h.Teachers.List)
	admin.POST("/teachers", h.Teachers.Create)
	admin.GET("/teachers/:id", h.Teachers.Get)
	admin.PUT("/teachers/:id", h.Teachers.Update)
	admin.DELETE("/teachers/:id", h.Teachers.Delete)
	admin.GET("/teachers/:id/assignments", h.Teachers.ListAssignments)
	admin.POST("/teachers/:id/assignments", h.Teachers.CreateAssignment)
	admin.DELETE("/teachers/:id/assignments/:aid", h.Teachers.DeleteAssignment)
	staff.GET("/me/assignments", h.Teachers.MyAssignments)

	admin.GET("/metrics/snapshot", h.Metrics.Snapshot)

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, appErrors.New("METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed, "method not allowed"))
	})

	return r
}
