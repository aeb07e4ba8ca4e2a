package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/grading"
	"github.com/noah-isme/sma-results-api/internal/models"
	"github.com/noah-isme/sma-results-api/pkg/config"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

const weightTolerance = 0.001

type gradeConfigRepository interface {
	List(ctx context.Context) ([]models.GradeConfiguration, error)
	FindByID(ctx context.Context, id string) (*models.GradeConfiguration, error)
	FindActive(ctx context.Context) (*models.GradeConfiguration, error)
	Create(ctx context.Context, config *models.GradeConfiguration) error
	Update(ctx context.Context, config *models.GradeConfiguration) error
	Activate(ctx context.Context, id string) error
}

// GradeConfigRequest is the payload for creating or updating a grade configuration.
type GradeConfigRequest struct {
	Name              string   `json:"name" validate:"required,max=120"`
	CalculationMethod string   `json:"calculation_method" validate:"required,oneof=average_all end_of_term_only weighted_average"`
	WeightQA1         float64  `json:"weight_qa1" validate:"gte=0,lte=100"`
	WeightQA2         float64  `json:"weight_qa2" validate:"gte=0,lte=100"`
	WeightEndOfTerm   float64  `json:"weight_end_of_term" validate:"gte=0,lte=100"`
	PassMark          *float64 `json:"pass_mark" validate:"omitempty,gte=0,lte=100"`
	IsActive          bool     `json:"is_active"`
}

// PolicyFromSettings converts a file based grading policy into an engine configuration.
// Unknown methods fall back to average_all.
func PolicyFromSettings(policy config.GradingPolicy) grading.Config {
	method := grading.CalculationMethod(policy.CalculationMethod)
	if !method.Valid() {
		method = grading.MethodAverageAll
	}
	cfg := grading.DefaultConfig()
	if policy.Name != "" {
		cfg.Name = policy.Name
	}
	cfg.Method = method
	cfg.WeightQA1 = policy.WeightQA1
	cfg.WeightQA2 = policy.WeightQA2
	cfg.WeightEndOfTerm = policy.WeightEndOfTerm
	if policy.PassMark > 0 {
		cfg.PassMark = policy.PassMark
	}
	return cfg
}

// GradeConfigService manages grade calculation policies and resolves the active one.
type GradeConfigService struct {
	repo      gradeConfigRepository
	cache     *CacheService
	fallback  grading.Config
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeConfigService constructs the service. fallback applies while no configuration is active.
func NewGradeConfigService(repo gradeConfigRepository, cache *CacheService, fallback grading.Config, validate *validator.Validate, logger *zap.Logger) *GradeConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !fallback.Method.Valid() {
		fallback = grading.DefaultConfig()
	}
	fallback.IsActive = false
	return &GradeConfigService{repo: repo, cache: cache, fallback: fallback, validator: validate, logger: logger}
}

// List returns every stored configuration.
func (s *GradeConfigService) List(ctx context.Context) ([]models.GradeConfiguration, error) {
	configs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade configurations")
	}
	return configs, nil
}

// Get returns a configuration by ID.
func (s *GradeConfigService) Get(ctx context.Context, id string) (*models.GradeConfiguration, error) {
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade configuration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade configuration")
	}
	return cfg, nil
}

// Active resolves the policy used for computations: the active stored configuration,
// otherwise the fallback policy.
func (s *GradeConfigService) Active(ctx context.Context) (grading.Config, error) {
	keys, cacheable := s.cache.ResultsKeys(ctx)
	var cached grading.Config
	if cacheable {
		if hit, _ := s.cache.Get(ctx, keys.activeConfig(), &cached); hit {
			return cached, nil
		}
	}

	active, err := s.repo.FindActive(ctx)
	if err != nil && err != sql.ErrNoRows {
		return grading.Config{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active grade configuration")
	}

	var candidates []grading.Config
	if active != nil {
		candidates = append(candidates, active.Policy())
	}
	resolved := grading.ResolveActive(candidates)
	if !resolved.IsActive {
		resolved = s.fallback
	}

	if cacheable {
		_ = s.cache.Set(ctx, keys.activeConfig(), resolved, 0)
	}
	return resolved, nil
}

// Create stores a new configuration. Creating an active configuration deactivates the others.
func (s *GradeConfigService) Create(ctx context.Context, req GradeConfigRequest) (*models.GradeConfiguration, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	cfg := &models.GradeConfiguration{IsActive: req.IsActive}
	applyGradeConfigRequest(cfg, req)
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade configuration")
	}
	s.cache.InvalidateResults(ctx)
	s.logger.Info("grade configuration created", zap.String("config_id", cfg.ID), zap.String("method", string(cfg.CalculationMethod)), zap.Bool("active", cfg.IsActive))
	return cfg, nil
}

// Update modifies an existing configuration. The active flag is changed only through Activate.
func (s *GradeConfigService) Update(ctx context.Context, id string, req GradeConfigRequest) (*models.GradeConfiguration, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	cfg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyGradeConfigRequest(cfg, req)
	if err := s.repo.Update(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade configuration")
	}
	s.cache.InvalidateResults(ctx)
	return cfg, nil
}

// Activate makes id the only active configuration.
func (s *GradeConfigService) Activate(ctx context.Context, id string) (*models.GradeConfiguration, error) {
	cfg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Activate(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate grade configuration")
	}
	cfg.IsActive = true
	s.cache.InvalidateResults(ctx)
	s.logger.Info("grade configuration activated", zap.String("config_id", id))
	return cfg, nil
}

func (s *GradeConfigService) validate(req GradeConfigRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade configuration payload")
	}
	if grading.CalculationMethod(req.CalculationMethod) == grading.MethodWeightedAverage {
		total := req.WeightQA1 + req.WeightQA2 + req.WeightEndOfTerm
		if math.Abs(total-100) > weightTolerance {
			return appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("weights must add up to 100, got %g", total))
		}
	}
	return nil
}

func applyGradeConfigRequest(cfg *models.GradeConfiguration, req GradeConfigRequest) {
	cfg.Name = req.Name
	cfg.CalculationMethod = grading.CalculationMethod(req.CalculationMethod)
	cfg.WeightQA1 = req.WeightQA1
	cfg.WeightQA2 = req.WeightQA2
	cfg.WeightEndOfTerm = req.WeightEndOfTerm
	cfg.PassMark = grading.DefaultPassMark
	if req.PassMark != nil {
		cfg.PassMark = *req.PassMark
	}
}
