package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-results-api/internal/dto"
	"github.com/noah-isme/sma-results-api/internal/grading"
	"github.com/noah-isme/sma-results-api/internal/models"
	"github.com/noah-isme/sma-results-api/internal/service"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
	"github.com/noah-isme/sma-results-api/pkg/response"
)

type gradeConfigService interface {
	List(ctx context.Context) ([]models.GradeConfiguration, error)
	Get(ctx context.Context, id string) (*models.GradeConfiguration, error)
	Active(ctx context.Context) (grading.Config, error)
	Create(ctx context.Context, req service.GradeConfigRequest) (*models.GradeConfiguration, error)
	Update(ctx context.Context, id string, req service.GradeConfigRequest) (*models.GradeConfiguration, error)
	Activate(ctx context.Context, id string) (*models.GradeConfiguration, error)
}

// GradeConfigHandler exposes grade configuration endpoints.
type GradeConfigHandler struct {
	configs gradeConfigService
}

// NewGradeConfigHandler constructs handler.
func NewGradeConfigHandler(configs gradeConfigService) *GradeConfigHandler {
	return &GradeConfigHandler{configs: configs}
}

// List godoc
// @Summary List grade configurations
// @Tags Grade Configs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-configs [get]
func (h *GradeConfigHandler) List(c *gin.Context) {
	configs, err := h.configs.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// Get godoc
// @Summary Get grade configuration
// @Tags Grade Configs
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grade-configs/{id} [get]
func (h *GradeConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Active godoc
// @Summary Get the policy currently used for computations
// @Tags Grade Configs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-configs/active [get]
func (h *GradeConfigHandler) Active(c *gin.Context) {
	cfg, err := h.configs.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"stored": cfg.IsActive}
	response.JSON(c, http.StatusOK, dto.NewReportConfiguration(cfg), nil, meta)
}

// Create godoc
// @Summary Create grade configuration
// @Tags Grade Configs
// @Accept json
// @Produce json
// @Param payload body service.GradeConfigRequest true "Configuration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grade-configs [post]
func (h *GradeConfigHandler) Create(c *gin.Context) {
	var req service.GradeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade configuration payload"))
		return
	}
	cfg, err := h.configs.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cfg)
}

// Update godoc
// @Summary Update grade configuration
// @Tags Grade Configs
// @Accept json
// @Produce json
// @Param id path string true "Configuration ID"
// @Param payload body service.GradeConfigRequest true "Configuration payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grade-configs/{id} [put]
func (h *GradeConfigHandler) Update(c *gin.Context) {
	var req service.GradeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade configuration payload"))
		return
	}
	cfg, err := h.configs.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Activate godoc
// @Summary Activate grade configuration
// @Description Deactivates every other configuration and clears cached results.
// @Tags Grade Configs
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 200 {object} response.Envelope
// @Router /grade-configs/{id}/activate [post]
func (h *GradeConfigHandler) Activate(c *gin.Context) {
	cfg, err := h.configs.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}
