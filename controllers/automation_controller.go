package controllers

import (
	"context"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"applyflow/config"
	"applyflow/models"
	"applyflow/services"
	"applyflow/utils"
)

// AutomationController exposes the application pipeline over HTTP. Runs
// are serialized: one browser session at a time, a second request gets
// 409 instead of queueing behind a multi-minute run.
type AutomationController struct {
	cfg         config.AppConfig
	pipeline    *services.ApplicationPipeline
	llm         *services.LLMClient
	screenshots *services.ScreenshotService
	appModel    *models.ApplicationModel
	runSlot     chan struct{}
}

func NewAutomationController(cfg config.AppConfig, pipeline *services.ApplicationPipeline, llm *services.LLMClient, screenshots *services.ScreenshotService, appModel *models.ApplicationModel) *AutomationController {
	slot := make(chan struct{}, 1)
	slot <- struct{}{}
	return &AutomationController{
		cfg:         cfg,
		pipeline:    pipeline,
		llm:         llm,
		screenshots: screenshots,
		appModel:    appModel,
		runSlot:     slot,
	}
}

type ApplyRequest struct {
	JobURL   string   `json:"job_url" binding:"required,url"`
	Language string   `json:"language"`
	Headless *bool    `json:"headless"`
	SlowMoMS *float64 `json:"slow_mo_ms"`
}

// Apply runs one application attempt synchronously and returns the full
// result. The run budget from configuration bounds the request.
func (c *AutomationController) Apply(ctx *gin.Context) {
	var req ApplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequestError(ctx, "Invalid request data", err)
		return
	}

	select {
	case <-c.runSlot:
		defer func() { c.runSlot <- struct{}{} }()
	default:
		ctx.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": "Another application run is in progress",
		})
		return
	}

	cv, err := models.LoadCVDocument(filepath.Join(c.cfg.Automation.DataDir, "profile.json"))
	if err != nil {
		utils.InternalServerError(ctx, "Could not load CV profile", err)
		return
	}
	if err := cv.Validate(); err != nil {
		utils.InternalServerError(ctx, "CV profile is unusable", err)
		return
	}

	runCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.cfg.Automation.RunBudget)
	defer cancel()

	utils.Events.Event("run_requested", map[string]interface{}{"job_url": req.JobURL})
	result := c.pipeline.Run(runCtx, req.JobURL, cv, services.RunOptions{
		Headless: req.Headless,
		SlowMoMS: req.SlowMoMS,
		Language: req.Language,
	})
	utils.Events.RunEvent(result.RunID, "run_finished", map[string]interface{}{
		"status":   result.Status,
		"strategy": result.SubmitStrategy,
	})

	if c.appModel != nil {
		if _, err := c.appModel.Create(result.ToRecord()); err != nil {
			log.Printf("⚠ Could not persist application record: %v", err)
		}
	}

	status := http.StatusOK
	if result.Status == services.StatusSetupFailed || result.Status == services.StatusNavigationFailed {
		status = http.StatusBadGateway
	}
	ctx.JSON(status, result)
}

// ListApplications returns recent persisted runs with resolvable
// screenshot links.
func (c *AutomationController) ListApplications(ctx *gin.Context) {
	if c.appModel == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "Persistence is not configured",
		})
		return
	}

	apps, err := c.appModel.ListRecent(50)
	if err != nil {
		utils.InternalServerError(ctx, "Could not list applications", err)
		return
	}
	for i := range apps {
		for j, key := range apps[i].ScreenshotKeys {
			apps[i].ScreenshotKeys[j] = c.screenshots.ResolveURL(key)
		}
	}
	utils.SuccessResponse(ctx, http.StatusOK, "Applications retrieved", apps)
}

// Health reports whether the model backend and database are reachable.
func (c *AutomationController) Health(ctx *gin.Context) {
	llmUp := c.llm.HealthCheck(ctx.Request.Context())
	dbUp := c.appModel != nil

	status := http.StatusOK
	if !llmUp {
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, gin.H{
		"llm_backend": llmUp,
		"database":    dbUp,
	})
}
