package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"applyflow/config"
	"applyflow/models"
)

// ApplicationResult is the full report of one automation run.
type ApplicationResult struct {
	RunID           string         `json:"run_id"`
	JobURL          string         `json:"job_url"`
	Success         bool           `json:"success"`
	Status          string         `json:"status"`
	Message         string         `json:"message,omitempty"`
	SubmitStrategy  string         `json:"submit_strategy,omitempty"`
	Screenshots     []string       `json:"screenshots,omitempty"`
	FilledFields    []FieldOutcome `json:"filled_fields,omitempty"`
	UnmappedFields  []string       `json:"unmapped_fields,omitempty"`
	Uploads         []UploadOutcome `json:"uploads,omitempty"`
	CaptchaDetected bool           `json:"captcha_detected"`
	ErrorDetails    string         `json:"error_details,omitempty"`
	Duration        time.Duration  `json:"duration_ns"`
}

// Run statuses. attempted_unverified means the form was submitted but no
// confirmation could be observed.
const (
	StatusSubmitted           = "submitted"
	StatusAttemptedUnverified = "attempted_unverified"
	StatusNoSubmitPath        = "no_submit_path"
	StatusSetupFailed         = "setup_failed"
	StatusNavigationFailed    = "navigation_failed"
	StatusCancelled           = "cancelled"
)

// ApplicationPipeline drives one job application end to end: session
// start, three-source field detection, CV mapping, form filling, uploads
// and the submission cascade. Only session start and navigation are
// fatal; everything downstream degrades per-item.
type ApplicationPipeline struct {
	cfg         config.AutomationConfig
	llm         *LLMClient
	classifier  *FieldClassifier
	scanner     *DOMScanner
	visual      *VisualAnalyzer
	prober      *FocusProber
	combiner    *EvidenceCombiner
	mapper      *FieldMapper
	driver      *FormDriver
	uploads     *UploadResolver
	screenshots *ScreenshotService
	attachments *AttachmentStore
	coverLetter *CoverLetterService
}

func NewApplicationPipeline(cfg config.AutomationConfig, llmCfg config.LLMConfig) *ApplicationPipeline {
	llm := NewLLMClient(llmCfg.BaseURL, llmCfg.FormModel, llmCfg.GenerateTimeout)
	classifier := NewFieldClassifier()
	pacing := DefaultPacingPolicy()
	attachments := NewAttachmentStore(cfg.DataDir)

	return &ApplicationPipeline{
		cfg:         cfg,
		llm:         llm,
		classifier:  classifier,
		scanner:     NewDOMScanner(classifier),
		visual:      NewVisualAnalyzer(llm, llmCfg.VisionModel, classifier),
		prober:      NewFocusProber(),
		combiner:    NewEvidenceCombiner(llm, classifier),
		mapper:      NewFieldMapper(llm, classifier),
		driver:      NewFormDriver(pacing, NewSubmissionChecker()),
		uploads:     NewUploadResolver(attachments, classifier, pacing),
		screenshots: NewScreenshotService("./static"),
		attachments: attachments,
		coverLetter: NewCoverLetterService(llm),
	}
}

// LLM exposes the shared model client for health checks.
func (p *ApplicationPipeline) LLM() *LLMClient {
	return p.llm
}

// Screenshots exposes the artifact store for URL resolution.
func (p *ApplicationPipeline) Screenshots() *ScreenshotService {
	return p.screenshots
}

// RunOptions overrides per-run settings on top of the configured
// defaults.
type RunOptions struct {
	Headless *bool
	SlowMoMS *float64
	Language string
	Debug    bool
}

// Run executes one application attempt. The context carries the overall
// run budget; cancellation is honored between pipeline stages and inside
// the slow loops. The browser is released on every exit path.
func (p *ApplicationPipeline) Run(ctx context.Context, jobURL string, cv *models.CVDocument, opts RunOptions) *ApplicationResult {
	started := time.Now()
	result := &ApplicationResult{
		RunID:  uuid.New().String(),
		JobURL: jobURL,
	}
	defer func() { result.Duration = time.Since(started) }()

	lang := p.cfg.Language
	if opts.Language != "" {
		lang = opts.Language
	}
	lang = ResolveLanguage(lang)

	headless := p.cfg.Headless
	if opts.Headless != nil {
		headless = *opts.Headless
	}
	slowMo := p.cfg.SlowMoMS
	if opts.SlowMoMS != nil {
		slowMo = *opts.SlowMoMS
	}

	log.Printf("Starting application run %s for %s (lang=%s)", result.RunID, jobURL, lang)

	p.attachments.EnsureCoverLetter(cv, func(doc *models.CVDocument, path string) error {
		return p.coverLetter.WriteDocx(ctx, doc, lang, path)
	})

	session, err := StartSession(SessionOptions{
		Headless:        headless,
		SlowMoMS:        slowMo,
		NavigateTimeout: p.cfg.NavigateTimeout,
		Locale:          lang,
		Debug:           opts.Debug,
	})
	if err != nil {
		result.Status = StatusSetupFailed
		result.ErrorDetails = err.Error()
		return result
	}
	defer session.Close()

	if err := session.Navigate(ctx, jobURL); err != nil {
		result.Status = StatusNavigationFailed
		result.ErrorDetails = err.Error()
		return result
	}
	page := session.Page()

	// Detection. The initial screenshot doubles as the vision input.
	ref, screenshotData, err := p.screenshots.Capture(page, result.RunID, "initial")
	if err != nil {
		log.Printf("⚠ Initial screenshot failed: %v", err)
	} else if ref != "" {
		result.Screenshots = append(result.Screenshots, ref)
	}

	if cancelled(ctx, result) {
		return result
	}
	domFields := p.scanner.Scan(page)

	if cancelled(ctx, result) {
		return result
	}
	visualElements := p.visual.AnalyzePage(ctx, screenshotData, lang)

	if cancelled(ctx, result) {
		return result
	}
	focusFields, err := p.prober.Probe(ctx, page)
	if err != nil {
		log.Printf("⚠ Focus-order probe incomplete: %v", err)
	}

	report := p.combiner.Combine(domFields, visualElements, focusFields)
	p.combiner.Enrich(ctx, report, lang)
	result.CaptchaDetected = report.CaptchaDetected
	if report.CaptchaDetected {
		log.Printf("⚠ CAPTCHA reported on page, proceeding but submission may fail")
	}

	// Mapping and filling.
	if cancelled(ctx, result) {
		return result
	}
	mapping := p.mapper.MapFields(ctx, report.Fields, cv, lang)
	for _, f := range mapping.Unmapped {
		result.UnmappedFields = append(result.UnmappedFields, f.DescribeText())
	}

	result.FilledFields = p.driver.FillFields(ctx, page, mapping.Mappings)
	result.Uploads = p.uploads.ResolveUploads(ctx, page, report.Fields)

	if ref, _, err := p.screenshots.Capture(page, result.RunID, "before_submit"); err == nil && ref != "" {
		result.Screenshots = append(result.Screenshots, ref)
	}

	// Submission.
	if cancelled(ctx, result) {
		return result
	}
	var lastFilled *models.FormField
	for i := len(result.FilledFields) - 1; i >= 0; i-- {
		if result.FilledFields[i].State == FillFilled {
			lastFilled = result.FilledFields[i].Field
			break
		}
	}
	submit := p.driver.Submit(ctx, page, report.SubmitSelectors, lastFilled)
	result.SubmitStrategy = submit.Strategy

	if ref, _, err := p.screenshots.Capture(page, result.RunID, "after_submit"); err == nil && ref != "" {
		result.Screenshots = append(result.Screenshots, ref)
	}

	switch {
	case submit.Attempted && submit.Verified:
		result.Success = true
		result.Status = StatusSubmitted
		result.Message = "application submitted and confirmed"
	case submit.Attempted:
		result.Success = true
		result.Status = StatusAttemptedUnverified
		result.Message = "submission attempted, no confirmation observed"
	default:
		result.Status = StatusNoSubmitPath
		result.Message = "no submission mechanism could act on this page"
	}

	log.Printf("Run %s finished: status=%s strategy=%s filled=%d uploads=%d",
		result.RunID, result.Status, result.SubmitStrategy, len(result.FilledFields), len(result.Uploads))
	return result
}

func cancelled(ctx context.Context, result *ApplicationResult) bool {
	if err := ctx.Err(); err != nil {
		result.Status = StatusCancelled
		result.ErrorDetails = err.Error()
		return true
	}
	return false
}

// ToRecord flattens a result into the persistence shape.
func (r *ApplicationResult) ToRecord() *models.Application {
	filled := 0
	for _, f := range r.FilledFields {
		if f.State == FillFilled {
			filled++
		}
	}
	return &models.Application{
		RunID:          r.RunID,
		JobURL:         r.JobURL,
		Status:         r.Status,
		Success:        r.Success,
		SubmitStrategy: r.SubmitStrategy,
		FilledCount:    filled,
		UnmappedCount:  len(r.UnmappedFields),
		ScreenshotKeys: r.Screenshots,
		ErrorDetails:   r.ErrorDetails,
	}
}
