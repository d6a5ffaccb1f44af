package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"applyflow/config"
	"applyflow/models"
	"applyflow/services"
)

var (
	flagURL      string
	flagHeadless bool
	flagSlowMo   float64
	flagTimeout  time.Duration
	flagLanguage string
	flagDebug    bool
	flagJSON     bool
)

func main() {
	root := &cobra.Command{
		Use:   "autoapply",
		Short: "Apply to a job posting automatically using your CV profile",
		Long: `autoapply opens the given job posting in a browser, detects the
application form, fills it from data/profile.json, attaches the documents
found in the data directory and submits.`,
		RunE: run,
	}

	root.Flags().StringVar(&flagURL, "url", "", "job posting URL (required)")
	root.Flags().BoolVar(&flagHeadless, "headless", true, "run the browser headless")
	root.Flags().Float64Var(&flagSlowMo, "slow-mo", 0, "slow every browser action by this many milliseconds")
	root.Flags().DurationVar(&flagTimeout, "timeout", 20*time.Minute, "overall run budget")
	root.Flags().StringVar(&flagLanguage, "language", "", "page language hint (en, pl, de)")
	root.Flags().BoolVar(&flagDebug, "debug", false, "verbose logging")
	root.Flags().BoolVar(&flagJSON, "json", false, "print the run result as JSON")
	root.MarkFlagRequired("url")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && flagDebug {
		log.Printf("No .env file loaded: %v", err)
	}

	automationCfg := config.GetAutomationConfig()
	llmCfg := config.GetLLMConfig()

	cv, err := models.LoadCVDocument(filepath.Join(automationCfg.DataDir, "profile.json"))
	if err != nil {
		return fmt.Errorf("loading CV profile: %w", err)
	}
	if err := cv.Validate(); err != nil {
		return fmt.Errorf("CV profile is unusable: %w", err)
	}

	pipeline := services.NewApplicationPipeline(automationCfg, llmCfg)
	if !pipeline.LLM().HealthCheck(cmd.Context()) {
		log.Printf("⚠ Model backend at %s is unreachable; AI assistance disabled for this run", llmCfg.BaseURL)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	result := pipeline.Run(ctx, flagURL, cv, services.RunOptions{
		Headless: &flagHeadless,
		SlowMoMS: &flagSlowMo,
		Language: flagLanguage,
		Debug:    flagDebug,
	})

	if flagJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		printSummary(result)
	}

	// A run that could not even start is an error exit; an attempted
	// submission, verified or not, is a normal one.
	if result.Status == services.StatusSetupFailed || result.Status == services.StatusNavigationFailed {
		return fmt.Errorf("%s: %s", result.Status, result.ErrorDetails)
	}
	return nil
}

func printSummary(result *services.ApplicationResult) {
	fmt.Printf("Run:      %s\n", result.RunID)
	fmt.Printf("Status:   %s\n", result.Status)
	if result.SubmitStrategy != "" {
		fmt.Printf("Strategy: %s\n", result.SubmitStrategy)
	}
	filled := 0
	for _, f := range result.FilledFields {
		if f.State == services.FillFilled {
			filled++
		}
	}
	fmt.Printf("Filled:   %d fields (%d unmapped)\n", filled, len(result.UnmappedFields))
	for _, u := range result.Uploads {
		state := "failed"
		switch {
		case u.Uploaded && u.Verified:
			state = "uploaded (verified)"
		case u.Uploaded:
			state = "uploaded"
		case u.Skipped:
			state = "skipped: " + u.Reason
		}
		fmt.Printf("Upload:   %s %s\n", u.DocumentType, state)
	}
	for _, ref := range result.Screenshots {
		fmt.Printf("Shot:     %s\n", ref)
	}
	if result.CaptchaDetected {
		fmt.Println("Warning:  CAPTCHA detected on page")
	}
	if result.ErrorDetails != "" {
		fmt.Printf("Error:    %s\n", result.ErrorDetails)
	}
}
