package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SessionOptions configures one browser session.
type SessionOptions struct {
	Headless        bool
	SlowMoMS        float64
	NavigateTimeout time.Duration
	Locale          string
	Debug           bool
}

// BrowserSession owns one stealth-configured browser, context and page.
// Close is safe to call at any point of the lifecycle, including after a
// partial startup.
type BrowserSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	opts    SessionOptions
}

var stealthUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

var stealthViewports = []playwright.Size{
	{Width: 1920, Height: 1080},
	{Width: 1680, Height: 1050},
	{Width: 1536, Height: 864},
	{Width: 1440, Height: 900},
}

// Masks the automation fingerprints pages probe for before the page's
// own scripts run.
const stealthInitScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = window.chrome || { runtime: {} };
`

// StartSession launches a stealth-configured Chromium session. Every
// startup failure tears down whatever was already running before the
// error is returned.
func StartSession(opts SessionOptions) (*BrowserSession, error) {
	s := &BrowserSession{opts: opts}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}
	s.pw = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(opts.SlowMoMS),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-infobars",
		},
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	s.browser = browser

	ua := stealthUserAgents[rand.Intn(len(stealthUserAgents))]
	viewport := stealthViewports[rand.Intn(len(stealthViewports))]
	locale := localeFor(opts.Locale)

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(ua),
		Viewport:  &viewport,
		Locale:    playwright.String(locale),
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	s.context = browserCtx

	if err := browserCtx.AddInitScript(playwright.Script{Content: playwright.String(stealthInitScript)}); err != nil {
		s.Close()
		return nil, fmt.Errorf("installing stealth script: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening page: %w", err)
	}
	s.page = page

	if err := page.SetExtraHTTPHeaders(map[string]string{
		"Accept-Language": acceptLanguageFor(opts.Locale),
	}); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting headers: %w", err)
	}

	log.Printf("✓ Browser session started (headless=%t, viewport=%dx%d)", opts.Headless, viewport.Width, viewport.Height)
	return s, nil
}

// Page returns the session's single page.
func (s *BrowserSession) Page() playwright.Page {
	return s.page
}

// Navigate loads the target URL and waits for the network to settle.
func (s *BrowserSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := s.opts.NavigateTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	// Late-rendering forms need a moment after DOMContentLoaded.
	s.page.WaitForTimeout(2000)
	log.Printf("✓ Loaded %s (title: %s)", url, pageTitleOrEmpty(s.page))
	return nil
}

// Screenshot captures the full page as PNG bytes.
func (s *BrowserSession) Screenshot() ([]byte, error) {
	return s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

// Close releases everything the session holds. Safe after partial
// startup and safe to call twice; close errors are logged, not returned,
// because teardown runs on every exit path.
func (s *BrowserSession) Close() {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			log.Printf("Closing page: %v", err)
		}
		s.page = nil
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			log.Printf("Closing browser context: %v", err)
		}
		s.context = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			log.Printf("Closing browser: %v", err)
		}
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			log.Printf("Stopping playwright: %v", err)
		}
		s.pw = nil
	}
}

func localeFor(lang string) string {
	switch ResolveLanguage(lang) {
	case "de":
		return "de-DE"
	case "pl":
		return "pl-PL"
	default:
		return "en-US"
	}
}

func acceptLanguageFor(lang string) string {
	switch ResolveLanguage(lang) {
	case "de":
		return "de-DE,de;q=0.9,en;q=0.8"
	case "pl":
		return "pl-PL,pl;q=0.9,en;q=0.8"
	default:
		return "en-US,en;q=0.9"
	}
}

func pageTitleOrEmpty(page playwright.Page) string {
	title, err := page.Title()
	if err != nil {
		return ""
	}
	return title
}
