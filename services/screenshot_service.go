package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScreenshotService captures checkpoint screenshots during a run and
// stores them to S3 when configured, local disk otherwise. Capture never
// fails a run: storage errors are logged and surfaced as an empty ref.
type ScreenshotService struct {
	s3       *S3Service
	localDir string
}

// NewScreenshotService wires up S3 if credentials exist; otherwise
// screenshots land under localDir.
func NewScreenshotService(localDir string) *ScreenshotService {
	svc := &ScreenshotService{localDir: localDir}
	s3Service, err := NewS3Service()
	if err != nil {
		log.Printf("S3 not configured, screenshots will be kept locally: %v", err)
		return svc
	}
	svc.s3 = s3Service
	return svc
}

// expandPageScript unhides clipped containers so a full-page screenshot
// actually shows the full form.
const expandPageScript = `
document.querySelectorAll('*').forEach(el => {
	if (el.style) {
		const computed = window.getComputedStyle(el);
		if (computed.overflow === 'hidden' || computed.overflow === 'auto') {
			el.style.overflow = 'visible';
		}
		if (computed.maxHeight && computed.maxHeight !== 'none') {
			el.style.maxHeight = 'none';
		}
	}
});
window.scrollTo(0, document.body.scrollHeight);
window.scrollTo(0, 0);
`

// Capture takes a full-page screenshot at a named checkpoint and stores
// it keyed by run ID. It returns the storage reference (S3 URL or local
// path) together with the raw PNG bytes, which the vision analyzer
// consumes directly.
func (s *ScreenshotService) Capture(page playwright.Page, runID, checkpoint string) (string, []byte, error) {
	if _, err := page.Evaluate(expandPageScript); err != nil {
		log.Printf("Page expansion before screenshot failed: %v", err)
	}

	data, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to take screenshot: %v", err)
	}

	key := fmt.Sprintf("screenshots/%s/%s_%d.png", runID, checkpoint, time.Now().Unix())
	ref, err := s.store(key, data)
	if err != nil {
		log.Printf("⚠ Could not store %s screenshot: %v", checkpoint, err)
		return "", data, nil
	}
	log.Printf("✓ Screenshot stored: %s", ref)
	return ref, data, nil
}

func (s *ScreenshotService) store(key string, data []byte) (string, error) {
	if s.s3 != nil {
		if _, err := s.s3.UploadBytes(key, data, "image/png"); err != nil {
			return "", err
		}
		// The key is stored; presigned URLs are minted on demand.
		return key, nil
	}
	path := filepath.Join(s.localDir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ResolveURL turns a stored reference into something a client can open.
// S3 keys become presigned URLs; local paths pass through.
func (s *ScreenshotService) ResolveURL(ref string) string {
	if s.s3 == nil {
		return ref
	}
	url, err := s.s3.GeneratePresignedURL(ref)
	if err != nil {
		return ref
	}
	return url
}
