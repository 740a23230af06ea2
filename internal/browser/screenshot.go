package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ScreenshotDebugger saves timestamped full-page screenshots for later
// inspection of blocks and captchas.
type ScreenshotDebugger struct {
	dir string
	log *zap.Logger
	now func() time.Time
}

func NewScreenshotDebugger(dir string, log *zap.Logger) (*ScreenshotDebugger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ScreenshotDebugger{dir: dir, log: log.Named("screenshots"), now: time.Now}, nil
}

// Capture writes <name>_<timestamp>.png and returns its path.
func (d *ScreenshotDebugger) Capture(s *Session, name, reason string) (string, error) {
	filename := fmt.Sprintf("%s_%s.png", name, d.now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(d.dir, filename)

	if _, err := s.Screenshot(path, true); err != nil {
		d.log.Warn("Failed to capture screenshot", zap.String("reason", reason), zap.Error(err))
		return "", err
	}
	d.log.Info("Screenshot saved", zap.String("reason", reason), zap.String("path", path))
	return path, nil
}
