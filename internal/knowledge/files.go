package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteFile writes content to path, creating parent directories when
// needed.
func WriteFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// UniquePath appends -2, -3 and so on before the extension until the
// path does not collide with an existing file.
func UniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, counter, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// WeeklyPath returns the weekly summary location for a day. Same-day
// reruns overwrite the file so the snapshot stays current.
func WeeklyPath(statusDir string, day time.Time) string {
	return filepath.Join(statusDir, day.Format("2006-01-02")+"-weekly-status.md")
}

// DecisionPath returns a fresh decision log location for a title.
// Repeated titles on the same day get numeric suffixes instead of
// overwriting earlier records.
func DecisionPath(decisionDir, title string, day time.Time) string {
	name := day.Format("2006-01-02") + "_" + Slugify(title) + ".md"
	return UniquePath(filepath.Join(decisionDir, name))
}
