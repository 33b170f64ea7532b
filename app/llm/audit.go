package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Audit persists every prompt and raw response to per-day files for
// offline inspection. A nil *Audit disables saving.
type Audit struct {
	dir           string
	model         string
	promptVersion string
}

func NewAudit(dir, model, promptVersion string) *Audit {
	return &Audit{dir: dir, model: model, promptVersion: promptVersion}
}

// Save writes the prompt and response under <dir>/<date>/. Failures
// are logged and swallowed; auditing never disturbs the pipeline.
func (a *Audit) Save(articleURL, kind, prompt, response string) {
	if a == nil {
		return
	}

	now := time.Now()
	dayDir := filepath.Join(a.dir, now.Format("2006-01-02"))
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		slog.Warn("Failed to create prompts directory", "dir", dayDir, "error", err)
		return
	}

	base := slugFromURL(articleURL)

	var header strings.Builder
	fmt.Fprintf(&header, "URL: %s\n", articleURL)
	fmt.Fprintf(&header, "Type: %s\n", kind)
	fmt.Fprintf(&header, "Model: %s\n", a.model)
	fmt.Fprintf(&header, "Version: %s\n", a.promptVersion)
	fmt.Fprintf(&header, "Timestamp: %s\n", now.Format(time.RFC3339))
	header.WriteString(strings.Repeat("=", 60) + "\n\n")

	promptPath := filepath.Join(dayDir, fmt.Sprintf("%s_%s_prompt.txt", base, kind))
	if err := os.WriteFile(promptPath, []byte(header.String()+prompt), 0o644); err != nil {
		slog.Warn("Failed to save prompt", "path", promptPath, "error", err)
		return
	}

	responsePath := filepath.Join(dayDir, fmt.Sprintf("%s_%s_response.txt", base, kind))
	if err := os.WriteFile(responsePath, []byte(response), 0o644); err != nil {
		slog.Warn("Failed to save response", "path", responsePath, "error", err)
		return
	}

	slog.Debug("Saved prompt and response", "dir", dayDir, "base", base)
}

// slugFromURL derives a filename base from the URL's last path
// segment, keeping only word characters and dashes. An empty slug
// falls back to a content hash of the URL.
func slugFromURL(articleURL string) string {
	segment := articleURL
	if idx := strings.LastIndex(strings.TrimRight(articleURL, "/"), "/"); idx >= 0 {
		segment = strings.TrimRight(articleURL, "/")[idx+1:]
	}
	if len(segment) > 50 {
		segment = segment[:50]
	}

	var b strings.Builder
	for _, r := range segment {
		if r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		sum := sha256.Sum256([]byte(articleURL))
		return hex.EncodeToString(sum[:])[:16]
	}
	return b.String()
}
