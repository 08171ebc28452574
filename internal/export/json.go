package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/restocompras/supplier-scraper/internal/listing"
)

// JSONWriter saves one JSON document per run under a root directory. It is
// the machine-readable alternative to the Excel workbook.
type JSONWriter struct {
	root   string
	logger *zap.Logger
}

// NewJSONWriter returns a writer rooted at dir, creating it if needed.
func NewJSONWriter(root string, logger *zap.Logger) (*JSONWriter, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create export dir %s: %w", root, err)
	}
	return &JSONWriter{root: root, logger: logger}, nil
}

// Export writes the matched listings as indented JSON and returns the path.
func (w *JSONWriter) Export(ctx context.Context, items []listing.Matched, supplier string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}

	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	name := fmt.Sprintf("%s_export_%s.json", supplier, time.Now().Format("20060102_150405"))
	target := filepath.Join(w.root, name)
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return "", fmt.Errorf("write export %s: %w", target, err)
	}
	w.logger.Info("Wrote export document",
		zap.String("path", target),
		zap.Int("rows", len(items)),
	)
	return target, nil
}

// Writer is satisfied by both export formats.
type Writer interface {
	Export(ctx context.Context, items []listing.Matched, supplier string) (string, error)
}

// New returns the writer matching format ("xlsx" or "json").
func New(format, root string, logger *zap.Logger) (Writer, error) {
	switch format {
	case "json":
		return NewJSONWriter(root, logger)
	case "", "xlsx":
		return NewExcelWriter(root, logger)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
