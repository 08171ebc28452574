package fetch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/restocompras/supplier-scraper/internal/source"
)

// File reads sources published as local price-list documents instead of web
// pages: tabular spreadsheets or text-based PDF lists. It yields raw row
// records for the row-driven extraction path.
type File struct {
	format source.Strategy
	sheet  string
	logger *zap.Logger
}

// NewFile constructs a file strategy for the given format tag.
func NewFile(format source.Strategy, sheet string, logger *zap.Logger) *File {
	return &File{format: format, sheet: sheet, logger: logger}
}

// Fetch reads one local file and returns its rows.
func (f *File) Fetch(ctx context.Context, target string) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}

	var (
		rows [][]string
		err  error
	)
	switch f.format {
	case source.StrategyExcel:
		rows, err = f.readSpreadsheet(target)
	case source.StrategyPDF:
		rows, err = readPDFLines(target)
	default:
		err = fmt.Errorf("unsupported file format %q", f.format)
	}
	if err != nil {
		return Content{}, &Error{Target: target, Err: err}
	}

	f.logger.Debug("Read price-list file",
		zap.String("target", target),
		zap.Int("rows", len(rows)),
	)
	return Content{Rows: rows}, nil
}

// Close is a no-op; file handles are released per fetch.
func (f *File) Close(context.Context) error { return nil }

func (f *File) readSpreadsheet(path string) ([][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer wb.Close()

	sheet := f.sheet
	if sheet == "" {
		sheet = wb.GetSheetName(0)
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// readPDFLines extracts the text layer of a PDF price list and yields one
// single-cell row per non-empty line, for the line-pattern extraction path.
func readPDFLines(path string) ([][]string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	text, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, text); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	var rows [][]string
	for _, line := range strings.Split(sb.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, []string{line})
	}
	return rows, nil
}
