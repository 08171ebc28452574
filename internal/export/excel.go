// Package export writes the matched listings of a run to disk so operators
// can audit what was submitted. The workbook layout mirrors the columns the
// backend expects, with Spanish headers for the purchasing team.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/restocompras/supplier-scraper/internal/listing"
)

var headers = []string{
	"Nombre", "Marca", "Descripción", "Precio", "Imagen",
	"Producto ID", "Unidad", "Cantidad", "supplierId",
}

// ExcelWriter saves one workbook per run under a root directory.
type ExcelWriter struct {
	root   string
	logger *zap.Logger
}

// NewExcelWriter returns a writer rooted at dir, creating it if needed.
func NewExcelWriter(root string, logger *zap.Logger) (*ExcelWriter, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create export dir %s: %w", root, err)
	}
	return &ExcelWriter{root: root, logger: logger}, nil
}

// Export writes the matched listings to a timestamped workbook and returns
// its path.
func (w *ExcelWriter) Export(ctx context.Context, items []listing.Matched, supplier string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return "", fmt.Errorf("write header row: %w", err)
	}
	for i, m := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", fmt.Errorf("cell name for row %d: %w", i+2, err)
		}
		price, _ := m.Price.Float64()
		row := []interface{}{
			m.Name, m.Brand, m.Description, price, m.ImageURL,
			m.CatalogID, string(m.Unit), m.Quantity, m.SupplierID,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	target := filepath.Join(w.root, exportFileName(supplier, time.Now()))
	if err := f.SaveAs(target); err != nil {
		return "", fmt.Errorf("save workbook %s: %w", target, err)
	}
	w.logger.Info("Wrote export workbook",
		zap.String("path", target),
		zap.Int("rows", len(items)),
	)
	return target, nil
}

func exportFileName(supplier string, at time.Time) string {
	return fmt.Sprintf("%s_export_%s.xlsx", supplier, at.Format("20060102_150405"))
}
