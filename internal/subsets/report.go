package subsets

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create report folder: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // G304: report path from options
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
