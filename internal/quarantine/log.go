package quarantine

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// LogFile is the move log name inside the audit folder.
const LogFile = "moves_log.csv"

// LogHeader is the first row of every move log.
var LogHeader = []string{"reason", "src_img", "src_lbl", "dst_dir", "action"}

// Log is an append-only CSV of decisions. Each row is flushed as soon as
// it is written.
type Log struct {
	Path string
	file *os.File
	w    *csv.Writer
	rows int
}

// OpenLog truncates path and writes the header.
func OpenLog(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log folder: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // G304: log path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("create move log: %w", err)
	}
	l := &Log{Path: path, file: f, w: csv.NewWriter(f)}
	if err := l.write(LogHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	return l, nil
}

// Append writes one decision.
func (l *Log) Append(d Decision) error {
	if err := l.write([]string{d.Reason, d.SrcImage, d.SrcLabel, d.DstDir, string(d.Action)}); err != nil {
		return err
	}
	l.rows++
	return nil
}

// Rows returns the number of decisions written.
func (l *Log) Rows() int { return l.rows }

func (l *Log) write(row []string) error {
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("write move log: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flush move log: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

// ReadLog loads every decision of a move log.
func ReadLog(path string) ([]Decision, error) {
	f, err := os.Open(path) //nolint:gosec // G304: reading a log we wrote
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read move log: %w", err)
	}
	var out []Decision
	for i, r := range rows {
		if i == 0 || len(r) < len(LogHeader) {
			continue
		}
		out = append(out, Decision{Reason: r[0], SrcImage: r[1], SrcLabel: r[2], DstDir: r[3], Action: Action(r[4])})
	}
	return out, nil
}
