package labels

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// SanitizeStats summarizes one SanitizeDir pass.
type SanitizeStats struct {
	Dir     string
	Skipped bool // directory does not exist
	Files   int  // label files seen
	Fixed   int  // files rewritten with at least one surviving box
	Changed int  // files rewritten, including those emptied
	Lines   int  // non-blank lines read
	Dropped int  // lines that could not be turned into a usable box
}

// SanitizeLine converts one split label line into a canonical single-class
// box. Detect lines (class cx cy w h) are taken as is; segment lines
// (class x1 y1 x2 y2 ...) are reduced to their clamped bounding box.
// The second return is false when the line cannot yield a usable box.
func SanitizeLine(parts []string, minArea float64) (Box, bool) {
	if len(parts) < 5 {
		return Box{}, false
	}
	nums := make([]float64, 0, len(parts)-1)
	for _, p := range parts[1:] {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Box{}, false
		}
		nums = append(nums, v)
	}

	var box Box
	if len(nums) == 4 {
		box = Box{CX: nums[0], CY: nums[1], W: nums[2], H: nums[3]}
	} else {
		if len(nums)%2 != 0 || len(nums) < 6 {
			return Box{}, false
		}
		x1, y1 := nums[0], nums[1]
		x2, y2 := x1, y1
		for i := 2; i < len(nums); i += 2 {
			x1, x2 = min(x1, nums[i]), max(x2, nums[i])
			y1, y2 = min(y1, nums[i+1]), max(y2, nums[i+1])
		}
		x1, x2, y1, y2 = clamp01(x1), clamp01(x2), clamp01(y1), clamp01(y2)
		w, h := x2-x1, y2-y1
		if w <= 0 || h <= 0 {
			return Box{}, false
		}
		box = Box{CX: x1 + w/2, CY: y1 + h/2, W: w, H: h}
	}

	if !in01(box.CX) || !in01(box.CY) || box.W <= 0 || box.W > 1 || box.H <= 0 || box.H > 1 {
		return Box{}, false
	}
	if box.Area() < minArea {
		return Box{}, false
	}
	return box, true
}

func clamp01(v float64) float64 { return max(0, min(1, v)) }

// SanitizeFile rewrites path in canonical form when any line changes.
// It returns whether the file was rewritten, the surviving box count, and the
// number of non-blank and dropped lines.
func SanitizeFile(path string, minArea float64) (bool, int, int, int, error) {
	raw, err := readText(path)
	if err != nil {
		return false, 0, 0, 0, err
	}

	var (
		out     []string
		lines   int
		dropped int
		changed bool
	)
	for _, ln := range strings.Split(raw, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		lines++
		parts := strings.Fields(ln)
		box, ok := SanitizeLine(parts, minArea)
		if !ok {
			dropped++
			changed = true
			continue
		}
		canon := box.String()
		if canon != ln || parts[0] != "0" || len(parts) != 5 {
			changed = true
		}
		out = append(out, canon)
	}

	if !changed {
		return false, len(out), lines, dropped, nil
	}
	content := ""
	if len(out) > 0 {
		content = strings.Join(out, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, 0, lines, dropped, fmt.Errorf("write %s: %w", path, err)
	}
	return true, len(out), lines, dropped, nil
}

// SanitizeDir sanitizes every label file in dir. Unreadable files are
// skipped; a missing directory is reported through Skipped.
func SanitizeDir(dir string, minArea float64) (SanitizeStats, error) {
	stats := SanitizeStats{Dir: dir}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		stats.Skipped = true
		slog.Warn("Label directory does not exist", "dir", dir)
		return stats, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
	if err != nil {
		return stats, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(files)

	for _, path := range files {
		stats.Files++
		rewritten, kept, lines, dropped, err := SanitizeFile(path, minArea)
		if err != nil {
			if os.IsPermission(err) {
				return stats, err
			}
			slog.Debug("Skipping unreadable label", "path", path, "error", err)
			continue
		}
		stats.Lines += lines
		stats.Dropped += dropped
		if rewritten {
			stats.Changed++
			if kept > 0 {
				stats.Fixed++
			}
		}
	}
	return stats, nil
}
