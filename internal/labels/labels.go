// Package labels parses, validates and sanitizes YOLO detection label files.
//
// A label file holds one box per line in the form
//
//	<class_id> <center_x> <center_y> <width> <height>
//
// with coordinates normalized to [0,1]. Validation problems are reported as
// issue codes, never as errors: a broken label is a data-quality finding.
package labels

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Issue is a label validation finding.
type Issue string

const (
	IssueMissing          Issue = "missing"
	IssueParseError       Issue = "parse_error"
	IssueEmpty            Issue = "empty"
	IssueFormatError      Issue = "format_error"
	IssueClassOutOfRange  Issue = "class_out_of_range"
	IssueCoordsOutOfRange Issue = "coords_out_of_range"
	IssueOnlyTinyBoxes    Issue = "only_tiny_boxes"
)

// DefaultMinBoxArea is the smallest normalized box area considered usable.
const DefaultMinBoxArea = 0.0005

// Ext is the label file extension.
const Ext = ".txt"

// ErrNotUTF8 is returned by ReadLines for files that are not valid UTF-8.
var ErrNotUTF8 = errors.New("label file is not valid UTF-8")

// Box is one bounding box annotation in normalized center-size form.
type Box struct {
	ClassID int
	CX      float64
	CY      float64
	W       float64
	H       float64
}

// Area returns the normalized box area.
func (b Box) Area() float64 { return b.W * b.H }

// InRange reports whether every coordinate lies in [0,1].
func (b Box) InRange() bool {
	return in01(b.CX) && in01(b.CY) && in01(b.W) && in01(b.H)
}

// String renders the box in canonical detect form.
func (b Box) String() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", b.ClassID, b.CX, b.CY, b.W, b.H)
}

func in01(v float64) bool { return v >= 0 && v <= 1 }

// Rules configures validation.
type Rules struct {
	MinBoxArea float64
	// AllowedClasses restricts class ids; empty allows any.
	AllowedClasses []int
}

// DefaultRules returns the validation rules used by the cleanup stages.
func DefaultRules() Rules {
	return Rules{MinBoxArea: DefaultMinBoxArea}
}

// Result is the outcome of validating one label file.
type Result struct {
	Valid    bool
	Issues   []Issue
	ClassIDs []int
	Boxes    []Box
}

// OnlyTiny reports whether the single finding is that every box is too small.
func (r Result) OnlyTiny() bool {
	return len(r.Issues) == 1 && r.Issues[0] == IssueOnlyTinyBoxes
}

func fail(issue Issue, classIDs []int, boxes []Box) Result {
	return Result{Issues: []Issue{issue}, ClassIDs: classIDs, Boxes: boxes}
}

// Validate reads and checks the label at path. Checks run in order and stop
// at the first failure: missing file, unreadable file, no content, short
// line, non-numeric field, disallowed class, coordinate range, and finally
// whether at least one box reaches the minimum area.
func Validate(path string, rules Rules) Result {
	if _, err := os.Stat(path); err != nil {
		return fail(IssueMissing, nil, nil)
	}
	lines, err := ReadLines(path)
	if err != nil {
		return fail(IssueParseError, nil, nil)
	}
	return ValidateLines(lines, rules)
}

// ValidateLines checks already-read, non-blank label lines.
func ValidateLines(lines []string, rules Rules) Result {
	if len(lines) == 0 {
		return fail(IssueEmpty, nil, nil)
	}

	var (
		classIDs []int
		boxes    []Box
		usable   bool
	)
	for _, ln := range lines {
		parts := strings.Fields(ln)
		if len(parts) < 5 {
			return fail(IssueFormatError, classIDs, boxes)
		}
		box, err := parseBox(parts)
		if err != nil {
			return fail(IssueParseError, classIDs, boxes)
		}
		classIDs = append(classIDs, box.ClassID)
		if len(rules.AllowedClasses) > 0 && !slices.Contains(rules.AllowedClasses, box.ClassID) {
			return fail(IssueClassOutOfRange, classIDs, boxes)
		}
		if !box.InRange() {
			return fail(IssueCoordsOutOfRange, classIDs, boxes)
		}
		boxes = append(boxes, box)
		if box.Area() >= rules.MinBoxArea {
			usable = true
		}
	}
	if !usable {
		return fail(IssueOnlyTinyBoxes, classIDs, boxes)
	}
	return Result{Valid: true, ClassIDs: classIDs, Boxes: boxes}
}

func parseBox(parts []string) (Box, error) {
	cls, err := strconv.Atoi(parts[0])
	if err != nil {
		return Box{}, err
	}
	var v [4]float64
	for i := range v {
		if v[i], err = strconv.ParseFloat(parts[i+1], 64); err != nil {
			return Box{}, err
		}
	}
	return Box{ClassID: cls, CX: v[0], CY: v[1], W: v[2], H: v[3]}, nil
}

// ReadLines returns the trimmed non-blank lines of a UTF-8 label file.
// A leading byte order mark is dropped.
func ReadLines(path string) ([]string, error) {
	raw, err := readText(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, ln := range strings.Split(raw, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: dataset paths are operator supplied
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrNotUTF8)
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return string(decoded), nil
}

