package labels

import (
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// segmentParts renders a class 3 segment line from flat coordinates.
func segmentParts(coords []float64) []string {
	parts := []string{"3"}
	for _, c := range coords {
		parts = append(parts, strconv.FormatFloat(c, 'f', -1, 64))
	}
	return parts
}

// TestSanitizeLine_Properties checks the box produced from arbitrary polygons.
func TestSanitizeLine_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("accepted boxes are in range, class 0 and above min area", prop.ForAll(
		func(coords []float64, minArea float64) bool {
			box, ok := SanitizeLine(segmentParts(coords), minArea)
			if !ok {
				return true
			}
			return box.ClassID == 0 && box.InRange() && box.W > 0 && box.H > 0 && box.Area() >= minArea
		},
		gen.SliceOfN(8, gen.Float64Range(-0.5, 1.5)),
		gen.Float64Range(0, 0.05),
	))

	properties.Property("canonical output sanitizes to itself", prop.ForAll(
		func(coords []float64) bool {
			box, ok := SanitizeLine(segmentParts(coords), 0)
			if !ok || box.W < 1e-5 || box.H < 1e-5 {
				return true
			}
			again, ok := SanitizeLine(strings.Fields(box.String()), 0)
			return ok && again.String() == box.String()
		},
		gen.SliceOfN(6, gen.Float64Range(-0.5, 1.5)),
	))

	properties.Property("odd coordinate counts are rejected", prop.ForAll(
		func(coords []float64) bool {
			_, ok := SanitizeLine(segmentParts(coords), 0)
			return !ok
		},
		gen.SliceOfN(7, gen.Float64Range(0, 1)),
	))

	properties.TestingRun(t)
}

// TestValidateLines_AreaProperty checks the tiny box boundary.
func TestValidateLines_AreaProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a single box is valid exactly when its area reaches the minimum", prop.ForAll(
		func(w, h float64) bool {
			rules := Rules{MinBoxArea: DefaultMinBoxArea}
			line := Box{CX: 0.5, CY: 0.5, W: w, H: h}.String()
			res := ValidateLines([]string{line}, rules)
			parsed, _ := strconv.ParseFloat(strings.Fields(line)[3], 64)
			parsedH, _ := strconv.ParseFloat(strings.Fields(line)[4], 64)
			return res.Valid == (parsed*parsedH >= DefaultMinBoxArea)
		},
		gen.Float64Range(0.001, 1),
		gen.Float64Range(0.001, 1),
	))

	properties.TestingRun(t)
}
