package quality

// Verdict names the first quality rule an image failed. The zero value
// means the image passed every rule.
type Verdict string

const (
	Pass            Verdict = ""
	TooSmall        Verdict = "too_small"
	Blurry          Verdict = "blurry"
	ExposureExtreme Verdict = "exposure_extreme"
)

// Thresholds configures the quality filter.
type Thresholds struct {
	MinWidth        int
	MinHeight       int
	MinBlurVariance float64
	MinBrightness   float64
	MaxBrightness   float64
}

// DefaultThresholds returns the thresholds used by the cleanup stages.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinWidth:        320,
		MinHeight:       240,
		MinBlurVariance: 30.0,
		MinBrightness:   40,
		MaxBrightness:   230,
	}
}

// Check applies the rules in priority order and returns the first failure.
// Size is checked before sharpness, and sharpness before exposure.
func (t Thresholds) Check(m Metrics) Verdict {
	if m.Width < t.MinWidth || m.Height < t.MinHeight {
		return TooSmall
	}
	if m.BlurScore < t.MinBlurVariance {
		return Blurry
	}
	if m.Brightness < t.MinBrightness || m.Brightness > t.MaxBrightness {
		return ExposureExtreme
	}
	return Pass
}
