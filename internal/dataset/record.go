package dataset

import (
	"os"
)

// ImageRecord is one candidate image captured by a scan. Records are a
// snapshot: a later stage may already have moved the backing files, so
// callers must check Exists before acting on a record.
type ImageRecord struct {
	Split     Split
	ImagePath string
	// LabelPath is where the paired label is expected; the file may be absent.
	LabelPath string

	Width      int
	Height     int
	BlurScore  float64
	Brightness float64

	// Digest is the hex SHA-1 of the file bytes, empty when the image does
	// not decode.
	Digest string
	// PerceptualHash is empty when the image could not be hashed.
	PerceptualHash string
}

// Exists reports whether the image file is still in place.
func (r *ImageRecord) Exists() bool {
	_, err := os.Stat(r.ImagePath)
	return err == nil
}

// HasLabel reports whether the paired label file is present.
func (r *ImageRecord) HasLabel() bool {
	if r.LabelPath == "" {
		return false
	}
	_, err := os.Stat(r.LabelPath)
	return err == nil
}

// PixelArea returns width × height.
func (r *ImageRecord) PixelArea() int { return r.Width * r.Height }

// BetterThan reports whether r ranks at least as high as o by
// (pixel area, blur score), compared lexicographically.
func (r *ImageRecord) BetterThan(o *ImageRecord) bool {
	if r.PixelArea() != o.PixelArea() {
		return r.PixelArea() > o.PixelArea()
	}
	return r.BlurScore >= o.BlurScore
}
