package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/dscurate/internal/fingerprint"
	"github.com/MeKo-Tech/dscurate/internal/imageio"
	"github.com/MeKo-Tech/dscurate/internal/quality"
)

// SplitResult reports how a split fared during a scan.
type SplitResult struct {
	Split  Split
	Status SplitStatus
	Images int
}

// Snapshot is the result of one scan pass.
type Snapshot struct {
	Records []*ImageRecord
	Splits  []SplitResult
}

// BySplit returns the records of a single split in scan order.
func (s *Snapshot) BySplit(split Split) []*ImageRecord {
	var out []*ImageRecord
	for _, r := range s.Records {
		if r.Split == split {
			out = append(out, r)
		}
	}
	return out
}

// ScanOptions tunes a scan.
type ScanOptions struct {
	// Workers bounds concurrent image analysis; <= 0 uses GOMAXPROCS.
	Workers int
	// Fingerprints enables digest and perceptual hash computation.
	Fingerprints bool
	Progress     ProgressCallback
}

// Scan lists every split and analyzes each image. Records come back in
// deterministic order: splits in layout order, files sorted by name.
func Scan(ctx context.Context, l Layout, opts ScanOptions) (*Snapshot, error) {
	if err := l.CheckRoot(); err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	for _, s := range l.Splits {
		files, status, err := l.ListImages(s)
		if err != nil {
			return nil, err
		}
		if status == SplitSkipped {
			slog.Warn("Split directory missing, skipping", "split", s, "dir", l.ImagesDir(s))
		}
		snap.Splits = append(snap.Splits, SplitResult{Split: s, Status: status, Images: len(files)})
		for _, f := range files {
			snap.Records = append(snap.Records, &ImageRecord{
				Split:     s,
				ImagePath: f,
				LabelPath: l.LabelFor(s, f),
			})
		}
	}

	progress := opts.Progress
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	total := len(snap.Records)
	progress.OnStart(total)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rec := range snap.Records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			Analyze(rec, opts.Fingerprints)
			progress.OnProgress(int(done.Add(1)), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}
	progress.OnComplete()

	return snap, nil
}

// Analyze fills in the measurements of rec. Unreadable images keep zero
// dimensions and scores and an empty hash; that is not an error.
func Analyze(rec *ImageRecord, fingerprints bool) {
	img, err := imageio.Load(rec.ImagePath)
	if err != nil {
		slog.Debug("Image unreadable", "path", rec.ImagePath, "error", err)
		return
	}

	m := quality.Measure(img)
	rec.Width, rec.Height = m.Width, m.Height
	rec.BlurScore, rec.Brightness = m.BlurScore, m.Brightness

	if !fingerprints {
		return
	}
	if rec.Digest, err = fingerprint.Digest(rec.ImagePath); err != nil {
		slog.Debug("Digest failed", "path", rec.ImagePath, "error", err)
	}
	if rec.PerceptualHash, err = fingerprint.PerceptualHash(img); err != nil {
		slog.Debug("Perceptual hash failed", "path", rec.ImagePath, "error", err)
	}
}
