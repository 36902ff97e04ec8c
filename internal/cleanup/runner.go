package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/dedup"
	"github.com/MeKo-Tech/dscurate/internal/labels"
	"github.com/MeKo-Tech/dscurate/internal/quality"
	"github.com/MeKo-Tech/dscurate/internal/quarantine"
)

// Options configures a cleanup run.
type Options struct {
	Layout dataset.Layout
	// QuarantineDir defaults to <root>/_quarantine.
	QuarantineDir string
	// LogPath defaults to <root>/audit_out/moves_log.csv.
	LogPath string
	DryRun  bool

	Quality quality.Thresholds
	Near    dedup.NearOptions
	Labels  labels.Rules

	Workers  int
	Progress dataset.ProgressCallback
	// Metrics is optional.
	Metrics *Metrics
}

// DefaultOptions returns the stock thresholds for the dataset at root.
func DefaultOptions(root string) Options {
	return Options{
		Layout:  dataset.NewLayout(root),
		Quality: quality.DefaultThresholds(),
		Near:    dedup.DefaultNearOptions(),
		Labels:  labels.Rules{MinBoxArea: labels.DefaultMinBoxArea},
	}
}

// StageReport summarizes one executed stage.
type StageReport struct {
	Stage    Stage
	Moves    int
	Reasons  map[string]int
	Counts   map[dataset.Split]int
	Duration time.Duration
}

// Report summarizes a whole run.
type Report struct {
	DryRun        bool
	LogPath       string
	QuarantineDir string
	Initial       map[dataset.Split]int
	Splits        []dataset.SplitResult
	Stages        []StageReport
	// Categories counts decisions per quarantine folder.
	Categories map[quarantine.Category]int
	// LogRows is the number of rows written to the move log.
	LogRows int
}

// TotalMoves sums the decisions of every stage.
func (r *Report) TotalMoves() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Moves
	}
	return n
}

// Runner executes cleanup stages against one dataset.
type Runner struct {
	opts Options

	mover *quarantine.Mover
	// disposed holds image paths already decided in this run, so a pair is
	// put in at most one category even when a dry run leaves it in place.
	disposed map[string]bool
	current  *StageReport
}

// NewRunner fills in default paths and returns a runner.
func NewRunner(opts Options) *Runner {
	if opts.QuarantineDir == "" {
		opts.QuarantineDir = filepath.Join(opts.Layout.Root, quarantine.DirName)
	}
	if opts.LogPath == "" {
		opts.LogPath = filepath.Join(opts.Layout.Root, "audit_out", quarantine.LogFile)
	}
	return &Runner{opts: opts}
}

// Run executes plan in order. The move log is truncated at the start and
// holds every decision of this run when Run returns.
func (r *Runner) Run(ctx context.Context, plan []Stage) (rep *Report, err error) {
	l := r.opts.Layout
	if err := l.CheckRoot(); err != nil {
		return nil, err
	}

	log, err := quarantine.OpenLog(r.opts.LogPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := log.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	r.mover, err = quarantine.NewMover(r.opts.QuarantineDir, log, r.opts.DryRun)
	if err != nil {
		return nil, err
	}
	r.disposed = make(map[string]bool)

	rep = &Report{DryRun: r.opts.DryRun, LogPath: r.opts.LogPath, QuarantineDir: r.opts.QuarantineDir}
	if rep.Initial, err = l.CountImages(); err != nil {
		return nil, err
	}
	slog.Info("Initial image count", "counts", rep.Initial, "dry_run", r.opts.DryRun)

	var snap *dataset.Snapshot
	if needsScan(plan) {
		snap, err = dataset.Scan(ctx, l, dataset.ScanOptions{
			Workers:      r.opts.Workers,
			Fingerprints: needsFingerprints(plan),
			Progress:     r.opts.Progress,
		})
		if err != nil {
			return nil, err
		}
		rep.Splits = snap.Splits
	}

	defer func() {
		rep.Categories = r.mover.Counts()
		rep.LogRows = log.Rows()
	}()

	for _, st := range plan {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		sr, err := r.runStage(st, snap)
		if sr != nil {
			rep.Stages = append(rep.Stages, *sr)
		}
		if err != nil {
			return rep, fmt.Errorf("stage %s: %w", st, err)
		}
	}
	return rep, nil
}

func (r *Runner) runStage(st Stage, snap *dataset.Snapshot) (*StageReport, error) {
	start := time.Now()
	r.current = &StageReport{Stage: st, Reasons: make(map[string]int)}
	sr := r.current
	defer func() { r.current = nil }()

	var err error
	switch st {
	case StageExact:
		err = r.stageExact(snap)
	case StageNear:
		err = r.stageNear(snap)
	case StageQuality:
		err = r.stageQuality(snap)
	case StageLabels:
		err = r.stageLabels()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownStage, st)
	}
	sr.Duration = time.Since(start)

	counts, cerr := r.opts.Layout.CountImages()
	if cerr != nil && err == nil {
		err = cerr
	}
	sr.Counts = counts

	if m := r.opts.Metrics; m != nil {
		m.stageDuration.WithLabelValues(string(st)).Observe(sr.Duration.Seconds())
		for split, n := range counts {
			m.splitImages.WithLabelValues(string(split)).Set(float64(n))
		}
	}

	slog.Info("Stage finished",
		"stage", st,
		"description", st.Description(),
		"moves", sr.Moves,
		"reasons", sr.Reasons,
		"counts", counts,
		"duration", sr.Duration)
	return sr, err
}

// alive reports whether rec still exists and has not been decided yet.
func (r *Runner) alive(rec *dataset.ImageRecord) bool {
	return !r.disposed[rec.ImagePath] && rec.Exists()
}

func (r *Runner) dispose(image, label string, c quarantine.Category, reason string) error {
	if r.disposed[image] {
		return nil
	}
	d, err := r.mover.Move(image, label, c, reason)
	if err != nil {
		return err
	}
	r.disposed[image] = true
	r.current.Moves++
	r.current.Reasons[reason]++
	if m := r.opts.Metrics; m != nil {
		m.moves.WithLabelValues(string(r.current.Stage), reason, string(d.Action)).Inc()
	}
	slog.Debug("Pair quarantined", "image", image, "category", c, "reason", reason, "action", d.Action)
	return nil
}

func (r *Runner) stageExact(snap *dataset.Snapshot) error {
	for _, d := range dedup.ExactDuplicates(snap.Records, r.alive) {
		if !r.alive(d.Record) {
			continue
		}
		if err := r.dispose(d.Record.ImagePath, d.Record.LabelPath, quarantine.DuplicatesExact, d.Reason); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) stageNear(snap *dataset.Snapshot) error {
	opts := r.opts.Near
	if len(opts.Splits) == 0 {
		opts.Splits = r.opts.Layout.Splits
	}
	drops, err := dedup.NearDuplicates(snap.Records, r.alive, opts)
	if err != nil {
		return err
	}
	for _, d := range drops {
		if !r.alive(d.Record) {
			continue
		}
		if err := r.dispose(d.Record.ImagePath, d.Record.LabelPath, quarantine.DuplicatesNear, d.Reason); err != nil {
			return err
		}
	}
	return nil
}

var verdictCategory = map[quality.Verdict]quarantine.Category{
	quality.TooSmall:        quarantine.TooSmall,
	quality.Blurry:          quarantine.Blurry,
	quality.ExposureExtreme: quarantine.ExposureReview,
}

func (r *Runner) stageQuality(snap *dataset.Snapshot) error {
	for _, rec := range snap.Records {
		if !r.alive(rec) {
			continue
		}
		v := r.opts.Quality.Check(quality.Metrics{
			Width: rec.Width, Height: rec.Height,
			BlurScore: rec.BlurScore, Brightness: rec.Brightness,
		})
		if v == quality.Pass {
			continue
		}
		if err := r.dispose(rec.ImagePath, rec.LabelPath, verdictCategory[v], string(v)); err != nil {
			return err
		}
	}
	return nil
}

// stageLabels lists the split folders again instead of using the scan, so
// it sees exactly what earlier stages left behind.
func (r *Runner) stageLabels() error {
	l := r.opts.Layout
	for _, split := range l.Splits {
		files, status, err := l.ListImages(split)
		if err != nil {
			return err
		}
		if status == dataset.SplitSkipped {
			continue
		}
		for _, img := range files {
			rec := &dataset.ImageRecord{Split: split, ImagePath: img, LabelPath: l.LabelFor(split, img)}
			if !r.alive(rec) {
				continue
			}
			res := labels.Validate(rec.LabelPath, r.opts.Labels)
			if res.Valid {
				continue
			}
			c, reason := quarantine.BadLabel, string(quarantine.BadLabel)
			if res.OnlyTiny() {
				c, reason = quarantine.TinyBox, string(quarantine.TinyBox)
			}
			slog.Debug("Invalid label", "image", img, "issues", res.Issues)
			if err := r.dispose(img, rec.LabelPath, c, reason); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsSetupError reports whether err stopped a run before any stage started.
func IsSetupError(err error) bool {
	return errors.Is(err, dataset.ErrRootMissing) ||
		errors.Is(err, ErrUnknownStage) ||
		errors.Is(err, ErrConflictingStageFlags)
}
