package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MeKo-Tech/dscurate/internal/audit"
	"github.com/MeKo-Tech/dscurate/internal/benchmark"
	"github.com/MeKo-Tech/dscurate/internal/cleanup"
	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/dedup"
	"github.com/MeKo-Tech/dscurate/internal/imageio"
	"github.com/MeKo-Tech/dscurate/internal/labels"
	"github.com/MeKo-Tech/dscurate/internal/onnx"
	"github.com/MeKo-Tech/dscurate/internal/quality"
	"github.com/MeKo-Tech/dscurate/internal/quarantine"
	"github.com/MeKo-Tech/dscurate/internal/subsets"
	"github.com/MeKo-Tech/dscurate/internal/training"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns a configuration with all default values.
func DefaultConfig() Config {
	q := quality.DefaultThresholds()
	near := dedup.DefaultNearOptions()
	sub := subsets.DefaultOptions(".")
	train := training.DefaultSeriesOptions(".")

	return Config{
		LogLevel: "info",
		Dataset: DatasetConfig{
			Root:          ".",
			Splits:        []string{string(dataset.Train), string(dataset.Valid), string(dataset.Test)},
			Extensions:    slices.Clone(imageio.SupportedImageExtensions),
			QuarantineDir: quarantine.DirName,
			AuditDir:      audit.DirName,
			TrashDir:      audit.TrashDir,
		},
		Quality: QualityConfig{
			MinWidth:        q.MinWidth,
			MinHeight:       q.MinHeight,
			MinBlurVariance: q.MinBlurVariance,
			MinBrightness:   q.MinBrightness,
			MaxBrightness:   q.MaxBrightness,
		},
		Dedup: DedupConfig{
			NearDupHamming: near.Threshold,
			HashPrefixLen:  near.PrefixLen,
		},
		Labels: LabelsConfig{
			MinBoxArea: labels.DefaultMinBoxArea,
			DataYAML:   "data.yaml",
		},
		Subsets: SubsetsConfig{
			Targets:         sub.Targets,
			MinWidth:        sub.MinWidth,
			MinHeight:       sub.MinHeight,
			MinBlurVariance: sub.MinBlurVariance,
			OutDir:          subsets.DirName,
			ClassNames:      sub.ClassNames,

			DropNearDuplicates: sub.DropNearDuplicates,
		},
		Train: TrainConfig{
			Command:    train.Binary,
			Model:      train.Model,
			ImgSize:    train.ImgSize,
			Epochs:     train.Epochs,
			Batch:      train.Batch,
			Device:     train.Device,
			Project:    train.Project,
			NamePrefix: train.NamePrefix,
		},
		Bench: BenchConfig{
			Warmup:     benchmark.DefaultWarmup,
			Iterations: benchmark.DefaultRuns,
			ImgSize:    640,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("invalid log level %q (must be one of %v)", c.LogLevel, validLogLevels))
	}
	if c.Dataset.Root == "" {
		errs = append(errs, errors.New("dataset.root must not be empty"))
	}
	if _, err := dataset.ParseSplits(c.Dataset.Splits); err != nil {
		errs = append(errs, fmt.Errorf("dataset.splits: %w", err))
	}
	if c.Dataset.Workers < 0 {
		errs = append(errs, fmt.Errorf("dataset.workers must be non-negative, got %d", c.Dataset.Workers))
	}

	if c.Quality.MinWidth < 0 || c.Quality.MinHeight < 0 {
		errs = append(errs, errors.New("quality.min_width and quality.min_height must be non-negative"))
	}
	if c.Quality.MinBlurVariance < 0 {
		errs = append(errs, errors.New("quality.min_blur_variance must be non-negative"))
	}
	if err := validateBrightness(c.Quality.MinBrightness, c.Quality.MaxBrightness); err != nil {
		errs = append(errs, err)
	}

	if c.Dedup.NearDupHamming < 0 || c.Dedup.NearDupHamming > 64 {
		errs = append(errs, fmt.Errorf("dedup.near_dup_hamming must be in [0,64], got %d", c.Dedup.NearDupHamming))
	}
	if c.Dedup.HashPrefixLen < 0 || c.Dedup.HashPrefixLen > 16 {
		errs = append(errs, fmt.Errorf("dedup.hash_prefix_len must be in [0,16], got %d", c.Dedup.HashPrefixLen))
	}

	if c.Labels.MinBoxArea < 0 || c.Labels.MinBoxArea > 1 {
		errs = append(errs, fmt.Errorf("labels.min_box_area must be in [0,1], got %g", c.Labels.MinBoxArea))
	}

	for _, n := range c.Subsets.Targets {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("subsets.targets must be positive, got %d", n))
			break
		}
	}

	if c.Train.Epochs <= 0 || c.Train.Batch <= 0 || c.Train.ImgSize <= 0 {
		errs = append(errs, errors.New("train.epochs, train.batch and train.imgsz must be positive"))
	}

	if c.Bench.Iterations <= 0 || c.Bench.Warmup < 0 || c.Bench.ImgSize <= 0 {
		errs = append(errs, errors.New("bench.iterations and bench.imgsz must be positive and bench.warmup non-negative"))
	}

	return errors.Join(errs...)
}

func validateBrightness(lo, hi float64) error {
	if lo < 0 || hi > 255 || lo > hi {
		return fmt.Errorf("quality brightness range [%g,%g] must lie within [0,255] with min <= max", lo, hi)
	}
	return nil
}

// under resolves p against root unless it is already absolute.
func under(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// Layout returns the dataset layout described by the config.
func (c *Config) Layout() (dataset.Layout, error) {
	splits, err := dataset.ParseSplits(c.Dataset.Splits)
	if err != nil {
		return dataset.Layout{}, err
	}
	l := dataset.NewLayout(c.Dataset.Root)
	l.Splits = splits
	if len(c.Dataset.Extensions) > 0 {
		l.Extensions = c.Dataset.Extensions
	}
	return l, nil
}

// AuditDir returns the resolved report directory.
func (c *Config) AuditDir() string {
	return under(c.Dataset.Root, c.Dataset.AuditDir)
}

// TrashDir returns the resolved purge destination.
func (c *Config) TrashDir() string {
	return under(c.Dataset.Root, c.Dataset.TrashDir)
}

// LabelRules returns the label validation rules.
func (c *Config) LabelRules() labels.Rules {
	return labels.Rules{MinBoxArea: c.Labels.MinBoxArea, AllowedClasses: c.Labels.AllowedClasses}
}

// DataYAMLPath returns the resolved data.yaml path.
func (c *Config) DataYAMLPath() string {
	return under(c.Dataset.Root, c.Labels.DataYAML)
}

// ToCleanupOptions builds the stage orchestrator options.
func (c *Config) ToCleanupOptions() (cleanup.Options, error) {
	l, err := c.Layout()
	if err != nil {
		return cleanup.Options{}, err
	}
	opts := cleanup.DefaultOptions(c.Dataset.Root)
	opts.Layout = l
	opts.QuarantineDir = under(c.Dataset.Root, c.Dataset.QuarantineDir)
	opts.LogPath = filepath.Join(c.AuditDir(), quarantine.LogFile)
	opts.Workers = c.Dataset.Workers
	opts.Quality = quality.Thresholds{
		MinWidth:        c.Quality.MinWidth,
		MinHeight:       c.Quality.MinHeight,
		MinBlurVariance: c.Quality.MinBlurVariance,
		MinBrightness:   c.Quality.MinBrightness,
		MaxBrightness:   c.Quality.MaxBrightness,
	}
	opts.Near = dedup.NearOptions{
		Threshold: c.Dedup.NearDupHamming,
		PrefixLen: c.Dedup.HashPrefixLen,
		Splits:    l.Splits,
	}
	opts.Labels = c.LabelRules()
	return opts, nil
}

// ToSubsetsOptions builds the subset builder options.
func (c *Config) ToSubsetsOptions() (subsets.Options, error) {
	l, err := c.Layout()
	if err != nil {
		return subsets.Options{}, err
	}
	opts := subsets.DefaultOptions(c.Dataset.Root)
	opts.Layout = l
	opts.OutDir = under(c.Dataset.Root, c.Subsets.OutDir)
	opts.ReportPath = filepath.Join(c.AuditDir(), subsets.ReportFile)
	opts.Targets = c.Subsets.Targets
	opts.MinWidth = c.Subsets.MinWidth
	opts.MinHeight = c.Subsets.MinHeight
	opts.MinBlurVariance = c.Subsets.MinBlurVariance
	opts.MinBoxArea = c.Labels.MinBoxArea
	opts.HammingMax = c.Dedup.NearDupHamming
	opts.PrefixLen = c.Dedup.HashPrefixLen
	opts.ClassNames = c.Subsets.ClassNames
	opts.DropNearDuplicates = c.Subsets.DropNearDuplicates
	opts.Workers = c.Dataset.Workers
	return opts, nil
}

// ToSeriesOptions builds the training series options.
func (c *Config) ToSeriesOptions() training.SeriesOptions {
	opts := training.DefaultSeriesOptions(c.Dataset.Root)
	opts.Sizes = c.Subsets.Targets
	opts.Binary = c.Train.Command
	opts.Model = c.Train.Model
	opts.ImgSize = c.Train.ImgSize
	opts.Epochs = c.Train.Epochs
	opts.Batch = c.Train.Batch
	opts.Device = c.Train.Device
	opts.Project = c.Train.Project
	opts.NamePrefix = c.Train.NamePrefix
	opts.SubsetsDir = under(c.Dataset.Root, c.Subsets.OutDir)
	opts.PlotsDir = filepath.Join(c.AuditDir(), training.PlotsDir)
	opts.SummaryPath = filepath.Join(c.AuditDir(), training.SummaryFile)
	return opts
}

// ToBenchOptions returns the measurement loop settings.
func (c *Config) ToBenchOptions() benchmark.Options {
	return benchmark.Options{Warmup: c.Bench.Warmup, Runs: c.Bench.Iterations}
}

// ToONNXOptions builds the ONNX benchmark options for model.
func (c *Config) ToONNXOptions(model string) benchmark.ONNXOptions {
	gpu := onnx.DefaultGPUConfig()
	gpu.UseGPU = c.Bench.GPU
	gpu.DeviceID = c.Bench.GPUDevice
	return benchmark.ONNXOptions{
		Options: c.ToBenchOptions(),
		ImgSize: c.Bench.ImgSize,
		Session: onnx.SessionConfig{
			ModelPath:   model,
			LibraryPath: c.Bench.ONNXLib,
			NumThreads:  c.Bench.Threads,
			GPU:         gpu,
		},
	}
}
