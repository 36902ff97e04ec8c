//nolint:lll
package config

// Config represents the complete configuration for dscurate. It covers
// every command (clean, audit, subsets, train, bench) and supports loading
// from configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	Quiet    bool   `mapstructure:"quiet" yaml:"quiet" json:"quiet"`

	Dataset DatasetConfig `mapstructure:"dataset" yaml:"dataset" json:"dataset"`
	Quality QualityConfig `mapstructure:"quality" yaml:"quality" json:"quality"`
	Dedup   DedupConfig   `mapstructure:"dedup" yaml:"dedup" json:"dedup"`
	Labels  LabelsConfig  `mapstructure:"labels" yaml:"labels" json:"labels"`
	Subsets SubsetsConfig `mapstructure:"subsets" yaml:"subsets" json:"subsets"`
	Train   TrainConfig   `mapstructure:"train" yaml:"train" json:"train"`
	Bench   BenchConfig   `mapstructure:"bench" yaml:"bench" json:"bench"`
}

// DatasetConfig locates the dataset and its side directories.
type DatasetConfig struct {
	Root          string   `mapstructure:"root" yaml:"root" json:"root"`
	Splits        []string `mapstructure:"splits" yaml:"splits" json:"splits"`
	Extensions    []string `mapstructure:"extensions" yaml:"extensions" json:"extensions"`
	QuarantineDir string   `mapstructure:"quarantine_dir" yaml:"quarantine_dir" json:"quarantine_dir"`
	AuditDir      string   `mapstructure:"audit_dir" yaml:"audit_dir" json:"audit_dir"`
	TrashDir      string   `mapstructure:"trash_dir" yaml:"trash_dir" json:"trash_dir"`
	Workers       int      `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// QualityConfig holds the stage C thresholds.
type QualityConfig struct {
	MinWidth        int     `mapstructure:"min_width" yaml:"min_width" json:"min_width"`
	MinHeight       int     `mapstructure:"min_height" yaml:"min_height" json:"min_height"`
	MinBlurVariance float64 `mapstructure:"min_blur_variance" yaml:"min_blur_variance" json:"min_blur_variance"`
	MinBrightness   float64 `mapstructure:"min_brightness" yaml:"min_brightness" json:"min_brightness"`
	MaxBrightness   float64 `mapstructure:"max_brightness" yaml:"max_brightness" json:"max_brightness"`
}

// DedupConfig holds the stage B settings.
type DedupConfig struct {
	NearDupHamming int `mapstructure:"near_dup_hamming" yaml:"near_dup_hamming" json:"near_dup_hamming"`
	// HashPrefixLen counts hex nibbles of the perceptual hash used as bucket key.
	HashPrefixLen int `mapstructure:"hash_prefix_len" yaml:"hash_prefix_len" json:"hash_prefix_len"`
}

// LabelsConfig holds the label validation rules.
type LabelsConfig struct {
	MinBoxArea     float64 `mapstructure:"min_box_area" yaml:"min_box_area" json:"min_box_area"`
	AllowedClasses []int   `mapstructure:"allowed_classes" yaml:"allowed_classes" json:"allowed_classes"`
	DataYAML       string  `mapstructure:"data_yaml" yaml:"data_yaml" json:"data_yaml"`
}

// SubsetsConfig configures the learning-curve subset builder.
type SubsetsConfig struct {
	Targets         []int    `mapstructure:"targets" yaml:"targets" json:"targets"`
	MinWidth        int      `mapstructure:"min_width" yaml:"min_width" json:"min_width"`
	MinHeight       int      `mapstructure:"min_height" yaml:"min_height" json:"min_height"`
	MinBlurVariance float64  `mapstructure:"min_blur_variance" yaml:"min_blur_variance" json:"min_blur_variance"`
	OutDir          string   `mapstructure:"out_dir" yaml:"out_dir" json:"out_dir"`
	ClassNames      []string `mapstructure:"class_names" yaml:"class_names" json:"class_names"`
	// DropNearDuplicates keeps only the best member of each perceptual
	// cluster in the subset pool.
	DropNearDuplicates bool `mapstructure:"drop_near_duplicates" yaml:"drop_near_duplicates" json:"drop_near_duplicates"`
}

// TrainConfig configures the external trainer.
type TrainConfig struct {
	Command    string `mapstructure:"command" yaml:"command" json:"command"`
	Model      string `mapstructure:"model" yaml:"model" json:"model"`
	ImgSize    int    `mapstructure:"imgsz" yaml:"imgsz" json:"imgsz"`
	Epochs     int    `mapstructure:"epochs" yaml:"epochs" json:"epochs"`
	Batch      int    `mapstructure:"batch" yaml:"batch" json:"batch"`
	Device     string `mapstructure:"device" yaml:"device" json:"device"`
	Project    string `mapstructure:"project" yaml:"project" json:"project"`
	NamePrefix string `mapstructure:"name_prefix" yaml:"name_prefix" json:"name_prefix"`
}

// BenchConfig configures the latency benchmarks.
type BenchConfig struct {
	Warmup     int    `mapstructure:"warmup" yaml:"warmup" json:"warmup"`
	Iterations int    `mapstructure:"iterations" yaml:"iterations" json:"iterations"`
	ImgSize    int    `mapstructure:"imgsz" yaml:"imgsz" json:"imgsz"`
	ONNXLib    string `mapstructure:"onnx_lib" yaml:"onnx_lib" json:"onnx_lib"`
	ModelsDir  string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	Threads    int    `mapstructure:"threads" yaml:"threads" json:"threads"`
	GPU        bool   `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
	GPUDevice  int    `mapstructure:"gpu_device" yaml:"gpu_device" json:"gpu_device"`
}
