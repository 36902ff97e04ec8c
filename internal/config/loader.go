package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "dscurate"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "DSCURATE"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader over the global viper instance so flag
// bindings made by the root command apply.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith creates a loader over v.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads the first dscurate.yaml found on the search paths, applies
// environment overrides and defaults, and validates the result.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithFile loads configuration from a specific file path, or from the
// search paths when configFile is empty.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	cfg, err := l.load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithoutValidation is LoadWithFile without the final Validate call.
func (l *Loader) LoadWithoutValidation(configFile string) (*Config, error) {
	return l.load(configFile)
}

func (l *Loader) load(configFile string) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine when searching; defaults and env apply.
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key so env overrides resolve during Unmarshal.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)
	l.v.SetDefault("quiet", d.Quiet)

	l.v.SetDefault("dataset.root", d.Dataset.Root)
	l.v.SetDefault("dataset.splits", d.Dataset.Splits)
	l.v.SetDefault("dataset.extensions", d.Dataset.Extensions)
	l.v.SetDefault("dataset.quarantine_dir", d.Dataset.QuarantineDir)
	l.v.SetDefault("dataset.audit_dir", d.Dataset.AuditDir)
	l.v.SetDefault("dataset.trash_dir", d.Dataset.TrashDir)
	l.v.SetDefault("dataset.workers", d.Dataset.Workers)

	l.v.SetDefault("quality.min_width", d.Quality.MinWidth)
	l.v.SetDefault("quality.min_height", d.Quality.MinHeight)
	l.v.SetDefault("quality.min_blur_variance", d.Quality.MinBlurVariance)
	l.v.SetDefault("quality.min_brightness", d.Quality.MinBrightness)
	l.v.SetDefault("quality.max_brightness", d.Quality.MaxBrightness)

	l.v.SetDefault("dedup.near_dup_hamming", d.Dedup.NearDupHamming)
	l.v.SetDefault("dedup.hash_prefix_len", d.Dedup.HashPrefixLen)

	l.v.SetDefault("labels.min_box_area", d.Labels.MinBoxArea)
	l.v.SetDefault("labels.allowed_classes", d.Labels.AllowedClasses)
	l.v.SetDefault("labels.data_yaml", d.Labels.DataYAML)

	l.v.SetDefault("subsets.targets", d.Subsets.Targets)
	l.v.SetDefault("subsets.min_width", d.Subsets.MinWidth)
	l.v.SetDefault("subsets.min_height", d.Subsets.MinHeight)
	l.v.SetDefault("subsets.min_blur_variance", d.Subsets.MinBlurVariance)
	l.v.SetDefault("subsets.out_dir", d.Subsets.OutDir)
	l.v.SetDefault("subsets.class_names", d.Subsets.ClassNames)
	l.v.SetDefault("subsets.drop_near_duplicates", d.Subsets.DropNearDuplicates)

	l.v.SetDefault("train.command", d.Train.Command)
	l.v.SetDefault("train.model", d.Train.Model)
	l.v.SetDefault("train.imgsz", d.Train.ImgSize)
	l.v.SetDefault("train.epochs", d.Train.Epochs)
	l.v.SetDefault("train.batch", d.Train.Batch)
	l.v.SetDefault("train.device", d.Train.Device)
	l.v.SetDefault("train.project", d.Train.Project)
	l.v.SetDefault("train.name_prefix", d.Train.NamePrefix)

	l.v.SetDefault("bench.warmup", d.Bench.Warmup)
	l.v.SetDefault("bench.iterations", d.Bench.Iterations)
	l.v.SetDefault("bench.imgsz", d.Bench.ImgSize)
	l.v.SetDefault("bench.onnx_lib", d.Bench.ONNXLib)
	l.v.SetDefault("bench.models_dir", d.Bench.ModelsDir)
	l.v.SetDefault("bench.threads", d.Bench.Threads)
	l.v.SetDefault("bench.gpu", d.Bench.GPU)
	l.v.SetDefault("bench.gpu_device", d.Bench.GPUDevice)
}

// GenerateDefaultConfigFile writes the default configuration to filename,
// dscurate.yaml when empty.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	l := NewLoaderWith(viper.New())
	l.setDefaults()
	return l.v.WriteConfigAs(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	return append(paths, "/etc/"+ConfigFileName)
}
