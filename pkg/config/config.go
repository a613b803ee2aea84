package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/logging"
)

// EnvPrefix prefixes environment overrides, e.g. SQLCORE_EXECUTION_BLOCK_SIZE.
const EnvPrefix = "SQLCORE"

// JoinStrategy selects the physical join operator.
type JoinStrategy string

const (
	JoinAuto            JoinStrategy = "auto"
	JoinNestedLoop      JoinStrategy = "nested_loop"
	JoinBlockNestedLoop JoinStrategy = "block_nested_loop"
	JoinHash            JoinStrategy = "hash"
	JoinMerge           JoinStrategy = "merge"
)

// SpillCodec selects the compression of external sort runs and hash join
// partitions.
type SpillCodec string

const (
	CodecNone   SpillCodec = "none"
	CodecSnappy SpillCodec = "snappy"
	CodecZstd   SpillCodec = "zstd"
)

type Config struct {
	Logging   logging.Config `mapstructure:"logging"`
	Execution Execution      `mapstructure:"execution"`
}

// Execution tunes the physical planner and the spilling operators.
type Execution struct {
	// SortInMemoryThreshold is the largest estimated input a Sort may buffer
	// whole. Larger or unknown inputs use the external sort.
	SortInMemoryThreshold int64 `mapstructure:"sort_in_memory_threshold"`

	// SortMemoryRows is the chunk size, in rows, of the external sort.
	SortMemoryRows int `mapstructure:"sort_memory_rows"`

	// SortMergeFanIn is the most runs the external sort merges at once.
	// More runs are merged in several passes.
	SortMergeFanIn int `mapstructure:"sort_merge_fan_in"`

	// BlockSize is the number of outer rows per block nested loop pass.
	BlockSize int `mapstructure:"block_size"`

	JoinStrategy JoinStrategy `mapstructure:"join_strategy"`

	// PreferMergeJoin makes the auto strategy sort unsorted equi-join inputs
	// instead of hashing them.
	PreferMergeJoin bool `mapstructure:"prefer_merge_join"`

	// HashBuildMaxRows caps the in-memory build side of a hash join; past it
	// both sides are partitioned to disk.
	HashBuildMaxRows int `mapstructure:"hash_build_max_rows"`

	HashPartitions int `mapstructure:"hash_partitions"`

	// HashBuildSmaller lets the planner build a hash join on the outer input
	// when its estimate is smaller. The output then follows inner order.
	HashBuildSmaller bool `mapstructure:"hash_build_smaller"`

	// WorkDir receives spill files. Empty means the OS temp directory.
	WorkDir string `mapstructure:"work_dir"`

	SpillCodec SpillCodec `mapstructure:"spill_codec"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: logging.Config{
			Level:  logging.LevelInfo,
			Format: "text",
		},
		Execution: DefaultExecution(),
	}
}

func DefaultExecution() Execution {
	return Execution{
		SortInMemoryThreshold: 100_000,
		SortMemoryRows:        10_000,
		SortMergeFanIn:        64,
		BlockSize:             256,
		JoinStrategy:          JoinAuto,
		HashBuildMaxRows:      1_000_000,
		HashPartitions:        16,
		SpillCodec:            CodecSnappy,
	}
}

// Load reads path (YAML) when given, applies SQLCORE_* environment overrides
// on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeInvalidConfig,
				"read config %s", path).WithDetail("%v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeInvalidConfig,
			"unmarshal config").WithDetail("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("logging.level", string(d.Logging.Level))
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.format", d.Logging.Format)

	e := d.Execution
	v.SetDefault("execution.sort_in_memory_threshold", e.SortInMemoryThreshold)
	v.SetDefault("execution.sort_memory_rows", e.SortMemoryRows)
	v.SetDefault("execution.sort_merge_fan_in", e.SortMergeFanIn)
	v.SetDefault("execution.block_size", e.BlockSize)
	v.SetDefault("execution.join_strategy", string(e.JoinStrategy))
	v.SetDefault("execution.prefer_merge_join", e.PreferMergeJoin)
	v.SetDefault("execution.hash_build_max_rows", e.HashBuildMaxRows)
	v.SetDefault("execution.hash_partitions", e.HashPartitions)
	v.SetDefault("execution.hash_build_smaller", e.HashBuildSmaller)
	v.SetDefault("execution.work_dir", e.WorkDir)
	v.SetDefault("execution.spill_codec", string(e.SpillCodec))
}

// Validate checks every section and normalizes the log level.
func (c *Config) Validate() error {
	level, err := logging.ParseLevel(string(c.Logging.Level))
	if err != nil {
		return invalid("logging.level", err)
	}
	c.Logging.Level = level
	return c.Execution.Validate()
}

func (e *Execution) Validate() error {
	switch {
	case e.SortInMemoryThreshold < 0:
		return invalid("execution.sort_in_memory_threshold", errors.Newf("must not be negative, got %d", e.SortInMemoryThreshold))
	case e.SortMemoryRows <= 0:
		return invalid("execution.sort_memory_rows", errors.Newf("must be positive, got %d", e.SortMemoryRows))
	case e.SortMergeFanIn < 2:
		return invalid("execution.sort_merge_fan_in", errors.Newf("need at least 2, got %d", e.SortMergeFanIn))
	case e.BlockSize <= 0:
		return invalid("execution.block_size", errors.Newf("must be positive, got %d", e.BlockSize))
	case e.HashBuildMaxRows <= 0:
		return invalid("execution.hash_build_max_rows", errors.Newf("must be positive, got %d", e.HashBuildMaxRows))
	case e.HashPartitions < 2:
		return invalid("execution.hash_partitions", errors.Newf("need at least 2, got %d", e.HashPartitions))
	}

	switch e.JoinStrategy {
	case JoinAuto, JoinNestedLoop, JoinBlockNestedLoop, JoinHash, JoinMerge:
	default:
		return invalid("execution.join_strategy", errors.Newf("unknown strategy %q", e.JoinStrategy))
	}

	switch e.SpillCodec {
	case CodecNone, CodecSnappy, CodecZstd:
	default:
		return invalid("execution.spill_codec", errors.Newf("unknown codec %q", e.SpillCodec))
	}
	return nil
}

// SpillDir returns the directory spill files are created in.
func (e *Execution) SpillDir() string {
	if e.WorkDir == "" {
		return os.TempDir()
	}
	return filepath.Clean(e.WorkDir)
}

func invalid(key string, err error) error {
	return dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeInvalidConfig, "invalid %s", key).
		WithDetail("%v", err).
		WithHint("set it in the config file or via " + EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
}
