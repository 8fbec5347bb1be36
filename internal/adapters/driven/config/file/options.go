package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "WIKICHUNK_"

// Options are the resolved run settings shared by the extract and batch commands.
type Options struct {
	InputDir      string  `toml:"input_dir" yaml:"input_dir"`
	OutputDir     string  `toml:"output_dir" yaml:"output_dir"`
	PageMetaDB    string  `toml:"page_meta_db" yaml:"page_meta_db"`
	ChunkSize     int     `toml:"chunk_size" yaml:"chunk_size" validate:"min=1"`
	Parallelism   int     `toml:"parallelism" yaml:"parallelism" validate:"min=1"`
	StartFrom     int     `toml:"start_from" yaml:"start_from" validate:"min=1"`
	MaxFiles      int     `toml:"max_files" yaml:"max_files" validate:"min=0"`
	Timeout       int     `toml:"timeout" yaml:"timeout" validate:"gt=0"`
	ProgressEvery int     `toml:"progress_every" yaml:"progress_every" validate:"min=0"`
	Rate          float64 `toml:"rate" yaml:"rate" validate:"min=0"`
	Verbose       bool    `toml:"verbose" yaml:"verbose"`

	// Processors is the post-processor chain applied to each document.
	// Empty selects the built-in chain.
	Processors []string `toml:"processors" yaml:"processors" validate:"dive,required"`
}

// Defaults returns the built-in options.
func Defaults() Options {
	return Options{
		InputDir:      "../wiki-extract/parquet",
		ChunkSize:     512,
		Parallelism:   8,
		StartFrom:     1,
		MaxFiles:      0,
		Timeout:       3000,
		ProgressEvery: 50,
		Rate:          0,
	}
}

// TimeoutDuration returns the per-unit timeout.
func (o Options) TimeoutDuration() time.Duration {
	return time.Duration(o.Timeout) * time.Second
}

var validate = validator.New()

// Validate checks the option ranges.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// LoadFile overlays the config file at path onto opts. The format is YAML for
// .yaml and .yml files and TOML otherwise. Keys absent from the file keep
// their current values.
func LoadFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, opts)
	default:
		err = toml.Unmarshal(data, opts)
	}
	if err != nil {
		return fmt.Errorf("%w: parsing config %s: %v", domain.ErrInvalidInput, path, err)
	}
	return nil
}

// ReadEnvFile returns the variables of a dotenv file.
func ReadEnvFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return vars, nil
}

// ApplyEnv overlays WIKICHUNK_* variables onto opts. Values from lookup win
// over values from file.
func ApplyEnv(opts *Options, file map[string]string, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		key := EnvPrefix + name
		if lookup != nil {
			if v, ok := lookup(key); ok {
				return v, true
			}
		}
		v, ok := file[key]
		return v, ok
	}

	strs := map[string]*string{
		"INPUT_DIR":    &opts.InputDir,
		"OUTPUT_DIR":   &opts.OutputDir,
		"PAGE_META_DB": &opts.PageMetaDB,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"CHUNK_SIZE":     &opts.ChunkSize,
		"PARALLELISM":    &opts.Parallelism,
		"START_FROM":     &opts.StartFrom,
		"MAX_FILES":      &opts.MaxFiles,
		"TIMEOUT":        &opts.Timeout,
		"PROGRESS_EVERY": &opts.ProgressEvery,
	}
	for name, dst := range ints {
		v, ok := get(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not an integer", domain.ErrInvalidInput, EnvPrefix, name, v)
		}
		*dst = n
	}

	if v, ok := get("RATE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %sRATE=%q is not a number", domain.ErrInvalidInput, EnvPrefix, v)
		}
		opts.Rate = f
	}

	if v, ok := get("PROCESSORS"); ok {
		opts.Processors = splitList(v)
	}

	if v, ok := get("VERBOSE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sVERBOSE=%q is not a boolean", domain.ErrInvalidInput, EnvPrefix, v)
		}
		opts.Verbose = b
	}

	return nil
}

// splitList parses a comma separated list, dropping blank items.
func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Load resolves options from defaults, the optional config file, the optional
// env file and the process environment.
func Load(configPath, envFile string) (Options, error) {
	opts := Defaults()

	if configPath != "" {
		if err := LoadFile(configPath, &opts); err != nil {
			return opts, err
		}
	}

	var fileVars map[string]string
	if envFile != "" {
		vars, err := ReadEnvFile(envFile)
		if err != nil {
			return opts, err
		}
		fileVars = vars
	}

	if err := ApplyEnv(&opts, fileVars, os.LookupEnv); err != nil {
		return opts, err
	}
	return opts, nil
}
