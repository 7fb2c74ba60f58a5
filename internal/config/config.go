package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sqlq"
)

//go:embed schema.cue
var schemaSource string

// Config is the sqlq configuration.
//
// Tags: yaml for the file, json for the CUE encoding used by Validate.
type Config struct {
	// Path is the database file.
	Path string `yaml:"path" json:"path"`

	// SchemaVersion is the target version for the schema lifecycle.
	SchemaVersion int64 `yaml:"schema_version" json:"schema_version"`

	// BusyTimeout is how long, in seconds, a connection waits on a lock.
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout"`

	// Format is the CLI output format: "text" or "json".
	Format string `yaml:"format" json:"format"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Default returns a Config with defaults applied and no database path.
func Default() *Config {
	return &Config{
		BusyTimeout: 5,
		Format:      "text",
		LogLevel:    "info",
	}
}

// Load reads a YAML config file over the defaults, then applies environment
// overrides. Unknown keys are rejected. The result is not validated; callers
// merge flags first and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true) // Reject unknown fields
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies SQLQ_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SQLQ_DB_PATH"); v != "" {
		cfg.Path = v
	}
	if v := os.Getenv("SQLQ_SCHEMA_VERSION"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SQLQ_SCHEMA_VERSION: %w", err)
		}
		cfg.SchemaVersion = n
	}
	if v := os.Getenv("SQLQ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks cfg against the embedded CUE schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	val := def.Unify(ctx.Encode(c))
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("configuration errors: %s", formatCUEErrors(err))
	}
	return nil
}

// formatCUEErrors flattens a CUE error list into one line.
func formatCUEErrors(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Level returns the slog level for LogLevel. Unknown levels map to Info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options maps the configuration to sqlq options.
func (c *Config) Options() []sqlq.Option {
	return []sqlq.Option{
		sqlq.WithSchemaVersion(c.SchemaVersion),
		sqlq.WithBusyTimeout(time.Duration(c.BusyTimeout) * time.Second),
	}
}
