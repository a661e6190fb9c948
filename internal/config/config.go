// Package config loads run configuration from CUE files checked against an
// embedded schema.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/births/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// Config is one decoded run configuration.
type Config struct {
	Versions     []string `json:"versions"`
	Baseline     string   `json:"baseline"`
	Database     string   `json:"database"`
	Target       string   `json:"target"`
	Log          string   `json:"log"`
	Locales      string   `json:"locales,omitempty"`
	Exempt       []string `json:"exempt"`
	PreviousOnly bool     `json:"previous_only"`
	Debug        bool     `json:"debug"`
	MetricsFile  string   `json:"metrics_file,omitempty"`

	sequence     ir.Sequence
	localeFilter *regexp.Regexp
	exempt       []*regexp.Regexp
}

// Error is a configuration error, positioned when CUE knows where.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads a config file. Relative paths inside it are resolved against
// the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes CUE source. filename is used only for error positions.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	if err := cfg.compile(v); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// compile builds the derived fields. CUE cannot express uniqueness or regex
// validity, so those checks live here.
func (c *Config) compile(v cue.Value) error {
	versions := make([]ir.Version, len(c.Versions))
	for i, name := range c.Versions {
		versions[i] = ir.Version(name)
	}
	seq, err := ir.NewSequence(versions...)
	if err != nil {
		return &Error{Field: "versions", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("versions")).Pos()}
	}
	c.sequence = seq

	if c.Locales != "" {
		re, err := regexp.Compile(c.Locales)
		if err != nil {
			return &Error{Field: "locales", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("locales")).Pos()}
		}
		c.localeFilter = re
	}

	c.exempt = make([]*regexp.Regexp, 0, len(c.Exempt))
	for i, pattern := range c.Exempt {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return &Error{Field: fmt.Sprintf("exempt[%d]", i), Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("exempt")).Pos()}
		}
		c.exempt = append(c.exempt, re)
	}
	return nil
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.Database, &c.Target, &c.Log, &c.MetricsFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Sequence returns the declared release order.
func (c *Config) Sequence() ir.Sequence {
	return c.sequence
}

// LocaleFilter returns the compiled locale regex, or nil when unset.
func (c *Config) LocaleFilter() *regexp.Regexp {
	return c.localeFilter
}

// ExemptPatterns returns the compiled exemption regexes.
func (c *Config) ExemptPatterns() []*regexp.Regexp {
	return c.exempt
}

// SetLocaleFilter replaces the locale regex, as a command-line flag does.
func (c *Config) SetLocaleFilter(pattern string) error {
	if pattern == "" {
		c.Locales, c.localeFilter = "", nil
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return &Error{Field: "locales", Message: err.Error()}
	}
	c.Locales, c.localeFilter = pattern, re
	return nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	e := &Error{Field: "config", Message: first.Error()}
	if path := first.Path(); len(path) > 0 {
		e.Field = strings.Join(path, ".")
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
