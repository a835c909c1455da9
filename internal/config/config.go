// Package config holds import options and loads them from the environment.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rcliao/nodeset-import/internal/conflict"
)

const (
	MiB = 1024 * 1024

	DefaultMaxFileSize = 10 * MiB
	DefaultResetDelay  = 3 * time.Second

	// MinMaxFileSizeMB is what a too-small user override is raised to.
	MinMaxFileSizeMB = 0.2
)

// DefaultAcceptedFormats lists the file extensions accepted by default.
var DefaultAcceptedFormats = []string{".xml"}

// Options configures an import session.
type Options struct {
	// MaxFileSize is the default limit in bytes.
	MaxFileSize int64
	// MaxFileSizeMB is the user override in MiB. Zero means unset.
	MaxFileSizeMB   float64
	AcceptedFormats []string
	Strategy        conflict.Strategy
	// ResetDelay is how long the upload state lingers before returning to
	// SELECT_FILE.
	ResetDelay time.Duration
}

// Defaults returns the default options.
func Defaults() Options {
	return Options{
		MaxFileSize:     DefaultMaxFileSize,
		AcceptedFormats: append([]string(nil), DefaultAcceptedFormats...),
		Strategy:        conflict.DefaultStrategy,
		ResetDelay:      DefaultResetDelay,
	}
}

// WithDefaults fills zero fields of o from Defaults.
func (o Options) WithDefaults() Options {
	d := Defaults()
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = d.MaxFileSize
	}
	if len(o.AcceptedFormats) == 0 {
		o.AcceptedFormats = d.AcceptedFormats
	}
	if o.Strategy == "" {
		o.Strategy = d.Strategy
	}
	if o.ResetDelay <= 0 {
		o.ResetDelay = d.ResetDelay
	}
	return o
}

// EffectiveMaxFileSize returns the limit in bytes. A positive user override
// takes precedence over the default.
func (o Options) EffectiveMaxFileSize() int64 {
	if o.MaxFileSizeMB > 0 {
		return int64(math.Round(o.MaxFileSizeMB * MiB))
	}
	return o.MaxFileSize
}

// AcceptsName reports whether name ends with one of the accepted extensions.
func (o Options) AcceptsName(name string) bool {
	lower := strings.ToLower(name)
	for _, f := range o.AcceptedFormats {
		if strings.HasSuffix(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// ClampMaxSizeMB normalizes a user supplied MiB limit: NaN and values at or
// below 0.1 become MinMaxFileSizeMB.
func ClampMaxSizeMB(v float64) float64 {
	if math.IsNaN(v) || v <= 0.1 {
		return MinMaxFileSizeMB
	}
	return v
}

// FromEnv loads a .env file if present and reads NODESET_* variables on top
// of the defaults.
func FromEnv() (Options, error) {
	_ = godotenv.Load()

	o := Defaults()
	if raw := strings.TrimSpace(os.Getenv("NODESET_MAX_SIZE_MB")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return o, fmt.Errorf("parse NODESET_MAX_SIZE_MB: %w", err)
		}
		o.MaxFileSizeMB = ClampMaxSizeMB(v)
	}
	if raw := strings.TrimSpace(os.Getenv("NODESET_FORMATS")); raw != "" {
		o.AcceptedFormats = SplitFormats(raw)
	}
	st, err := conflict.ParseStrategy(os.Getenv("NODESET_CONFLICT_STRATEGY"))
	if err != nil {
		return o, fmt.Errorf("parse NODESET_CONFLICT_STRATEGY: %w", err)
	}
	o.Strategy = st
	return o, nil
}

// SplitFormats parses a comma-separated extension list, adding a leading dot
// where missing.
func SplitFormats(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		out = append(out, f)
	}
	return out
}

// DBPath resolves the workspace database location: explicit value, then
// $NODESET_DB, then ~/.nodeset-import/workspace.db.
func DBPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("NODESET_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nodeset-import", "workspace.db")
}
