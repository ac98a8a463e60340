// Package directory resolves the court hierarchy (states, districts, court
// complexes and courts) offered by the eCourts cause-list page.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

// Entry is one selectable option. Value is the upstream code used to query
// the level below.
type Entry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Source lists the entries of level under the named parent selections.
// len(parents) equals the level's depth.
type Source interface {
	Lookup(ctx context.Context, level causelist.Level, parents []string) ([]Entry, error)
}

// ErrNotFound is returned when a parent selection is unknown to the source.
var ErrNotFound = errors.New("not found")

var placeholders = map[string]bool{
	"Select":               true,
	"Select State":         true,
	"Select District":      true,
	"Select Court Complex": true,
	"Select Court":         true,
}

// usable reports whether an option is a real entry rather than a prompt.
func usable(e Entry) bool {
	return e.Name != "" && e.Value != "" && !placeholders[e.Name]
}

// valueOf returns the value of the entry named name.
func valueOf(entries []Entry, name string) (string, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// withFallback answers from primary and switches to secondary when primary
// fails or has nothing to offer.
type withFallback struct {
	primary   Source
	secondary Source
	logger    *slog.Logger
}

// WithFallback wraps primary so that failures are answered from secondary.
func WithFallback(primary, secondary Source, logger *slog.Logger) Source {
	return &withFallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *withFallback) Lookup(ctx context.Context, level causelist.Level, parents []string) ([]Entry, error) {
	entries, err := f.primary.Lookup(ctx, level, parents)
	if err == nil && len(entries) > 0 {
		return entries, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.Warn("Hierarchy source unavailable, using fallback data",
		slog.String("level", level.String()),
		slog.Any("parents", parents),
		slog.Any("error", err),
	)
	return f.secondary.Lookup(ctx, level, parents)
}

// ChainConfig describes the hierarchy source served by the API.
type ChainConfig struct {
	// Live is the upstream source; nil serves the built-in lists only.
	Live Source
	// Store caches Live answers; nil disables caching.
	Store       Store
	KeyPrefix   string
	TTL         time.Duration
	UseFallback bool
}

// NewChain caches Live in Store and answers from the built-in lists when Live
// fails or is empty. Built-in answers never reach the cache, so a recovered
// upstream is consulted on the next lookup.
func NewChain(cfg ChainConfig, logger *slog.Logger) Source {
	if cfg.Live == nil {
		return Fallback{}
	}

	src := cfg.Live
	if cfg.Store != nil {
		src = NewCache(src, cfg.Store, cfg.KeyPrefix, cfg.TTL, logger)
	}
	if cfg.UseFallback {
		src = WithFallback(src, Fallback{}, logger)
	}
	return src
}
