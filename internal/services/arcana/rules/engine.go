// Package rules is the deterministic ordinance engine: canonical identity,
// complexity and tier, and the mechanical suggestion for a composition.
//
// Every function here is pure given the catalog and its inputs. The Engine
// only carries the catalog and the printer used to render summaries.
package rules

import (
	"golang.org/x/text/message"

	i18ncatalog "github.com/louisbranch/arcana/internal/platform/i18n/catalog"
	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
)

// Composition is one candidate ordinance: a precept, its numen and the
// selected modifiers.
type Composition struct {
	PreceptID    string      `json:"precept_id"`
	NumenIDs     []string    `json:"numen_ids"`
	Modifiers    []Selection `json:"modifiers"`
	LongDuration bool        `json:"long_duration"`
}

// Engine evaluates compositions against a catalog.
type Engine struct {
	catalog *catalog.Catalog
	printer *message.Printer
	locale  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocale renders summaries and area/duration text in locale. Unknown
// locales fall back to en-US.
func WithLocale(locale string) Option {
	return func(e *Engine) {
		bundle := i18ncatalog.Default()
		if !bundle.HasLocale(locale) {
			locale = i18ncatalog.BaseLocale
		}
		e.locale = locale
		e.printer = bundle.Printer(locale)
	}
}

// NewEngine returns an engine over cat.
func NewEngine(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: cat}
	WithLocale(i18ncatalog.BaseLocale)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog the engine reads from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Locale returns the locale summaries are rendered in.
func (e *Engine) Locale() string {
	return e.locale
}

func (e *Engine) sprintf(key string, args ...any) string {
	return e.printer.Sprintf(key, args...)
}
