// Package registry knows which widget types the dashboard can render.
package registry

import (
	"slices"
	"strings"
	"sync"
)

// Built-in widget types shipped with the dashboard frontend.
var builtinTypes = []string{
	"kpi",
	"chart",
	"table",
	"list",
	"calendar",
	"activity",
	"notes",
	"headcount",
	"kyc_queue",
	"compliance_alerts",
}

// Static is an in-process widget type registry. It is safe for concurrent use.
type Static struct {
	mu    sync.RWMutex
	types map[string]struct{}
}

// NewStatic returns a registry seeded with the built-in types plus extra.
func NewStatic(extra ...string) *Static {
	r := &Static{types: make(map[string]struct{}, len(builtinTypes)+len(extra))}
	for _, t := range builtinTypes {
		r.types[t] = struct{}{}
	}
	for _, t := range extra {
		r.Register(t)
	}
	return r
}

// Register adds a widget type. Blank names are ignored.
func (r *Static) Register(widgetType string) {
	widgetType = normalize(widgetType)
	if widgetType == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[widgetType] = struct{}{}
}

// IsKnownWidgetType reports whether widgetType can be rendered.
func (r *Static) IsKnownWidgetType(widgetType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[normalize(widgetType)]
	return ok
}

// Types lists registered types in sorted order.
func (r *Static) Types() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	r.mu.RUnlock()
	slices.Sort(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
