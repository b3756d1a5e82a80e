package models

import (
	"maps"
	"time"
)

// ConfigData is the dashboard payload stored as a JSON document.
//
// Optional scalar preferences are pointers so a user override can tell
// "not set" apart from a zero value; the merger relies on that distinction.
type ConfigData struct {
	Layout         Layout         `json:"layout"`
	Preferences    Preferences    `json:"preferences"`
	WidgetSettings WidgetSettings `json:"widgetSettings"`
	Metadata       Metadata       `json:"metadata"`
}

// Layout holds the two ordered widget areas.
type Layout struct {
	TopRow      []Widget `json:"topRow"`
	MainContent []Widget `json:"mainContent"`
}

// Widget is one tile on the dashboard. Position decides render order and is
// unique within the containing sequence; it need not equal the array index.
type Widget struct {
	ID        string         `json:"id"`
	Type      string         `json:"type,omitempty"`
	Title     string         `json:"title,omitempty"`
	Width     string         `json:"width,omitempty"`
	Icon      string         `json:"icon,omitempty"`
	Position  int            `json:"position"`
	IsVisible bool           `json:"isVisible"`
	Settings  map[string]any `json:"settings,omitempty"`
}

// IsTombstone reports whether the widget marks a baseline widget as removed:
// hidden and carrying no custom settings.
func (w Widget) IsTombstone() bool {
	return !w.IsVisible && len(w.Settings) == 0
}

type Preferences struct {
	Theme           string        `json:"theme,omitempty"`
	RefreshInterval *int          `json:"refreshInterval,omitempty"`
	DefaultView     string        `json:"defaultView,omitempty"`
	Notifications   Notifications `json:"notifications"`
}

type Notifications struct {
	Email *bool `json:"email,omitempty"`
	Push  *bool `json:"push,omitempty"`
	SMS   *bool `json:"sms,omitempty"`
}

type WidgetSettings struct {
	ChartColors map[string]string `json:"chartColors,omitempty"`
	DateRange   string            `json:"dateRange,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Timezone    string            `json:"timezone,omitempty"`
}

// Metadata is payload-internal audit data, kept consistent with the row's
// version and updatedAt on every write.
type Metadata struct {
	LastModified   time.Time `json:"lastModified"`
	Version        string    `json:"version,omitempty"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
}

// Clone returns a deep copy so callers can mutate the result freely.
func (d ConfigData) Clone() ConfigData {
	out := d
	out.Layout = Layout{
		TopRow:      cloneWidgets(d.Layout.TopRow),
		MainContent: cloneWidgets(d.Layout.MainContent),
	}
	out.Preferences.RefreshInterval = clonePtr(d.Preferences.RefreshInterval)
	out.Preferences.Notifications = Notifications{
		Email: clonePtr(d.Preferences.Notifications.Email),
		Push:  clonePtr(d.Preferences.Notifications.Push),
		SMS:   clonePtr(d.Preferences.Notifications.SMS),
	}
	if d.WidgetSettings.ChartColors != nil {
		out.WidgetSettings.ChartColors = maps.Clone(d.WidgetSettings.ChartColors)
	}
	return out
}

// Clone returns a deep copy of the widget, including nested settings.
func (w Widget) Clone() Widget {
	out := w
	if w.Settings != nil {
		out.Settings = cloneSettings(w.Settings)
	}
	return out
}

func cloneWidgets(in []Widget) []Widget {
	if in == nil {
		return nil
	}
	out := make([]Widget, len(in))
	for i, w := range in {
		out[i] = w.Clone()
	}
	return out
}

func cloneSettings(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneSettings(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneAny(t[i])
		}
		return out
	default:
		return v
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr is a small helper for building optional preference values.
func Ptr[T any](v T) *T {
	return &v
}
