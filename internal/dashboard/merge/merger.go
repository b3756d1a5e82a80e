// Package merge projects a company baseline and a user override into the
// configuration a client renders. Everything here is pure: no I/O, no shared
// state, safe for concurrent use.
package merge

import (
	"maps"
	"slices"

	"dashboard-service/internal/dashboard/models"
	dErrors "dashboard-service/pkg/domain-errors"
)

// Merger resolves layered configurations. The fallback is used when neither
// layer exists; a nil fallback makes that case a CodeNotFound error.
type Merger struct {
	fallback *models.ConfigData
}

// New builds a Merger with the system default used when both layers are absent.
func New(fallback *models.ConfigData) *Merger {
	if fallback != nil {
		f := fallback.Clone()
		fallback = &f
	}
	return &Merger{fallback: fallback}
}

// Resolve combines company and user layers with user precedence.
//
//   - one side present: returned unchanged
//   - both absent: the fallback
//   - both present: preferences and widget settings override per leaf,
//     widgets merge by id, metadata comes from the most recently modified side
//
// The result never aliases the inputs.
func (m *Merger) Resolve(company, user *models.ConfigData) (models.ConfigData, error) {
	switch {
	case company == nil && user == nil:
		if m.fallback == nil {
			return models.ConfigData{}, dErrors.New(dErrors.CodeNotFound, "no baseline or default configuration available")
		}
		return m.fallback.Clone(), nil
	case user == nil:
		return company.Clone(), nil
	case company == nil:
		return user.Clone(), nil
	}

	return models.ConfigData{
		Layout: models.Layout{
			TopRow:      mergeWidgets(company.Layout.TopRow, user.Layout.TopRow),
			MainContent: mergeWidgets(company.Layout.MainContent, user.Layout.MainContent),
		},
		Preferences:    mergePreferences(company.Preferences, user.Preferences),
		WidgetSettings: mergeWidgetSettings(company.WidgetSettings, user.WidgetSettings),
		Metadata:       newerMetadata(company.Metadata, user.Metadata),
	}, nil
}

// mergeWidgets merges one widget sequence by id.
//
// A user widget sharing an id with a company widget replaces it whole; a user
// tombstone suppresses it. Company widgets the user never mentions are kept.
// User-only widgets are appended (user-only tombstones reference nothing and
// are dropped). The result is stably sorted by position, then positions are
// bumped forward where needed so they strictly increase.
func mergeWidgets(company, user []models.Widget) []models.Widget {
	userByID := make(map[string]models.Widget, len(user))
	for _, w := range user {
		if _, seen := userByID[w.ID]; !seen {
			userByID[w.ID] = w
		}
	}

	out := make([]models.Widget, 0, len(company)+len(user))
	referenced := make(map[string]bool, len(user))
	for _, cw := range company {
		uw, overridden := userByID[cw.ID]
		if !overridden {
			out = append(out, cw.Clone())
			continue
		}
		referenced[cw.ID] = true
		if uw.IsTombstone() {
			continue
		}
		out = append(out, uw.Clone())
	}
	for _, uw := range user {
		if referenced[uw.ID] || uw.IsTombstone() {
			continue
		}
		referenced[uw.ID] = true
		out = append(out, uw.Clone())
	}

	slices.SortStableFunc(out, func(a, b models.Widget) int {
		return a.Position - b.Position
	})
	for i := 1; i < len(out); i++ {
		if out[i].Position <= out[i-1].Position {
			out[i].Position = out[i-1].Position + 1
		}
	}
	return out
}

func mergePreferences(c, u models.Preferences) models.Preferences {
	out := models.Preferences{
		Theme:           pickString(c.Theme, u.Theme),
		RefreshInterval: pickPtr(c.RefreshInterval, u.RefreshInterval),
		DefaultView:     pickString(c.DefaultView, u.DefaultView),
		Notifications: models.Notifications{
			Email: pickPtr(c.Notifications.Email, u.Notifications.Email),
			Push:  pickPtr(c.Notifications.Push, u.Notifications.Push),
			SMS:   pickPtr(c.Notifications.SMS, u.Notifications.SMS),
		},
	}
	return out
}

func mergeWidgetSettings(c, u models.WidgetSettings) models.WidgetSettings {
	out := models.WidgetSettings{
		DateRange: pickString(c.DateRange, u.DateRange),
		Currency:  pickString(c.Currency, u.Currency),
		Timezone:  pickString(c.Timezone, u.Timezone),
	}
	if c.ChartColors != nil || u.ChartColors != nil {
		out.ChartColors = make(map[string]string, len(c.ChartColors)+len(u.ChartColors))
		maps.Copy(out.ChartColors, c.ChartColors)
		for series, color := range u.ChartColors {
			if color != "" {
				out.ChartColors[series] = color
			}
		}
	}
	return out
}

// newerMetadata keeps the side written last; a tie goes to the user.
func newerMetadata(c, u models.Metadata) models.Metadata {
	if c.LastModified.After(u.LastModified) {
		return c
	}
	return u
}

func pickString(company, user string) string {
	if user != "" {
		return user
	}
	return company
}

func pickPtr[T any](company, user *T) *T {
	src := company
	if user != nil {
		src = user
	}
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
