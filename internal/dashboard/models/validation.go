package models

import (
	"strings"

	dErrors "dashboard-service/pkg/domain-errors"
)

// WidgetTypeChecker is the widget registry capability used during validation.
type WidgetTypeChecker interface {
	IsKnownWidgetType(widgetType string) bool
}

// Validate checks structural validity of a candidate payload. Semantic
// checks beyond widget type membership belong elsewhere.
//
// Errors:
//   - CodeDuplicatePosition: two widgets share a position within a sequence
//   - CodeInvalidPreference: negative refresh interval
//   - CodeValidation: missing or duplicate widget id, unknown widget type
func (d ConfigData) Validate(types WidgetTypeChecker) error {
	if err := validateSequence("topRow", d.Layout.TopRow, types); err != nil {
		return err
	}
	if err := validateSequence("mainContent", d.Layout.MainContent, types); err != nil {
		return err
	}
	if ri := d.Preferences.RefreshInterval; ri != nil && *ri < 0 {
		return dErrors.Newf(dErrors.CodeInvalidPreference,
			"preferences.refreshInterval must be >= 0, got %d", *ri)
	}
	return nil
}

func validateSequence(name string, widgets []Widget, types WidgetTypeChecker) error {
	positions := make(map[int]string, len(widgets))
	ids := make(map[string]struct{}, len(widgets))
	for i, w := range widgets {
		if strings.TrimSpace(w.ID) == "" {
			return dErrors.Newf(dErrors.CodeValidation, "layout.%s[%d]: widget id is required", name, i)
		}
		if _, dup := ids[w.ID]; dup {
			return dErrors.Newf(dErrors.CodeValidation, "layout.%s: duplicate widget id %q", name, w.ID)
		}
		ids[w.ID] = struct{}{}

		if other, dup := positions[w.Position]; dup {
			return dErrors.Newf(dErrors.CodeDuplicatePosition,
				"layout.%s: widgets %q and %q share position %d", name, other, w.ID, w.Position)
		}
		positions[w.Position] = w.ID

		if types != nil && !w.IsTombstone() && !types.IsKnownWidgetType(w.Type) {
			return dErrors.Newf(dErrors.CodeValidation,
				"layout.%s: widget %q has unknown type %q", name, w.ID, w.Type)
		}
	}
	return nil
}
