package store

import (
	"time"

	"dashboard-service/internal/dashboard/models"
)

// SystemDefaultVersion identifies the built-in layout below. Bump it whenever
// the default changes so clients can tell which revision they render.
const SystemDefaultVersion = "1.0.0"

// SystemDefault is the configuration served when a user has no override and
// their company has no baseline.
func SystemDefault() models.ConfigData {
	return models.ConfigData{
		Layout: models.Layout{
			TopRow: []models.Widget{
				{ID: "headcount", Type: "headcount", Title: "Headcount", Width: "quarter", Icon: "users", Position: 1, IsVisible: true},
				{ID: "kyc-queue", Type: "kyc_queue", Title: "KYC queue", Width: "quarter", Icon: "id-card", Position: 2, IsVisible: true},
				{ID: "compliance-alerts", Type: "compliance_alerts", Title: "Compliance alerts", Width: "quarter", Icon: "alert", Position: 3, IsVisible: true},
				{ID: "open-tasks", Type: "kpi", Title: "Open tasks", Width: "quarter", Icon: "check", Position: 4, IsVisible: true},
			},
			MainContent: []models.Widget{
				{ID: "activity", Type: "activity", Title: "Recent activity", Width: "half", Position: 1, IsVisible: true},
				{ID: "calendar", Type: "calendar", Title: "Calendar", Width: "half", Position: 2, IsVisible: true},
			},
		},
		Preferences: models.Preferences{
			Theme:           "light",
			RefreshInterval: models.Ptr(300),
			DefaultView:     "overview",
			Notifications: models.Notifications{
				Email: models.Ptr(true),
				Push:  models.Ptr(false),
				SMS:   models.Ptr(false),
			},
		},
		WidgetSettings: models.WidgetSettings{
			DateRange: "30d",
			Currency:  "EUR",
			Timezone:  "UTC",
		},
		Metadata: models.Metadata{
			LastModified:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Version:        SystemDefaultVersion,
			LastModifiedBy: "system",
		},
	}
}
