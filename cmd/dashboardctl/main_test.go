package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard-service/internal/dashboard/models"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DASHBOARD_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { jsonOutput = false })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEffectiveWithoutLayersShowsSystemDefault(t *testing.T) {
	out, err := execute(t, "", "effective", "--user", "u1", "--company", "c1")
	require.NoError(t, err)

	assert.Contains(t, out, "Source:   default")
	assert.Contains(t, out, "Top row:")
}

func TestBaselineSetFromStdin(t *testing.T) {
	doc := `{"layout":{"topRow":[{"id":"rev","type":"kpi","position":1,"isVisible":true}],"mainContent":[]},
		"preferences":{"theme":"dark"}}`

	out, err := execute(t, doc, "baseline", "set", "--company", "c1", "--actor", "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "Company c1 baseline at version 1")
}

func TestBaselineSetRequiresCompany(t *testing.T) {
	_, err := execute(t, "{}", "baseline", "set", "--company", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--company")
}

func TestReadConfigFile(t *testing.T) {
	t.Run("reads a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "baseline.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"preferences":{"theme":"dark"}}`), 0o600))

		data, err := readConfigFile(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "dark", data.Preferences.Theme)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := readConfigFile("-", strings.NewReader(`{"layuot":{}}`))
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readConfigFile(filepath.Join(t.TempDir(), "nope.json"), nil)
		require.Error(t, err)
	})
}

func TestPrintEffectiveMarksHiddenWidgets(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printEffective(&out, &models.EffectiveConfig{
		UserID:    "u1",
		CompanyID: "c1",
		Source:    models.SourceMerged,
		Data: models.ConfigData{Layout: models.Layout{
			TopRow: []models.Widget{{ID: "rev", Type: "kpi", Position: 1, IsVisible: false, Settings: map[string]any{"x": 1}}},
		}},
	}))
	assert.Contains(t, out.String(), "rev")
	assert.Contains(t, out.String(), "(hidden)")
}
