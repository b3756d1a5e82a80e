package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"dashboard-service/internal/dashboard/models"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// readConfigFile decodes a configData document; "-" reads stdin.
func readConfigFile(path string, stdin io.Reader) (models.ConfigData, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return models.ConfigData{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var data models.ConfigData
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return models.ConfigData{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return data, nil
}

func printEffective(w io.Writer, eff *models.EffectiveConfig) error {
	if jsonOutput {
		return printJSON(w, eff)
	}
	fmt.Fprintf(w, "User:     %s (version %d)\n", eff.UserID, eff.UserVersion)
	fmt.Fprintf(w, "Company:  %s (version %d)\n", eff.CompanyID, eff.CompanyVersion)
	fmt.Fprintf(w, "Source:   %s\n", eff.Source)
	fmt.Fprintf(w, "Theme:    %s\n", eff.Data.Preferences.Theme)
	printWidgets(w, "Top row", eff.Data.Layout.TopRow)
	printWidgets(w, "Main", eff.Data.Layout.MainContent)
	return nil
}

func printWidgets(w io.Writer, area string, widgets []models.Widget) {
	fmt.Fprintf(w, "%s:\n", area)
	for _, wd := range widgets {
		visible := ""
		if !wd.IsVisible {
			visible = " (hidden)"
		}
		fmt.Fprintf(w, "  %2d  %-24s %s%s\n", wd.Position, wd.ID, wd.Type, visible)
	}
}
