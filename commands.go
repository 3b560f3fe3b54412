package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	readingexport "plantwatch/internal/readings/interfaces"
	telemetryapp "plantwatch/internal/telemetry/application"
)

func newReadingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readings",
		Short: "Inspect and export manual readings",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the most recent readings as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(st *stores) error {
				return printJSON(cmd, st.readings.GetRecentReadings(limit))
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "number of readings (default 50)")

	var (
		format string
		out    string
	)
	export := &cobra.Command{
		Use:   "export",
		Short: "Write all readings to an xlsx or pdf file",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			catalogue, err := telemetryapp.Seeded(now)
			if err != nil {
				return err
			}
			return withStores(cmd.Context(), func(st *stores) error {
				var data []byte
				switch format {
				case "xlsx":
					data, err = readingexport.BuildReadingsXLSX(st.readings.All(), catalogue.SensorName, now)
				case "pdf":
					data, err = readingexport.BuildReadingsPDF(st.readings.All(), catalogue.SensorName, now)
				default:
					return fmt.Errorf("unsupported format %q", format)
				}
				if err != nil {
					return err
				}
				if out == "" {
					out = fmt.Sprintf("readings-%s.%s", now.Format("20060102-150405"), format)
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return err
				}
				logger.Info("readings exported", zap.String("path", out), zap.String("format", format), zap.Int("bytes", len(data)))
				return nil
			})
		},
	}
	export.Flags().StringVar(&format, "format", "xlsx", "export format: xlsx or pdf")
	export.Flags().StringVarP(&out, "out", "o", "", "output file")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(st *stores) error {
				return st.readings.ClearAllReadings(cmd.Context())
			})
		},
	}

	cmd.AddCommand(list, export, clearCmd)
	return cmd
}

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect dashboard preferences",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored preferences as JSON",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStores(cmd.Context(), func(st *stores) error {
					return printJSON(cmd, st.preferences.Snapshot())
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Clear the active tab and every sensor selection",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStores(cmd.Context(), func(st *stores) error {
					return st.preferences.ClearAllPreferences(cmd.Context())
				})
			},
		},
	)
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
