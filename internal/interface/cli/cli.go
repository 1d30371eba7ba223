package cli

import (
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/phytocast/internal/domain/prediction"
)

// New builds the phytoctl command tree.
func New() *cobra.Command {
	cfg := ClientConfig{}
	var client *Client

	root := &cobra.Command{
		Use:           "phytoctl",
		Short:         "Operator CLI for the phytoplankton forecast service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			client = NewClient(cfg)
		},
	}
	root.PersistentFlags().StringVar(&cfg.BaseURL, "server", envOr("PHYTOCAST_SERVER", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", 45*time.Second, "request timeout")
	root.PersistentFlags().StringVar(&cfg.SessionFile, "session-file", os.Getenv("PHYTOCAST_SESSION_FILE"), "file that keeps the session token between runs")
	root.PersistentFlags().StringVar(&cfg.CookieName, "cookie-name", "phytocast_session", "session cookie name")

	var date string
	forecastCmd := &cobra.Command{
		Use:   "forecast",
		Short: "Show the selected forecast day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := client.Forecast(cmd.Context(), date)
			if err != nil {
				return err
			}
			cmd.Printf("DATE\t\t%s (%s)\n", view.Selection.Date, view.Selection.Source)
			cmd.Printf("RANGE\t\t%s .. %s\n", view.MinDate, view.MaxDate)
			printDay(cmd, view.Day)
			return nil
		},
	}
	forecastCmd.Flags().StringVar(&date, "date", "", "forecast date (YYYY-MM-DD)")

	predictCmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict from the selected forecast day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Predict(cmd.Context(), date)
			if err != nil {
				return err
			}
			if resp.Selection != nil {
				cmd.Printf("DATE\t\t%s (%s)\n", resp.Selection.Date, resp.Selection.Source)
			}
			if resp.Day != nil {
				printDay(cmd, *resp.Day)
			}
			printResult(cmd, resp.Result)
			return nil
		},
	}
	predictCmd.Flags().StringVar(&date, "date", "", "forecast date (YYYY-MM-DD)")

	form := map[string]*string{}
	formCmd := &cobra.Command{
		Use:   "predict-form",
		Short: "Predict from readings entered by hand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make(map[string]string, len(form))
			for name, value := range form {
				if *value != "" {
					fields[name] = *value
				}
			}
			resp, err := client.PredictForm(cmd.Context(), fields)
			if err != nil {
				return err
			}
			printResult(cmd, resp.Result)
			return nil
		},
	}
	for _, name := range []string{"temperature", "humidity", "wind", "wind_speed", "ammonia", "phosphate", "bod", "date"} {
		form[name] = formCmd.Flags().String(name, "", name)
	}

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded predictions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := client.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, rec := range records {
				cmd.Printf("%s\t%s\t%-8s\t%s\t%s\n", rec.CreatedAt.Format(time.RFC3339), rec.ID, rec.Origin, orDash(rec.Date), summarize(rec.Result))
			}
			return nil
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 0, "maximum records to list")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export prediction history as CSV to object storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Export(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("KEY\t\t%s\nROWS\t\t%d\nSIZE\t\t%d\n", resp.Object.Key, resp.Rows, resp.Object.Size)
			if resp.Truncated {
				cmd.Println("NOTE\t\tolder history exceeded the export row cap and was left out")
			}
			return nil
		},
	}

	root.AddCommand(forecastCmd, predictCmd, formCmd, historyCmd, exportCmd)
	return root
}

func printDay(cmd *cobra.Command, day prediction.DayView) {
	cmd.Printf("CONDITION\t%s\n", day.Condition)
	cmd.Printf("TEMP\t\t%.1f / %.1f\n", day.TempMax, day.TempMin)
	cmd.Printf("HUMIDITY\t%.0f / %.0f\n", day.HumidityMax, day.HumidityMin)
	cmd.Printf("WIND\t\t%.1f @ %.0f\n", day.WindSpeedMax, day.WindDirectionDominant)
}

func printResult(cmd *cobra.Command, res prediction.Result) {
	switch res.Kind {
	case prediction.KindSingle:
		cmd.Printf("PREDICTION\t%s\n", formatValue(res.Single.Prediction))
		cmd.Printf("STATUS\t\t%s\n", res.Single.Status)
	case prediction.KindMultiStation:
		names := make([]string, 0, len(res.MultiStation.Stations))
		for name := range res.MultiStation.Stations {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cmd.Printf("%s\t%s\n", name, formatValue(res.MultiStation.Stations[name].Prediction))
		}
		cmd.Printf("STATUS\t\t%s\n", res.MultiStation.Status)
	default:
		if res.Failure != nil {
			cmd.Printf("ERROR\t\t%s\n", res.Failure.Message)
		}
	}
}

func summarize(res prediction.Result) string {
	switch res.Kind {
	case prediction.KindSingle:
		if res.Single != nil {
			return formatValue(res.Single.Prediction)
		}
	case prediction.KindMultiStation:
		if res.MultiStation != nil {
			return strconv.Itoa(len(res.MultiStation.Stations)) + " stations"
		}
	}
	return string(res.Kind)
}

func formatValue(v *float64) string {
	if v == nil {
		return "unavailable"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
