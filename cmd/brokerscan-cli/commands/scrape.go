package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"brokerscan/lib/configutil"
	"brokerscan/lib/pacing"
	"brokerscan/lib/restyutil"
	"brokerscan/lib/scrapers/brokers"
	"brokerscan/lib/serviceutil"
	"brokerscan/lib/sqliteutil"
	"brokerscan/lib/telemetry"
	"brokerscan/services/harvest"
	"brokerscan/services/harvest/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	// may be left empty in favor of the BROKERS_BEARER_TOKEN env var
	BearerToken  string                `json:"bearer_token"`
	BaseUrl      string                `json:"base_url"`
	Output       string                `json:"output"`
	CheckpointDb string                `json:"checkpoint_db"`
	Preset       string                `json:"preset"`
	Delays       *pacing.Config        `json:"delays"`
	Streets      []harvest.StreetRange `json:"streets"`
}

var scrapeConfig *string

func init() {
	scrapeConfig = scrapeCmd.Flags().String(
		"config", "config.json5", "The scrape config to execute.")
	rootCmd.AddCommand(scrapeCmd)
}

func resolvePacing(cfg Config) (pacing.Config, error) {
	if cfg.Delays != nil {
		return *cfg.Delays, cfg.Delays.Validate()
	}
	name := cfg.Preset
	if name == "" {
		name = "balanced"
	}
	preset, ok := pacing.Presets[name]
	if !ok {
		return pacing.Config{}, fmt.Errorf("unknown pacing preset: %q", name)
	}
	return preset, nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--config <path/to/config.json5>]",
	Short: "Scrapes mobile contacts for the configured street ranges into a CSV file.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config](*scrapeConfig)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		token := cfg.BearerToken
		if token == "" {
			token = os.Getenv("BROKERS_BEARER_TOKEN")
		}
		delays, err := resolvePacing(cfg)
		if err != nil {
			serviceutil.Fatal("failed to resolve pacing delays", err)
		}
		output := cfg.Output
		if output == "" {
			output = "contacts.csv"
		}

		if *verbose {
			err := telemetry.SetupFromEnv(cmd.Context(), "brokerscan-cli")
			if err != nil && !os.IsNotExist(err) {
				serviceutil.Fatal("failed to setup telemetry", err)
			}
			defer telemetry.Shutdown(context.Background())
			telemetry.InstrumentPerfStats(cmd.Context())
			brokers.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/brokers"))
		}

		client, err := brokers.NewClient(brokers.ClientOptions{
			BaseUrl:     cfg.BaseUrl,
			BearerToken: token,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize platform client", err)
		}

		var store *db.Queries
		if cfg.CheckpointDb != "" {
			checkpointDb, err := sqliteutil.OpenDB(db.Schema, cfg.CheckpointDb)
			if err != nil {
				serviceutil.Fatal("failed to open checkpoint db", err)
			}
			defer checkpointDb.Close()
			store = db.New(checkpointDb)
		}

		sink, err := harvest.NewCsvSink(output)
		if err != nil {
			serviceutil.Fatal("failed to open output file", err)
		}
		defer sink.Close()

		service, err := harvest.NewService(client, sink, harvest.Options{
			Streets:     cfg.Streets,
			Pacing:      delays,
			Checkpoints: store,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize harvest service", err)
		}

		t1 := time.Now()
		summary, runErr := service.Run(cmd.Context())
		t2 := time.Now()

		renderSummary(summary, t2.Sub(t1))
		if runErr != nil {
			serviceutil.Fatal("scrape aborted", runErr)
		}
	},
}

func renderSummary(summary harvest.Summary, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Run id", summary.RunId},
		{"Streets", summary.Streets},
		{"Windows scraped", summary.Windows},
		{"Windows skipped", summary.SkippedWindows},
		{"Residents seen", summary.Residents},
		{"Residents skipped", summary.SkippedResidents},
		{"Raw contacts", summary.RawContacts},
		{"Mobile contacts", summary.MobileContacts},
		{"Rows written", summary.RowsWritten},
		{"Duplicates dropped", summary.DuplicateRows},
		{"Invalid phones dropped", summary.InvalidRows},
		{"Elapsed", elapsed.Round(time.Second).String()},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
