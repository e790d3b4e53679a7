// procurectl runs procurement analyses from the command line.
//
// Usage:
//
//	procurectl analyze --source xlsx --path parts.xlsx --year 2025 --month 6 [--mode full] [--output report.xlsx]
//	procurectl columns --source csv --path parts.csv
//	procurectl part --source csv --path parts.csv --part-number P-100
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"procurement/internal/analysis"
	"procurement/internal/config"
	"procurement/internal/exporter"
	"procurement/internal/infrastructure"
	"procurement/internal/search"
	"procurement/internal/services"
	"procurement/internal/source"
	"procurement/pkg/contracts/domain"
)

var (
	version = config.AppVersion
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	defaults := config.Default()

	return &cli.App{
		Name:    "procurectl",
		Usage:   "Find renegotiation, insourcing and outsourcing opportunities in a parts price sheet",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{config.EnvPrefix + "_LOGGING_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Value:   defaults.Source.Kind,
				Usage:   "Row source (sheets, xlsx, csv)",
				EnvVars: []string{config.EnvPrefix + "_SOURCE_KIND"},
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Path of the xlsx or csv file",
				EnvVars: []string{config.EnvPrefix + "_SOURCE_FILE"},
			},
			&cli.StringFlag{
				Name:  "sheet",
				Usage: "Worksheet of the xlsx file (default: first sheet)",
			},
			&cli.StringFlag{
				Name:    "spreadsheet-id",
				Usage:   "Google Sheets spreadsheet id",
				EnvVars: []string{config.EnvPrefix + "_SHEETS_SPREADSHEET_ID"},
			},
			&cli.StringFlag{
				Name:    "range",
				Value:   defaults.Sheets.Range,
				Usage:   "Google Sheets range",
				EnvVars: []string{config.EnvPrefix + "_SHEETS_RANGE"},
			},
			&cli.StringFlag{
				Name:    "credentials-file",
				Usage:   "Service account JSON for Google Sheets",
				EnvVars: []string{config.EnvPrefix + "_SHEETS_CREDENTIALS_FILE"},
			},
			&cli.IntFlag{
				Name:    "year",
				Value:   defaults.Analysis.TargetYear,
				Usage:   "Target year",
				EnvVars: []string{config.EnvPrefix + "_ANALYSIS_TARGET_YEAR"},
			},
			&cli.IntFlag{
				Name:    "month",
				Value:   defaults.Analysis.TargetMonth,
				Usage:   "Target month (1-12)",
				EnvVars: []string{config.EnvPrefix + "_ANALYSIS_TARGET_MONTH"},
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			columnsCommand(),
			partCommand(),
		},
	}
}

// =============================================================================
// ANALYZE COMMAND
// =============================================================================

func analyzeCommand() *cli.Command {
	defaults := config.Default()

	return &cli.Command{
		Name:  "analyze",
		Usage: "Run an analysis and print or export the opportunities",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Value:   string(domain.AnalysisModeFull),
				Usage:   "Analysis mode (full, insourcing, outsourcing)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Export to a .xlsx or .csv file, or - for CSV on stdout (default: JSON on stdout)",
			},
			&cli.Float64Flag{
				Name:  "deviation-threshold",
				Value: defaults.Analysis.DeviationThreshold,
				Usage: "Percent above the market index that flags a part",
			},
			&cli.Float64Flag{
				Name:  "spike-threshold",
				Value: defaults.Analysis.SpikeThreshold,
				Usage: "Percent month-over-month increase that flags a part",
			},
			&cli.BoolFlag{
				Name:  "search",
				Value: defaults.Search.Enabled,
				Usage: "Look up external suppliers for outsourcing",
			},
			&cli.IntFlag{
				Name:  "max-lookups",
				Usage: "Cap on outsourcing lookups per run (0 = no cap)",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	svc, logger, err := buildService(c)
	if err != nil {
		return err
	}

	result, err := svc.RunAnalysis(c.Context, domain.AnalysisMode(c.String("mode")))
	if err != nil {
		// A configuration failure still carries the failed result
		if result != nil {
			_ = printJSON(c.App.Writer, result)
		}
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "%s\n", result.Summary)

	output := c.String("output")
	if output == "" {
		return printJSON(c.App.Writer, result)
	}
	if err := exporter.Export(output, result, c.App.Writer, logger); err != nil {
		return fmt.Errorf("failed to export result: %w", err)
	}
	if output != exporter.Stdout {
		fmt.Fprintf(c.App.ErrWriter, "Wrote %d opportunities to %s\n", len(result.Opportunities), output)
	}
	return nil
}

// =============================================================================
// COLUMNS COMMAND
// =============================================================================

func columnsCommand() *cli.Command {
	return &cli.Command{
		Name:  "columns",
		Usage: "Show how the source's headers are classified for the target period",
		Action: func(c *cli.Context) error {
			svc, _, err := buildService(c)
			if err != nil {
				return err
			}
			report, err := svc.DescribeColumns(c.Context)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, report)
		},
	}
}

// =============================================================================
// PART COMMAND
// =============================================================================

func partCommand() *cli.Command {
	return &cli.Command{
		Name:  "part",
		Usage: "Print the raw row of one part",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "part-number",
				Aliases:  []string{"n"},
				Usage:    "Part number to look up (case-insensitive)",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			svc, _, err := buildService(c)
			if err != nil {
				return err
			}
			row, err := svc.GetPart(c.Context, c.String("part-number"))
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, row)
		},
	}
}

// buildConfig overlays the command-line flags on the defaults
func buildConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	cfg.Logging.Level = c.String("log-level")
	cfg.Source.Kind = c.String("source")
	cfg.Source.Path = c.String("path")
	cfg.Source.SheetName = c.String("sheet")
	cfg.Sheets.SpreadsheetID = c.String("spreadsheet-id")
	cfg.Sheets.Range = c.String("range")
	cfg.Sheets.CredentialsFile = c.String("credentials-file")
	cfg.Sheets.CredentialsJSON = os.Getenv(config.EnvPrefix + "_SHEETS_CREDENTIALS_JSON")
	cfg.Analysis.TargetYear = c.Int("year")
	cfg.Analysis.TargetMonth = c.Int("month")

	// Only analyze defines these
	if c.IsSet("deviation-threshold") {
		cfg.Analysis.DeviationThreshold = c.Float64("deviation-threshold")
	}
	if c.IsSet("spike-threshold") {
		cfg.Analysis.SpikeThreshold = c.Float64("spike-threshold")
	}
	if c.IsSet("search") {
		cfg.Search.Enabled = c.Bool("search")
	}
	if c.IsSet("max-lookups") {
		cfg.Analysis.MaxOutsourcingLookups = c.Int("max-lookups")
	}

	if err := cfg.Analysis.Validate(); err != nil {
		return nil, err
	}
	if (cfg.Source.Kind == config.SourceXLSX || cfg.Source.Kind == config.SourceCSV) && cfg.Source.Path == "" {
		return nil, errors.New("--path is required for xlsx and csv sources")
	}
	return cfg, nil
}

// buildService wires the same collaborators the HTTP server uses
func buildService(c *cli.Context) (*services.AnalysisService, *slog.Logger, error) {
	cfg, err := buildConfig(c)
	if err != nil {
		return nil, nil, err
	}

	logger := infrastructure.NewLogger(c.App.ErrWriter, cfg.Logging.Level)

	src, err := source.New(c.Context, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create row source: %w", err)
	}

	engine := analysis.NewEngine(
		analysis.Options{
			Target: domain.Period{Year: cfg.Analysis.TargetYear, Month: cfg.Analysis.TargetMonth},
			Thresholds: analysis.Thresholds{
				Deviation: cfg.Analysis.DeviationThreshold,
				Spike:     cfg.Analysis.SpikeThreshold,
			},
			MaxLookups: cfg.Analysis.MaxOutsourcingLookups,
		},
		analysis.WithLookup(search.NewFromConfig(cfg.Search, logger, nil)),
		analysis.WithLogger(logger),
	)

	return services.NewAnalysisService(src, engine, logger), logger, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
