package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"yashubustudio/namematch/internal/config"
	"yashubustudio/namematch/internal/logging"
	"yashubustudio/namematch/matcher"
)

type cliOptions struct {
	configPath    string
	employeesPath string
	usernamesPath string
	outputPath    string
	outputDir     string
	format        string
	stdout        bool
	env           *config.EnvLoader
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("namematch-cli: %v", err)
	}
	if _, err := opts.env.Load(); err != nil {
		log.Fatalf("namematch-cli: %v", err)
	}
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("namematch-cli: %v", err)
	}
	logger, err := logging.NewWithWriter(os.Stderr, settings.Environment, settings.LogLevel)
	if err != nil {
		log.Fatalf("namematch-cli: %v", err)
	}
	if opts.configPath == "" {
		opts.configPath = settings.ConfigPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (cliOptions, error) {
	var opts cliOptions
	fs.StringVar(&opts.configPath, "config", "", "Path to the scoring config.json (default: $NAMEMATCH_CONFIG or ./config.json)")
	fs.StringVar(&opts.employeesPath, "employees", "", "CSV/TSV/XLSX file containing the employee catalog")
	fs.StringVar(&opts.usernamesPath, "usernames", "", "CSV/TSV/XLSX/text file containing usernames to resolve")
	fs.StringVar(&opts.outputPath, "output", "", "Report file to write (default uses --output-dir/username_matches_*.csv)")
	fs.StringVar(&opts.outputDir, "output-dir", "csv", "Directory where reports are written when --output is omitted")
	fs.StringVar(&opts.format, "format", "", "Report format: csv or xlsx (default: from --output extension, else csv)")
	fs.BoolVar(&opts.stdout, "stdout", false, "Print a result preview to STDOUT")
	opts.env = config.AddEnvFlag(fs, ".env")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s --employees FILE --usernames FILE [options]\n\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.employeesPath = strings.TrimSpace(opts.employeesPath)
	opts.usernamesPath = strings.TrimSpace(opts.usernamesPath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.outputDir = strings.TrimSpace(opts.outputDir)
	opts.format = strings.ToLower(strings.TrimSpace(opts.format))

	if opts.employeesPath == "" {
		fs.Usage()
		return opts, errors.New("missing required --employees file")
	}
	if opts.usernamesPath == "" {
		fs.Usage()
		return opts, errors.New("missing required --usernames file")
	}
	if opts.format == "" {
		opts.format = "csv"
		if strings.EqualFold(filepath.Ext(opts.outputPath), ".xlsx") {
			opts.format = "xlsx"
		}
	}
	if opts.format != "csv" && opts.format != "xlsx" {
		return opts, fmt.Errorf("unsupported --format %q", opts.format)
	}
	return opts, nil
}

func run(ctx context.Context, opts cliOptions, logger zerolog.Logger, stdout io.Writer) error {
	cfg, err := matcher.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var engineOpts []matcher.Option
	engineOpts = append(engineOpts, matcher.WithLogger(logger))
	if cfg.Refiner.Enabled {
		handle := matcher.NewModelHandle(matcher.OrtModelLoader(cfg.Refiner), logger)
		defer handle.Close()
		engineOpts = append(engineOpts, matcher.WithRefiner(matcher.NewRefiner(handle)))
	}

	employees, err := matcher.ReadTable(opts.employeesPath)
	if err != nil {
		return fmt.Errorf("read employee catalog: %w", err)
	}
	usernameTable, err := matcher.ReadTable(opts.usernamesPath)
	if err != nil {
		return fmt.Errorf("read usernames: %w", err)
	}
	usernames, err := matcher.ParseUsernames(usernameTable, cfg.Columns)
	if err != nil {
		return fmt.Errorf("parse usernames: %w", err)
	}

	results, err := matcher.Run(ctx, employees, usernames, cfg, engineOpts...)
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir, opts.format)
	if err != nil {
		return err
	}
	if err := writeReport(outputPath, opts.format, matcher.BuildReport(results)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "照合結果を %s に保存しました\n", outputPath)

	if opts.stdout {
		printSummary(stdout, results)
	}
	return nil
}

func resolveOutputPath(path, dir, format string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("username_matches_%s.%s", time.Now().Format("20060102150405"), format)
	return filepath.Join(absDir, filename), nil
}

func writeReport(path, format string, rows []matcher.ReportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if format == "xlsx" {
		err = matcher.WriteReportXLSX(f, rows)
	} else {
		err = matcher.WriteReportCSV(f, rows)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, results []matcher.Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "==== 照合結果プレビュー ====")
	for i, res := range results {
		fmt.Fprintf(w, "%d. %s", i+1, res.Username)
		if res.Refined {
			fmt.Fprint(w, " (モデルで再順位付け)")
		} else if res.Ambiguous {
			fmt.Fprint(w, " (僅差)")
		}
		fmt.Fprintln(w)
		for _, c := range res.Candidates {
			if c.NoMatch() {
				fmt.Fprintln(w, "    該当なし")
				continue
			}
			fmt.Fprintf(w, "    [%d] %s %s %s (%s)\n", c.Rank, c.Employee.EmpID, c.Employee.FullName, c.ScoreText(), c.Label)
		}
	}
}
