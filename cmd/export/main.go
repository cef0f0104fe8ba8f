package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
	"github.com/anzecare/anzeguard/api/internal/config"
	"github.com/anzecare/anzeguard/api/internal/logger"
	"github.com/anzecare/anzeguard/api/internal/recordfile"
	"github.com/anzecare/anzeguard/api/internal/report/pdf"
	"github.com/anzecare/anzeguard/api/internal/report/xlsx"
)

type exportOptions struct {
	in          string
	outDir      string
	goals       xlsx.Goals
	approved    bool
	fontPath    string
	fontURL     string
	fontTimeout time.Duration
	timezone    string
	skipPDF     bool
	skipXLSX    bool
}

// exportConfig supplies the flag defaults from the same variables the API reads.
type exportConfig struct {
	Report   config.ReportConfig `yaml:"report"`
	Log      config.LogConfig    `yaml:"log"`
	Timezone string              `yaml:"timezone" env:"TIMEZONE" env-default:"Asia/Taipei"`
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	opts := parseFlags(cfg)

	zlog, err := logger.New(cfg.Log.Level, "console", "anzeguard-export")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	runErr := run(context.Background(), opts, zlog)
	_ = zlog.Sync()
	if runErr != nil {
		zlog.Fatal("Export failed", zap.Error(runErr))
	}
}

func loadConfig() (*exportConfig, error) {
	var cfg exportConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("export config: read env: %w", err)
	}
	return &cfg, nil
}

func parseFlags(cfg *exportConfig) exportOptions {
	opts := exportOptions{fontTimeout: cfg.Report.FontTimeout}
	flag.StringVar(&opts.in, "in", "", "record file (YAML or JSON, - for stdin)")
	flag.StringVar(&opts.outDir, "out", ".", "output directory")
	flag.StringVar(&opts.goals.ShortTerm, "goals-short", "", "short-term goal (1-3 months)")
	flag.StringVar(&opts.goals.MidTerm, "goals-mid", "", "mid-term goal (1 year)")
	flag.StringVar(&opts.goals.LongTerm, "goals-long", "", "long-term goal (3 years)")
	flag.BoolVar(&opts.approved, "approved", false, "render the plan as approved")
	flag.StringVar(&opts.fontPath, "font", cfg.Report.FontPath, "CJK TrueType font file for the report")
	flag.StringVar(&opts.fontURL, "font-url", cfg.Report.FontURL, "CJK TrueType font URL, used when -font is empty")
	flag.StringVar(&opts.timezone, "tz", cfg.Timezone, "time zone of the plan print date")
	flag.BoolVar(&opts.skipPDF, "no-report", false, "skip the PDF report")
	flag.BoolVar(&opts.skipXLSX, "no-plan", false, "skip the plan workbook")
	flag.Parse()

	if opts.in == "" {
		log.Fatal("-in is required")
	}
	return opts
}

func run(ctx context.Context, opts exportOptions, zlog *zap.Logger) error {
	record, err := recordfile.LoadFile(opts.in)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", opts.outDir, err)
	}

	if !opts.skipPDF {
		composer := pdf.NewComposer(fontLoader(opts), zlog.Named("report"))
		result, err := composer.Compose(ctx, record)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		for _, warning := range result.Warnings {
			zlog.Warn("Report warning", zap.String("warning", warning))
		}
		path := filepath.Join(opts.outDir, pdf.ReportFileName(record.CompanyName))
		if err := os.WriteFile(path, result.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		zlog.Info("Report written", zap.String("path", path), zap.Int("pages", result.Pages))
	}

	if !opts.skipXLSX {
		approval := domain.ApprovalDraft
		if opts.approved {
			approval = domain.ApprovalApproved
		}
		data, err := xlsx.Compose(record, opts.goals, approval, xlsx.Options{Location: loc})
		if err != nil {
			return fmt.Errorf("render plan: %w", err)
		}
		path := filepath.Join(opts.outDir, xlsx.PlanFileName(record.CompanyName))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		zlog.Info("Plan written", zap.String("path", path), zap.Int("tasks", len(domain.Derive(record))))
	}
	return nil
}

func fontLoader(opts exportOptions) pdf.FontLoader {
	switch {
	case opts.fontPath != "":
		return pdf.FileFontLoader{Path: opts.fontPath}
	case opts.fontURL != "":
		return pdf.NewHTTPFontLoader(opts.fontURL, opts.fontTimeout)
	}
	return nil
}
