package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/anzecare/anzeguard/api/internal/assessment/application"
	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
	"github.com/anzecare/anzeguard/api/internal/config"
	mongodoc "github.com/anzecare/anzeguard/api/internal/infrastructure/mongo"
	"github.com/anzecare/anzeguard/api/internal/logger"
	"github.com/anzecare/anzeguard/api/internal/recordfile"
)

type seedOptions struct {
	in        string
	envFile   string
	companyID string
	projectID string
	planned   string
	approve   bool
}

// seedConfig is the subset of the API configuration the seeder needs.
type seedConfig struct {
	Mongo config.MongoConfig `yaml:"mongo"`
	Log   config.LogConfig   `yaml:"log"`
}

func main() {
	opts := parseFlags()

	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, "console", "anzeguard-seed")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	runErr := run(context.Background(), opts, cfg, zlog)
	_ = zlog.Sync()
	if runErr != nil {
		zlog.Fatal("Seeding failed", zap.Error(runErr))
	}
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.in, "in", "", "record file (YAML or JSON); empty seeds a demo record")
	flag.StringVar(&opts.envFile, "env-file", "", "optional .env or YAML file with the MONGO_* settings")
	flag.StringVar(&opts.companyID, "company", "demo", "company identifier")
	flag.StringVar(&opts.projectID, "project", "2025_01", "project identifier")
	flag.StringVar(&opts.planned, "planned", "", "comma-separated programs whose written plan exists (overwork,ergo,violence,maternal)")
	flag.BoolVar(&opts.approve, "approve", false, "mark the generated plan as approved")
	flag.Parse()
	return opts
}

// loadConfig reads path when given, otherwise the environment only.
// Priority: ENV > file > defaults.
func loadConfig(path string) (*seedConfig, error) {
	var cfg seedConfig

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("seed config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("seed config: read %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("seed config: read env: %w", err)
	}
	return &cfg, nil
}

func run(ctx context.Context, opts seedOptions, cfg *seedConfig, zlog *zap.Logger) error {
	key, err := application.NewProjectKey(opts.companyID, opts.projectID)
	if err != nil {
		return err
	}
	programs, err := parsePrograms(opts.planned)
	if err != nil {
		return err
	}
	record, err := loadRecord(opts.in, programs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	repo := mongodoc.NewProjectRepository(client.Database(cfg.Mongo.Database), cfg.Mongo.ProjectCollection)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	service := application.NewProjectService(repo, application.NopGuard{})
	result, err := service.Save(ctx, key, record)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if opts.approve {
		if err := service.SetApproval(ctx, key, domain.ApprovalApproved); err != nil {
			return fmt.Errorf("approve %s: %w", key, err)
		}
	}

	zlog.Info("Seeded project",
		zap.String("project", key.String()),
		zap.String("company", record.CompanyName),
		zap.Int("tasksGenerated", result.TasksGenerated),
		zap.Bool("approved", opts.approve),
	)
	return nil
}

func parsePrograms(raw string) ([]domain.Program, error) {
	var programs []domain.Program
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		program, err := domain.NewProgram(part)
		if err != nil {
			return nil, err
		}
		programs = append(programs, program)
	}
	return programs, nil
}

// loadRecord reads path or builds the demo record, then marks programs as planned.
func loadRecord(path string, planned []domain.Program) (domain.Record, error) {
	record := demoRecord(time.Now())
	if path != "" {
		var err error
		if record, err = recordfile.LoadFile(path); err != nil {
			return domain.Record{}, err
		}
	}
	for _, program := range planned {
		tracker := record.Plans.Get(program)
		tracker.P = true
		record = record.WithPlan(program, tracker)
	}
	return record, nil
}

// demoRecord is a plausible first visit: noisy shop floor, no written programs yet.
func demoRecord(now time.Time) domain.Record {
	r := domain.NewRecord(now)
	identity := r.Identity
	identity.CompanyName = "安澤示範工廠"
	identity.NurseName = "王護理師"
	identity.AccompanyingName = "陳先生"
	identity.AccompanyingRole = domain.RoleHR
	identity.EmpMale, identity.EmpFemale, identity.EmpTotal = "120", "45", "165"
	r = r.WithIdentity(identity)

	r.Hazards.Physical = true
	r.Hazards.PhysicalNoise = true
	r.Hazards.PhysicalNote = "沖床區噪音"
	r.Hazards.Chemical = true
	r.Admin.HasSDS = domain.PresenceYes
	r = r.WithSDSAdded("甲苯").WithSDSAdded("異丙醇")
	r.Plans.Overwork.Priority = domain.PriorityMid
	return r
}
