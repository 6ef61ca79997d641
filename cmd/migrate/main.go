package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/money-manager/internal/config"
	"github.com/dvloznov/money-manager/internal/logger"
	"github.com/dvloznov/money-manager/migrations"
	"github.com/joho/godotenv"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath    = flag.String("config", os.Getenv("MM_CONFIG"), "Path to YAML config file")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "", "Read migrations from this directory instead of the embedded set")
		dryRun        = flag.Bool("dry-run", false, "List pending migrations without applying them")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	if cfg.GCP.ProjectID == "" {
		log.Fatal().Msg("gcp.project_id (or GCP_PROJECT_ID) is required")
	}

	var (
		fsys fs.FS = migrations.BigQuery
		dir        = migrations.BigQueryDir
	)
	if *migrationsDir != "" {
		fsys, dir = os.DirFS(*migrationsDir), "."
	}

	all, skipped, err := loadMigrations(fsys, dir, map[string]string{
		"PROJECT_ID":    cfg.GCP.ProjectID,
		"DATASET_ID":    cfg.BigQuery.Dataset,
		"ROWS_TABLE":    cfg.BigQuery.RowsTable,
		"PERIODS_TABLE": cfg.BigQuery.PeriodsTable,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	for _, name := range skipped {
		log.Warn().Str("file", name).Msg("Skipping file with invalid name")
	}
	log.Info().Int("count", len(all)).Msg("Found migration files")

	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.GCP.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCP.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.GCP.ProjectID, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	m := &migrator{
		client:    client,
		table:     fmt.Sprintf("`%s.%s.schema_migrations`", cfg.GCP.ProjectID, cfg.BigQuery.Dataset),
		appliedBy: *appliedBy,
	}

	applied, err := m.applied(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get applied migrations")
	}

	pending, err := pendingMigrations(all, applied)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration history does not match files")
	}
	if len(pending) == 0 {
		log.Info().Msg("No new migrations to apply. Dataset is up to date.")
		return
	}

	for _, mig := range pending {
		mlog := log.With().Int("version", mig.Version).Str("name", mig.Name).Logger()
		if *dryRun {
			mlog.Info().Msg("Pending")
			continue
		}
		mlog.Info().Msg("Applying")
		if err := m.run(ctx, mig.SQL, nil); err != nil {
			mlog.Fatal().Err(err).Msg("Failed to execute migration")
		}
		if err := m.record(ctx, mig); err != nil {
			mlog.Fatal().Err(err).Msg("Failed to record migration")
		}
	}

	if !*dryRun {
		log.Info().Int("applied", len(pending)).Msg("Migrations applied")
	}
}

type migrator struct {
	client    *bigquery.Client
	table     string
	appliedBy string
}

// applied lists recorded migrations. A missing schema_migrations table means
// nothing has run yet.
func (m *migrator) applied(ctx context.Context) ([]AppliedMigration, error) {
	q := m.client.Query(`SELECT version, name, applied_at, checksum, applied_by FROM ` + m.table + ` ORDER BY version ASC`)
	it, err := q.Read(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "Not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("applied: reading %s: %w", m.table, err)
	}

	var out []AppliedMigration
	for {
		var row struct {
			Version   int64                  `bigquery:"version"`
			Name      string                 `bigquery:"name"`
			AppliedAt bigquery.NullTimestamp `bigquery:"applied_at"`
			Checksum  bigquery.NullString    `bigquery:"checksum"`
			AppliedBy bigquery.NullString    `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("applied: iterating results: %w", err)
		}
		out = append(out, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt.Timestamp,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return out, nil
}

func (m *migrator) record(ctx context.Context, mig Migration) error {
	return m.run(ctx, `INSERT INTO `+m.table+`
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)`,
		[]bigquery.QueryParameter{
			{Name: "version", Value: mig.Version},
			{Name: "name", Value: mig.Name},
			{Name: "checksum", Value: mig.Checksum},
			{Name: "applied_by", Value: m.appliedBy},
		})
}

func (m *migrator) run(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := m.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run: running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("run: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("run: job error: %w", err)
	}
	return nil
}
