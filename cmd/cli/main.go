package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dvloznov/money-manager/internal/classifier"
	"github.com/dvloznov/money-manager/internal/config"
	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/dvloznov/money-manager/internal/export"
	"github.com/dvloznov/money-manager/internal/gcsstore"
	infraBQ "github.com/dvloznov/money-manager/internal/infra/bigquery"
	"github.com/dvloznov/money-manager/internal/logger"
	"github.com/dvloznov/money-manager/internal/pipeline"
	"github.com/dvloznov/money-manager/internal/render"
	"github.com/dvloznov/money-manager/internal/tabular"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "classify":
		runClassify(os.Args[2:])
	case "train":
		runTrain(os.Args[2:])
	case "inspect-model":
		runInspectModel(os.Args[2:])
	case "history":
		runHistory(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Money Manager CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  classify        Classify a transaction CSV and print the dashboard")
	fmt.Println("  train           Train a Bayes model from a labelled CSV")
	fmt.Println("  inspect-model   Show the classes of a trained model")
	fmt.Println("  history         Show stored monthly volume for a run")
	fmt.Println("  help            Show this help message")
	fmt.Println("\nInputs and outputs may be local paths or gs:// URIs.")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// setup loads configuration and builds the logger every command uses.
func setup(configPath string) (*config.Config, zerolog.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	return cfg, log
}

func runClassify(args []string) {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("MM_CONFIG"), "Path to YAML config file")
	input := fs.String("input", "", "Transaction CSV (path or gs:// URI)")
	out := fs.String("out", "", "Write an export to this path or gs:// URI ('-' for stdout)")
	section := fs.String("section", "rows", "Export section: rows, kpi, categories or periods")
	preview := fs.Int("preview", 10, "Rows shown in the predictions preview (-1 for all)")
	toBQ := fs.Bool("bq", false, "Store the report in BigQuery")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	fs.Parse(args)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: cli classify -input PATH [-out PATH] [-section NAME] [-bq]")
		os.Exit(2)
	}
	write, ok := export.Sections[*section]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown section: %s\n", *section)
		os.Exit(2)
	}
	if *noColor {
		color.NoColor = true
	}

	cfg, log := setup(*configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := gcsstore.New(cfg.GCP.CredentialsFile)

	c, err := classifier.Open(ctx, cfg.Classifier, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load classifier")
	}

	data, err := store.ReadSource(ctx, *input)
	if err != nil {
		log.Fatal().Err(err).Str("input", *input).Msg("Failed to read input")
	}

	report, err := pipeline.NewRunner(c, cfg).RunCSV(ctx, bytes.NewReader(data))
	if err != nil {
		log.Fatal().Err(err).Msg("Classification failed")
	}

	if *out != "-" {
		render.Summary(os.Stdout, report, render.Options{PreviewRows: *preview})
	}

	if *out != "" {
		var buf bytes.Buffer
		if err := write(&buf, report); err != nil {
			log.Fatal().Err(err).Str("section", *section).Msg("Failed to build export")
		}
		if *out == "-" {
			os.Stdout.Write(buf.Bytes())
		} else {
			if err := store.WriteTarget(ctx, *out, buf.Bytes(), export.ContentType); err != nil {
				log.Fatal().Err(err).Str("out", *out).Msg("Failed to write export")
			}
			log.Info().Str("out", *out).Str("section", *section).Msg("Export written")
		}
	}

	if *toBQ {
		repo, err := infraBQ.NewBigQueryReportRepository(ctx, cfg.GCP, cfg.BigQuery)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create report repository")
		}
		defer repo.Close()

		if err := repo.VerifyTables(ctx); err != nil {
			log.Fatal().Err(err).Msg("BigQuery tables are not ready")
		}
		if err := repo.InsertReport(ctx, report, *input); err != nil {
			log.Fatal().Err(err).Msg("Failed to store report")
		}
		fmt.Fprintf(os.Stderr, "Stored run %s in BigQuery dataset %s\n", report.RunID(), cfg.BigQuery.Dataset)
	}
}

func runTrain(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("MM_CONFIG"), "Path to YAML config file")
	input := fs.String("input", "", "Labelled CSV (path or gs:// URI)")
	noteCol := fs.String("note-column", "Note", "Column holding the transaction note")
	labelCol := fs.String("label-column", "Type", "Column holding Income/Expense")
	out := fs.String("out", "", "Model output path or gs:// URI (defaults to classifier.model_path)")
	tfIdf := fs.Bool("tfidf", false, "Weight terms by TF-IDF")
	fs.Parse(args)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: cli train -input PATH [-out PATH] [-tfidf]")
		os.Exit(2)
	}

	cfg, log := setup(*configPath)
	if *out == "" {
		*out = cfg.Classifier.ModelPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := gcsstore.New(cfg.GCP.CredentialsFile)

	data, err := store.ReadSource(ctx, *input)
	if err != nil {
		log.Fatal().Err(err).Str("input", *input).Msg("Failed to read input")
	}
	table, err := tabular.ReadCSV(bytes.NewReader(data))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse training data")
	}

	set, err := classifier.ExamplesFromTable(table, *noteCol, *labelCol)
	if err != nil {
		log.Fatal().Err(err).Msg("Unusable training data")
	}
	for _, w := range set.Skipped {
		log.Warn().Int("row", w.Row).Str("column", w.Column).Str("value", w.Value).Msg(w.Reason)
	}

	model, err := classifier.Encode(classifier.Train(set.Examples, *tfIdf))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode model")
	}
	if err := store.WriteTarget(ctx, *out, model, "application/octet-stream"); err != nil {
		log.Fatal().Err(err).Str("out", *out).Msg("Failed to write model")
	}

	counts := set.Counts()
	log.Info().
		Str("out", *out).
		Int("income_examples", counts[domain.CategoryIncome]).
		Int("expense_examples", counts[domain.CategoryExpense]).
		Int("skipped", len(set.Skipped)).
		Bool("tfidf", *tfIdf).
		Msg("Model trained")
}

func runInspectModel(args []string) {
	fs := flag.NewFlagSet("inspect-model", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("MM_CONFIG"), "Path to YAML config file")
	model := fs.String("model", "", "Model path or gs:// URI (defaults to classifier.model_path)")
	fs.Parse(args)

	cfg, log := setup(*configPath)
	if *model == "" {
		*model = cfg.Classifier.ModelPath
	}

	ctx := logger.WithContext(context.Background(), log)
	store := gcsstore.New(cfg.GCP.CredentialsFile)

	data, err := store.ReadSource(ctx, *model)
	if err != nil {
		log.Fatal().Err(err).Str("model", *model).Msg("Failed to read model")
	}
	b, err := classifier.LoadBayes(bytes.NewReader(data), *model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load model")
	}

	classes := b.Classes()
	sort.Strings(classes)
	fmt.Printf("Model:   %s\n", b.Source())
	fmt.Printf("Size:    %d bytes\n", len(data))
	fmt.Printf("Classes: %v\n", classes)
}

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("MM_CONFIG"), "Path to YAML config file")
	runID := fs.String("run", "", "Run ID printed by 'classify -bq'")
	fs.Parse(args)

	if *runID == "" {
		fmt.Fprintln(os.Stderr, "Usage: cli history -run ID")
		os.Exit(2)
	}

	cfg, log := setup(*configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewBigQueryReportRepository(ctx, cfg.GCP, cfg.BigQuery)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create report repository")
	}
	defer repo.Close()

	rows, err := repo.ListPeriodCounts(ctx, *runID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list period counts")
	}
	if len(rows) == 0 {
		fmt.Printf("No dated rows stored for run %s\n", *runID)
		return
	}

	fmt.Printf("%-8s %-8s %8s\n", "period", "category", "count")
	for _, r := range rows {
		fmt.Printf("%-8s %-8s %8d\n", r.Period, r.Category, r.TxCount)
	}
}
