package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"sales-insights/pkg/config"
	"sales-insights/pkg/database"
	"sales-insights/pkg/ingest"
	"sales-insights/pkg/logging"
	"sales-insights/pkg/pipeline"
	"sales-insights/pkg/report"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load() // .env optionnel

	configPath := flag.String("config", "", "Fichier YAML (défaut: $XDG_CONFIG_HOME/sales-insights/config.yaml)")
	sales := flag.String("sales", "", "CSV des ventes (sinon lecture depuis --dsn)")
	customers := flag.String("customers", "", "CSV des clients (optionnel)")
	products := flag.String("products", "", "CSV des produits (optionnel)")
	dsn := flag.String("dsn", os.Getenv("SALES_INSIGHTS_DSN"), "DSN mysql://, mariadb://, postgres://, sqlite://")
	refDate := flag.String("ref-date", "", "Date de référence RFM (YYYY-MM-DD, défaut: aujourd'hui)")
	minValue := flag.Float64("min-value", 0, "Valeur minimale d'une opportunité")
	format := flag.String("format", "", "markdown | json | csv")
	output := flag.String("o", "", "Fichier de sortie (défaut: stdout)")
	exportData := flag.String("export-data", "", "Écrit les ventes normalisées dans ce CSV")
	verbose := flag.Bool("v", false, "Mode verbeux")
	flag.Parse()

	log := logging.New(*verbose)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-value":
			cfg.Opportunities.MinValue = *minValue
		case "format":
			cfg.Output.Format = *format
		case "o":
			cfg.Output.Path = *output
		}
	})
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}
	if *refDate != "" {
		ref, err := time.Parse(time.DateOnly, *refDate)
		if err != nil {
			log.WithError(err).Fatal("ref-date")
		}
		cfg.RFM.ReferenceDate = ref
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	in, err := load(ctx, cfg, *sales, *customers, *products, log)
	if err != nil {
		log.WithError(err).Fatal("chargement")
	}
	if *exportData != "" {
		if err := writeFile(*exportData, func(w io.Writer) error {
			return ingest.WriteTransactionsCSV(w, in.Transactions)
		}); err != nil {
			log.WithError(err).Fatal("export-data")
		}
	}

	var progress io.Writer
	if *verbose {
		progress = os.Stderr
	}
	res, err := pipeline.Run(ctx, in, pipeline.Options{
		Apriori:       cfg.Apriori,
		RFM:           cfg.RFM,
		Opportunities: cfg.Opportunities,
		Progress:      progress,
		Log:           log,
	})
	if err != nil {
		log.WithError(err).Fatal("analyse")
	}

	now := time.Now()
	err = writeFile(cfg.Output.Path, func(w io.Writer) error {
		switch cfg.Output.Format {
		case "json":
			return report.WriteJSON(w, res, now)
		case "csv":
			return ingest.WriteOpportunitiesCSV(w, res.Opportunities)
		}
		return report.WriteMarkdown(w, report.NewWeekly(res, now))
	})
	if err != nil {
		log.WithError(err).Fatal("rapport")
	}
	if cfg.Output.Path != "" {
		log.WithField("path", cfg.Output.Path).Info("rapport enregistré")
	}

	fmt.Fprintln(os.Stderr, report.Terminal(res))
}

// load lit les CSV si --sales est donné, sinon la base.
func load(ctx context.Context, cfg *config.Config, sales, customers, products string, log *logrus.Logger) (pipeline.Input, error) {
	var in pipeline.Input
	if sales != "" {
		txs, err := ingest.LoadTransactionsFile(sales, log)
		if err != nil {
			return in, err
		}
		in.Transactions = txs
		// lookups optionnels : une erreur n'arrête pas l'analyse
		if customers != "" {
			if in.Customers, err = ingest.LoadCustomersFile(customers); err != nil {
				log.WithError(err).Warn("fichier clients ignoré")
			}
		}
		if products != "" {
			if in.Products, err = ingest.LoadProductsFile(products); err != nil {
				log.WithError(err).Warn("fichier produits ignoré")
			}
		}
		return in, nil
	}

	if cfg.Database.DSN == "" {
		return in, fmt.Errorf("ni --sales ni --dsn (SALES_INSIGHTS_DSN)")
	}
	db, dsnUsed, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return in, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	log.WithField("dsn", dsnUsed).Debug("connecté")

	ds, err := database.LoadAll(ctx, db, cfg.Database.Tables, log)
	if err != nil {
		return in, err
	}
	return pipeline.Input{Transactions: ds.Transactions, Customers: ds.Customers, Products: ds.Products}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
