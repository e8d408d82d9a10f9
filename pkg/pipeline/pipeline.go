package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"sales-insights/pkg/apriori"
	"sales-insights/pkg/ingest"
	"sales-insights/pkg/logging"
	"sales-insights/pkg/models"
	"sales-insights/pkg/opportunity"
	"sales-insights/pkg/rfm"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// Input : les lookups clients/produits sont optionnels.
type Input struct {
	Transactions []models.Transaction
	Customers    []models.Customer
	Products     []models.Product
}

type Options struct {
	Apriori       models.AprioriConfig
	RFM           models.RFMConfig
	Opportunities models.OpportunityConfig
	// Reference à zéro = RFM.ReferenceDate, puis maintenant.
	Reference time.Time
	// Progress reçoit la barre de progression ; nil = pas de barre.
	Progress io.Writer
	Log      logrus.FieldLogger
}

// DefaultOptions : seuils par défaut de chaque moteur.
func DefaultOptions() Options {
	return Options{
		Apriori:       models.DefaultAprioriConfig(),
		RFM:           models.DefaultRFMConfig(),
		Opportunities: models.DefaultOpportunityConfig(),
	}
}

type Result struct {
	Data          ingest.DataSummary      `json:"data"`
	Rules         []models.Rule           `json:"rules"`
	RuleSummary   apriori.RuleSummary     `json:"rule_summary"`
	Segments      []models.SegmentSummary `json:"segments"`
	Insights      rfm.Insights            `json:"insights"`
	Opportunities []models.Opportunity    `json:"opportunities"`
	Summary       opportunity.Summary     `json:"summary"`
	RFM           *rfm.Result             `json:"-"`
}

const stages = 3

// Run enchaîne règles → scoring RFM → opportunités. Les seuils sont validés avant tout
// calcul ; une annulation du contexte est vérifiée entre les étapes.
func Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	log := logging.OrDiscard(opts.Log)

	miner, err := apriori.New(opts.Apriori, log)
	if err != nil {
		return nil, err
	}
	scorer, err := rfm.New(opts.RFM, log)
	if err != nil {
		return nil, err
	}
	engine, err := opportunity.New(opts.Opportunities, log)
	if err != nil {
		return nil, err
	}

	out := opts.Progress
	if out == nil {
		out = io.Discard
	}
	bar := progressbar.NewOptions(stages,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("analyse"),
		progressbar.OptionClearOnFinish(),
	)

	res := &Result{Data: ingest.Summarize(in.Transactions)}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("mining: %w", err)
	}
	bar.Describe("règles d'association")
	res.Rules = miner.Mine(in.Transactions)
	res.RuleSummary = apriori.Summarize(res.Rules)
	_ = bar.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	bar.Describe("scoring RFM")
	res.RFM, err = scorer.Score(in.Transactions, opts.Reference)
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	res.Segments = res.RFM.Summary
	res.Insights = res.RFM.Insights()
	_ = bar.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("opportunities: %w", err)
	}
	bar.Describe("opportunités")
	res.Opportunities = engine.Generate(opportunity.Input{
		Transactions: in.Transactions,
		Rules:        res.Rules,
		Records:      res.RFM.Records,
		Customers:    in.Customers,
		Products:     in.Products,
	})
	res.Summary = opportunity.Summarize(res.Opportunities, opts.Opportunities.TopN)
	_ = bar.Add(1)
	_ = bar.Finish()

	log.WithFields(logrus.Fields{
		"transactions":  len(in.Transactions),
		"rules":         len(res.Rules),
		"customers":     len(res.RFM.Records),
		"opportunities": len(res.Opportunities),
		"total_value":   res.Summary.TotalValue,
	}).Info("analyse terminée")
	return res, nil
}
