package opportunity

import (
	"cmp"
	"fmt"
	"slices"

	"sales-insights/pkg/logging"
	"sales-insights/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("sales-insights.opportunity"))

// Input regroupe les entrées d'une synthèse. Customers et Products sont optionnels.
type Input struct {
	Transactions []models.Transaction
	Rules        []models.Rule
	Records      []models.RFMRecord
	Customers    []models.Customer
	Products     []models.Product
}

// Engine combine règles d'association, segments RFM et historique en opportunités.
type Engine struct {
	cfg models.OpportunityConfig
	log logrus.FieldLogger
}

func New(cfg models.OpportunityConfig, log logrus.FieldLogger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("opportunity: %w", err)
	}
	return &Engine{cfg: cfg, log: logging.OrDiscard(log)}, nil
}

// Generate renvoie les opportunités cross-sell, réactivation et churn triées par valeur
// estimée décroissante, sans celles sous MinValue.
func (e *Engine) Generate(in Input) []models.Opportunity {
	names := newDirectory(in.Customers, in.Products)

	crossSell := e.crossSell(in.Transactions, in.Rules, names)
	reactivation := e.reactivation(in.Records, names)
	churn := e.churnRisk(in.Records, names)
	e.log.WithFields(logrus.Fields{
		"cross_sell":   len(crossSell),
		"reactivation": len(reactivation),
		"churn_risk":   len(churn),
	}).Debug("opportunités générées")

	all := make([]models.Opportunity, 0, len(crossSell)+len(reactivation)+len(churn))
	all = append(all, crossSell...)
	all = append(all, reactivation...)
	all = append(all, churn...)
	slices.SortStableFunc(all, func(a, b models.Opportunity) int {
		return cmp.Compare(b.EstimatedValue, a.EstimatedValue)
	})

	out := make([]models.Opportunity, 0, len(all))
	for _, op := range all {
		if op.EstimatedValue >= e.cfg.MinValue {
			out = append(out, op)
		}
	}
	e.log.WithFields(logrus.Fields{
		"opportunities": len(out),
		"min_value":     e.cfg.MinValue,
	}).Info("opportunités classées")
	return out
}

func (e *Engine) crossSell(txs []models.Transaction, rules []models.Rule, names directory) []models.Opportunity {
	if len(rules) == 0 {
		return nil
	}

	owned := make(map[string]map[string]struct{})
	sum := make(map[string]float64)
	count := make(map[string]int)
	for _, tx := range txs {
		set, ok := owned[tx.CustomerID]
		if !ok {
			set = make(map[string]struct{})
			owned[tx.CustomerID] = set
		}
		set[tx.ProductID] = struct{}{}
		sum[tx.ProductID] += tx.Amount
		count[tx.ProductID]++
	}
	customers := make([]string, 0, len(owned))
	for c := range owned {
		customers = append(customers, c)
	}
	slices.Sort(customers)

	var out []models.Opportunity
	seen := make(map[[2]string]struct{})
	for _, customer := range customers {
		products := owned[customer]
		for _, rule := range rules {
			if _, ok := products[rule.Antecedent]; !ok {
				continue
			}
			if _, ok := products[rule.Consequent]; ok {
				continue
			}
			key := [2]string{customer, rule.Consequent}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			var value float64
			if n := count[rule.Consequent]; n > 0 {
				value = sum[rule.Consequent] / float64(n)
			}
			productName := names.product(rule.Consequent)
			out = append(out, models.Opportunity{
				ID:               opportunityID(models.CrossSell, customer, rule.Consequent),
				Type:             models.CrossSell,
				CustomerID:       customer,
				CustomerName:     names.customer(customer),
				SuggestedProduct: rule.Consequent,
				ProductName:      productName,
				BasedOn:          []string{rule.Antecedent},
				Probability:      rule.Confidence,
				Lift:             rule.Lift,
				EstimatedValue:   round2(value),
				Action:           "Oferecer " + productName,
				Priority:         Prioritize(rule.Confidence, value),
			})
		}
	}
	return out
}

func (e *Engine) reactivation(records []models.RFMRecord, names directory) []models.Opportunity {
	var out []models.Opportunity
	for _, r := range records {
		if !slices.Contains(ReactivationSegments, r.Segment) {
			continue
		}
		recoverable := r.Monetary * ReactivationRecoveryFraction
		success := successProbability(r.Segment)
		action := r.SegmentAction
		if action == "" {
			action = "Campanha de reactivação"
		}
		out = append(out, models.Opportunity{
			ID:                 opportunityID(models.Reactivation, r.CustomerID, r.Segment),
			Type:               models.Reactivation,
			CustomerID:         r.CustomerID,
			CustomerName:       names.customer(r.CustomerID),
			Segment:            r.Segment,
			DaysSincePurchase:  r.RecencyDays,
			HistoricalValue:    round2(r.Monetary),
			EstimatedValue:     round2(recoverable * success),
			SuccessProbability: success,
			Action:             action,
			Priority:           Prioritize(success, recoverable),
		})
	}
	return out
}

func (e *Engine) churnRisk(records []models.RFMRecord, names directory) []models.Opportunity {
	var out []models.Opportunity
	for _, r := range records {
		if !isChurnRisk(r) {
			continue
		}
		atRisk := r.Monetary * ValueAtRiskFraction
		risk := riskScore(r.R)
		priority := models.PriorityMedium
		if risk > ChurnHighRiskCutoff {
			priority = models.PriorityHigh
		}
		out = append(out, models.Opportunity{
			ID:                opportunityID(models.ChurnRisk, r.CustomerID, r.RFMScore),
			Type:              models.ChurnRisk,
			CustomerID:        r.CustomerID,
			CustomerName:      names.customer(r.CustomerID),
			Segment:           r.Segment,
			RFMScore:          r.RFMScore,
			DaysSincePurchase: r.RecencyDays,
			ValueAtRisk:       round2(atRisk),
			EstimatedValue:    round2(atRisk * ChurnRecoverableFraction),
			RiskScore:         round2(risk),
			Action:            "Contacto urgente - cliente em risco",
			Priority:          priority,
		})
	}
	return out
}

func opportunityID(t models.OpportunityType, customer, subject string) string {
	return uuid.NewSHA1(idNamespace, []byte(string(t)+"\x00"+customer+"\x00"+subject)).String()
}

// directory résout les libellés ; un identifiant inconnu est affiché tel quel.
type directory struct {
	customers map[string]string
	products  map[string]string
}

func newDirectory(customers []models.Customer, products []models.Product) directory {
	d := directory{
		customers: make(map[string]string, len(customers)),
		products:  make(map[string]string, len(products)),
	}
	for _, c := range customers {
		if _, ok := d.customers[c.CustomerID]; !ok && c.Name != "" {
			d.customers[c.CustomerID] = c.Name
		}
	}
	for _, p := range products {
		if _, ok := d.products[p.ProductID]; !ok && p.Name != "" {
			d.products[p.ProductID] = p.Name
		}
	}
	return d
}

func (d directory) customer(id string) string {
	if name, ok := d.customers[id]; ok {
		return name
	}
	return id
}

func (d directory) product(id string) string {
	if name, ok := d.products[id]; ok {
		return name
	}
	return id
}
