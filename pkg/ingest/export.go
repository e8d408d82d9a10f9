package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"sales-insights/pkg/models"
)

var opportunityHeader = []string{
	"id", "type", "customer_id", "customer_name", "estimated_value", "priority", "action",
	"suggested_product", "product_name", "based_on", "probability", "lift",
	"segment", "days_since_purchase", "historical_value", "success_probability",
	"rfm_score", "value_at_risk", "risk_score",
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WriteOpportunitiesCSV écrit l'export à plat d'une liste classée d'opportunités.
func WriteOpportunitiesCSV(w io.Writer, opps []models.Opportunity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(opportunityHeader); err != nil {
		return err
	}
	for _, op := range opps {
		rec := []string{
			op.ID, string(op.Type), op.CustomerID, op.CustomerName, ftoa(op.EstimatedValue),
			string(op.Priority), op.Action,
			op.SuggestedProduct, op.ProductName, strings.Join(op.BasedOn, "|"), ftoa(op.Probability), ftoa(op.Lift),
			op.Segment, strconv.Itoa(op.DaysSincePurchase), ftoa(op.HistoricalValue), ftoa(op.SuccessProbability),
			op.RFMScore, ftoa(op.ValueAtRisk), ftoa(op.RiskScore),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTransactionsCSV écrit les ventes normalisées avec les en-têtes canoniques, relisibles
// par ReadTransactions.
func WriteTransactionsCSV(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "customer_id", "product_id", "quantity", "amount"}); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := cw.Write([]string{
			tx.Date.Format(time.DateOnly), tx.CustomerID, tx.ProductID, strconv.Itoa(tx.Quantity), ftoa(tx.Amount),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DataSummary décrit une table de ventes chargée.
type DataSummary struct {
	Transactions    int       `json:"transactions"`
	UniqueCustomers int       `json:"unique_customers"`
	UniqueProducts  int       `json:"unique_products"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	PeriodDays      int       `json:"period_days"`
	TotalValue      float64   `json:"total_value"`
	AverageTicket   float64   `json:"average_ticket"`
}

func Summarize(txs []models.Transaction) DataSummary {
	s := DataSummary{Transactions: len(txs)}
	if len(txs) == 0 {
		return s
	}
	customers := make(map[string]struct{})
	products := make(map[string]struct{})
	s.PeriodStart, s.PeriodEnd = txs[0].Date, txs[0].Date
	for _, tx := range txs {
		customers[tx.CustomerID] = struct{}{}
		products[tx.ProductID] = struct{}{}
		s.TotalValue += tx.Amount
		if tx.Date.Before(s.PeriodStart) {
			s.PeriodStart = tx.Date
		}
		if tx.Date.After(s.PeriodEnd) {
			s.PeriodEnd = tx.Date
		}
	}
	s.UniqueCustomers = len(customers)
	s.UniqueProducts = len(products)
	s.PeriodDays = int(s.PeriodEnd.Sub(s.PeriodStart).Hours() / 24)
	s.AverageTicket = s.TotalValue / float64(len(txs))
	return s
}
