package rfm

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"sales-insights/pkg/models"
)

// BySegment renvoie les clients d'un segment, dans l'ordre de la table.
func (r *Result) BySegment(name string) []models.RFMRecord {
	return r.inSegments(name)
}

// AtRisk : clients At Risk, Hibernating et About to Sleep.
func (r *Result) AtRisk() []models.RFMRecord {
	return r.inSegments(AtRisk, Hibernating, AboutToSleep)
}

// Champions : clients Champions et Loyal.
func (r *Result) Champions() []models.RFMRecord {
	return r.inSegments(Champions, Loyal)
}

// ReactivationTargets renvoie les clients dormants (At Risk, Hibernating, Lost) dont la
// valeur historique atteint minValue, par montant décroissant.
func (r *Result) ReactivationTargets(minValue float64) []models.RFMRecord {
	var out []models.RFMRecord
	for _, rec := range r.inSegments(AtRisk, Hibernating, Lost) {
		if rec.Monetary >= minValue {
			out = append(out, rec)
		}
	}
	slices.SortStableFunc(out, func(a, b models.RFMRecord) int { return cmp.Compare(b.Monetary, a.Monetary) })
	return out
}

func (r *Result) inSegments(names ...string) []models.RFMRecord {
	var out []models.RFMRecord
	for _, rec := range r.Records {
		if slices.Contains(names, rec.Segment) {
			out = append(out, rec)
		}
	}
	return out
}

// GroupStats décrit un groupe de clients par rapport à toute la base.
type GroupStats struct {
	Count           int     `json:"count"`
	Percentage      float64 `json:"percentage"`
	Value           float64 `json:"value"`
	ValuePercentage float64 `json:"value_percentage"`
	AvgRecencyDays  float64 `json:"avg_recency_days"`
}

// Insights est la synthèse lisible d'un scoring.
type Insights struct {
	TotalCustomers int        `json:"total_customers"`
	TotalValue     float64    `json:"total_value"`
	Champions      GroupStats `json:"champions"`
	AtRisk         GroupStats `json:"at_risk"`
	Messages       []string   `json:"messages"`
}

func (r *Result) Insights() Insights {
	var total float64
	for _, rec := range r.Records {
		total += rec.Monetary
	}
	in := Insights{TotalCustomers: len(r.Records), TotalValue: total}
	if len(r.Records) == 0 {
		return in
	}

	in.Champions = groupStats(r.Champions(), len(r.Records), total)
	in.AtRisk = groupStats(r.AtRisk(), len(r.Records), total)
	in.Messages = []string{
		fmt.Sprintf("Top 20%% dos clientes representam %.0f%% do valor", in.Champions.ValuePercentage),
		fmt.Sprintf("%d clientes (%.1f%%) precisam de reactivação", in.AtRisk.Count, in.AtRisk.Percentage),
		fmt.Sprintf("Recency médio dos Champions: %.0f dias", in.Champions.AvgRecencyDays),
		fmt.Sprintf("Recency médio dos At Risk: %.0f dias", in.AtRisk.AvgRecencyDays),
	}
	return in
}

func groupStats(group []models.RFMRecord, customers int, total float64) GroupStats {
	g := GroupStats{Count: len(group)}
	if len(group) == 0 {
		return g
	}
	var recency float64
	for _, rec := range group {
		g.Value += rec.Monetary
		recency += float64(rec.RecencyDays)
	}
	g.Percentage = round(float64(len(group))/float64(customers)*100, 1)
	if total > 0 {
		g.ValuePercentage = round(g.Value/total*100, 1)
	}
	g.AvgRecencyDays = recency / float64(len(group))
	return g
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
