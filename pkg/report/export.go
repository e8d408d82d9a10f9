package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"sales-insights/pkg/ingest"
	"sales-insights/pkg/models"
	"sales-insights/pkg/opportunity"
	"sales-insights/pkg/pipeline"
	"sales-insights/pkg/rfm"

	"github.com/charmbracelet/lipgloss"
)

type jsonExport struct {
	GeneratedAt        time.Time               `json:"generated_at"`
	TotalOpportunities int                     `json:"total_opportunities"`
	TotalValue         float64                 `json:"total_value"`
	Data               ingest.DataSummary      `json:"data"`
	Summary            opportunity.Summary     `json:"summary"`
	Segments           []models.SegmentSummary `json:"segments"`
	Rules              []models.Rule           `json:"rules"`
	Opportunities      []models.Opportunity    `json:"opportunities"`
}

// WriteJSON exporte l'exécution complète, indentée, sans échappement HTML.
func WriteJSON(w io.Writer, res *pipeline.Result, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(jsonExport{
		GeneratedAt:        now,
		TotalOpportunities: res.Summary.Total,
		TotalValue:         res.Summary.TotalValue,
		Data:               res.Data,
		Summary:            res.Summary,
		Segments:           res.Segments,
		Rules:              res.Rules,
		Opportunities:      res.Opportunities,
	})
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

// Terminal rend le résumé console de fin d'exécution, segments colorés selon la table RFM.
func Terminal(res *pipeline.Result) string {
	line := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}
	lines := []string{
		titleStyle.Render("SUMMARY"),
		"",
		line("Transactions", fmt.Sprintf("%d", res.Data.Transactions)),
		line("Customers", fmt.Sprintf("%d", res.Data.UniqueCustomers)),
		line("Association rules", fmt.Sprintf("%d", len(res.Rules))),
		line("Total Opportunities", fmt.Sprintf("%d", res.Summary.Total)),
		line("Potential Value", euros(res.Summary.TotalValue)),
		line("Cross-sell", fmt.Sprintf("%d", res.Summary.ByType[models.CrossSell].Count)),
		line("Reactivation", fmt.Sprintf("%d", res.Summary.ByType[models.Reactivation].Count)),
		line("Churn Risk", fmt.Sprintf("%d", res.Summary.ByType[models.ChurnRisk].Count)),
	}
	if len(res.Segments) > 0 {
		lines = append(lines, "")
		for _, s := range res.Segments {
			style := lipgloss.NewStyle().Width(22)
			if seg, ok := rfm.Lookup(s.Segment); ok && seg.Color != "" {
				style = style.Foreground(lipgloss.Color(seg.Color))
			}
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
				style.Render(s.Segment), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", s.Count, s.Percentage))))
		}
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
