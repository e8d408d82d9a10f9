package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/template"
	"time"

	"sales-insights/pkg/ingest"
	"sales-insights/pkg/models"
	"sales-insights/pkg/opportunity"
	"sales-insights/pkg/pipeline"
)

// Nombre de lignes par section du rapport.
const sectionSize = 5

// Weekly est la vue du rapport hebdomadaire construite à partir d'une exécution.
type Weekly struct {
	Generated    time.Time
	Week         int
	From, To     time.Time
	Data         ingest.DataSummary
	Rules        int
	Summary      opportunity.Summary
	Segments     []models.SegmentSummary
	Messages     []string
	CrossSell    []models.Opportunity
	Reactivation []models.Opportunity
	Churn        []models.Opportunity
	Actions      []string
}

func NewWeekly(res *pipeline.Result, now time.Time) Weekly {
	_, week := now.ISOWeek()
	return Weekly{
		Generated:    now,
		Week:         week,
		From:         now.AddDate(0, 0, -7),
		To:           now,
		Data:         res.Data,
		Rules:        len(res.Rules),
		Summary:      res.Summary,
		Segments:     res.Segments,
		Messages:     res.Insights.Messages,
		CrossSell:    opportunity.Top(opportunity.ByType(res.Opportunities, models.CrossSell), sectionSize),
		Reactivation: opportunity.Top(opportunity.ByType(res.Opportunities, models.Reactivation), sectionSize),
		Churn:        opportunity.Top(opportunity.ByType(res.Opportunities, models.ChurnRisk), sectionSize),
		Actions:      actions(res.Opportunities),
	}
}

// actions : 3 cross-sell les plus gros, 2 réactivations prioritaires, 2 churns.
// La liste d'entrée est déjà triée par valeur décroissante.
func actions(opps []models.Opportunity) []string {
	var out []string
	for _, op := range opportunity.Top(opportunity.ByType(opps, models.CrossSell), 3) {
		out = append(out, fmt.Sprintf("Contactar **%s** para oferecer %s (%s potencial)",
			op.CustomerID, op.ProductName, euros(op.EstimatedValue)))
	}
	var urgent []models.Opportunity
	for _, op := range opportunity.ByType(opps, models.Reactivation) {
		if op.Priority == models.PriorityHigh {
			urgent = append(urgent, op)
		}
	}
	for _, op := range opportunity.Top(urgent, 2) {
		out = append(out, fmt.Sprintf("Campanha de reactivação para **%s** (%d dias)",
			op.CustomerName, op.DaysSincePurchase))
	}
	for _, op := range opportunity.Top(opportunity.ByType(opps, models.ChurnRisk), 2) {
		out = append(out, fmt.Sprintf("Contacto urgente: **%s** em risco de churn (%s)",
			op.CustomerName, euros(op.ValueAtRisk)))
	}
	return out
}

var funcs = template.FuncMap{
	"eur":      euros,
	"pct":      func(v float64) string { return strconv.Itoa(int(math.Round(v*100))) + "%" },
	"inc":      func(i int) int { return i + 1 },
	"date":     func(t time.Time) string { return t.Format("02/01/2006") },
	"datetime": func(t time.Time) string { return t.Format("02/01/2006 15:04") },
	"dec1":     func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
}

var markdownTmpl = template.Must(template.New("weekly").Funcs(funcs).Parse(`# Sales Insights - Relatório Semanal

**Semana {{.Week}}** ({{date .From}} - {{date .To}}) | Gerado em {{datetime .Generated}}

---

## Métricas

| Métrica | Valor |
|---------|-------|
| Potencial Total | {{eur .Summary.TotalValue}} |
| Oportunidades | {{.Summary.Total}} |
| Alta Prioridade | {{.Summary.HighPriority}} |
| Clientes Impactados | {{.Summary.Customers}} |
| Transacções analisadas | {{.Data.Transactions}} |
| Regras de associação | {{.Rules}} |

---

## Top Oportunidades Cross-Sell

{{range $i, $op := .CrossSell -}}
{{inc $i}}. **{{$op.CustomerID}}** → {{$op.ProductName}} ({{pct $op.Probability}} prob, {{eur $op.EstimatedValue}})
{{else -}}
Nenhuma oportunidade encontrada.
{{end}}
## Clientes para Reactivação

{{range $i, $op := .Reactivation -}}
{{inc $i}}. **{{$op.CustomerName}}** - {{$op.DaysSincePurchase}} dias sem compra ({{eur $op.HistoricalValue}} histórico)
{{else -}}
Nenhuma oportunidade encontrada.
{{end}}
## Clientes em Risco de Churn

{{range $i, $op := .Churn -}}
{{inc $i}}. **{{$op.CustomerName}}** - {{$op.DaysSincePurchase}} dias, {{eur $op.ValueAtRisk}} em risco (score {{pct $op.RiskScore}})
{{else -}}
Nenhuma oportunidade encontrada.
{{end}}
## Segmentação RFM

| Segmento | Clientes | % | Recency média | Valor total |
|----------|----------|---|---------------|-------------|
{{range .Segments -}}
| {{.Segment}} | {{.Count}} | {{dec1 .Percentage}} | {{dec1 .AvgRecencyDays}} | {{eur .TotalMonetary}} |
{{end}}
{{- with .Messages}}
{{range .}}- {{.}}
{{end}}{{end}}
## Acções Recomendadas Esta Semana

{{range .Actions -}}
- {{.}}
{{else -}}
Sem acções urgentes esta semana.
{{end}}
---

*Relatório gerado automaticamente por Sales Insights*
`))

// WriteMarkdown rend le rapport hebdomadaire.
func WriteMarkdown(w io.Writer, r Weekly) error {
	return markdownTmpl.Execute(w, r)
}

// euros formate à l'unité avec séparateur de milliers : €1,234
func euros(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "€" + b.String()
}
