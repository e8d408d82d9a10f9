package rfm

// Noms des segments.
const (
	Champions         = "Champions"
	Loyal             = "Loyal"
	PotentialLoyalist = "Potential Loyalist"
	NewCustomers      = "New Customers"
	Promising         = "Promising"
	NeedAttention     = "Need Attention"
	AboutToSleep      = "About to Sleep"
	AtRisk            = "At Risk"
	Hibernating       = "Hibernating"
	Lost              = "Lost"
	Others            = "Others"
)

// Range est un intervalle de score, bornes incluses.
type Range struct {
	Min, Max int
}

func (r Range) contains(v int) bool { return r.Min <= v && v <= r.Max }

// Segment est une ligne de la table de segmentation.
type Segment struct {
	Name        string
	R, F, M     Range
	Description string
	Action      string
	Color       string
}

// Matches indique si le triplet de scores tombe dans les trois intervalles.
func (s Segment) Matches(r, f, m int) bool {
	return s.R.contains(r) && s.F.contains(f) && s.M.contains(m)
}

// Segments est évaluée dans l'ordre ; la première correspondance l'emporte.
var Segments = []Segment{
	{Champions, Range{4, 5}, Range{4, 5}, Range{4, 5},
		"Compraram recentemente, compram frequentemente, e gastam muito",
		"Premiar, pedir referências, upsell premium", "#2E7D32"},
	{Loyal, Range{3, 5}, Range{3, 5}, Range{3, 5},
		"Bons clientes regulares",
		"Manter relação, oferecer exclusivos", "#4CAF50"},
	{PotentialLoyalist, Range{3, 5}, Range{1, 3}, Range{1, 3},
		"Clientes recentes com potencial",
		"Oferecer membership, recomendar outros produtos", "#8BC34A"},
	{NewCustomers, Range{4, 5}, Range{1, 1}, Range{1, 5},
		"Compraram muito recentemente, primeira compra",
		"Onboarding, oferta de boas-vindas", "#03A9F4"},
	{Promising, Range{3, 4}, Range{1, 2}, Range{1, 2},
		"Compras recentes, baixa frequência",
		"Criar engagement, oferecer promoções", "#00BCD4"},
	{NeedAttention, Range{2, 3}, Range{2, 3}, Range{2, 3},
		"Valores médios em tudo, podem escapar",
		"Reactivar interesse, oferta limitada", "#FFC107"},
	{AboutToSleep, Range{2, 3}, Range{1, 2}, Range{1, 2},
		"Abaixo da média, risco de perder",
		"Partilhar valor, oferta personalizada", "#FF9800"},
	{AtRisk, Range{1, 2}, Range{3, 5}, Range{3, 5},
		"Eram bons clientes, deixaram de comprar",
		"Enviar campanha de reactivação, ligar", "#F44336"},
	{Hibernating, Range{1, 2}, Range{1, 2}, Range{1, 2},
		"Última compra há muito tempo, baixo engagement",
		"Oferta agressiva de reactivação", "#9E9E9E"},
	{Lost, Range{1, 1}, Range{1, 5}, Range{1, 5},
		"Não compram há muito tempo",
		"Campanha de win-back ou ignorar", "#607D8B"},
}

var othersSegment = Segment{Name: Others, Action: "Analisar caso a caso"}

// Assign renvoie le premier segment correspondant à (r, f, m), sinon Others.
func Assign(r, f, m int) Segment {
	for _, s := range Segments {
		if s.Matches(r, f, m) {
			return s
		}
	}
	return othersSegment
}

// Lookup cherche un segment par nom ; Others est toujours trouvé.
func Lookup(name string) (Segment, bool) {
	for _, s := range Segments {
		if s.Name == name {
			return s, true
		}
	}
	if name == Others {
		return othersSegment, true
	}
	return Segment{}, false
}
