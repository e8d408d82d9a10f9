package apriori

import (
	"cmp"
	"slices"

	"sales-insights/pkg/models"
)

// Recommendation est un produit suggéré à un client par la meilleure règle applicable.
type Recommendation struct {
	ProductID   string  `json:"product_id"`
	Probability float64 `json:"probability"`
	Lift        float64 `json:"lift"`
	BasedOn     string  `json:"based_on"`
}

// Recommend renvoie les conséquents des règles dont l'antécédent est possédé et le conséquent
// non, par confiance décroissante. Une seule règle par conséquent : la plus confiante.
func Recommend(rules []models.Rule, owned []string, max int) []Recommendation {
	ownedSet := make(map[string]struct{}, len(owned))
	for _, p := range owned {
		ownedSet[p] = struct{}{}
	}

	best := make(map[string]Recommendation)
	order := make([]string, 0)
	for _, r := range rules {
		if _, ok := ownedSet[r.Antecedent]; !ok {
			continue
		}
		if _, ok := ownedSet[r.Consequent]; ok {
			continue
		}
		cur, seen := best[r.Consequent]
		if !seen {
			order = append(order, r.Consequent)
		}
		if !seen || r.Confidence > cur.Probability {
			best[r.Consequent] = Recommendation{
				ProductID:   r.Consequent,
				Probability: r.Confidence,
				Lift:        r.Lift,
				BasedOn:     r.Antecedent,
			}
		}
	}

	recs := make([]Recommendation, 0, len(order))
	for _, p := range order {
		recs = append(recs, best[p])
	}
	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		return cmp.Compare(b.Probability, a.Probability)
	})
	if max >= 0 && len(recs) > max {
		recs = recs[:max]
	}
	return recs
}

// RuleSummary résume un jeu de règles.
type RuleSummary struct {
	TotalRules    int          `json:"total_rules"`
	TopLift       *models.Rule `json:"top_lift,omitempty"`
	AvgLift       float64      `json:"avg_lift"`
	AvgConfidence float64      `json:"avg_confidence"`
}

// Summarize attend les règles triées par lift, comme les renvoie Mine.
func Summarize(rules []models.Rule) RuleSummary {
	if len(rules) == 0 {
		return RuleSummary{}
	}
	var lift, conf float64
	for _, r := range rules {
		lift += r.Lift
		conf += r.Confidence
	}
	top := rules[0]
	n := float64(len(rules))
	return RuleSummary{
		TotalRules:    len(rules),
		TopLift:       &top,
		AvgLift:       lift / n,
		AvgConfidence: conf / n,
	}
}
