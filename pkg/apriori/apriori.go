package apriori

import (
	"cmp"
	"fmt"
	"slices"

	"sales-insights/pkg/logging"
	"sales-insights/pkg/models"

	"github.com/sirupsen/logrus"
)

// MinBaskets : en dessous de ce nombre de paniers éligibles, aucune règle n'est produite.
const MinBaskets = 10

// Basket est l'ensemble trié des produits distincts achetés par un client.
type Basket struct {
	CustomerID string
	Items      []string
}

// Pair est une paire non ordonnée, stockée avec A < B.
type Pair struct {
	A, B string
}

func newPair(x, y string) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// Itemsets contient le support des produits et des paires fréquents.
type Itemsets struct {
	Baskets int
	Items   map[string]float64
	Pairs   map[Pair]float64
}

// Miner extrait les règles d'association à conséquent unique depuis les paniers.
type Miner struct {
	cfg models.AprioriConfig
	log logrus.FieldLogger
}

func New(cfg models.AprioriConfig, log logrus.FieldLogger) (*Miner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("apriori: %w", err)
	}
	return &Miner{cfg: cfg, log: logging.OrDiscard(log)}, nil
}

// Mine renvoie les règles au-dessus des seuils de confiance et de lift, par lift décroissant,
// limitées à MaxRules. Trop peu de paniers donne un résultat vide, pas une erreur.
func (m *Miner) Mine(txs []models.Transaction) []models.Rule {
	baskets := BuildBaskets(txs)
	m.log.WithField("baskets", len(baskets)).Debug("paniers construits")

	if len(baskets) < MinBaskets {
		m.log.WithField("baskets", len(baskets)).Warn("pas assez de paniers pour les règles d'association")
		return []models.Rule{}
	}

	sets := FrequentItemsets(baskets, m.cfg.MinSupport)
	m.log.WithFields(logrus.Fields{
		"items": len(sets.Items),
		"pairs": len(sets.Pairs),
	}).Debug("itemsets fréquents")

	rules := make([]models.Rule, 0)
	for _, r := range GenerateRules(sets) {
		if r.Confidence >= m.cfg.MinConfidence && r.Lift >= m.cfg.MinLift {
			rules = append(rules, r)
		}
	}
	slices.SortStableFunc(rules, compareByLift)
	if len(rules) > m.cfg.MaxRules {
		rules = rules[:m.cfg.MaxRules]
	}

	m.log.WithField("rules", len(rules)).Info("règles d'association extraites")
	return rules
}

// BuildBaskets regroupe les transactions par client et garde les paniers d'au moins deux produits.
func BuildBaskets(txs []models.Transaction) []Basket {
	byCustomer := make(map[string]map[string]struct{})
	for _, tx := range txs {
		items, ok := byCustomer[tx.CustomerID]
		if !ok {
			items = make(map[string]struct{})
			byCustomer[tx.CustomerID] = items
		}
		items[tx.ProductID] = struct{}{}
	}

	baskets := make([]Basket, 0, len(byCustomer))
	for customer, set := range byCustomer {
		if len(set) < 2 {
			continue
		}
		items := make([]string, 0, len(set))
		for p := range set {
			items = append(items, p)
		}
		slices.Sort(items)
		baskets = append(baskets, Basket{CustomerID: customer, Items: items})
	}
	slices.SortFunc(baskets, func(a, b Basket) int { return cmp.Compare(a.CustomerID, b.CustomerID) })
	return baskets
}

// FrequentItemsets compte les produits, puis les paires de produits fréquents uniquement.
func FrequentItemsets(baskets []Basket, minSupport float64) Itemsets {
	sets := Itemsets{
		Baskets: len(baskets),
		Items:   make(map[string]float64),
		Pairs:   make(map[Pair]float64),
	}
	if len(baskets) == 0 {
		return sets
	}
	n := float64(len(baskets))

	itemCounts := make(map[string]int)
	for _, b := range baskets {
		for _, item := range b.Items {
			itemCounts[item]++
		}
	}
	minCount := minSupport * n
	for item, c := range itemCounts {
		if float64(c) >= minCount {
			sets.Items[item] = float64(c) / n
		}
	}

	pairCounts := make(map[Pair]int)
	for _, b := range baskets {
		frequent := make([]string, 0, len(b.Items))
		for _, item := range b.Items {
			if _, ok := sets.Items[item]; ok {
				frequent = append(frequent, item)
			}
		}
		for i := 0; i < len(frequent); i++ {
			for j := i + 1; j < len(frequent); j++ {
				pairCounts[newPair(frequent[i], frequent[j])]++
			}
		}
	}
	for p, c := range pairCounts {
		if s := float64(c) / n; s >= minSupport {
			sets.Pairs[p] = s
		}
	}
	return sets
}

// GenerateRules émet X→Y et Y→X pour chaque paire fréquente. Une règle dont l'antécédent
// ou le conséquent a un support nul est ignorée.
func GenerateRules(sets Itemsets) []models.Rule {
	pairs := make([]Pair, 0, len(sets.Pairs))
	for p := range sets.Pairs {
		pairs = append(pairs, p)
	}
	slices.SortFunc(pairs, func(a, b Pair) int {
		return cmp.Or(cmp.Compare(a.A, b.A), cmp.Compare(a.B, b.B))
	})

	rules := make([]models.Rule, 0, 2*len(pairs))
	for _, p := range pairs {
		support := sets.Pairs[p]
		for _, dir := range [2][2]string{{p.A, p.B}, {p.B, p.A}} {
			antecedent, consequent := dir[0], dir[1]
			supA := sets.Items[antecedent]
			supC := sets.Items[consequent]
			if supA == 0 || supC == 0 {
				continue
			}
			confidence := support / supA
			rules = append(rules, models.Rule{
				Antecedent: antecedent,
				Consequent: consequent,
				Support:    support,
				Confidence: confidence,
				Lift:       confidence / supC,
				Count:      int(support*float64(sets.Baskets) + 0.5),
			})
		}
	}
	return rules
}

// lift desc, puis confiance desc, puis antécédent et conséquent asc
func compareByLift(a, b models.Rule) int {
	return cmp.Or(
		cmp.Compare(b.Lift, a.Lift),
		cmp.Compare(b.Confidence, a.Confidence),
		cmp.Compare(a.Antecedent, b.Antecedent),
		cmp.Compare(a.Consequent, b.Consequent),
	)
}
