package opportunity

import (
	"sales-insights/pkg/models"
)

// TypeStats : nombre et valeur d'un type d'opportunité.
type TypeStats struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// Summary est une projection en lecture seule d'une liste classée.
type Summary struct {
	Total        int                                  `json:"total"`
	TotalValue   float64                              `json:"total_value"`
	HighPriority int                                  `json:"high_priority"`
	Customers    int                                  `json:"customers"`
	ByType       map[models.OpportunityType]TypeStats `json:"by_type"`
	Top          []models.Opportunity                 `json:"top"`
}

// Summarize attend une liste classée ; Top contient les topN premières.
func Summarize(opps []models.Opportunity, topN int) Summary {
	s := Summary{ByType: make(map[models.OpportunityType]TypeStats)}
	customers := make(map[string]struct{})
	for _, op := range opps {
		s.Total++
		s.TotalValue += op.EstimatedValue
		if op.Priority == models.PriorityHigh {
			s.HighPriority++
		}
		customers[op.CustomerID] = struct{}{}
		ts := s.ByType[op.Type]
		ts.Count++
		ts.Value += op.EstimatedValue
		s.ByType[op.Type] = ts
	}
	s.Customers = len(customers)
	s.Top = Top(opps, topN)
	return s
}

// Top renvoie les n premières opportunités.
func Top(opps []models.Opportunity, n int) []models.Opportunity {
	if n < 0 {
		n = 0
	}
	if n > len(opps) {
		n = len(opps)
	}
	return append([]models.Opportunity(nil), opps[:n]...)
}

func ByCustomer(opps []models.Opportunity, customerID string) []models.Opportunity {
	return filter(opps, func(op models.Opportunity) bool { return op.CustomerID == customerID })
}

func ByType(opps []models.Opportunity, t models.OpportunityType) []models.Opportunity {
	return filter(opps, func(op models.Opportunity) bool { return op.Type == t })
}

func HighPriority(opps []models.Opportunity) []models.Opportunity {
	return filter(opps, func(op models.Opportunity) bool { return op.Priority == models.PriorityHigh })
}

func filter(opps []models.Opportunity, keep func(models.Opportunity) bool) []models.Opportunity {
	var out []models.Opportunity
	for _, op := range opps {
		if keep(op) {
			out = append(out, op)
		}
	}
	return out
}
