package opportunity

import (
	"math"

	"sales-insights/pkg/models"
	"sales-insights/pkg/rfm"
)

// Constantes de politique commerciale, ajustables.
const (
	// ReactivationRecoveryFraction : part de la valeur historique récupérée par une réactivation.
	ReactivationRecoveryFraction = 0.30
	// DefaultSuccessProbability : segments de réactivation sans taux propre.
	DefaultSuccessProbability = 0.20

	// ValueAtRiskFraction : part de la valeur historique considérée en risque.
	ValueAtRiskFraction = 0.5
	// ChurnRecoverableFraction : part de la valeur en risque récupérée par une action de rétention.
	ChurnRecoverableFraction = 0.3
	// ChurnHighRiskCutoff : au-dessus, priorité haute.
	ChurnHighRiskCutoff = 0.7

	// PriorityValueScale normalise la valeur avant de la combiner à la probabilité.
	PriorityValueScale = 1000.0
	PriorityHighCutoff = 0.5
	PriorityMedCutoff  = 0.2
)

// SuccessProbability par segment dormant.
var SuccessProbability = map[string]float64{
	rfm.AboutToSleep: 0.40,
	rfm.AtRisk:       0.30,
	rfm.Hibernating:  0.15,
	rfm.Lost:         0.05,
}

// ReactivationSegments : segments éligibles à une réactivation.
var ReactivationSegments = []string{rfm.AtRisk, rfm.Hibernating, rfm.Lost, rfm.AboutToSleep}

// Prioritize combine probabilité et valeur en trois niveaux.
func Prioritize(probability, value float64) models.Priority {
	score := probability * (value / PriorityValueScale)
	switch {
	case score > PriorityHighCutoff:
		return models.PriorityHigh
	case score > PriorityMedCutoff:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func successProbability(segment string) float64 {
	if p, ok := SuccessProbability[segment]; ok {
		return p
	}
	return DefaultSuccessProbability
}

// isChurnRisk retient aussi les bons clients dont la recency se dégrade sans que la table
// les ait classés At Risk.
func isChurnRisk(r models.RFMRecord) bool {
	return r.Segment == rfm.AtRisk || (r.F >= 3 && r.M >= 3 && r.R <= 2)
}

func riskScore(r int) float64 {
	return float64(5-r) / 4
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
