package models

import (
	"time"
)

/*
LOAD → types simples pour les tables déjà normalisées par l'ingestion.
*/

// Transaction représente une ligne de vente normalisée (client, produit, date, quantité, montant).
type Transaction struct {
	CustomerID string    `json:"customer_id"`
	ProductID  string    `json:"product_id"`
	Date       time.Time `json:"date"`
	Quantity   int       `json:"quantity"`
	Amount     float64   `json:"amount"`
}

// Customer est une ligne optionnelle de la table clients, utilisée uniquement pour l'affichage.
type Customer struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Segment    string `json:"segment,omitempty"`
	Region     string `json:"region,omitempty"`
}

// Product est une ligne optionnelle de la table produits, utilisée uniquement pour l'affichage.
type Product struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	UnitPrice float64 `json:"unit_price,omitempty"`
}

/*
COMPUTE → résultats des trois moteurs
*/

// Rule est une règle d'association dirigée Antecedent → Consequent.
type Rule struct {
	Antecedent string  `json:"antecedent"`
	Consequent string  `json:"consequent"`
	Support    float64 `json:"support"`    // fraction des paniers contenant les deux produits
	Confidence float64 `json:"confidence"` // support(A∪B) / support(A)
	Lift       float64 `json:"lift"`       // confidence / support(B)
	Count      int     `json:"count"`      // nombre de paniers contenant la paire
}

// RFMRecord contient les métriques et scores RFM d'un client.
type RFMRecord struct {
	CustomerID    string    `json:"customer_id"`
	LastPurchase  time.Time `json:"last_purchase"`
	RecencyDays   int       `json:"recency_days"`
	Frequency     int       `json:"frequency"`
	Monetary      float64   `json:"monetary"`
	R             int       `json:"r"`
	F             int       `json:"f"`
	M             int       `json:"m"`
	RFMScore      string    `json:"rfm_score"` // "RFM", ex: "545"
	Segment       string    `json:"segment"`
	SegmentAction string    `json:"segment_action"`
}

// SegmentSummary agrège les clients d'un segment.
type SegmentSummary struct {
	Segment        string  `json:"segment"`
	Count          int     `json:"count"`
	AvgRecencyDays float64 `json:"avg_recency_days"`
	AvgFrequency   float64 `json:"avg_frequency"`
	AvgMonetary    float64 `json:"avg_monetary"`
	TotalMonetary  float64 `json:"total_monetary"`
	Percentage     float64 `json:"percentage"` // part de la base clients, en %
}

// OpportunityType identifie la nature d'une opportunité.
type OpportunityType string

const (
	CrossSell    OpportunityType = "cross_sell"
	Reactivation OpportunityType = "reactivation"
	ChurnRisk    OpportunityType = "churn_risk"
)

// Priority est la bande de priorité commerciale.
type Priority string

const (
	PriorityHigh   Priority = "alta"
	PriorityMedium Priority = "media"
	PriorityLow    Priority = "baixa"
)

// Opportunity est une recommandation actionnable pour un client.
// Les champs spécifiques à un type restent à zéro pour les autres types.
type Opportunity struct {
	ID             string          `json:"id"`
	Type           OpportunityType `json:"type"`
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_name,omitempty"`
	EstimatedValue float64         `json:"estimated_value"`
	Priority       Priority        `json:"priority"`
	Action         string          `json:"action"`

	// cross_sell
	SuggestedProduct string   `json:"suggested_product,omitempty"`
	ProductName      string   `json:"product_name,omitempty"`
	BasedOn          []string `json:"based_on,omitempty"`
	Probability      float64  `json:"probability,omitempty"`
	Lift             float64  `json:"lift,omitempty"`

	// reactivation / churn_risk
	Segment            string  `json:"segment,omitempty"`
	DaysSincePurchase  int     `json:"days_since_purchase,omitempty"`
	HistoricalValue    float64 `json:"historical_value,omitempty"`
	SuccessProbability float64 `json:"success_probability,omitempty"`
	RFMScore           string  `json:"rfm_score,omitempty"`
	ValueAtRisk        float64 `json:"value_at_risk,omitempty"`
	RiskScore          float64 `json:"risk_score,omitempty"`
}
