package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig signale un seuil hors bornes, rejeté avant tout calcul.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInsufficientCustomers signale moins de clients que de quantiles demandés.
	ErrInsufficientCustomers = errors.New("insufficient customers for requested bins")
)

/*
CONFIG → paramètres passés explicitement à chaque moteur
*/

// AprioriConfig contient les seuils du mineur de règles d'association.
type AprioriConfig struct {
	MinSupport    float64 `yaml:"min_support"`    // (0,1]
	MinConfidence float64 `yaml:"min_confidence"` // [0,1]
	MinLift       float64 `yaml:"min_lift"`       // >= 0
	MaxRules      int     `yaml:"max_rules"`      // > 0
}

// RFMConfig contient le nombre de quantiles par axe et la date de référence.
type RFMConfig struct {
	RBins int `yaml:"r_bins"`
	FBins int `yaml:"f_bins"`
	MBins int `yaml:"m_bins"`
	// DegradeBins réduit le nombre de quantiles au nombre de clients au lieu de renvoyer
	// ErrInsufficientCustomers.
	DegradeBins bool `yaml:"degrade_bins"`
	// ReferenceDate à zéro = maintenant, évalué à chaque appel.
	ReferenceDate time.Time `yaml:"reference_date"`
}

// OpportunityConfig contient le seuil de valeur minimale d'une opportunité.
type OpportunityConfig struct {
	MinValue float64 `yaml:"min_value"`
	TopN     int     `yaml:"top_n"` // taille du top dans le résumé
}

func DefaultAprioriConfig() AprioriConfig {
	return AprioriConfig{MinSupport: 0.01, MinConfidence: 0.3, MinLift: 1.0, MaxRules: 100}
}

func DefaultRFMConfig() RFMConfig {
	return RFMConfig{RBins: 5, FBins: 5, MBins: 5}
}

func DefaultOpportunityConfig() OpportunityConfig {
	return OpportunityConfig{MinValue: 100, TopN: 5}
}

func (c AprioriConfig) Validate() error {
	if c.MinSupport <= 0 || c.MinSupport > 1 {
		return fmt.Errorf("%w: min_support=%v hors de (0,1]", ErrInvalidConfig, c.MinSupport)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("%w: min_confidence=%v hors de [0,1]", ErrInvalidConfig, c.MinConfidence)
	}
	if c.MinLift < 0 {
		return fmt.Errorf("%w: min_lift=%v négatif", ErrInvalidConfig, c.MinLift)
	}
	if c.MaxRules <= 0 {
		return fmt.Errorf("%w: max_rules=%d doit être > 0", ErrInvalidConfig, c.MaxRules)
	}
	return nil
}

func (c RFMConfig) Validate() error {
	if c.RBins < 1 || c.FBins < 1 || c.MBins < 1 {
		return fmt.Errorf("%w: bins r=%d f=%d m=%d doivent être >= 1", ErrInvalidConfig, c.RBins, c.FBins, c.MBins)
	}
	return nil
}

func (c OpportunityConfig) Validate() error {
	if c.MinValue < 0 {
		return fmt.Errorf("%w: min_value=%v négatif", ErrInvalidConfig, c.MinValue)
	}
	if c.TopN < 0 {
		return fmt.Errorf("%w: top_n=%d négatif", ErrInvalidConfig, c.TopN)
	}
	return nil
}
