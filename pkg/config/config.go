package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sales-insights/pkg/database"
	"sales-insights/pkg/models"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Apriori       models.AprioriConfig     `yaml:"apriori"`
	RFM           models.RFMConfig         `yaml:"rfm"`
	Opportunities models.OpportunityConfig `yaml:"opportunities"`
	Database      Database                 `yaml:"database"`
	Output        Output                   `yaml:"output"`
}

// Database : le DSN peut aussi venir de SALES_INSIGHTS_DSN.
type Database struct {
	DSN    string          `yaml:"dsn"`
	Tables database.Tables `yaml:"tables"`
}

type Output struct {
	Format string `yaml:"format"` // markdown | json | csv
	Path   string `yaml:"path"`   // vide = stdout
}

var formats = map[string]bool{"markdown": true, "json": true, "csv": true}

// Default reprend les seuils du script de rapport hebdomadaire.
func Default() Config {
	ap := models.DefaultAprioriConfig()
	ap.MinSupport = 0.02
	op := models.DefaultOpportunityConfig()
	op.MinValue = 50
	return Config{
		Apriori:       ap,
		RFM:           models.DefaultRFMConfig(),
		Opportunities: op,
		Database:      Database{Tables: database.DefaultTables()},
		Output:        Output{Format: "markdown"},
	}
}

// DefaultPath : $XDG_CONFIG_HOME/sales-insights/config.yaml
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "sales-insights", "config.yaml")
}

// Load lit le fichier YAML par-dessus Default(). Les clés absentes gardent leur valeur par défaut.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault charge path, ou le chemin XDG si path est vide. Un fichier XDG absent
// n'est pas une erreur.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := Load(DefaultPath())
	if errors.Is(err, os.ErrNotExist) {
		d := Default()
		return &d, nil
	}
	return cfg, err
}

func (c Config) Validate() error {
	if err := c.Apriori.Validate(); err != nil {
		return fmt.Errorf("apriori: %w", err)
	}
	if err := c.RFM.Validate(); err != nil {
		return fmt.Errorf("rfm: %w", err)
	}
	if err := c.Opportunities.Validate(); err != nil {
		return fmt.Errorf("opportunities: %w", err)
	}
	if !formats[c.Output.Format] {
		return fmt.Errorf("%w: output.format=%q", models.ErrInvalidConfig, c.Output.Format)
	}
	return nil
}
