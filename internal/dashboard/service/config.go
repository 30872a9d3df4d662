package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TabConfig is the declarative part of a dashboard: which status categories
// it hides and how it sorts when the caller does not say.
type TabConfig struct {
	ExcludeCategories []string    `yaml:"excludeCategories"`
	DefaultSort       SortDefault `yaml:"defaultSort"`
}

type SortDefault struct {
	Key   string `yaml:"key"`
	Order string `yaml:"order"`
}

type dashboardsFile struct {
	Dashboards struct {
		ReverseAuction TabConfig `yaml:"reverse-auction"`
		TQManagement   TabConfig `yaml:"tq-management"`
	} `yaml:"dashboards"`
}

// DashboardsConfig holds the per-dashboard settings loaded at startup.
type DashboardsConfig struct {
	ReverseAuction TabConfig
	TQManagement   TabConfig
}

// LoadDashboardsConfig reads the dashboards yaml file. Missing or unparsable
// config is a startup error, not something to default around.
func LoadDashboardsConfig(path string) (*DashboardsConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dashboards config: %w", err)
	}

	var file dashboardsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse dashboards config: %w", err)
	}

	return &DashboardsConfig{
		ReverseAuction: file.Dashboards.ReverseAuction,
		TQManagement:   file.Dashboards.TQManagement,
	}, nil
}
