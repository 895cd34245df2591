package config

import (
	"fmt"
	"os"
	"time"

	"wayfinder-backend/application/services"
	"wayfinder-backend/domain/navigation"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// routingFile is the YAML shape of the routing configuration. Fields
// absent from the file keep the values they were pre-populated with, so
// operators only write the knobs they want to change.
type routingFile struct {
	Router struct {
		PolicyOrder     []string `yaml:"policy_order"`
		NotRepeatLast   int      `yaml:"not_repeat_last" validate:"min=0"`
		RepeatWindow    int      `yaml:"repeat_window" validate:"min=0"`
		RepeatThreshold float64  `yaml:"repeat_threshold" validate:"min=0,max=1"`
		RepeatDecay     float64  `yaml:"repeat_decay" validate:"gt=0,max=1"`
		MaxVisits       int      `yaml:"max_visits" validate:"min=0"`
	} `yaml:"router"`

	Budget struct {
		MaxTimeMS  int64 `yaml:"max_time_ms" validate:"min=0"`
		MaxQueries int   `yaml:"max_queries" validate:"min=0"`
		MaxFilters int   `yaml:"max_filters" validate:"min=0"`
	} `yaml:"budget"`

	CompassLimit     int `yaml:"compass_limit" validate:"min=0"`
	EchoLimit        int `yaml:"echo_limit" validate:"min=0"`
	ResultTTLSeconds int `yaml:"result_ttl_seconds" validate:"min=0"`
}

// LoadRoutingDefaults reads the routing YAML at path, layered over the
// built-in defaults.
func LoadRoutingDefaults(path string) (services.RoutingDefaults, error) {
	defaults := services.DefaultRoutingDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("read routing config: %w", err)
	}

	file := fileFromDefaults(defaults)
	if err := yaml.Unmarshal(data, &file); err != nil {
		return defaults, fmt.Errorf("parse routing config: %w", err)
	}
	if err := validator.New().Struct(&file); err != nil {
		return defaults, fmt.Errorf("invalid routing config: %w", err)
	}
	return file.toDefaults()
}

// fileFromDefaults pre-populates the YAML struct so unmarshalling only
// overrides what the file sets.
func fileFromDefaults(d services.RoutingDefaults) routingFile {
	var f routingFile
	f.Router.PolicyOrder = make([]string, 0, len(d.Router.PolicyOrder))
	for _, kind := range d.Router.PolicyOrder {
		f.Router.PolicyOrder = append(f.Router.PolicyOrder, string(kind))
	}
	f.Router.NotRepeatLast = d.Router.NotRepeatLast
	f.Router.RepeatWindow = d.Router.RepeatWindow
	f.Router.RepeatThreshold = d.Router.RepeatThreshold
	f.Router.RepeatDecay = d.Router.RepeatDecay
	f.Router.MaxVisits = d.Router.MaxVisits
	f.Budget.MaxTimeMS = d.Budget.MaxTimeMS
	f.Budget.MaxQueries = d.Budget.MaxQueries
	f.Budget.MaxFilters = d.Budget.MaxFilters
	f.CompassLimit = d.CompassLimit
	f.EchoLimit = d.EchoLimit
	f.ResultTTLSeconds = int(d.ResultTTL / time.Second)
	return f
}

func (f routingFile) toDefaults() (services.RoutingDefaults, error) {
	order := make([]navigation.ProviderKind, 0, len(f.Router.PolicyOrder))
	for _, name := range f.Router.PolicyOrder {
		kind, err := navigation.ParseProviderKind(name)
		if err != nil {
			return services.RoutingDefaults{}, fmt.Errorf("routing config: %w", err)
		}
		order = append(order, kind)
	}

	return services.RoutingDefaults{
		Router: navigation.Config{
			PolicyOrder:     order,
			NotRepeatLast:   f.Router.NotRepeatLast,
			RepeatWindow:    f.Router.RepeatWindow,
			RepeatThreshold: f.Router.RepeatThreshold,
			RepeatDecay:     f.Router.RepeatDecay,
			MaxVisits:       f.Router.MaxVisits,
		},
		Budget: navigation.Budget{
			MaxTimeMS:  f.Budget.MaxTimeMS,
			MaxQueries: f.Budget.MaxQueries,
			MaxFilters: f.Budget.MaxFilters,
		},
		CompassLimit: f.CompassLimit,
		EchoLimit:    f.EchoLimit,
		ResultTTL:    time.Duration(f.ResultTTLSeconds) * time.Second,
	}, nil
}
