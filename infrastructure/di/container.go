// Package di wires the application together with google/wire.
package di

import (
	"wayfinder-backend/application/ports"
	"wayfinder-backend/application/services"
	"wayfinder-backend/infrastructure/config"
	"wayfinder-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	NodeReader ports.NodeReader
	Cache      ports.Cache
	EventBus   ports.EventBus
	Metrics    *observability.Collector
	Navigation *services.NavigationService
}
