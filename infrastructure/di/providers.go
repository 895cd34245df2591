package di

import (
	"context"
	"fmt"

	"wayfinder-backend/application/ports"
	"wayfinder-backend/application/services"
	domainservices "wayfinder-backend/domain/services"
	"wayfinder-backend/domain/navigation"
	"wayfinder-backend/infrastructure/cache"
	"wayfinder-backend/infrastructure/config"
	"wayfinder-backend/infrastructure/embedding"
	"wayfinder-backend/infrastructure/messaging"
	"wayfinder-backend/infrastructure/messaging/eventbridge"
	dynamorepo "wayfinder-backend/infrastructure/persistence/dynamodb"
	memoryrepo "wayfinder-backend/infrastructure/persistence/memory"
	"wayfinder-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideNodeReader selects the node repository. Development runs against
// the in-memory repository; everything else hits DynamoDB.
func ProvideNodeReader(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.NodeReader {
	if cfg.IsDevelopment() {
		return memoryrepo.NewNodeRepository()
	}
	return dynamorepo.NewNodeRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideEventBus creates an event bus. Development logs events locally
// instead of publishing to EventBridge.
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	if cfg.IsDevelopment() {
		return messaging.NewLogBus(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideCollector creates the Prometheus metrics collector
func ProvideCollector(cfg *config.Config) *observability.Collector {
	namespace := fmt.Sprintf("wayfinder_%s", cfg.Environment)
	return observability.NewCollector(namespace)
}

// ProvideMetricsSink exposes the collector as the router's metrics sink.
// With metrics disabled the router reports into a no-op.
func ProvideMetricsSink(collector *observability.Collector, cfg *config.Config) navigation.MetricsSink {
	if !cfg.EnableMetrics {
		return navigation.NopMetrics{}
	}
	return collector
}

// ProvideCache creates the in-memory LRU cache, decorated with hit/miss
// accounting when metrics are enabled.
func ProvideCache(cfg *config.Config, collector *observability.Collector, logger *zap.Logger) ports.Cache {
	inner := cache.NewMemoryCache(cfg.CacheMaxItems, int64(cfg.CacheMaxMemoryMB)<<20, logger)
	if !cfg.EnableMetrics {
		return inner
	}
	return cache.NewMetricsCache(inner, collector)
}

// ProvideAccessPolicy creates the access predicate
func ProvideAccessPolicy() ports.AccessPolicy {
	return domainservices.NewAccessPolicy()
}

// ProvideEmbedder creates the content embedder
func ProvideEmbedder() ports.Embedder {
	return embedding.NewTextEmbedder()
}

// ProvideEmbeddingIndex creates the similarity index behind a circuit
// breaker so a misbehaving index degrades to scan fallback.
func ProvideEmbeddingIndex(nodes ports.NodeReader, logger *zap.Logger) ports.EmbeddingIndex {
	return embedding.NewBreakerIndex(embedding.NewScanIndex(nodes, logger), logger)
}

// ProvideRoutingDefaults loads the routing defaults, from the routing
// file when configured.
func ProvideRoutingDefaults(cfg *config.Config, logger *zap.Logger) services.RoutingDefaults {
	if cfg.RoutingConfigPath == "" {
		return services.DefaultRoutingDefaults()
	}
	defaults, err := config.LoadRoutingDefaults(cfg.RoutingConfigPath)
	if err != nil {
		logger.Warn("routing config load failed, using defaults",
			zap.String("path", cfg.RoutingConfigPath),
			zap.Error(err),
		)
		return services.DefaultRoutingDefaults()
	}
	return defaults
}

// ProvideTransitionsService creates the manual transitions service
func ProvideTransitionsService(nodes ports.NodeReader, access ports.AccessPolicy, logger *zap.Logger) *services.TransitionsService {
	return services.NewTransitionsService(nodes, access, logger)
}

// ProvideCompassService creates the similarity suggestion service
func ProvideCompassService(
	nodes ports.NodeReader,
	access ports.AccessPolicy,
	cache ports.Cache,
	index ports.EmbeddingIndex,
	embedder ports.Embedder,
	logger *zap.Logger,
) *services.CompassService {
	return services.NewCompassService(nodes, access, cache, index, embedder, services.DefaultCompassConfig(), logger)
}

// ProvideEchoService creates the collaborative trail service
func ProvideEchoService(nodes ports.NodeReader, access ports.AccessPolicy, logger *zap.Logger) *services.EchoService {
	return services.NewEchoService(nodes, access, logger)
}

// ProvideExploreService creates the random exploration service
func ProvideExploreService(nodes ports.NodeReader, access ports.AccessPolicy, logger *zap.Logger) *services.ExploreService {
	return services.NewExploreService(nodes, access, logger)
}

// ProvideNavigationService creates the navigation entry point
func ProvideNavigationService(
	nodes ports.NodeReader,
	cache ports.Cache,
	bus ports.EventBus,
	metrics navigation.MetricsSink,
	manual *services.TransitionsService,
	compass *services.CompassService,
	echo *services.EchoService,
	explore *services.ExploreService,
	defaults services.RoutingDefaults,
	logger *zap.Logger,
) *services.NavigationService {
	return services.NewNavigationService(nodes, cache, bus, metrics, manual, compass, echo, explore, defaults, logger)
}
