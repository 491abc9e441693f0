// Package di wires the engine's components together.
package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"docstore/internal/attributes"
	"docstore/internal/dates"
	"docstore/internal/documents"
	"docstore/internal/folders"
	"docstore/internal/store"
	"docstore/pkg/config"
	"docstore/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      store.Store
	Documents  *documents.Service
	Folders    *folders.Service
	Dates      *dates.Service
	Attributes *attributes.Service
	Metrics    *observability.Metrics
	Watcher    *config.Watcher
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.LogLevel, cfg.Environment)
}

// ProvideAWSConfig loads the default AWS configuration.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client.
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the Prometheus collectors.
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics()
}

// ProvideStore creates the DynamoDB-backed store.
func ProvideStore(client *awsdynamodb.Client, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) store.Store {
	return store.NewDynamoStore(client, cfg.TableName, logger).
		WithInstrumentation(metrics)
}

// ProvideFolderService creates the folder index service.
func ProvideFolderService(s store.Store, limits config.Limiter, metrics *observability.Metrics, logger *zap.Logger) *folders.Service {
	return folders.NewService(s, logger).
		WithLimits(limits).
		WithMetrics(metrics)
}

// ProvideDateService creates the date bucket service.
func ProvideDateService(s store.Store, logger *zap.Logger) *dates.Service {
	return dates.NewService(s, logger)
}

// ProvideAttributeService creates the attribute service.
func ProvideAttributeService(s store.Store, logger *zap.Logger) *attributes.Service {
	return attributes.NewService(s, logger)
}

// ProvideDocumentService creates the document service.
func ProvideDocumentService(s store.Store, f *folders.Service, d *dates.Service, cfg *config.Config, limits config.Limiter, metrics *observability.Metrics, logger *zap.Logger) *documents.Service {
	return documents.NewService(s, f, d, cfg.ActivityShards, logger).
		WithLimits(limits).
		WithMetrics(metrics)
}

// ProvideWatcher creates the dynamic config watcher, or nil when no
// dynamic config file is configured.
func ProvideWatcher(cfg *config.Config, logger *zap.Logger) (*config.Watcher, error) {
	if cfg.DynamicConfigPath == "" {
		return nil, nil
	}
	w, err := config.NewWatcher(cfg.DynamicConfigPath, logger)
	if err != nil {
		return nil, err
	}
	w.Start()
	return w, nil
}

// ProvideLimits exposes the watcher as the active limit source, falling
// back to fixed defaults when no dynamic config file is configured.
func ProvideLimits(w *config.Watcher) config.Limiter {
	if w == nil {
		return config.NewStaticLimits(nil)
	}
	return w
}
