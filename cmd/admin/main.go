// Command admin provisions the backing table.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"docstore/internal/store"
	"docstore/pkg/config"
	"docstore/pkg/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		os.Stderr.WriteString("failed to create logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("failed to load AWS configuration", zap.Error(err))
	}
	client := dynamodb.NewFromConfig(awsCfg)

	logger.Info("creating table",
		zap.String("table", cfg.TableName),
		zap.String("region", cfg.AWSRegion))

	if err := store.CreateTable(ctx, client, cfg.TableName); err != nil {
		logger.Fatal("failed to create table", zap.Error(err))
	}
	logger.Info("table ready", zap.String("table", cfg.TableName))
}
