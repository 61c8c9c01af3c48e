package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/dex/uniswap"
	"github.com/michaelpento.lv/arbscan/reporter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// dialLedger connects to the RPC endpoint and binds the lookup contract
func dialLedger(ctx context.Context, cfg *config.Config, log *zap.Logger) (*uniswap.FlashQuery, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to node: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RPCRateLimit.RequestsPerSecond), cfg.RPCRateLimit.BurstSize)
	ledger, err := uniswap.NewFlashQuery(cfg.LookupContract, client, limiter)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	log.Info("Connected to node",
		zap.String("chain", cfg.Chain),
		zap.String("rpc", cfg.RPCEndpoint),
		zap.String("lookup_contract", cfg.LookupContract.Hex()))
	return ledger, client, nil
}

// buildReporter assembles the console reporter and, when enabled, the
// Redis publisher. The returned cleanup closes any connection opened.
func buildReporter(ctx context.Context, cfg *config.Config, log *zap.Logger) (reporter.Reporter, func(), error) {
	tracker, err := reporter.NewTracker(cfg.Report.TrackerSize)
	if err != nil {
		return nil, nil, err
	}
	reporters := reporter.Multi{
		reporter.NewConsole(reporter.ConsoleOptions{
			Decimals: cfg.BaseDecimals,
			Places:   cfg.Report.DisplayPlaces,
			Tracker:  tracker,
		}, log),
	}

	cleanup := func() {}
	if cfg.Redis.Enabled {
		publisher, err := reporter.NewRedisPublisher(ctx, reporter.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		reporters = append(reporters, publisher)
		cleanup = func() {
			if err := publisher.Close(); err != nil {
				log.Warn("Failed to close redis publisher", zap.Error(err))
			}
		}
		log.Info("Publishing opportunities to redis",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("channel", cfg.Redis.Channel))
	}
	return reporters, cleanup, nil
}
