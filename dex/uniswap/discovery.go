package uniswap

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/michaelpento.lv/arbscan/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DiscoveryOptions controls factory pagination
type DiscoveryOptions struct {
	BatchSize       int64
	BatchCountLimit int
	Logger          *zap.Logger
}

// Discover enumerates every factory and returns the pairs that trade base
// against a token not in blacklist. Factories are paged concurrently; the
// result keeps factory order and drops pair addresses already seen.
func Discover(
	ctx context.Context,
	ledger dex.Ledger,
	factories []types.Factory,
	base common.Address,
	blacklist []common.Address,
	opts DiscoveryOptions,
) ([]*Pair, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	banned := make(map[common.Address]struct{}, len(blacklist))
	for _, token := range blacklist {
		banned[token] = struct{}{}
	}

	perFactory := make([][]*Pair, len(factories))
	g, gctx := errgroup.WithContext(ctx)
	for i, factory := range factories {
		i, factory := i, factory
		g.Go(func() error {
			pairs, err := discoverFactory(gctx, ledger, factory, base, banned, opts)
			if err != nil {
				return fmt.Errorf("factory %s: %w", factory.Name, err)
			}
			logger.Info("Discovered pairs",
				zap.String("factory", factory.Name),
				zap.String("address", factory.Address.Hex()),
				zap.Int("pairs", len(pairs)))
			perFactory[i] = pairs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[common.Address]struct{})
	var all []*Pair
	for _, pairs := range perFactory {
		for _, pair := range pairs {
			if _, dup := seen[pair.Address()]; dup {
				continue
			}
			seen[pair.Address()] = struct{}{}
			all = append(all, pair)
		}
	}
	return all, nil
}

func discoverFactory(
	ctx context.Context,
	ledger dex.Ledger,
	factory types.Factory,
	base common.Address,
	banned map[common.Address]struct{},
	opts DiscoveryOptions,
) ([]*Pair, error) {
	var pairs []*Pair
	for page := 0; page < opts.BatchCountLimit; page++ {
		start := int64(page) * opts.BatchSize
		batch, err := ledger.PairsByIndexRange(ctx, factory.Address, start, start+opts.BatchSize)
		if err != nil {
			return nil, err
		}

		for _, info := range batch {
			var token common.Address
			switch base {
			case info.Token0:
				token = info.Token1
			case info.Token1:
				token = info.Token0
			default:
				continue
			}
			if token == base {
				continue
			}
			if _, ok := banned[token]; ok {
				continue
			}

			pair, err := NewPair(factory.Name, info.Address, info.Token0, info.Token1, factory.Fee, factory.FeePrecision)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair)
		}

		if int64(len(batch)) < opts.BatchSize {
			break
		}
	}
	return pairs, nil
}
