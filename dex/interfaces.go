package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/types"
)

// Pricing errors. They are local to a single quote and never abort a scan.
var (
	ErrUnknownAsset          = errors.New("unknown asset")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrInvalidAmount         = errors.New("invalid amount")
)

// Ledger is the read side of the chain the scanner depends on
type Ledger interface {
	// PairsByIndexRange returns the pairs created by factory with index in [start, stop)
	PairsByIndexRange(ctx context.Context, factory common.Address, start, stop int64) ([]types.PairInfo, error)

	// ReservesByPairs returns the reserves of each pair, in request order
	ReservesByPairs(ctx context.Context, pairs []common.Address) ([]Reserves, error)

	// BlockNumber returns the latest block number
	BlockNumber(ctx context.Context) (uint64, error)
}

// Reserves represents token pair reserves
type Reserves struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// FetchError marks a failed call to the ledger. A scan cycle that hits one is
// abandoned and retried; every other error is treated as a bug.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err, returning nil for a nil err
func NewFetchError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Op: op, Err: err}
}

// IsFetchError reports whether err carries a *FetchError anywhere in its chain
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
