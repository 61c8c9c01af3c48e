package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// Factory describes a Uniswap V2 style pair factory and the swap fee its
// pairs charge, expressed as Fee/FeePrecision of the input that is kept
// (997/1000 for a 0.3% fee).
type Factory struct {
	Name         string
	Address      common.Address
	Fee          int64
	FeePrecision int64
}

// PairInfo is one entry returned by the lookup contract's pair enumeration
type PairInfo struct {
	Token0  common.Address
	Token1  common.Address
	Address common.Address
}

// Contains reports whether token is one of the pair's tokens
func (p PairInfo) Contains(token common.Address) bool {
	return p.Token0 == token || p.Token1 == token
}
