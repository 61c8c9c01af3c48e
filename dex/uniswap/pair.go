package uniswap

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/dex"
)

var one = big.NewInt(1)

// Pair represents a Uniswap V2 style constant-product pair
type Pair struct {
	protocol     string
	address      common.Address
	token0       common.Address
	token1       common.Address
	fee          *big.Int
	feePrecision *big.Int

	// both balances are swapped in as one snapshot
	reserves atomic.Pointer[dex.Reserves]
}

// NewPair creates a pair with zero reserves. The fee is the fraction of the
// input that is kept, fee/feePrecision, and must lie in (0, 1].
func NewPair(protocol string, address, token0, token1 common.Address, fee, feePrecision int64) (*Pair, error) {
	if token0 == token1 {
		return nil, fmt.Errorf("pair %s: token0 and token1 are both %s", address.Hex(), token0.Hex())
	}
	if feePrecision <= 0 || fee <= 0 || fee > feePrecision {
		return nil, fmt.Errorf("pair %s: fee %d/%d out of range", address.Hex(), fee, feePrecision)
	}

	p := &Pair{
		protocol:     protocol,
		address:      address,
		token0:       token0,
		token1:       token1,
		fee:          big.NewInt(fee),
		feePrecision: big.NewInt(feePrecision),
	}
	p.reserves.Store(&dex.Reserves{Reserve0: new(big.Int), Reserve1: new(big.Int)})
	return p, nil
}

// Protocol returns the name of the factory the pair was discovered from
func (p *Pair) Protocol() string { return p.protocol }

// Address returns the pair contract address
func (p *Pair) Address() common.Address { return p.address }

// Token0 returns the address of token0
func (p *Pair) Token0() common.Address { return p.token0 }

// Token1 returns the address of token1
func (p *Pair) Token1() common.Address { return p.token1 }

// Fee returns the fee numerator and precision
func (p *Pair) Fee() (fee, precision int64) {
	return p.fee.Int64(), p.feePrecision.Int64()
}

// Has reports whether token is traded by the pair
func (p *Pair) Has(token common.Address) bool {
	return token == p.token0 || token == p.token1
}

// OtherToken returns the counterpart of token in the pair
func (p *Pair) OtherToken(token common.Address) (common.Address, error) {
	switch token {
	case p.token0:
		return p.token1, nil
	case p.token1:
		return p.token0, nil
	}
	return common.Address{}, fmt.Errorf("%w: %s not in pair %s", dex.ErrUnknownAsset, token.Hex(), p.address.Hex())
}

// UpdateReserves replaces both balances at once. The arguments are copied.
func (p *Pair) UpdateReserves(reserve0, reserve1 *big.Int) {
	p.reserves.Store(&dex.Reserves{
		Reserve0: new(big.Int).Set(reserve0),
		Reserve1: new(big.Int).Set(reserve1),
	})
}

// Reserves returns copies of the current balances
func (p *Pair) Reserves() (reserve0, reserve1 *big.Int) {
	r := p.reserves.Load()
	return new(big.Int).Set(r.Reserve0), new(big.Int).Set(r.Reserve1)
}

// ReserveOf returns the pair's balance of token
func (p *Pair) ReserveOf(token common.Address) (*big.Int, error) {
	r := p.reserves.Load()
	switch token {
	case p.token0:
		return new(big.Int).Set(r.Reserve0), nil
	case p.token1:
		return new(big.Int).Set(r.Reserve1), nil
	}
	return nil, fmt.Errorf("%w: %s not in pair %s", dex.ErrUnknownAsset, token.Hex(), p.address.Hex())
}

// orient returns reserveIn and reserveOut from a single snapshot
func (p *Pair) orient(tokenIn, tokenOut common.Address) (reserveIn, reserveOut *big.Int, err error) {
	r := p.reserves.Load()
	switch {
	case tokenIn == p.token0 && tokenOut == p.token1:
		return r.Reserve0, r.Reserve1, nil
	case tokenIn == p.token1 && tokenOut == p.token0:
		return r.Reserve1, r.Reserve0, nil
	}
	return nil, nil, fmt.Errorf("%w: %s -> %s on pair %s", dex.ErrUnknownAsset, tokenIn.Hex(), tokenOut.Hex(), p.address.Hex())
}

// AmountOut returns how much tokenOut the pair delivers for amountIn of tokenIn
func (p *Pair) AmountOut(tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	reserveIn, reserveOut, err := p.orient(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	return p.GetAmountOut(amountIn, reserveIn, reserveOut)
}

// AmountIn returns the minimum amount of tokenIn needed to receive amountOut of tokenOut
func (p *Pair) AmountIn(tokenIn, tokenOut common.Address, amountOut *big.Int) (*big.Int, error) {
	reserveIn, reserveOut, err := p.orient(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	return p.GetAmountIn(amountOut, reserveIn, reserveOut)
}

// GetAmountOut calculates the output amount for a given input amount:
//
//	amountInWithFee = amountIn * fee
//	amountOut = amountInWithFee * reserveOut / (reserveIn * feePrecision + amountInWithFee)
func (p *Pair) GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount in %s", dex.ErrInvalidAmount, amountIn)
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, fmt.Errorf("%w: empty reserves on pair %s", dex.ErrInsufficientLiquidity, p.address.Hex())
	}
	if amountIn.Sign() == 0 {
		return new(big.Int), nil
	}

	amountInWithFee := new(big.Int).Mul(amountIn, p.fee)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, p.feePrecision)
	denominator.Add(denominator, amountInWithFee)

	return numerator.Quo(numerator, denominator), nil
}

// GetAmountIn calculates the input amount for a given output amount. The
// quotient is rounded up by one so the result always buys at least amountOut.
func (p *Pair) GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount out %s", dex.ErrInvalidAmount, amountOut)
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, fmt.Errorf("%w: empty reserves on pair %s", dex.ErrInsufficientLiquidity, p.address.Hex())
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("%w: want %s of reserve %s on pair %s", dex.ErrInsufficientLiquidity, amountOut, reserveOut, p.address.Hex())
	}

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, p.feePrecision)
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, p.fee)

	amountIn := numerator.Quo(numerator, denominator)
	return amountIn.Add(amountIn, one), nil
}

// String implements fmt.Stringer
func (p *Pair) String() string {
	return fmt.Sprintf("%s(%s)", p.protocol, p.address.Hex())
}
