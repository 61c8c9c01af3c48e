package math

import (
	"math/big"
)

// Clone returns a copy of x. A nil x yields zero.
func Clone(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}

// Midpoint returns floor((a + b) / 2)
func Midpoint(a, b *big.Int) *big.Int {
	mid := new(big.Int).Add(a, b)
	return mid.Rsh(mid, 1)
}

// Fraction returns x * num / den, truncated.
// Panics if den is zero.
func Fraction(x *big.Int, num, den int64) *big.Int {
	out := new(big.Int).Mul(x, big.NewInt(num))
	return out.Quo(out, big.NewInt(den))
}

// Max returns the larger of x and y
func Max(x, y *big.Int) *big.Int {
	if x.Cmp(y) >= 0 {
		return x
	}
	return y
}

// IsAscending reports whether values are strictly increasing
func IsAscending(values []*big.Int) bool {
	for i := 1; i < len(values); i++ {
		if values[i].Cmp(values[i-1]) <= 0 {
			return false
		}
	}
	return true
}

// Chunk splits n items into consecutive [start, end) ranges of at most size items
func Chunk(n, size int) [][2]int {
	if size <= 0 || n <= 0 {
		return nil
	}
	chunks := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, [2]int{start, end})
	}
	return chunks
}
