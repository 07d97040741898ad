package boc

import "math/big"

func hashToBigInt(h [32]byte) *big.Int {
	return new(big.Int).SetBytes(h[:])
}
