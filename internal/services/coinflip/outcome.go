package coinflip

import (
	"crypto/sha256"

	"github.com/fastprodman/coinflip/internal/escrow"
	"github.com/fastprodman/coinflip/internal/oracle"
)

var outcomeTag = []byte("coinflip-outcome")

// OutcomeBit maps the oracle output for poolID to a side. The whole output is
// hashed together with the pool id, so one published value never decides two
// pools the same way by construction.
func OutcomeBit(poolID uint64, r [oracle.RandomnessSize]byte) uint8 {
	h := sha256.New()
	h.Write(outcomeTag)
	h.Write(escrow.PoolSeed(poolID))
	h.Write(r[:])

	return h.Sum(nil)[0] & 1
}
