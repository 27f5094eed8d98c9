// Package escrow derives the custodial addresses that hold pool stakes.
//
// An escrow address has no private key. It is computed from a domain tag and a
// list of seeds, and the same (tag, seeds) pair is the only proof accepted for
// moving funds out of it:
//
//	addr = base58(version || ripemd160(sha256(addrSeed || tag || seeds...)) || checksum)
//
// where checksum is the first four bytes of sha256(sha256(version || hash160)).
package escrow

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/decred/base58"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck
)

// PoolTag is the domain tag of pool escrow authorities.
const PoolTag = "coinflip-authority"

// DerivedVersion prefixes every derived address so it can never be mistaken
// for a player address.
const DerivedVersion byte = 0x1c

const maxTagLength = 64

var addrSeed = []byte("coinflip derived address seed")

var addressCache *lru.Cache

func init() {
	addressCache, _ = lru.New(10240)
}

// Authority proves control of a derived address by carrying the inputs it
// was derived from.
type Authority struct {
	Address string
	Tag     string
	Seeds   [][]byte
}

// Derive computes the authority for (tag, seeds).
func Derive(tag string, seeds ...[]byte) Authority {
	if len(tag) > maxTagLength {
		panic("escrow: tag too long")
	}

	cp := make([][]byte, len(seeds))
	for i, s := range seeds {
		cp[i] = append([]byte(nil), s...)
	}

	return Authority{
		Address: address(tag, cp),
		Tag:     tag,
		Seeds:   cp,
	}
}

// ForPool returns the escrow authority of poolID.
func ForPool(poolID uint64) Authority {
	return Derive(PoolTag, PoolSeed(poolID))
}

// PoolSeed encodes poolID the way it is fed into derivation (little endian).
func PoolSeed(poolID uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], poolID)

	return b[:]
}

// Controls reports whether a proves control of addr. The address is always
// re-derived; the cached Address field is never trusted on its own.
func (a Authority) Controls(addr string) bool {
	if a.Tag == "" || len(a.Tag) > maxTagLength {
		return false
	}

	derived := address(a.Tag, a.Seeds)

	return derived == addr && derived == a.Address
}

// Identity returns the derived address.
func (a Authority) Identity() string { return a.Address }

// IsDerived reports whether addr is a well-formed derived address.
func IsDerived(addr string) bool {
	dec := base58.Decode(addr)
	if len(dec) != 25 || dec[0] != DerivedVersion {
		return false
	}

	sum := checksum(dec[:21])

	return bytes.Equal(sum[:], dec[21:])
}

func address(tag string, seeds [][]byte) string {
	key := cacheKey(tag, seeds)
	if v, ok := addressCache.Get(key); ok {
		return v.(string)
	}

	h := sha256.New()
	h.Write(addrSeed)
	h.Write([]byte(tag))

	for _, s := range seeds {
		// length prefix keeps ("ab","c") and ("a","bc") apart
		var l [4]byte
		binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
		h.Write(l[:])
		h.Write(s)
	}

	r := ripemd160.New()
	r.Write(h.Sum(nil))

	var raw [25]byte
	raw[0] = DerivedVersion
	copy(raw[1:21], r.Sum(nil))
	sum := checksum(raw[:21])
	copy(raw[21:], sum[:])

	addr := base58.Encode(raw[:])
	addressCache.Add(key, addr)

	return addr
}

func checksum(b []byte) [4]byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])

	var out [4]byte
	copy(out[:], second[:4])

	return out
}

func cacheKey(tag string, seeds [][]byte) string {
	var sb strings.Builder
	sb.WriteString(tag)

	for _, s := range seeds {
		sb.WriteByte('/')
		sb.WriteString(hex.EncodeToString(s))
	}

	return sb.String()
}
