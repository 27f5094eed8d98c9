package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForPool_Deterministic(t *testing.T) {
	t.Parallel()

	a := ForPool(1)
	b := ForPool(1)

	require.Equal(t, a.Address, b.Address)
	assert.Equal(t, PoolTag, a.Tag)
	assert.True(t, IsDerived(a.Address))
	assert.True(t, a.Controls(a.Address))
}

func TestForPool_CollisionFree(t *testing.T) {
	t.Parallel()

	seen := make(map[string]uint64)
	for id := uint64(1); id <= 2000; id++ {
		addr := ForPool(id).Address
		if prev, ok := seen[addr]; ok {
			t.Fatalf("pool %d and %d share escrow address %s", prev, id, addr)
		}

		seen[addr] = id
	}
}

func TestDerive_SeedBoundaries(t *testing.T) {
	t.Parallel()

	a := Derive("tag", []byte("ab"), []byte("c"))
	b := Derive("tag", []byte("a"), []byte("bc"))
	c := Derive("other", []byte("ab"), []byte("c"))

	assert.NotEqual(t, a.Address, b.Address)
	assert.NotEqual(t, a.Address, c.Address)
}

func TestAuthority_Controls_RejectsForgery(t *testing.T) {
	t.Parallel()

	pool1 := ForPool(1)
	pool2 := ForPool(2)

	tests := []struct {
		name string
		auth Authority
		addr string
		want bool
	}{
		{name: "own_address", auth: pool1, addr: pool1.Address, want: true},
		{name: "other_pool_address", auth: pool1, addr: pool2.Address, want: false},
		{name: "address_field_swapped", auth: Authority{Address: pool2.Address, Tag: PoolTag, Seeds: pool1.Seeds}, addr: pool2.Address, want: false},
		{name: "wrong_tag", auth: Authority{Address: pool1.Address, Tag: "x", Seeds: pool1.Seeds}, addr: pool1.Address, want: false},
		{name: "empty_tag", auth: Authority{Address: pool1.Address, Seeds: pool1.Seeds}, addr: pool1.Address, want: false},
		{name: "player_address", auth: pool1, addr: "alice", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.auth.Controls(tt.addr))
		})
	}
}

func TestDerive_CopiesSeeds(t *testing.T) {
	t.Parallel()

	seed := []byte{1, 2, 3}
	a := Derive("tag", seed)
	seed[0] = 9

	assert.True(t, a.Controls(a.Address))
}

func TestIsDerived(t *testing.T) {
	t.Parallel()

	addr := ForPool(7).Address

	assert.True(t, IsDerived(addr))
	assert.False(t, IsDerived("alice"))
	assert.False(t, IsDerived(""))
	// flip the last character to break the checksum
	last := addr[len(addr)-1]
	repl := byte('2')
	if last == repl {
		repl = '3'
	}
	assert.False(t, IsDerived(addr[:len(addr)-1]+string(repl)))
}
