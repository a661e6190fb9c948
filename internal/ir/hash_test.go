package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIDKnownValues(t *testing.T) {
	// Fixed values pin the id scheme; every persisted index depends on them.
	tests := []struct {
		key  ItemKey
		want KeyID
	}{
		{"a", 919145239626757800},
		{"", -3162216497309240828},
		{`//ldml/localeDisplayNames/languages/language[@type="fr"]`, -4607710761656270498},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.want, KeyIDOf(tt.key))
		})
	}
}

func TestKeyIDDeterminism(t *testing.T) {
	key := ItemKey(`//ldml/dates/timeZoneNames/zone[@type="America/Los_Angeles"]/exemplarCity`)

	assert.Equal(t, KeyIDOf(key), KeyIDOf(key), "KeyID must be deterministic")
}

func TestKeyIDUsesExactText(t *testing.T) {
	// No normalization: composed and decomposed forms are different keys.
	composed := ItemKey("caf\u00e9")
	decomposed := ItemKey("cafe\u0301")

	assert.NotEqual(t, KeyIDOf(composed), KeyIDOf(decomposed))
	assert.NotEqual(t, KeyIDOf("key"), KeyIDOf("key "))
}

func TestKeyIDInjectiveOverGeneratedCorpus(t *testing.T) {
	const n = 20000

	reg := NewKeyRegistry(nil)
	ids := make(map[KeyID]struct{}, n)
	for i := 0; i < n; i++ {
		key := ItemKey(fmt.Sprintf(`//ldml/units/unitLength[@type="long"]/unit[@type="u%05d"]/unitPattern[@count="%d"]`, i, i%7))
		id, err := reg.Register(key)
		require.NoError(t, err, "generated key %d collided", i)
		ids[id] = struct{}{}
	}

	assert.Len(t, ids, n)
}

func TestKeyRegistryReRegisterIsNoOp(t *testing.T) {
	reg := NewKeyRegistry(nil)

	id1, err := reg.Register("a")
	require.NoError(t, err)
	id2, err := reg.Register("a")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, KeyIDOf("a"), id1)
	assert.Len(t, reg.byID, 1)
}

func TestKeyRegistryDetectsCollision(t *testing.T) {
	// Real MD5 prefix collisions are impractical to construct, so seed the
	// registry with a foreign key under a known id.
	reg := NewKeyRegistry(nil)
	id := KeyIDOf("b")
	reg.byID[id] = "not-b"

	_, err := reg.Register("b")
	require.Error(t, err)
	assert.True(t, IsKeyCollision(err))

	var ce *KeyCollisionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, id, ce.ID)
	assert.Equal(t, ItemKey("not-b"), ce.Existing)
	assert.Equal(t, ItemKey("b"), ce.Incoming)
	assert.Contains(t, err.Error(), "key collision")
}

func TestKeyRegistryCustomHash(t *testing.T) {
	reg := NewKeyRegistry(func(ItemKey) KeyID { return 7 })

	id, err := reg.Register("x")
	require.NoError(t, err)
	assert.Equal(t, KeyID(7), id)

	_, err = reg.Register("y")
	var ce *KeyCollisionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ItemKey("x"), ce.Existing)
	assert.Equal(t, ItemKey("y"), ce.Incoming)
}

func TestIsKeyCollisionWrapped(t *testing.T) {
	err := fmt.Errorf("resolve fr: %w", &KeyCollisionError{ID: 1, Existing: "x", Incoming: "y"})
	assert.True(t, IsKeyCollision(err))
	assert.False(t, IsKeyCollision(fmt.Errorf("other")))
}
