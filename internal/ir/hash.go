package ir

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
)

// KeyID is the compact 64-bit identity of an ItemKey in persisted data.
type KeyID int64

// KeyIDOf computes the KeyID of an item key.
// Format: first 8 bytes of MD5(UTF-8 key text), read as a big-endian int64.
//
// The id is computed over the exact key text with no normalization, so two
// keys that differ in any byte get independent ids. This is the id scheme
// readers of the outdated index already expect; changing it invalidates
// every index file written so far.
func KeyIDOf(key ItemKey) KeyID {
	sum := md5.Sum([]byte(key))
	return KeyID(binary.BigEndian.Uint64(sum[:8]))
}

// KeyCollisionError reports two distinct keys that hash to the same KeyID.
// A collision is fatal: the persisted index could not tell the keys apart.
type KeyCollisionError struct {
	ID       KeyID
	Existing ItemKey
	Incoming ItemKey
}

// Error implements the error interface.
func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("key collision: %q and %q share id %d", e.Incoming, e.Existing, e.ID)
}

// IsKeyCollision returns true if err is (or wraps) a KeyCollisionError.
func IsKeyCollision(err error) bool {
	var ce *KeyCollisionError
	return errors.As(err, &ce)
}

// KeyRegistry tracks the keys seen under each KeyID so collisions are caught
// before anything is persisted.
type KeyRegistry struct {
	hash func(ItemKey) KeyID
	byID map[KeyID]ItemKey
}

// NewKeyRegistry returns an empty registry that ids keys with hash.
// A nil hash means KeyIDOf.
func NewKeyRegistry(hash func(ItemKey) KeyID) *KeyRegistry {
	if hash == nil {
		hash = KeyIDOf
	}
	return &KeyRegistry{hash: hash, byID: make(map[KeyID]ItemKey)}
}

// Register records key and returns its id.
// Registering the same key again is a no-op. A different key with the same
// id returns a *KeyCollisionError.
func (r *KeyRegistry) Register(key ItemKey) (KeyID, error) {
	id := r.hash(key)
	if existing, ok := r.byID[id]; ok && existing != key {
		return id, &KeyCollisionError{ID: id, Existing: existing, Incoming: key}
	}
	r.byID[id] = key
	return id, nil
}
