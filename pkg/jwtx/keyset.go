package jwtx

import (
	"crypto"
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the public verification keys by kid.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]crypto.PublicKey
}

func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]crypto.PublicKey)}
}

// AddSigner registers the public half of s.
func (k *KeySet) AddSigner(s Signer) {
	k.Add(s.KID(), s.Public())
}

func (k *KeySet) Add(kid string, pub crypto.PublicKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[kid] = pub
}

// Get returns the public key for the given kid.
func (k *KeySet) Get(kid string) (crypto.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}
