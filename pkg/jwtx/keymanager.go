package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	mrand "math/rand/v2"
)

// KeyManager owns the signing keys of one instance and the KeySet used to
// verify them.
//
// Keys come either from configured PEM material, shared by every instance,
// or are generated in memory at start-up. Ephemeral keys invalidate all
// access tokens on restart; refresh tokens are unaffected.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	signers []*Signer
}

type KeyManagerOptions struct {
	Issuer   string
	Audience []string

	// PrivateKeys are used as-is when non-empty.
	PrivateKeys []ed25519.PrivateKey

	// NumKeys is the number of ephemeral keys to generate when PrivateKeys
	// is empty. Clamped to [1, 10], default 3.
	NumKeys int
}

func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	keys := opts.PrivateKeys
	if len(keys) == 0 {
		n := opts.NumKeys
		if n <= 0 {
			n = 3
		}
		n = min(n, 10)
		for range n {
			_, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return nil, fmt.Errorf("jwtx: failed to generate key: %w", err)
			}
			keys = append(keys, priv)
		}
	}

	keyset := NewKeySet()
	signers := make([]*Signer, 0, len(keys))
	for i, key := range keys {
		s, err := NewSigner(key)
		if err != nil {
			return nil, fmt.Errorf("jwtx: signer %d: %w", i+1, err)
		}
		if err := keyset.AddJWK(s.PublicJWK()); err != nil {
			return nil, fmt.Errorf("jwtx: signer %d: %w", i+1, err)
		}
		signers = append(signers, s)
	}

	return &KeyManager{
		Verifier: NewVerifier(keyset, opts.Issuer, opts.Audience),
		KeySet:   keyset,
		signers:  signers,
	}, nil
}

// GetSigner returns one of the active signers at random.
func (km *KeyManager) GetSigner() *Signer {
	if len(km.signers) == 1 {
		return km.signers[0]
	}
	return km.signers[mrand.IntN(len(km.signers))]
}

func (km *KeyManager) NumSigners() int { return len(km.signers) }

func (km *KeyManager) IsReady() bool { return km.KeySet.IsReady() }
