// Package sign wraps secp256k1 recoverable signatures and Ethereum-style
// address derivation. Signatures are the wire format required throughout
// the ledger: 65 bytes of r (32) || s (32) || v (1), v in {27, 28}.
package sign

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"
)

// PrivateKey is a 32-byte secp256k1 scalar, loaded once at startup from
// env or file and held for the node's lifetime.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// GenerateKey produces a fresh random private key, for tests and the
// faucet's throwaway signer.
func GenerateKey() (*PrivateKey, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("sign: generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// ParsePrivateKey loads a private key from its raw 32-byte scalar.
func ParsePrivateKey(raw []byte) (*PrivateKey, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("sign: private key must be 32 bytes, got %d", len(raw))
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	return &PrivateKey{key: key}, nil
}

// Bytes returns the raw 32-byte scalar.
func (p *PrivateKey) Bytes() []byte { return p.key.Serialize() }

// Address derives this key's 20-byte Ethereum-style address.
func (p *PrivateKey) Address() [20]byte {
	return addressFromPubkey(p.key.PubKey())
}

// Sign produces a 65-byte recoverable signature over msgHash: r (32) || s
// (32) || v (1). The underlying library normalizes s to the lower half of
// the curve order and flips the recovery id accordingly before v is
// derived, matching the canonical recoverable-ECDSA convention used
// throughout the system.
func (p *PrivateKey) Sign(msgHash [32]byte) ([65]byte, error) {
	var out [65]byte
	compact := ecdsa.SignCompact(p.key, msgHash[:], false)
	if len(compact) != 65 {
		return out, fmt.Errorf("sign: unexpected compact signature length %d", len(compact))
	}
	// compact is [header(27+recid) || r(32) || s(32)]; reorder to r || s || v.
	copy(out[0:32], compact[1:33])
	copy(out[32:64], compact[33:65])
	out[64] = compact[0]
	return out, nil
}

// Recover recovers the 20-byte address behind a 65-byte recoverable
// signature over msgHash. It fails if v is not 27 or 28 or the signature
// does not recover to a valid point.
func Recover(sig [65]byte, msgHash [32]byte) ([20]byte, error) {
	var addr [20]byte
	v := sig[64]
	if v != 27 && v != 28 {
		return addr, fmt.Errorf("sign: invalid recovery id %d", v)
	}
	var compact [65]byte
	compact[0] = v
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])

	pubkey, _, err := ecdsa.RecoverCompact(compact[:], msgHash[:])
	if err != nil {
		return addr, fmt.Errorf("sign: recover: %w", err)
	}
	return addressFromPubkey(pubkey), nil
}

// addressFromPubkey derives the low 160 bits of Keccak256 over the
// uncompressed public key encoding, excluding the leading 0x04 byte.
func addressFromPubkey(pub *btcec.PublicKey) [20]byte {
	var addr [20]byte
	uncompressed := pub.SerializeUncompressed()
	h := sha3.NewLegacyKeccak256()
	h.Write(uncompressed[1:])
	sum := h.Sum(nil)
	copy(addr[:], sum[len(sum)-20:])
	return addr
}
