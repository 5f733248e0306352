// Package cert issues signed certificates attesting that an object
// currently carries a given claim.
package cert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"go.etcd.io/bbolt"
	"golang.org/x/crypto/sha3"

	"github.com/Quible-Network/quible-node/object"
	"github.com/Quible-Network/quible-node/sign"
	"github.com/Quible-Network/quible-node/store"
)

func keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ErrClaimNotFound is returned when the object does not exist or does not
// currently carry the requested claim.
var ErrClaimNotFound = errors.New("cert: could not find identity or claim")

// Details is the signed payload of a certificate: the object, the claim
// attested, and its expiry. ExpiresAt is always math.MaxUint64 in this
// version; real expiration policy is a known simplification.
type Details struct {
	ObjectID  [32]byte
	Claim     []byte
	ExpiresAt uint64
}

// Encode writes the canonical encoding of Details, the same
// length-prefixed little-endian scheme used throughout chain, so its hash
// is computed the same way transaction and header hashes are.
func (d Details) Encode(w io.Writer) error {
	if _, err := w.Write(d.ObjectID[:]); err != nil {
		return err
	}
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(d.Claim)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	if _, err := w.Write(d.Claim); err != nil {
		return err
	}
	var expires [8]byte
	binary.LittleEndian.PutUint64(expires[:], d.ExpiresAt)
	_, err := w.Write(expires[:])
	return err
}

// Certificate is the response to requestCertificate: the signed details
// plus the 65-byte recoverable signature over H(details).
type Certificate struct {
	Details   Details
	Signature [65]byte
}

// Issuer issues certificates against the committed object state, signing
// with the node's own key.
type Issuer struct {
	store  *store.Store
	signer *sign.PrivateKey
}

// New constructs an Issuer.
func New(s *store.Store, signer *sign.PrivateKey) *Issuer {
	return &Issuer{store: s, signer: signer}
}

// hashDetails is kept local rather than calling chain.H so that cert does
// not need to depend on chain; the encoding is identical, matching the
// "certificate hashing is over canonical binary serialization, not JSON"
// behavior.
func hashDetails(d Details) [32]byte {
	var buf bytes.Buffer
	d.Encode(&buf)
	return keccak256(buf.Bytes())
}

// RequestCertificate implements §4.7: look up the object, verify the
// claim is currently held, sign, and return.
func (i *Issuer) RequestCertificate(objectID [32]byte, claim []byte) (Certificate, error) {
	var row object.Row
	err := i.store.View(func(tx *bbolt.Tx) error {
		r, ok, err := i.store.GetObject(tx, objectID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrClaimNotFound
		}
		row = r
		return nil
	})
	if err != nil {
		return Certificate{}, err
	}
	if !object.HasClaim(row, claim) {
		return Certificate{}, ErrClaimNotFound
	}

	details := Details{ObjectID: objectID, Claim: claim, ExpiresAt: math.MaxUint64}
	sig, err := i.signer.Sign(hashDetails(details))
	if err != nil {
		return Certificate{}, fmt.Errorf("cert: sign: %w", err)
	}
	return Certificate{Details: details, Signature: sig}, nil
}
