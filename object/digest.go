// Package object interprets data scripts against an object's claim
// multiset, the mutation engine behind committed Object outputs.
package object

import (
	"bytes"

	"github.com/Quible-Network/quible-node/chain/script"
)

// Row is the mutable state of an object: a multiset of byte-string claims
// plus a certificate TTL. Claims keeps duplicates, so []byte{1,2,3}
// inserted twice and deleted once leaves one copy behind.
type Row struct {
	Claims  [][]byte
	CertTTL uint64
}

// NewRow returns the state of a freshly created object, per §4.6.
func NewRow() Row { return Row{Claims: nil, CertTTL: 86400} }

// Apply interprets ds against row and returns the resulting state. Opcodes
// outside the data-script vocabulary (the auth-script opcodes) are
// no-ops, mirroring the pubkey script's tolerance of unrecognized codes.
func Apply(row Row, ds script.Script) Row {
	for _, op := range ds {
		switch op.Code {
		case script.OpInsert:
			row.Claims = append(row.Claims, op.Data)
		case script.OpDelete:
			row.Claims = deleteOne(row.Claims, op.Data)
		case script.OpDeleteAll:
			row.Claims = nil
		case script.OpSetCertTTL:
			row.CertTTL = op.N
		}
	}
	return row
}

// deleteOne removes a single occurrence of target from claims, per the
// multiset semantics in §3.
func deleteOne(claims [][]byte, target []byte) [][]byte {
	for i, c := range claims {
		if bytes.Equal(c, target) {
			return append(claims[:i], claims[i+1:]...)
		}
	}
	return claims
}

// HasClaim reports whether claim is present in row's multiset.
func HasClaim(row Row, claim []byte) bool {
	for _, c := range row.Claims {
		if bytes.Equal(c, claim) {
			return true
		}
	}
	return false
}
