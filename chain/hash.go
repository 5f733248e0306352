package chain

import (
	"bytes"
	"encoding/binary"
	"io"
	"strconv"

	"golang.org/x/crypto/sha3"
)

// Encoder is anything with a canonical binary encoding, per encode.go.
type Encoder interface {
	Encode(w io.Writer) error
}

func keccak256(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// H computes Keccak256 over the canonical encoding of v.
func H(v Encoder) [32]byte {
	var buf bytes.Buffer
	if err := v.Encode(&buf); err != nil {
		// Encode over a bytes.Buffer never fails; a failure here means a
		// caller handed us a type whose Encode does real I/O, which is a
		// programming error.
		panic("chain: encode into buffer failed: " + err.Error())
	}
	return keccak256(buf.Bytes())
}

// HEip191 computes Keccak256 over the Ethereum Signed Message envelope
// wrapping the canonical encoding of v: "\x19Ethereum Signed
// Message:\n" || decimal_ascii(len(encode(v))) || encode(v).
func HEip191(v Encoder) [32]byte {
	var buf bytes.Buffer
	if err := v.Encode(&buf); err != nil {
		panic("chain: encode into buffer failed: " + err.Error())
	}
	body := buf.Bytes()
	prefix := []byte("\x19Ethereum Signed Message:\n" + strconv.Itoa(len(body)))
	return keccak256(prefix, body)
}

// SignableHash is the message that input signatures cover and that
// CheckSigVerify recomputes: H_eip191 over the transaction with every
// input's signature script blanked to empty. It is not the transaction
// identifier; outpoints and mempool keys use HEip191(tx) over the
// unblanked encoding.
func (tx Transaction) SignableHash() [32]byte {
	var buf bytes.Buffer
	if err := tx.encode(&buf, true); err != nil {
		panic("chain: encode into buffer failed: " + err.Error())
	}
	body := buf.Bytes()
	prefix := []byte("\x19Ethereum Signed Message:\n" + strconv.Itoa(len(body)))
	return keccak256(prefix, body)
}

// FreshObjectID derives the object identifier for an output in Fresh mode
// at position outputIndex within a transaction with the given inputs:
// Keccak256(concat over inputs of [outpoint.txid || LE_u32(outpoint.index)]
// || LE_u32(outputIndex)). Note the index fields are serialized as
// little-endian u32 here even though Outpoint.Index is a u64; this
// inconsistency is part of the wire identity and must be preserved.
func FreshObjectID(inputs []TransactionInput, outputIndex uint32) [32]byte {
	var buf bytes.Buffer
	for _, in := range inputs {
		buf.Write(in.Outpoint.TxID[:])
		var idx [4]byte
		binary.LittleEndian.PutUint32(idx[:], uint32(in.Outpoint.Index))
		buf.Write(idx[:])
	}
	var outIdx [4]byte
	binary.LittleEndian.PutUint32(outIdx[:], outputIndex)
	buf.Write(outIdx[:])
	return keccak256(buf.Bytes())
}
