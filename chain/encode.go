package chain

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Quible-Network/quible-node/chain/script"
)

// Canonical binary encoding: fixed-width integers are little-endian,
// variable-length collections are length-prefixed with a u32 count, and
// sum-typed values encode their discriminant byte first. This is the wire
// identity consumed by H and H_eip191; changing field order here changes
// every hash in the system.

func (o Outpoint) Encode(w io.Writer) error {
	if _, err := w.Write(o.TxID[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, o.Index)
}

func decodeOutpoint(r io.Reader) (Outpoint, error) {
	var o Outpoint
	if _, err := io.ReadFull(r, o.TxID[:]); err != nil {
		return o, err
	}
	if err := binary.Read(r, binary.LittleEndian, &o.Index); err != nil {
		return o, err
	}
	return o, nil
}

func (id ObjectIdentifier) Encode(w io.Writer) error {
	if _, err := w.Write(id.Raw[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(id.Mode)}); err != nil {
		return err
	}
	if id.Mode == ObjectModeExisting {
		return binary.Write(w, binary.LittleEndian, id.PermitIndex)
	}
	return nil
}

func decodeObjectIdentifier(r io.Reader) (ObjectIdentifier, error) {
	var id ObjectIdentifier
	if _, err := io.ReadFull(r, id.Raw[:]); err != nil {
		return id, err
	}
	var mode [1]byte
	if _, err := io.ReadFull(r, mode[:]); err != nil {
		return id, err
	}
	id.Mode = ObjectMode(mode[0])
	if id.Mode == ObjectModeExisting {
		if err := binary.Read(r, binary.LittleEndian, &id.PermitIndex); err != nil {
			return id, err
		}
	}
	return id, nil
}

func (out TransactionOutput) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{byte(out.Kind)}); err != nil {
		return err
	}
	switch out.Kind {
	case OutputKindValue:
		if err := binary.Write(w, binary.LittleEndian, out.Value); err != nil {
			return err
		}
	case OutputKindObject:
		if err := out.ObjectID.Encode(w); err != nil {
			return err
		}
		if err := out.DataScript.Encode(w); err != nil {
			return err
		}
	default:
		return fmt.Errorf("chain: unknown output kind %d", out.Kind)
	}
	return out.PubkeyScript.Encode(w)
}

// DecodeTransactionOutput reads a single output previously written by
// TransactionOutput.Encode. Exported for the store package, which persists
// outputs individually inside UTXO rows rather than as part of a whole
// transaction.
func DecodeTransactionOutput(r io.Reader) (TransactionOutput, error) {
	var out TransactionOutput
	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return out, err
	}
	out.Kind = OutputKind(kind[0])
	switch out.Kind {
	case OutputKindValue:
		if err := binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
			return out, err
		}
	case OutputKindObject:
		id, err := decodeObjectIdentifier(r)
		if err != nil {
			return out, err
		}
		out.ObjectID = id
		ds, err := script.Decode(r)
		if err != nil {
			return out, err
		}
		out.DataScript = ds
	default:
		return out, fmt.Errorf("chain: unknown output kind %d", out.Kind)
	}
	pk, err := script.Decode(r)
	if err != nil {
		return out, err
	}
	out.PubkeyScript = pk
	return out, nil
}

func (in TransactionInput) Encode(w io.Writer) error {
	if err := in.Outpoint.Encode(w); err != nil {
		return err
	}
	return in.SignatureScript.Encode(w)
}

func decodeTransactionInput(r io.Reader) (TransactionInput, error) {
	var in TransactionInput
	op, err := decodeOutpoint(r)
	if err != nil {
		return in, err
	}
	in.Outpoint = op
	sig, err := script.Decode(r)
	if err != nil {
		return in, err
	}
	in.SignatureScript = sig
	return in, nil
}

// encode writes the canonical encoding of the transaction. When blankSigs
// is true, every input's signature script is written as empty regardless
// of its actual content; this is how the signable hash is computed.
func (tx Transaction) encode(w io.Writer, blankSigs bool) error {
	if _, err := w.Write([]byte{byte(tx.Version)}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(tx.Inputs))); err != nil {
		return err
	}
	for _, in := range tx.Inputs {
		if blankSigs {
			in = TransactionInput{Outpoint: in.Outpoint, SignatureScript: script.Script{}}
		}
		if err := in.Encode(w); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(tx.Outputs))); err != nil {
		return err
	}
	for _, out := range tx.Outputs {
		if err := out.Encode(w); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, tx.Locktime)
}

// Encode writes the canonical, non-blanked encoding of the transaction.
func (tx Transaction) Encode(w io.Writer) error { return tx.encode(w, false) }

// DecodeTransaction reads a transaction previously written by Encode.
func DecodeTransaction(r io.Reader) (Transaction, error) {
	var tx Transaction
	var version [1]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return tx, err
	}
	tx.Version = TransactionVersion(version[0])

	var inCount uint32
	if err := binary.Read(r, binary.LittleEndian, &inCount); err != nil {
		return tx, err
	}
	tx.Inputs = make([]TransactionInput, 0, inCount)
	for i := uint32(0); i < inCount; i++ {
		in, err := decodeTransactionInput(r)
		if err != nil {
			return tx, err
		}
		tx.Inputs = append(tx.Inputs, in)
	}

	var outCount uint32
	if err := binary.Read(r, binary.LittleEndian, &outCount); err != nil {
		return tx, err
	}
	tx.Outputs = make([]TransactionOutput, 0, outCount)
	for i := uint32(0); i < outCount; i++ {
		out, err := DecodeTransactionOutput(r)
		if err != nil {
			return tx, err
		}
		tx.Outputs = append(tx.Outputs, out)
	}

	if err := binary.Read(r, binary.LittleEndian, &tx.Locktime); err != nil {
		return tx, err
	}
	return tx, nil
}

func (h BlockHeader) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{byte(h.Version)}); err != nil {
		return err
	}
	if _, err := w.Write(h.PreviousBlockHeaderHash[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, h.Timestamp)
}

func DecodeBlockHeader(r io.Reader) (BlockHeader, error) {
	var h BlockHeader
	var version [1]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return h, err
	}
	h.Version = BlockHeaderVersion(version[0])
	if _, err := io.ReadFull(r, h.PreviousBlockHeaderHash[:]); err != nil {
		return h, err
	}
	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Timestamp); err != nil {
		return h, err
	}
	return h, nil
}
