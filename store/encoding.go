package store

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/object"
)

// Row encodings are private to this package; they are the on-disk format
// of bbolt values, distinct from the canonical wire encoding in chain.

func encodeUTXORow(row UTXORow) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(row.TxID[:])
	binary.Write(&buf, binary.LittleEndian, row.OutputIndex)
	if err := row.Output.Encode(&buf); err != nil {
		return nil, err
	}
	buf.Write(row.Owner[:])
	writeBool(&buf, row.HasOwner)
	writeBool(&buf, row.Spent)
	return buf.Bytes(), nil
}

func decodeUTXORow(raw []byte) (UTXORow, error) {
	r := bytes.NewReader(raw)
	var row UTXORow
	if _, err := io.ReadFull(r, row.TxID[:]); err != nil {
		return row, err
	}
	if err := binary.Read(r, binary.LittleEndian, &row.OutputIndex); err != nil {
		return row, err
	}
	out, err := chain.DecodeTransactionOutput(r)
	if err != nil {
		return row, err
	}
	row.Output = out
	if _, err := io.ReadFull(r, row.Owner[:]); err != nil {
		return row, err
	}
	hasOwner, err := readBool(r)
	if err != nil {
		return row, err
	}
	row.HasOwner = hasOwner
	spent, err := readBool(r)
	if err != nil {
		return row, err
	}
	row.Spent = spent
	return row, nil
}

func encodeObjectRow(row object.Row) ([]byte, error) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(row.Claims)))
	for _, c := range row.Claims {
		binary.Write(&buf, binary.LittleEndian, uint32(len(c)))
		buf.Write(c)
	}
	binary.Write(&buf, binary.LittleEndian, row.CertTTL)
	return buf.Bytes(), nil
}

func decodeObjectRow(raw []byte) (object.Row, error) {
	r := bytes.NewReader(raw)
	var row object.Row
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return row, err
	}
	row.Claims = make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return row, err
		}
		c := make([]byte, n)
		if _, err := io.ReadFull(r, c); err != nil {
			return row, err
		}
		row.Claims = append(row.Claims, c)
	}
	if err := binary.Read(r, binary.LittleEndian, &row.CertTTL); err != nil {
		return row, err
	}
	return row, nil
}

func encodeBlockRow(row BlockRow) ([]byte, error) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, row.Height)
	if err := row.Block.Header.Encode(&buf); err != nil {
		return nil, err
	}
	binary.Write(&buf, binary.LittleEndian, uint32(len(row.Block.Transactions)))
	for _, entry := range row.Block.Transactions {
		buf.Write(entry.Hash[:])
		if err := entry.Transaction.Encode(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeBlockRow(raw []byte) (BlockRow, error) {
	r := bytes.NewReader(raw)
	var row BlockRow
	if err := binary.Read(r, binary.LittleEndian, &row.Height); err != nil {
		return row, err
	}
	header, err := chain.DecodeBlockHeader(r)
	if err != nil {
		return row, err
	}
	row.Block.Header = header
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return row, err
	}
	row.Block.Transactions = make([]chain.TxEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var entry chain.TxEntry
		if _, err := io.ReadFull(r, entry.Hash[:]); err != nil {
			return row, err
		}
		tx, err := chain.DecodeTransaction(r)
		if err != nil {
			return row, err
		}
		entry.Transaction = tx
		row.Block.Transactions = append(row.Block.Transactions, entry)
	}
	return row, nil
}

func encodeFaucetRow(row IntermediateFaucetOutputRow) []byte {
	var buf bytes.Buffer
	buf.Write(row.TransactionHash[:])
	binary.Write(&buf, binary.LittleEndian, row.OutputIndex)
	buf.Write(row.OwnerSigningKey[:])
	binary.Write(&buf, binary.LittleEndian, row.Timestamp)
	return buf.Bytes()
}

func encodeTrackerPing(p TrackerPing) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(p.PeerID)))
	buf.WriteString(p.PeerID)
	binary.Write(&buf, binary.LittleEndian, p.Timestamp)
	return buf.Bytes()
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}
