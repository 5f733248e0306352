package rpc

import (
	"encoding/hex"
	"fmt"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/chain/script"
)

// The JSON-RPC wire shape of a Transaction mirrors the field structure in
// §3 of the data model, with byte arrays hex-encoded (no 0x prefix, per
// §6's wire encoding convention) rather than carrying chain's canonical
// binary form directly.

type OpJSON struct {
	Code string `json:"code"`
	Data string `json:"data,omitempty"`
	N    uint64 `json:"n,omitempty"`
}

type OutpointJSON struct {
	TxID  string `json:"txid"`
	Index uint64 `json:"index"`
}

type ObjectIdentifierJSON struct {
	Raw         string `json:"raw"`
	Mode        string `json:"mode"`
	PermitIndex uint64 `json:"permit_index,omitempty"`
}

type OutputJSON struct {
	Kind         string                `json:"kind"`
	Value        uint64                `json:"value,omitempty"`
	ObjectID     *ObjectIdentifierJSON `json:"object_id,omitempty"`
	DataScript   []OpJSON              `json:"data_script,omitempty"`
	PubkeyScript []OpJSON              `json:"pubkey_script"`
}

type InputJSON struct {
	Outpoint        OutpointJSON `json:"outpoint"`
	SignatureScript []OpJSON     `json:"signature_script"`
}

type TransactionJSON struct {
	Inputs   []InputJSON  `json:"inputs"`
	Outputs  []OutputJSON `json:"outputs"`
	Locktime uint64       `json:"locktime"`
}

var opCodeNames = map[script.OpCode]string{
	script.OpPush:           "push",
	script.OpDup:            "dup",
	script.OpEqualVerify:    "equal_verify",
	script.OpCheckSigVerify: "check_sig_verify",
	script.OpInsert:         "insert",
	script.OpDelete:         "delete",
	script.OpDeleteAll:      "delete_all",
	script.OpSetCertTTL:     "set_cert_ttl",
}

var opCodeValues = func() map[string]script.OpCode {
	m := make(map[string]script.OpCode, len(opCodeNames))
	for code, name := range opCodeNames {
		m[name] = code
	}
	return m
}()

func opToJSON(op script.Op) OpJSON {
	out := OpJSON{Code: opCodeNames[op.Code], N: op.N}
	if op.Data != nil {
		out.Data = hex.EncodeToString(op.Data)
	}
	return out
}

func opFromJSON(j OpJSON) (script.Op, error) {
	code, ok := opCodeValues[j.Code]
	if !ok {
		return script.Op{}, fmt.Errorf("rpc: unknown opcode %q", j.Code)
	}
	op := script.Op{Code: code, N: j.N}
	if j.Data != "" {
		data, err := hex.DecodeString(j.Data)
		if err != nil {
			return script.Op{}, fmt.Errorf("rpc: bad opcode data hex: %w", err)
		}
		op.Data = data
	}
	return op, nil
}

func scriptToJSON(s script.Script) []OpJSON {
	out := make([]OpJSON, len(s))
	for i, op := range s {
		out[i] = opToJSON(op)
	}
	return out
}

func scriptFromJSON(ops []OpJSON) (script.Script, error) {
	out := make(script.Script, len(ops))
	for i, j := range ops {
		op, err := opFromJSON(j)
		if err != nil {
			return nil, err
		}
		out[i] = op
	}
	return out, nil
}

func TransactionToJSON(tx chain.Transaction) TransactionJSON {
	out := TransactionJSON{Locktime: tx.Locktime}
	for _, in := range tx.Inputs {
		out.Inputs = append(out.Inputs, InputJSON{
			Outpoint: OutpointJSON{
				TxID:  hex.EncodeToString(in.Outpoint.TxID[:]),
				Index: in.Outpoint.Index,
			},
			SignatureScript: scriptToJSON(in.SignatureScript),
		})
	}
	for _, o := range tx.Outputs {
		oj := OutputJSON{PubkeyScript: scriptToJSON(o.PubkeyScript)}
		switch o.Kind {
		case chain.OutputKindValue:
			oj.Kind = "value"
			oj.Value = o.Value
		case chain.OutputKindObject:
			oj.Kind = "object"
			mode := "fresh"
			var permitIndex uint64
			if o.ObjectID.Mode == chain.ObjectModeExisting {
				mode = "existing"
				permitIndex = o.ObjectID.PermitIndex
			}
			oj.ObjectID = &ObjectIdentifierJSON{
				Raw:         hex.EncodeToString(o.ObjectID.Raw[:]),
				Mode:        mode,
				PermitIndex: permitIndex,
			}
			oj.DataScript = scriptToJSON(o.DataScript)
		}
		out.Outputs = append(out.Outputs, oj)
	}
	return out
}

func TransactionFromJSON(j TransactionJSON) (chain.Transaction, error) {
	tx := chain.Transaction{Version: chain.TransactionVersion1, Locktime: j.Locktime}
	for _, in := range j.Inputs {
		txid, err := decodeHash32(in.Outpoint.TxID)
		if err != nil {
			return tx, err
		}
		sigScript, err := scriptFromJSON(in.SignatureScript)
		if err != nil {
			return tx, err
		}
		tx.Inputs = append(tx.Inputs, chain.TransactionInput{
			Outpoint:        chain.Outpoint{TxID: txid, Index: in.Outpoint.Index},
			SignatureScript: sigScript,
		})
	}
	for _, o := range j.Outputs {
		pubkeyScript, err := scriptFromJSON(o.PubkeyScript)
		if err != nil {
			return tx, err
		}
		out := chain.TransactionOutput{PubkeyScript: pubkeyScript}
		switch o.Kind {
		case "value":
			out.Kind = chain.OutputKindValue
			out.Value = o.Value
		case "object":
			if o.ObjectID == nil {
				return tx, fmt.Errorf("rpc: object output missing object_id")
			}
			raw, err := decodeHash32(o.ObjectID.Raw)
			if err != nil {
				return tx, err
			}
			id := chain.ObjectIdentifier{Raw: raw}
			if o.ObjectID.Mode == "existing" {
				id.Mode = chain.ObjectModeExisting
				id.PermitIndex = o.ObjectID.PermitIndex
			}
			dataScript, err := scriptFromJSON(o.DataScript)
			if err != nil {
				return tx, err
			}
			out.Kind = chain.OutputKindObject
			out.ObjectID = id
			out.DataScript = dataScript
		default:
			return tx, fmt.Errorf("rpc: unknown output kind %q", o.Kind)
		}
		tx.Outputs = append(tx.Outputs, out)
	}
	return tx, nil
}

func decodeHash32(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("rpc: bad hex: %w", err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("rpc: expected 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func decodeAddress(s string) ([20]byte, error) {
	var out [20]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("rpc: bad hex: %w", err)
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("rpc: expected 20 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
