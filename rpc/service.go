// Package rpc exposes the node's state over JSON-RPC 2.0, namespace
// "quible". Handlers are fail-fast and never invoke the engine directly;
// sendTransaction and sendRawTransaction only ever write a mempool row.
package rpc

import (
	"bytes"
	"encoding/hex"
	"errors"
	"net/http"

	"go.etcd.io/bbolt"

	"github.com/Quible-Network/quible-node/cert"
	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/faucet"
	"github.com/Quible-Network/quible-node/store"
)

// Service implements the "quible" namespace's methods. Method names are
// exported Go identifiers (gorilla/rpc requirement); the methodCasing
// middleware in middleware.go translates the wire method names
// ("quible.sendTransaction") down to these before dispatch.
type Service struct {
	Store  *store.Store
	Cert   *cert.Issuer
	Faucet *faucet.Faucet
}

type OKReply struct {
	OK bool `json:"ok"`
}

func (s *Service) submit(tx chain.Transaction) (OKReply, error) {
	txHash := chain.HEip191(tx)
	err := s.Store.Update(func(boltTx *bbolt.Tx) error {
		return s.Store.PutPending(boltTx, txHash, tx)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return OKReply{}, callFailed("Duplicate", err)
		}
		return OKReply{}, callFailed("StoreError", err)
	}
	return OKReply{OK: true}, nil
}

type SendTransactionArgs struct {
	Transaction TransactionJSON `json:"transaction"`
}

// SendTransaction computes txid = H_eip191(tx) and writes a mempool row
// keyed by txid_hex; a duplicate primary key surfaces as Duplicate.
func (s *Service) SendTransaction(r *http.Request, args *SendTransactionArgs, reply *OKReply) error {
	tx, err := TransactionFromJSON(args.Transaction)
	if err != nil {
		return callFailed("HashFailure", err)
	}
	out, err := s.submit(tx)
	if err != nil {
		return err
	}
	*reply = out
	return nil
}

type SendRawTransactionArgs struct {
	Hex string `json:"hex"`
}

// SendRawTransaction decodes the canonical encoding of a Transaction from
// hex ASCII (no 0x prefix) and submits it exactly as SendTransaction
// does.
func (s *Service) SendRawTransaction(r *http.Request, args *SendRawTransactionArgs, reply *OKReply) error {
	raw, err := hex.DecodeString(args.Hex)
	if err != nil {
		return callFailed("BadHex", err)
	}
	tx, err := chain.DecodeTransaction(bytes.NewReader(raw))
	if err != nil {
		return callFailed("BadEncoding", err)
	}
	out, err := s.submit(tx)
	if err != nil {
		return err
	}
	*reply = out
	return nil
}

type HealthReply struct {
	Status string `json:"status"`
}

func (s *Service) CheckHealth(r *http.Request, args *struct{}, reply *HealthReply) error {
	reply.Status = "healthy"
	return nil
}

type RequestCertificateArgs struct {
	ObjectID string `json:"object_id"`
	Claim    string `json:"claim"`
}

type CertificateReply struct {
	Details struct {
		ObjectID  string `json:"object_id"`
		Claim     string `json:"claim"`
		ExpiresAt uint64 `json:"expires_at"`
	} `json:"details"`
	Signature string `json:"signature"`
}

func (s *Service) RequestCertificate(r *http.Request, args *RequestCertificateArgs, reply *CertificateReply) error {
	objectID, err := decodeHash32(args.ObjectID)
	if err != nil {
		return callFailed("BadHex", err)
	}
	claim, err := hex.DecodeString(args.Claim)
	if err != nil {
		return callFailed("BadHex", err)
	}

	got, err := s.Cert.RequestCertificate(objectID, claim)
	if err != nil {
		if errors.Is(err, cert.ErrClaimNotFound) {
			return callFailed("ClaimNotFound", err)
		}
		return callFailed("SignFailure", err)
	}

	reply.Details.ObjectID = hex.EncodeToString(got.Details.ObjectID[:])
	reply.Details.Claim = hex.EncodeToString(got.Details.Claim)
	reply.Details.ExpiresAt = got.Details.ExpiresAt
	reply.Signature = hex.EncodeToString(got.Signature[:])
	return nil
}

type FetchUnspentValueOutputsByOwnerArgs struct {
	Address string `json:"address"`
}

type UnspentOutputJSON struct {
	Outpoint OutpointJSON `json:"outpoint"`
	Value    uint64       `json:"value"`
}

type FetchUnspentValueOutputsByOwnerReply struct {
	TotalValue uint64              `json:"total_value"`
	Outputs    []UnspentOutputJSON `json:"outputs"`
}

func (s *Service) FetchUnspentValueOutputsByOwner(r *http.Request, args *FetchUnspentValueOutputsByOwnerArgs, reply *FetchUnspentValueOutputsByOwnerReply) error {
	addr, err := decodeAddress(args.Address)
	if err != nil {
		return callFailed("BadHex", err)
	}

	err = s.Store.View(func(tx *bbolt.Tx) error {
		return s.Store.ForEachUnspentValueOutput(tx, addr, func(op chain.Outpoint, value uint64) bool {
			reply.TotalValue += value
			reply.Outputs = append(reply.Outputs, UnspentOutputJSON{
				Outpoint: OutpointJSON{TxID: hex.EncodeToString(op.TxID[:]), Index: op.Index},
				Value:    value,
			})
			return true
		})
	})
	if err != nil {
		return callFailed("StoreError", err)
	}
	return nil
}

type FaucetOutputReply struct {
	Outpoint        OutpointJSON `json:"outpoint"`
	Value           uint64       `json:"value"`
	OwnerSigningKey string       `json:"owner_signing_key"`
}

func (s *Service) RequestFaucetOutput(r *http.Request, args *struct{}, reply *FaucetOutputReply) error {
	out, err := s.Faucet.RequestOutput()
	if err != nil {
		return callFailed("NoFaucet", err)
	}
	reply.Outpoint = OutpointJSON{TxID: hex.EncodeToString(out.Outpoint.TxID[:]), Index: out.Outpoint.Index}
	reply.Value = out.Value
	reply.OwnerSigningKey = hex.EncodeToString(out.OwnerSigningKey[:])
	return nil
}
