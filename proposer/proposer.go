// Package proposer drives the fixed-interval slot loop: snapshot the
// mempool, run the execution engine to exhaustion, mint the coinbase, and
// commit the resulting block and its UTXOs/objects.
package proposer

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/chain/script"
	"github.com/Quible-Network/quible-node/engine"
	"github.com/Quible-Network/quible-node/logging"
	"github.com/Quible-Network/quible-node/object"
	"github.com/Quible-Network/quible-node/sign"
	"github.com/Quible-Network/quible-node/store"
)

// SlotDuration is the fixed interval between proposal ticks.
const SlotDuration = 4 * time.Second

// CoinbaseValue is the fixed reward minted by every slot's coinbase
// transaction.
const CoinbaseValue = 5

// Clock is the time seam, so tests can drive ticks without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Proposer owns the slot loop. It is the sole writer of the blocks,
// transaction_outputs, and objects tables.
type Proposer struct {
	store  *store.Store
	signer *sign.PrivateKey
	clock  Clock
}

// New constructs a Proposer bound to store and signing with the node's
// own key, using clock for Tick's timestamp.
func New(s *store.Store, signer *sign.PrivateKey, clock Clock) *Proposer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Proposer{store: s, signer: signer, clock: clock}
}

// Run blocks, firing Tick at every SlotDuration boundary starting from
// start, until done is closed.
func (p *Proposer) Run(start time.Time, done <-chan struct{}) {
	var n uint64
	timer := time.NewTimer(time.Until(start.Add(time.Duration(n) * SlotDuration)))
	defer timer.Stop()
	for {
		select {
		case <-done:
			return
		case <-timer.C:
			if err := p.Tick(n); err != nil {
				logging.Log.Errorf("slot %d: %v", n, err)
			}
			n++
			timer.Reset(time.Until(start.Add(time.Duration(n) * SlotDuration)))
		}
	}
}

// Tick executes one slot's worth of §4.5: snapshot, validate, mint
// coinbase, commit. If step 1 or step 8 fails the slot is skipped
// entirely and the caller should proceed to the next tick; no retries
// happen within a slot.
func (p *Proposer) Tick(n uint64) error {
	logging.SlotTicksTotal.Inc()
	return p.store.Update(func(tx *bbolt.Tx) error {
		var previousHash [32]byte
		if n > 0 {
			height, prev, ok, err := p.store.LatestHeight(tx)
			if err != nil {
				return fmt.Errorf("proposer: read previous header: %w", err)
			}
			if !ok || height != n-1 {
				return fmt.Errorf("proposer: no committed block at height %d", n-1)
			}
			previousHash = prev
		}

		ctx, err := store.NewSnapshotContext(tx, p.store)
		if err != nil {
			return fmt.Errorf("proposer: snapshot mempool: %w", err)
		}

		timestamp := uint64(p.clock.Now().Unix())

		if err := engine.Run(ctx); err != nil {
			return fmt.Errorf("proposer: engine run: %w", err)
		}

		header := chain.BlockHeader{
			Version:                 chain.BlockHeaderVersion1,
			PreviousBlockHeaderHash: previousHash,
			Timestamp:               timestamp,
		}

		coinbase := chain.Transaction{
			Version: chain.TransactionVersion1,
			Inputs: []chain.TransactionInput{{
				Outpoint:        chain.Outpoint{TxID: [32]byte{}, Index: 0},
				SignatureScript: script.Script{script.Push(previousHash[:])},
			}},
			Outputs: []chain.TransactionOutput{{
				Kind:         chain.OutputKindValue,
				Value:        CoinbaseValue,
				PubkeyScript: script.BuildP2A(p.signer.Address()),
			}},
			Locktime: 0,
		}
		coinbaseHash := chain.HEip191(coinbase)

		entries := make([]chain.TxEntry, 0, len(ctx.Included)+1)
		entries = append(entries, chain.TxEntry{Hash: coinbaseHash, Transaction: coinbase})
		for _, inc := range ctx.Included {
			entries = append(entries, chain.TxEntry{Hash: inc.Hash, Transaction: inc.Transaction})
		}

		block := chain.Block{Header: header, Transactions: entries}
		headerHash := chain.H(header)

		if err := p.store.PutBlock(tx, headerHash, store.BlockRow{Height: n, Block: block}); err != nil {
			return fmt.Errorf("proposer: persist block: %w", err)
		}

		for _, entry := range entries {
			if err := p.commitTransaction(tx, entry); err != nil {
				return fmt.Errorf("proposer: commit tx %x: %w", entry.Hash, err)
			}
		}

		for _, inc := range ctx.Included {
			for _, in := range inc.Transaction.Inputs {
				if err := p.store.MarkSpent(tx, in.Outpoint); err != nil {
					return fmt.Errorf("proposer: mark spent: %w", err)
				}
			}
			if err := p.store.DeletePending(tx, inc.Hash); err != nil {
				return fmt.Errorf("proposer: delete pending: %w", err)
			}
		}
		for _, inv := range ctx.Invalid {
			logging.Log.Debugf("rejected tx %x: %v", inv.Hash, inv.Err)
			if err := p.store.DeletePending(tx, inv.Hash); err != nil {
				return fmt.Errorf("proposer: delete invalid pending: %w", err)
			}
		}

		logging.SlotTransactionsTotal.WithLabelValues("included").Add(float64(len(ctx.Included)))
		logging.SlotTransactionsTotal.WithLabelValues("rejected").Add(float64(len(ctx.Invalid)))

		return nil
	})
}

// commitTransaction inserts the UTXO rows for every output of entry and
// runs object digestion for any Object outputs, per §4.5 step 9 and §4.6.
func (p *Proposer) commitTransaction(tx *bbolt.Tx, entry chain.TxEntry) error {
	for i, out := range entry.Transaction.Outputs {
		owner, hasOwner := script.OwnerOf(out.PubkeyScript)
		row := store.UTXORow{
			TxID:        entry.Hash,
			OutputIndex: uint64(i),
			Output:      out,
			Owner:       owner,
			HasOwner:    hasOwner,
			Spent:       false,
		}
		if err := p.store.PutUTXO(tx, row); err != nil {
			return err
		}
		if out.Kind == chain.OutputKindObject {
			if err := p.digestObject(tx, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Proposer) digestObject(tx *bbolt.Tx, out chain.TransactionOutput) error {
	objectID := out.ObjectID.Raw
	row, ok, err := p.store.GetObject(tx, objectID)
	if err != nil {
		return err
	}
	if !ok {
		row = object.NewRow()
	}
	row = object.Apply(row, out.DataScript)
	return p.store.PutObject(tx, objectID, row)
}
