package engine

import (
	"errors"
	"fmt"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/chain/script"
	"github.com/Quible-Network/quible-node/sign"
)

// ErrNotFound and ErrAlreadySpent are the two recognized FetchUnspent
// failures; any other error returned from the context is treated as a
// fatal I/O error and aborts Run.
var (
	ErrNotFound     = errors.New("outpoint not found")
	ErrAlreadySpent = errors.New("outpoint already spent")
)

// ExecutionContext is the sole collaborator the engine consumes. It is the
// seam between validation and whatever persistence/mempool implementation
// backs a given run.
type ExecutionContext interface {
	// NextPending returns one candidate from the slot's snapshot mempool,
	// or ok=false when the snapshot is exhausted.
	NextPending() (txHash [32]byte, tx chain.Transaction, ok bool)

	// FetchUnspent resolves an outpoint to its output, failing with
	// ErrNotFound or ErrAlreadySpent as appropriate.
	FetchUnspent(outpoint chain.Outpoint) (chain.TransactionOutput, error)

	// Include records txHash for inclusion and marks its input outpoints
	// spent-in-this-block.
	Include(txHash [32]byte)

	// RecordInvalid records txHash for removal from the mempool along
	// with the reason it failed validation.
	RecordInvalid(txHash [32]byte, err error)
}

// Run drives ctx to exhaustion, validating each pending transaction in the
// order NextPending yields them. It returns only on a context I/O error;
// per-transaction failures are reported to the context and never
// propagate to the caller.
func Run(ctx ExecutionContext) error {
	for {
		txHash, tx, ok := ctx.NextPending()
		if !ok {
			return nil
		}
		if err := validate(ctx, txHash, tx); err != nil {
			var ioErr *ioError
			if errors.As(err, &ioErr) {
				return ioErr.cause
			}
			ctx.RecordInvalid(txHash, err)
			continue
		}
		ctx.Include(txHash)
	}
}

// ioError distinguishes a fatal context failure from a validation
// rejection while both travel through the same return path.
type ioError struct{ cause error }

func (e *ioError) Error() string { return e.cause.Error() }
func (e *ioError) Unwrap() error { return e.cause }

func validate(ctx ExecutionContext, txHash [32]byte, tx chain.Transaction) error {
	spentInTx := make(map[chain.Outpoint]bool, len(tx.Inputs))
	var valueIn, valueOut uint64

	sigHash := tx.SignableHash()
	verify := func(sig [65]byte) (addr [20]byte, err error) {
		return sign.Recover(sig, sigHash)
	}

	for _, in := range tx.Inputs {
		if spentInTx[in.Outpoint] {
			return newErr(ErrDoubleSpendWithinTx, "")
		}

		o, err := ctx.FetchUnspent(in.Outpoint)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				return newErr(ErrOutpointNotFound, err.Error())
			case errors.Is(err, ErrAlreadySpent):
				return newErr(ErrOutpointAlreadySpent, err.Error())
			default:
				return &ioError{cause: err}
			}
		}

		spentInTx[in.Outpoint] = true

		if err := script.ExecuteAuth(in.SignatureScript, o.PubkeyScript, verify); err != nil {
			var disallowed *script.ErrDisallowedOpcode
			if errors.As(err, &disallowed) {
				return newErr(ErrScriptDisallowedOp, err.Error())
			}
			return newErr(ErrScriptFailure, err.Error())
		}

		if o.Kind == chain.OutputKindValue {
			valueIn += o.Value
		}
	}

	for i, out := range tx.Outputs {
		switch out.Kind {
		case chain.OutputKindValue:
			valueOut += out.Value
		case chain.OutputKindObject:
			if err := validateObjectOutput(ctx, tx, out, uint32(i)); err != nil {
				return err
			}
		}
	}

	if len(tx.Inputs) > 0 && valueOut > valueIn {
		return newErr(ErrValueOverflow, fmt.Sprintf("value_in=%d value_out=%d", valueIn, valueOut))
	}

	return nil
}

func validateObjectOutput(ctx ExecutionContext, tx chain.Transaction, out chain.TransactionOutput, outputIndex uint32) error {
	switch out.ObjectID.Mode {
	case chain.ObjectModeFresh:
		want := chain.FreshObjectID(tx.Inputs, outputIndex)
		if want != out.ObjectID.Raw {
			return newErr(ErrObjectIdInvalid, "")
		}
	case chain.ObjectModeExisting:
		permitIndex := out.ObjectID.PermitIndex
		if permitIndex >= uint64(len(tx.Inputs)) {
			return newErr(ErrPermitIndexOOB, "")
		}
		p, err := ctx.FetchUnspent(tx.Inputs[permitIndex].Outpoint)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				return newErr(ErrOutpointNotFound, err.Error())
			case errors.Is(err, ErrAlreadySpent):
				return newErr(ErrOutpointAlreadySpent, err.Error())
			default:
				return &ioError{cause: err}
			}
		}
		if p.Kind != chain.OutputKindObject {
			return newErr(ErrPermitNotObject, "")
		}
		if p.ObjectID.Raw != out.ObjectID.Raw {
			return newErr(ErrObjectIdMismatch, "")
		}
	}
	return nil
}
