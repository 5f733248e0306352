package script

import "bytes"

// ErrDisallowedOpcode is returned when a script contains an opcode it is
// not permitted to carry (e.g. a data opcode inside a signature script).
type ErrDisallowedOpcode struct {
	Where string
	Code  OpCode
}

func (e *ErrDisallowedOpcode) Error() string {
	return "disallowed opcode " + e.Code.String() + " in " + e.Where
}

// ErrScriptFailure covers stack/verification failures during auth script
// execution: popping an empty stack, EqualVerify mismatches, and failed
// signature recovery.
type ErrScriptFailure struct {
	Reason string
}

func (e *ErrScriptFailure) Error() string { return "script failure: " + e.Reason }

// Verifier recomputes a transaction's signable hash and recovers the
// address behind a 65-byte recoverable signature. The VM is intentionally
// ignorant of transaction and signature encoding; it only knows how to run
// opcodes against a byte stack.
type Verifier func(sig [65]byte) (addr [20]byte, err error)

// ExecuteAuth runs sigScript then pubkeyScript against a shared stack, per
// §4.3's execution rules:
//   - sigScript may only contain Push.
//   - pubkeyScript may contain Dup, Push, EqualVerify, CheckSigVerify;
//     any other opcode is a no-op (forward-compatibility clause).
func ExecuteAuth(sigScript, pubkeyScript Script, verify Verifier) error {
	for _, op := range sigScript {
		if op.Code != OpPush {
			return &ErrDisallowedOpcode{Where: "signature script", Code: op.Code}
		}
	}

	var stack [][]byte
	push := func(b []byte) { stack = append(stack, b) }
	pop := func() ([]byte, error) {
		if len(stack) == 0 {
			return nil, &ErrScriptFailure{Reason: "pop from empty stack"}
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top, nil
	}

	for _, op := range sigScript {
		push(op.Data)
	}

	for _, op := range pubkeyScript {
		switch op.Code {
		case OpPush:
			push(op.Data)
		case OpDup:
			top, err := pop()
			if err != nil {
				return err
			}
			push(top)
			push(top)
		case OpEqualVerify:
			a, err := pop()
			if err != nil {
				return err
			}
			b, err := pop()
			if err != nil {
				return err
			}
			if !bytes.Equal(a, b) {
				return &ErrScriptFailure{Reason: "EqualVerify mismatch"}
			}
		case OpCheckSigVerify:
			pubkey, err := pop()
			if err != nil {
				return err
			}
			sigBytes, err := pop()
			if err != nil {
				return err
			}
			if len(sigBytes) != 65 {
				return &ErrScriptFailure{Reason: "signature must be 65 bytes"}
			}
			if len(pubkey) != 20 {
				return &ErrScriptFailure{Reason: "pubkey must be 20 bytes"}
			}
			var sig [65]byte
			copy(sig[:], sigBytes)
			addr, err := verify(sig)
			if err != nil {
				return &ErrScriptFailure{Reason: "signature recovery failed: " + err.Error()}
			}
			if !bytes.Equal(addr[:], pubkey) {
				return &ErrScriptFailure{Reason: "recovered address does not match pubkey"}
			}
		default:
			// Unrecognized opcode in the non-standard form: no-op, per §4.3.
		}
	}

	return nil
}
