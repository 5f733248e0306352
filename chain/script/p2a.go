package script

import "bytes"

// P2A (Pay-to-Address) is the canonical, recognized pubkey script shape:
//
//	Dup, Push(addr20), EqualVerify, CheckSigVerify
//
// satisfied by a signature script of Push(sig65), Push(addr20).

// BuildP2A constructs the canonical pubkey script paying to addr.
func BuildP2A(addr [20]byte) Script {
	return Script{Dup(), Push(addr[:]), EqualVerify(), CheckSigVerify()}
}

// BuildP2ASigScript constructs the satisfying signature script for a P2A
// pubkey script owned by addr.
func BuildP2ASigScript(sig [65]byte, addr [20]byte) Script {
	return Script{Push(sig[:]), Push(addr[:])}
}

// OwnerOf returns the pushed address literal of pubkeyScript if it is
// exactly the canonical P2A shape, and "" (via ok=false) otherwise. The
// caller decides how to render the address (e.g. hex) for storage.
func OwnerOf(pubkeyScript Script) (addr [20]byte, ok bool) {
	if len(pubkeyScript) != 4 {
		return addr, false
	}
	if pubkeyScript[0].Code != OpDup {
		return addr, false
	}
	if pubkeyScript[1].Code != OpPush || len(pubkeyScript[1].Data) != 20 {
		return addr, false
	}
	if pubkeyScript[2].Code != OpEqualVerify {
		return addr, false
	}
	if pubkeyScript[3].Code != OpCheckSigVerify {
		return addr, false
	}
	copy(addr[:], pubkeyScript[1].Data)
	return addr, true
}

// IsCanonicalP2A reports whether pubkeyScript is byte-for-byte the
// canonical P2A shape for the given address.
func IsCanonicalP2A(pubkeyScript Script, addr [20]byte) bool {
	got, ok := OwnerOf(pubkeyScript)
	return ok && bytes.Equal(got[:], addr[:])
}
