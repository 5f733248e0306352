package script_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Quible-Network/quible-node/chain/script"
)

func TestExecuteAuthCanonicalP2ASucceeds(t *testing.T) {
	addr := [20]byte{1, 2, 3, 4}
	var sig [65]byte
	sig[64] = 27

	pubkeyScript := script.BuildP2A(addr)
	sigScript := script.BuildP2ASigScript(sig, addr)

	verify := func(got [65]byte) ([20]byte, error) {
		require.Equal(t, sig, got)
		return addr, nil
	}

	require.NoError(t, script.ExecuteAuth(sigScript, pubkeyScript, verify))
}

func TestExecuteAuthWrongAddressFails(t *testing.T) {
	addr := [20]byte{1, 2, 3, 4}
	wrongAddr := [20]byte{9, 9, 9, 9}
	var sig [65]byte

	pubkeyScript := script.BuildP2A(addr)
	sigScript := script.BuildP2ASigScript(sig, addr)

	verify := func([65]byte) ([20]byte, error) { return wrongAddr, nil }

	err := script.ExecuteAuth(sigScript, pubkeyScript, verify)
	require.Error(t, err)
}

func TestExecuteAuthDisallowedOpcodeInSignatureScript(t *testing.T) {
	sigScript := script.Script{script.Dup()}
	pubkeyScript := script.BuildP2A([20]byte{})

	err := script.ExecuteAuth(sigScript, pubkeyScript, nil)
	require.Error(t, err)
	var disallowed *script.ErrDisallowedOpcode
	require.ErrorAs(t, err, &disallowed)
}

func TestOwnerOfRejectsNonCanonicalShape(t *testing.T) {
	nonStandard := script.Script{script.Push([]byte("anything"))}
	_, ok := script.OwnerOf(nonStandard)
	require.False(t, ok)
}

func TestScriptEncodeDecodeRoundTrip(t *testing.T) {
	s := script.Script{
		script.Push([]byte{1, 2, 3}),
		script.Dup(),
		script.EqualVerify(),
		script.CheckSigVerify(),
		script.Insert([]byte("a")),
		script.Delete([]byte("a")),
		script.DeleteAll(),
		script.SetCertTTL(3600),
	}

	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf))

	decoded, err := script.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, s, decoded)
}
