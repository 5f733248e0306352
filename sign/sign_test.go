package sign_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Quible-Network/quible-node/sign"
)

func TestSignRecoverRoundTrip(t *testing.T) {
	key, err := sign.GenerateKey()
	require.NoError(t, err)

	var msgHash [32]byte
	copy(msgHash[:], []byte("deterministic test message hash"))

	sig, err := key.Sign(msgHash)
	require.NoError(t, err)
	require.Contains(t, []byte{27, 28}, sig[64])

	addr, err := sign.Recover(sig, msgHash)
	require.NoError(t, err)
	require.Equal(t, key.Address(), addr)
}

func TestRecoverRejectsBadRecoveryID(t *testing.T) {
	var sig [65]byte
	sig[64] = 5
	var msgHash [32]byte

	_, err := sign.Recover(sig, msgHash)
	require.Error(t, err)
}

func TestRecoverOnWrongHashYieldsOtherAddress(t *testing.T) {
	key, err := sign.GenerateKey()
	require.NoError(t, err)

	var msgHash, otherHash [32]byte
	copy(msgHash[:], []byte("message one"))
	copy(otherHash[:], []byte("message two, quite different"))

	sig, err := key.Sign(msgHash)
	require.NoError(t, err)

	addr, err := sign.Recover(sig, otherHash)
	require.NoError(t, err)
	require.NotEqual(t, key.Address(), addr)
}

func TestParsePrivateKeyRejectsWrongLength(t *testing.T) {
	_, err := sign.ParsePrivateKey([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestParsePrivateKeyRoundTripsBytes(t *testing.T) {
	key, err := sign.GenerateKey()
	require.NoError(t, err)

	reparsed, err := sign.ParsePrivateKey(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, key.Address(), reparsed.Address())
}
