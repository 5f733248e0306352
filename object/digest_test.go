package object_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Quible-Network/quible-node/chain/script"
	"github.com/Quible-Network/quible-node/object"
)

func TestNewRowDefaultsCertTTL(t *testing.T) {
	row := object.NewRow()
	require.Nil(t, row.Claims)
	require.Equal(t, uint64(86400), row.CertTTL)
}

func TestApplyMultisetSequence(t *testing.T) {
	row := object.NewRow()
	ds := script.Script{
		script.Insert([]byte{1, 2, 3}),
		script.DeleteAll(),
		script.Insert([]byte{4, 5, 6}),
		script.Delete([]byte{4, 5, 6}),
		script.Insert([]byte{7, 8, 9}),
	}

	row = object.Apply(row, ds)

	require.Equal(t, [][]byte{{7, 8, 9}}, row.Claims)
}

func TestApplyKeepsDuplicateClaims(t *testing.T) {
	row := object.NewRow()
	ds := script.Script{
		script.Insert([]byte("a")),
		script.Insert([]byte("a")),
		script.Delete([]byte("a")),
	}

	row = object.Apply(row, ds)

	require.Equal(t, [][]byte{[]byte("a")}, row.Claims)
}

func TestApplySetCertTTL(t *testing.T) {
	row := object.NewRow()
	row = object.Apply(row, script.Script{script.SetCertTTL(3600)})
	require.Equal(t, uint64(3600), row.CertTTL)
}

func TestApplyIgnoresAuthOpcodes(t *testing.T) {
	row := object.NewRow()
	row = object.Apply(row, script.Script{script.Dup(), script.CheckSigVerify()})
	require.Nil(t, row.Claims)
}

func TestHasClaim(t *testing.T) {
	row := object.Row{Claims: [][]byte{{1, 2}, {3, 4}}}
	require.True(t, object.HasClaim(row, []byte{3, 4}))
	require.False(t, object.HasClaim(row, []byte{5, 6}))
}
