package main

import (
	"path/filepath"
	"testing"

	"github.com/calehh/hac-dao/crypto"
	"github.com/stretchr/testify/require"
)

func TestKeygenImport(t *testing.T) {
	src, err := crypto.GenerateKey()
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "account.key")

	k, err := keygenKey(&keygenArguments{Out: out, Import: src.Hex()})
	require.NoError(t, err)
	require.Equal(t, src.Address(), k.Address())

	loaded, err := crypto.LoadKey(out)
	require.NoError(t, err)
	require.Equal(t, src.Address(), loaded.Address())

	// importing over an existing file needs --overwrite
	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, err = keygenKey(&keygenArguments{Out: out, Import: other.Hex()})
	require.ErrorIs(t, err, crypto.ErrKeyExists)
	k, err = keygenKey(&keygenArguments{Out: out, Import: other.Hex(), Overwrite: true})
	require.NoError(t, err)
	require.Equal(t, other.Address(), k.Address())

	// without flags the existing key is reused
	k, err = keygenKey(&keygenArguments{Out: out})
	require.NoError(t, err)
	require.Equal(t, other.Address(), k.Address())

	_, err = keygenKey(&keygenArguments{Out: out, Import: "not hex"})
	require.Error(t, err)
}
