package tx

import (
	"math/big"
	"testing"

	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalDAOTx(t *testing.T) {
	k, err := crypto.GenerateKey()
	require.NoError(t, err)

	payloads := map[DAOTxType]any{
		DAOTxTypeJoin: &JoinTx{Payment: big.NewInt(1e18)},
		DAOTxTypePropose: &ProposeTx{
			Actions: []types.Action{{
				Kind:    types.ActionTransfer,
				Target:  common.HexToAddress("0x01"),
				Value:   big.NewInt(5),
				Payload: hexutil.Bytes{},
			}},
			Description: "Proposal 1",
		},
		DAOTxTypeVote:      &VoteTx{Proposal: common.HexToHash("0xaa"), Choice: types.VoteFor},
		DAOTxTypeVoteBySig: &VoteBySigTx{Proposal: common.HexToHash("0xaa"), Choice: types.VoteAbstain, Signature: []byte{1, 2, 3}},
		DAOTxTypeExecute:   &ExecuteTx{Description: "hi"},
	}
	for tp, payload := range payloads {
		btx := NewDAOTx(tp, 3, k.Address(), payload)
		require.NoError(t, btx.Sign(k, "test-chain"))
		dat, err := MarshalDAOTx(btx)
		require.NoError(t, err)

		decoded, err := UnmarshalDAOTx(dat)
		require.NoError(t, err, tp.String())
		require.Equal(t, tp, decoded.Type)
		require.Equal(t, uint64(3), decoded.Nonce)
		require.Equal(t, k.Address(), decoded.Sender)
		require.Equal(t, payload, decoded.Tx)

		want, err := btx.SigHash([]byte("test-chain"))
		require.NoError(t, err)
		got, err := decoded.SigHash([]byte("test-chain"))
		require.NoError(t, err)
		require.Equal(t, want, got)

		signer, err := crypto.RecoverAddress(got, decoded.Sig)
		require.NoError(t, err)
		require.Equal(t, k.Address(), signer)

		other, err := decoded.SigHash([]byte("other-chain"))
		require.NoError(t, err)
		require.NotEqual(t, want, other)
	}
}

func TestUnmarshalDAOTxRejects(t *testing.T) {
	_, err := UnmarshalDAOTx([]byte(`{"type":9,"tx":{}}`))
	require.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalDAOTx([]byte(`not json`))
	require.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalDAOTx([]byte(`{"version":7,"type":1,"tx":{"payment":1}}`))
	require.ErrorIs(t, err, ErrUnsupportedTxVersion)
}

func TestSignRequiresSender(t *testing.T) {
	k, err := crypto.GenerateKey()
	require.NoError(t, err)
	btx := NewDAOTx(DAOTxTypeJoin, 0, common.HexToAddress("0x02"), &JoinTx{Payment: big.NewInt(1)})
	require.ErrorIs(t, btx.Sign(k, "c"), ErrInvalidTx)
}
