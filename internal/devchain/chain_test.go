package devchain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/params"
	"github.com/sbt-shop/contract-deployer/internal/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFundsDevAccount(t *testing.T) {
	chain, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = chain.Close() })

	address, err := crypto.AddressFromPrivateKey(chain.Key())
	require.NoError(t, err)
	assert.Equal(t, chain.Address().Hex(), address)

	balance, err := chain.Client().BalanceAt(context.Background(), chain.Address(), nil)
	require.NoError(t, err)

	expected := new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.Ether))
	assert.Equal(t, 0, expected.Cmp(balance))
}

func TestDialIgnoresEndpoint(t *testing.T) {
	chain, err := New(WithAutomine(false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = chain.Close() })

	backend, release, err := chain.Dial(context.Background(), "")
	require.NoError(t, err)
	release()

	chainID, err := backend.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, params.AllDevChainProtocolChanges.ChainID.Uint64(), chainID.Uint64())
}

func TestAutomineSealsBlocks(t *testing.T) {
	ctx := context.Background()

	chain, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = chain.Close() })

	before, err := chain.Client().BlockNumber(ctx)
	require.NoError(t, err)

	chain.Commit()

	after, err := chain.Client().BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}
