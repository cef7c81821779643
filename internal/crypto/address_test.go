package crypto

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known first development account of anvil/hardhat.
const (
	devKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestAddressFromPrivateKey(t *testing.T) {
	address, err := AddressFromPrivateKey(devKey)
	require.NoError(t, err)
	assert.Equal(t, devAddress, address)

	withoutPrefix, err := AddressFromPrivateKey(devKey[2:])
	require.NoError(t, err)
	assert.Equal(t, devAddress, withoutPrefix)
}

func TestParsePrivateKey(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ParsePrivateKey("  ")
		require.ErrorIs(t, err, ErrEmptyKey)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParsePrivateKey("0xnothex")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmptyKey)
	})

	t.Run("round trip", func(t *testing.T) {
		key, err := ParsePrivateKey(devKey)
		require.NoError(t, err)
		assert.Equal(t, devKey, KeyToHex(key))
	})
}

func TestCreationAddress(t *testing.T) {
	sender := common.HexToAddress(devAddress)

	// First two CREATE addresses of the dev account, as reported by anvil.
	assert.Equal(t,
		common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		CreationAddress(sender, 0),
	)
	assert.Equal(t,
		common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
		CreationAddress(sender, 1),
	)
}
