package report

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sbt-shop/contract-deployer/internal/deployer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var address = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func sampleResult() deployer.Result {
	return deployer.Result{
		ContractName:    "SoulBoundToken",
		ContractAddress: address,
		TxHash:          common.HexToHash("0x01"),
		Deployer:        common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		ExplorerURL:     deployer.AccountURL("https://mainnet.scope.klaytn.com", address),
	}
}

func TestPrintTextWithHeadline(t *testing.T) {
	var out bytes.Buffer

	err := NewPrinter(&out, FormatText).Print("mainnet", sampleResult(), Messages{
		Headline: "Congratulations! You have just successfully deployed your soul bound tokens.",
		Label:    "SBT contract",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"Congratulations! You have just successfully deployed your soul bound tokens.\n"+
			"SBT contract address is 0x5FbDB2315678afecb367f032d93F642f64180aa3. "+
			"You can verify on https://mainnet.scope.klaytn.com/account/0x5FbDB2315678afecb367f032d93F642f64180aa3\n",
		out.String(),
	)
}

func TestPrintTextDefaults(t *testing.T) {
	var out bytes.Buffer
	result := sampleResult()
	result.ExplorerURL = ""

	require.NoError(t, NewPrinter(&out, FormatText).Print("hardhat", result, Messages{}))
	assert.Equal(t, "SoulBoundToken contract address is 0x5FbDB2315678afecb367f032d93F642f64180aa3.\n", out.String())
}

func TestPrintYAML(t *testing.T) {
	var out bytes.Buffer
	result := sampleResult()
	result.Confirmed = true
	result.BlockNumber = big.NewInt(7)

	require.NoError(t, NewPrinter(&out, FormatYAML).Print("mainnet", result, Messages{Headline: "ignored"}))
	assert.NotContains(t, out.String(), "ignored")

	var decoded struct {
		Deployment struct {
			Network     string `yaml:"network"`
			Address     string `yaml:"address"`
			Confirmed   bool   `yaml:"confirmed"`
			BlockNumber uint64 `yaml:"block-number"`
			Explorer    string `yaml:"explorer"`
		} `yaml:"deployment"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))

	assert.Equal(t, "mainnet", decoded.Deployment.Network)
	assert.Equal(t, address.Hex(), decoded.Deployment.Address)
	assert.True(t, decoded.Deployment.Confirmed)
	assert.Equal(t, uint64(7), decoded.Deployment.BlockNumber)
	assert.Equal(t, result.ExplorerURL, decoded.Deployment.Explorer)
}

func TestPrintYAMLOmitsBlockWhenPending(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, NewPrinter(&out, FormatYAML).Print("mainnet", sampleResult(), Messages{}))
	assert.NotContains(t, out.String(), "block-number")
	assert.Contains(t, out.String(), "confirmed: false")
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)

	format, err = ParseFormat(" YAML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, format)

	_, err = ParseFormat("json")
	require.Error(t, err)
}
