package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbt-shop/contract-deployer/internal/artifacts"
	"github.com/sbt-shop/contract-deployer/internal/infra/docker"
	"github.com/sbt-shop/contract-deployer/internal/infra/filesystem/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const combined = `{
  "contracts": {
    "contracts/SoulBoundToken.sol:SoulBoundToken": {
      "abi": [{"inputs": [], "stateMutability": "nonpayable", "type": "constructor"}],
      "bin": "600a600c600039600a6000f3602a60005260206000f3"
    },
    "contracts/ShopNFT.sol:ShopNFT": {
      "abi": "[]",
      "bin": "6000"
    },
    "node_modules/@openzeppelin/contracts/token/ERC721/ERC721.sol:ERC721": {
      "abi": [],
      "bin": "6001"
    },
    "contracts/mocks/Shadow.sol:SoulBoundToken": {
      "abi": [],
      "bin": "60ff"
    }
  },
  "version": "0.8.17+commit.8df45f5f.Linux.g++"
}`

type fakeRunner struct {
	ensured []string
	runs    []docker.RunOptions
	stdout  string
	err     error
}

func (f *fakeRunner) EnsureImage(_ context.Context, imageName string) error {
	f.ensured = append(f.ensured, imageName)
	return nil
}

func (f *fakeRunner) Run(_ context.Context, opts docker.RunOptions) (docker.RunOutput, error) {
	f.runs = append(f.runs, opts)
	return docker.RunOutput{Stdout: f.stdout}, f.err
}

func newProject(t *testing.T, withNodeModules bool) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{"SoulBoundToken", "ShopNFT"} {
		path := filepath.Join(dir, "contracts", name+".sol")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("pragma solidity 0.8.17;"), 0644))
	}
	if withNodeModules {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "@openzeppelin"), 0755))
	}

	return dir
}

func TestParseCombinedJSON(t *testing.T) {
	outputs, err := parseCombinedJSON([]byte(combined), "contracts", []string{"SoulBoundToken", "ShopNFT"})
	require.NoError(t, err)

	assert.Equal(t, "600a600c600039600a6000f3602a60005260206000f3", outputs["SoulBoundToken"].Bytecode, "the file named after the contract wins")
	assert.JSONEq(t, `[{"inputs": [], "stateMutability": "nonpayable", "type": "constructor"}]`, string(outputs["SoulBoundToken"].ABI))
	assert.Equal(t, "[]", string(outputs["ShopNFT"].ABI))

	_, err = parseCombinedJSON([]byte(combined), "contracts", []string{"Missing"})
	require.Error(t, err)

	_, err = parseCombinedJSON([]byte("Error: ParserError"), "contracts", []string{"ShopNFT"})
	require.Error(t, err)
}

func TestSolcBuild(t *testing.T) {
	project := newProject(t, true)
	runner := &fakeRunner{stdout: combined}

	solc := NewSolc(runner, SolcOptions{
		Version:       "0.8.17",
		ProjectDir:    project,
		SourcesDir:    "contracts",
		IncludePaths:  []string{"node_modules", "lib"},
		OptimizerRuns: 200,
	})

	outputs, err := solc.Build(context.Background(), []string{"ShopNFT", "SoulBoundToken"})
	require.NoError(t, err)
	assert.Len(t, outputs, 2)

	assert.Equal(t, []string{"ethereum/solc:0.8.17"}, runner.ensured)
	require.Len(t, runner.runs, 1)

	run := runner.runs[0]
	assert.Equal(t, "ethereum/solc:0.8.17", run.Image)
	assert.Equal(t, project, run.CopyFrom)
	assert.Equal(t, []string{"contracts", "node_modules"}, run.CopyInclude, "missing include paths are skipped")
	assert.Equal(t, []string{
		"--combined-json", "abi,bin",
		"--base-path", "/",
		"--include-path", "/node_modules",
		"--optimize", "--optimize-runs", "200",
		"contracts/ShopNFT.sol", "contracts/SoulBoundToken.sol",
	}, run.Cmd)
}

func TestSolcBuildMissingSource(t *testing.T) {
	runner := &fakeRunner{stdout: combined}
	solc := NewSolc(runner, SolcOptions{Image: "custom/solc:dev", ProjectDir: newProject(t, false), SourcesDir: "contracts"})

	_, err := solc.Build(context.Background(), []string{"Unknown"})
	require.Error(t, err)
	assert.Empty(t, runner.runs, "nothing is compiled when a source is missing")
}

func TestSolcBuildContainerFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("container exited with code 1: ParserError")}
	solc := NewSolc(runner, SolcOptions{Image: "custom/solc:dev", ProjectDir: newProject(t, false), SourcesDir: "contracts"})

	_, err := solc.Build(context.Background(), []string{"ShopNFT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ParserError")
	assert.Equal(t, []string{"custom/solc:dev"}, runner.ensured)
	assert.NotContains(t, runner.runs[0].Cmd, "--optimize")
}

type staticBackend map[string]Output

func (s staticBackend) Build(_ context.Context, _ []string) (map[string]Output, error) {
	return s, nil
}

func TestCompileWritesBundleReadableByStore(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "compiled", "contracts.json")
	outputs, err := parseCombinedJSON([]byte(combined), "contracts", []string{"SoulBoundToken", "ShopNFT"})
	require.NoError(t, err)

	c := New(staticBackend(outputs), json.NewWriter(), bundle)
	require.NoError(t, c.Compile(context.Background(), []string{"SoulBoundToken", "ShopNFT"}))

	store := artifacts.NewStore(json.NewReader(), bundle)

	sbt, err := store.Resolve(artifacts.ContractSoulBoundToken)
	require.NoError(t, err)
	assert.Len(t, sbt.Bytecode, 22)

	shop, err := store.Resolve(artifacts.ContractShopNFT)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x00}, shop.Bytecode)
}

func TestCompileRejectsBrokenOutput(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "contracts.json")

	c := New(staticBackend{"ShopNFT": {ABI: []byte(`{"not": "an abi"}`), Bytecode: "6000"}}, json.NewWriter(), bundle)
	require.Error(t, c.Compile(context.Background(), []string{"ShopNFT"}))

	c = New(staticBackend{}, json.NewWriter(), bundle)
	require.Error(t, c.Compile(context.Background(), []string{"ShopNFT"}))

	_, err := os.Stat(bundle)
	assert.True(t, errors.Is(err, os.ErrNotExist), "no bundle is written on failure")
}
