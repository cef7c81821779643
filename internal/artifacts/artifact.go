package artifacts

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ErrNotFound is returned when no build output exists for a contract name.
var ErrNotFound = errors.New("artifact not found")

type (
	// Artifact is a compiled contract: its interface and creation bytecode.
	Artifact struct {
		Name     string
		Source   string
		ABI      abi.ABI
		RawABI   string
		Bytecode []byte
	}

	// Resolver maps a contract name to its compiled artifact.
	Resolver interface {
		Resolve(name string) (Artifact, error)
	}
)

const (
	ContractSoulBoundToken = "SoulBoundToken"
	ContractShopNFT        = "ShopNFT"
)

// Contracts lists the contracts this project builds and deploys.
var Contracts = map[string]struct{}{
	ContractSoulBoundToken: {},
	ContractShopNFT:        {},
}
