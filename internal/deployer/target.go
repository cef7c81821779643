package deployer

import (
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type (
	// Target describes where and as whom a contract is deployed.
	Target struct {
		Network     string
		EndpointURL string
		// GasPriceWei overrides the node's gas price suggestion when set.
		GasPriceWei *big.Int
		// GasLimit of zero lets the node estimate it.
		GasLimit    uint64
		SigningKey  string
		ExplorerURL string
	}

	// Submission is a creation transaction the node has accepted into its pool.
	Submission struct {
		ContractName string
		Address      common.Address
		Deployer     common.Address
		Nonce        uint64
		Tx           *types.Transaction

		explorerURL string
		backend     Backend
		release     func()
	}

	// Result is the outcome of one deployment.
	Result struct {
		ContractName    string
		ContractAddress common.Address
		Confirmed       bool
		TxHash          common.Hash
		Deployer        common.Address
		Nonce           uint64
		// BlockNumber is nil unless the deployment is confirmed.
		BlockNumber *big.Int
		ExplorerURL string
	}
)

// AccountURL renders the explorer page of address: {base}/account/{address}.
func AccountURL(explorerBaseURL string, address common.Address) string {
	if explorerBaseURL == "" {
		return ""
	}

	return fmt.Sprintf("%s/account/%s", strings.TrimRight(explorerBaseURL, "/"), address.Hex())
}

// LogValue keeps the signing key and endpoint credentials out of logs.
func (t Target) LogValue() slog.Value {
	gasPrice := "node"
	if t.GasPriceWei != nil {
		gasPrice = t.GasPriceWei.String()
	}

	return slog.GroupValue(
		slog.String("network", t.Network),
		slog.String("endpoint", redactURL(t.EndpointURL)),
		slog.String("gas_price_wei", gasPrice),
		slog.Uint64("gas_limit", t.GasLimit),
		slog.Bool("signing_key_set", t.SigningKey != ""),
	)
}

// redactURL drops userinfo and query since RPC providers embed API keys there.
func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	parsed.User = nil
	parsed.RawQuery = ""

	return parsed.String()
}

// Close releases the network client held for the confirmation phase. Confirm
// calls it; callers that skip confirmation must call it themselves.
func (s *Submission) Close() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

func (s *Submission) result() Result {
	return Result{
		ContractName:    s.ContractName,
		ContractAddress: s.Address,
		TxHash:          s.Tx.Hash(),
		Deployer:        s.Deployer,
		Nonce:           s.Nonce,
		ExplorerURL:     AccountURL(s.explorerURL, s.Address),
	}
}
