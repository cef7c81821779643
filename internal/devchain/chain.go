// Package devchain runs an ephemeral in-process EVM chain with a single funded
// account, used for dry-run deployments and tests.
package devchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sbt-shop/contract-deployer/internal/crypto"
	"github.com/sbt-shop/contract-deployer/internal/deployer"
	"github.com/sbt-shop/contract-deployer/internal/logger"
)

// Endpoint is the placeholder URL targets use for the in-process chain.
const Endpoint = "simulated://devchain"

type (
	Chain struct {
		backend  *simulated.Backend
		key      *ecdsa.PrivateKey
		address  common.Address
		automine bool
		logger   *slog.Logger
	}

	Option func(*Chain)

	// automineClient seals a block after every accepted transaction.
	automineClient struct {
		simulated.Client
		commit func() common.Hash
	}
)

// WithAutomine controls whether every accepted transaction is mined right
// away. It is on by default; with it off blocks are sealed only by Commit.
func WithAutomine(enabled bool) Option {
	return func(c *Chain) {
		c.automine = enabled
	}
}

// New starts a chain whose genesis funds a freshly generated account with
// 10,000 ether.
func New(opts ...Option) (*Chain, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev account key: %w", err)
	}

	address, err := crypto.AddressFromKey(key)
	if err != nil {
		return nil, err
	}

	c := &Chain{
		key:      key,
		address:  address,
		automine: true,
		logger:   logger.Named("devchain"),
	}
	for _, opt := range opts {
		opt(c)
	}

	balance := new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.Ether))
	c.backend = simulated.NewBackend(types.GenesisAlloc{
		address: {Balance: balance},
	})

	c.logger.
		With("account", address.Hex()).
		With("automine", c.automine).
		Info("in-process dev chain started")

	return c, nil
}

// Key returns the hex encoded private key of the funded account.
func (c *Chain) Key() string {
	return crypto.KeyToHex(c.key)
}

func (c *Chain) Address() common.Address {
	return c.address
}

func (c *Chain) Client() simulated.Client {
	if c.automine {
		return automineClient{Client: c.backend.Client(), commit: c.backend.Commit}
	}

	return c.backend.Client()
}

// Commit seals the pending transactions into a new block.
func (c *Chain) Commit() common.Hash {
	return c.backend.Commit()
}

// Dial satisfies deployer.Dialer; the endpoint is ignored. Releasing the
// returned client does not stop the chain, Close does.
func (c *Chain) Dial(_ context.Context, _ string) (deployer.Backend, func(), error) {
	return c.Client(), func() {}, nil
}

func (c *Chain) Close() error {
	return c.backend.Close()
}

func (a automineClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := a.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	a.commit()

	return nil
}
