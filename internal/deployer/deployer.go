package deployer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sbt-shop/contract-deployer/internal/artifacts"
	"github.com/sbt-shop/contract-deployer/internal/crypto"
	"github.com/sbt-shop/contract-deployer/internal/logger"
)

const DefaultConfirmationTimeout = 2 * time.Minute

type (
	// Backend is the slice of a node client the deployer needs: submission,
	// receipt polling and code lookup.
	Backend interface {
		bind.ContractBackend
		bind.DeployBackend
		ChainID(ctx context.Context) (*big.Int, error)
	}

	// Dialer opens a Backend for an endpoint. The returned func releases it.
	Dialer func(ctx context.Context, endpointURL string) (Backend, func(), error)

	Option func(*Deployer)

	// Deployer submits contract-creation transactions and optionally waits for
	// them to be mined.
	Deployer struct {
		artifacts           artifacts.Resolver
		dial                Dialer
		waitForConfirmation bool
		confirmationTimeout time.Duration
		logger              *slog.Logger
	}
)

// WithConfirmation makes Deploy block until the creation transaction is mined,
// giving up after timeout. A non-positive timeout means DefaultConfirmationTimeout.
func WithConfirmation(wait bool, timeout time.Duration) Option {
	return func(d *Deployer) {
		d.waitForConfirmation = wait
		if timeout > 0 {
			d.confirmationTimeout = timeout
		}
	}
}

func WithDialer(dial Dialer) Option {
	return func(d *Deployer) {
		d.dial = dial
	}
}

// New creates a deployer. Without options it dials endpoints with ethclient
// and returns as soon as the node accepts the transaction.
func New(resolver artifacts.Resolver, opts ...Option) *Deployer {
	d := &Deployer{
		artifacts:           resolver,
		dial:                DialEthclient,
		waitForConfirmation: false,
		confirmationTimeout: DefaultConfirmationTimeout,
		logger:              logger.Named("deployer"),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// DialEthclient connects to a JSON-RPC endpoint (http, ws or ipc).
func DialEthclient(ctx context.Context, endpointURL string) (Backend, func(), error) {
	if strings.TrimSpace(endpointURL) == "" {
		return nil, nil, errors.New("endpoint URL is empty")
	}

	client, err := ethclient.DialContext(ctx, endpointURL)
	if err != nil {
		return nil, nil, err
	}

	return client, client.Close, nil
}

// Deploy runs Submit and, when confirmation is enabled, Confirm.
func (d *Deployer) Deploy(ctx context.Context, contractName string, target Target) (Result, error) {
	submission, err := d.Submit(ctx, contractName, target)
	if err != nil {
		return Result{}, err
	}

	if !d.waitForConfirmation {
		submission.Close()
		d.logger.
			With("contract", contractName).
			With("address", submission.Address.Hex()).
			Info("not waiting for confirmation")

		return submission.result(), nil
	}

	return d.Confirm(ctx, submission)
}

// Submit resolves the artifact, signs the creation transaction and sends it.
// It returns once the node has accepted the transaction into its pool.
func (d *Deployer) Submit(ctx context.Context, contractName string, target Target) (*Submission, error) {
	log := d.logger.With("contract", contractName).With("target", target)

	artifact, err := d.artifacts.Resolve(contractName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact for %s: %w", contractName, err)
	}
	log.With("bytecode_len", len(artifact.Bytecode)).Debug("artifact loaded")

	if strings.TrimSpace(target.SigningKey) == "" {
		return nil, fmt.Errorf("%w: no signing key configured for network %q", ErrMissingCredential, target.Network)
	}

	privateKey, err := crypto.ParsePrivateKey(target.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid signing key: %w", ErrDeployment, err)
	}

	from, err := crypto.AddressFromKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeployment, err)
	}

	log.With("url", redactURL(target.EndpointURL)).Info("dialing the network RPC")
	backend, release, err := d.dial(ctx, target.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %q: %w", ErrDeployment, redactURL(target.EndpointURL), err)
	}

	submitted := false
	defer func() {
		if !submitted && release != nil {
			release()
		}
	}()

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get chain ID: %w", ErrDeployment, err)
	}

	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get nonce of %s: %w", ErrDeployment, from.Hex(), err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create transactor: %w", ErrDeployment, err)
	}

	auth.Context = ctx
	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.GasLimit = target.GasLimit
	if target.GasPriceWei != nil {
		auth.GasPrice = new(big.Int).Set(target.GasPriceWei)
	} else {
		gasPrice, err := backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to get gas price: %w", ErrDeployment, err)
		}
		auth.GasPrice = gasPrice
	}

	expected := crypto.CreationAddress(from, nonce)

	log.
		With("chain_id", chainID).
		With("deployer", from.Hex()).
		With("nonce", nonce).
		With("gas_price", auth.GasPrice).
		Info("sending contract creation transaction")

	address, tx, _, err := bind.DeployContract(auth, artifact.ABI, artifact.Bytecode, backend)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to deploy %s: %w", ErrDeployment, contractName, err)
	}
	if address != expected {
		return nil, fmt.Errorf("%w: node assigned %s but sender %s at nonce %d creates %s",
			ErrDeployment, address.Hex(), from.Hex(), nonce, expected.Hex())
	}

	log.
		With("address", address.Hex()).
		With("tx_hash", tx.Hash().Hex()).
		Info("contract deployment transaction sent")

	submitted = true

	return &Submission{
		ContractName: contractName,
		Address:      address,
		Deployer:     from,
		Nonce:        nonce,
		Tx:           tx,
		explorerURL:  target.ExplorerURL,
		backend:      backend,
		release:      release,
	}, nil
}

// Confirm waits until the submission is mined in a successful receipt and the
// contract code is present. It closes the submission.
func (d *Deployer) Confirm(ctx context.Context, s *Submission) (Result, error) {
	defer s.Close()

	if s.backend == nil {
		return Result{}, fmt.Errorf("%w: submission of %s was already closed", ErrDeployment, s.ContractName)
	}

	log := d.logger.
		With("contract", s.ContractName).
		With("tx_hash", s.Tx.Hash().Hex())

	log.With("timeout", d.confirmationTimeout).Info("waiting for deployment confirmation")

	waitCtx, cancel := context.WithTimeout(ctx, d.confirmationTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, s.backend, s.Tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Result{}, fmt.Errorf("%w: transaction %s not mined after %s",
				ErrConfirmationTimeout, s.Tx.Hash().Hex(), d.confirmationTimeout)
		}
		return Result{}, fmt.Errorf("%w: failed to wait for transaction %s: %w", ErrDeployment, s.Tx.Hash().Hex(), err)
	}

	if receipt.BlockNumber == nil {
		return Result{}, fmt.Errorf("%w: receipt of %s has no block number", ErrDeployment, s.Tx.Hash().Hex())
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return Result{}, fmt.Errorf("%w: contract deployment failed with status %d in block %s",
			ErrDeployment, receipt.Status, receipt.BlockNumber)
	}

	code, err := s.backend.CodeAt(ctx, s.Address, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to read code at %s: %w", ErrDeployment, s.Address.Hex(), err)
	}
	if len(code) == 0 {
		return Result{}, fmt.Errorf("%w: no code at %s after deployment", ErrDeployment, s.Address.Hex())
	}

	log.
		With("block_number", receipt.BlockNumber).
		With("gas_used", receipt.GasUsed).
		Info("contract deployment confirmed")

	result := s.result()
	result.Confirmed = true
	result.BlockNumber = new(big.Int).Set(receipt.BlockNumber)

	return result, nil
}
