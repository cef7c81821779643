package deploy

import (
	"fmt"
	"log/slog"

	"github.com/sbt-shop/contract-deployer/configs"
	"github.com/sbt-shop/contract-deployer/internal/env"
	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:   "deploy <contract>",
	Short: "Deploy a compiled contract to the selected network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, Request{
			Contract:            args[0],
			Network:             configs.Values.SelectedNetwork(),
			WaitForConfirmation: configs.Values.Deploy.WaitForConfirmation,
		})
	},
}

var SBTCMD = scriptCommand(configs.ScriptNameSBT, "Deploy the SoulBoundToken contract without waiting for it to be mined")

var ShopNFTCMD = scriptCommand(configs.ScriptNameShopNFT, "Deploy the ShopNFT contract and wait for it to be mined")

func scriptCommand(name configs.ScriptName, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(name),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := ScriptRequest(configs.Values, name)
			if err != nil {
				return err
			}

			return run(cmd, req)
		},
	}
}

func run(cmd *cobra.Command, req Request) error {
	loader, err := env.Load(configs.Values.EnvFile)
	if err != nil {
		return err
	}

	service, err := NewService(configs.Values, loader, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	result, err := service.Run(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("error occurred deploying %s: %w", req.Contract, err)
	}

	slog.Info("deployment finished",
		slog.String("contract", result.ContractName),
		slog.String("address", result.ContractAddress.Hex()),
		slog.Bool("confirmed", result.Confirmed))

	return nil
}
