package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sbt-shop/contract-deployer/configs"
	"github.com/sbt-shop/contract-deployer/internal/compiler"
	"github.com/sbt-shop/contract-deployer/internal/deploy"
	"github.com/sbt-shop/contract-deployer/internal/flags"
	"github.com/sbt-shop/contract-deployer/internal/logger"
	"github.com/sbt-shop/contract-deployer/internal/node"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "deployer"

var persistentFlags = []flags.Def[string]{
	{Name: "network", ViperKey: "network", DefaultValue: "", Description: "Network to deploy to (defaults to default-network)"},
	{Name: "output", ViperKey: "output", DefaultValue: "", Description: "Report format: text or yaml"},
	{Name: "log-level", ViperKey: "log-level", DefaultValue: "", Description: "Log level: debug, info, warn or error"},
	{Name: "env-file", ViperKey: "env-file", DefaultValue: "", Description: "Dotenv file with KLAYTN_MAINNET_URL and PRIVATE_KEY"},
}

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "CLI for deploying the SoulBoundToken and ShopNFT contracts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Initialize(slog.LevelInfo)

		if err := configs.SeedDefaults(viper.GetViper()); err != nil {
			return err
		}

		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if execPath, err := os.Executable(); err == nil {
			execDir := filepath.Dir(execPath)
			viper.AddConfigPath(execDir)
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")

		// A config file is optional, the embedded defaults cover every key.
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				slog.Debug("no config file found, will rely on flags and defaults")
			} else {
				const errMsg = "error reading config file"
				slog.With("err", err.Error()).Error(errMsg)
				return errors.Join(err, errors.New(errMsg))
			}
		} else {
			slog.With("config_file", viper.ConfigFileUsed()).Debug("config file loaded")
		}

		if err := viper.Unmarshal(&configs.Values); err != nil {
			const errMsg = "unable to decode application config"
			slog.With("err", err.Error()).Error(errMsg)
			return errors.Join(err, errors.New(errMsg))
		}

		logger.Initialize(logger.ParseLevel(configs.Values.LogLevel))
		slog.With("network", configs.Values.SelectedNetwork()).Debug("configuration loaded")

		return configs.Values.Validate()
	},
}

func init() {
	flags.MustDeclare(viper.GetViper(), rootCmd.PersistentFlags(), persistentFlags)
}

func main() {
	rootCmd.AddCommand(deploy.SBTCMD)
	rootCmd.AddCommand(deploy.ShopNFTCMD)
	rootCmd.AddCommand(deploy.CMD)
	rootCmd.AddCommand(compiler.CMD)
	rootCmd.AddCommand(node.CMD)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.With("err", err.Error()).Error("failed to execute root command")
		os.Exit(1)
	}
}
