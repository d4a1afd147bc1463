package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/config"
	"github.com/egaotan/solana-router/router/app"
	"github.com/egaotan/solana-router/spltoken"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "router",
		Short:        "Split-route swap aggregator",
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd(), balanceCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the swap API against the sandbox ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(context.Background())
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGABRT)
			go shutdown(cancel, quit)

			gin.SetMode(gin.ReleaseMode)
			router, err := app.NewRouter(ctx, cfg)
			if err != nil {
				cancel()
				return err
			}
			return router.Service()
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "path to the YAML config file")
	return cmd
}

func balanceCmd() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Read a token account balance from a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid account %q: %w", args[0], err)
			}
			reader := backend.NewBackend(cmd.Context(), endpoint, nil)
			token := spltoken.NewProgram(reader, nil)
			user, err := token.GetUser(key)
			if err != nil {
				return err
			}
			ui, err := token.AmountUi(user.Mint, user.Amount)
			if err != nil {
				return err
			}
			cmd.Printf("account: %s\n", key)
			cmd.Printf("mint:    %s\n", user.Mint)
			cmd.Printf("owner:   %s\n", user.Owner)
			cmd.Printf("amount:  %d (%s)\n", user.Amount, ui.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "rpc", "https://api.mainnet-beta.solana.com", "JSON-RPC endpoint")
	return cmd
}

func shutdown(cancel context.CancelFunc, quit <-chan os.Signal) {
	osCall := <-quit
	fmt.Printf("system call: %+v, router is shutting down......\n", osCall)
	cancel()
}
