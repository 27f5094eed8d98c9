package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fastprodman/coinflip/internal/api"
	"github.com/fastprodman/coinflip/internal/auth"
	"github.com/fastprodman/coinflip/internal/config"
	"github.com/fastprodman/coinflip/internal/repos/registry"
	"github.com/fastprodman/coinflip/internal/services/admin"
	"github.com/fastprodman/coinflip/internal/services/ledger"
	"github.com/fastprodman/coinflip/internal/storage"
)

type deps struct {
	openStore func(ctx context.Context) (storage.Store, func(), error)
	loadAuth  func() (config.AuthConfig, error)
}

type rootFlags struct {
	decimals int32
}

func newRootCmd(ctx context.Context, d deps) *cobra.Command {
	rf := &rootFlags{}

	root := &cobra.Command{
		Use:          "admin",
		Short:        "Administer a coinflip deployment",
		SilenceUsage: true,
	}

	root.PersistentFlags().Int32Var(&rf.decimals, "decimals", 9, "fractional digits of amount arguments")

	root.AddCommand(
		newInitCmd(ctx, d, rf),
		newSetConfigCmd(ctx, d, rf),
		newShowConfigCmd(ctx, d, rf),
		newCreditCmd(ctx, d, rf),
		newTokenCmd(d),
	)

	return root
}

type configOutput struct {
	Admin          string `json:"admin"`
	TreasuryWallet string `json:"treasuryWallet"`
	TokenMint      string `json:"tokenMint"`
	FeeAmount      string `json:"feeAmount"`
	MinBetAmount   string `json:"minBetAmount"`
	NextPoolID     uint64 `json:"nextPoolId"`
}

func printConfig(w io.Writer, u api.Units, cfg registry.Config) error {
	return printJSON(w, configOutput{
		Admin:          cfg.Admin,
		TreasuryWallet: cfg.TreasuryWallet,
		TokenMint:      cfg.TokenMint,
		FeeAmount:      u.Format(cfg.FeeAmount),
		MinBetAmount:   u.Format(cfg.MinBetAmount),
		NextPoolID:     cfg.NextPoolID,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func newInitCmd(ctx context.Context, d deps, rf *rootFlags) *cobra.Command {
	var (
		adminAddr, treasury, mint string
		fee, minBet               string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the global registry (once)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := api.Units{Decimals: rf.decimals}

			feeUnits, err := u.ParseNonNegative(fee)
			if err != nil {
				return fmt.Errorf("--fee: %w", err)
			}

			minUnits, err := u.Parse(minBet)
			if err != nil {
				return fmt.Errorf("--min-bet: %w", err)
			}

			store, closeFn, err := d.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := admin.New(store, nil).Initialize(ctx, admin.InitParams{
				Admin:        adminAddr,
				Treasury:     treasury,
				TokenMint:    mint,
				FeeAmount:    feeUnits,
				MinBetAmount: minUnits,
			})
			if err != nil {
				return err
			}

			return printConfig(cmd.OutOrStdout(), u, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&adminAddr, "admin", "", "admin address")
	f.StringVar(&treasury, "treasury", "", "treasury wallet receiving fees")
	f.StringVar(&mint, "mint", "", "token mint staked in pools")
	f.StringVar(&fee, "fee", "0", "fee charged in the native asset per create and join")
	f.StringVar(&minBet, "min-bet", "", "minimum stake")

	for _, name := range []string{"admin", "treasury", "mint", "min-bet"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newSetConfigCmd(ctx context.Context, d deps, rf *rootFlags) *cobra.Command {
	var (
		caller, treasury, mint string
		fee, minBet            string
	)

	cmd := &cobra.Command{
		Use:   "set-config",
		Short: "Replace fee, treasury, minimum bet and optionally the token mint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := api.Units{Decimals: rf.decimals}

			feeUnits, err := u.ParseNonNegative(fee)
			if err != nil {
				return fmt.Errorf("--fee: %w", err)
			}

			minUnits, err := u.Parse(minBet)
			if err != nil {
				return fmt.Errorf("--min-bet: %w", err)
			}

			upd := admin.Update{
				FeeAmount:    feeUnits,
				Treasury:     treasury,
				MinBetAmount: minUnits,
			}
			if cmd.Flags().Changed("mint") {
				upd.TokenMint = &mint
			}

			store, closeFn, err := d.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := admin.New(store, nil).SetConfig(ctx, caller, upd)
			if err != nil {
				return err
			}

			return printConfig(cmd.OutOrStdout(), u, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&caller, "caller", "", "address of the registry admin")
	f.StringVar(&treasury, "treasury", "", "treasury wallet receiving fees")
	f.StringVar(&mint, "mint", "", "new token mint; omitted keeps the current one")
	f.StringVar(&fee, "fee", "", "fee charged in the native asset")
	f.StringVar(&minBet, "min-bet", "", "minimum stake")

	for _, name := range []string{"caller", "treasury", "fee", "min-bet"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newShowConfigCmd(ctx context.Context, d deps, rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show-config",
		Short: "Print the global registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := d.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := admin.New(store, nil).Get(ctx)
			if err != nil {
				return err
			}

			return printConfig(cmd.OutOrStdout(), api.Units{Decimals: rf.decimals}, cfg)
		},
	}
}

// newCreditCmd is a dev faucet: it mints into a player account.
func newCreditCmd(ctx context.Context, d deps, rf *rootFlags) *cobra.Command {
	var to, asset, amount string

	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Mint an amount of an asset into a player account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := api.Units{Decimals: rf.decimals}

			units, err := u.Parse(amount)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}

			store, closeFn, err := d.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if asset == "" {
				cfg, err := admin.New(store, nil).Get(ctx)
				if err != nil {
					return err
				}

				asset = cfg.TokenMint
			}

			led := ledger.New(store, nil)

			err = led.Credit(ctx, to, asset, units)
			if err != nil {
				return err
			}

			bal, err := led.Balance(ctx, to, asset)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]string{
				"address": to,
				"asset":   asset,
				"balance": u.Format(bal),
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&to, "to", "", "receiving address")
	f.StringVar(&asset, "asset", "", "asset to mint; defaults to the configured token mint")
	f.StringVar(&amount, "amount", "", "amount to mint")

	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTokenCmd(d deps) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a player address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := d.loadAuth()
			if err != nil {
				return err
			}

			tokens, err := auth.New(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL)
			if err != nil {
				return err
			}

			raw, err := tokens.Issue(subject)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), raw)

			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "player address the token speaks for")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
