// Command ton_account_checker is the thin process entry point for C12
// (Account Checker). Process concerns scopes out of this
// repository — flag/env parsing beyond the three flags shown here, signal
// handling, heartbeat publication, and logging setup — are left to the
// real deployment's supervisor; this binary only shows how accountcheck
// composes with rpcclient and cmd/config (supplemented
// features).
package main

import (
	"context"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ton-gmp-adapter/accountcheck"
	cmdconfig "ton-gmp-adapter/cmd/config"
	"ton-gmp-adapter/rpcclient"
)

func main() {
	var network string
	var addresses string
	var forever bool

	root := &cobra.Command{
		Use:   "ton_account_checker",
		Short: "periodically classify a fixed set of TON account addresses",
		Run: func(cmd *cobra.Command, args []string) {
			cmdconfig.LoadConfig(network)
			cfg := cmdconfig.AppConfig

			addrs := splitNonEmpty(addresses)
			if len(addrs) == 0 {
				for _, w := range cfg.Wallets {
					addrs = append(addrs, w.Address)
				}
			}

			rpc := rpcclient.NewHTTPClient(cfg.TonRPC, cfg.TonAPIKey)
			checker := accountcheck.New(rpc, addrs)
			checker.Run(context.Background(), forever)
		},
	}
	root.Flags().StringVar(&network, "network", os.Getenv("NETWORK"), "network config to load (config.<network>.yaml)")
	root.Flags().StringVar(&addresses, "addresses", "", "comma-separated addresses to check (defaults to configured wallet addresses)")
	root.Flags().BoolVar(&forever, "forever", true, "keep polling instead of checking once and exiting")

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("ton_account_checker: exiting")
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
