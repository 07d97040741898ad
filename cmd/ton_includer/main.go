// Command ton_includer is the thin egress process entry point: it wires the
// wallet pool, lock manager, query-id reservations and gas estimator into a
// broadcast.Pipeline and dispatches tasks consumed from the "tasks" queue to
// the matching handler by kind. Queue transport and the concrete GMP-API
// client are out-of-scope external collaborators; this binary only shows
// how the in-scope packages compose.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ton-gmp-adapter/broadcast"
	cmdconfig "ton-gmp-adapter/cmd/config"
	"ton-gmp-adapter/gas"
	"ton-gmp-adapter/gmpapi"
	"ton-gmp-adapter/lockbackend"
	"ton-gmp-adapter/lockmanager"
	pkgconfig "ton-gmp-adapter/pkg/config"
	"ton-gmp-adapter/queryid"
	"ton-gmp-adapter/queue"
	"ton-gmp-adapter/rowstore"
	"ton-gmp-adapter/rpcclient"
	"ton-gmp-adapter/tonaddr"
	"ton-gmp-adapter/wallet"
)

func main() {
	var network string

	root := &cobra.Command{
		Use:   "ton_includer",
		Short: "consume egress tasks and broadcast them as high-load wallet messages",
		Run: func(cmd *cobra.Command, args []string) {
			cmdconfig.LoadConfig(network)
			cfg := cmdconfig.AppConfig

			pipeline, relayer, err := buildPipeline(cfg)
			if err != nil {
				log.WithError(err).Fatal("ton_includer: build pipeline")
			}

			tasks := queue.NewInMemory(1024)
			ctx := context.Background()
			stream, err := tasks.Consume(ctx)
			if err != nil {
				log.WithError(err).Fatal("ton_includer: consume tasks")
			}

			logger := log.WithField("component", "ton_includer")
			for raw := range stream {
				handleTask(ctx, pipeline, relayer, raw, logger)
			}
		},
	}
	root.Flags().StringVar(&network, "network", os.Getenv("NETWORK"), "network config to load (config.<network>.yaml)")

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("ton_includer: exiting")
	}
}

func buildPipeline(cfg pkgconfig.Config) (*broadcast.Pipeline, tonaddr.Address, error) {
	wallets := make([]wallet.Wallet, 0, len(cfg.Wallets))
	for _, w := range cfg.Wallets {
		addr, err := tonaddr.Parse(w.Address)
		if err != nil {
			return nil, tonaddr.Address{}, fmt.Errorf("ton_includer: wallet address: %w", err)
		}
		pub, err := hex.DecodeString(w.PublicKey)
		if err != nil {
			return nil, tonaddr.Address{}, fmt.Errorf("ton_includer: wallet public_key: %w", err)
		}
		priv, err := hex.DecodeString(w.SecretKey)
		if err != nil {
			return nil, tonaddr.Address{}, fmt.Errorf("ton_includer: wallet secret_key: %w", err)
		}
		wallets = append(wallets, wallet.Wallet{
			Address:     addr,
			PublicKey:   pub,
			SecretKey:   priv,
			SubwalletID: w.SubwalletID,
			TimeoutS:    w.TimeoutS,
		})
	}
	if len(wallets) == 0 {
		return nil, tonaddr.Address{}, fmt.Errorf("ton_includer: no wallets configured")
	}

	locks := lockmanager.New(lockbackend.NewInMemory())
	pool := wallet.NewPool(wallets, locks)
	builder := wallet.NewBuilder()
	reservations := queryid.New(rowstore.NewInMemory[queryid.Row]())

	estimator := gas.NewEstimator(gas.Estimates{
		NativeGasRefund:                cfg.GasEstimates.NativeGasRefund,
		NativeGasRefundStorageSlippage: cfg.GasEstimates.NativeGasRefundStorageSlippage,
		Execute:                        cfg.GasEstimates.Execute,
		ExecuteStorageSlippage:         cfg.GasEstimates.ExecuteStorageSlippage,
		ApproveMessagesPerEntry:        cfg.GasEstimates.ApproveMessages,
		HighloadWalletPerAction:        cfg.GasEstimates.HighloadWallet,
	})

	rpc := rpcclient.NewHTTPClient(cfg.TonRPC, cfg.TonAPIKey)

	gateway, err := tonaddr.Parse(cfg.TonGateway)
	if err != nil {
		return nil, tonaddr.Address{}, fmt.Errorf("ton_includer: ton_gateway: %w", err)
	}
	gasService, err := tonaddr.Parse(cfg.TonGasService)
	if err != nil {
		return nil, tonaddr.Address{}, fmt.Errorf("ton_includer: ton_gas_service: %w", err)
	}

	pipeline := broadcast.New(pool, builder, reservations, rpc, estimator, gateway, gasService, cfg.CommonConfig.ChainName)
	return pipeline, wallets[0].Address, nil
}

func handleTask(ctx context.Context, p *broadcast.Pipeline, relayer tonaddr.Address, raw []byte, logger *log.Entry) {
	env, err := queue.Unwrap(raw)
	if err != nil {
		logger.WithError(err).Warn("unwrap task envelope failed")
		return
	}
	var task gmpapi.Task
	if err := json.Unmarshal(env.Payload, &task); err != nil {
		logger.WithError(err).WithField("envelope_id", env.ID).Warn("decode task failed")
		return
	}

	var result gmpapi.TaskResult
	switch task.Kind {
	case gmpapi.TaskApprove:
		result = p.BroadcastProverMessage(ctx, task.TxBlobHex)
	case gmpapi.TaskExecute:
		result = p.BroadcastExecuteMessage(ctx, task, relayer)
	case gmpapi.TaskRefund:
		balance, err := p.RPC.GetAccountStates(ctx, []string{p.GasServiceAddr.String()})
		if err != nil || len(balance) == 0 {
			logger.WithError(err).Warn("refund: account state lookup failed")
			return
		}
		remaining, ok := parseBalance(balance[0].Balance)
		if !ok {
			logger.WithField("balance", balance[0].Balance).Warn("refund: unparseable balance")
			return
		}
		result = p.BroadcastRefundMessage(ctx, task, remaining)
	default:
		logger.WithField("kind", task.Kind).Warn("unknown task kind")
		return
	}

	if result.Status == gmpapi.StatusError {
		logger.WithError(result.Err).WithField("task_id", task.ID).Warn("task broadcast failed")
		return
	}
	logger.WithFields(log.Fields{"task_id": task.ID, "tx_hash": result.TxHash}).Info("task broadcast succeeded")
}

func parseBalance(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}
