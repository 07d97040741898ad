// Command ton_subscriber is the thin ingress process entry point: it wires
// rpcclient, tracestore, traceparser and the "events" queue together.
// Process entry points (config loading, signal handling, heartbeat) are
// out of scope for this repository; this binary exists only to show how
// the in-scope packages compose into the real ingress subscriber and does
// not reimplement those excluded concerns.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cmdconfig "ton-gmp-adapter/cmd/config"
	"ton-gmp-adapter/gmpapi"
	"ton-gmp-adapter/queue"
	"ton-gmp-adapter/retry"
	"ton-gmp-adapter/rowstore"
	"ton-gmp-adapter/rpcclient"
	"ton-gmp-adapter/tonaddr"
	"ton-gmp-adapter/traceparser"
	"ton-gmp-adapter/tracestore"
)

// pollInterval is the ingress sweep period; the retry subscriber's own
// 5-second loop runs independently alongside it.
const pollInterval = 10 * time.Second

func main() {
	var network string

	root := &cobra.Command{
		Use:   "ton_subscriber",
		Short: "watch the gateway and gas-service accounts and publish GMP events",
		Run: func(cmd *cobra.Command, args []string) {
			cmdconfig.LoadConfig(network)
			cfg := cmdconfig.AppConfig

			rpc := rpcclient.NewHTTPClient(cfg.TonRPC, cfg.TonAPIKey)
			store := tracestore.New(rowstore.NewInMemory[tracestore.Row]())
			events := queue.NewInMemory(1024)

			sub := retry.New(store, rpc, events)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go sub.Run(ctx)

			watched := []string{cfg.TonGateway, cfg.TonGasService}
			ticker := time.NewTicker(pollInterval)
			defer ticker.Stop()
			for range ticker.C {
				sweep(ctx, rpc, store, events, watched, cfg.TonGateway, cfg.TonGasService)
			}
		},
	}
	root.Flags().StringVar(&network, "network", os.Getenv("NETWORK"), "network config to load (config.<network>.yaml)")

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("ton_subscriber: exiting")
	}
}

func sweep(ctx context.Context, rpc rpcclient.Client, store *tracestore.Store, events queue.Queue, watched []string, gateway, gasService string) {
	logger := log.WithField("component", "ton_subscriber")
	traces, err := rpc.GetTraces(ctx, watched)
	if err != nil {
		logger.WithError(err).Warn("get_traces failed")
		return
	}

	gatewayAddr, _ := tonaddr.Parse(gateway)
	gasServiceAddr, _ := tonaddr.Parse(gasService)

	for _, trace := range traces {
		_, changed, err := store.UpsertAndReturnIfChanged(trace)
		if err != nil {
			logger.WithError(err).WithField("trace_id", trace.TraceID).Warn("upsert failed")
			continue
		}
		if !changed {
			continue
		}
		traceCopy := trace
		parsedEvents, _ := traceparser.ParseTrace(&traceCopy, gatewayAddr.String(), gasServiceAddr.String())
		// No live price oracle is reachable from this repository; it is an
		// out-of-scope external collaborator. ApplyGasCreditConversion
		// is a no-op against a nil oracle, leaving jetton GAS_CREDIT events
		// denominated in the jetton until a real priceoracle.Oracle is wired.
		parsedEvents = traceparser.ApplyGasCreditConversion(ctx, parsedEvents, nil)
		for _, ev := range parsedEvents {
			publishEvent(ctx, events, ev, logger)
		}
	}
}

func publishEvent(ctx context.Context, events queue.Queue, ev traceparser.Event, logger *log.Entry) {
	payload := map[string]any{}
	raw, err := json.Marshal(ev)
	if err != nil {
		logger.WithError(err).Warn("marshal event failed")
		return
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.WithError(err).Warn("re-decode event payload failed")
		return
	}

	out := gmpapi.Event{Type: string(ev.Kind), TraceID: ev.TraceID, MessageID: ev.MessageID, Payload: payload}
	envelope, err := json.Marshal(out)
	if err != nil {
		logger.WithError(err).Warn("marshal envelope failed")
		return
	}
	wrapped, err := queue.Wrap(envelope)
	if err != nil {
		logger.WithError(err).Warn("wrap envelope failed")
		return
	}
	if err := events.Publish(ctx, wrapped); err != nil {
		logger.WithError(err).WithField("trace_id", ev.TraceID).Warn("publish failed")
	}
}
