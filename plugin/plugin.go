// Package plugin wires together config, lifecycle, queue, worker pool,
// and dispatcher into the host-callback-shaped entrypoints: on_load,
// on_unload, notify_account_change, update_slot_status,
// notify_transaction, notify_block_metadata, notify_end_of_startup. The
// host-marshalling shim that adapts these to the validator's actual
// Geyser ABI lives outside this module; this package is the boundary such
// a shim calls into.
package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gbigtable "github.com/lijunwangs/solana-accountsdb-plugin-bigtable/bigtable"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/bigtable/store"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/config"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/dispatcher"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/lifecycle"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/metrics"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/queue"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/selector"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/worker"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/xlog"
)

// Plugin owns the whole pipeline: queue, lifecycle coordinator, worker
// pool, and dispatcher, constructed from a loaded Config.
type Plugin struct {
	cfg      config.Config
	q        *queue.Queue
	coord    *lifecycle.Coordinator
	pool     *worker.Pool
	disp     *dispatcher.Dispatcher
	log      *xlog.Logger
	registry *prometheus.Registry
}

// Load implements on_load: it connects to the remote store, spawns the
// worker pool, and returns a ready Plugin, or a connection error for the
// host to report.
func Load(ctx context.Context, configPath string) (*Plugin, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	// A single handshake validates connectivity before any worker is
	// spawned; each worker subsequently opens its own exclusive client.
	probe, err := store.NewGCPStore(ctx, store.GCPConfig{
		ProjectID:       projectIDFromCredentials(cfg),
		Instance:        cfg.Instance,
		AppProfileID:    cfg.AppProfileID,
		CredentialPath:  cfg.CredentialPath,
		Timeout:         cfg.Timeout.Duration,
		MaxElapsedRetry: cfg.Timeout.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("plugin: on_load: %w", err)
	}
	probe.Close()

	q := queue.New(queue.DefaultCapacity)
	coord := lifecycle.New()

	// Each Plugin owns a private registry rather than prometheus's global
	// DefaultRegisterer, so a host process that loads this plugin more than
	// once (tests, hot-reload) never hits a duplicate-registration panic.
	registry := prometheus.NewRegistry()
	sink := metrics.NewPrometheus(registry)

	newClient := func() (*gbigtable.Client, error) {
		remote, err := store.NewGCPStore(ctx, store.GCPConfig{
			ProjectID:       projectIDFromCredentials(cfg),
			Instance:        cfg.Instance,
			AppProfileID:    cfg.AppProfileID,
			CredentialPath:  cfg.CredentialPath,
			Timeout:         cfg.Timeout.Duration,
			MaxElapsedRetry: cfg.Timeout.Duration,
		})
		if err != nil {
			return nil, err
		}
		return gbigtable.New(remote, gbigtable.Config{
			BatchSize:                  cfg.BatchSize,
			StoreAccountHistoricalData: cfg.StoreAccountHistoricalData,
			OnAccountBatchFlush:        sink.ObserveBatchSize,
		}), nil
	}

	pool := worker.New(q, coord, worker.Options{Count: cfg.Threads, PanicOnDBErrors: cfg.PanicOnDBErrors, Metrics: sink}, newClient)
	pool.Start(ctx)

	disp := dispatcher.New(q, coord, pool, dispatcher.Options{
		SkipDuringStartup: !cfg.WriteDuringStartup,
		Accounts:          selector.NewAccountsSelector(cfg.AccountsSelector.Accounts, cfg.AccountsSelector.Owners),
		Transactions:      selector.NewTransactionSelector(cfg.TransactionSelector.Mentions),
		Metrics:           sink,
	})

	return &Plugin{cfg: cfg, q: q, coord: coord, pool: pool, disp: disp, log: xlog.New("component", "plugin"), registry: registry}, nil
}

// MetricsHandler returns an http.Handler exposing this Plugin's Prometheus
// registry in the standard text exposition format. The host-marshalling
// shim decides where (if anywhere) to mount it; this package only owns the
// registry.
func (p *Plugin) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// NotifyAccountChange implements on_account.
func (p *Plugin) NotifyAccountChange(acc types.AccountUpdate) error {
	return p.disp.OnAccount(acc)
}

// UpdateSlotStatus implements on_slot.
func (p *Plugin) UpdateSlotStatus(update types.SlotUpdate) error {
	return p.disp.OnSlot(update)
}

// NotifyTransaction implements on_transaction.
func (p *Plugin) NotifyTransaction(tx types.TransactionRecord) error {
	accountKeys := tx.Message.AccountKeys
	return p.disp.OnTransaction(tx, accountKeys)
}

// NotifyBlockMetadata implements on_block.
func (p *Plugin) NotifyBlockMetadata(block types.BlockMetadata) error {
	return p.disp.OnBlock(block)
}

// NotifyEndOfStartup implements notify_end_of_startup.
func (p *Plugin) NotifyEndOfStartup() {
	p.log.Info("awaiting end-of-startup barrier")
	p.disp.NotifyEndOfStartup()
	p.log.Info("end-of-startup barrier complete")
}

// OnUnload implements on_unload: it calls join() and waits for every
// worker to return.
func (p *Plugin) OnUnload() error {
	return p.disp.Join()
}

// projectIDFromCredentials resolves the GCP project for the Bigtable
// client. The config format carries no explicit project_id
// key, so the GOOGLE_CLOUD_PROJECT environment variable wins, falling
// back to the project_id embedded in the service-account key file.
func projectIDFromCredentials(cfg config.Config) string {
	if env := os.Getenv("GOOGLE_CLOUD_PROJECT"); env != "" {
		return env
	}
	raw, err := os.ReadFile(cfg.CredentialPath)
	if err != nil {
		return ""
	}
	var key struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(raw, &key); err != nil {
		return ""
	}
	return key.ProjectID
}
