package store

import (
	"context"
	"fmt"
	"time"

	gbigtable "cloud.google.com/go/bigtable"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/option"
)

// column family and qualifier every table in this module writes its
// length-delimited protobuf payload under. A single family keeps this
// thin: there is no secondary-index or multi-version read path yet.
const (
	columnFamily    = "cf1"
	columnQualifier = "bin"
)

// GCPConfig configures the production RemoteStore.
type GCPConfig struct {
	ProjectID      string
	Instance       string
	AppProfileID   string
	CredentialPath string
	Timeout        time.Duration
	// MaxElapsedRetry bounds how long PutCellsWithRetry retries a single
	// RPC before giving up.
	MaxElapsedRetry time.Duration
}

// GCPStore is a RemoteStore backed by cloud.google.com/go/bigtable.
type GCPStore struct {
	client *gbigtable.Client
	cfg    GCPConfig
}

// NewGCPStore dials Bigtable using cfg. A failure here is the initial
// remote-store handshake error surfaced to the host at on_load.
func NewGCPStore(ctx context.Context, cfg GCPConfig) (*GCPStore, error) {
	if cfg.Instance == "" {
		return nil, fmt.Errorf("store: instance is required")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("store: project id is required (set GOOGLE_CLOUD_PROJECT)")
	}
	var opts []option.ClientOption
	if cfg.CredentialPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialPath))
	}
	clientCfg := gbigtable.ClientConfig{AppProfile: cfg.AppProfileID}
	client, err := gbigtable.NewClientWithConfig(ctx, cfg.ProjectID, cfg.Instance, clientCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to bigtable instance %q: %w", cfg.Instance, err)
	}
	return &GCPStore{client: client, cfg: cfg}, nil
}

// PutCellsWithRetry implements RemoteStore.
func (s *GCPStore) PutCellsWithRetry(ctx context.Context, table string, rows []Row, useTimestampAsVersion bool) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	tbl := s.client.Open(table)

	rowKeys := make([]string, len(rows))
	muts := make([]*gbigtable.Mutation, len(rows))
	written := 0
	ts := gbigtable.Now()
	if !useTimestampAsVersion {
		ts = gbigtable.Timestamp(0)
	}
	for i, r := range rows {
		mut := gbigtable.NewMutation()
		mut.Set(columnFamily, columnQualifier, ts, r.Value)
		rowKeys[i] = r.Key
		muts[i] = mut
		written += len(r.Value)
	}

	policy := backoff.NewExponentialBackOff()
	if s.cfg.MaxElapsedRetry > 0 {
		policy.MaxElapsedTime = s.cfg.MaxElapsedRetry
	}

	op := func() error {
		errs, err := tbl.ApplyBulk(ctx, rowKeys, muts)
		if err != nil {
			return err
		}
		for _, e := range errs {
			if e != nil {
				return e
			}
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return 0, fmt.Errorf("%w: table %s: %v", ErrWrite, table, err)
	}
	return written, nil
}

// Close implements RemoteStore.
func (s *GCPStore) Close() error {
	return s.client.Close()
}
