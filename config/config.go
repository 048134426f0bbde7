// Package config loads and validates the plugin's JSON configuration: the
// external contract the host writes to disk and passes a path to on_load.
// Strict decoding uses the standard library's encoding/json, since the
// wire format is an externally dictated, single-shot JSON document with
// no ecosystem library offering a meaningful improvement over
// DisallowUnknownFields decode for that shape (see DESIGN.md).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// AccountsSelectorConfig is the accounts_selector object: which account
// pubkeys and owners to persist.
type AccountsSelectorConfig struct {
	Accounts []string `json:"accounts"`
	Owners   []string `json:"owners"`
}

// TransactionSelectorConfig is the transaction_selector object: which
// transactions to persist, by mentioned pubkey.
type TransactionSelectorConfig struct {
	Mentions []string `json:"mentions"`
}

// Config is the plugin's JSON configuration, with defaults applied by
// Load.
type Config struct {
	CredentialPath             string                    `json:"credential_path"`
	Instance                   string                    `json:"instance"`
	AppProfileID               string                    `json:"app_profile_id"`
	Timeout                    Duration                  `json:"timeout"`
	Threads                    int                       `json:"threads"`
	BatchSize                  int                       `json:"batch_size"`
	PanicOnDBErrors            bool                      `json:"panic_on_db_errors"`
	StoreAccountHistoricalData bool                      `json:"store_account_historical_data"`
	IndexTokenOwner            bool                      `json:"index_token_owner"`
	IndexTokenMint             bool                      `json:"index_token_mint"`
	WriteDuringStartup         bool                      `json:"write_during_startup"`
	AccountsSelector           AccountsSelectorConfig    `json:"accounts_selector"`
	TransactionSelector        TransactionSelectorConfig `json:"transaction_selector"`
}

// Duration unmarshals from a Go duration string (e.g. "30s"), matching
// how the rest of the ecosystem's JSON configs in this pack represent
// durations.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

const (
	defaultInstance  = "solana-geyser-plugin-bigtable"
	defaultThreads   = 100
	defaultBatchSize = 10
)

func defaults() Config {
	return Config{
		Instance:           defaultInstance,
		Threads:            defaultThreads,
		BatchSize:          defaultBatchSize,
		WriteDuringStartup: true,
		CredentialPath:     os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	}
}

// Load reads and strictly decodes the JSON config at path, applying
// defaults for any field the document omits, then validates it.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	cfg := defaults()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	// json.Decoder only overwrites fields actually present in the
	// document, so decoding into the pre-populated cfg leaves the defaults
	// above intact for omitted keys.
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the mandatory fields; a violation is a configuration
// error surfaced to the host at on_load.
func (c Config) Validate() error {
	if c.Instance == "" {
		return fmt.Errorf("config: instance must not be empty")
	}
	if c.Threads <= 0 {
		return fmt.Errorf("config: threads must be positive, got %d", c.Threads)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be positive, got %d", c.BatchSize)
	}
	return nil
}
