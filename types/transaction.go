package types

// TransactionMessage is either a legacy message or a v0 message with
// address-table lookups. The core pipeline treats both opaquely; it never
// inspects instruction contents, only routes and persists the bytes.
type TransactionMessage struct {
	IsV0                bool
	AccountKeys         [][32]byte
	RecentBlockhash     [32]byte
	Instructions        []CompiledInstruction
	AddressTableLookups []AddressTableLookup
}

// CompiledInstruction is an opaque, already-compiled instruction as reported
// by the host.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

// AddressTableLookup is a v0-message address lookup table reference.
type AddressTableLookup struct {
	AccountKey      [32]byte
	WritableIndexes []uint8
	ReadonlyIndexes []uint8
}

// TransactionStatusMeta carries the execution outcome of a transaction.
type TransactionStatusMeta struct {
	Err                  []byte // nil on success; opaque encoded error otherwise
	Fee                  uint64
	PreBalances          []uint64
	PostBalances         []uint64
	InnerInstructions    []InnerInstructionSet
	LogMessages          []string
	PreTokenBalances     []TokenBalance
	PostTokenBalances    []TokenBalance
	Rewards              []Reward
}

// InnerInstructionSet groups the inner instructions produced by a single
// top-level instruction.
type InnerInstructionSet struct {
	Index        uint8
	Instructions []CompiledInstruction
}

// TokenBalance is a pre/post SPL token balance snapshot for one account.
type TokenBalance struct {
	AccountIndex uint8
	Mint         string
	Owner        string
	UIAmount     float64
	Amount       string
	Decimals     uint8
}

// Reward is a single lamport reward paid out as part of a block or
// transaction.
type Reward struct {
	Pubkey      string
	Lamports    int64
	PostBalance uint64
	RewardType  string
}

// TransactionRecord is immutable once emitted by the host; the pipeline
// never mutates it after it is enqueued.
type TransactionRecord struct {
	Signature  [64]byte
	Signatures [][64]byte
	Slot       uint64
	IsVote     bool
	Message    TransactionMessage
	Meta       TransactionStatusMeta
}
