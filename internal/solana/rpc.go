package solana

import "context"

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// RPCClient defines the Solana RPC HTTP interface the agent reads through.
type RPCClient interface {
	// GetBalance retrieves an account's balance in SOL.
	GetBalance(ctx context.Context, address string) (float64, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)

	// GetAccountInfo retrieves account info by public key.
	// Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)
}

// TransferFunc executes an on-chain SOL transfer and returns the transaction
// signature. Signing happens outside this module; the agent only consumes
// the resulting reference.
type TransferFunc func(ctx context.Context, to string, amountSOL float64, memo string) (string, error)
