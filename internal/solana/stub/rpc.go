package stub

import (
	"context"
	"sync"

	"solana-promo-agent/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu       sync.Mutex
	Balances map[string]float64
	Accounts map[string]*solana.AccountInfo
	Slot     int64

	// Err, when set, is returned by every call.
	Err error
}

// Compile-time interface check.
var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances: make(map[string]float64),
		Accounts: make(map[string]*solana.AccountInfo),
	}
}

// GetBalance retrieves an account's balance from the stub store.
func (c *RPCClient) GetBalance(_ context.Context, address string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	return c.Balances[address], nil
}

// GetSlot returns the configured slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	return c.Slot, nil
}

// GetAccountInfo retrieves account info from the stub store.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Accounts[pubkey], nil
}

// SetBalance sets an account's balance in the stub store.
func (c *RPCClient) SetBalance(address string, sol float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Balances[address] = sol
}
