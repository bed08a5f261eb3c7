package solana

import "context"

// RPCClient defines the Solana RPC HTTP calls the sniper needs.
type RPCClient interface {
	// GetTokenLargestAccounts returns the largest token accounts of a mint.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error)

	// GetTokenSupply returns the total supply of a mint. Returns nil if unknown.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)

	// GetSlot returns the current slot.
	GetSlot(ctx context.Context) (int64, error)
}

var _ RPCClient = (*HTTPClient)(nil)
