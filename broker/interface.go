package broker

import (
	"context"
	"sort"
)

// Exchange represents a derivatives exchange that alerts can be routed to.
// Credentials and the network are passed per call, so an Exchange value holds
// no account state and is safe to share between requests.
type Exchange interface {
	// Name returns the lower-case exchange name, e.g. "bybit"
	Name() string

	// GetLotSizeFilter queries the instrument metadata for symbol
	GetLotSizeFilter(ctx context.Context, symbol string, testnet bool) (*LotSizeFilter, error)

	// PlaceOrder submits an order with the given account credentials
	PlaceOrder(ctx context.Context, creds *Credentials, req *OrderRequest, testnet bool) (*Order, error)
}

// ExchangeFactory is a factory function type for creating exchanges
type ExchangeFactory func(settings Settings) Exchange

// Registry holds all registered exchange factories
var Registry = make(map[string]ExchangeFactory)

// Register registers an exchange factory
func Register(name string, factory ExchangeFactory) {
	Registry[name] = factory
}

// Create creates a new exchange instance by name
func Create(name string, settings Settings) (Exchange, error) {
	factory, exists := Registry[name]
	if !exists {
		return nil, ErrBrokerNotFound
	}
	return factory(settings), nil
}

// GetRegisteredBrokers returns a sorted list of all registered exchange names
func GetRegisteredBrokers() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
