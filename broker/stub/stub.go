// Package stub provides a deterministic in-memory exchange. It never touches
// the network, which keeps order routing tests reproducible.
package stub

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Cyvadra/tv-bots/broker"
)

// PlacedOrder is one PlaceOrder call as seen by the stub
type PlacedOrder struct {
	Credentials broker.Credentials
	Request     broker.OrderRequest
	Testnet     bool
}

// Exchange is a deterministic broker.Exchange
type Exchange struct {
	name    string
	mu      sync.Mutex
	filters map[string]broker.LotSizeFilter
	orders  []PlacedOrder
	lookups []string
	nextID  int

	// FilterErr and OrderErr, when set, are returned by the matching call
	FilterErr error
	OrderErr  error
}

// New creates a stub exchange answering to name
func New(name string) *Exchange {
	return &Exchange{
		name:    name,
		filters: make(map[string]broker.LotSizeFilter),
		nextID:  1,
	}
}

// SetFilter presets the lot size filter of symbol
func (e *Exchange) SetFilter(symbol, minQty, qtyStep string) *Exchange {
	f, err := broker.NewLotSizeFilter(symbol, minQty, qtyStep)
	if err != nil {
		panic(err)
	}
	e.mu.Lock()
	e.filters[symbol] = *f
	e.mu.Unlock()
	return e
}

// Name returns the exchange name
func (e *Exchange) Name() string {
	return e.name
}

// GetLotSizeFilter returns the preset filter of symbol
func (e *Exchange) GetLotSizeFilter(ctx context.Context, symbol string, testnet bool) (*broker.LotSizeFilter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lookups = append(e.lookups, symbol)
	if e.FilterErr != nil {
		return nil, e.FilterErr
	}
	f, ok := e.filters[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", broker.ErrInvalidSymbol, symbol)
	}
	return &f, nil
}

// PlaceOrder records the order and returns a sequential order id
func (e *Exchange) PlaceOrder(ctx context.Context, creds *broker.Credentials, req *broker.OrderRequest, testnet bool) (*broker.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	placed := PlacedOrder{Request: *req, Testnet: testnet}
	if creds != nil {
		placed.Credentials = *creds
	}
	e.orders = append(e.orders, placed)

	if e.OrderErr != nil {
		return nil, e.OrderErr
	}

	id := strconv.Itoa(e.nextID)
	e.nextID++
	return &broker.Order{
		ID:        e.name + "-" + id,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Status:    broker.OrderStatusNew,
		CreatedAt: time.Unix(0, 0).UTC(),
	}, nil
}

// Orders returns a copy of every order placed so far
func (e *Exchange) Orders() []PlacedOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]PlacedOrder(nil), e.orders...)
}

// Lookups returns the symbols queried for lot size filters
func (e *Exchange) Lookups() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.lookups...)
}
