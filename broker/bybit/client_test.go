package bybit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Cyvadra/tv-bots/broker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mainnet, testnet *httptest.Server) *Client {
	t.Helper()
	settings := broker.Settings{}
	if mainnet != nil {
		settings.MainnetURL = mainnet.URL
	}
	if testnet != nil {
		settings.TestnetURL = testnet.URL
	}
	c := NewClient(settings).(*Client)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(broker.Settings{}).(*Client)

	assert.Equal(t, "bybit", c.Name())
	assert.Equal(t, DefaultMainnetURL, c.settings.MainnetURL)
	assert.Equal(t, DefaultTestnetURL, c.settings.TestnetURL)
	assert.Equal(t, "linear", c.settings.Category)
	assert.Equal(t, "5000", c.settings.RecvWindow)
}

func TestBrokerRegistration(t *testing.T) {
	assert.Contains(t, broker.GetRegisteredBrokers(), "bybit")

	b, err := broker.Create("bybit", broker.Settings{})
	require.NoError(t, err)
	assert.Equal(t, "bybit", b.Name())
}

func TestGetLotSizeFilter(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, instrumentsInfoPath, r.URL.Path)
		gotQuery = map[string]string{
			"symbol":   r.URL.Query().Get("symbol"),
			"category": r.URL.Query().Get("category"),
		}
		writeJSON(w, map[string]interface{}{
			"retCode": 0,
			"retMsg":  "OK",
			"result": map[string]interface{}{
				"category": "linear",
				"list": []interface{}{
					map[string]interface{}{
						"symbol": "BTCUSDT",
						"lotSizeFilter": map[string]string{
							"minOrderQty": "0.001",
							"qtyStep":     "0.001",
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	f, err := c.GetLotSizeFilter(context.Background(), "btcusdt", false)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", gotQuery["symbol"])
	assert.Equal(t, "linear", gotQuery["category"])
	assert.True(t, f.MinQty.Equal(decimal.RequireFromString("0.001")))
	assert.True(t, f.QtyStep.Equal(decimal.RequireFromString("0.001")))
}

func TestGetLotSizeFilterFallbackFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"retCode": 0,
			"result": map[string]interface{}{
				"list": []interface{}{
					map[string]interface{}{
						"lotSizeFilter": map[string]string{
							"minTrdAmt": "5",
							"stepSize":  "0.1",
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, nil, srv)
	f, err := c.GetLotSizeFilter(context.Background(), "ETHUSDT", true)
	require.NoError(t, err)
	assert.Equal(t, "5", f.MinQty.String())
	assert.Equal(t, "0.1", f.QtyStep.String())
}

func TestGetLotSizeFilterUsesTestnetHost(t *testing.T) {
	mainnet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("mainnet must not be queried for testnet bots")
	}))
	defer mainnet.Close()

	hit := false
	testnet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		writeJSON(w, map[string]interface{}{
			"retCode": 0,
			"result": map[string]interface{}{
				"list": []interface{}{
					map[string]interface{}{"lotSizeFilter": map[string]string{"minOrderQty": "1", "qtyStep": "1"}},
				},
			},
		})
	}))
	defer testnet.Close()

	c := newTestClient(t, mainnet, testnet)
	_, err := c.GetLotSizeFilter(context.Background(), "XRPUSDT", true)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestGetLotSizeFilterErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     interface{}
		wantCode string
		wantIs   error
	}{
		{
			name:     "non-zero retCode",
			status:   http.StatusOK,
			body:     map[string]interface{}{"retCode": 10001, "retMsg": "params error: symbol invalid"},
			wantCode: "10001",
			wantIs:   broker.ErrAPIError,
		},
		{
			name:   "empty list",
			status: http.StatusOK,
			body:   map[string]interface{}{"retCode": 0, "result": map[string]interface{}{"list": []interface{}{}}},
			wantIs: broker.ErrInvalidSymbol,
		},
		{
			name:     "http error",
			status:   http.StatusBadGateway,
			body:     map[string]interface{}{},
			wantCode: "HTTP_502",
			wantIs:   broker.ErrAPIError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			c := newTestClient(t, srv, nil)
			_, err := c.GetLotSizeFilter(context.Background(), "BTCUSDT", false)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, broker.ErrorCode(err))
			}
		})
	}
}

func TestPlaceOrderSignsRequest(t *testing.T) {
	creds := &broker.Credentials{APIKey: "key-1", SecretKey: "secret-1"}

	var got createOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, createOrderPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))

		ts := r.Header.Get("X-BAPI-TIMESTAMP")
		assert.Equal(t, "1700000000000", ts)
		assert.Equal(t, "key-1", r.Header.Get("X-BAPI-API-KEY"))
		assert.Equal(t, "5000", r.Header.Get("X-BAPI-RECV-WINDOW"))
		assert.Equal(t, Sign("secret-1", ts+"key-1"+"5000"+string(body)), r.Header.Get("X-BAPI-SIGN"))

		writeJSON(w, map[string]interface{}{
			"retCode": 0,
			"retMsg":  "OK",
			"result":  map[string]string{"orderId": "1321003749386327552", "orderLinkId": ""},
			"time":    1700000000123,
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	order, err := c.PlaceOrder(context.Background(), creds, &broker.OrderRequest{
		Symbol:     "btcusdt",
		Side:       broker.OrderSideSell,
		Type:       broker.OrderTypeLimit,
		Quantity:   "0.012",
		Price:      "65000",
		StopLoss:   "67000",
		TakeProfit: "60000",
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "1321003749386327552", order.ID)
	assert.Equal(t, broker.OrderStatusNew, order.Status)
	assert.Equal(t, "BTCUSDT", order.Symbol)
	assert.Equal(t, time.UnixMilli(1700000000123), order.CreatedAt)

	assert.Equal(t, "linear", got.Category)
	assert.Equal(t, "BTCUSDT", got.Symbol)
	assert.Equal(t, "Sell", got.Side)
	assert.Equal(t, "Limit", got.OrderType)
	assert.Equal(t, "0.012", got.Qty)
	assert.Equal(t, "65000", got.Price)
	assert.Equal(t, "GTC", got.TimeInForce)
	assert.Equal(t, "67000", got.StopLoss)
	assert.Equal(t, "60000", got.TakeProfit)
}

func TestPlaceOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"retCode": 110007, "retMsg": "ab not enough for new order"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	_, err := c.PlaceOrder(context.Background(), &broker.Credentials{APIKey: "k", SecretKey: "s"}, &broker.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     broker.OrderSideBuy,
		Type:     broker.OrderTypeMarket,
		Quantity: "0.001",
	}, false)
	require.Error(t, err)
	assert.Equal(t, "110007", broker.ErrorCode(err))
	assert.Contains(t, err.Error(), "ab not enough for new order")
}

func TestPlaceOrderValidation(t *testing.T) {
	c := NewClient(broker.Settings{MainnetURL: "http://127.0.0.1:0"}).(*Client)

	_, err := c.PlaceOrder(context.Background(), nil, &broker.OrderRequest{}, false)
	assert.ErrorIs(t, err, broker.ErrInvalidCredentials)

	_, err = c.PlaceOrder(context.Background(), &broker.Credentials{APIKey: "k", SecretKey: "s"}, &broker.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     broker.OrderSideBuy,
		Type:     broker.OrderTypeLimit,
		Quantity: "0.001",
	}, false)
	assert.ErrorIs(t, err, broker.ErrInvalidPrice)
}

func TestSign(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	assert.Equal(t,
		"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8",
		Sign("key", "The quick brown fox jumps over the lazy dog"))
}
