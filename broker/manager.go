package broker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Manager holds the exchanges alerts can be routed to, keyed by name
type Manager struct {
	exchanges map[string]Exchange
	mutex     sync.RWMutex
	logger    *logrus.Entry
}

// NewManager creates a new exchange manager
func NewManager() *Manager {
	return &Manager{
		exchanges: make(map[string]Exchange),
		logger:    logrus.WithField("component", "broker_manager"),
	}
}

// SetLogger sets a custom logger
func (m *Manager) SetLogger(logger *logrus.Entry) {
	m.logger = logger
}

// AddExchange adds an exchange to the manager
func (m *Manager) AddExchange(exchange Exchange) error {
	if exchange == nil {
		return fmt.Errorf("exchange cannot be nil")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	name := strings.ToLower(exchange.Name())
	m.exchanges[name] = exchange
	m.logger.WithField("exchange", name).Info("Added exchange")
	return nil
}

// InitializeExchanges creates every registered exchange that has settings
func (m *Manager) InitializeExchanges(settings map[string]Settings) error {
	for name, s := range settings {
		exchange, err := Create(name, s)
		if err != nil {
			return fmt.Errorf("failed to create exchange %s: %w", name, err)
		}
		if err := m.AddExchange(exchange); err != nil {
			return err
		}
	}
	return nil
}

// GetExchange retrieves an exchange by name
func (m *Manager) GetExchange(name string) (Exchange, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	exchange, exists := m.exchanges[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrBrokerNotFound, name)
	}

	return exchange, nil
}

// Names returns the names of all configured exchanges
func (m *Manager) Names() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	names := make([]string, 0, len(m.exchanges))
	for name := range m.exchanges {
		names = append(names, name)
	}
	return names
}
