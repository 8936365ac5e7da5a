package market

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"github.com/bobmcallan/marketview/internal/interfaces"
	"github.com/bobmcallan/marketview/internal/models"
)

// --- mock market chart client ---

type chartCall struct {
	coinID string
	params interfaces.MarketChartParams
}

type mockChartClient struct {
	mu      sync.Mutex
	calls   []chartCall
	gates   map[string]chan struct{}
	started chan string
	respond func(coinID string, params interfaces.MarketChartParams) (*models.MarketChartPayload, error)
}

func newMockChartClient() *mockChartClient {
	return &mockChartClient{
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 64),
		respond: func(coinID string, params interfaces.MarketChartParams) (*models.MarketChartPayload, error) {
			return pricesPayload(7, 100), nil
		},
	}
}

// gate blocks requests for coinID until the returned channel is closed.
func (m *mockChartClient) gate(coinID string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.gates[coinID] = ch
	return ch
}

func (m *mockChartClient) GetMarketChart(ctx context.Context, coinID string, opts ...interfaces.MarketChartOption) (*models.MarketChartPayload, error) {
	params := interfaces.MarketChartParams{}
	for _, opt := range opts {
		opt(&params)
	}

	m.mu.Lock()
	m.calls = append(m.calls, chartCall{coinID: coinID, params: params})
	gate := m.gates[coinID]
	respond := m.respond
	m.mu.Unlock()

	select {
	case m.started <- coinID:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return respond(coinID, params)
}

func (m *mockChartClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockChartClient) lastCall() chartCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

// pricesPayload returns n daily points starting at base, one unit apart.
func pricesPayload(n int, base float64) *models.MarketChartPayload {
	const startMs = int64(1791763200000)
	prices := make([]any, 0, n)
	for i := 0; i < n; i++ {
		ts := json.Number(strconv.FormatInt(startMs+int64(i)*86_400_000, 10))
		val := json.Number(strconv.FormatFloat(base+float64(i), 'f', -1, 64))
		prices = append(prices, []any{ts, val})
	}
	return &models.MarketChartPayload{Prices: prices}
}

// --- mock preference store ---

type mockPrefs struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMockPrefs(kv ...string) *mockPrefs {
	m := &mockPrefs{values: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		m.values[kv[i]] = kv[i+1]
	}
	return m
}

func (m *mockPrefs) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", interfaces.ErrPreferenceNotFound
	}
	return v, nil
}

func (m *mockPrefs) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockPrefs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *mockPrefs) GetAll(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *mockPrefs) Close() error { return nil }

var errStorage = errors.New("storage unavailable")
