package reveal

import (
	"context"
	"errors"
	"sync"
	"testing"

	"moviecode-bot/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

// MockStore is a mock implementing catalog.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, code, title, rawURL string) error {
	args := m.Called(ctx, code, title, rawURL)
	return args.Error(0)
}

func (m *MockStore) Get(ctx context.Context, code string) (*catalog.Entry, error) {
	args := m.Called(ctx, code)
	if entry, ok := args.Get(0).(*catalog.Entry); ok {
		return entry, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) IncrementViews(ctx context.Context, code string) (*catalog.Entry, error) {
	args := m.Called(ctx, code)
	if entry, ok := args.Get(0).(*catalog.Entry); ok {
		return entry, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) List(ctx context.Context, limit int) ([]catalog.Entry, error) {
	args := m.Called(ctx, limit)
	if entries, ok := args.Get(0).([]catalog.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Top(ctx context.Context, limit int) ([]catalog.Entry, error) {
	args := m.Called(ctx, limit)
	if entries, ok := args.Get(0).([]catalog.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeGate is a controllable subscription gate.
type fakeGate struct {
	mu      sync.Mutex
	missing []string
	calls   int
}

func (g *fakeGate) MissingChannels(ctx context.Context, userID int64) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.missing
}

func (g *fakeGate) setMissing(channels ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.missing = channels
}

func newTestMachine(t *testing.T, store catalog.Store, gate Gate) *Machine {
	t.Helper()
	machine, err := NewMachine(store, gate)
	require.NoError(t, err)
	return machine
}

// --- Tests ---

func TestRequestCodeNotFound(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	machine := newTestMachine(t, store, gate)

	store.On("Get", mock.Anything, "404").Return(nil, catalog.ErrNotFound)

	resp, err := machine.RequestCode(context.Background(), 100, "404")
	require.NoError(t, err)
	assert.Equal(t, NotFound{Code: "404"}, resp)
	store.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestCodeGatePromptWhenMissingChannels(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	gate.setMissing("@chan")
	machine := newTestMachine(t, store, gate)

	store.On("Get", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 3}, nil)

	resp, err := machine.RequestCode(context.Background(), 100, "01")
	require.NoError(t, err)
	assert.Equal(t, GatePrompt{MissingChannels: []string{"@chan"}, PendingCode: "01"}, resp)
	store.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
}

func TestRequestCodeLockedWhenGateSatisfied(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	machine := newTestMachine(t, store, gate)

	store.On("Get", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 3}, nil)

	resp, err := machine.RequestCode(context.Background(), 100, "01")
	require.NoError(t, err)
	assert.Equal(t, LockedCard{Code: "01", Title: "A", Views: 3}, resp)
	store.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
}

func TestRequestCodeStoreFault(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	machine := newTestMachine(t, store, gate)

	store.On("Get", mock.Anything, "01").Return(nil, errors.New("connection reset"))

	resp, err := machine.RequestCode(context.Background(), 100, "01")
	require.Error(t, err)
	assert.Nil(t, resp)
}

func TestConfirmWatchBlockedByGate(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	gate.setMissing("@chan", "@other")
	machine := newTestMachine(t, store, gate)

	resp, err := machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.NoError(t, err)
	assert.Equal(t, GatePrompt{MissingChannels: []string{"@chan", "@other"}, PendingCode: "01"}, resp)
	store.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
}

func TestConfirmWatchIncrementsExactlyOnce(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	machine := newTestMachine(t, store, gate)

	store.On("IncrementViews", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, nil).Once()
	store.On("Get", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, nil)

	resp, err := machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.NoError(t, err)
	assert.Equal(t, UnlockedCard{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, resp)

	// Duplicate delivery of the same logical confirmation re-emits the card
	// without touching the counter.
	resp, err = machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.NoError(t, err)
	assert.Equal(t, UnlockedCard{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, resp)

	store.AssertNumberOfCalls(t, "IncrementViews", 1)
}

func TestConfirmWatchConcurrentDuplicatesIncrementOnce(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	machine := newTestMachine(t, store, gate)

	store.On("IncrementViews", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, nil)
	store.On("Get", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, nil)

	const deliveries = 16
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := machine.ConfirmWatch(context.Background(), 100, "01", "i1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	store.AssertNumberOfCalls(t, "IncrementViews", 1)
}

func TestConfirmWatchDistinctInteractionsEachCount(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	machine := newTestMachine(t, store, gate)

	store.On("IncrementViews", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 5}, nil)

	_, err := machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.NoError(t, err)
	_, err = machine.ConfirmWatch(context.Background(), 100, "01", "i2")
	require.NoError(t, err)

	store.AssertNumberOfCalls(t, "IncrementViews", 2)
}

func TestConfirmWatchEntryVanished(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	machine := newTestMachine(t, store, gate)

	store.On("IncrementViews", mock.Anything, "01").Return(nil, nil)

	resp, err := machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.NoError(t, err)
	assert.Equal(t, NotFound{Code: "01"}, resp)
}

func TestConfirmWatchVanishedEntryAllowsRetry(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	machine := newTestMachine(t, store, gate)

	store.On("IncrementViews", mock.Anything, "01").Return(nil, nil).Once()
	store.On("IncrementViews", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 1}, nil).Once()

	// The entry was deleted mid-flow; nothing was counted, so the same
	// interaction must still work once the code is added back.
	resp, err := machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.NoError(t, err)
	assert.Equal(t, NotFound{Code: "01"}, resp)

	resp, err = machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.NoError(t, err)
	assert.Equal(t, UnlockedCard{Code: "01", Title: "A", URL: "https://x/1", Views: 1}, resp)

	store.AssertNumberOfCalls(t, "IncrementViews", 2)
}

func TestConfirmWatchStoreFaultAllowsRetry(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	machine := newTestMachine(t, store, gate)

	store.On("IncrementViews", mock.Anything, "01").Return(nil, errors.New("primary stepped down")).Once()
	store.On("IncrementViews", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, nil).Once()

	_, err := machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.Error(t, err)

	// The failed transition must not consume the interaction.
	resp, err := machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.NoError(t, err)
	assert.Equal(t, UnlockedCard{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, resp)

	store.AssertNumberOfCalls(t, "IncrementViews", 2)
}

// TestRevealScenario walks the whole flow: gated request, successful
// recheck after subscribing, then a confirmed unlock bumping the counter.
func TestRevealScenario(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	gate.setMissing("@chan")
	machine := newTestMachine(t, store, gate)

	store.On("Get", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 3}, nil)
	store.On("IncrementViews", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, nil)

	resp, err := machine.RequestCode(context.Background(), 100, "01")
	require.NoError(t, err)
	assert.Equal(t, GatePrompt{MissingChannels: []string{"@chan"}, PendingCode: "01"}, resp)

	// User joins the channel.
	gate.setMissing()

	resp, err = machine.Recheck(context.Background(), 100, "01")
	require.NoError(t, err)
	assert.Equal(t, LockedCard{Code: "01", Title: "A", Views: 3}, resp)

	resp, err = machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.NoError(t, err)
	assert.Equal(t, UnlockedCard{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, resp)

	store.AssertNumberOfCalls(t, "IncrementViews", 1)
}

// The gate must be consulted on every transition, never cached.
func TestGateRecheckedOnEveryTransition(t *testing.T) {
	store := new(MockStore)
	gate := &fakeGate{}
	machine := newTestMachine(t, store, gate)

	store.On("Get", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 3}, nil)
	store.On("IncrementViews", mock.Anything, "01").Return(&catalog.Entry{Code: "01", Title: "A", URL: "https://x/1", Views: 4}, nil)

	_, err := machine.RequestCode(context.Background(), 100, "01")
	require.NoError(t, err)
	_, err = machine.ConfirmWatch(context.Background(), 100, "01", "i1")
	require.NoError(t, err)
	_, err = machine.Recheck(context.Background(), 100, "01")
	require.NoError(t, err)

	gate.mu.Lock()
	defer gate.mu.Unlock()
	assert.Equal(t, 3, gate.calls)
}
