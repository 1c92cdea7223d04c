package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/caseledger/internal/domain"
	"github.com/bft-labs/caseledger/internal/ports"
	"github.com/bft-labs/caseledger/internal/store"
)

func newTestSession(t *testing.T, gw *fakeGateway, opts Options) (*SessionManager, *store.Store) {
	t.Helper()
	st := store.New()
	m := NewSessionManager(gw, st, opts)
	t.Cleanup(func() { _ = m.Close() })
	return m, st
}

func TestConnect_Success(t *testing.T) {
	gw := newFakeGateway()
	m, st := newTestSession(t, gw, Options{})

	require.NoError(t, m.Connect(context.Background()))

	snap := st.Snapshot()
	assert.Equal(t, domain.StatusConnected, snap.Status)
	require.NotNil(t, snap.Account)
	assert.Equal(t, alice, *snap.Account)
	require.NotNil(t, snap.Balance)
	assert.Equal(t, "1", snap.BalanceEther())
	require.NotNil(t, snap.NetworkID)
	assert.Equal(t, uint64(31337), *snap.NetworkID)
	assert.Empty(t, snap.LastError)
}

func TestConnect_Idempotent(t *testing.T) {
	gw := newFakeGateway()
	m, _ := newTestSession(t, gw, Options{})

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Connect(context.Background()))

	access, _ := gw.counts()
	assert.Equal(t, 1, access)
}

func TestConnect_ConcurrentCallersShareHandshake(t *testing.T) {
	gw := newFakeGateway()
	m, st := newTestSession(t, gw, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Connect(context.Background()))
		}()
	}
	wg.Wait()

	access, _ := gw.counts()
	assert.Equal(t, 1, access)
	assert.Equal(t, domain.StatusConnected, st.Status())
}

func TestConnect_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*fakeGateway)
		wantErr error
	}{
		{
			name:    "provider missing",
			setup:   func(g *fakeGateway) { g.accessErr = fmt.Errorf("dial: %w", ports.ErrProviderNotFound) },
			wantErr: domain.ErrGatewayUnavailable,
		},
		{
			name:    "user rejects access",
			setup:   func(g *fakeGateway) { g.accessErr = ports.ErrUserRejected },
			wantErr: domain.ErrAccessDenied,
		},
		{
			name:    "no accounts exposed",
			setup:   func(g *fakeGateway) { g.accounts = nil },
			wantErr: domain.ErrAccessDenied,
		},
		{
			name:    "account lookup fails",
			setup:   func(g *fakeGateway) { g.accountErr = errors.New("rpc down") },
			wantErr: domain.ErrQueryFailed,
		},
		{
			name:    "balance fetch fails",
			setup:   func(g *fakeGateway) { g.balanceErr = errors.New("rpc down") },
			wantErr: domain.ErrQueryFailed,
		},
		{
			name:    "subscribe fails",
			setup:   func(g *fakeGateway) { g.subErr = errors.New("no events") },
			wantErr: domain.ErrGatewayUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			tt.setup(gw)
			m, st := newTestSession(t, gw, Options{})

			err := m.Connect(context.Background())
			require.ErrorIs(t, err, tt.wantErr)

			snap := st.Snapshot()
			assert.Equal(t, domain.StatusError, snap.Status)
			assert.Equal(t, err.Error(), snap.LastError)
			assert.Nil(t, snap.Account)
			assert.Nil(t, snap.Balance)
			_, ok := st.Account()
			assert.False(t, ok, "error status is disconnected for callers")
		})
	}
}

func TestConnect_RetryFromError(t *testing.T) {
	gw := newFakeGateway()
	gw.accessErr = ports.ErrUserRejected
	m, st := newTestSession(t, gw, Options{})

	require.Error(t, m.Connect(context.Background()))
	require.Equal(t, domain.StatusError, st.Status())

	gw.mu.Lock()
	gw.accessErr = nil
	gw.mu.Unlock()

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, domain.StatusConnected, st.Status())
	assert.Empty(t, st.Snapshot().LastError)
}

func TestConnect_DisconnectDuringHandshake(t *testing.T) {
	gw := newFakeGateway()
	gw.balanceGate = make(chan struct{})
	gw.balanceEntered = make(chan struct{}, 1)
	m, st := newTestSession(t, gw, Options{})

	errc := make(chan error, 1)
	go func() { errc <- m.Connect(context.Background()) }()

	select {
	case <-gw.balanceEntered:
	case <-time.After(time.Second):
		t.Fatal("handshake did not reach the balance fetch")
	}
	m.Disconnect()
	close(gw.balanceGate)

	var err error
	select {
	case err = <-errc:
	case <-time.After(time.Second):
		t.Fatal("connect did not return")
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.Equal(t, domain.FaultNotConnected, domain.KindOf(err))

	snap := st.Snapshot()
	assert.Equal(t, domain.StatusDisconnected, snap.Status)
	assert.Nil(t, snap.Account)
	assert.True(t, gw.subscriptionDone(), "event subscription must be released")
}

func TestDisconnect(t *testing.T) {
	gw := newFakeGateway()
	m, st := newTestSession(t, gw, Options{})
	require.NoError(t, m.Connect(context.Background()))

	m.Disconnect()
	m.Disconnect()

	snap := st.Snapshot()
	assert.Equal(t, domain.StatusDisconnected, snap.Status)
	assert.Nil(t, snap.Account)
	assert.Nil(t, snap.Balance)
	assert.Nil(t, snap.NetworkID)
	assert.True(t, gw.subscriptionDone(), "listeners deregistered")
}

func TestHandleAccountsChanged_EmptyDisconnects(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*testing.T, *SessionManager, *fakeGateway)
	}{
		{"from connected", func(t *testing.T, m *SessionManager, _ *fakeGateway) {
			require.NoError(t, m.Connect(context.Background()))
		}},
		{"from error", func(t *testing.T, m *SessionManager, gw *fakeGateway) {
			gw.accessErr = ports.ErrUserRejected
			require.Error(t, m.Connect(context.Background()))
		}},
		{"from disconnected", func(*testing.T, *SessionManager, *fakeGateway) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			m, st := newTestSession(t, gw, Options{})
			tt.setup(t, m, gw)

			m.HandleAccountsChanged(context.Background(), nil)

			assert.Equal(t, domain.StatusDisconnected, st.Status())
			assert.Nil(t, st.Snapshot().Account)
		})
	}
}

func TestHandleAccountsChanged_SwitchRefetchesBalanceOnce(t *testing.T) {
	gw := newFakeGateway()
	m, st := newTestSession(t, gw, Options{})
	require.NoError(t, m.Connect(context.Background()))
	_, before := gw.counts()

	m.HandleAccountsChanged(context.Background(), []common.Address{bob, alice})

	_, after := gw.counts()
	assert.Equal(t, 1, after-before)

	snap := st.Snapshot()
	assert.Equal(t, domain.StatusConnected, snap.Status)
	assert.Equal(t, bob, *snap.Account)
	assert.Equal(t, "2", snap.BalanceEther())
}

func TestHandleAccountsChanged_SameAccountIsNoop(t *testing.T) {
	gw := newFakeGateway()
	m, _ := newTestSession(t, gw, Options{})
	require.NoError(t, m.Connect(context.Background()))
	_, before := gw.counts()

	m.HandleAccountsChanged(context.Background(), []common.Address{alice})

	_, after := gw.counts()
	assert.Equal(t, before, after)
}

func TestHandleAccountsChanged_BalanceFailureKeepsConnection(t *testing.T) {
	gw := newFakeGateway()
	m, st := newTestSession(t, gw, Options{})
	require.NoError(t, m.Connect(context.Background()))

	gw.mu.Lock()
	gw.balanceErr = errors.New("rpc timeout")
	gw.mu.Unlock()

	m.HandleAccountsChanged(context.Background(), []common.Address{bob})

	snap := st.Snapshot()
	assert.Equal(t, domain.StatusConnected, snap.Status)
	assert.Equal(t, bob, *snap.Account)
	assert.Contains(t, snap.LastError, "rpc timeout")
}

func TestHandleAccountsChanged_IgnoredWhenDisconnected(t *testing.T) {
	gw := newFakeGateway()
	m, st := newTestSession(t, gw, Options{})

	m.HandleAccountsChanged(context.Background(), []common.Address{bob})

	assert.Equal(t, domain.StatusDisconnected, st.Status())
	assert.Nil(t, st.Snapshot().Account)
	_, balance := gw.counts()
	assert.Zero(t, balance)
}

func TestWatch_DeliversGatewayEvents(t *testing.T) {
	gw := newFakeGateway()
	m, st := newTestSession(t, gw, Options{})
	require.NoError(t, m.Connect(context.Background()))

	require.True(t, gw.emit(domain.Event{Kind: domain.EventAccountsChanged, Accounts: []common.Address{bob}}))
	require.Eventually(t, func() bool {
		snap := st.Snapshot()
		return snap.Account != nil && *snap.Account == bob && snap.BalanceEther() == "2"
	}, time.Second, 5*time.Millisecond)

	require.True(t, gw.emit(domain.Event{Kind: domain.EventAccountsChanged}))
	require.Eventually(t, func() bool {
		return st.Status() == domain.StatusDisconnected
	}, time.Second, 5*time.Millisecond)
	assert.True(t, gw.subscriptionDone())
}

func TestHandleChainChanged_Reload(t *testing.T) {
	gw := newFakeGateway()
	reasons := make(chan string, 1)
	m, st := newTestSession(t, gw, Options{OnReload: func(reason string) { reasons <- reason }})
	require.NoError(t, m.Connect(context.Background()))

	require.True(t, gw.emit(domain.Event{Kind: domain.EventChainChanged, NetworkID: 1}))

	select {
	case reason := <-reasons:
		assert.Equal(t, "network changed", reason)
	case <-time.After(time.Second):
		t.Fatal("reload not requested")
	}
	assert.Equal(t, domain.StatusConnected, st.Status(), "reload handler owns teardown")
}

func TestHandleChainChanged_DefaultDisconnects(t *testing.T) {
	gw := newFakeGateway()
	m, st := newTestSession(t, gw, Options{})
	require.NoError(t, m.Connect(context.Background()))

	m.HandleChainChanged(5)

	assert.Equal(t, domain.StatusDisconnected, st.Status())
}

func TestSessionManager_RecordsStatusMetric(t *testing.T) {
	gw := newFakeGateway()
	rec := &recordingMetrics{}
	m, _ := newTestSession(t, gw, Options{Metrics: rec})

	require.NoError(t, m.Connect(context.Background()))
	m.Disconnect()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"Connecting", "Connected", "Disconnected"}, rec.statuses)
}

func TestSessionManager_Close(t *testing.T) {
	gw := newFakeGateway()
	st := store.New()
	m := NewSessionManager(gw, st, Options{})
	require.NoError(t, m.Connect(context.Background()))

	require.NoError(t, m.Close())
	assert.Equal(t, domain.StatusDisconnected, st.Status())
	assert.True(t, gw.subscriptionDone())
}
