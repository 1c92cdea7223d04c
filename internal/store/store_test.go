package store

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/caseledger/internal/domain"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func connected(t *testing.T) *Store {
	t.Helper()
	s := New()
	require.NoError(t, s.BeginConnect())
	require.NoError(t, s.SetConnected(alice, big.NewInt(100), 31337))
	return s
}

func TestNew_Empty(t *testing.T) {
	s := New()
	snap := s.Snapshot()

	assert.Equal(t, domain.StatusDisconnected, snap.Status)
	assert.Nil(t, snap.Account)
	assert.Nil(t, snap.Balance)
	assert.Nil(t, snap.NetworkID)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.LastError)
}

func TestStore_ConnectLifecycle(t *testing.T) {
	s := connected(t)
	snap := s.Snapshot()

	require.Equal(t, domain.StatusConnected, snap.Status)
	require.NotNil(t, snap.Account)
	assert.Equal(t, alice, *snap.Account)
	assert.Equal(t, int64(100), snap.Balance.Int64())
	require.NotNil(t, snap.NetworkID)
	assert.Equal(t, uint64(31337), *snap.NetworkID)

	prev := s.SetDisconnected()
	assert.Equal(t, domain.StatusConnected, prev)

	snap = s.Snapshot()
	assert.Equal(t, domain.StatusDisconnected, snap.Status)
	assert.Nil(t, snap.Account)
	assert.Nil(t, snap.Balance)
	assert.Nil(t, snap.NetworkID)
}

func TestStore_InvalidTransitions(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.SetConnected(alice, big.NewInt(1), 1), domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.SetFailed("boom"), domain.ErrInvalidTransition)

	s = connected(t)
	assert.ErrorIs(t, s.BeginConnect(), domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusConnected, s.Status())
}

func TestStore_SetFailed(t *testing.T) {
	s := New()
	require.NoError(t, s.BeginConnect())
	require.NoError(t, s.SetFailed("user rejected"))

	snap := s.Snapshot()
	assert.Equal(t, domain.StatusError, snap.Status)
	assert.Equal(t, "user rejected", snap.LastError)
	assert.Nil(t, snap.Account)

	_, ok := s.Account()
	assert.False(t, ok)

	// retry is allowed from Error and clears the message
	require.NoError(t, s.BeginConnect())
	assert.Empty(t, s.Snapshot().LastError)
}

func TestStore_AccountRequiresConnection(t *testing.T) {
	s := New()
	assert.False(t, s.SetAccount(bob))
	assert.False(t, s.SetBalance(bob, big.NewInt(5)))
	assert.Nil(t, s.Snapshot().Account)
}

func TestStore_SetAccountAndBalance(t *testing.T) {
	s := connected(t)

	assert.False(t, s.SetAccount(alice), "same account is not a change")
	assert.True(t, s.SetAccount(bob))

	// a late balance for the previous account is dropped
	assert.False(t, s.SetBalance(alice, big.NewInt(7)))
	assert.Equal(t, int64(100), s.Snapshot().Balance.Int64())

	assert.True(t, s.SetBalance(bob, big.NewInt(42)))
	snap := s.Snapshot()
	assert.Equal(t, bob, *snap.Account)
	assert.Equal(t, int64(42), snap.Balance.Int64())
}

func TestStore_CallFlags(t *testing.T) {
	s := New()
	s.SetLastError("old")

	s.BeginCall()
	s.BeginCall()
	assert.True(t, s.Loading())
	assert.Empty(t, s.Snapshot().LastError)

	s.EndCall("")
	assert.True(t, s.Loading(), "one call still outstanding")

	s.EndCall("reverted")
	assert.False(t, s.Loading())
	assert.Equal(t, "reverted", s.Snapshot().LastError)

	// unbalanced EndCall does not go negative
	s.EndCall("")
	s.BeginCall()
	assert.True(t, s.Loading())
}

func TestStore_Subscribe(t *testing.T) {
	s := New()

	var got []domain.Status
	unsubscribe := s.Subscribe(func(sess domain.Session) {
		got = append(got, sess.Status)
	})

	require.NoError(t, s.BeginConnect())
	require.NoError(t, s.SetConnected(alice, big.NewInt(1), 1))
	s.SetAccount(alice) // unchanged, no notification
	s.SetDisconnected()

	assert.Equal(t, []domain.Status{
		domain.StatusConnecting,
		domain.StatusConnected,
		domain.StatusDisconnected,
	}, got)

	unsubscribe()
	s.SetLastError("after")
	assert.Len(t, got, 3)
}

func TestStore_ListenerMayReadStore(t *testing.T) {
	s := New()
	var seen domain.Status
	s.Subscribe(func(domain.Session) {
		seen = s.Status()
	})

	require.NoError(t, s.BeginConnect())
	assert.Equal(t, domain.StatusConnecting, seen)
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := connected(t)
	snap := s.Snapshot()
	snap.Balance.SetInt64(0)
	*snap.Account = bob

	again := s.Snapshot()
	assert.Equal(t, int64(100), again.Balance.Int64())
	assert.Equal(t, alice, *again.Account)
}

func TestStore_Close(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func(domain.Session) { calls++ })
	s.Close()
	s.SetLastError("x")
	assert.Zero(t, calls)
}
