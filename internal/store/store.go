// Package store holds the process-wide session state and notifies subscribers
// on every change.
//
// Mutations are short field assignments under a mutex and never wait on I/O.
// Listeners run synchronously on the mutating goroutine after the lock is
// released, in subscription order, and must not block.
package store

import (
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bft-labs/caseledger/internal/domain"
)

// Listener receives a snapshot after each mutation.
type Listener func(domain.Session)

// Store owns the Session and the shared loading/error flags.
type Store struct {
	mu        sync.Mutex
	status    domain.Status
	account   *common.Address
	balance   *big.Int
	networkID *uint64
	lastErr   string
	inflight  int

	listeners map[uint64]Listener
	nextID    uint64
}

// New creates a store holding an empty, disconnected session.
func New() *Store {
	return &Store{
		status:    domain.StatusDisconnected,
		listeners: make(map[uint64]Listener),
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Status returns the current session status.
func (s *Store) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Account returns the current account and whether the session is connected.
func (s *Store) Account() (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusConnected || s.account == nil {
		return common.Address{}, false
	}
	return *s.account, true
}

// Loading returns true while at least one dispatcher call is outstanding.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close drops every listener.
func (s *Store) Close() {
	s.mu.Lock()
	s.listeners = make(map[uint64]Listener)
	s.mu.Unlock()
}

// BeginConnect moves the session to Connecting.
func (s *Store) BeginConnect() error {
	return s.update(func() error {
		if !s.status.CanTransition(domain.StatusConnecting) {
			return domain.ErrInvalidTransition
		}
		s.status = domain.StatusConnecting
		s.lastErr = ""
		return nil
	})
}

// SetConnected completes a handshake with the fetched session details.
func (s *Store) SetConnected(account common.Address, balance *big.Int, networkID uint64) error {
	return s.update(func() error {
		if !s.status.CanTransition(domain.StatusConnected) {
			return domain.ErrInvalidTransition
		}
		s.status = domain.StatusConnected
		s.account = &account
		s.balance = copyInt(balance)
		s.networkID = &networkID
		return nil
	})
}

// SetFailed records a failed handshake. The session holds no account afterwards.
func (s *Store) SetFailed(msg string) error {
	return s.update(func() error {
		if !s.status.CanTransition(domain.StatusError) {
			return domain.ErrInvalidTransition
		}
		s.status = domain.StatusError
		s.clearLocked()
		s.lastErr = msg
		return nil
	})
}

// SetDisconnected clears the session and returns the previous status.
func (s *Store) SetDisconnected() domain.Status {
	var prev domain.Status
	_ = s.update(func() error {
		prev = s.status
		s.status = domain.StatusDisconnected
		s.clearLocked()
		return nil
	})
	return prev
}

// SetAccount switches the connected account. It reports false and changes
// nothing if the session is not connected or the account is unchanged.
func (s *Store) SetAccount(account common.Address) bool {
	changed := false
	_ = s.update(func() error {
		if s.status != domain.StatusConnected {
			return errUnchanged
		}
		if s.account != nil && *s.account == account {
			return errUnchanged
		}
		s.account = &account
		changed = true
		return nil
	})
	return changed
}

// SetBalance stores the balance fetched for account. A balance for an
// account that is no longer current is dropped.
func (s *Store) SetBalance(account common.Address, balance *big.Int) bool {
	applied := false
	_ = s.update(func() error {
		if s.status != domain.StatusConnected || s.account == nil || *s.account != account {
			return errUnchanged
		}
		s.balance = copyInt(balance)
		applied = true
		return nil
	})
	return applied
}

// SetLastError records msg in the shared error field.
func (s *Store) SetLastError(msg string) {
	_ = s.update(func() error {
		s.lastErr = msg
		return nil
	})
}

// BeginCall marks a dispatcher call outstanding and clears the last error.
func (s *Store) BeginCall() {
	_ = s.update(func() error {
		s.inflight++
		s.lastErr = ""
		return nil
	})
}

// EndCall marks a dispatcher call finished. A non-empty errMsg is recorded
// as the last error.
func (s *Store) EndCall(errMsg string) {
	_ = s.update(func() error {
		if s.inflight > 0 {
			s.inflight--
		}
		if errMsg != "" {
			s.lastErr = errMsg
		}
		return nil
	})
}

type sentinel string

func (e sentinel) Error() string { return string(e) }

// errUnchanged aborts an update without notifying listeners.
const errUnchanged = sentinel("unchanged")

// update applies fn under the lock and notifies listeners if fn succeeded.
func (s *Store) update(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		if err == errUnchanged {
			return nil
		}
		return err
	}
	snap := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return nil
}

func (s *Store) clearLocked() {
	s.account = nil
	s.balance = nil
	s.networkID = nil
}

func (s *Store) snapshotLocked() domain.Session {
	sess := domain.Session{
		Status:    s.status,
		LastError: s.lastErr,
		Loading:   s.inflight > 0,
		Balance:   copyInt(s.balance),
	}
	if s.account != nil {
		a := *s.account
		sess.Account = &a
	}
	if s.networkID != nil {
		n := *s.networkID
		sess.NetworkID = &n
	}
	return sess
}

func (s *Store) listenersLocked() []Listener {
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = s.listeners[id]
	}
	return out
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
