package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle of a checkout session.
type SessionStatus string

const (
	SessionOpen    SessionStatus = "open"
	SessionSettled SessionStatus = "settled"
)

// Session is the server-side state of one checkout of one booking.
type Session struct {
	ID        string            `json:"id"`
	BookingID string            `json:"bookingId"`
	UserEmail string            `json:"userEmail"`
	Subtotal  float64           `json:"subtotal"`
	Coupon    CouponApplication `json:"coupon"`
	Status    SessionStatus     `json:"status"`
	PaymentID string            `json:"paymentId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// FinalPrice is the amount the session would charge now.
func (s *Session) FinalPrice() float64 {
	return FinalPrice(s.Subtotal, s.Coupon.Discount)
}

// Settled reports whether the session has been paid.
func (s *Session) Settled() bool {
	return s.Status == SessionSettled
}

// Lock owners.
const (
	lockCoupon  = "coupon"
	lockPayment = "payment"
)

// SessionStore keeps sessions and the per-session in-flight lock.
type SessionStore interface {
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	// Get returns ErrSessionNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// Acquire takes the lock of session id for owner until release is called
	// or ttl elapses. When the lock is held, holder names the current owner.
	Acquire(ctx context.Context, id, owner string, ttl time.Duration) (release func(), holder string, err error)
}

// MemorySessionStore is an in-process SessionStore for tests and single-node development.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	locks    map[string]memoryLock
	now      func() time.Time
}

type memoryEntry struct {
	sess    Session
	expires time.Time
}

type memoryLock struct {
	owner   string
	token   string
	expires time.Time
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memoryEntry),
		locks:    make(map[string]memoryLock),
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = memoryEntry{sess: cloneSession(sess), expires: m.now().Add(ttl)}
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[id]
	if !ok || m.now().After(entry.expires) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	sess := cloneSession(&entry.sess)
	return &sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) Acquire(_ context.Context, id, owner string, ttl time.Duration) (func(), string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, ok := m.locks[id]; ok && m.now().Before(held.expires) {
		return nil, held.owner, nil
	}
	token := uuid.New().String()
	m.locks[id] = memoryLock{owner: owner, token: token, expires: m.now().Add(ttl)}
	release := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if held, ok := m.locks[id]; ok && held.token == token {
			delete(m.locks, id)
		}
	}
	return release, "", nil
}

func cloneSession(s *Session) Session {
	c := *s
	if s.Coupon.Coupon != nil {
		coupon := *s.Coupon.Coupon
		c.Coupon.Coupon = &coupon
	}
	return c
}

// ownedBy compares member emails case-insensitively.
func ownedBy(owner, email string) bool {
	return strings.EqualFold(strings.TrimSpace(owner), strings.TrimSpace(email))
}
