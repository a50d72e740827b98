package store

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/tapsdk/taplogin/account"
)

// Observer is notified with the current open id whenever the account changes,
// with an empty string on logout.
type Observer func(openID string)

// Store is the single source of truth for the current logged-in account and
// its durable mirror. The in-memory value is only ever replaced as a whole;
// SetCurrent is the sole path that mutates durable account state.
type Store struct {
	mu       sync.RWMutex
	storage  Storage
	logger   *zap.Logger
	observer Observer
	current  *account.Account
	initOnce sync.Once
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for non-fatal storage failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers the open-id observer.
func WithObserver(observer Observer) Option {
	return func(s *Store) {
		s.observer = observer
	}
}

// New creates a Store backed by storage. Call Init before first use.
func New(storage Storage, options ...Option) *Store {
	ret := &Store{
		storage: storage,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Init loads the persisted account. When the unified record is absent it runs
// the one-time migration from the legacy token+profile layout, adopting and
// re-persisting a synthesized account when both legacy pieces exist. Init is
// idempotent and safe to call on every start; storage failures degrade to the
// absent state rather than failing the caller.
func (s *Store) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		if loaded := s.loadUnified(ctx); loaded != nil {
			s.SetCurrent(ctx, loaded)
			return
		}
		if migrated := s.loadLegacy(ctx); migrated != nil {
			// Adopting through SetCurrent also writes the unified record,
			// normalising storage going forward.
			s.SetCurrent(ctx, migrated)
		}
	})
}

func (s *Store) loadUnified(ctx context.Context) *account.Account {
	data, err := s.storage.Load(ctx, accountKey)
	if err != nil {
		s.logger.Warn("failed to load account record, treating as absent", zap.Error(err))
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	ret, err := account.Decode(data)
	if err != nil {
		s.logger.Warn("failed to decode account record, treating as absent", zap.Error(err))
		return nil
	}
	return ret
}

func (s *Store) loadLegacy(ctx context.Context) *account.Account {
	tokenData, err := s.storage.Load(ctx, legacyTokenKey)
	if err != nil || len(tokenData) == 0 {
		return nil
	}
	profileData, err := s.storage.Load(ctx, legacyProfileKey)
	if err != nil || len(profileData) == 0 {
		return nil
	}
	token := &account.AccessToken{}
	if err := json.Unmarshal(tokenData, token); err != nil {
		s.logger.Warn("failed to decode legacy token record", zap.Error(err))
		return nil
	}
	profile := &account.Profile{}
	if err := json.Unmarshal(profileData, profile); err != nil {
		s.logger.Warn("failed to decode legacy profile record", zap.Error(err))
		return nil
	}
	return account.New(token, profile)
}

// Current returns the in-memory account, or nil when nobody is logged in. It
// never touches storage.
func (s *Store) Current() *account.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrent replaces the current account, notifies the observer and mirrors
// the change to storage: the unified record is written, or erased when value
// is nil. Persist failures are logged and never fail the caller.
func (s *Store) SetCurrent(ctx context.Context, value *account.Account) {
	s.mu.Lock()
	s.current = value
	observer := s.observer
	s.mu.Unlock()

	if observer != nil {
		openID := ""
		if value != nil {
			openID = value.OpenID
		}
		observer(openID)
	}

	if value == nil {
		if err := s.storage.Delete(ctx, accountKey); err != nil {
			s.logger.Warn("failed to erase account record", zap.Error(err))
		}
		return
	}
	data, err := value.Encode()
	if err != nil {
		s.logger.Warn("failed to encode account record", zap.Error(err))
		return
	}
	if err := s.storage.Save(ctx, accountKey, data); err != nil {
		s.logger.Warn("failed to persist account record", zap.Error(err))
	}
}

// Clear drops the current account and erases its durable mirror.
func (s *Store) Clear(ctx context.Context) {
	s.SetCurrent(ctx, nil)
}
