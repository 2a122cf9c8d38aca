package security

import (
	"sync"

	"github.com/pion/logging"
)

// Store owns the long-lived security contexts, keyed by the peer's
// Key ID plus optional ID Context. Incoming requests carry the peer's
// sender ID as their KID, which is the recipient ID of our context,
// so lookups use the recipient side of the key.
//
// Contexts are created, rotated and destroyed explicitly through the
// Store; there is no ambient global state.
type Store struct {
	contexts map[string]*Context
	log      logging.LeveledLogger

	mu sync.RWMutex
}

// StoreConfig configures a context store.
type StoreConfig struct {
	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// NewStore creates an empty context store.
func NewStore(config StoreConfig) *Store {
	s := &Store{
		contexts: make(map[string]*Context),
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("oscore-store")
	}
	return s
}

// Derive creates a context from provisioning inputs and registers it.
func (s *Store) Derive(config ContextConfig) (*Context, error) {
	ctx, err := NewContext(config)
	if err != nil {
		return nil, err
	}
	if err := s.Add(ctx); err != nil {
		ctx.Zeroize()
		return nil, err
	}
	return ctx, nil
}

// Add registers an existing context. Fails with ErrDuplicateContext if
// a context with the same recipient ID and ID Context is present.
func (s *Store) Add(ctx *Context) error {
	key := contextKey(ctx.recipientID, ctx.idContext)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contexts[key]; ok {
		return ErrDuplicateContext
	}
	s.contexts[key] = ctx

	if s.log != nil {
		s.log.Debugf("registered context for KID %x (ID context %x)", ctx.recipientID, ctx.idContext)
	}
	return nil
}

// Lookup resolves a received KID (and optional KID Context) to a
// context. The boolean reports whether one was found.
func (s *Store) Lookup(kid, kidContext []byte) (*Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, ok := s.contexts[contextKey(kid, kidContext)]
	return ctx, ok
}

// Remove zeroizes and drops the context for the given key, if any.
func (s *Store) Remove(kid, kidContext []byte) {
	key := contextKey(kid, kidContext)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx, ok := s.contexts[key]; ok {
		ctx.Zeroize()
		delete(s.contexts, key)
		if s.log != nil {
			s.log.Debugf("removed context for KID %x", kid)
		}
	}
}

// Rotate replaces the context for config's recipient identity with a
// freshly derived one, zeroizing the old context. Used when a sender
// sequence number exhausts and new key material has been provisioned.
func (s *Store) Rotate(config ContextConfig) (*Context, error) {
	ctx, err := NewContext(config)
	if err != nil {
		return nil, err
	}
	key := contextKey(ctx.recipientID, ctx.idContext)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.contexts[key]; ok {
		old.Zeroize()
	}
	s.contexts[key] = ctx

	if s.log != nil {
		s.log.Infof("rotated context for KID %x", ctx.recipientID)
	}
	return ctx, nil
}

// Len returns the number of registered contexts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts)
}

// contextKey builds the map key for a KID / KID Context pair. The KID
// is length-prefixed so the two fields cannot alias.
func contextKey(kid, kidContext []byte) string {
	key := make([]byte, 0, 1+len(kid)+len(kidContext))
	key = append(key, byte(len(kid)))
	key = append(key, kid...)
	key = append(key, kidContext...)
	return string(key)
}
