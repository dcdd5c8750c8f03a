package services

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/oreforge/oreforge-server/internal/core/models"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

const subscriberBuffer = 16

type subscriber struct {
	id uuid.UUID
	ch chan models.Notification
}

// NotifierService fans out committed state transitions to per-wallet
// subscribers. Publishing never blocks: a subscriber that cannot keep up
// has events dropped and counted, because a stalled UI connection must not
// stall the poll cycle that published.
type NotifierService struct {
	mu          sync.RWMutex
	subscribers map[string][]subscriber

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
}

func NewNotifierService() *NotifierService {
	return &NotifierService{
		subscribers: make(map[string][]subscriber),
	}
}

// Subscribe registers a listener for one wallet's events and returns the
// channel plus the cancel func. The channel is closed on cancel.
func (s *NotifierService) Subscribe(walletAddress string) (<-chan models.Notification, func()) {
	sub := subscriber{
		id: uuid.New(),
		ch: make(chan models.Notification, subscriberBuffer),
	}

	s.mu.Lock()
	s.subscribers[walletAddress] = append(s.subscribers[walletAddress], sub)
	s.mu.Unlock()

	log := logger.WithComponent("notifier")
	log.Debug().Str("wallet", walletAddress).Msg("Subscriber registered")

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		subs := s.subscribers[walletAddress]
		for i, existing := range subs {
			if existing.id == sub.id {
				s.subscribers[walletAddress] = append(subs[:i], subs[i+1:]...)
				close(existing.ch)
				break
			}
		}
		if len(s.subscribers[walletAddress]) == 0 {
			delete(s.subscribers, walletAddress)
		}
	}

	return sub.ch, cancel
}

func (s *NotifierService) Publish(event models.Notification) {
	s.published.Add(1)

	s.mu.RLock()
	subs := make([]subscriber, len(s.subscribers[event.Wallet]))
	copy(subs, s.subscribers[event.Wallet])
	s.mu.RUnlock()

	log := logger.WithComponent("notifier")
	for _, sub := range subs {
		select {
		case sub.ch <- event:
			s.delivered.Add(1)
		default:
			s.dropped.Add(1)
			log.Warn().
				Str("wallet", event.Wallet).
				Str("type", string(event.Type)).
				Msg("Subscriber buffer full, event dropped")
		}
	}

	log.Info().
		Str("wallet", event.Wallet).
		Str("type", string(event.Type)).
		Int("subscribers", len(subs)).
		Msg("Notification published")
}

type NotifierStats struct {
	Published int64 `json:"published"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
	Wallets   int   `json:"wallets"`
}

func (s *NotifierService) Stats() NotifierStats {
	s.mu.RLock()
	wallets := len(s.subscribers)
	s.mu.RUnlock()

	return NotifierStats{
		Published: s.published.Load(),
		Delivered: s.delivered.Load(),
		Dropped:   s.dropped.Load(),
		Wallets:   wallets,
	}
}
