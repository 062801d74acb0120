package sessions

import (
	"sync"
	"time"

	"github.com/JourneyJu/dsg-sub010/recordset"
	"github.com/JourneyJu/dsg-sub010/types"
	"go.uber.org/zap"
)

// subscriberBuffer is the number of undelivered change batches a subscriber
// may fall behind before batches are dropped for it
const subscriberBuffer = 16

// Session is one live editing session: a controller over a single record set
// plus the observers of its debounced changes
type Session struct {
	ID         string
	SourceID   string
	CreatedAt  time.Time
	Controller *recordset.Controller

	notifier *recordset.Notifier
	logger   *zap.Logger

	mu       sync.Mutex
	lastUsed time.Time
	subs     map[int]chan []types.Change
	nextSub  int
	closed   bool
}

// LastUsed returns the time of the session's latest access
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

// Subscribe registers an observer of change batches. The returned channel is
// closed when the session closes or cancel is called.
func (s *Session) Subscribe() (<-chan []types.Change, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan []types.Change, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Flush delivers pending change notifications immediately
func (s *Session) Flush() {
	s.notifier.Flush()
}

func (s *Session) broadcast(changes []types.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- changes:
		default:
			s.logger.Warn("dropping changes for slow subscriber",
				zap.String("session", s.ID), zap.Int("subscriber", id), zap.Int("changes", len(changes)))
		}
	}
}

// close flushes pending notifications and disconnects every subscriber
func (s *Session) close() {
	s.notifier.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
