package app

import (
	"sync"

	"github.com/ayusman/repsense/internal/pushup"
	"github.com/ayusman/repsense/internal/store"
)

// UpdateKind tells subscribers what changed.
type UpdateKind string

// Update kinds.
const (
	UpdateFrame   UpdateKind = "frame"
	UpdateRep     UpdateKind = "rep"
	UpdateSession UpdateKind = "session"
)

// Update is published to subscribers for every evaluated frame, counted rep
// and session lifecycle change.
type Update struct {
	Kind    UpdateKind      `json:"kind"`
	Count   int             `json:"count"`
	Metrics *pushup.Metrics `json:"metrics,omitempty"`
	Rep     *store.Rep      `json:"rep,omitempty"`
	Status  *Status         `json:"status,omitempty"`
}

// Subscribe registers a listener. Rep and session updates are always
// delivered in order; a subscriber that falls behind only loses intermediate
// frame updates, keeping the latest one. The publisher never blocks. The
// returned function unsubscribes and closes the channel.
func (a *App) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{
		ch:   make(chan Update, buffer),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go sub.run()

	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = sub
	a.subMu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()
			close(sub.done)
		})
	}
}

func (a *App) publish(u Update) {
	a.subMu.RLock()
	defer a.subMu.RUnlock()

	for _, sub := range a.subs {
		sub.push(u)
	}
}

// subscriber queues updates between the publisher and a consumer channel.
type subscriber struct {
	ch   chan Update
	wake chan struct{}
	done chan struct{}

	mu    sync.Mutex
	queue []Update
}

// push enqueues u. A frame directly behind another queued frame replaces it.
func (s *subscriber) push(u Update) {
	s.mu.Lock()
	if n := len(s.queue); u.Kind == UpdateFrame && n > 0 && s.queue[n-1].Kind == UpdateFrame {
		s.queue[n-1] = u
	} else {
		s.queue = append(s.queue, u)
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) pop() (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return Update{}, false
	}
	u := s.queue[0]
	s.queue[0] = Update{}
	s.queue = s.queue[1:]
	return u, true
}

func (s *subscriber) run() {
	defer close(s.ch)

	for {
		u, ok := s.pop()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}

		select {
		case s.ch <- u:
		case <-s.done:
			return
		}
	}
}
