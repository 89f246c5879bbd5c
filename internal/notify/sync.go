package notify

import (
	"log"
	"sync"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/realtime"
)

// Effects is the side-effect pipeline invoked for each arriving
// notification. Implementations are best effort: they log their own
// failures and never return them.
type Effects interface {
	PlaySound()
	SetBadge(unread int)
	// ShowAlert displays a native alert for the notification. The
	// synchronizer guarantees at most one call per notification id.
	ShowAlert(n models.Notification)
}

// NopEffects is the pipeline used when no delivery surface is attached.
type NopEffects struct{}

func (NopEffects) PlaySound()                    {}
func (NopEffects) SetBadge(int)                  {}
func (NopEffects) ShowAlert(models.Notification) {}

// Synchronizer keeps one identity's notification list consistent with
// the store through its live feed. All local state is a cache: it can be
// discarded and refetched at any time. Arrival merges are upserts keyed
// by id, so duplicate delivery of the same event is a no-op.
type Synchronizer struct {
	service *Service
	broker  *realtime.Broker
	effects Effects
	userID  string

	mu      sync.Mutex
	sub     *realtime.Subscription
	list    []models.Notification
	unread  int
	alerted map[string]bool
}

func NewSynchronizer(svc *Service, broker *realtime.Broker, effects Effects, userID string) *Synchronizer {
	if effects == nil {
		effects = NopEffects{}
	}
	return &Synchronizer{
		service: svc,
		broker:  broker,
		effects: effects,
		userID:  userID,
		alerted: make(map[string]bool),
	}
}

// Start fetches the initial state and opens the per-identity feed. When
// the initial fetch fails the synchronizer still starts with an empty
// cache rather than erroring the caller: the unread count then only
// reflects the last successful poll.
func (s *Synchronizer) Start() {
	list, err := s.service.List(s.userID, DefaultLimit)
	if err != nil {
		log.Printf("notify: initial list for %s failed: %v", s.userID, err)
	}
	unread, err := s.service.UnreadCount(s.userID)
	if err != nil {
		log.Printf("notify: initial unread for %s failed: %v", s.userID, err)
	}

	s.mu.Lock()
	s.list = list
	s.unread = unread
	sub := s.broker.Subscribe("notifications", realtime.Filter{"user_id": s.userID})
	if prev := s.sub; prev != nil {
		// One feed per identity: replace, never stack.
		defer prev.Cancel()
	}
	s.sub = sub
	s.mu.Unlock()

	go func() {
		for e := range sub.C {
			s.handle(e)
		}
	}()
}

func (s *Synchronizer) handle(e realtime.Event) {
	switch e.Type {
	case realtime.EventInsert:
		n, ok := e.Row.(models.Notification)
		if !ok {
			return
		}
		s.arrive(n)
	case realtime.EventUpdate:
		s.refresh()
	case realtime.EventDelete:
		s.remove(e.ID)
	}
}

// arrive merges a new notification and fires the side-effect pipeline.
func (s *Synchronizer) arrive(n models.Notification) {
	s.mu.Lock()
	fresh := true
	for i := range s.list {
		if s.list[i].ID == n.ID {
			s.list[i] = n
			fresh = false
			break
		}
	}
	if fresh {
		s.list = append([]models.Notification{n}, s.list...)
		if !n.IsRead {
			s.unread++
		}
	}
	unread := s.unread
	alert := fresh && !s.alerted[n.ID]
	if alert {
		s.alerted[n.ID] = true
	}
	s.mu.Unlock()

	if !fresh {
		return
	}
	s.fire(func() { s.effects.PlaySound() })
	s.fire(func() { s.effects.SetBadge(unread) })
	if alert {
		s.fire(func() { s.effects.ShowAlert(n) })
	}
}

// fire isolates the sync core from a misbehaving effect implementation.
func (s *Synchronizer) fire(f func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notify: effect panicked: %v", r)
		}
	}()
	f()
}

// refresh re-polls read state after an update event (mark-read can cover
// many rows at once).
func (s *Synchronizer) refresh() {
	list, err := s.service.List(s.userID, DefaultLimit)
	if err != nil {
		log.Printf("notify: refresh list for %s failed: %v", s.userID, err)
		return
	}
	unread, err := s.service.UnreadCount(s.userID)
	if err != nil {
		log.Printf("notify: refresh unread for %s failed: %v", s.userID, err)
		return
	}
	s.mu.Lock()
	s.list = list
	s.unread = unread
	s.mu.Unlock()
	s.fire(func() { s.effects.SetBadge(unread) })
}

func (s *Synchronizer) remove(id string) {
	s.mu.Lock()
	for i := range s.list {
		if s.list[i].ID == id {
			if !s.list[i].IsRead && s.unread > 0 {
				s.unread--
			}
			s.list = append(s.list[:i], s.list[i+1:]...)
			break
		}
	}
	unread := s.unread
	s.mu.Unlock()
	s.fire(func() { s.effects.SetBadge(unread) })
}

// Notifications returns a copy of the cached list, newest first.
func (s *Synchronizer) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.list))
	copy(out, s.list)
	return out
}

func (s *Synchronizer) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Stop cancels the live feed.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}
