package chat

import (
	"sort"
	"sync"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/realtime"
)

// Feed is the in-memory view of one active channel: a page of history
// kept consistent with the live feed. Every apply is an upsert keyed by
// message id, so a duplicate delivery of the same event is a no-op, and
// the list is re-sorted by creation time because two rapid inserts can
// hydrate out of order.
type Feed struct {
	messages *Messages
	pageSize int

	mu        sync.Mutex
	channelID string
	sub       *realtime.Subscription
	list      []models.Message
	offset    int
	hasMore   bool
}

func NewFeed(m *Messages) *Feed {
	return &Feed{messages: m, pageSize: DefaultPageSize}
}

// SetActiveChannel switches the feed to another channel: the previous
// subscription is canceled first so exactly one live handle exists at
// any time, then the newest page is loaded and a new subscription
// opened.
func (f *Feed) SetActiveChannel(channelID string) error {
	f.mu.Lock()
	prev := f.sub
	f.sub = nil
	f.channelID = channelID
	f.list = nil
	f.offset = 0
	f.hasMore = false
	f.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	page, err := f.messages.GetMessages(channelID, f.pageSize, 0)
	if err != nil {
		return err
	}

	sub := f.messages.SubscribeToChannel(channelID, func(m models.Message) {
		f.apply(channelID, m)
	})

	f.mu.Lock()
	if f.channelID != channelID {
		// Switched again while we were loading.
		f.mu.Unlock()
		sub.Cancel()
		return nil
	}
	for _, m := range page {
		f.upsertLocked(m)
	}
	f.sub = sub
	f.offset = len(page)
	f.hasMore = len(page) >= f.pageSize
	f.mu.Unlock()
	return nil
}

// LoadOlder prepends the next page of history. hasMore is inferred from
// a full page, a deliberate approximation that reports one spurious
// extra page when the total count is an exact multiple of the page
// size.
func (f *Feed) LoadOlder() error {
	f.mu.Lock()
	channelID := f.channelID
	offset := f.offset
	hasMore := f.hasMore
	f.mu.Unlock()

	if channelID == "" || !hasMore {
		return nil
	}

	page, err := f.messages.GetMessages(channelID, f.pageSize, offset)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelID != channelID {
		return nil
	}
	for _, m := range page {
		f.upsertLocked(m)
	}
	f.offset += len(page)
	f.hasMore = len(page) >= f.pageSize
	return nil
}

// apply merges one live message into the cache.
func (f *Feed) apply(channelID string, m models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelID != channelID {
		return
	}
	f.upsertLocked(m)
}

// ApplyLocal merges the return value of a direct send, so the cache is
// current before the feed echoes the row back.
func (f *Feed) ApplyLocal(m models.Message) {
	f.apply(m.ChannelID, m)
}

// RemoveLocal drops a deleted message from the cache.
func (f *Feed) RemoveLocal(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.list {
		if f.list[i].ID == id {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return
		}
	}
}

func (f *Feed) upsertLocked(m models.Message) {
	for i := range f.list {
		if f.list[i].ID == m.ID {
			f.list[i] = m
			return
		}
	}
	f.list = append(f.list, m)
	sort.SliceStable(f.list, func(i, j int) bool {
		if f.list[i].CreatedAt.Equal(f.list[j].CreatedAt) {
			return f.list[i].ID < f.list[j].ID
		}
		return f.list[i].CreatedAt.Before(f.list[j].CreatedAt)
	})
}

// Messages returns a copy of the cached list in ascending creation
// order.
func (f *Feed) Messages() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Message, len(f.list))
	copy(out, f.list)
	return out
}

func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// Close cancels the active subscription, if any.
func (f *Feed) Close() {
	f.mu.Lock()
	sub := f.sub
	f.sub = nil
	f.channelID = ""
	f.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}
