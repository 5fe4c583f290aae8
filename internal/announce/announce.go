// Package announce provides an in-memory fan-out bus for finalized
// posts. The Telegram bot publishes; any configured mirror transport
// (Slack, for now) subscribes.
package announce

import (
	"sync"
	"time"
)

// Announcement is a finalized episode post.
type Announcement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Episode     int       `json:"episode"`
	Season      int       `json:"season"`
	Style       string    `json:"style"`
	Caption     string    `json:"caption"`
	ImageURL    string    `json:"image_url"`
	WatchURL    string    `json:"watch_url,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bus provides pub/sub for announcements.
type Bus struct {
	mu   sync.RWMutex
	subs []chan *Announcement
}

// NewBus creates a new Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe creates a channel that receives every announcement.
func (b *Bus) Subscribe() chan *Announcement {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *Announcement, 16)
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Bus) Unsubscribe(ch chan *Announcement) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish sends an announcement to all subscribers.
func (b *Bus) Publish(a *Announcement) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- a:
		default:
			// Drop if the subscriber is too slow.
		}
	}
}
