// Package push relays stored notifications to registered Web Push
// endpoints. Delivery is fire-and-forget: the components that create
// notification rows never wait on it or observe its failures.
package push

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/rdevries/kantoor/internal/metrics"
	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/realtime"
	"github.com/rdevries/kantoor/internal/store"
)

// payload is the JSON the service worker receives. Tag carries the
// notification id so redelivery of the same event replaces the alert
// instead of duplicating it.
type payload struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	Tag   string `json:"tag"`
	Data  struct {
		URL            string `json:"url"`
		Type           string `json:"type"`
		NotificationID string `json:"notificationId"`
	} `json:"data"`
}

type Relay struct {
	store        store.Store
	broker       *realtime.Broker
	vapidPublic  string
	vapidPrivate string
	subscriber   string
	httpClient   *http.Client

	mu  sync.Mutex
	sub *realtime.Subscription
}

func NewRelay(st store.Store, broker *realtime.Broker, vapidPublic, vapidPrivate, subscriber string) *Relay {
	return &Relay{
		store:        st,
		broker:       broker,
		vapidPublic:  vapidPublic,
		vapidPrivate: vapidPrivate,
		subscriber:   subscriber,
		httpClient:   &http.Client{},
	}
}

// Start consumes notification inserts from the change feed.
func (r *Relay) Start() {
	sub := r.broker.Subscribe("notifications", nil)
	r.mu.Lock()
	r.sub = sub
	r.mu.Unlock()

	go func() {
		for e := range sub.C {
			if e.Type != realtime.EventInsert {
				continue
			}
			n, ok := e.Row.(models.Notification)
			if !ok {
				continue
			}
			r.deliver(n)
		}
	}()
}

func (r *Relay) Stop() {
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// deliver attempts every registered endpoint of the owning identity,
// pruning endpoints the push service reports as gone.
func (r *Relay) deliver(n models.Notification) {
	subs, err := r.store.ListPushSubscriptions(n.UserID)
	if err != nil {
		log.Printf("push: list subscriptions for %s: %v", n.UserID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	var p payload
	p.Title = n.Title
	p.Body = n.Body
	p.Tag = n.ID
	p.Data.URL = n.Link
	p.Data.Type = string(n.Type)
	p.Data.NotificationID = n.ID
	body, err := json.Marshal(p)
	if err != nil {
		log.Printf("push: marshal payload: %v", err)
		return
	}

	for _, sub := range subs {
		r.sendOne(sub, body)
	}
}

func (r *Relay) sendOne(sub models.PushSubscription, body []byte) {
	resp, err := webpush.SendNotification(body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      r.subscriber,
		VAPIDPublicKey:  r.vapidPublic,
		VAPIDPrivateKey: r.vapidPrivate,
		TTL:             30,
		HTTPClient:      r.httpClient,
	})
	if err != nil {
		metrics.PushDeliveriesTotal.WithLabelValues("error").Inc()
		log.Printf("push: send to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// Endpoint is permanently dead, prune it.
		metrics.PushDeliveriesTotal.WithLabelValues("pruned").Inc()
		if err := r.store.DeletePushSubscription(sub.UserID, sub.Endpoint); err != nil {
			log.Printf("push: prune %s: %v", sub.Endpoint, err)
		}
	case resp.StatusCode >= 400:
		metrics.PushDeliveriesTotal.WithLabelValues("rejected").Inc()
		log.Printf("push: endpoint %s returned %d", sub.Endpoint, resp.StatusCode)
	default:
		metrics.PushDeliveriesTotal.WithLabelValues("ok").Inc()
	}
}
