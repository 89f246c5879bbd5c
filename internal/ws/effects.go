package ws

import "github.com/rdevries/kantoor/internal/models"

// clientEffects routes the notification side-effect pipeline to one
// connected client as frames. The browser decides what it can actually
// do with them (autoplay policy, badge support, alert permission); a
// frame that cannot be delivered is simply dropped.
type clientEffects struct {
	client *Client
}

func (e *clientEffects) PlaySound() {
	e.client.sendFrame(Frame{Type: "sound"})
}

func (e *clientEffects) SetBadge(unread int) {
	e.client.sendFrame(Frame{Type: "badge", Unread: unread})
}

func (e *clientEffects) ShowAlert(n models.Notification) {
	e.client.sendFrame(Frame{Type: "notification", Notification: &n})
}
