// Package invite surfaces out-of-band invitations pushed on the
// user-scoped topic. Best effort: its lifecycle follows "is a user
// identity known", independent of any room mount.
package invite

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/models"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/transport"
)

// Subscriber is the slice of the topic registry the listener needs.
type Subscriber interface {
	Subscribe(topic string, cb transport.Callback) transport.Handle
	Unsubscribe(h transport.Handle)
}

// Notifier is the external notification collaborator.
type Notifier interface {
	Notify(n models.Notification)
}

// UserTopic is the per-user inbox topic.
func UserTopic(userID string) string {
	return "users/" + userID + "/inbox"
}

// Listener subscribes to the current user's inbox and forwards
// normalized notifications. Subscription retry and reconnect replay are
// inherited from the registry.
type Listener struct {
	subs     Subscriber
	notifier Notifier
	log      *logrus.Entry

	mu     sync.Mutex
	userID string
	handle transport.Handle
	active bool
}

func NewListener(subs Subscriber, notifier Notifier) *Listener {
	return &Listener{
		subs:     subs,
		notifier: notifier,
		log:      logrus.WithField("component", "invite"),
	}
}

// SetIdentity (re)binds the listener to a user. Rebinding to the same
// user is a no-op; a different user releases the previous subscription
// first.
func (l *Listener) SetIdentity(userID string) {
	l.mu.Lock()
	if l.active && l.userID == userID {
		l.mu.Unlock()
		return
	}
	old := l.handle
	wasActive := l.active
	l.userID = userID
	l.active = true
	l.mu.Unlock()

	if wasActive {
		l.subs.Unsubscribe(old)
	}

	h := l.subs.Subscribe(UserTopic(userID), l.handleMessage)
	l.mu.Lock()
	l.handle = h
	l.mu.Unlock()
}

// ClearIdentity releases the inbox subscription (logout).
func (l *Listener) ClearIdentity() {
	l.mu.Lock()
	if !l.active {
		l.mu.Unlock()
		return
	}
	h := l.handle
	l.active = false
	l.userID = ""
	l.mu.Unlock()

	l.subs.Unsubscribe(h)
}

func (l *Listener) handleMessage(payload json.RawMessage) {
	var n models.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		l.log.WithError(err).Warn("malformed notification dropped")
		return
	}
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	l.notifier.Notify(n)
}
