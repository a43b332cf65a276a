package models

// NotificationType classifies out-of-band notifications on the
// user-scoped topic.
type NotificationType string

const (
	NotificationInvite NotificationType = "INVITE"
	NotificationInfo   NotificationType = "INFO"
)

// Notification is the normalized shape forwarded to the notification
// collaborator. Link, when present, deep-links into a room.
type Notification struct {
	Type    NotificationType `json:"type"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Link    string           `json:"link,omitempty"`
}
