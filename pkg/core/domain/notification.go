package domain

// NotificationKind names the mail template used for a notification.
type NotificationKind string

const (
	NotifyCreated   NotificationKind = "create_doc"
	NotifyPublished NotificationKind = "publish_doc"
)

// Notification is sent to a document owner after a lifecycle event.
type Notification struct {
	Kind     NotificationKind
	To       User
	Document Document
}
