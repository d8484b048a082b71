package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationPaymentConfirmed     NotificationType = "payment_confirmed"
	NotificationReservationConfirmed NotificationType = "reservation_confirmed"
	NotificationReminder             NotificationType = "reminder"
)

// Notification is a message to a user with read/unread state
type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	Read      bool             `json:"read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// DispatchResult reports the outcome of a delivery attempt
type DispatchResult struct {
	Delivered bool `json:"delivered"`
}

// NewNotification creates an unread notification for userID
func NewNotification(userID int64, notificationType NotificationType, message string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notificationType,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// Dispatch hands the notification to delivery. Real transport lives outside
// this package, so delivery always reports success.
func (n *Notification) Dispatch() DispatchResult {
	return DispatchResult{Delivered: true}
}

// MarkRead flags the notification as read. Calling it again has no further effect.
func (n *Notification) MarkRead() {
	n.Read = true
}

// IsRead reports whether the notification was read
func (n *Notification) IsRead() bool {
	return n.Read
}

// GetType returns the notification type
func (n *Notification) GetType() NotificationType {
	return n.Type
}

// GetMessage returns the notification text
func (n *Notification) GetMessage() string {
	return n.Message
}
