package model

import (
	"time"
)

// User is the profile document, keyed by the identity provider's uid.
// KYCStatus mirrors the settled state of the user's KYCRecord so profile
// reads do not need a second lookup.
type User struct {
	UID       string    `json:"uid"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	KYCStatus KYCStatus `json:"kyc_status"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

// Notification is a user-facing message written when a pending item is
// settled.
type Notification struct {
	NotificationID string    `json:"id"`
	UID            string    `json:"uid"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}
