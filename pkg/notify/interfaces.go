package notify

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by directory lookups when no record exists for the
// given identifier.
var ErrNotFound = errors.New("record not found")

// UserRecord is one directory entry. The directory is the external store of
// user and admin records, keyed by opaque identifier.
type UserRecord struct {
	ID          string
	DisplayName string
	Role        string
	Phone       string
	PushToken   string
}

// HotelRecord is one hotel document from the booking database.
type HotelRecord struct {
	ID       string
	Name     string
	Location string
	// AdminID is the designated administrator; OwnerID is the generic
	// owner field used when no designated administrator is set.
	AdminID string
	OwnerID string
}

// Directory looks up user records.
type Directory interface {
	GetUser(ctx context.Context, id string) (*UserRecord, error)
}

// HotelDirectory looks up hotel records.
type HotelDirectory interface {
	GetHotel(ctx context.Context, id string) (*HotelRecord, error)
}

// AdminContact is a fully resolved, deliverable hotel administrator contact.
// It is constructed fresh per resolution attempt and never cached across
// events, because directory data may change between bookings.
type AdminContact struct {
	DirectoryID    string
	DisplayName    string
	Role           string
	RawPhone       string
	CanonicalPhone string
}

// PushProvider submits one push message to the external push service.
// ChannelClass allows provider-side prioritization ("booking", "admin",
// "default"). A non-nil error is a delivery failure; exactly one attempt is
// made per invocation.
type PushProvider interface {
	Send(ctx context.Context, token, title, body string, data map[string]string, channelClass string) error
}

// SMSProvider submits one text message. The phone number must already be in
// canonical form; providers never see unnormalized input.
type SMSProvider interface {
	Send(ctx context.Context, canonicalPhone, body string) error
}

// DeliveryOutcome is the recorded result of one channel's attempt to notify
// one recipient for one event.
type DeliveryOutcome struct {
	EventID     string    `json:"event_id" firestore:"event_id"`
	Channel     Channel   `json:"channel" firestore:"channel"`
	EventKind   EventKind `json:"event_kind" firestore:"event_kind"`
	RecipientID string    `json:"recipient_id,omitempty" firestore:"recipient_id,omitempty"`
	Succeeded   bool      `json:"succeeded" firestore:"succeeded"`
	Timestamp   time.Time `json:"timestamp" firestore:"timestamp"`
}

// DeliveryLog is the append-only sink for delivery outcomes. Records are never
// updated or deleted by this service; retention is a collaborator concern.
type DeliveryLog interface {
	Append(ctx context.Context, outcome DeliveryOutcome) error
}
