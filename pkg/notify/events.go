// Package notify contains the public domain model and collaborator interfaces
// for the booking notification service.
package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind identifies one domain event raised by the booking flows.
type EventKind string

const (
	// Guest-facing kinds. The recipient is the guest named on the booking.
	EventBookingConfirmed EventKind = "booking_confirmed"
	EventPaymentReceived  EventKind = "payment_received"
	EventCheckInReminder  EventKind = "checkin_reminder"
	EventBookingCancelled EventKind = "booking_cancelled"
	EventCheckoutThanks   EventKind = "checkout_thanks"

	// Admin-facing kinds. The recipient is resolved through the admin
	// contact chain for the hotel on the booking.
	EventNewBookingAlert   EventKind = "new_booking_alert"
	EventGuestCancellation EventKind = "guest_cancellation"
)

// AdminFacing reports whether the event is addressed to a hotel administrator
// rather than the guest.
func (k EventKind) AdminFacing() bool {
	return k == EventNewBookingAlert || k == EventGuestCancellation
}

// Valid reports whether the kind is one of the closed set of event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventBookingConfirmed, EventPaymentReceived, EventCheckInReminder,
		EventBookingCancelled, EventCheckoutThanks,
		EventNewBookingAlert, EventGuestCancellation:
		return true
	}
	return false
}

// Channel is one independent delivery mechanism.
type Channel string

const (
	ChannelPush Channel = "push"
	ChannelSMS  Channel = "sms"
)

// ChannelToggles carries the per-channel enable flags on an event.
// A nil pointer means "enabled"; only an explicit false disables a channel.
type ChannelToggles struct {
	Push *bool `json:"push,omitempty"`
	SMS  *bool `json:"sms,omitempty"`
}

func (t ChannelToggles) PushEnabled() bool { return t.Push == nil || *t.Push }
func (t ChannelToggles) SMSEnabled() bool  { return t.SMS == nil || *t.SMS }

// AdminHint carries the optional explicit admin addressing on an admin-facing
// event. Either field, when set, takes precedence over the resolution chain.
type AdminHint struct {
	// Phone is an explicit contact number. It still passes through the
	// normalizer before any delivery is attempted.
	Phone string `json:"phone,omitempty"`
	// AdminID is an explicit directory identifier.
	AdminID string `json:"admin_id,omitempty"`
	// HotelID feeds the hotel-derived resolution strategy when neither
	// explicit field above is set.
	HotelID string `json:"hotel_id,omitempty"`
}

// Payload is the event-kind-specific record consumed by the template engine.
// One concrete type exists per event kind; the dispatcher never inspects its
// fields, it only passes the payload through to rendering.
type Payload interface {
	isPayload()
}

type BookingConfirmedPayload struct {
	BookingID       string `json:"booking_id"`
	HotelName       string `json:"hotel_name"`
	GuestName       string `json:"guest_name"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	RoomType        string `json:"room_type"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

type PaymentReceivedPayload struct {
	BookingID  string `json:"booking_id"`
	HotelName  string `json:"hotel_name"`
	GuestName  string `json:"guest_name"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	PaymentRef string `json:"payment_ref"`
}

type CheckInReminderPayload struct {
	BookingID string `json:"booking_id"`
	HotelName string `json:"hotel_name"`
	GuestName string `json:"guest_name"`
	CheckIn   string `json:"check_in"`
	Location  string `json:"location,omitempty"`
}

type BookingCancelledPayload struct {
	BookingID string `json:"booking_id"`
	HotelName string `json:"hotel_name"`
	GuestName string `json:"guest_name"`
	Reason    string `json:"reason,omitempty"`
	Refund    string `json:"refund,omitempty"`
}

type CheckoutThanksPayload struct {
	BookingID string `json:"booking_id"`
	HotelName string `json:"hotel_name"`
	GuestName string `json:"guest_name"`
}

type NewBookingAlertPayload struct {
	BookingID       string `json:"booking_id"`
	HotelName       string `json:"hotel_name"`
	GuestName       string `json:"guest_name"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	RoomType        string `json:"room_type"`
	Amount          string `json:"amount,omitempty"`
	Currency        string `json:"currency,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

type GuestCancellationPayload struct {
	BookingID string `json:"booking_id"`
	HotelName string `json:"hotel_name"`
	GuestName string `json:"guest_name"`
	CheckIn   string `json:"check_in"`
	Reason    string `json:"reason,omitempty"`
}

func (BookingConfirmedPayload) isPayload()  {}
func (PaymentReceivedPayload) isPayload()   {}
func (CheckInReminderPayload) isPayload()   {}
func (BookingCancelledPayload) isPayload()  {}
func (CheckoutThanksPayload) isPayload()    {}
func (NewBookingAlertPayload) isPayload()   {}
func (GuestCancellationPayload) isPayload() {}

// Event is the unit of work submitted to the dispatcher. It is immutable once
// submitted; the dispatcher never mutates it.
type Event struct {
	ID              string         `json:"id"`
	Kind            EventKind      `json:"kind"`
	Payload         Payload        `json:"payload"`
	RecipientUserID string         `json:"recipient_user_id,omitempty"`
	AdminHint       *AdminHint     `json:"admin_hint,omitempty"`
	Channels        ChannelToggles `json:"channels"`
	OccurredAt      time.Time      `json:"occurred_at"`
}

// eventEnvelope mirrors Event with the payload left raw so UnmarshalJSON can
// pick the concrete type by kind.
type eventEnvelope struct {
	ID              string          `json:"id"`
	Kind            EventKind       `json:"kind"`
	Payload         json.RawMessage `json:"payload"`
	RecipientUserID string          `json:"recipient_user_id,omitempty"`
	AdminHint       *AdminHint      `json:"admin_hint,omitempty"`
	Channels        ChannelToggles  `json:"channels"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// UnmarshalJSON decodes the envelope and selects the payload type matching the
// event kind. An unknown kind is a decode error: malformed events are rejected
// at the wire boundary, before they reach the dispatcher.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	payload, err := newPayload(env.Kind)
	if err != nil {
		return err
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", env.Kind, err)
		}
	}

	e.ID = env.ID
	e.Kind = env.Kind
	e.Payload = concretePayload(payload)
	e.RecipientUserID = env.RecipientUserID
	e.AdminHint = env.AdminHint
	e.Channels = env.Channels
	e.OccurredAt = env.OccurredAt
	return nil
}

func newPayload(kind EventKind) (any, error) {
	switch kind {
	case EventBookingConfirmed:
		return &BookingConfirmedPayload{}, nil
	case EventPaymentReceived:
		return &PaymentReceivedPayload{}, nil
	case EventCheckInReminder:
		return &CheckInReminderPayload{}, nil
	case EventBookingCancelled:
		return &BookingCancelledPayload{}, nil
	case EventCheckoutThanks:
		return &CheckoutThanksPayload{}, nil
	case EventNewBookingAlert:
		return &NewBookingAlertPayload{}, nil
	case EventGuestCancellation:
		return &GuestCancellationPayload{}, nil
	}
	return nil, fmt.Errorf("unknown event kind %q", kind)
}

func concretePayload(p any) Payload {
	switch v := p.(type) {
	case *BookingConfirmedPayload:
		return *v
	case *PaymentReceivedPayload:
		return *v
	case *CheckInReminderPayload:
		return *v
	case *BookingCancelledPayload:
		return *v
	case *CheckoutThanksPayload:
		return *v
	case *NewBookingAlertPayload:
		return *v
	case *GuestCancellationPayload:
		return *v
	}
	return nil
}
