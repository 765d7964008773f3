// Package template maps an event kind and payload to the human-readable
// message for each channel. Template selection is a pure function of the
// payload's concrete type; an unrecognized payload renders a generic fallback
// so an unknown kind can never block a dispatch.
package template

import (
	"fmt"
	"strings"

	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

// Rendered is the title/body pair used by the push channel.
type Rendered struct {
	Title string
	Body  string
}

// RenderPush produces the push notification content for an event.
func RenderPush(kind notify.EventKind, payload notify.Payload) Rendered {
	switch p := payload.(type) {
	case notify.BookingConfirmedPayload:
		return Rendered{
			Title: "Booking confirmed 🎉",
			Body:  fmt.Sprintf("%s, your stay at %s (%s – %s) is confirmed. Booking ref %s.", p.GuestName, p.HotelName, p.CheckIn, p.CheckOut, p.BookingID),
		}
	case notify.PaymentReceivedPayload:
		return Rendered{
			Title: "Payment received",
			Body:  fmt.Sprintf("We received %s %s for your booking at %s. Ref %s.", p.Currency, p.Amount, p.HotelName, p.PaymentRef),
		}
	case notify.CheckInReminderPayload:
		return Rendered{
			Title: "Check-in tomorrow",
			Body:  fmt.Sprintf("%s, %s is expecting you on %s. Have a great stay!", p.GuestName, p.HotelName, p.CheckIn),
		}
	case notify.BookingCancelledPayload:
		body := fmt.Sprintf("%s, your booking %s at %s has been cancelled.", p.GuestName, p.BookingID, p.HotelName)
		if p.Refund != "" {
			body += fmt.Sprintf(" A refund of %s is on its way.", p.Refund)
		}
		return Rendered{Title: "Booking cancelled", Body: body}
	case notify.CheckoutThanksPayload:
		return Rendered{
			Title: "Thanks for staying with us",
			Body:  fmt.Sprintf("%s, thank you for staying at %s. We hope to see you again soon.", p.GuestName, p.HotelName),
		}
	case notify.NewBookingAlertPayload:
		body := fmt.Sprintf("%s booked %s at %s, %s – %s.", p.GuestName, p.RoomType, p.HotelName, p.CheckIn, p.CheckOut)
		if p.Amount != "" {
			body += fmt.Sprintf(" Total %s %s.", p.Currency, p.Amount)
		}
		return Rendered{Title: "New booking: " + p.HotelName, Body: body}
	case notify.GuestCancellationPayload:
		body := fmt.Sprintf("%s cancelled booking %s at %s (check-in %s).", p.GuestName, p.BookingID, p.HotelName, p.CheckIn)
		if p.Reason != "" {
			body += " Reason: " + p.Reason
		}
		return Rendered{Title: "Booking cancelled by guest", Body: body}
	}

	// Defensive fallback; the dispatcher's kind enum should prevent this.
	return Rendered{
		Title: "Booking update",
		Body:  fmt.Sprintf("You have a new %s update for your booking.", kindLabel(kind)),
	}
}

// RenderSMS produces the single formatted multi-line string for the text
// channel. Optional sections are omitted when the payload field is empty.
func RenderSMS(kind notify.EventKind, payload notify.Payload) string {
	switch p := payload.(type) {
	case notify.BookingConfirmedPayload:
		lines := []string{
			fmt.Sprintf("Booking confirmed at %s", p.HotelName),
			fmt.Sprintf("Guest: %s", p.GuestName),
			fmt.Sprintf("Stay: %s to %s (%s)", p.CheckIn, p.CheckOut, p.RoomType),
			fmt.Sprintf("Ref: %s", p.BookingID),
		}
		if p.SpecialRequests != "" {
			lines = append(lines, "Requests: "+p.SpecialRequests)
		}
		return strings.Join(lines, "\n")
	case notify.PaymentReceivedPayload:
		return strings.Join([]string{
			fmt.Sprintf("Payment of %s %s received", p.Currency, p.Amount),
			fmt.Sprintf("Hotel: %s", p.HotelName),
			fmt.Sprintf("Ref: %s", p.PaymentRef),
		}, "\n")
	case notify.CheckInReminderPayload:
		lines := []string{
			fmt.Sprintf("Reminder: check-in at %s on %s", p.HotelName, p.CheckIn),
		}
		if p.Location != "" {
			lines = append(lines, "Address: "+p.Location)
		}
		lines = append(lines, fmt.Sprintf("Ref: %s", p.BookingID))
		return strings.Join(lines, "\n")
	case notify.BookingCancelledPayload:
		lines := []string{
			fmt.Sprintf("Booking %s at %s cancelled", p.BookingID, p.HotelName),
		}
		if p.Reason != "" {
			lines = append(lines, "Reason: "+p.Reason)
		}
		if p.Refund != "" {
			lines = append(lines, "Refund: "+p.Refund)
		}
		return strings.Join(lines, "\n")
	case notify.CheckoutThanksPayload:
		return fmt.Sprintf("Thank you for staying at %s, %s! Ref: %s", p.HotelName, p.GuestName, p.BookingID)
	case notify.NewBookingAlertPayload:
		lines := []string{
			fmt.Sprintf("New booking at %s", p.HotelName),
			fmt.Sprintf("Guest: %s", p.GuestName),
			fmt.Sprintf("Stay: %s to %s (%s)", p.CheckIn, p.CheckOut, p.RoomType),
			fmt.Sprintf("Ref: %s", p.BookingID),
		}
		if p.Amount != "" {
			lines = append(lines, fmt.Sprintf("Total: %s %s", p.Currency, p.Amount))
		}
		if p.SpecialRequests != "" {
			lines = append(lines, "Requests: "+p.SpecialRequests)
		}
		return strings.Join(lines, "\n")
	case notify.GuestCancellationPayload:
		lines := []string{
			fmt.Sprintf("Guest cancellation at %s", p.HotelName),
			fmt.Sprintf("Guest: %s", p.GuestName),
			fmt.Sprintf("Booking %s, check-in %s", p.BookingID, p.CheckIn),
		}
		if p.Reason != "" {
			lines = append(lines, "Reason: "+p.Reason)
		}
		return strings.Join(lines, "\n")
	}

	return fmt.Sprintf("You have a new %s update for your booking.", kindLabel(kind))
}

func kindLabel(kind notify.EventKind) string {
	if kind == "" {
		return "booking"
	}
	return strings.ReplaceAll(string(kind), "_", " ")
}
