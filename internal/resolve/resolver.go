// Package resolve finds a deliverable hotel-administrator contact from weak
// hints, trying resolution strategies in strict priority order.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lodgekeep/go-booking-notifications/internal/contact"
	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

// ErrNoAdminContact is returned when every resolution strategy is exhausted.
// Callers must not guess a contact.
var ErrNoAdminContact = errors.New("no admin contact resolved")

// Resolver runs the admin-contact resolution chain. It is read-only: it never
// writes to the directory or the hotel store.
type Resolver struct {
	users  notify.Directory
	hotels notify.HotelDirectory
	logger *slog.Logger
}

func New(users notify.Directory, hotels notify.HotelDirectory, logger *slog.Logger) *Resolver {
	return &Resolver{
		users:  users,
		hotels: hotels,
		logger: logger.With("component", "AdminResolver"),
	}
}

// Resolve tries, in order: the direct admin identifier, the hotel's designated
// administrator (owner as a secondary field), then each configured fallback
// identifier. The first lookup whose phone normalizes wins. The chain is
// strictly sequential: a later strategy is only attempted once the earlier one
// has been confirmed to fail.
func (r *Resolver) Resolve(ctx context.Context, hotelID, directAdminID string, fallbackIDs []string) (*notify.AdminContact, error) {
	if directAdminID != "" {
		if admin := r.lookupAdmin(ctx, directAdminID); admin != nil {
			return admin, nil
		}
	}

	if hotelID != "" {
		if admin := r.resolveViaHotel(ctx, hotelID); admin != nil {
			return admin, nil
		}
	}

	for _, id := range fallbackIDs {
		if admin := r.lookupAdmin(ctx, id); admin != nil {
			r.logger.Info("Admin contact resolved via fallback list", "admin_id", id)
			return admin, nil
		}
	}

	return nil, fmt.Errorf("%w (hotel_id=%q direct_admin_id=%q fallbacks=%d)",
		ErrNoAdminContact, hotelID, directAdminID, len(fallbackIDs))
}

func (r *Resolver) resolveViaHotel(ctx context.Context, hotelID string) *notify.AdminContact {
	hotel, err := r.hotels.GetHotel(ctx, hotelID)
	if err != nil {
		if errors.Is(err, notify.ErrNotFound) {
			r.logger.Warn("Hotel record not found", "hotel_id", hotelID)
		} else {
			r.logger.Error("Hotel lookup failed", "hotel_id", hotelID, "err", err)
		}
		return nil
	}

	adminID := hotel.AdminID
	if adminID == "" {
		adminID = hotel.OwnerID
	}
	if adminID == "" {
		r.logger.Warn("Hotel has no designated admin or owner", "hotel_id", hotelID)
		return nil
	}
	return r.lookupAdmin(ctx, adminID)
}

// lookupAdmin fetches one directory entry and normalizes its phone. A missing
// entry and an entry with an unusable phone are logged distinguishably;
// operators rely on that difference to diagnose stale directory data.
func (r *Resolver) lookupAdmin(ctx context.Context, id string) *notify.AdminContact {
	user, err := r.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, notify.ErrNotFound) {
			r.logger.Warn("Directory entry not found", "admin_id", id)
		} else {
			r.logger.Error("Directory lookup failed", "admin_id", id, "err", err)
		}
		return nil
	}

	if user.Phone == "" {
		r.logger.Warn("Directory entry found but phone missing", "admin_id", id)
		return nil
	}
	res := contact.Normalize(user.Phone)
	if !res.Valid {
		r.logger.Warn("Directory entry found but phone invalid",
			"admin_id", id, "reason", string(res.Reason))
		return nil
	}

	return &notify.AdminContact{
		DirectoryID:    user.ID,
		DisplayName:    user.DisplayName,
		Role:           user.Role,
		RawPhone:       user.Phone,
		CanonicalPhone: res.Canonical,
	}
}
