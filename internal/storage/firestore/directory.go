// Package firestore implements the directory lookups and the delivery log on
// Cloud Firestore, the document database backing the booking app.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

const (
	usersCollection  = "users"
	hotelsCollection = "hotels"
)

// Directory reads user and hotel records. It is read-only: the notification
// service never writes to the booking database.
type Directory struct {
	client *firestore.Client
}

func NewDirectory(client *firestore.Client) *Directory {
	return &Directory{client: client}
}

// userDoc is the internal DB representation of a directory entry.
type userDoc struct {
	DisplayName string `firestore:"display_name"`
	Role        string `firestore:"role"`
	Phone       string `firestore:"phone"`
	PushToken   string `firestore:"push_token"`
}

// hotelDoc is the internal DB representation of a hotel record.
type hotelDoc struct {
	Name     string `firestore:"name"`
	Location string `firestore:"location"`
	AdminID  string `firestore:"admin_id"`
	OwnerID  string `firestore:"owner_id"`
}

func (d *Directory) GetUser(ctx context.Context, id string) (*notify.UserRecord, error) {
	snap, err := d.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, notify.ErrNotFound
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("corrupt user record %s: %w", id, err)
	}
	return &notify.UserRecord{
		ID:          snap.Ref.ID,
		DisplayName: doc.DisplayName,
		Role:        doc.Role,
		Phone:       doc.Phone,
		PushToken:   doc.PushToken,
	}, nil
}

func (d *Directory) GetHotel(ctx context.Context, id string) (*notify.HotelRecord, error) {
	snap, err := d.client.Collection(hotelsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, notify.ErrNotFound
		}
		return nil, fmt.Errorf("hotel lookup failed: %w", err)
	}

	var doc hotelDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("corrupt hotel record %s: %w", id, err)
	}
	return &notify.HotelRecord{
		ID:       snap.Ref.ID,
		Name:     doc.Name,
		Location: doc.Location,
		AdminID:  doc.AdminID,
		OwnerID:  doc.OwnerID,
	}, nil
}
