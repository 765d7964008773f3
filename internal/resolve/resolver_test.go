package resolve_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lodgekeep/go-booking-notifications/internal/resolve"
	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) GetUser(ctx context.Context, id string) (*notify.UserRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notify.UserRecord), args.Error(1)
}

type mockHotelDirectory struct {
	mock.Mock
}

func (m *mockHotelDirectory) GetHotel(ctx context.Context, id string) (*notify.HotelRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notify.HotelRecord), args.Error(1)
}

func TestResolve_PriorityChain(t *testing.T) {
	ctx := context.Background()

	t.Run("direct id wins without touching hotel or fallbacks", func(t *testing.T) {
		users := new(mockDirectory)
		hotels := new(mockHotelDirectory)
		r := resolve.New(users, hotels, newTestLogger())

		users.On("GetUser", mock.Anything, "U1").Return(&notify.UserRecord{
			ID: "U1", DisplayName: "Priya", Role: "admin", Phone: "9876543210",
		}, nil)

		admin, err := r.Resolve(ctx, "H1", "U1", []string{"SYS1"})

		require.NoError(t, err)
		assert.Equal(t, "U1", admin.DirectoryID)
		assert.Equal(t, "919876543210", admin.CanonicalPhone)
		assert.Equal(t, "9876543210", admin.RawPhone)
		hotels.AssertNotCalled(t, "GetHotel", mock.Anything, mock.Anything)
		users.AssertNotCalled(t, "GetUser", mock.Anything, "SYS1")
	})

	t.Run("falls through to hotel-derived admin", func(t *testing.T) {
		users := new(mockDirectory)
		hotels := new(mockHotelDirectory)
		r := resolve.New(users, hotels, newTestLogger())

		// Direct id points at a missing entry.
		users.On("GetUser", mock.Anything, "gone").Return(nil, notify.ErrNotFound)
		hotels.On("GetHotel", mock.Anything, "H1").Return(&notify.HotelRecord{
			ID: "H1", AdminID: "U9",
		}, nil)
		users.On("GetUser", mock.Anything, "U9").Return(&notify.UserRecord{
			ID: "U9", Phone: "09876543210",
		}, nil)

		admin, err := r.Resolve(ctx, "H1", "gone", nil)

		require.NoError(t, err)
		assert.Equal(t, "U9", admin.DirectoryID)
		assert.Equal(t, "919876543210", admin.CanonicalPhone)
	})

	t.Run("hotel owner field used when designated admin unset", func(t *testing.T) {
		users := new(mockDirectory)
		hotels := new(mockHotelDirectory)
		r := resolve.New(users, hotels, newTestLogger())

		hotels.On("GetHotel", mock.Anything, "H2").Return(&notify.HotelRecord{
			ID: "H2", OwnerID: "U5",
		}, nil)
		users.On("GetUser", mock.Anything, "U5").Return(&notify.UserRecord{
			ID: "U5", Phone: "+91 91234 56789",
		}, nil)

		admin, err := r.Resolve(ctx, "H2", "", nil)

		require.NoError(t, err)
		assert.Equal(t, "U5", admin.DirectoryID)
	})

	t.Run("fallback list tried in order, first usable wins", func(t *testing.T) {
		users := new(mockDirectory)
		hotels := new(mockHotelDirectory)
		r := resolve.New(users, hotels, newTestLogger())

		// First fallback exists but carries no phone: a partial failure,
		// distinguishable in logs from a full miss.
		users.On("GetUser", mock.Anything, "SYS1").Return(&notify.UserRecord{ID: "SYS1"}, nil)
		users.On("GetUser", mock.Anything, "SYS2").Return(&notify.UserRecord{
			ID: "SYS2", Phone: "9876543210",
		}, nil)

		admin, err := r.Resolve(ctx, "", "", []string{"SYS1", "SYS2"})

		require.NoError(t, err)
		assert.Equal(t, "SYS2", admin.DirectoryID)
	})

	t.Run("exhausted chain returns typed error", func(t *testing.T) {
		users := new(mockDirectory)
		hotels := new(mockHotelDirectory)
		r := resolve.New(users, hotels, newTestLogger())

		users.On("GetUser", mock.Anything, "U1").Return(&notify.UserRecord{
			ID: "U1", Phone: "not-a-number",
		}, nil)
		hotels.On("GetHotel", mock.Anything, "H1").Return(nil, notify.ErrNotFound)
		users.On("GetUser", mock.Anything, "SYS1").Return(nil, notify.ErrNotFound)

		admin, err := r.Resolve(ctx, "H1", "U1", []string{"SYS1"})

		require.Error(t, err)
		assert.Nil(t, admin)
		assert.ErrorIs(t, err, resolve.ErrNoAdminContact)
	})

	t.Run("transport error on lookup falls through, not fatal", func(t *testing.T) {
		users := new(mockDirectory)
		hotels := new(mockHotelDirectory)
		r := resolve.New(users, hotels, newTestLogger())

		users.On("GetUser", mock.Anything, "U1").Return(nil, errors.New("deadline exceeded"))
		users.On("GetUser", mock.Anything, "SYS1").Return(&notify.UserRecord{
			ID: "SYS1", Phone: "9876543210",
		}, nil)

		admin, err := r.Resolve(ctx, "", "U1", []string{"SYS1"})

		require.NoError(t, err)
		assert.Equal(t, "SYS1", admin.DirectoryID)
	})
}
