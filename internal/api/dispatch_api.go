package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/google/uuid"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/lodgekeep/go-booking-notifications/internal/contact"
	"github.com/lodgekeep/go-booking-notifications/internal/resolve"
	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

// EventDispatcher mirrors the pipeline-facing contract so the same
// dispatcher instance serves both the Pub/Sub path and this HTTP door.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event notify.Event) bool
}

// AdminResolver exposes the resolution chain for the diagnostic endpoint.
type AdminResolver interface {
	Resolve(ctx context.Context, hotelID, directAdminID string, fallbackIDs []string) (*notify.AdminContact, error)
}

type DispatchAPI struct {
	Dispatcher  EventDispatcher
	Resolver    AdminResolver
	FallbackIDs []string
	Logger      *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func NewDispatchAPI(dispatcher EventDispatcher, resolver AdminResolver, fallbackIDs []string, logger *slog.Logger) *DispatchAPI {
	return &DispatchAPI{
		Dispatcher:  dispatcher,
		Resolver:    resolver,
		FallbackIDs: fallbackIDs,
		Logger:      logger,
	}
}

// --- DOOR A: Direct dispatch ---

type DispatchResponse struct {
	EventID   string `json:"event_id"`
	Succeeded bool   `json:"succeeded"`
}

// Dispatch accepts a fully-formed notification event and runs it through the
// same orchestration path as the Pub/Sub consumer. Intended for backend
// callers that need a synchronous answer (and for smoke-testing a deploy).
func (api *DispatchAPI) Dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := middleware.GetUserHandleFromContext(ctx); !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var event notify.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		api.Logger.Warn("Dispatch: event decode failed", "err", err)
		response.WriteJSONError(w, http.StatusBadRequest, "invalid event json")
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	ok := api.Dispatcher.Dispatch(ctx, event)

	writeJSON(w, http.StatusOK, DispatchResponse{
		EventID:   event.ID,
		Succeeded: ok,
	})
}

// --- DOOR B: Contact validation ---

type ValidateContactRequest struct {
	Phone string `json:"phone"`
}

type ValidateContactResponse struct {
	Valid     bool   `json:"valid"`
	Canonical string `json:"canonical,omitempty"`
	Display   string `json:"display,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ValidateContact runs a raw phone string through the normalizer without
// touching storage. Lets the booking frontend reject bad numbers at entry
// time instead of discovering them at dispatch time.
func (api *DispatchAPI) ValidateContact(w http.ResponseWriter, r *http.Request) {
	var req ValidateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Phone == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing phone")
		return
	}

	result := contact.Normalize(req.Phone)
	resp := ValidateContactResponse{Valid: result.Valid}
	if result.Valid {
		resp.Canonical = result.Canonical
		resp.Display = contact.FormatDisplay(result.Canonical)
	} else {
		resp.Reason = string(result.Reason)
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- DOOR C: Admin contact lookup (diagnostic) ---

type AdminContactResponse struct {
	DirectoryID string `json:"directory_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
}

// AdminContact answers "who would an admin alert for this hotel actually
// reach right now". Runs the full resolution chain, including the configured
// fallback list, so operators can debug silent admin notifications.
func (api *DispatchAPI) AdminContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := middleware.GetUserHandleFromContext(ctx); !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	hotelID := r.URL.Query().Get("hotel_id")
	adminID := r.URL.Query().Get("admin_id")
	if hotelID == "" && adminID == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "hotel_id or admin_id required")
		return
	}

	admin, err := api.Resolver.Resolve(ctx, hotelID, adminID, api.FallbackIDs)
	if err != nil {
		if errors.Is(err, resolve.ErrNoAdminContact) {
			response.WriteJSONError(w, http.StatusNotFound, "no reachable admin contact")
			return
		}
		api.Logger.Error("AdminContact: resolution failed", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "resolution failed")
		return
	}

	writeJSON(w, http.StatusOK, AdminContactResponse{
		DirectoryID: admin.DirectoryID,
		DisplayName: admin.DisplayName,
		Role:        admin.Role,
		Phone:       admin.CanonicalPhone,
	})
}
