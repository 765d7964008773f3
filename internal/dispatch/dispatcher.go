// Package dispatch is the orchestration entry point: it resolves the
// recipient for one event, fans out to the enabled channels, logs outcomes
// and folds the per-channel results into one aggregate.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lodgekeep/go-booking-notifications/internal/contact"
	"github.com/lodgekeep/go-booking-notifications/internal/metrics"
	"github.com/lodgekeep/go-booking-notifications/internal/resolve"
	"github.com/lodgekeep/go-booking-notifications/internal/template"
	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

const defaultProviderTimeout = 10 * time.Second

// Config carries the dispatcher's process-wide settings. FallbackAdminIDs is
// injected here rather than living as a package constant so tests and
// deployments can substitute it.
type Config struct {
	FallbackAdminIDs []string
	ProviderTimeout  time.Duration
}

// Dispatcher routes one event to its recipient over the enabled channels.
// Each Dispatch call is independent; the struct holds no per-event state and
// is safe for concurrent use.
type Dispatcher struct {
	cfg      Config
	users    notify.Directory
	resolver *resolve.Resolver
	push     notify.PushProvider
	sms      notify.SMSProvider
	log      notify.DeliveryLog
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(
	cfg Config,
	users notify.Directory,
	resolver *resolve.Resolver,
	push notify.PushProvider,
	sms notify.SMSProvider,
	deliveryLog notify.DeliveryLog,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Dispatcher {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	return &Dispatcher{
		cfg:      cfg,
		users:    users,
		resolver: resolver,
		push:     push,
		sms:      sms,
		log:      deliveryLog,
		metrics:  m,
		logger:   logger.With("component", "Dispatcher"),
	}
}

// recipient is the resolved delivery target for one event. DirectoryID feeds
// the push lookup; CanonicalPhone, when already known, lets the SMS channel
// skip its own directory lookup.
type recipient struct {
	DirectoryID    string
	CanonicalPhone string
}

// Dispatch delivers one event. The aggregate result is the AND of every
// attempted channel; disabled channels are excluded, not counted as failures.
// Per-channel detail goes to the delivery log only.
func (d *Dispatcher) Dispatch(ctx context.Context, event notify.Event) bool {
	evLogger := d.logger.With("event_id", event.ID, "kind", string(event.Kind))

	if !event.Kind.Valid() {
		evLogger.Error("Rejecting event with unknown kind")
		d.metrics.ObserveDispatch(event.Kind, false)
		return false
	}

	target, ok := d.resolveRecipient(ctx, event, evLogger)
	if !ok {
		// Resolution failure short-circuits: zero channels attempted.
		d.metrics.ObserveDispatch(event.Kind, false)
		return false
	}

	pushEnabled := event.Channels.PushEnabled()
	smsEnabled := event.Channels.SMSEnabled()

	var (
		wg            sync.WaitGroup
		pushOK, smsOK bool
	)

	// Channel fan-out. The two channels address disjoint providers and run
	// concurrently, each under its own deadline; the aggregate waits for
	// both. A failure in one must never prevent the other's attempt.
	if pushEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pushOK = d.runChannel(ctx, notify.ChannelPush, evLogger, func(cctx context.Context) bool {
				return d.deliverPush(cctx, event, target, evLogger)
			})
		}()
	}
	if smsEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			smsOK = d.runChannel(ctx, notify.ChannelSMS, evLogger, func(cctx context.Context) bool {
				return d.deliverSMS(cctx, event, target, evLogger)
			})
		}()
	}
	wg.Wait()

	succeeded := (!pushEnabled || pushOK) && (!smsEnabled || smsOK)
	d.metrics.ObserveDispatch(event.Kind, succeeded)
	evLogger.Info("Dispatch complete",
		"succeeded", succeeded,
		"push_enabled", pushEnabled, "push_ok", pushOK,
		"sms_enabled", smsEnabled, "sms_ok", smsOK,
	)
	return succeeded
}

// runChannel bounds one channel attempt with the provider deadline and
// converts a panicking provider into a failed outcome for that channel only.
func (d *Dispatcher) runChannel(ctx context.Context, ch notify.Channel, logger *slog.Logger, fn func(context.Context) bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Channel adapter panicked", "channel", string(ch), "panic", r)
			ok = false
		}
		d.metrics.ObserveChannel(ch, ok)
	}()

	cctx, cancel := context.WithTimeout(ctx, d.cfg.ProviderTimeout)
	defer cancel()
	return fn(cctx)
}

// resolveRecipient determines who the event addresses. Guest-facing events
// use the direct recipient id. Admin-facing events use an explicit hint when
// one is supplied, otherwise the full resolution chain.
func (d *Dispatcher) resolveRecipient(ctx context.Context, event notify.Event, logger *slog.Logger) (recipient, bool) {
	if !event.Kind.AdminFacing() {
		if event.RecipientUserID == "" {
			logger.Error("Guest-facing event has no recipient")
			return recipient{}, false
		}
		return recipient{DirectoryID: event.RecipientUserID}, true
	}

	hint := event.AdminHint
	if hint == nil {
		hint = &notify.AdminHint{}
	}

	// Explicit hints always take precedence over resolution; an explicit
	// contact address must still normalize before anything is delivered.
	if hint.Phone != "" {
		res := contact.Normalize(hint.Phone)
		if !res.Valid {
			logger.Error("Explicit admin contact failed normalization", "reason", string(res.Reason))
			return recipient{}, false
		}
		return recipient{CanonicalPhone: res.Canonical}, true
	}
	if hint.AdminID != "" {
		return recipient{DirectoryID: hint.AdminID}, true
	}

	admin, err := d.resolver.Resolve(ctx, hint.HotelID, "", d.cfg.FallbackAdminIDs)
	if err != nil {
		if errors.Is(err, resolve.ErrNoAdminContact) {
			// The metric counts exhausted chains only; hint validation and
			// transport errors never ran every strategy.
			d.metrics.ObserveResolutionFailure()
			logger.Error("Admin contact resolution exhausted", "hotel_id", hint.HotelID)
		} else {
			logger.Error("Admin contact resolution failed", "err", err)
		}
		return recipient{}, false
	}
	return recipient{DirectoryID: admin.DirectoryID, CanonicalPhone: admin.CanonicalPhone}, true
}

// deliverPush is the push channel adapter: it looks up the recipient's device
// token, renders the push template and makes exactly one provider attempt.
// A recipient with no registered token fails without a provider call.
func (d *Dispatcher) deliverPush(ctx context.Context, event notify.Event, target recipient, logger *slog.Logger) bool {
	if target.DirectoryID == "" {
		// Explicit phone-only hints carry no directory entry to look up.
		logger.Warn("Push skipped: recipient has no directory id")
		d.appendOutcome(ctx, notify.ChannelPush, event, target.DirectoryID, false)
		return false
	}

	user, err := d.users.GetUser(ctx, target.DirectoryID)
	if err != nil {
		logger.Error("Push recipient lookup failed", "recipient_id", target.DirectoryID, "err", err)
		d.appendOutcome(ctx, notify.ChannelPush, event, target.DirectoryID, false)
		return false
	}
	if user.PushToken == "" {
		logger.Warn("Push skipped: no registered device token", "recipient_id", target.DirectoryID)
		d.appendOutcome(ctx, notify.ChannelPush, event, target.DirectoryID, false)
		return false
	}

	rendered := template.RenderPush(event.Kind, event.Payload)
	data := map[string]string{
		"event_id": event.ID,
		"kind":     string(event.Kind),
	}
	err = d.push.Send(ctx, user.PushToken, rendered.Title, rendered.Body, data, channelClass(event.Kind))
	if err != nil {
		logger.Error("Push delivery failed", "recipient_id", target.DirectoryID, "err", err)
	}

	ok := err == nil
	d.appendOutcome(ctx, notify.ChannelPush, event, target.DirectoryID, ok)
	return ok
}

// deliverSMS is the messaging channel adapter. It only ever hands the
// provider a canonical phone number: either the one resolution already
// produced, or the recipient's directory phone passed through the normalizer.
func (d *Dispatcher) deliverSMS(ctx context.Context, event notify.Event, target recipient, logger *slog.Logger) bool {
	phone := target.CanonicalPhone
	if phone == "" {
		user, err := d.users.GetUser(ctx, target.DirectoryID)
		if err != nil {
			logger.Error("SMS recipient lookup failed", "recipient_id", target.DirectoryID, "err", err)
			d.appendOutcome(ctx, notify.ChannelSMS, event, target.DirectoryID, false)
			return false
		}
		res := contact.Normalize(user.Phone)
		if !res.Valid {
			logger.Warn("SMS skipped: recipient phone unusable",
				"recipient_id", target.DirectoryID, "reason", string(res.Reason))
			d.appendOutcome(ctx, notify.ChannelSMS, event, target.DirectoryID, false)
			return false
		}
		phone = res.Canonical
	}

	body := template.RenderSMS(event.Kind, event.Payload)
	err := d.sms.Send(ctx, phone, body)
	if err != nil {
		logger.Error("SMS delivery failed", "recipient_id", target.DirectoryID, "err", err)
	}

	ok := err == nil
	d.appendOutcome(ctx, notify.ChannelSMS, event, target.DirectoryID, ok)
	return ok
}

func (d *Dispatcher) appendOutcome(ctx context.Context, ch notify.Channel, event notify.Event, recipientID string, succeeded bool) {
	outcome := notify.DeliveryOutcome{
		EventID:     event.ID,
		Channel:     ch,
		EventKind:   event.Kind,
		RecipientID: recipientID,
		Succeeded:   succeeded,
		Timestamp:   time.Now().UTC(),
	}
	// The channel deadline bounds the provider call only. A timed-out
	// attempt still needs its outcome on record, so the append runs
	// detached from the channel context.
	//
	// The log is an observability sink, not a transaction: a sink failure
	// never changes the delivery result.
	if err := d.log.Append(context.WithoutCancel(ctx), outcome); err != nil {
		d.logger.Warn("Failed to append delivery outcome", "channel", string(ch), "err", err)
	}
}

// channelClass maps an event kind to the provider-side priority class.
func channelClass(kind notify.EventKind) string {
	switch {
	case kind.AdminFacing():
		return "admin"
	case kind.Valid():
		return "booking"
	default:
		return "default"
	}
}
