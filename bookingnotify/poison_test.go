// --- File: bookingnotify/poison_test.go ---
//go:build integration

package bookingnotify_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/google/uuid"
	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/illmade-knight/go-test/emulators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/lodgekeep/go-booking-notifications/bookingnotify"
	"github.com/lodgekeep/go-booking-notifications/bookingnotify/config"
	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

// --- Mocks ---

// mockDirectory satisfies the New() constructor. A poison pill dies in the
// transformer, so none of these should ever be called.
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

func (m *mockDirectory) GetHotel(ctx context.Context, id string) (*notify.HotelRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notify.HotelRecord), args.Error(1)
}

type mockDeliveryLog struct {
	mock.Mock
}

func (m *mockDeliveryLog) Append(ctx context.Context, outcome notify.DeliveryOutcome) error {
	return m.Called(ctx, outcome).Error(0)
}

// --- Test ---

func TestBookingNotifyService_PoisonPill(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	t.Cleanup(cancel)

	slogLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	projectID := "test-project-dlq"

	// 1. Setup Pub/Sub Emulator
	pubsubConn := emulators.SetupPubsubEmulator(t, ctx, emulators.GetDefaultPubsubConfig(projectID))
	psClient, err := pubsub.NewClient(ctx, projectID, pubsubConn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = psClient.Close() })

	// 2. Arrange: Create main topic, DLQ topic, and subscriptions
	runID := uuid.NewString()
	mainTopicID := "bookings-main-" + runID
	dlqTopicID := "bookings-dlq-" + runID
	mainSubID := mainTopicID + "-sub"
	dlqSubID := dlqTopicID + "-sub" // To listen for the dead-lettered message

	// Create the DLQ topic and a subscription for it first
	createPubsubResources(t, ctx, psClient, projectID, dlqTopicID, dlqSubID)
	dlqTopicName := fmt.Sprintf("projects/%s/topics/%s", projectID, dlqTopicID)

	// Create the main topic and subscription WITH the DeadLetterPolicy
	mainTopicName := fmt.Sprintf("projects/%s/topics/%s", projectID, mainTopicID)
	_, err = psClient.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: mainTopicName})
	require.NoError(t, err)

	mainSubName := fmt.Sprintf("projects/%s/subscriptions/%s", projectID, mainSubID)
	mainSub := &pubsubpb.Subscription{
		Name:  mainSubName,
		Topic: mainTopicName,
		DeadLetterPolicy: &pubsubpb.DeadLetterPolicy{
			DeadLetterTopic:     dlqTopicName,
			MaxDeliveryAttempts: 5, // Use a low number for fast test execution
		},
		RetryPolicy: &pubsubpb.RetryPolicy{
			MinimumBackoff: &durationpb.Duration{Seconds: 1}, // Fast retries
		},
	}
	_, err = psClient.SubscriptionAdminClient.CreateSubscription(ctx, mainSub)
	require.NoError(t, err)

	// 3. Arrange: Create service with dependencies
	push := &mockPushProvider{}
	sms := &mockSMSProvider{}
	directory := new(mockDirectory)
	deliveryLog := new(mockDeliveryLog)

	consumerCfg := *messagepipeline.NewGooglePubsubConsumerDefaults(mainSubID)
	consumer, err := messagepipeline.NewGooglePubsubConsumer(&consumerCfg, psClient, slogLogger)
	require.NoError(t, err)

	cfg := &config.Config{
		ProjectID:          projectID,
		ListenAddr:         ":0",
		SubscriptionID:     mainSubID,
		NumPipelineWorkers: 2,
	}

	// We pass a no-op auth middleware since we aren't testing the API here
	noopAuth := func(h http.Handler) http.Handler { return h }

	svc, err := bookingnotify.New(cfg, consumer, directory, directory, push, sms, deliveryLog, nil, noopAuth, slogLogger)
	require.NoError(t, err)

	// 4. Act: Start the service and publish a poison pill message
	serviceCtx, serviceCancel := context.WithCancel(ctx)
	defer serviceCancel()
	go func() {
		if err := svc.Start(serviceCtx); err != nil && !errors.Is(err, context.Canceled) {
			t.Logf("service.Start() returned an error: %v", err)
		}
	}()
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	// Publish MALFORMED JSON. This triggers a failure in the Transformer (unmarshal error).
	poisonPayload := []byte(`{"this is not valid json"`)
	result := psClient.Publisher(mainTopicID).Publish(ctx, &pubsub.Message{Data: poisonPayload})
	_, err = result.Get(ctx)
	require.NoError(t, err)
	t.Log("Published poison pill message.")

	// 5. Assert: Verify the message arrives on the DLQ subscription
	dlqSub := psClient.Subscriber(dlqSubID)
	var wg sync.WaitGroup
	wg.Add(1)
	var receivedMsg *pubsub.Message

	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
		err = dlqSub.Receive(cctx, func(ctx context.Context, msg *pubsub.Message) {
			msg.Ack()
			receivedMsg = msg
			cancel() // Stop receiving after one message
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("DLQ Receive returned an unexpected error: %v", err)
		}
	}()

	wg.Wait()
	require.NotNil(t, receivedMsg, "Did not receive message on the DLQ subscription")
	assert.Equal(t, poisonPayload, receivedMsg.Data)
	t.Log("Poison pill message correctly received on DLQ.")

	// 6. Negative Assertion: Verify no provider was ever called
	assert.Equal(t, 0, push.GetCallCount(), "Push provider should not be called for a poison pill message")
	assert.Equal(t, 0, sms.GetCallCount(), "SMS provider should not be called for a poison pill message")
	directory.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}
