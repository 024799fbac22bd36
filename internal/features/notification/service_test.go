package notification

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tcpos-reports/internal/config"
	"tcpos-reports/internal/features/preferences"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func newService(limit int) (*NotificationServiceImpl, *Hub, *preferences.MemoryStore) {
	store := preferences.NewMemoryStore()
	hub := NewHub()
	svc := NewNotificationService(store, hub, &config.Config{NotificationLimit: limit}, zap.NewNop()).(*NotificationServiceImpl)
	return svc, hub, store
}

func TestAddNewestFirstAndCapped(t *testing.T) {
	svc, _, _ := newService(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := svc.Add(ctx, "u1", fmt.Sprintf("message %d", i), NotificationTypeInfo)
		require.NoError(t, err)
	}

	history, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "message 5", history[0].Message)
	assert.Equal(t, "message 3", history[2].Message)
	assert.NotEqual(t, history[0].ID, history[1].ID)
}

func TestAddPersistsThroughStore(t *testing.T) {
	svc, hub, store := newService(20)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	n, err := svc.Add(ctx, "u1", `Report "Chiffre d'affaire" loaded successfully.`, NotificationTypeInfo)
	require.NoError(t, err)
	assert.Equal(t, fixed, n.Time)

	raw, ok, err := store.Get(ctx, "u1", preferences.KeyNotifications)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, n.ID)

	// a second service over the same store sees the history
	other := NewNotificationService(store, hub, &config.Config{NotificationLimit: 20}, zap.NewNop())
	history, err := other.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, n.Message, history[0].Message)
}

func TestListEmptyAndCorrupt(t *testing.T) {
	svc, _, store := newService(20)
	ctx := context.Background()

	history, err := svc.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	require.NoError(t, store.Set(ctx, "u1", preferences.KeyNotifications, "{not json"))
	history, err = svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClear(t *testing.T) {
	svc, _, _ := newService(20)
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "x", NotificationTypeError)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "u1"))

	history, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAddPublishesToSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	svc, hub, _ := newService(20)
	updates, unsubscribe := hub.Subscribe("u1")
	defer unsubscribe()
	others, unsubscribeOthers := hub.Subscribe("u2")
	defer unsubscribeOthers()

	n, err := svc.Add(context.Background(), "u1", "hello", NotificationTypeSuccess)
	require.NoError(t, err)

	select {
	case got := <-updates:
		assert.Equal(t, n.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("notification not published")
	}
	select {
	case <-others:
		t.Fatal("other user received the notification")
	default:
	}
}

func TestConcurrentAdds(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	svc, _, _ := newService(20)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.Add(ctx, "u1", fmt.Sprint(i), NotificationTypeInfo)
		}(i)
	}
	wg.Wait()

	history, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 10)
}

func TestHub(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("u1")
	assert.Equal(t, 1, hub.Subscribers("u1"))

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish("u1", Notification{Message: fmt.Sprint(i)})
	}
	assert.Len(t, ch, subscriberBuffer, "full buffer drops instead of blocking")

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, hub.Subscribers("u1"))

	drained := 0
	for range ch {
		drained++
	}
	assert.Equal(t, subscriberBuffer, drained)

	hub.Publish("u1", Notification{Message: "after"})
}

func TestNotificationRoutes(t *testing.T) {
	svc, hub, _ := newService(20)
	app := fiber.New()
	NewNotificationApi(NewNotificationController(svc, hub, zap.NewNop()), &config.Config{SkipAuth: true}).Setup(app)

	_, err := svc.Add(context.Background(), middleware.DevUserID, "hello", NotificationTypeInfo)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/notifications", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/notifications", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	history, _ := svc.List(context.Background(), middleware.DevUserID)
	assert.Empty(t, history)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/ws/notifications", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
