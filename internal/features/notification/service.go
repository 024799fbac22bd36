package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"tcpos-reports/internal/config"
	"tcpos-reports/internal/features/preferences"
	"tcpos-reports/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService interface {
	Add(ctx context.Context, userID, message string, kind NotificationType) (*Notification, error)
	List(ctx context.Context, userID string) ([]Notification, error)
	Clear(ctx context.Context, userID string) error
}

// NotificationServiceImpl keeps a capped, newest-first history per user in
// the preference store.
type NotificationServiceImpl struct {
	Store  preferences.Store
	Hub    *Hub
	Limit  int
	Logger *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

func NewNotificationService(store preferences.Store, hub *Hub, cfg *config.Config, log *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		Store:  store,
		Hub:    hub,
		Limit:  cfg.NotificationLimit,
		Logger: log,
		now:    time.Now,
	}
}

func (s *NotificationServiceImpl) Add(ctx context.Context, userID, message string, kind NotificationType) (*Notification, error) {
	n := Notification{
		ID:      uuid.NewString(),
		Message: message,
		Type:    kind,
		Time:    s.now().UTC(),
	}

	s.mu.Lock()
	history, err := s.load(ctx, userID)
	if err == nil {
		history = append([]Notification{n}, history...)
		if len(history) > s.Limit {
			history = history[:s.Limit]
		}
		err = s.save(ctx, userID, history)
	}
	s.mu.Unlock()
	if err != nil {
		s.Logger.Error("Failed to store notification", zap.String(logger.FieldUserID, userID), zap.Error(err))
		return nil, err
	}

	s.Hub.Publish(userID, n)
	return &n, nil
}

func (s *NotificationServiceImpl) List(ctx context.Context, userID string) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, userID)
}

func (s *NotificationServiceImpl) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, userID, []Notification{})
}

func (s *NotificationServiceImpl) load(ctx context.Context, userID string) ([]Notification, error) {
	raw, ok, err := s.Store.Get(ctx, userID, preferences.KeyNotifications)
	if err != nil {
		return nil, err
	}
	history := []Notification{}
	if !ok {
		return history, nil
	}
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		s.Logger.Warn("Discarding unreadable notification history", zap.String(logger.FieldUserID, userID), zap.Error(err))
		return []Notification{}, nil
	}
	return history, nil
}

func (s *NotificationServiceImpl) save(ctx context.Context, userID string, history []Notification) error {
	data, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.Store.Set(ctx, userID, preferences.KeyNotifications, string(data))
}
