package preferences

import (
	"context"
	"errors"
	"strconv"

	"tcpos-reports/internal/config"
)

const (
	KeyDarkMode      = "darkMode"
	KeyRowsPerPage   = "rowsPerPage"
	KeyNotifications = "notifications"
)

var ErrInvalidRowsPerPage = errors.New("rowsPerPage must be a positive integer")

type Preferences struct {
	DarkMode    bool `json:"darkMode"`
	RowsPerPage int  `json:"rowsPerPage"`
}

// Update holds the fields to change; nil fields are left alone.
type Update struct {
	DarkMode    *bool `json:"darkMode"`
	RowsPerPage *int  `json:"rowsPerPage"`
}

type PreferencesService interface {
	Get(ctx context.Context, userID string) (*Preferences, error)
	Update(ctx context.Context, userID string, update Update) (*Preferences, error)
	ToggleDarkMode(ctx context.Context, userID string) (*Preferences, error)
}

type PreferencesServiceImpl struct {
	Store              Store
	DefaultRowsPerPage int
}

func NewPreferencesService(store Store, cfg *config.Config) PreferencesService {
	return &PreferencesServiceImpl{
		Store:              store,
		DefaultRowsPerPage: cfg.DefaultRowsPerPage,
	}
}

// Get reads the stored preferences. Unset or unreadable values fall back to
// light mode and the default page size.
func (s *PreferencesServiceImpl) Get(ctx context.Context, userID string) (*Preferences, error) {
	prefs := &Preferences{RowsPerPage: s.DefaultRowsPerPage}

	raw, ok, err := s.Store.Get(ctx, userID, KeyDarkMode)
	if err != nil {
		return nil, err
	}
	if ok {
		prefs.DarkMode, _ = strconv.ParseBool(raw)
	}

	raw, ok, err = s.Store.Get(ctx, userID, KeyRowsPerPage)
	if err != nil {
		return nil, err
	}
	if ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			prefs.RowsPerPage = n
		}
	}
	return prefs, nil
}

func (s *PreferencesServiceImpl) Update(ctx context.Context, userID string, update Update) (*Preferences, error) {
	if update.RowsPerPage != nil && *update.RowsPerPage <= 0 {
		return nil, ErrInvalidRowsPerPage
	}
	if update.DarkMode != nil {
		if err := s.Store.Set(ctx, userID, KeyDarkMode, strconv.FormatBool(*update.DarkMode)); err != nil {
			return nil, err
		}
	}
	if update.RowsPerPage != nil {
		if err := s.Store.Set(ctx, userID, KeyRowsPerPage, strconv.Itoa(*update.RowsPerPage)); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, userID)
}

func (s *PreferencesServiceImpl) ToggleDarkMode(ctx context.Context, userID string) (*Preferences, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	dark := !prefs.DarkMode
	return s.Update(ctx, userID, Update{DarkMode: &dark})
}
