// Package host models the wallet application the notification engine is
// embedded in: who is signed in, which relationships are known, whether the
// app is in the foreground, and where a notification tap lands.
package host

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
)

// Session is the host state read by the notification sync.
type Session struct {
	mu            sync.RWMutex
	profileID     string
	profileName   string
	relationships models.RelationshipContext
	navigations   []Navigation

	background atomic.Bool
	logger     *slog.Logger
}

// Navigation is one route change performed on behalf of a notification tap.
type Navigation struct {
	Path           string `json:"path"`
	NotificationID string `json:"notificationId,omitempty"`
}

// Profile is the active identity and its display name.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{logger: logger}
}

// IsForeground reports whether the app is visible. New sessions start in the
// foreground.
func (s *Session) IsForeground(context.Context) bool {
	return !s.background.Load()
}

func (s *Session) SetForeground(foreground bool) {
	s.background.Store(!foreground)
}

func (s *Session) SetProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileID = p.ID
	s.profileName = p.Name
}

func (s *Session) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Profile{ID: s.profileID, Name: s.profileName}
}

func (s *Session) SetRelationships(rc models.RelationshipContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships = models.RelationshipContext{
		Connections:         slices.Clone(rc.Connections),
		MultisigConnections: slices.Clone(rc.MultisigConnections),
		Profiles:            slices.Clone(rc.Profiles),
	}
}

func (s *Session) Relationships() models.RelationshipContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relationships
}

// SwitchProfile makes profileID active. It is registered as the engine's
// profile switcher.
func (s *Session) SwitchProfile(profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profileID == profileID {
		return
	}
	s.profileID = profileID
	s.profileName = ""
	for _, p := range s.relationships.Profiles {
		if p.ID == profileID {
			s.profileName = p.Label
			break
		}
	}
	s.logger.Info("switched active profile", "profile_id", profileID)
}

// Navigate records a route change. It is registered as the engine's navigator.
func (s *Session) Navigate(path, notificationID string) error {
	s.mu.Lock()
	s.navigations = append(s.navigations, Navigation{Path: path, NotificationID: notificationID})
	s.mu.Unlock()

	s.logger.Info("navigated", "path", path, "notification_id", notificationID)
	return nil
}

// FallbackNavigate is the hard location change used when Navigate fails.
func (s *Session) FallbackNavigate(path string) {
	s.mu.Lock()
	s.navigations = append(s.navigations, Navigation{Path: path})
	s.mu.Unlock()

	s.logger.Warn("fallback navigation", "path", path)
}

// Navigations returns route changes in the order they happened.
func (s *Session) Navigations() []Navigation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.navigations)
}
