// Package ports defines the collaborators the notification engine consumes.
// The host environment provides implementations; the engine owns none of them.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks RecordStore,Lifecycle,ErrorReporter

import (
	"context"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
)

// RecordStore is the opaque key/value store used for the shown ledger.
type RecordStore interface {
	// FindByID returns the record or an error wrapping sentinel.ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.Record, error)

	// Save creates or replaces a record.
	Save(ctx context.Context, record *models.Record) error

	// DeleteByID removes a record. Deleting a missing record is not an error.
	DeleteByID(ctx context.Context, id string) error
}

// DeliveredLister reads the OS notification tray.
type DeliveredLister interface {
	GetDelivered(ctx context.Context) ([]models.LocalNotification, error)
	GetPending(ctx context.Context) ([]models.LocalNotification, error)
}

// Canceller removes notifications from the OS.
type Canceller interface {
	// Cancel drops pending (not yet displayed) notifications.
	Cancel(ctx context.Context, ids []string) error
	// RemoveDelivered clears displayed notifications from the tray.
	RemoveDelivered(ctx context.Context, ids []string) error
	RemoveAllDelivered(ctx context.Context) error
}

// TapListener is the callback the OS invokes for a notification tap.
type TapListener func(event models.TapEvent)

// LocalNotifier is the OS local-notification primitive.
type LocalNotifier interface {
	DeliveredLister
	Canceller

	RequestPermission(ctx context.Context) (models.PermissionState, error)
	CheckPermission(ctx context.Context) (models.PermissionState, error)
	Schedule(ctx context.Context, notifications []models.LocalNotification) error

	// AddTapListener registers listener and returns a function that removes it.
	AddTapListener(listener TapListener) (remove func())

	// CreateChannel is a no-op on platforms without channels.
	CreateChannel(ctx context.Context, cfg models.ChannelConfig) error
}

// Lifecycle probes whether the app is in the foreground.
type Lifecycle interface {
	IsForeground(ctx context.Context) bool
}

// ErrorReporter surfaces user-visible failures (toasts in the wallet UI).
type ErrorReporter interface {
	ReportError(ctx context.Context, message string)
}

// ErrorRecorder receives swallowed transient failures for observability.
type ErrorRecorder interface {
	RecordError(op string, err error)
}
