package handler

import (
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	dErrors "github.com/cardano-foundation/veridian-wallet-sub003/pkg/domain-errors"
)

type SetProfileRequest struct {
	ProfileID   string `json:"profileId"`
	DisplayName string `json:"displayName"`
}

func (r SetProfileRequest) Validate() error {
	if r.ProfileID == "" {
		return dErrors.New(dErrors.CodeValidation, "profileId is required")
	}
	return nil
}

type SetForegroundRequest struct {
	Foreground *bool `json:"foreground"`
}

func (r SetForegroundRequest) Validate() error {
	if r.Foreground == nil {
		return dErrors.New(dErrors.CodeValidation, "foreground is required")
	}
	return nil
}

type PruneRequest struct {
	IDs []string `json:"ids"`
}

// TapRequest describes a simulated OS tap.
type TapRequest struct {
	NotificationID string `json:"notificationId"`
	ProfileID      string `json:"profileId"`
	ActionID       string `json:"actionId"`
}

func (r TapRequest) Validate() error {
	if r.NotificationID == "" {
		return dErrors.New(dErrors.CodeValidation, "notificationId is required")
	}
	return nil
}

func (r TapRequest) ToEvent() models.TapEvent {
	extra := map[string]string{models.ExtraNotificationID: r.NotificationID}
	if r.ProfileID != "" {
		extra[models.ExtraProfileID] = r.ProfileID
	}
	actionID := r.ActionID
	if actionID == "" {
		actionID = "tap"
	}
	return models.TapEvent{
		ActionID: actionID,
		Notification: models.LocalNotification{
			ID:    r.NotificationID,
			Extra: extra,
		},
	}
}

type InjectResponse struct {
	ID string `json:"id"`
}

type ShownResponse struct {
	IDs []string `json:"ids"`
}

type PermissionResponse struct {
	Granted bool `json:"granted"`
}

type ColdStartResponse struct {
	State           string `json:"state"`
	Pending         bool   `json:"pending"`
	TargetProfileID string `json:"targetProfileId,omitempty"`
	Wired           bool   `json:"wired"`
}

type MetricsResponse struct {
	models.MetricsSnapshot
	QueueLength int `json:"queueLength"`
}
