package models

// Extra keys carried on every local notification so taps can be routed.
const (
	ExtraProfileID      = "profileId"
	ExtraNotificationID = "notificationId"
)

// LocalNotification is the OS-level notification surface.
type LocalNotification struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	ChannelID string            `json:"channelId,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// ProfileID returns the routed profile id, or "".
func (n LocalNotification) ProfileID() string {
	return n.Extra[ExtraProfileID]
}

// NotificationID returns the routed notification id, falling back to the OS id.
func (n LocalNotification) NotificationID() string {
	if id := n.Extra[ExtraNotificationID]; id != "" {
		return id
	}
	return n.ID
}

// ToLocalNotification builds the OS notification for a payload.
func (p NotificationPayload) ToLocalNotification(channelID string) LocalNotification {
	return LocalNotification{
		ID:        p.NotificationID,
		Title:     p.Title,
		Body:      p.Body,
		ChannelID: channelID,
		Extra: map[string]string{
			ExtraProfileID:      p.ProfileID,
			ExtraNotificationID: p.NotificationID,
		},
	}
}

// TapEvent is delivered by the OS when the user taps a local notification.
type TapEvent struct {
	ActionID     string            `json:"actionId,omitempty"`
	Notification LocalNotification `json:"notification"`
}

// ChannelImportance mirrors Android's notification channel importance levels.
type ChannelImportance int

const (
	ImportanceLow     ChannelImportance = 2
	ImportanceDefault ChannelImportance = 3
	ImportanceHigh    ChannelImportance = 4
)

// ChannelConfig describes an Android notification channel. Platforms
// without channels ignore it.
type ChannelConfig struct {
	ID          string
	Name        string
	Description string
	Importance  ChannelImportance
}

// PermissionState is the OS answer to a permission check or request.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)
