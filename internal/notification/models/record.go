package models

import "time"

// Record is the opaque unit persisted by the key/value store.
type Record struct {
	ID        string
	Content   []byte
	UpdatedAt time.Time
}

// ShownLedgerRecordID is the well-known key of the shown-notification ledger.
const ShownLedgerRecordID = "app-shown-notifications"

// ShownLedgerContent is the persisted ledger body.
type ShownLedgerContent struct {
	NotificationIDs []string `json:"notificationIds"`
}
