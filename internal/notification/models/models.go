package models

import (
	"strings"
	"time"
)

// NotificationRoute is the KERI exchange route a server notification was
// raised for. It selects the display text.
type NotificationRoute string

const (
	RouteIpexGrant         NotificationRoute = "/exn/ipex/grant"
	RouteIpexApply         NotificationRoute = "/exn/ipex/apply"
	RouteIpexAgree         NotificationRoute = "/exn/ipex/agree"
	RouteMultisigIcp       NotificationRoute = "/multisig/icp"
	RouteMultisigRpy       NotificationRoute = "/multisig/rpy"
	RouteMultisigExn       NotificationRoute = "/multisig/exn"
	RouteLocalAcdcRevoked  NotificationRoute = "/local/acdc/revoked"
	RouteLocalConnectionIn NotificationRoute = "/local/connection/invite"
)

// IsMultisig reports whether the route belongs to a group (multisig) flow.
func (r NotificationRoute) IsMultisig() bool {
	return strings.HasPrefix(string(r), "/multisig/")
}

// Well-known payload field names.
const (
	FieldConnectionID     = "connectionId"
	FieldGroupInitiatorID = "groupInitiatorId"
	FieldCredentialName   = "credentialName"
)

// NotificationRecord is a server-originated notification as delivered by the
// feed. It is immutable per delivery.
type NotificationRecord struct {
	ID             string            `json:"id"`
	CreatedAt      time.Time         `json:"createdAt"`
	OwnerProfileID string            `json:"ownerProfileId"`
	Route          NotificationRoute `json:"route"`
	Payload        map[string]any    `json:"payload,omitempty"`
}

// PayloadString returns a string payload field, or "" when absent or not a string.
func (r NotificationRecord) PayloadString(key string) string {
	if r.Payload == nil {
		return ""
	}
	v, ok := r.Payload[key].(string)
	if !ok {
		return ""
	}
	return v
}

// Relationship is a connection (direct or multisig) known to the wallet.
type Relationship struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// RelationshipContext is a read-only snapshot the caller supplies per call to
// resolve human names for display text.
type RelationshipContext struct {
	Connections         []Relationship `json:"connections"`
	MultisigConnections []Relationship `json:"multisigConnections"`
	// Profiles maps profile ids to their display names. Optional.
	Profiles []Relationship `json:"profiles,omitempty"`
}

// ConnectionLabel looks id up in direct connections.
func (c RelationshipContext) ConnectionLabel(id string) (string, bool) {
	return findLabel(c.Connections, id)
}

// MultisigLabel looks id up in multisig connections.
func (c RelationshipContext) MultisigLabel(id string) (string, bool) {
	return findLabel(c.MultisigConnections, id)
}

// ProfileLabel looks id up in the known profiles.
func (c RelationshipContext) ProfileLabel(id string) (string, bool) {
	return findLabel(c.Profiles, id)
}

func findLabel(list []Relationship, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, r := range list {
		if r.ID == id && r.Label != "" {
			return r.Label, true
		}
	}
	return "", false
}

// NotificationPayload is what the orchestrator hands to the delivery queue.
// It is never persisted.
type NotificationPayload struct {
	NotificationID string
	ProfileID      string
	Title          string
	Body           string
}

// QueuedDelivery is a payload waiting in the delivery queue.
type QueuedDelivery struct {
	Payload    NotificationPayload
	EnqueuedAt time.Time
}
