package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
)

func TestResolve(t *testing.T) {
	rc := models.RelationshipContext{
		Connections:         []models.Relationship{{ID: "conn-1", Label: "Acme Bank"}},
		MultisigConnections: []models.Relationship{{ID: "ms-1", Label: "Treasury Group"}},
		Profiles:            []models.Relationship{{ID: "p1", Label: "Work"}},
	}

	tests := []struct {
		name   string
		record models.NotificationRecord
		want   string
	}{
		{
			name: "credential offer names the issuer",
			record: models.NotificationRecord{
				Route:   models.RouteIpexGrant,
				Payload: map[string]any{"connectionId": "conn-1", "credentialName": "Proof of Address"},
			},
			want: "Acme Bank wants to issue you Proof of Address",
		},
		{
			name: "credential request without a name uses a generic noun",
			record: models.NotificationRecord{
				Route:   models.RouteIpexApply,
				Payload: map[string]any{"connectionId": "conn-1"},
			},
			want: "Acme Bank has requested a credential from you",
		},
		{
			name: "group invitation resolves the initiator from multisig connections",
			record: models.NotificationRecord{
				Route:   models.RouteMultisigIcp,
				Payload: map[string]any{"groupInitiatorId": "ms-1"},
			},
			want: "Treasury Group has invited you to join a group",
		},
		{
			name: "unknown connection falls back to a placeholder",
			record: models.NotificationRecord{
				Route:   models.RouteIpexGrant,
				Payload: map[string]any{"connectionId": "nobody"},
			},
			want: "Unknown connection wants to issue you a credential",
		},
		{
			name:   "unrecognized route yields the generic message",
			record: models.NotificationRecord{Route: "/exn/unheard-of"},
			want:   "You have a new notification",
		},
		{
			name: "non-string payload values are ignored",
			record: models.NotificationRecord{
				Route:   models.RouteLocalConnectionIn,
				Payload: map[string]any{"connectionId": 42},
			},
			want: "Unknown connection wants to connect with you",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.record, rc))
		})
	}
}

func TestResolve_LabelsAreLiteralText(t *testing.T) {
	tests := []struct {
		name       string
		label      string
		credential string
		want       string
	}{
		{
			name:       "angle bracket in label survives",
			label:      "A<B Corp",
			credential: "Badge",
			want:       "A<B Corp wants to issue you Badge",
		},
		{
			name:       "ampersand and entities are not decoded twice",
			label:      "Tom &amp; Jerry",
			credential: "R&D Pass",
			want:       "Tom &amp; Jerry wants to issue you R&D Pass",
		},
		{
			name:       "tag-like labels are not interpreted",
			label:      "<b>Evil</b> Corp",
			credential: "<i>Badge</i>",
			want:       "<b>Evil</b> Corp wants to issue you <i>Badge</i>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := models.RelationshipContext{
				Connections: []models.Relationship{{ID: "conn-1", Label: tt.label}},
			}
			record := models.NotificationRecord{
				Route:   models.RouteIpexGrant,
				Payload: map[string]any{"connectionId": "conn-1", "credentialName": tt.credential},
			}

			got := Resolve(record, rc)

			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<strong>")
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	rc := models.RelationshipContext{Connections: []models.Relationship{{ID: "c", Label: "Carol"}}}
	record := models.NotificationRecord{Route: models.RouteIpexAgree, Payload: map[string]any{"connectionId": "c"}}

	assert.Equal(t, Resolve(record, rc), Resolve(record, rc))
}

func TestTitle(t *testing.T) {
	rc := models.RelationshipContext{Profiles: []models.Relationship{{ID: "p1", Label: "Work"}}}

	assert.Equal(t, "Work", Title(models.NotificationRecord{OwnerProfileID: "p1"}, rc))
	assert.Equal(t, AppTitle, Title(models.NotificationRecord{OwnerProfileID: "p2"}, rc))

	rc = models.RelationshipContext{Profiles: []models.Relationship{{ID: "p3", Label: "R&D <Lab>"}}}
	assert.Equal(t, "R&D <Lab>", Title(models.NotificationRecord{OwnerProfileID: "p3"}, rc))
}

func TestStripMarkup(t *testing.T) {
	tests := map[string]string{
		"plain text":                        "plain text",
		"<strong>Bob</strong> says hi":      "Bob says hi",
		"line<br/>break":                    "line break",
		"Tom &amp; Jerry":                   "Tom & Jerry",
		"  spaced   \n out  ":               "spaced out",
		"<p>one</p><p>two</p>":              "one two",
		`<a href="https://x.test">link</a>`: "link",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripMarkup(in), in)
	}
}
