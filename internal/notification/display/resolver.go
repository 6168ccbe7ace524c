// Package display turns raw notification records into the plain text shown
// on OS notification surfaces.
package display

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
)

const (
	// AppTitle is used when the owner profile has no known name.
	AppTitle = "Veridian Wallet"

	fallbackText      = "You have a new notification"
	unknownConnection = "Unknown connection"
	unnamedCredential = "a credential"
)

var routeTemplates = map[models.NotificationRoute]string{
	models.RouteIpexGrant:         "<strong>%s</strong> wants to issue you %s",
	models.RouteIpexApply:         "<strong>%s</strong> has requested %s from you",
	models.RouteIpexAgree:         "<strong>%s</strong> has agreed to receive %s",
	models.RouteMultisigIcp:       "<strong>%s</strong> has invited you to join a group",
	models.RouteMultisigRpy:       "<strong>%s</strong> has shared a group endpoint",
	models.RouteMultisigExn:       "<strong>%s</strong> wants you to accept a group credential",
	models.RouteLocalAcdcRevoked:  "<strong>%s</strong> has revoked %s",
	models.RouteLocalConnectionIn: "<strong>%s</strong> wants to connect with you",
}

// Resolve builds the body text for record. It is total: unknown routes yield
// a generic message. The result never contains markup.
func Resolve(record models.NotificationRecord, rc models.RelationshipContext) string {
	tmpl, ok := routeTemplates[record.Route]
	if !ok {
		return fallbackText
	}

	// Labels are plain text; only the template carries markup.
	name := html.EscapeString(connectionName(record, rc))
	credential := html.EscapeString(credentialName(record))

	var text string
	if strings.Count(tmpl, "%s") == 2 {
		text = fmt.Sprintf(tmpl, name, credential)
	} else {
		text = fmt.Sprintf(tmpl, name)
	}
	return StripMarkup(text)
}

// Title picks the notification title for a record's owner profile.
func Title(record models.NotificationRecord, rc models.RelationshipContext) string {
	if label, ok := rc.ProfileLabel(record.OwnerProfileID); ok {
		return StripMarkup(html.EscapeString(label))
	}
	return AppTitle
}

func connectionName(record models.NotificationRecord, rc models.RelationshipContext) string {
	connectionID := record.PayloadString(models.FieldConnectionID)
	if record.Route.IsMultisig() {
		if initiator := record.PayloadString(models.FieldGroupInitiatorID); initiator != "" {
			connectionID = initiator
		}
	}

	if label, ok := rc.ConnectionLabel(connectionID); ok {
		return label
	}
	if label, ok := rc.MultisigLabel(connectionID); ok {
		return label
	}
	return unknownConnection
}

func credentialName(record models.NotificationRecord) string {
	if name := strings.TrimSpace(record.PayloadString(models.FieldCredentialName)); name != "" {
		return name
	}
	return unnamedCredential
}

// StripMarkup drops tags, decodes entities and collapses whitespace.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if isBlock(string(name)) {
				b.WriteByte(' ')
			}
		}
	}
}

func isBlock(tag string) bool {
	switch tag {
	case "br", "p", "div", "li", "ul", "ol", "h1", "h2", "h3", "tr", "td":
		return true
	}
	return false
}
