package host

import (
	"context"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
)

// Presenter is the orchestrator entry point for server notifications.
type Presenter interface {
	ShowLocalNotification(
		ctx context.Context,
		record models.NotificationRecord,
		currentProfileID string,
		currentProfileName string,
		rc models.RelationshipContext,
	)
}

// Inbox forwards server notification records to the presenter together with
// the session's current profile and relationships. The Kafka feed and the
// control API both deliver through it.
type Inbox struct {
	session   *Session
	presenter Presenter
}

func NewInbox(session *Session, presenter Presenter) *Inbox {
	return &Inbox{session: session, presenter: presenter}
}

func (i *Inbox) Deliver(ctx context.Context, record models.NotificationRecord) {
	profile := i.session.Profile()
	i.presenter.ShowLocalNotification(ctx, record, profile.ID, profile.Name, i.session.Relationships())
}
