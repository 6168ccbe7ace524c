package feed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/sentinel"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/testutil"
)

var brokerTime = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func TestDecode(t *testing.T) {
	testutil.Given(t, "a well formed record", func(t *testing.T) {
		value := []byte(`{"id":"n1","createdAt":"2024-02-01T00:00:00Z","ownerProfileId":"p2","route":"/exn/ipex/grant","payload":{"connectionId":"c1"}}`)

		record, err := Decode(value, brokerTime)
		require.NoError(t, err)

		testutil.Then(t, "every field is kept", func(t *testing.T) {
			assert.Equal(t, "n1", record.ID)
			assert.Equal(t, "p2", record.OwnerProfileID)
			assert.Equal(t, models.RouteIpexGrant, record.Route)
			assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), record.CreatedAt)
			assert.Equal(t, "c1", record.PayloadString(models.FieldConnectionID))
		})
	})

	testutil.Given(t, "a record without createdAt", func(t *testing.T) {
		record, err := Decode([]byte(`{"id":"n1","route":"/multisig/icp"}`), brokerTime)
		require.NoError(t, err)

		testutil.Then(t, "the broker timestamp is used", func(t *testing.T) {
			assert.Equal(t, brokerTime, record.CreatedAt)
		})
	})

	testutil.When(t, "decoding malformed records", func(t *testing.T) {
		for name, value := range map[string]string{
			"not json":      `{"id":`,
			"missing id":    `{"route":"/exn/ipex/grant"}`,
			"missing route": `{"id":"n1"}`,
		} {
			testutil.Then(t, name+" is rejected", func(t *testing.T) {
				_, err := Decode([]byte(value), brokerTime)
				assert.Error(t, err)
			})
		}
		_, err := Decode([]byte(`{"id":"n1"}`), brokerTime)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})
}

func TestConsumerHandle_SkipsMalformed(t *testing.T) {
	var got []models.NotificationRecord
	c := &Consumer{
		topic:  "wallet.notifications",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		handler: func(_ context.Context, record models.NotificationRecord) {
			got = append(got, record)
		},
	}

	c.handle(context.Background(), &kgo.Record{Value: []byte(`garbage`), Timestamp: brokerTime})
	c.handle(context.Background(), &kgo.Record{Value: []byte(`{"id":"n2","route":"/exn/ipex/apply"}`), Timestamp: brokerTime})

	require.Len(t, got, 1)
	assert.Equal(t, "n2", got[0].ID)
}

func TestNew_Validates(t *testing.T) {
	noop := func(context.Context, models.NotificationRecord) {}

	_, err := New(Config{Topic: "t", Group: "g"}, noop)
	assert.Error(t, err)
	_, err = New(Config{Brokers: []string{"localhost:9092"}, Group: "g"}, noop)
	assert.Error(t, err)
	_, err = New(Config{Brokers: []string{"localhost:9092"}, Topic: "t", Group: "g"}, nil)
	assert.Error(t, err)
}
