package service

import (
	"time"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/coldstart"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/delivery"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
)

// Config holds the engine timings and OS channel settings.
type Config struct {
	DeliveryInterval    time.Duration
	TapDebounce         time.Duration
	WarmNavigationDelay time.Duration
	ColdNavigationDelay time.Duration
	NotificationsRoute  string
	Channel             models.ChannelConfig
}

// DefaultTapDebounce coalesces repeated OS tap events for one gesture.
const DefaultTapDebounce = 100 * time.Millisecond

func DefaultConfig() Config {
	return Config{
		DeliveryInterval:    delivery.DefaultInterval,
		TapDebounce:         DefaultTapDebounce,
		WarmNavigationDelay: coldstart.DefaultWarmNavigationDelay,
		ColdNavigationDelay: coldstart.DefaultColdNavigationDelay,
		NotificationsRoute:  coldstart.DefaultNotificationsRoute,
		Channel: models.ChannelConfig{
			ID:          "veridian-notifications",
			Name:        "Wallet notifications",
			Description: "Credential offers, requests and group invitations",
			Importance:  models.ImportanceHigh,
		},
	}
}
