package notify

import (
	"time"

	"fleetworks/internal/category"
	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
)

// Channel is a delivery channel a reminder decision targets.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
)

// Decision is one reminder the engine has decided should go out. It names
// who is responsible and what the obligation looks like right now; actually
// delivering it is someone else's job.
type Decision struct {
	AssetID        domain.AssetID          `json:"asset_id"`
	Registration   string                  `json:"registration"`
	CategoryID     domain.CategoryID       `json:"category_id"`
	CategoryName   string                  `json:"category_name"`
	Status         threshold.Status        `json:"status"`
	Value          string                  `json:"value,omitempty"`
	Responsibility category.Responsibility `json:"responsibility"`
	Recipients     []string                `json:"recipients"`
	Channels       []Channel               `json:"channels"`
	DecidedAt      time.Time               `json:"decided_at"`
}
