package model

import (
	"errors"
	"fmt"
	"time"
)

// DeviceClass is the coarse device bucket derived from the user agent.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceDesktop DeviceClass = "desktop"
)

const (
	// MaxClickMetaLength caps stored user agent and referer strings.
	MaxClickMetaLength = 500

	// IPHashLength is the hex length of a visitor IP hash.
	IPHashLength = 16
)

// ErrInvalidClick marks a click event that must not reach the click log.
var ErrInvalidClick = errors.New("invalid click event")

// Valid reports whether d is a known device class.
func (d DeviceClass) Valid() bool {
	switch d {
	case DeviceMobile, DeviceTablet, DeviceDesktop:
		return true
	}
	return false
}

// ClickEvent represents a single redirect traversal. It is an immutable fact:
// created once, never updated or deleted by the scoring engine.
type ClickEvent struct {
	ID      string `json:"id"`       // ULID (time-sortable)
	EventID string `json:"event_id"` // Idempotency key (Redis stream ID)

	// Link reference
	LinkID string `json:"link_id"`
	Slug   string `json:"slug"`

	// Request metadata
	Referer   string `json:"referer,omitempty"`    // Referer header (truncated 500 chars)
	UserAgent string `json:"user_agent,omitempty"` // UA string (truncated 500 chars)

	// Privacy-safe visitor identification
	IPHash string `json:"ip_hash"` // keyed BLAKE2b(IP)[0:16]

	Device      DeviceClass `json:"device"`
	CountryCode string      `json:"country_code,omitempty"` // ISO 3166-1 alpha-2

	ClickedAt time.Time `json:"clicked_at"`
	CreatedAt time.Time `json:"created_at"` // DB insertion time
}

// Validate checks the fields the click log and the scoring windows depend
// on. Errors wrap ErrInvalidClick.
func (e *ClickEvent) Validate() error {
	var problem string
	switch {
	case e.EventID == "":
		problem = "event_id is required"
	case e.LinkID == "":
		problem = "link_id is required"
	case len(e.Slug) != SlugLength:
		problem = fmt.Sprintf("slug must be %d chars", SlugLength)
	case len(e.IPHash) != IPHashLength || !isLowerHex(e.IPHash):
		problem = fmt.Sprintf("ip_hash must be %d lowercase hex chars", IPHashLength)
	case !e.Device.Valid():
		problem = fmt.Sprintf("device %q is not a known class", e.Device)
	case e.CountryCode != "" && len(e.CountryCode) != 2:
		problem = "country_code must be 2 chars"
	case e.ClickedAt.IsZero() || e.ClickedAt.Unix() <= 0:
		problem = "clicked_at must be set"
	case len(e.Referer) > MaxClickMetaLength:
		problem = "referer too long"
	case len(e.UserAgent) > MaxClickMetaLength:
		problem = "user_agent too long"
	default:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidClick, problem)
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// CounterAdvance maps a link ID to how far its click counter moved in one
// ingest batch. Links whose clicks were all redeliveries are absent.
type CounterAdvance map[string]int64

// Total is the number of newly stored clicks.
func (a CounterAdvance) Total() int64 {
	var n int64
	for _, v := range a {
		n += v
	}
	return n
}

// ClickFact is the projection of a click event used by windowed aggregation.
type ClickFact struct {
	LinkID    string
	ClickedAt time.Time
}

// AnalyticsSummary is the link-level analytics overview for a product.
type AnalyticsSummary struct {
	TotalClicks int64            `json:"total_clicks"`
	Clicks7d    int64            `json:"clicks_7d"`
	Clicks30d   int64            `json:"clicks_30d"`
	TotalLinks  int              `json:"total_links"`
	TopLinks    []*Link          `json:"top_links"`
	ByChannel   map[string]int64 `json:"by_channel"`
	DailyClicks map[string]int64 `json:"daily_clicks"` // ISO date -> clicks
}
