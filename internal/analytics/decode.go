package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pulseboard/pulseboard/internal/model"
)

var (
	errNoPayload        = errors.New("payload field missing or not a string")
	errMalformedPayload = errors.New("payload is not a click event")
)

// Event expands the stream payload into a click event. The stream entry ID
// becomes the idempotency key, so a redelivered entry maps to the same row.
func (p ClickEventPayload) Event(streamID string) *model.ClickEvent {
	return &model.ClickEvent{
		ID:          ulid.Make().String(),
		EventID:     streamID,
		LinkID:      p.LinkID,
		Slug:        p.Slug,
		Referer:     p.Referer,
		UserAgent:   p.UserAgent,
		IPHash:      p.IPHash,
		Device:      model.DeviceClass(p.Device),
		CountryCode: p.CountryCode,
		ClickedAt:   time.UnixMilli(p.ClickedAt).UTC(),
	}
}

// decodeClick turns one stream entry into a validated click event.
func decodeClick(msg redis.XMessage) (*model.ClickEvent, error) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return nil, errNoPayload
	}

	var payload ClickEventPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedPayload, err)
	}

	event := payload.Event(msg.ID)
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// rejectReason is the short label a rejected entry is filed under.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, errNoPayload):
		return "no_payload"
	case errors.Is(err, errMalformedPayload):
		return "malformed"
	case errors.Is(err, model.ErrInvalidClick):
		return "invalid"
	default:
		return "unknown"
	}
}
