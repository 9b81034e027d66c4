package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validClick() ClickEvent {
	return ClickEvent{
		EventID:     "1750000000000-0",
		LinkID:      "link-1",
		Slug:        "ab12cd34",
		IPHash:      "0123456789abcdef",
		Device:      DeviceMobile,
		CountryCode: "DE",
		ClickedAt:   time.UnixMilli(1750000000000).UTC(),
	}
}

func TestClickEvent_Validate(t *testing.T) {
	t.Parallel()

	base := validClick()
	if err := base.Validate(); err != nil {
		t.Fatalf("valid click rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(e *ClickEvent)
	}{
		{"missing event id", func(e *ClickEvent) { e.EventID = "" }},
		{"missing link id", func(e *ClickEvent) { e.LinkID = "" }},
		{"short slug", func(e *ClickEvent) { e.Slug = "abc" }},
		{"missing ip hash", func(e *ClickEvent) { e.IPHash = "" }},
		{"non-hex ip hash", func(e *ClickEvent) { e.IPHash = "not-hex-not-hex!" }},
		{"uppercase ip hash", func(e *ClickEvent) { e.IPHash = "0123456789ABCDEF" }},
		{"unknown device", func(e *ClickEvent) { e.Device = "watch" }},
		{"three letter country", func(e *ClickEvent) { e.CountryCode = "DEU" }},
		{"zero clicked at", func(e *ClickEvent) { e.ClickedAt = time.Time{} }},
		{"epoch clicked at", func(e *ClickEvent) { e.ClickedAt = time.UnixMilli(0) }},
		{"referer too long", func(e *ClickEvent) { e.Referer = strings.Repeat("r", MaxClickMetaLength+1) }},
		{"user agent too long", func(e *ClickEvent) { e.UserAgent = strings.Repeat("u", MaxClickMetaLength+1) }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := validClick()
			tt.mutate(&e)
			err := e.Validate()
			if !errors.Is(err, ErrInvalidClick) {
				t.Errorf("Validate() = %v, want ErrInvalidClick", err)
			}
		})
	}
}

func TestClickEvent_ValidateOptionalFields(t *testing.T) {
	t.Parallel()

	e := validClick()
	e.CountryCode = ""
	e.Referer = strings.Repeat("r", MaxClickMetaLength)
	e.UserAgent = ""
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestCounterAdvance_Total(t *testing.T) {
	t.Parallel()

	if got := (CounterAdvance{"l1": 3, "l2": 1}).Total(); got != 4 {
		t.Errorf("Total() = %d, want 4", got)
	}
	if got := CounterAdvance(nil).Total(); got != 0 {
		t.Errorf("nil Total() = %d, want 0", got)
	}
}
