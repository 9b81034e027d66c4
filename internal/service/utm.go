package service

import (
	"net/url"
	"strings"

	"github.com/pulseboard/pulseboard/internal/model"
)

const (
	maxSlugifyLength = 60
	websiteSource    = "website"
)

// slugify lowercases s, collapses every run of characters outside [a-z0-9]
// into a single hyphen, trims hyphens and caps the result at 60 characters.
func slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	out := b.String()
	if len(out) > maxSlugifyLength {
		out = strings.TrimRight(out[:maxSlugifyLength], "-")
	}
	return out
}

// DeriveUTM builds the UTM snapshot for a new link. A nil campaign means a
// website-kit link.
func DeriveUTM(campaign *model.Campaign, piece *model.ContentPiece) model.UTM {
	if campaign == nil {
		utm := model.UTM{Source: websiteSource, Medium: websiteSource}
		if piece != nil {
			utm.Content = slugify(piece.Title)
		}
		return utm
	}

	medium := string(campaign.Category)
	if medium == "" {
		medium = string(model.CategorySocial)
	}

	utm := model.UTM{
		Source:   slugify(campaign.Channel),
		Medium:   medium,
		Campaign: slugify(campaign.Angle),
	}
	if piece != nil {
		utm.Content = slugify(piece.Title)
	}
	return utm
}

// ApplyUTM sets the link's non-empty UTM fields on destination. Existing
// parameters keep their order and encoding; a parameter being set is replaced
// at its first position and any repeats are dropped. If destination cannot be
// parsed it is returned unchanged.
func ApplyUTM(destination string, utm model.UTM) string {
	u, err := url.Parse(destination)
	if err != nil {
		return destination
	}

	params := []struct{ key, value string }{
		{"utm_source", utm.Source},
		{"utm_medium", utm.Medium},
		{"utm_campaign", utm.Campaign},
		{"utm_content", utm.Content},
		{"utm_term", utm.Term},
	}

	var parts []string
	if u.RawQuery != "" {
		parts = strings.Split(u.RawQuery, "&")
	}

	for _, p := range params {
		if p.value == "" {
			continue
		}
		pair := p.key + "=" + url.QueryEscape(p.value)
		parts = setQueryPart(parts, p.key, pair)
	}

	u.RawQuery = strings.Join(parts, "&")
	return u.String()
}

func setQueryPart(parts []string, key, pair string) []string {
	out := parts[:0:0]
	replaced := false
	for _, part := range parts {
		if queryKey(part) != key {
			out = append(out, part)
			continue
		}
		if !replaced {
			out = append(out, pair)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, pair)
	}
	return out
}

func queryKey(part string) string {
	k, _, _ := strings.Cut(part, "=")
	if unescaped, err := url.QueryUnescape(k); err == nil {
		return unescaped
	}
	return k
}
