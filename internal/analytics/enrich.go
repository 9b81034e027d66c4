package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/pulseboard/pulseboard/internal/model"
)

var (
	tabletUA = regexp.MustCompile(`(?i)ipad|tablet|playbook|silk|kindle`)
	mobileUA = regexp.MustCompile(`(?i)mobi|iphone|ipod|android|blackberry|opera mini|iemobile|windows phone`)
)

// DeviceFromUserAgent buckets a user agent into mobile, tablet or desktop.
// Unknown or empty agents count as desktop.
func DeviceFromUserAgent(ua string) model.DeviceClass {
	switch {
	case ua == "":
		return model.DeviceDesktop
	case isTablet(ua):
		return model.DeviceTablet
	case mobileUA.MatchString(ua):
		return model.DeviceMobile
	default:
		return model.DeviceDesktop
	}
}

// isTablet also treats Android agents without the "mobile" token as tablets.
func isTablet(ua string) bool {
	lower := strings.ToLower(ua)
	if strings.Contains(lower, "android") && !strings.Contains(lower, "mobile") {
		return true
	}
	return tabletUA.MatchString(ua)
}

// IPHasher produces a keyed one-way hash of visitor IPs. The raw IP never
// leaves the request.
type IPHasher struct {
	key []byte
}

// NewIPHasher creates a hasher keyed by salt. Salts longer than the 64-byte
// BLAKE2b key limit are compressed first.
func NewIPHasher(salt string) *IPHasher {
	key := []byte(salt)
	if len(key) > blake2b.Size {
		sum := sha256.Sum256(key)
		key = sum[:]
	}
	return &IPHasher{key: key}
}

// Hash returns the first 16 hex chars of BLAKE2b-256(key, ip).
func (h *IPHasher) Hash(ip string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		panic(err) // key length is bounded by NewIPHasher
	}
	mac.Write([]byte(ip))
	return hex.EncodeToString(mac.Sum(nil))[:model.IPHashLength]
}

// TruncateMeta truncates free-form header values to 500 bytes.
func TruncateMeta(s string) string {
	if len(s) > model.MaxClickMetaLength {
		return s[:model.MaxClickMetaLength]
	}
	return s
}

// ExtractCountryCode extracts country code from Cloudflare header.
// Returns empty string if header is missing or invalid.
func ExtractCountryCode(cfIPCountry string) string {
	if len(cfIPCountry) != 2 || strings.EqualFold(cfIPCountry, "XX") || strings.EqualFold(cfIPCountry, "T1") {
		return ""
	}
	return strings.ToUpper(cfIPCountry)
}
