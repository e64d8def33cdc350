// Package sign implements the Amino request signature and device identity
// scheme: HMAC-SHA1 digests prefixed with a protocol version byte.
package sign

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Protocol version byte prepended to every signature and device ID.
const versionByte = 0x19

// Service-wide HMAC keys, published with the mobile client.
var (
	sigKey = mustHex("dfa5ed192dda6e88a12fe12130dc6206b1251e44")
	devKey = mustHex("e7309ecc0953c6fa60005b2765f99dbbc965c8e9")
)

// deviceSeedLen is the number of random bytes inside a device ID.
const deviceSeedLen = 20

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Signature computes the NDC-MSG-SIG header value for a request body.
func Signature(data []byte) string {
	mac := hmac.New(sha1.New, sigKey)
	mac.Write(data)
	return base64.StdEncoding.EncodeToString(append([]byte{versionByte}, mac.Sum(nil)...))
}

// NewDeviceID generates a device ID from a fresh random seed.
func NewDeviceID() (string, error) {
	seed := make([]byte, deviceSeedLen)
	if _, err := rand.Read(seed); err != nil {
		return "", fmt.Errorf("read random seed: %w", err)
	}
	return DeviceIDFromSeed(seed), nil
}

// DeviceIDFromSeed derives a device ID deterministically from a 20-byte seed.
func DeviceIDFromSeed(seed []byte) string {
	info := append([]byte{versionByte}, seed...)
	mac := hmac.New(sha1.New, devKey)
	mac.Write(info)
	return strings.ToUpper(hex.EncodeToString(append(info, mac.Sum(nil)...)))
}

// RefreshDeviceID re-derives a device ID from the seed embedded in an
// existing one, normalizing IDs produced by older client versions.
func RefreshDeviceID(deviceID string) (string, error) {
	raw, err := hex.DecodeString(deviceID)
	if err != nil {
		return "", fmt.Errorf("decode device id: %w", err)
	}
	if len(raw) < 1+deviceSeedLen {
		return "", fmt.Errorf("device id too short: %d bytes", len(raw))
	}
	return DeviceIDFromSeed(raw[1 : 1+deviceSeedLen]), nil
}

// ValidDeviceID reports whether the ID carries the correct version byte and
// HMAC for its embedded seed.
func ValidDeviceID(deviceID string) bool {
	raw, err := hex.DecodeString(deviceID)
	if err != nil || len(raw) != 1+deviceSeedLen+sha1.Size || raw[0] != versionByte {
		return false
	}
	derived, err := RefreshDeviceID(deviceID)
	if err != nil {
		return false
	}
	return strings.EqualFold(derived, deviceID)
}

// TransactionID returns a fresh transaction identifier for request payloads.
func TransactionID() string {
	return uuid.NewString()
}

// SIDInfo is the session metadata embedded in an auth token.
type SIDInfo struct {
	UserID     string `json:"2"`
	IPAddress  string `json:"4"`
	CreatedAt  int64  `json:"5"`
	ClientType int    `json:"6"`
}

// DecodeSID extracts the metadata embedded in a session ID string. The token
// is URL-safe base64 wrapping one version byte, a JSON document, and a
// trailing 20-byte signature.
func DecodeSID(sid string) (*SIDInfo, error) {
	sid = strings.TrimPrefix(sid, "sid=")
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(sid, "="))
	if err != nil {
		return nil, fmt.Errorf("decode sid: %w", err)
	}
	if len(raw) <= 1+sha1.Size {
		return nil, fmt.Errorf("sid too short: %d bytes", len(raw))
	}
	var info SIDInfo
	if err := json.Unmarshal(raw[1:len(raw)-sha1.Size], &info); err != nil {
		return nil, fmt.Errorf("parse sid payload: %w", err)
	}
	return &info, nil
}
