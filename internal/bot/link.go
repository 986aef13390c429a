package bot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signatureLen = 16

// LinkToken is the /start argument that links a chat to ownerID. It fits
// Telegram's deep-link limit for owner IDs up to 47 characters.
func LinkToken(secret, ownerID string) string {
	return ownerID + "_" + sign(secret, ownerID)
}

// ParseLinkToken returns the owner a token was issued for.
func ParseLinkToken(secret, token string) (string, bool) {
	i := strings.LastIndexByte(token, '_')
	if i <= 0 {
		return "", false
	}
	ownerID, sig := token[:i], token[i+1:]
	if !hmac.Equal([]byte(sig), []byte(sign(secret, ownerID))) {
		return "", false
	}
	return ownerID, true
}

func sign(secret, ownerID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ownerID))
	return hex.EncodeToString(mac.Sum(nil))[:signatureLen]
}
