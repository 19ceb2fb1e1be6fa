package utils

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
)

// GenerateInviteToken returns 32 random bytes hex encoded.
func GenerateInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// InviteLink appends the token as query parameter to base.
func InviteLink(base string, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
