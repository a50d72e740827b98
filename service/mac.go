package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"time"

	"github.com/tapsdk/taplogin/account"
)

// macAuthorization builds the MAC authorization header for a request, signing
// timestamp, nonce, method, request URI, host and port with the token's MAC
// key per the mac_algorithm the token was issued with.
func macAuthorization(token *account.AccessToken, method string, u *url.URL) (string, error) {
	newMac, err := macDigest(token.MacAlgorithm)
	if err != nil {
		return "", err
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	nonce, err := macNonce()
	if err != nil {
		return "", err
	}
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	requestURI := u.Path
	if u.RawQuery != "" {
		requestURI += "?" + u.RawQuery
	}
	base := ts + "\n" + nonce + "\n" + method + "\n" + requestURI + "\n" + u.Hostname() + "\n" + port + "\n\n"
	mac := hmac.New(newMac, []byte(token.MacKey))
	mac.Write([]byte(base))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("MAC id=%q,ts=%q,nonce=%q,mac=%q", token.KeyID, ts, nonce, signature), nil
}

func macDigest(algorithm string) (func() hash.Hash, error) {
	switch algorithm {
	case "hmac-sha-1", "":
		return sha1.New, nil
	case "hmac-sha-256":
		return sha256.New, nil
	default:
		return nil, fmt.Errorf("unsupported mac algorithm %q", algorithm)
	}
}

func macNonce() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
