package googlepay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeToken encodes a raw payment payload as base64 over its UTF-8 bytes.
// This is the unicode-safe encoding the gateway expects (the web SDK reaches
// the same bytes via percent-encode-then-recombine before base64), so payloads
// with non-ASCII shopper data survive intact.
func EncodeToken(payload []byte) (string, error) {
	if !json.Valid(payload) {
		return "", fmt.Errorf("payment payload is not valid JSON")
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeToken is the inverse of EncodeToken, restoring the payload bytes
// exactly.
func DecodeToken(token string) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode payment token: %w", err)
	}
	return payload, nil
}
