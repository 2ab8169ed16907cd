package authy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// ValidateCallbackSignature checks the X-Authy-Signature header of a OneTouch
// callback. The provider signs nonce|method|url|body with HMAC-SHA256 keyed by
// the API key and sends the digest base64 encoded.
func ValidateCallbackSignature(apiKey, nonce, method, url string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(nonce + "|" + method + "|" + url + "|"))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
