// ABOUTME: Intercom webhook signature verification (x-hub-signature header)
// ABOUTME: Signatures are sha1= prefixed hex HMAC-SHA1 digests of the raw body
package webhooks

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"

	"github.com/tylercowie/intercomconnector/models"
)

// Signature computes the x-hub-signature value for a payload.
func Signature(body, secret []byte) string {
	mac := hmac.New(sha1.New, secret)
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the signature Intercom attached to a webhook
// delivery against the client secret.
func VerifySignature(body, secret []byte, signature string) error {
	expected := Signature(body, secret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return models.BadRequest("Invalid signature provided")
	}
	return nil
}
