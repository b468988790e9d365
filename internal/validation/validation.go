// Package validation provides functionality for validating webhook signatures to verify request authenticity.
package validation

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/isometry/clerk-user-sync/internal/models"
	"github.com/pkg/errors"
	svix "github.com/svix/svix-webhooks/go"
)

//go:generate mockgen -destination=../mocks/mock_verifier.go -package=mocks github.com/isometry/clerk-user-sync/internal/validation Verifier

// Svix delivery headers, lower-cased as normalised by the runtime.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// ErrMissingHeaders is returned when any of the delivery headers is absent or empty.
var ErrMissingHeaders = errors.New("missing svix headers")

// Headers holds the three values identifying and signing a webhook delivery.
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

// ExtractHeaders reads the delivery headers from lower-cased request headers.
func ExtractHeaders(headers map[string]string) (Headers, error) {
	h := Headers{
		ID:        strings.TrimSpace(headers[HeaderID]),
		Timestamp: strings.TrimSpace(headers[HeaderTimestamp]),
		Signature: strings.TrimSpace(headers[HeaderSignature]),
	}
	if h.ID == "" || h.Timestamp == "" || h.Signature == "" {
		return h, ErrMissingHeaders
	}
	return h, nil
}

// HTTPHeader returns the headers in the form expected by the svix library.
func (h Headers) HTTPHeader() http.Header {
	hh := http.Header{}
	hh.Set(HeaderID, h.ID)
	hh.Set(HeaderTimestamp, h.Timestamp)
	hh.Set(HeaderSignature, h.Signature)
	return hh
}

// Verifier checks that body was signed with secret and decodes the event envelope it carries.
// The event data is left undecoded.
type Verifier interface {
	Verify(secret string, body []byte, headers Headers) (*models.Event, error)
}

// SvixVerifier verifies Svix-signed deliveries (used by Clerk).
// Signatures older or newer than the library tolerance (five minutes) are rejected.
type SvixVerifier struct{}

// NewSvixVerifier returns a Verifier backed by the svix library.
func NewSvixVerifier() *SvixVerifier {
	return &SvixVerifier{}
}

// Verify implements Verifier.
func (v *SvixVerifier) Verify(secret string, body []byte, headers Headers) (*models.Event, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, errors.Wrap(err, "invalid webhook secret")
	}
	if err = wh.Verify(body, headers.HTTPHeader()); err != nil {
		return nil, errors.Wrap(err, "invalid webhook signature")
	}

	var event models.Event
	if err = json.Unmarshal(body, &event); err != nil {
		return nil, errors.Wrap(err, "malformed webhook payload")
	}
	return &event, nil
}
