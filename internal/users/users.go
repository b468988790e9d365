// Package users defines the persistence capability the webhook handler forwards user lifecycle events to.
package users

import (
	"context"

	"github.com/pkg/errors"
)

//go:generate mockgen -destination=../mocks/mock_store.go -package=mocks github.com/isometry/clerk-user-sync/internal/users Store

// Store persists users mirrored from the identity provider.
// Implementations must tolerate redelivery of the same event: no deduplication happens upstream.
type Store interface {
	UpsertUser(ctx context.Context, id string, firstName, lastName, imageURL *string, emailAddresses []string, username *string) error
	DeleteUser(ctx context.Context, id string) error
}

// ErrMissingID is returned when a store operation is called without a user id.
var ErrMissingID = errors.New("missing user id")

// User is the persisted view of an identity provider user.
type User struct {
	ID             string
	FirstName      *string
	LastName       *string
	ImageURL       *string
	EmailAddresses []string
	Username       *string
}
