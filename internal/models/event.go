package models

import (
	"encoding/json"
)

// Clerk webhook event types handled by the user sync.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is the envelope of a verified Clerk webhook delivery.
// Data is kept raw: its shape depends on Type.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DataID returns data.id when present, or an empty string.
func (e Event) DataID() string {
	var ref struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(e.Data, &ref); err != nil {
		return ""
	}
	if id, ok := ref.ID.(string); ok {
		return id
	}
	return ""
}

// UserData decodes Data as the user object carried by user.* events.
func (e Event) UserData() (UserData, error) {
	var data UserData
	if len(e.Data) == 0 {
		return data, nil
	}
	err := json.Unmarshal(e.Data, &data)
	return data, err
}

// UserData is the user object carried by user.* events. Only ID is guaranteed;
// user.deleted payloads carry nothing but ID.
type UserData struct {
	ID                    string         `json:"id"`
	FirstName             *string        `json:"first_name,omitempty"`
	LastName              *string        `json:"last_name,omitempty"`
	ImageURL              *string        `json:"image_url,omitempty"`
	Username              *string        `json:"username,omitempty"`
	EmailAddresses        []EmailAddress `json:"email_addresses,omitempty"`
	PrimaryEmailAddressID *string        `json:"primary_email_address_id,omitempty"`
}

// EmailAddress is a single entry of UserData.EmailAddresses.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// Emails flattens the email address objects into their string values.
// The primary address comes first; the others keep their delivery order.
func (d UserData) Emails() []string {
	if len(d.EmailAddresses) == 0 {
		return nil
	}
	emails := make([]string, 0, len(d.EmailAddresses))
	primary := -1
	if d.PrimaryEmailAddressID != nil {
		for i, e := range d.EmailAddresses {
			if e.ID == *d.PrimaryEmailAddressID {
				primary = i
				emails = append(emails, e.EmailAddress)
				break
			}
		}
	}
	for i, e := range d.EmailAddresses {
		if i != primary {
			emails = append(emails, e.EmailAddress)
		}
	}
	return emails
}
