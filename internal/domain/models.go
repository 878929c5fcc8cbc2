package domain

import "time"

// Inbox is a disposable email account held entirely by the remote provider;
// this service only mediates its creation and credential issuance. Token is
// empty when the provider login failed, in which case message retrieval stays
// unavailable for this inbox.
type Inbox struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Domain    string    `json:"domain"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
	Token     string    `json:"token,omitempty"`
}

// Message is a read-only projection of a provider-side message, fetched on
// demand and never stored. HTMLBody is nil or a single concatenated string,
// never a list of fragments.
type Message struct {
	ID          string                   `json:"id"`
	FromAddress string                   `json:"from_address"`
	ToAddress   string                   `json:"to_address"`
	Subject     string                   `json:"subject"`
	Body        string                   `json:"body"`
	HTMLBody    *string                  `json:"html_body"`
	ReceivedAt  time.Time                `json:"received_at"`
	Attachments []map[string]interface{} `json:"attachments"`
}
