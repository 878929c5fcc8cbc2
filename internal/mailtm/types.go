package mailtm

import "encoding/json"

// Wire shapes of the mail.tm REST API. Collections arrive wrapped in a hydra
// pagination envelope; only the member list matters here.

type domainCollection struct {
	Member []domainRecord `json:"hydra:member"`
}

type domainRecord struct {
	Domain string `json:"domain"`
}

type credentials struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

type accountRecord struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

type tokenRecord struct {
	Token string `json:"token"`
}

type messageCollection struct {
	Member []messageSummary `json:"hydra:member"`
}

type messageSummary struct {
	ID string `json:"id"`
}

type mailbox struct {
	Address string `json:"address"`
}

type messageRecord struct {
	ID          string                   `json:"id"`
	From        mailbox                  `json:"from"`
	To          []mailbox                `json:"to"`
	Subject     string                   `json:"subject"`
	Text        string                   `json:"text"`
	HTML        htmlFragments            `json:"html"`
	CreatedAt   string                   `json:"createdAt"`
	Attachments []map[string]interface{} `json:"attachments"`
}

// htmlFragments absorbs the provider's heterogeneous html field, which may be
// a list of fragments, a single string, or absent.
type htmlFragments []string

func (h *htmlFragments) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*h = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*h = nil
		} else {
			*h = []string{single}
		}
		return nil
	}

	// Unexpected shape, treat as absent.
	*h = nil
	return nil
}
