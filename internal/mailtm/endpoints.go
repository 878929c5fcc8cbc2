package mailtm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tempmail/internal/domain"
)

// ListDomains returns the provider's available domains. Domain listing is
// advisory: any failure or an empty listing yields a single fallback domain
// instead of an error, so the signature carries none.
func (c *Client) ListDomains(ctx context.Context) []string {
	domains, err := c.fetchDomains(ctx)
	if err != nil {
		log.Printf("mailtm: domain listing failed, using fallback: %v", err)
		return []string{c.fallbackDomain}
	}
	if len(domains) == 0 {
		return []string{c.fallbackDomain}
	}
	return domains
}

func (c *Client) fetchDomains(ctx context.Context) ([]string, error) {
	var coll domainCollection
	if err := c.do(ctx, http.MethodGet, "/domains", "", nil, &coll); err != nil {
		return nil, err
	}

	domains := make([]string, 0, len(coll.Member))
	for _, rec := range coll.Member {
		if rec.Domain != "" {
			domains = append(domains, rec.Domain)
		}
	}
	return domains, nil
}

// CreateInbox registers a fresh account with the provider and logs in to
// obtain a bearer token. A failed login leaves the token empty: the inbox
// still works as an address, message retrieval just stays unavailable.
func (c *Client) CreateInbox(ctx context.Context, customName string) (*domain.Inbox, error) {
	emailDomain := c.ListDomains(ctx)[0]

	creds := credentials{
		Address:  fmt.Sprintf("%s@%s", localPart(customName), emailDomain),
		Password: fmt.Sprintf("password%d", rand.Intn(90000)+10000),
	}

	var account accountRecord
	if err := c.do(ctx, http.MethodPost, "/accounts", "", creds, &account); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("provider returned no account for %s", creds.Address)
		}
		return nil, fmt.Errorf("create account %s: %w", creds.Address, err)
	}

	var tok tokenRecord
	if err := c.do(ctx, http.MethodPost, "/token", "", creds, &tok); err != nil {
		log.Printf("mailtm: login for %s failed, inbox will carry no token: %v", creds.Address, err)
		tok.Token = ""
	}

	return &domain.Inbox{
		ID:        account.ID,
		Email:     creds.Address,
		Domain:    emailDomain,
		Password:  creds.Password,
		CreatedAt: time.Now().UTC(),
		Token:     tok.Token,
	}, nil
}

// localPart builds a unique-by-construction mailbox name: user<unix><3 digits>
// by default, or the requested name suffixed with <unix><2 digits>.
func localPart(customName string) string {
	now := time.Now().Unix()
	if customName == "" {
		return fmt.Sprintf("user%d%d", now, rand.Intn(900)+100)
	}
	return fmt.Sprintf("%s%d%d", customName, now, rand.Intn(90)+10)
}

// GetMessages lists the mailbox behind the given bearer token. Retrieval is
// best-effort: an invalid token, an empty mailbox or any provider failure all
// yield an empty list, never an error, since polling for new mail is expected
// to fail benignly.
func (c *Client) GetMessages(ctx context.Context, token string) []domain.Message {
	messages, err := c.fetchMessages(ctx, token)
	if err != nil {
		log.Printf("mailtm: message retrieval failed: %v", err)
		return []domain.Message{}
	}
	return messages
}

func (c *Client) fetchMessages(ctx context.Context, token string) ([]domain.Message, error) {
	var coll messageCollection
	if err := c.do(ctx, http.MethodGet, "/messages", token, nil, &coll); err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(coll.Member))
	for _, summary := range coll.Member {
		var rec messageRecord
		err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(summary.ID), token, nil, &rec)
		if errors.Is(err, ErrNotFound) {
			// Summary without a detail record, skip it.
			continue
		}
		if err != nil {
			return nil, err
		}
		messages = append(messages, c.normalize(&rec))
	}
	return messages, nil
}

func (c *Client) normalize(rec *messageRecord) domain.Message {
	msg := domain.Message{
		ID:          rec.ID,
		FromAddress: rec.From.Address,
		Subject:     rec.Subject,
		Body:        rec.Text,
		ReceivedAt:  parseReceivedAt(rec.CreatedAt),
		Attachments: rec.Attachments,
	}
	if len(rec.To) > 0 {
		msg.ToAddress = rec.To[0].Address
	}
	if msg.Attachments == nil {
		msg.Attachments = []map[string]interface{}{}
	}
	if joined := strings.Join(rec.HTML, " "); joined != "" {
		if c.sanitizeHTML != nil {
			joined = c.sanitizeHTML(joined)
		}
		msg.HTMLBody = &joined
	}
	return msg
}

// parseReceivedAt normalizes the provider's ISO-8601 timestamp: a trailing Z
// becomes an explicit UTC offset before parsing. Absent or unparseable values
// default to the current time.
func parseReceivedAt(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}
