// Command smoketest drives a running tempmail façade end to end against the
// live provider: health, domain listing, two inbox creations and a message
// poll per created inbox. Exit code 0 means every check passed.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type suite struct {
	api     string
	client  *http.Client
	results []result
}

type result struct {
	name    string
	ok      bool
	details string
}

type inboxPayload struct {
	Inbox struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		Domain    string `json:"domain"`
		Password  string `json:"password"`
		CreatedAt string `json:"created_at"`
		Token     string `json:"token"`
	} `json:"inbox"`
	Messages     []json.RawMessage `json:"messages"`
	MessageCount int               `json:"message_count"`
}

func main() {
	baseURL := flag.String("base-url", envOr("SMOKETEST_URL", "http://localhost:8001"), "façade base URL")
	flag.Parse()

	s := &suite{
		api:    strings.TrimRight(*baseURL, "/") + "/api",
		client: &http.Client{Timeout: 20 * time.Second},
	}

	fmt.Printf("Smoke testing %s\n\n", s.api)

	s.checkHealth()
	s.checkDomains()
	first := s.checkCreate("")
	second := s.checkCreate(fmt.Sprintf("testuser%d", time.Now().Unix()))
	s.checkMessages(first)
	s.checkMessages(second)

	failed := 0
	fmt.Println("\nSummary:")
	for _, r := range s.results {
		status := "PASS"
		if !r.ok {
			status = "FAIL"
			failed++
		}
		fmt.Printf("  [%s] %s: %s\n", status, r.name, r.details)
	}
	if failed > 0 {
		fmt.Printf("\n%d of %d checks failed\n", failed, len(s.results))
		os.Exit(1)
	}
	fmt.Printf("\nAll %d checks passed\n", len(s.results))
}

func (s *suite) log(name string, ok bool, format string, args ...interface{}) {
	s.results = append(s.results, result{name: name, ok: ok, details: fmt.Sprintf(format, args...)})
	status := "PASS"
	if !ok {
		status = "FAIL"
	}
	fmt.Printf("[%s] %s: %s\n", status, name, fmt.Sprintf(format, args...))
}

func (s *suite) checkHealth() {
	const name = "health"

	var body struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := s.getJSON("/health", &body); err != nil {
		s.log(name, false, "%v", err)
		return
	}
	if body.Status != "healthy" {
		s.log(name, false, "unexpected status %q", body.Status)
		return
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		s.log(name, false, "unparseable timestamp %q", body.Timestamp)
		return
	}
	s.log(name, true, "healthy at %s", body.Timestamp)
}

func (s *suite) checkDomains() {
	const name = "domains"

	var domains []string
	if err := s.getJSON("/domains", &domains); err != nil {
		s.log(name, false, "%v", err)
		return
	}
	if len(domains) == 0 {
		s.log(name, false, "empty domain list")
		return
	}
	s.log(name, true, "%d domains: %s", len(domains), strings.Join(domains, ", "))
}

func (s *suite) checkCreate(customName string) *inboxPayload {
	name := "create inbox"
	if customName != "" {
		name = "create inbox (custom name)"
	}

	reqBody := map[string]string{}
	if customName != "" {
		reqBody["custom_name"] = customName
	}
	data, _ := json.Marshal(reqBody)

	resp, err := s.client.Post(s.api+"/inbox/create", "application/json", bytes.NewReader(data))
	if err != nil {
		s.log(name, false, "%v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		s.log(name, false, "HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		return nil
	}

	var payload inboxPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.log(name, false, "decode response: %v", err)
		return nil
	}

	inbox := payload.Inbox
	switch {
	case inbox.ID == "" || inbox.Email == "" || inbox.Password == "":
		s.log(name, false, "incomplete inbox: %+v", inbox)
		return nil
	case !strings.HasSuffix(inbox.Email, "@"+inbox.Domain):
		s.log(name, false, "domain %q is not a suffix of %q", inbox.Domain, inbox.Email)
		return nil
	case payload.MessageCount != 0 || len(payload.Messages) != 0:
		s.log(name, false, "creation response carries messages")
		return nil
	}

	local := strings.SplitN(inbox.Email, "@", 2)[0]
	if customName != "" && !strings.Contains(local, customName) {
		s.log(name, false, "custom name %q missing from %q", customName, inbox.Email)
		return nil
	}
	if customName == "" && !strings.HasPrefix(local, "user") {
		s.log(name, false, "default local part %q lacks user prefix", local)
		return nil
	}

	s.log(name, true, "created %s (token present: %t)", inbox.Email, inbox.Token != "")
	return &payload
}

func (s *suite) checkMessages(payload *inboxPayload) {
	const name = "get messages"

	if payload == nil {
		s.log(name, false, "skipped, inbox creation failed")
		return
	}

	var msgs []json.RawMessage
	path := fmt.Sprintf("/inbox/%s/messages?token=%s",
		url.PathEscape(payload.Inbox.ID), url.QueryEscape(payload.Inbox.Token))
	if err := s.getJSON(path, &msgs); err != nil {
		s.log(name, false, "%v", err)
		return
	}
	s.log(name, true, "%d messages for %s", len(msgs), payload.Inbox.Email)
}

func (s *suite) getJSON(path string, out interface{}) error {
	resp, err := s.client.Get(s.api + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
