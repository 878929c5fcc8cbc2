package mailtm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider builds a mail.tm stand-in with per-route handlers.
func fakeProvider(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func domainsHandler(domains ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members := make([]map[string]string, 0, len(domains))
		for _, d := range domains {
			members = append(members, map[string]string{"domain": d})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"hydra:member": members})
	}
}

func TestListDomains(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		"/domains": domainsHandler("example.test", "other.test"),
	})

	c := New(WithBaseURL(srv.URL))
	assert.Equal(t, []string{"example.test", "other.test"}, c.ListDomains(context.Background()))
}

func TestListDomainsFallback(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"provider error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"empty listing", domainsHandler()},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := fakeProvider(t, map[string]http.HandlerFunc{"/domains": tc.handler})
			c := New(WithBaseURL(srv.URL))
			assert.Equal(t, []string{DefaultFallbackDomain}, c.ListDomains(context.Background()))
		})
	}
}

func TestListDomainsFallbackWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(WithBaseURL(srv.URL), WithFallbackDomain("backup.test"))
	assert.Equal(t, []string{"backup.test"}, c.ListDomains(context.Background()))
}

func TestCreateInbox(t *testing.T) {
	var gotCreds credentials
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		"/domains": domainsHandler("example.test"),
		"/accounts": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotCreds))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"id": "acc-1", "address": gotCreds.Address})
		},
		"/token": func(w http.ResponseWriter, r *http.Request) {
			var creds credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, gotCreds, creds)
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
		},
	})

	c := New(WithBaseURL(srv.URL))
	inbox, err := c.CreateInbox(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "acc-1", inbox.ID)
	assert.Equal(t, "example.test", inbox.Domain)
	assert.True(t, strings.HasSuffix(inbox.Email, "@example.test"))
	assert.Equal(t, "tok-1", inbox.Token)
	assert.WithinDuration(t, time.Now(), inbox.CreatedAt, 5*time.Second)

	local := strings.SplitN(inbox.Email, "@", 2)[0]
	assert.Regexp(t, regexp.MustCompile(`^user\d{13,}$`), local)
	assert.Regexp(t, regexp.MustCompile(`^password\d{5}$`), inbox.Password)
	assert.Equal(t, inbox.Email, gotCreds.Address)
	assert.Equal(t, inbox.Password, gotCreds.Password)
}

func TestCreateInboxCustomName(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		"/domains": domainsHandler("example.test"),
		"/accounts": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"id": "acc-2"})
		},
		"/token": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-2"})
		},
	})

	c := New(WithBaseURL(srv.URL))
	inbox, err := c.CreateInbox(context.Background(), "alice")
	require.NoError(t, err)

	local := strings.SplitN(inbox.Email, "@", 2)[0]
	assert.Regexp(t, regexp.MustCompile(`^alice\d{12,}$`), local)
}

func TestCreateInboxLoginFailure(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		"/domains": domainsHandler("example.test"),
		"/accounts": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"id": "acc-3"})
		},
		"/token": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
		},
	})

	c := New(WithBaseURL(srv.URL))
	inbox, err := c.CreateInbox(context.Background(), "")

	// Login failure is a degraded state, not an error.
	require.NoError(t, err)
	assert.Empty(t, inbox.Token)
}

func TestCreateInboxAccountRejected(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		"/domains": domainsHandler("example.test"),
		"/accounts": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "address already used", http.StatusUnprocessableEntity)
		},
	})

	c := New(WithBaseURL(srv.URL))
	_, err := c.CreateInbox(context.Background(), "")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestCreateInboxAccountAbsent(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		"/domains": domainsHandler("example.test"),
		"/accounts": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "", http.StatusNotFound)
		},
	})

	c := New(WithBaseURL(srv.URL))
	_, err := c.CreateInbox(context.Background(), "")

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "absence must not surface as a provider rejection")
}

func messageListHandler(token string, ids ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		members := make([]map[string]string, 0, len(ids))
		for _, id := range ids {
			members = append(members, map[string]string{"id": id})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"hydra:member": members})
	}
}

func TestGetMessages(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		"/messages": messageListHandler("tok-1", "m1", "m2", "m3"),
		"/messages/m1": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"id": "m1",
				"from": {"address": "sender@example.test"},
				"to": [{"address": "rcpt@example.test"}],
				"subject": "hello",
				"text": "plain body",
				"html": ["<p>a</p>", "<p>b</p>"],
				"createdAt": "2024-05-01T10:00:00Z",
				"attachments": [{"filename": "a.txt", "size": 3}]
			}`))
		},
		"/messages/m2": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "", http.StatusNotFound)
		},
		"/messages/m3": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "m3", "html": []}`))
		},
	})

	c := New(WithBaseURL(srv.URL))
	msgs := c.GetMessages(context.Background(), "tok-1")
	require.Len(t, msgs, 2, "m2 has no detail record and must be skipped")

	first := msgs[0]
	assert.Equal(t, "m1", first.ID)
	assert.Equal(t, "sender@example.test", first.FromAddress)
	assert.Equal(t, "rcpt@example.test", first.ToAddress)
	assert.Equal(t, "hello", first.Subject)
	assert.Equal(t, "plain body", first.Body)
	require.NotNil(t, first.HTMLBody)
	assert.Equal(t, "<p>a</p> <p>b</p>", *first.HTMLBody)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), first.ReceivedAt.UTC())
	require.Len(t, first.Attachments, 1)
	assert.Equal(t, "a.txt", first.Attachments[0]["filename"])

	second := msgs[1]
	assert.Equal(t, "m3", second.ID)
	assert.Empty(t, second.FromAddress)
	assert.Empty(t, second.ToAddress)
	assert.Empty(t, second.Subject)
	assert.Empty(t, second.Body)
	assert.Nil(t, second.HTMLBody, "empty html list normalizes to null")
	assert.NotNil(t, second.Attachments)
	assert.Empty(t, second.Attachments)
	assert.WithinDuration(t, time.Now(), second.ReceivedAt, 5*time.Second)
}

func TestGetMessagesHTMLString(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		"/messages": messageListHandler("tok-1", "m1"),
		"/messages/m1": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "m1", "html": "<b>hi</b>"}`))
		},
	})

	c := New(WithBaseURL(srv.URL))
	msgs := c.GetMessages(context.Background(), "tok-1")
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].HTMLBody)
	assert.Equal(t, "<b>hi</b>", *msgs[0].HTMLBody)
}

func TestGetMessagesSanitized(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		"/messages": messageListHandler("tok-1", "m1"),
		"/messages/m1": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "m1", "html": ["<b>hi</b>"]}`))
		},
	})

	c := New(WithBaseURL(srv.URL), WithHTMLSanitizer(strings.ToUpper))
	msgs := c.GetMessages(context.Background(), "tok-1")
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].HTMLBody)
	assert.Equal(t, "<B>HI</B>", *msgs[0].HTMLBody)
}

func TestGetMessagesBestEffort(t *testing.T) {
	cases := []struct {
		name   string
		routes map[string]http.HandlerFunc
	}{
		{"invalid token", map[string]http.HandlerFunc{
			"/messages": messageListHandler("other-token"),
		}},
		{"malformed listing", map[string]http.HandlerFunc{
			"/messages": func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		}},
		{"detail fetch fails hard", map[string]http.HandlerFunc{
			"/messages": messageListHandler("tok-1", "m1"),
			"/messages/m1": func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := fakeProvider(t, tc.routes)
			c := New(WithBaseURL(srv.URL))
			msgs := c.GetMessages(context.Background(), "tok-1")
			assert.NotNil(t, msgs)
			assert.Empty(t, msgs)
		})
	}
}

func TestParseReceivedAt(t *testing.T) {
	t.Run("zulu suffix", func(t *testing.T) {
		got := parseReceivedAt("2024-05-01T10:00:00Z")
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), got.UTC())
	})
	t.Run("explicit offset", func(t *testing.T) {
		got := parseReceivedAt("2024-05-01T12:00:00+02:00")
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), got.UTC())
	})
	t.Run("absent", func(t *testing.T) {
		assert.WithinDuration(t, time.Now(), parseReceivedAt(""), 5*time.Second)
	})
	t.Run("garbage", func(t *testing.T) {
		assert.WithinDuration(t, time.Now(), parseReceivedAt("yesterday"), 5*time.Second)
	})
}

func TestLocalPartShapes(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^user\d{13,}$`), localPart(""))
	assert.Regexp(t, regexp.MustCompile(`^bob\d{12,}$`), localPart("bob"))
}
