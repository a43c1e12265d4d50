package affiliate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(&Config{
		BaseURL:   server.URL,
		ClientID:  "cid",
		SecretKey: "secret",
	}, server.Client())
	client.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return client
}

func verifySignature(t *testing.T, r *http.Request) {
	t.Helper()
	date := r.Header.Get("Date")
	want := Sign(r.Method, r.URL.Path, r.URL.RawQuery, "cid", "secret", date, "hex")
	if got := r.Header.Get("X-Auth-Signature"); got != want {
		t.Errorf("signature mismatch: got %s want %s", got, want)
	}
}

func TestClientListPartners(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		verifySignature(t, r)
		if r.URL.Path != "/v1/partners" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":"35","name":"Shop","commission":"2%-4%"},{"id":"7","name":"Books","commission":"5%"}]}`))
	})

	partners, err := client.ListPartners(context.Background())
	if err != nil {
		t.Fatalf("list partners failed: %v", err)
	}
	if len(partners) != 2 || partners[0].ID != "35" || partners[0].Commission != "2%-4%" {
		t.Fatalf("unexpected partners: %+v", partners)
	}
}

func TestClientCommissionStatsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		verifySignature(t, r)
		q := r.URL.Query()
		if q.Get("partner_id") != "35" || q.Get("date_start") != "2026-02-01" || q.Get("date_end") != "2026-02-28" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":[{"partner_id":"35","orders":3,"commission":"4%","amount":12.5}]}`))
	})

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	stats, err := client.CommissionStats(context.Background(), "35", from, to)
	if err != nil {
		t.Fatalf("commission stats failed: %v", err)
	}
	if len(stats) != 1 || stats[0].Orders != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestClientDeepLink(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("subid") != "u-1" {
			t.Errorf("subid missing")
		}
		_, _ = w.Write([]byte(`{"link":"https://go.example.com/abc"}`))
	})
	link, err := client.DeepLink(context.Background(), "35", "u-1")
	if err != nil {
		t.Fatalf("deep link failed: %v", err)
	}
	if link != "https://go.example.com/abc" {
		t.Fatalf("unexpected link: %s", link)
	}
}

func TestClientErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/partners":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	})

	if _, err := client.ListPartners(context.Background()); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected request failed, got %v", err)
	}
	if _, err := client.CommissionStats(context.Background(), "", time.Time{}, time.Time{}); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected response invalid, got %v", err)
	}

	unconfigured := NewClient(&Config{}, nil)
	if _, err := unconfigured.ListPartners(context.Background()); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid, got %v", err)
	}
}

func TestClientGetPartnerNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/partners/35" {
			_, _ = w.Write([]byte(`{"name":"Shop","commission":"4%-8%"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	partner, err := client.GetPartner(context.Background(), "35")
	if err != nil {
		t.Fatalf("get partner failed: %v", err)
	}
	if partner.ID != "35" || partner.Commission != "4%-8%" {
		t.Fatalf("unexpected partner: %+v", partner)
	}
	if _, err := client.GetPartner(context.Background(), "404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
