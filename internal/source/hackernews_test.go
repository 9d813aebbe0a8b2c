package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oppscan/oppscan/internal/model"
	"github.com/oppscan/oppscan/internal/ratelimit"
)

func newHNTestSource(t *testing.T, handler http.Handler) *HackerNewsSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src := NewHackerNewsSource(srv.Client(), ratelimit.NewHostLimiter(0))
	src.searchURL = srv.URL + "/search"
	src.itemURL = srv.URL + "/items/%s"
	return src
}

const hnItemPayload = `{
	"children": [
		{
			"id": 101,
			"text": "<b>FinML Bank</b> | Senior ML Engineer | REMOTE | $150k-$180k<p>We build LLM fraud detection. Apply at https:&#x2F;&#x2F;finml.example&#x2F;jobs</p>"
		},
		{
			"id": 102,
			"text": "<b>OnsiteCo</b> | Machine Learning Engineer | NYC office only"
		},
		{
			"id": 103,
			"text": "<b>WebShop</b> | Frontend Developer | Remote"
		}
	]
}`

func TestHackerNews_FetchParsesComments(t *testing.T) {
	src := newHNTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/search"):
			w.Write([]byte(`{"hits": [{"objectID": "900"}]}`))
		case strings.HasPrefix(r.URL.Path, "/items/900"):
			w.Write([]byte(hnItemPayload))
		default:
			http.NotFound(w, r)
		}
	}))

	listings, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Comment 102 is not remote, 103 is not AI/ML.
	if len(listings) != 1 {
		t.Fatalf("listings = %d, want 1", len(listings))
	}

	l := listings[0]
	if l.Company != "FinML Bank" {
		t.Errorf("company = %q", l.Company)
	}
	if l.Role != "Senior ML Engineer" {
		t.Errorf("role = %q", l.Role)
	}
	if l.Location != model.LocationRemote {
		t.Errorf("location = %q", l.Location)
	}
	if l.Seniority != model.SenioritySenior {
		t.Errorf("seniority = %q", l.Seniority)
	}
	if l.Salary == nil || l.Salary.Min != 150000 || l.Salary.Max != 180000 || l.Salary.Currency != model.CurrencyUSD {
		t.Errorf("salary = %+v", l.Salary)
	}
	if l.URL != "https://finml.example/jobs" {
		t.Errorf("url = %q", l.URL)
	}
	if len(l.Sources) != 1 || l.Sources[0] != "hackernews" {
		t.Errorf("sources = %v", l.Sources)
	}
}

func TestHackerNews_FallbackPermalink(t *testing.T) {
	payload := `{"children": [{"id": 77, "text": "<b>Acme AI</b> | ML Engineer | fully remote, no link here"}]}`
	src := newHNTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/search") {
			w.Write([]byte(`{"hits": [{"objectID": "1"}]}`))
			return
		}
		w.Write([]byte(payload))
	}))

	listings, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("listings = %d, want 1", len(listings))
	}
	if want := "https://news.ycombinator.com/item?id=77"; listings[0].URL != want {
		t.Errorf("url = %q, want %q", listings[0].URL, want)
	}
}

func TestHackerNews_SearchErrorPropagates(t *testing.T) {
	src := newHNTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := src.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error %v does not wrap HTTPError", err)
	}
	if httpErr.StatusCode != 429 || httpErr.RetryAfter != 30*time.Second {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}
