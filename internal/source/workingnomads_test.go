package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oppscan/oppscan/internal/model"
)

const wnListingPage = `<!DOCTYPE html>
<html><body>
<ul class="job-list">
  <li>
    <h3>Senior Machine Learning Engineer</h3>
    <h4>Nomad Labs</h4>
    <p>Build recommendation models for a fully remote team.</p>
    <span class="salary">$140k - $170k</span>
    <a href="/jobs/senior-ml-engineer">View</a>
  </li>
  <li>
    <h3>Accountant</h3>
    <h4>Ledger Co</h4>
    <p>Monthly close and reporting.</p>
    <a href="/jobs/accountant">View</a>
  </li>
  <li>
    <h3>AI Engineer</h3>
    <p>Ship LLM features.</p>
    <a href="/jobs/ai-engineer">View</a>
  </li>
</ul>
</body></html>`

func newWNTestSource(t *testing.T, handler http.Handler) *WorkingNomadsSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src := NewWorkingNomadsSource(5 * time.Second)
	src.baseURL = srv.URL + "/jobs"
	return src
}

func TestWorkingNomadsFetch(t *testing.T) {
	src := newWNTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(wnListingPage))
	}))

	listings, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2 (accountant card filtered): %+v", len(listings), listings)
	}

	ml := listings[0]
	if ml.Company != "Nomad Labs" {
		t.Errorf("company = %q, want Nomad Labs", ml.Company)
	}
	if ml.Role != "Senior Machine Learning Engineer" {
		t.Errorf("role = %q", ml.Role)
	}
	if ml.Seniority != model.SenioritySenior {
		t.Errorf("seniority = %q, want senior", ml.Seniority)
	}
	if ml.Location != model.LocationRemote {
		t.Errorf("location = %q, want remote", ml.Location)
	}
	if ml.Salary == nil || ml.Salary.Min != 140000 || ml.Salary.Max != 170000 || ml.Salary.Currency != model.CurrencyUSD {
		t.Errorf("salary = %+v", ml.Salary)
	}
	if !strings.HasSuffix(ml.URL, "/jobs/senior-ml-engineer") {
		t.Errorf("url = %q, want absolute link to the card href", ml.URL)
	}
	if len(ml.Sources) != 1 || ml.Sources[0] != "workingnomads" {
		t.Errorf("sources = %v", ml.Sources)
	}

	// Card without a company element falls back to the placeholder.
	if listings[1].Company != "Unknown Company" {
		t.Errorf("company fallback = %q", listings[1].Company)
	}
	if listings[1].Salary != nil {
		t.Errorf("salary = %+v, want nil", listings[1].Salary)
	}
}

func TestWorkingNomadsFetchHTTPError(t *testing.T) {
	src := newWNTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 503 response")
	}
}
