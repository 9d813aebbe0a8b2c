package source

import (
	"testing"

	"github.com/oppscan/oppscan/internal/model"
)

func TestExtractSeniority_OrderedFirstMatchWins(t *testing.T) {
	cases := []struct {
		text string
		want model.Seniority
	}{
		// "Principal" outranks "engineer" containing nothing else.
		{"Principal Engineer", model.SeniorityPrincipal},
		// Both staff and senior present: staff checked first.
		{"Staff / Senior ML Engineer", model.SeniorityStaff},
		{"Senior Machine Learning Engineer", model.SenioritySenior},
		{"Sr. Data Scientist", model.SenioritySenior},
		{"Tech Lead, ML Platform", model.SenioritySenior},
		{"Mid-level backend developer", model.SeniorityMid},
		{"Junior AI engineer", model.SeniorityJunior},
		{"Entry level role", model.SeniorityJunior},
		{"Machine Learning Engineer", model.SeniorityUnknown},
	}

	for _, tc := range cases {
		if got := ExtractSeniority(tc.text); got != tc.want {
			t.Errorf("ExtractSeniority(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestExtractSalary(t *testing.T) {
	cases := []struct {
		name string
		text string
		def  string
		want *model.SalaryRange
	}{
		{
			name: "k suffix dollars",
			text: "Compensation: $100k-$150k plus equity",
			def:  model.CurrencyUSD,
			want: &model.SalaryRange{Min: 100000, Max: 150000, Currency: model.CurrencyUSD},
		},
		{
			name: "euro with thousands separators",
			text: "€80,000 - €120,000 depending on experience",
			def:  model.CurrencyUSD,
			want: &model.SalaryRange{Min: 80000, Max: 120000, Currency: model.CurrencyEUR},
		},
		{
			name: "pounds k range",
			text: "Salary £50k - 70k",
			def:  model.CurrencyUSD,
			want: &model.SalaryRange{Min: 50000, Max: 70000, Currency: model.CurrencyGBP},
		},
		{
			name: "no symbol falls back to default",
			text: "pay range 120k-160k",
			def:  model.CurrencyGBP,
			want: &model.SalaryRange{Min: 120000, Max: 160000, Currency: model.CurrencyGBP},
		},
		{
			name: "no salary present",
			text: "We offer competitive compensation",
			def:  model.CurrencyUSD,
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractSalary(tc.text, tc.def)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("got %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("got nil, want a range")
			}
			if *got != *tc.want {
				t.Errorf("got %+v, want %+v", *got, *tc.want)
			}
		})
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny("Senior LLM Engineer", aimlKeywords) {
		t.Error("LLM role should match the AI/ML heuristic")
	}
	if ContainsAny("Frontend React Developer", []string{"llm", "mlops"}) {
		t.Error("frontend role should not match")
	}
	// Case-insensitive.
	if !ContainsAny("REMOTE (worldwide)", remoteKeywords) {
		t.Error("uppercase REMOTE should match")
	}
}

func TestStripHTML(t *testing.T) {
	in := "<p>Acme &amp; Co |  Senior <b>ML</b> Engineer</p>"
	want := "Acme & Co | Senior ML Engineer"
	if got := stripHTML(in); got != want {
		t.Errorf("stripHTML = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncate("hello world", 5); got != "hello" {
		t.Errorf("truncate = %q, want %q", got, "hello")
	}
}
