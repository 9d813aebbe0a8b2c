package source

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/oppscan/oppscan/internal/model"
)

// aimlKeywords is the relevance heuristic applied by adapters whose
// backing board is too broad to filter server-side.
var aimlKeywords = []string{
	"ai", "ml", "machine learning", "deep learning",
	"nlp", "llm", "gpt", "claude", "openai",
	"artificial intelligence", "neural", "model",
	"data science", "mlops", "langchain",
}

// remoteKeywords mark a free-text listing as remote.
var remoteKeywords = []string{"remote", "anywhere", "distributed", "wfh", "work from home"}

// seniorityRank is the ordered keyword-to-level mapping used to extract
// seniority from free text. More senior keywords are checked first; the
// first match wins.
var seniorityRank = []struct {
	level    model.Seniority
	keywords []string
}{
	{model.SeniorityPrincipal, []string{"principal"}},
	{model.SeniorityStaff, []string{"staff"}},
	{model.SenioritySenior, []string{"senior", "sr.", "lead"}},
	{model.SeniorityMid, []string{"mid-level", "mid level", "intermediate"}},
	{model.SeniorityJunior, []string{"junior", "jr.", "entry"}},
}

// ContainsAny reports whether text contains any of the keywords
// (case-insensitive substring match).
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractSeniority maps free text to a seniority level using the ordered
// rank table. Returns SeniorityUnknown when nothing matches.
func ExtractSeniority(text string) model.Seniority {
	lower := strings.ToLower(text)
	for _, rank := range seniorityRank {
		for _, kw := range rank.keywords {
			if strings.Contains(lower, kw) {
				return rank.level
			}
		}
	}
	return model.SeniorityUnknown
}

// salaryRegex matches ranges like "$100k-$150k", "€80,000 - €120,000",
// or "£50k - 70k".
var salaryRegex = regexp.MustCompile(`([$€£])?\s*([\d,]+)\s*[kK]?\s*-\s*([$€£])?\s*([\d,]+)\s*[kK]?`)

// ExtractSalary parses a salary range out of free text. "k"-suffixed
// values are normalized by ×1000, and the currency is detected from the
// symbol, falling back to defaultCurrency. Returns nil if no range is
// present.
func ExtractSalary(text, defaultCurrency string) *model.SalaryRange {
	m := salaryRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	min, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil {
		return nil
	}
	max, err := strconv.ParseFloat(strings.ReplaceAll(m[4], ",", ""), 64)
	if err != nil {
		return nil
	}

	matched := m[0]
	if strings.ContainsAny(matched, "kK") {
		min *= 1000
		max *= 1000
	}

	currency := defaultCurrency
	switch {
	case strings.Contains(matched, "€"):
		currency = model.CurrencyEUR
	case strings.Contains(matched, "£"):
		currency = model.CurrencyGBP
	case strings.Contains(matched, "$"):
		currency = model.CurrencyUSD
	}

	return &model.SalaryRange{Min: min, Max: max, Currency: currency}
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// stripHTML converts an HTML or HTML-encoded string to plain text: it
// unescapes entities, strips all tags, then collapses whitespace.
func stripHTML(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

// truncate limits a description to n runes for storage.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// firstURL returns the first http(s) URL in text, or "".
var urlRegex = regexp.MustCompile(`https?://[^\s<>"]+`)

func firstURL(text string) string {
	return urlRegex.FindString(text)
}
