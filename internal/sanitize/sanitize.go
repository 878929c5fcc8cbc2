package sanitize

import "github.com/microcosm-cc/bluemonday"

var policy *bluemonday.Policy

func init() {
	policy = bluemonday.UGCPolicy()

	// Email bodies routinely carry layout tables and inline styles.
	policy.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	policy.AllowAttrs("style").OnElements("span", "div", "p")

	policy.RequireParseableURLs(true)
	policy.AllowURLSchemes("http", "https", "mailto")
}

// HTML strips scripts and unsafe markup from provider-supplied message bodies.
func HTML(input string) string {
	return policy.Sanitize(input)
}
