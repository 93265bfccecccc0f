// Package normalize provides canonicalization helpers for tag names and URLs.
package normalize

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// trackingParams are query parameters stripped during URL canonicalization.
// Two URLs differing only in these parameters identify the same page.
//
//nolint:gochecknoglobals // Static lookup table for URL canonicalization
var trackingParams = map[string]bool{
	"fbclid":      true,
	"gclid":       true,
	"dclid":       true,
	"msclkid":     true,
	"igshid":      true,
	"mc_cid":      true,
	"mc_eid":      true,
	"ref":         true,
	"ref_src":     true,
	"spm":         true,
	"_hsenc":      true,
	"_hsmi":       true,
	"vero_id":     true,
	"yclid":       true,
	"twclid":      true,
	"mkt_tok":     true,
	"s_cid":       true,
	"gbraid":      true,
	"wbraid":      true,
	"_openstat":   true,
	"si":          true,
	"share_id":    true,
	"ttclid":      true,
	"oly_anon_id": true,
	"oly_enc_id":  true,
}

//nolint:gochecknoglobals // Case folder is immutable and safe for concurrent use
var folder = cases.Fold()

// TagName normalizes a tag name for uniqueness comparison: trimmed and
// case-folded. The stored name keeps its original casing; only comparisons
// go through this.
func TagName(name string) string {
	return folder.String(strings.TrimSpace(name))
}

// Title normalizes a display title: trimmed, with title casing applied to
// bare folder names promoted to tags during browser-bookmark import.
func Title(name string) string {
	return cases.Title(language.Und, cases.NoLower).String(strings.TrimSpace(name))
}

// CanonicalURL strips tracking query parameters and fragments from a URL.
// The result is the deduplication identity for saved tabs: saving the same
// page with different UTM decorations must resolve to one bookmark.
// Unparseable URLs are returned unchanged so they still dedup against
// byte-identical copies of themselves.
func CanonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	for param := range q {
		lower := strings.ToLower(param)
		if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""

	// Trailing slash on a bare path is not significant.
	if u.Path == "/" && u.RawQuery == "" {
		u.Path = ""
	}

	return u.String()
}

// Domain extracts the registrable host of a URL for domain grouping.
// The www prefix is dropped; invalid URLs group under the empty domain.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
