// Package source resolves a deck source string to raw bytes: a local file
// path is read from disk, a URL is rewritten to its raw JSON endpoint when a
// known hosting site serves an HTML page instead, then fetched once.
package source

import (
	"net/url"
	"regexp"
	"strings"
)

// rewriteRule maps pages of one hosting site to their raw-content URL.
type rewriteRule struct {
	host    string // substring matched against the URL host
	rewrite func(u *url.URL) (string, bool)
}

var (
	githubBlobPath = regexp.MustCompile(`^/([^/]+)/([^/]+)/blob/(.+)$`)
	gistPagePath   = regexp.MustCompile(`^/([^/]+)/([0-9a-fA-F]+)/?$`)
	pastebinPath   = regexp.MustCompile(`^/([A-Za-z0-9]+)/?$`)
	drivePath      = regexp.MustCompile(`^/file/d/([^/]+)`)
)

// rewriteRules is checked in order and at most one rule is applied.
var rewriteRules = []rewriteRule{
	{
		host: "gist.github.com",
		rewrite: func(u *url.URL) (string, bool) {
			m := gistPagePath.FindStringSubmatch(u.Path)
			if m == nil {
				return "", false
			}
			return "https://gist.githubusercontent.com/" + m[1] + "/" + m[2] + "/raw", true
		},
	},
	{
		host: "github.com",
		rewrite: func(u *url.URL) (string, bool) {
			m := githubBlobPath.FindStringSubmatch(u.Path)
			if m == nil {
				return "", false
			}
			return "https://raw.githubusercontent.com/" + m[1] + "/" + m[2] + "/" + m[3], true
		},
	},
	{
		host: "pastebin.com",
		rewrite: func(u *url.URL) (string, bool) {
			m := pastebinPath.FindStringSubmatch(u.Path)
			if m == nil || m[1] == "raw" {
				return "", false
			}
			return "https://pastebin.com/raw/" + m[1], true
		},
	},
	{
		host: "dropbox.com",
		rewrite: func(u *url.URL) (string, bool) {
			q := u.Query()
			if q.Get("dl") == "1" {
				return "", false
			}
			q.Set("dl", "1")
			out := *u
			out.RawQuery = q.Encode()
			return out.String(), true
		},
	},
	{
		host: "drive.google.com",
		rewrite: func(u *url.URL) (string, bool) {
			m := drivePath.FindStringSubmatch(u.Path)
			if m == nil {
				return "", false
			}
			return "https://drive.google.com/uc?export=download&id=" + m[1], true
		},
	},
}

// RewriteURL prefixes https:// when raw has no scheme, then applies the
// first matching host rule. URLs no rule applies to are returned unchanged.
func RewriteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	for _, rule := range rewriteRules {
		if !strings.Contains(host, rule.host) {
			continue
		}
		if out, ok := rule.rewrite(u); ok {
			return out
		}
		// a matching host whose path fits no pattern is left alone
		return raw
	}
	return raw
}

// IsRemote reports whether src names a web resource rather than a local
// file. Strings without a scheme count as remote when their first path
// segment looks like a host name.
func IsRemote(src string) bool {
	src = strings.TrimSpace(src)
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return true
	}
	if strings.Contains(src, "://") {
		return false
	}
	return looksLikeHost(src)
}

func looksLikeHost(src string) bool {
	first, _, _ := strings.Cut(src, "/")
	if strings.ContainsAny(first, `\:`) || strings.HasPrefix(first, ".") {
		return false
	}
	dot := strings.LastIndex(first, ".")
	if dot <= 0 || dot == len(first)-1 {
		return false
	}
	// deck.json, list.yaml and friends are files, not hosts
	switch strings.ToLower(first[dot+1:]) {
	case "json", "txt", "yaml", "yml", "md":
		return false
	}
	return true
}
