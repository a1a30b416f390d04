// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

// pageSignals holds what the filter needs from one page's markup.
type pageSignals struct {
	trackers int
	words    int
}

// analyze parses content once and returns its tracker count and visible
// word count. link is the page's own URL, used to resolve relative
// references and to decide which hosts are first-party.
func analyze(content, link string, allowlist []string) pageSignals {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return pageSignals{}
	}

	base, err := url.Parse(link)
	if err != nil {
		base = &url.URL{}
	}
	pageHost := normalizeHost(base.Hostname())
	pageDomain := registrableDomain(pageHost)

	w := walker{hosts: make(map[string]struct{}), base: base}
	w.walk(doc)

	trackers := 0
	for host := range w.hosts {
		if host == pageHost || registrableDomain(host) == pageDomain {
			continue
		}
		if allowlisted(host, allowlist) {
			continue
		}
		trackers++
	}

	return pageSignals{trackers: trackers, words: w.words}
}

type walker struct {
	base  *url.URL
	hosts map[string]struct{}
	words int
}

func (w *walker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script":
			w.addRef(attr(n, "src"))
			return
		case "link":
			w.addRef(attr(n, "href"))
		case "style", "noscript", "iframe", "svg", "template":
			return
		}
	}

	if n.Type == html.TextNode {
		w.words += len(strings.Fields(n.Data))
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// addRef records the host a script or link element points at.
func (w *walker) addRef(ref string) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return
	}
	u, err := w.base.Parse(ref)
	if err != nil {
		return
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return
	}
	normalized, err := url.Parse(purell.NormalizeURL(u,
		purell.FlagLowercaseScheme|purell.FlagLowercaseHost|purell.FlagRemoveDefaultPort))
	if err != nil {
		return
	}
	if host := normalizeHost(normalized.Hostname()); host != "" {
		w.hosts[host] = struct{}{}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func normalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

// registrableDomain returns the eTLD+1 of host, or host itself when it has
// none (IP addresses, localhost).
func registrableDomain(host string) string {
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}

func allowlisted(host string, allowlist []string) bool {
	for _, pattern := range allowlist {
		if pattern != "" && strings.Contains(host, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
