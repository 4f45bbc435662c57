package link

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/webgrab/webgrab/log"
)

// Kind classifies an href/src reference before resolution. Resolution is a
// pure function per kind, so classification happens exactly once.
type Kind int

const (
	// KindAbsolute is a reference that already carries a scheme
	// (https://..., but also mailto: and tel:). Used as-is.
	KindAbsolute Kind = iota
	// KindPathRelative is anything without a scheme (/page3, page3,
	// //host/path). Resolved against the base URL.
	KindPathRelative
	// KindFragmentOnly is a reference starting with '#', pointing at an
	// anchor within the current page.
	KindFragmentOnly
	// KindQueryOnly is a reference starting with '?', pointing at the
	// current page with different query parameters.
	KindQueryOnly
)

// Link is a resolved absolute target address. Relative is true when the
// original reference on the page did not carry a scheme.
type Link struct {
	URL      string
	Relative bool
}

// ImageRef is an (alt text, resolved URL) pair sourced from an <img> element.
// Src preserves the reference as it appeared in the markup, for callers that
// rewrite the original HTML.
type ImageRef struct {
	Alt string
	URL string
	Src string
}

// Classify determines the Kind of a raw reference string.
func Classify(ref string) Kind {
	switch {
	case strings.HasPrefix(ref, "#"):
		return KindFragmentOnly
	case strings.HasPrefix(ref, "?"):
		return KindQueryOnly
	}

	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return KindAbsolute
	}

	return KindPathRelative
}

// Resolve turns a classified reference into an absolute URL string.
// Fragment-only and query-only references concatenate onto the base URL,
// absolute references pass through unchanged, and path-relative references
// resolve with standard URL-resolution rules.
func Resolve(kind Kind, ref string, base *url.URL) (string, error) {
	switch kind {
	case KindFragmentOnly, KindQueryOnly:
		b := base.String()
		if base.Path == "" {
			b += "/"
		}
		return b + ref, nil
	case KindAbsolute:
		return ref, nil
	default:
		rel, err := url.Parse(ref)
		if err != nil {
			return "", errors.Wrapf(err, "unresolvable reference %q", ref)
		}
		return base.ResolveReference(rel).String(), nil
	}
}

// Extractor enumerates link and image references from a parsed document,
// resolving everything against a single base URL.
type Extractor struct {
	log  zerolog.Logger
	base *url.URL
}

// NewExtractor creates an Extractor for a page fetched from base.
func NewExtractor(base *url.URL) *Extractor {
	return &Extractor{
		log:  log.NewLogger("link"),
		base: base,
	}
}

// Links walks all anchors in document order and returns their resolved
// targets, deduplicated preserving first-seen order. When includeRelative is
// false, references that had no scheme of their own are dropped. Malformed
// references are skipped, never surfaced as errors.
func (e *Extractor) Links(doc *goquery.Document, includeRelative bool) []Link {
	seen := make(map[string]struct{})
	links := make([]Link, 0)

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}

		kind := Classify(href)
		resolved, err := Resolve(kind, href, e.base)
		if err != nil {
			e.log.Debug().Str("href", href).Err(err).Msg("skipping unresolvable reference")
			return
		}

		l := Link{URL: resolved, Relative: kind != KindAbsolute}
		if !includeRelative && l.Relative {
			return
		}

		if _, dup := seen[l.URL]; dup {
			return
		}
		seen[l.URL] = struct{}{}

		links = append(links, l)
	})

	return links
}

// Images walks all <img> elements in document order and returns their alt
// text and resolved source URL. Missing alt text defaults to "Image".
func (e *Extractor) Images(doc *goquery.Document) []ImageRef {
	images := make([]ImageRef, 0)

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			return
		}

		resolved, err := Resolve(Classify(src), src, e.base)
		if err != nil {
			e.log.Debug().Str("src", src).Err(err).Msg("skipping unresolvable image source")
			return
		}

		alt := s.AttrOr("alt", "Image")
		if alt == "" {
			alt = "Image"
		}

		images = append(images, ImageRef{Alt: alt, URL: resolved, Src: src})
	})

	return images
}
