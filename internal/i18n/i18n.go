// Package i18n negotiates the page locale from Accept-Language and translates
// the fixed set of UI strings.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the locales pages are rendered in; the first is the default.
var Supported = []language.Tag{language.English, language.Korean}

var korean = map[string]string{
	"Search":               "검색",
	"Recent scores":        "최근 점수",
	"Search results":       "검색 결과",
	"Title":                "제목",
	"Score":                "점수",
	"Times":                "횟수",
	"Updated":              "갱신",
	"Average":              "평균",
	"Results":              "결과",
	"No scores yet.":       "아직 점수가 없습니다.",
	"No matching pages.":   "일치하는 페이지가 없습니다.",
	"Enter a domain name.": "도메인 이름을 입력하세요.",
}

// Translator renders UI strings for one negotiated locale.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// Negotiator picks a Translator for a request.
type Negotiator struct {
	matcher language.Matcher
	catalog catalog.Catalog
	tags    []language.Tag
}

// NewNegotiator builds a Negotiator over Supported. defaultLocale, when it
// names a supported locale, is tried first on ties and used when nothing
// matches.
func NewNegotiator(defaultLocale string) (*Negotiator, error) {
	tags := append([]language.Tag(nil), Supported...)
	if defaultLocale != "" {
		def, err := language.Parse(defaultLocale)
		if err != nil {
			return nil, fmt.Errorf("parse default locale %q: %w", defaultLocale, err)
		}
		defBase, _ := def.Base()
		idx := -1
		for i, t := range tags {
			if base, _ := t.Base(); base == defBase {
				idx = i
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("default locale %q is not supported", defaultLocale)
		}
		tags[0], tags[idx] = tags[idx], tags[0]
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, value := range korean {
		if err := b.SetString(language.Korean, key, value); err != nil {
			return nil, fmt.Errorf("register %q: %w", key, err)
		}
	}
	return &Negotiator{
		matcher: language.NewMatcher(tags),
		catalog: b,
		tags:    tags,
	}, nil
}

// FromHeader negotiates against an Accept-Language header value. An empty or
// malformed header yields the default locale.
func (n *Negotiator) FromHeader(acceptLanguage string) *Translator {
	tag := n.tags[0]
	if desired, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(desired) > 0 {
		_, idx, conf := n.matcher.Match(desired...)
		if conf != language.No {
			tag = n.tags[idx]
		}
	}
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(n.catalog)),
	}
}

// Lang is the BCP 47 code of the negotiated locale.
func (t *Translator) Lang() string {
	return t.tag.String()
}

// T translates key, returning key itself when no translation exists.
func (t *Translator) T(key string) string {
	return t.printer.Sprintf(key)
}
