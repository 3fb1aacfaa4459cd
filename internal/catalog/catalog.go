// Package catalog holds the fixed style and size enumerations offered by the
// service. Unknown keys resolve to an explicit default variant rather than an
// error; existing clients rely on that behavior.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StyleKey selects an art-style suffix appended to generation prompts.
type StyleKey string

const (
	StyleWesternAnimation StyleKey = "western-animation"
	StyleJapaneseAnime    StyleKey = "japanese-anime"
	StyleKoreanManhwa     StyleKey = "korean-manhwa"
	StyleComicBook        StyleKey = "comic-book"
	StyleCartoonCute      StyleKey = "cartoon-cute"
	StyleVintageCartoon   StyleKey = "vintage-cartoon"

	// DefaultStyle is the documented fallback for unknown style keys.
	DefaultStyle = StyleWesternAnimation
)

// Style pairs a style key with the prompt suffix sent to the generation model.
type Style struct {
	Key    StyleKey
	Suffix string
}

var styles = map[StyleKey]Style{
	StyleWesternAnimation: {StyleWesternAnimation, "in the style of modern western animation, vibrant colors, clean lines, expressive characters, Disney Pixar style"},
	StyleJapaneseAnime:    {StyleJapaneseAnime, "anime art style, detailed eyes, manga-inspired, dynamic composition, cel-shaded, Studio Ghibli quality"},
	StyleKoreanManhwa:     {StyleKoreanManhwa, "Korean webtoon art style, soft shading, modern aesthetic, detailed linework, digital painting"},
	StyleComicBook:        {StyleComicBook, "American comic book style, bold outlines, halftone dots, dynamic action poses, Marvel DC style"},
	StyleCartoonCute:      {StyleCartoonCute, "cute chibi style, kawaii aesthetic, pastel colors, simplified features, adorable, big eyes"},
	StyleVintageCartoon:   {StyleVintageCartoon, "retro cartoon style, 1930s animation aesthetic, rubber hose animation, classic Disney"},
}

// ResolveStyle maps a raw style key to its catalog entry, falling back to
// DefaultStyle when the key is unknown.
func ResolveStyle(key string) Style {
	if s, ok := styles[StyleKey(key)]; ok {
		return s
	}
	return styles[DefaultStyle]
}

var titleCaser = cases.Title(language.Und)

// Label returns a human-readable name for the style, e.g. "Japanese Anime".
func (s Style) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(s.Key), "-", " "))
}

// SizeKey selects output dimensions and the credit cost of a generation.
type SizeKey string

const (
	SizeStandard SizeKey = "standard"
	SizeLarge    SizeKey = "large"
	SizePremium  SizeKey = "premium"

	// DefaultSize is the documented fallback for unknown size keys.
	DefaultSize = SizeStandard
)

// Size describes one pricing tier. HighQuality marks the tier that runs the
// model with more inference steps.
type Size struct {
	Key         SizeKey
	Width       int
	Height      int
	Credits     int
	HighQuality bool
}

var sizes = map[SizeKey]Size{
	SizeStandard: {Key: SizeStandard, Width: 1024, Height: 1024, Credits: 1},
	SizeLarge:    {Key: SizeLarge, Width: 1024, Height: 1536, Credits: 2},
	SizePremium:  {Key: SizePremium, Width: 1024, Height: 1024, Credits: 3, HighQuality: true},
}

// ResolveSize maps a raw size key to its catalog entry, falling back to
// DefaultSize (1 credit) when the key is unknown.
func ResolveSize(key string) Size {
	if s, ok := sizes[SizeKey(key)]; ok {
		return s
	}
	return sizes[DefaultSize]
}
