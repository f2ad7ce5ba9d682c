package declaration

import (
	"regexp"
	"strings"
)

// (NO.01), tolerant of OCR spacing. Tags are matched case-sensitively.
var reItemTag = regexp.MustCompile(`\(\s*NO\s*\.\s*\d+\s*\)`)

// SplitItems splits a segment's whitespace-collapsed span into tagged sub-items.
func SplitItems(seg LineSegment) []Item {
	return pairWalk(splitKeep(collapseSpace(seg.RawSpan), reItemTag))
}

// splitKeep splits s on re and keeps the separators:
// [prefix, sep, chunk, sep, chunk, ...]. The result always has odd length.
func splitKeep(s string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(s, -1)
	parts := make([]string, 0, 2*len(locs)+1)
	prev := 0
	for _, loc := range locs {
		parts = append(parts, s[prev:loc[0]], s[loc[0]:loc[1]])
		prev = loc[1]
	}
	return append(parts, s[prev:])
}

type walkState int

const (
	expectTag walkState = iota
	expectContent
)

// pairWalk consumes a [prefix, tag, content, tag, content, ...] stream.
// The prefix is never an item. A trailing tag with no content part still yields an item.
func pairWalk(parts []string) []Item {
	if len(parts) < 2 {
		return nil
	}
	items := make([]Item, 0, len(parts)/2)
	state := expectTag
	var cur Item
	for _, p := range parts[1:] {
		switch state {
		case expectTag:
			cur = Item{Tag: strings.TrimSpace(p)}
			state = expectContent
		case expectContent:
			cur.Content = strings.TrimSpace(p)
			items = append(items, cur)
			state = expectTag
		}
	}
	if state == expectContent {
		items = append(items, cur)
	}
	return items
}
