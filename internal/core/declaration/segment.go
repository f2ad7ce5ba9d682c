package declaration

import (
	"regexp"

	"github.com/joseph-ayodele/foc-extractor/constants"
)

var (
	// (란번호/총란수 : 001/003); layouts break lines inside the marker, so whitespace is allowed anywhere.
	reLineMarker = regexp.MustCompile(`\(?\s*란\s*번\s*호\s*/\s*총\s*란\s*수\s*:?`)
	reLineIndex  = regexp.MustCompile(`^\s*(\d{3})`)
)

// SplitSegments partitions the line-preserving text on the line marker.
// Text before the first marker is header material and is dropped; no marker means no segments.
func SplitSegments(original string) []LineSegment {
	locs := reLineMarker.FindAllStringIndex(original, -1)
	if len(locs) == 0 {
		return nil
	}
	segs := make([]LineSegment, 0, len(locs))
	for i, loc := range locs {
		end := len(original)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		span := original[loc[1]:end]
		seg := LineSegment{
			Sequence:  i + 1,
			LineIndex: constants.UnconfirmedLineIndex,
			RawSpan:   span,
		}
		if m := reLineIndex.FindStringSubmatch(span); m != nil {
			seg.LineIndex = m[1]
			seg.IndexFound = true
		}
		segs = append(segs, seg)
	}
	return segs
}
