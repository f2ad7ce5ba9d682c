package ocr

import "regexp"

var (
	reDeclNumber  = regexp.MustCompile(`\d{5}-\d{2}-\d{6}[A-Z]`)
	reLineMarker  = regexp.MustCompile(`란\s*번\s*호`)
	reItemTag     = regexp.MustCompile(`(?i)\(\s*NO\s*\.\s*\d+\s*\)`)
	reQtyWithUnit = regexp.MustCompile(`\d+\s*\(\s*[A-Za-z]{2,3}\s*\)`)
)

// heuristicConfidence scores OCR output by how many declaration landmarks survived recognition.
func heuristicConfidence(txt string) float32 {
	score := float32(0.2)
	if reDeclNumber.MatchString(txt) {
		score += 0.2
	}
	if reLineMarker.MatchString(txt) {
		score += 0.25
	}
	if reItemTag.MatchString(txt) {
		score += 0.2
	}
	if reQtyWithUnit.MatchString(txt) {
		score += 0.1
	}
	if len(txt) > 200 {
		score += 0.05
	}
	if score > 1 {
		score = 1
	}
	return score
}
