package intake

import (
	"regexp"
	"strings"

	"github.com/kmehta07/lastmile/core/model"
)

// Landmark vocabulary for address confidence. A recognizable landmark is the
// strongest signal a rider can actually find the door.
var landmarkVocabulary = []string{
	"temple", "mandir", "masjid", "church",
	"school", "college", "hospital",
	"metro", "station", "bus stand",
	"market", "bazaar", "mall",
	"bank", "atm", "park",
}

// Vague phrases lower confidence when no landmark anchors them.
var vaguePhrases = []string{"near", "behind", "opposite", "beside", "next to"}

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRe      = regexp.MustCompile(`\s+`)
	houseNumRe   = regexp.MustCompile(`\b(?:house|plot|flat|h no|hno)\s*\d+\b|\b\d+[a-z]?\s*/\s*\d+\b`)
	pincodeRe    = regexp.MustCompile(`\b\d{6}\b`)
	baseScore    = 50
	minConfScore = 0
	maxConfScore = 100
)

func cleanAddress(text string) string {
	text = strings.ToLower(text)
	text = nonAlnumRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// ConfidenceScore derives an address confidence score in [0,100] from the
// address text, area type and road accessibility. It is a pure function:
// the same inputs always produce the same score.
func ConfidenceScore(address string, area model.AreaType, road model.RoadAccess) int {
	text := cleanAddress(address)

	landmarks := 0
	for _, w := range landmarkVocabulary {
		if strings.Contains(text, w) {
			landmarks++
		}
	}

	score := baseScore
	switch {
	case landmarks >= 2:
		score += 30
	case landmarks == 1:
		score += 20
	}

	if houseNumRe.MatchString(text) {
		score += 10
	}
	if pincodeRe.MatchString(text) {
		score += 10
	}

	if landmarks == 0 {
		for _, p := range vaguePhrases {
			if strings.Contains(text, p) {
				score -= 10
				break
			}
		}
	}

	switch area {
	case model.AreaOldCity:
		score -= 15
	case model.AreaRural:
		score -= 10
	}
	if road == model.RoadNarrow {
		score -= 20
	}

	if score < minConfScore {
		score = minConfScore
	}
	if score > maxConfScore {
		score = maxConfScore
	}
	return score
}
