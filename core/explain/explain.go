// Package explain renders risk assessments into ranked, human-readable
// delay reasons. It has no decision authority: it reads an assessment and
// attributes every point, nothing more.
package explain

import (
	"fmt"
	"sort"

	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scoring"
)

// tieBreak fixes the order of equally-contributing factors so explanations
// are reproducible.
var tieBreak = map[model.Factor]int{
	model.FactorAddress:  0,
	model.FactorWeather:  1,
	model.FactorArea:     2,
	model.FactorCOD:      3,
	model.FactorWeight:   4,
	model.FactorPriority: 5,
}

var phrases = map[model.Factor]string{
	model.FactorAddress:  "address is hard to locate; confirmation may be needed",
	model.FactorWeather:  "forecast conditions slow the last mile",
	model.FactorArea:     "destination area has difficult access",
	model.FactorCOD:      "cash on delivery raises the failure risk",
	model.FactorWeight:   "heavy shipment limits vehicle options",
	model.FactorPriority: "priority handling offsets part of the risk",
}

// Reason is one ranked entry in a delay explanation.
type Reason struct {
	Factor    model.Factor `json:"factor"`
	Magnitude int          `json:"magnitude"`
	Phrase    string       `json:"phrase"`
}

// Hint states the minimum improvement on one factor that would move the
// shipment into the next-lower risk bucket.
type Hint struct {
	Factor model.Factor `json:"factor"`
	Needed int          `json:"needed"`
	Phrase string       `json:"phrase"`
}

// Explanation is the rendered breakdown of a risk assessment.
type Explanation struct {
	Bucket  model.RiskBucket `json:"bucket"`
	Summary string           `json:"summary"`
	Reasons []Reason         `json:"reasons"`
	Hints   []Hint           `json:"hints,omitempty"`
}

// Phrases returns the ranked reason phrases, for notification payloads.
func (e Explanation) Phrases() []string {
	out := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		out[i] = r.Phrase
	}
	return out
}

// Explain ranks the assessment's factors by contribution, descending, with
// ties broken by the fixed factor order.
func Explain(a model.RiskAssessment, cfg scoring.Config) Explanation {
	reasons := make([]Reason, 0, len(a.Contributions))
	for f, c := range a.Contributions {
		if c == 0 {
			continue
		}
		reasons = append(reasons, Reason{Factor: f, Magnitude: c, Phrase: phrases[f]})
	}
	sort.Slice(reasons, func(i, j int) bool {
		if reasons[i].Magnitude != reasons[j].Magnitude {
			return reasons[i].Magnitude > reasons[j].Magnitude
		}
		return tieBreak[reasons[i].Factor] < tieBreak[reasons[j].Factor]
	})

	return Explanation{
		Bucket:  a.Bucket,
		Summary: summaryFor(a.Bucket),
		Reasons: reasons,
		Hints:   hints(a, cfg),
	}
}

func summaryFor(b model.RiskBucket) string {
	switch b {
	case model.BucketHigh:
		return "high delay risk due to multiple compounding factors"
	case model.BucketMedium:
		return "moderate delay risk due to some operational constraints"
	default:
		return "low delay risk with no major operational issues"
	}
}

// hints computes what would change the decision: for each factor large
// enough, the minimum reduction that crosses the next-lower bucket boundary.
func hints(a model.RiskAssessment, cfg scoring.Config) []Hint {
	var boundary int
	switch a.Bucket {
	case model.BucketHigh:
		boundary = cfg.HighThreshold
	case model.BucketMedium:
		boundary = cfg.MediumThreshold
	default:
		return nil
	}
	needed := a.Total - boundary + 1
	if needed <= 0 {
		return nil
	}

	var out []Hint
	for _, f := range model.CanonicalFactors {
		if a.Contributions[f] >= needed {
			out = append(out, Hint{
				Factor: f,
				Needed: needed,
				Phrase: fmt.Sprintf("reducing the %s contribution by %d would lower the risk bucket", f, needed),
			})
		}
	}
	return out
}
