package scoring

import "github.com/lox/hangorburn/internal/models"

// Disqualification is the outcome of evaluating a rule list for one hour.
type Disqualification struct {
	Hard    *Rule
	Soft    []Rule
	Penalty float64
}

// Disqualified reports whether a hard rule fired.
func (d Disqualification) Disqualified() bool {
	return d.Hard != nil
}

// Codes lists the codes of every rule that fired.
func (d Disqualification) Codes() []string {
	if d.Hard != nil {
		return []string{d.Hard.Code}
	}
	codes := make([]string, 0, len(d.Soft))
	for _, r := range d.Soft {
		codes = append(codes, r.Code)
	}
	return codes
}

// Evaluate runs the ordered rule list. The first matching hard rule stops
// evaluation; soft rules accumulate their penalties.
func Evaluate(rules []Rule, obs models.HourlyObservation) Disqualification {
	var d Disqualification
	for i := range rules {
		r := rules[i]
		if r.Predicate == nil || !r.Predicate(obs) {
			continue
		}
		if r.Severity == Hard {
			return Disqualification{Hard: &r}
		}
		d.Soft = append(d.Soft, r)
		d.Penalty += r.Penalty
	}
	return d
}
