package dedupe

import (
	"fmt"
	"math"

	"github.com/sells-group/dedupe/internal/model"
)

// Classification is the verdict for a record pair.
type Classification string

const (
	ClassDuplicate          Classification = "duplicate"
	ClassPotentialDuplicate Classification = "potential_duplicate"
	ClassDistinct           Classification = "distinct"
)

// rank orders classifications from strongest to weakest.
func (c Classification) rank() int {
	switch c {
	case ClassDuplicate:
		return 2
	case ClassPotentialDuplicate:
		return 1
	}
	return 0
}

// Similarity at or above which a field is called out as a reason.
const (
	notableNameSimilarity    = 0.80
	notableAddressSimilarity = 0.70
)

// MatchResult is the scored comparison of two records.
type MatchResult struct {
	Score          float64            `json:"score"`
	Classification Classification     `json:"classification"`
	Reasons        []string           `json:"reasons"`
	Details        []FieldMatchDetail `json:"details"`
	// Escalated is set when an exact phone match lifted the pair to
	// duplicate although the score was below the duplicate threshold.
	Escalated bool `json:"escalated,omitempty"`
}

// Score compares two records under cfg.
func Score(a, b model.Record, cfg Config) MatchResult {
	return scoreFingerprints(NewFingerprint(a), NewFingerprint(b), cfg)
}

func scoreFingerprints(a, b Fingerprint, cfg Config) MatchResult {
	details := []FieldMatchDetail{
		MatchPhone(a.Phone, b.Phone),
		MatchName(a.Name, b.Name, cfg.MinNameSimilarity),
		MatchDomain(a.Domain, b.Domain),
		MatchAddress(a.Address, b.Address, cfg.postalCap()),
	}

	var num, den float64
	for _, d := range details {
		if !d.Present {
			continue
		}
		w := cfg.weight(d.Field)
		num += w * d.Similarity
		den += w
	}
	var score float64
	if den > 0 {
		score = clamp01(num / den)
	}

	res := MatchResult{
		Score:          score,
		Classification: cfg.classify(score),
		Details:        details,
	}
	if cfg.PhoneMatchIsDuplicate && details[0].Exact && res.Classification != ClassDuplicate {
		res.Classification = ClassDuplicate
		res.Escalated = true
	}
	res.Reasons = reasons(details, res)
	return res
}

// postalCap keeps an address-only comparison across postal codes below
// the duplicate threshold.
func (c Config) postalCap() float64 {
	return min(addressPostalCap, 0.5*c.DuplicateThreshold)
}

func (c Config) weight(field string) float64 {
	switch field {
	case FieldPhone:
		return c.PhoneWeight
	case FieldName:
		return c.NameWeight
	case FieldDomain:
		return c.DomainWeight
	case FieldAddress:
		return c.AddressWeight
	}
	return 0
}

func (c Config) classify(score float64) Classification {
	switch {
	case score >= c.DuplicateThreshold:
		return ClassDuplicate
	case score >= c.PotentialDuplicateThreshold:
		return ClassPotentialDuplicate
	}
	return ClassDistinct
}

// reasons lists the notable fields in detail order. A non-distinct result
// always carries at least one reason.
func reasons(details []FieldMatchDetail, res MatchResult) []string {
	out := []string{}
	for _, d := range details {
		if !d.Present {
			continue
		}
		switch d.Field {
		case FieldPhone:
			if d.Exact {
				out = append(out, "phone numbers match exactly")
			}
		case FieldName:
			if d.Exact {
				out = append(out, "business names match exactly")
			} else if d.Similarity >= notableNameSimilarity {
				out = append(out, fmt.Sprintf("business names are %d%% similar", percent(d.Similarity)))
			}
		case FieldDomain:
			if d.Exact {
				out = append(out, fmt.Sprintf("both use the domain %s", d.Left))
			}
		case FieldAddress:
			if d.Exact {
				out = append(out, "addresses match exactly")
			} else if d.Similarity >= notableAddressSimilarity {
				out = append(out, fmt.Sprintf("addresses are %d%% similar", percent(d.Similarity)))
			}
		}
	}
	if len(out) == 0 && res.Classification != ClassDistinct {
		out = append(out, fmt.Sprintf("combined field similarity is %d%%", percent(res.Score)))
	}
	return out
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}
