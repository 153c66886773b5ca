package report

import (
	"fmt"
)

const (
	minScore = 0
	maxScore = 100
)

func clamp(name string, v *float64, warnings *[]string) {
	switch {
	case *v < minScore:
		*warnings = append(*warnings, fmt.Sprintf("%s %g clamped to %d", name, *v, minScore))
		*v = minScore
	case *v > maxScore:
		*warnings = append(*warnings, fmt.Sprintf("%s %g clamped to %d", name, *v, maxScore))
		*v = maxScore
	}
}

// Normalize clamps the scores and distribution values into [0, 100] and
// fills nil lists. It returns one warning per adjusted value.
func (r *FinalReport) Normalize() []string {
	var warnings []string
	clamp("patentabilityScore", &r.PatentabilityScore, &warnings)
	clamp("marketPotential", &r.MarketPotential, &warnings)
	clamp("riskAssessment", &r.RiskAssessment, &warnings)
	for i := range r.ContributorInsights.ContributionDistribution {
		d := &r.ContributorInsights.ContributionDistribution[i]
		clamp("contributionDistribution["+d.Name+"]", &d.Value, &warnings)
	}
	if r.NextSteps == nil {
		r.NextSteps = []string{}
	}
	if r.ContributorInsights.KeyExpertiseAreas == nil {
		r.ContributorInsights.KeyExpertiseAreas = []string{}
	}
	if r.ContributorInsights.ContributionDistribution == nil {
		r.ContributorInsights.ContributionDistribution = []NamedValue{}
	}
	return warnings
}
