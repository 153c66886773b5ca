package report

import (
	"fmt"
	"strings"
)

// FinalReportMarkdown renders the final report for export. Attorneys and
// patents are optional sections, omitted when empty.
func FinalReportMarkdown(r FinalReport, attorneys []Attorney, patents []SimilarPatent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Final Patent Report\n\n")

	fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n", strings.TrimSpace(r.ExecutiveSummary))

	fmt.Fprintf(&b, "## Key Metrics\n\n")
	fmt.Fprintf(&b, "| Metric | Score |\n|---|---|\n")
	fmt.Fprintf(&b, "| Patentability Score | %.0f%% |\n", r.PatentabilityScore)
	fmt.Fprintf(&b, "| Market Potential | %.0f%% |\n", r.MarketPotential)
	fmt.Fprintf(&b, "| Risk Assessment | %.0f%% |\n\n", r.RiskAssessment)

	fmt.Fprintf(&b, "## Next Steps\n\n")
	if len(r.NextSteps) == 0 {
		fmt.Fprintf(&b, "- None listed.\n")
	}
	for i, step := range r.NextSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	b.WriteString("\n")

	ci := r.ContributorInsights
	fmt.Fprintf(&b, "## Contributor Insights\n\n")
	fmt.Fprintf(&b, "- Total contributors: %.0f\n", ci.TotalContributors)
	if len(ci.KeyExpertiseAreas) > 0 {
		fmt.Fprintf(&b, "- Key expertise areas: %s\n", strings.Join(ci.KeyExpertiseAreas, ", "))
	}
	b.WriteString("\n")
	if len(ci.ContributionDistribution) > 0 {
		fmt.Fprintf(&b, "| Contributor | Share |\n|---|---|\n")
		for _, d := range ci.ContributionDistribution {
			fmt.Fprintf(&b, "| %s | %.0f%% |\n", escapeCell(d.Name), d.Value)
		}
		b.WriteString("\n")
	}

	t := r.TimelineEstimate
	fmt.Fprintf(&b, "## Timeline Estimate\n\n")
	fmt.Fprintf(&b, "- Research and development: %g months\n", t.ResearchAndDevelopment)
	fmt.Fprintf(&b, "- Patent application: %g months\n", t.PatentApplication)
	fmt.Fprintf(&b, "- Market entry: %g months\n\n", t.MarketEntry)

	be := r.BudgetEstimate
	fmt.Fprintf(&b, "## Budget Estimate\n\n")
	fmt.Fprintf(&b, "- Research and development: %s\n", Dollars(be.ResearchAndDevelopment))
	fmt.Fprintf(&b, "- Patent fees: %s\n", Dollars(be.PatentFees))
	fmt.Fprintf(&b, "- Legal fees: %s\n", Dollars(be.LegalFees))
	fmt.Fprintf(&b, "- **Total: %s**\n\n", Dollars(be.Total()))

	if len(attorneys) > 0 {
		fmt.Fprintf(&b, "## Recommended Attorneys\n\n")
		for _, a := range attorneys {
			fmt.Fprintf(&b, "### %s\n\n", a.Name)
			fmt.Fprintf(&b, "- Specialty: %s\n", a.Specialty)
			fmt.Fprintf(&b, "- Location: %s\n", a.Location)
			fmt.Fprintf(&b, "- Experience: %.0f years\n", a.YearsOfExperience)
			fmt.Fprintf(&b, "- Budget range: %s\n", a.BudgetRange.String())
			fmt.Fprintf(&b, "- Contact: %s\n\n", a.Contact)
			if a.Summary != "" {
				fmt.Fprintf(&b, "%s\n\n", a.Summary)
			}
		}
	}

	if len(patents) > 0 {
		fmt.Fprintf(&b, "## Related Patents\n\n")
		for _, p := range patents {
			fmt.Fprintf(&b, "### %s (%s)\n\n", p.Title, p.PatentNumber)
			fmt.Fprintf(&b, "- Date: %s\n- Assignee: %s\n- Similarity: %.0f%%\n\n", p.Date, p.Assignee, p.Similarity*100)
			if p.Abstract != "" {
				fmt.Fprintf(&b, "%s\n\n", p.Abstract)
			}
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Dollars formats a whole-dollar amount with thousands separators.
func Dollars(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func (br *BudgetRange) String() string {
	if br == nil {
		return "Not listed"
	}
	return Dollars(br.Start) + " - " + Dollars(br.End)
}
