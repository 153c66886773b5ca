// Package prompts builds the text sent to the chat model. Every builder is a
// pure function of its inputs.
package prompts

import (
	"fmt"
	"strings"

	"github.com/joelkehle/patentmate/internal/wizard"
)

const (
	PatentabilitySystem = "You are a patent expert assistant providing insights on patent ability and suggestions for patent applications."
	ContributionSystem  = "You are an AI assistant specialized in analyzing patent descriptions, identifying key contributions, and potential contributors. Use the exact wording from the patent description when describing contributions."
	FinalReportSystem   = "You are an AI assistant specialized in analyzing patent reports and contributor analyses to generate comprehensive final reports."
	AbstractSystem      = "You are an AI assistant that generates concise patent abstracts."
	AttorneySystem      = "You are an AI assistant that generates attorney requirements based on patent descriptions."
)

// ContributionSchema is the response shape requested for disclosure analysis.
const ContributionSchema = `{
  "contributions": [
    {
      "description": "Brief description of the contribution"
    },
    ...
  ],
  "contributors": [
    {
      "name": "Contributor's name",
      "expertise": "Area of expertise",
      "contribution": "Specific contribution to the invention"
    },
    ...
  ]
}`

// FinalReportSchema is the response shape requested for the final report.
const FinalReportSchema = `{
  "executiveSummary": "Brief overview of the patent and its potential",
  "patentabilityScore": 0-100,
  "marketPotential": 0-100,
  "riskAssessment": 0-100,
  "nextSteps": ["Step 1", "Step 2", "Step 3"],
  "contributorInsights": {
    "totalContributors": 0,
    "keyExpertiseAreas": ["Area 1", "Area 2", "Area 3"],
    "contributionDistribution": [
      { "name": "Contributor Name", "value": 0-100 }
    ]
  },
  "timelineEstimate": {
    "researchAndDevelopment": 0,
    "patentApplication": 0,
    "marketEntry": 0
  },
  "budgetEstimate": {
    "researchAndDevelopment": 0,
    "patentFees": 0,
    "legalFees": 0
  }
}`

// Patentability enumerates every answer and asks for a sectioned assessment.
func Patentability(a wizard.FormAnswers) string {
	var b strings.Builder
	b.WriteString("Based on the following information about a potential patent application, provide a comprehensive assessment of the invention's patentability and suggestions for the application process:\n\n")

	lines := []struct{ label, value string }{
		{"Invention Stage", a.InventionStage},
		{"Prior Art Search", a.PriorArtSearch},
		{"Novelty", a.Novelty},
		{"Public Disclosure", a.PublicDisclosure.String()},
		{"Patent Goals", goals(a)},
		{"Protection Regions", a.ProtectionRegions},
		{"Timeline", a.Timeline},
		{"Budget", a.Budget},
		{"Disclosure Process Familiarity", a.DisclosureProcessFamiliarity},
		{"Need Disclosure Explanation", a.NeedDisclosureExplanation.String()},
		{"Need Disclosure Assistance", a.NeedDisclosureAssistance.String()},
		{"Need Confidentiality Agreement", a.NeedConfidentialityAgreement.String()},
		{"NDA Agreed", wizard.FromBool(a.NDAAgreed).String()},
		{"Patent Description", a.PatentDescription},
	}
	for i, l := range lines {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, l.label, l.value)
	}

	b.WriteString(`
Please provide:
1. An assessment of the invention's patentability based on the provided information, especially considering the detailed patent description.
2. Potential challenges or concerns regarding the patent application.
3. Suggestions for strengthening the patent application, including any areas where the description could be improved or expanded.
4. Recommendations for next steps in the patent application process, taking into account the NDA status.
5. Any additional insights or considerations based on the provided information.

Please structure your response in clear sections with headings for each of the above points.`)
	return b.String()
}

func goals(a wizard.FormAnswers) string {
	s := strings.Join(a.PatentGoals, ", ")
	if a.HasGoal(wizard.GoalOther) {
		if other := strings.TrimSpace(a.OtherGoal); other != "" {
			s += fmt.Sprintf(" (Other: %s)", other)
		}
	}
	return s
}

// ContributionExtraction asks for contributions and contributors as JSON.
func ContributionExtraction(description string) string {
	return fmt.Sprintf(`Based on the following patent description, identify the key contributions and potential contributors. For each contribution, provide a brief description. For each potential contributor, provide their name, area of expertise, and specific contribution to the invention. Present the information in a structured format.

Patent Description:
%s

Please provide the output in the following JSON format:
%s
`, description, ContributionSchema)
}

// FinalReport combines the patentability narrative with the contributor
// analysis. Both are embedded verbatim.
func FinalReport(patentReport, contributorAnalysis string) string {
	return fmt.Sprintf(`Based on the following patent report and contributor analysis, generate a comprehensive final report. Include key metrics, insights, and recommendations. Present the information in a structured format suitable for visualization.

Patent Report:
%s

Contributor Analysis:
%s

Please provide the output in the following JSON format:
%s
`, patentReport, contributorAnalysis, FinalReportSchema)
}

// PatentAbstract asks for a short abstract used as the similarity query.
func PatentAbstract(description string) string {
	return "Generate a concise abstract for the following patent description:\n\n" + description
}

// AttorneyRequirements asks for the profile of a suitable attorney.
func AttorneyRequirements(description string) string {
	return "Based on the following patent description, generate a summary of ideal attorney requirements:\n\n" + description
}
