package report

import (
	"github.com/rotisserie/eris"
)

// Contribution is one key contribution named in a disclosure.
type Contribution struct {
	Description string `json:"description"`
}

// Contributor is a person credited with part of the invention.
type Contributor struct {
	Name         string `json:"name"`
	Expertise    string `json:"expertise"`
	Contribution string `json:"contribution"`
}

// ContributionAnalysis is the editable result of disclosure analysis.
type ContributionAnalysis struct {
	Contributions []Contribution `json:"contributions"`
	Contributors  []Contributor  `json:"contributors"`
}

var errIndexOutOfRange = eris.New("report: index out of range")

func (a *ContributionAnalysis) AddContribution(c Contribution) {
	a.Contributions = append(a.Contributions, c)
}

func (a *ContributionAnalysis) RemoveContribution(i int) error {
	if i < 0 || i >= len(a.Contributions) {
		return errIndexOutOfRange
	}
	a.Contributions = append(a.Contributions[:i], a.Contributions[i+1:]...)
	return nil
}

func (a *ContributionAnalysis) AddContributor(c Contributor) {
	a.Contributors = append(a.Contributors, c)
}

func (a *ContributionAnalysis) RemoveContributor(i int) error {
	if i < 0 || i >= len(a.Contributors) {
		return errIndexOutOfRange
	}
	a.Contributors = append(a.Contributors[:i], a.Contributors[i+1:]...)
	return nil
}

// NamedValue is one slice of the contribution distribution.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type ContributorInsights struct {
	TotalContributors        float64      `json:"totalContributors"`
	KeyExpertiseAreas        []string     `json:"keyExpertiseAreas"`
	ContributionDistribution []NamedValue `json:"contributionDistribution"`
}

// TimelineEstimate is in months.
type TimelineEstimate struct {
	ResearchAndDevelopment float64 `json:"researchAndDevelopment"`
	PatentApplication      float64 `json:"patentApplication"`
	MarketEntry            float64 `json:"marketEntry"`
}

// BudgetEstimate is in US dollars.
type BudgetEstimate struct {
	ResearchAndDevelopment float64 `json:"researchAndDevelopment"`
	PatentFees             float64 `json:"patentFees"`
	LegalFees              float64 `json:"legalFees"`
}

func (b BudgetEstimate) Total() float64 {
	return b.ResearchAndDevelopment + b.PatentFees + b.LegalFees
}

// FinalReport is the structured composite assessment. Scores are in
// [0, 100] once normalized.
type FinalReport struct {
	ExecutiveSummary    string              `json:"executiveSummary"`
	PatentabilityScore  float64             `json:"patentabilityScore"`
	MarketPotential     float64             `json:"marketPotential"`
	RiskAssessment      float64             `json:"riskAssessment"`
	NextSteps           []string            `json:"nextSteps"`
	ContributorInsights ContributorInsights `json:"contributorInsights"`
	TimelineEstimate    TimelineEstimate    `json:"timelineEstimate"`
	BudgetEstimate      BudgetEstimate      `json:"budgetEstimate"`
}

// SimilarPatent is a prior patent close to the submitted description.
type SimilarPatent struct {
	Title        string  `json:"title"`
	PatentNumber string  `json:"patent_number"`
	Date         string  `json:"date"`
	Assignee     string  `json:"assignee"`
	Abstract     string  `json:"abstract"`
	Similarity   float32 `json:"similarity"`
}

// Attorney is a recommended patent attorney. BudgetRange is nil when the
// directory entry has none.
type Attorney struct {
	Name              string       `json:"name"`
	Specialty         string       `json:"specialty"`
	Summary           string       `json:"summary"`
	BudgetRange       *BudgetRange `json:"budget_range"`
	Location          string       `json:"location"`
	YearsOfExperience float64      `json:"years_of_experience"`
	Contact           string       `json:"contact"`
	Similarity        float32      `json:"similarity"`
}
