package report

import (
	"context"

	"github.com/joelkehle/patentmate/internal/clientstore"
	"github.com/joelkehle/patentmate/internal/wizard"
)

// LoadPatentReport returns the stored narrative. ok is false when none has
// been generated.
func LoadPatentReport(ctx context.Context, kv clientstore.KV) (report string, ok bool, err error) {
	ok, err = clientstore.GetJSON(ctx, kv, clientstore.KeyPatentReport, &report)
	return report, ok && report != "", err
}

func LoadFormAnswers(ctx context.Context, kv clientstore.KV) (wizard.FormAnswers, bool, error) {
	var a wizard.FormAnswers
	ok, err := clientstore.GetJSON(ctx, kv, clientstore.KeyFormAnswers, &a)
	return a, ok, err
}

func LoadAnalysis(ctx context.Context, kv clientstore.KV) (ContributionAnalysis, bool, error) {
	var a ContributionAnalysis
	ok, err := clientstore.GetJSON(ctx, kv, clientstore.KeyContributorAnalysis, &a)
	return a, ok, err
}

func SaveAnalysis(ctx context.Context, kv clientstore.KV, a ContributionAnalysis) error {
	if a.Contributions == nil {
		a.Contributions = []Contribution{}
	}
	if a.Contributors == nil {
		a.Contributors = []Contributor{}
	}
	return clientstore.SetJSON(ctx, kv, clientstore.KeyContributorAnalysis, a)
}

func LoadFinalReport(ctx context.Context, kv clientstore.KV) (FinalReport, bool, error) {
	var r FinalReport
	ok, err := clientstore.GetJSON(ctx, kv, clientstore.KeyFinalReport, &r)
	return r, ok, err
}

func SaveFinalReport(ctx context.Context, kv clientstore.KV, r FinalReport) error {
	return clientstore.SetJSON(ctx, kv, clientstore.KeyFinalReport, r)
}

// Matches holds the search results shown next to the final report so that
// exports carry the same attorneys and patents the page did.
type Matches struct {
	Attorneys []Attorney      `json:"attorneys"`
	Patents   []SimilarPatent `json:"patents"`
}

func LoadMatches(ctx context.Context, kv clientstore.KV) (Matches, error) {
	var m Matches
	_, err := clientstore.GetJSON(ctx, kv, clientstore.KeyReportMatches, &m)
	return m, err
}

func SaveMatches(ctx context.Context, kv clientstore.KV, m Matches) error {
	return clientstore.SetJSON(ctx, kv, clientstore.KeyReportMatches, m)
}
