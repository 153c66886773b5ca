// Package aggregate assembles the final report page: the structured report,
// similar patents and suggested attorneys, fetched concurrently.
package aggregate

import (
	"context"
	"errors"
	"time"

	"github.com/joelkehle/patentmate/internal/clientstore"
	"github.com/joelkehle/patentmate/internal/report"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reporter is the subset of report.Service used here.
type Reporter interface {
	GenerateFinalReport(ctx context.Context, patentReport, contributorAnalysis string) report.FinalReportResult
	FindSimilarPatents(ctx context.Context, description string) report.PatentsResult
	FindSuggestedAttorneys(ctx context.Context, description string) report.AttorneysResult
}

// View is everything the final report page shows. A section whose Error is
// set has an empty value.
type View struct {
	// Empty is set when no patentability report exists yet.
	Empty bool

	Report        *report.FinalReport
	Warnings      []string
	ReportError   string
	Patents       []report.SimilarPatent
	PatentsError  string
	Attorneys     []report.Attorney
	AttorneyError string
}

type Aggregator struct {
	reporter Reporter
}

func New(r Reporter) *Aggregator {
	return &Aggregator{reporter: r}
}

// Run reads the stored inputs and runs the three sections. Sections fail
// independently. When ctx ends before all sections return, nothing is
// persisted and ctx's error is returned.
func (a *Aggregator) Run(ctx context.Context, kv clientstore.KV) (View, error) {
	patentReport, ok, err := report.LoadPatentReport(ctx, kv)
	if err != nil {
		return View{}, eris.Wrap(err, "aggregate: load patent report")
	}
	if !ok {
		return View{Empty: true}, nil
	}

	analysis, err := kv.Get(ctx, clientstore.KeyContributorAnalysis)
	if errors.Is(err, clientstore.ErrNotFound) {
		analysis = "{}"
	} else if err != nil {
		return View{}, eris.Wrap(err, "aggregate: load contributor analysis")
	}

	answers, _, err := report.LoadFormAnswers(ctx, kv)
	if err != nil {
		return View{}, eris.Wrap(err, "aggregate: load form answers")
	}
	description := answers.PatentDescription

	start := time.Now()
	var (
		finalRes    report.FinalReportResult
		patentsRes  report.PatentsResult
		attorneyRes report.AttorneysResult
	)
	// Each goroutine owns one result; sections never cancel each other.
	var g errgroup.Group
	g.Go(func() error {
		finalRes = a.reporter.GenerateFinalReport(ctx, patentReport, analysis)
		return nil
	})
	g.Go(func() error {
		patentsRes = a.reporter.FindSimilarPatents(ctx, description)
		return nil
	})
	g.Go(func() error {
		attorneyRes = a.reporter.FindSuggestedAttorneys(ctx, description)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		zap.L().Info("discarding final report results", zap.Error(err))
		return View{}, err
	}

	v := View{
		Patents:   nonNil(patentsRes.Patents),
		Attorneys: nonNil(attorneyRes.Attorneys),
	}
	if finalRes.Success {
		v.Report = finalRes.Report
		v.Warnings = finalRes.Warnings
	} else {
		v.ReportError = finalRes.Message
	}
	if !patentsRes.Success {
		v.PatentsError = patentsRes.Message
		v.Patents = []report.SimilarPatent{}
	}
	if !attorneyRes.Success {
		v.AttorneyError = attorneyRes.Message
		v.Attorneys = []report.Attorney{}
	}
	if finalRes.Success {
		if err := report.SaveFinalReport(ctx, kv, *finalRes.Report); err != nil {
			zap.L().Error("persist final report", zap.Error(err))
		}
		matches := report.Matches{Attorneys: v.Attorneys, Patents: v.Patents}
		if err := report.SaveMatches(ctx, kv, matches); err != nil {
			zap.L().Error("persist report matches", zap.Error(err))
		}
	}

	zap.L().Info("final report assembled",
		zap.Bool("report", finalRes.Success),
		zap.Int("patents", len(v.Patents)),
		zap.Int("attorneys", len(v.Attorneys)),
		zap.Duration("elapsed", time.Since(start)))
	return v, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
