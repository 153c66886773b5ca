package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/joelkehle/patentmate/internal/clientstore"
	"github.com/joelkehle/patentmate/internal/llm"
	"github.com/joelkehle/patentmate/internal/prompts"
	"github.com/joelkehle/patentmate/internal/report/reporttest"
	"github.com/joelkehle/patentmate/internal/telemetry"
	"github.com/joelkehle/patentmate/internal/vectorindex"
	"github.com/joelkehle/patentmate/internal/wizard"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const finalReportJSON = `{
  "executiveSummary": "A promising hinge.",
  "patentabilityScore": 82,
  "marketPotential": 70,
  "riskAssessment": 35,
  "nextSteps": ["File a provisional application"],
  "contributorInsights": {
    "totalContributors": 2,
    "keyExpertiseAreas": ["Mechanical engineering"],
    "contributionDistribution": [{"name": "Ada", "value": 60}, {"name": "Grace", "value": 40}]
  },
  "timelineEstimate": {"researchAndDevelopment": 6, "patentApplication": 12, "marketEntry": 18},
  "budgetEstimate": {"researchAndDevelopment": 50000, "patentFees": 10000, "legalFees": 15000}
}`

const analysisJSON = `{"contributions":[{"description":"Dual-axis hinge"}],"contributors":[{"name":"Ada","expertise":"Mechanics","contribution":"Hinge design"}]}`

func sampleAnswers() wizard.FormAnswers {
	return wizard.FormAnswers{
		InventionStage:               "prototype",
		PriorArtSearch:               "self",
		Novelty:                      "new hinge",
		PublicDisclosure:             wizard.No,
		PatentGoals:                  []string{wizard.GoalProtectIP},
		ProtectionRegions:            "domestic",
		Timeline:                     "immediate",
		Budget:                       "$10k",
		DisclosureProcessFamiliarity: "somewhat",
		NeedDisclosureExplanation:    wizard.Yes,
		NeedDisclosureAssistance:     wizard.No,
		NeedConfidentialityAgreement: wizard.Yes,
		NDAAgreed:                    true,
		PatentDescription:            "A foldable phone hinge",
	}
}

func newKV() clientstore.KV {
	return clientstore.Bind(clientstore.NewMemoryStore(), "session-1")
}

func newTestService(caller llm.Caller, deps ...func(*Deps)) *Service {
	d := Deps{
		Caller:    caller,
		Embedder:  &reporttest.Embedder{},
		Patents:   &reporttest.Index{},
		Attorneys: &reporttest.Index{},
	}
	for _, fn := range deps {
		fn(&d)
	}
	return NewService(d, Options{Model: "test-model"})
}

func TestGenerateSuccessStripsFences(t *testing.T) {
	caller := reporttest.NewCaller().On("sys", reporttest.Reply{Body: "```json\n{\"a\":1}\n```"})
	out := newTestService(caller).Generate(context.Background(), "op", llm.ChatRequest{System: "sys", JSON: true})
	require.True(t, out.Success)
	assert.Equal(t, `{"a":1}`, out.Body)
	assert.Nil(t, out.Failure)
}

func TestGenerateFailureKinds(t *testing.T) {
	tests := []struct {
		name  string
		reply reporttest.Reply
		json  bool
		kind  FailureKind
	}{
		{name: "backend error", reply: reporttest.Reply{Err: errors.New("status code: 503")}, kind: FailureBackend},
		{name: "empty body", reply: reporttest.Reply{Body: "   "}, kind: FailureEmpty},
		{name: "not json", reply: reporttest.Reply{Body: "Sure! Here is the report"}, json: true, kind: FailureMalformed},
		{name: "truncated json", reply: reporttest.Reply{Body: `{"executiveSummary": "cut`}, json: true, kind: FailureMalformed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			caller := reporttest.NewCaller().On("sys", tc.reply)
			out := newTestService(caller).Generate(context.Background(), "op", llm.ChatRequest{System: "sys", JSON: tc.json})
			assert.False(t, out.Success)
			assert.Empty(t, out.Body)
			require.NotNil(t, out.Failure)
			assert.Equal(t, tc.kind, out.Failure.Kind)
		})
	}
}

type panickingCaller struct{}

func (panickingCaller) Complete(context.Context, llm.ChatRequest) (string, error) {
	panic("nil response")
}

func TestGenerateRecoversFromPanics(t *testing.T) {
	var out Outcome
	assert.NotPanics(t, func() {
		out = newTestService(panickingCaller{}).Generate(context.Background(), "op", llm.ChatRequest{})
	})
	assert.False(t, out.Success)
	assert.Equal(t, FailureBackend, out.Failure.Kind)
}

func TestGenerateRecordsMetrics(t *testing.T) {
	m := telemetry.NewMetrics()
	caller := reporttest.NewCaller().On("ok", reporttest.Reply{Body: "fine"})
	svc := newTestService(caller, func(d *Deps) { d.Metrics = m })

	svc.Generate(context.Background(), "patentability", llm.ChatRequest{System: "ok"})
	svc.Generate(context.Background(), "patentability", llm.ChatRequest{System: "other"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("patentability", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("patentability", "empty_response")))
}

func TestSubmitPatentApplicationPersistsReport(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.PatentabilitySystem, reporttest.Reply{Body: "## Assessment\nLikely patentable."})
	kv := newKV()
	svc := newTestService(caller)

	res := svc.SubmitPatentApplication(context.Background(), kv, sampleAnswers())
	require.True(t, res.Success)
	assert.Equal(t, MsgSubmitted, res.Message)
	require.NotNil(t, res.Report)
	assert.Equal(t, "## Assessment\nLikely patentable.", *res.Report)

	stored, ok, err := LoadPatentReport(context.Background(), kv)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, *res.Report, stored)

	answers, ok, err := LoadFormAnswers(context.Background(), kv)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleAnswers(), answers)

	require.Len(t, caller.Requests, 1)
	req := caller.Requests[0]
	assert.Equal(t, prompts.Patentability(sampleAnswers()), req.Prompt)
	assert.Equal(t, DefaultTemperature, req.Temperature)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Equal(t, "test-model", req.Model)
	assert.False(t, req.JSON)
}

func TestSubmitPatentApplicationFailureKeepsAnswersOnly(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.PatentabilitySystem, reporttest.Reply{Err: errors.New("boom")})
	kv := newKV()

	res := newTestService(caller).SubmitPatentApplication(context.Background(), kv, sampleAnswers())
	assert.False(t, res.Success)
	assert.Nil(t, res.Report)
	assert.Equal(t, MsgSubmitFailed, res.Message)

	_, ok, err := LoadPatentReport(context.Background(), kv)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = LoadFormAnswers(context.Background(), kv)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubmitResultJSONHasNullReportOnFailure(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.PatentabilitySystem, reporttest.Reply{Body: ""})
	res := newTestService(caller).SubmitPatentApplication(context.Background(), newKV(), sampleAnswers())

	blob, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(blob, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Contains(t, decoded, "report")
	assert.Nil(t, decoded["report"])
}

func TestAnalyzeDisclosure(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.ContributionSystem, reporttest.Reply{Body: "```json\n" + analysisJSON + "\n```"})
	kv := newKV()

	res := newTestService(caller).AnalyzeDisclosure(context.Background(), kv, "A foldable phone hinge")
	require.True(t, res.Success, "failure: %+v", res.Failure)
	require.NotNil(t, res.Analysis)
	assert.Equal(t, "Dual-axis hinge", res.Analysis.Contributions[0].Description)
	assert.Equal(t, "Ada", res.Analysis.Contributors[0].Name)
	assert.True(t, caller.Requests[0].JSON)

	stored, ok, err := LoadAnalysis(context.Background(), kv)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, *res.Analysis, stored)
}

func TestAnalyzeDisclosureSchemaViolation(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.ContributionSystem, reporttest.Reply{Body: `{"contributions":"many"}`})
	kv := newKV()

	res := newTestService(caller).AnalyzeDisclosure(context.Background(), kv, "desc")
	assert.False(t, res.Success)
	require.NotNil(t, res.Failure)
	assert.Equal(t, FailureSchema, res.Failure.Kind)

	_, ok, err := LoadAnalysis(context.Background(), kv)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAnalyzeDisclosureBlankDescriptionMakesNoCall(t *testing.T) {
	caller := reporttest.NewCaller()
	res := newTestService(caller).AnalyzeDisclosure(context.Background(), newKV(), "  \n")
	assert.False(t, res.Success)
	assert.Equal(t, FailureInput, res.Failure.Kind)
	assert.Zero(t, caller.Calls())
}

func TestGenerateFinalReport(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.FinalReportSystem, reporttest.Reply{Body: finalReportJSON})

	res := newTestService(caller).GenerateFinalReport(context.Background(), "narrative", analysisJSON)
	require.True(t, res.Success, "failure: %+v", res.Failure)
	require.NotNil(t, res.Report)
	assert.Equal(t, 82.0, res.Report.PatentabilityScore)
	assert.Equal(t, 75000.0, res.Report.BudgetEstimate.Total())
	assert.Empty(t, res.Warnings)
	assert.Contains(t, caller.Requests[0].Prompt, "narrative")
	assert.Contains(t, caller.Requests[0].Prompt, analysisJSON)
}

func TestGenerateFinalReportClampsScores(t *testing.T) {
	body := `{"executiveSummary":"x","patentabilityScore":140,"marketPotential":-5,"riskAssessment":50}`
	caller := reporttest.NewCaller().On(prompts.FinalReportSystem, reporttest.Reply{Body: body})

	res := newTestService(caller).GenerateFinalReport(context.Background(), "narrative", "{}")
	require.True(t, res.Success)
	assert.Equal(t, 100.0, res.Report.PatentabilityScore)
	assert.Equal(t, 0.0, res.Report.MarketPotential)
	assert.Equal(t, 50.0, res.Report.RiskAssessment)
	assert.Len(t, res.Warnings, 2)
	assert.NotNil(t, res.Report.NextSteps)
}

func TestGenerateFinalReportAcceptsFractionalCounts(t *testing.T) {
	body := `{"executiveSummary":"x","patentabilityScore":60,"marketPotential":50,"riskAssessment":40,` +
		`"contributorInsights":{"totalContributors":2.0,"keyExpertiseAreas":[],"contributionDistribution":[]},` +
		`"timelineEstimate":{"researchAndDevelopment":1.5,"patentApplication":12.0,"marketEntry":18}}`
	caller := reporttest.NewCaller().On(prompts.FinalReportSystem, reporttest.Reply{Body: body})

	res := newTestService(caller).GenerateFinalReport(context.Background(), "narrative", "{}")
	require.True(t, res.Success, "failure: %+v", res.Failure)
	assert.Equal(t, 2.0, res.Report.ContributorInsights.TotalContributors)
	assert.Equal(t, 1.5, res.Report.TimelineEstimate.ResearchAndDevelopment)
	assert.Contains(t, FinalReportMarkdown(*res.Report, nil, nil), "- Total contributors: 2\n")
}

func TestGenerateFinalReportRejectsNonNumericScore(t *testing.T) {
	body := `{"executiveSummary":"x","patentabilityScore":"high","marketPotential":1,"riskAssessment":1}`
	caller := reporttest.NewCaller().On(prompts.FinalReportSystem, reporttest.Reply{Body: body})

	res := newTestService(caller).GenerateFinalReport(context.Background(), "narrative", "{}")
	assert.False(t, res.Success)
	assert.Nil(t, res.Report)
	assert.Equal(t, FailureSchema, res.Failure.Kind)
	assert.Equal(t, MsgFinalFailed, res.Message)
}

func TestGenerateFinalReportInvalidJSON(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.FinalReportSystem, reporttest.Reply{Body: "I cannot do that."})
	var res FinalReportResult
	assert.NotPanics(t, func() {
		res = newTestService(caller).GenerateFinalReport(context.Background(), "narrative", "{}")
	})
	assert.False(t, res.Success)
	assert.Nil(t, res.Report)
	assert.Equal(t, FailureMalformed, res.Failure.Kind)
}

func TestFindSimilarPatents(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.AbstractSystem, reporttest.Reply{Body: "An abstract."})
	embedder := &reporttest.Embedder{}
	patents := &reporttest.Index{Matches: []vectorindex.Match{
		reporttest.Match("US1", 0.93, map[string]any{"title": "Hinge", "patent_number": "US1", "date": "2020-01-01", "assignee": "Acme", "abstract": "A hinge."}),
		{ID: "US2", Score: 0.9, Metadata: []byte(`["not", "an", "object"]`)},
		reporttest.Match("US3", 0.8, map[string]any{"title": "Latch", "patent_number": "US3"}),
	}}
	svc := newTestService(caller, func(d *Deps) { d.Embedder = embedder; d.Patents = patents })

	res := svc.FindSimilarPatents(context.Background(), "A foldable phone hinge")
	require.True(t, res.Success)
	require.Len(t, res.Patents, 2)
	assert.Equal(t, "Hinge", res.Patents[0].Title)
	assert.InDelta(t, 0.93, res.Patents[0].Similarity, 1e-6)
	assert.Equal(t, "Latch", res.Patents[1].Title)
	assert.Equal(t, DefaultPatentsTopK, patents.LastTopK)
	assert.Equal(t, []string{"An abstract."}, embedder.Texts)
	assert.Equal(t, DefaultSummaryTokens, caller.Requests[0].MaxTokens)
}

func TestFindSimilarPatentsFailures(t *testing.T) {
	t.Run("summary fails", func(t *testing.T) {
		caller := reporttest.NewCaller().On(prompts.AbstractSystem, reporttest.Reply{Err: errors.New("429 too many requests")})
		res := newTestService(caller).FindSimilarPatents(context.Background(), "desc")
		assert.False(t, res.Success)
		assert.NotNil(t, res.Patents)
		assert.Empty(t, res.Patents)
		assert.Equal(t, "rate_limit", res.Failure.Class)
	})
	t.Run("embedding fails", func(t *testing.T) {
		caller := reporttest.NewCaller().On(prompts.AbstractSystem, reporttest.Reply{Body: "abstract"})
		svc := newTestService(caller, func(d *Deps) { d.Embedder = &reporttest.Embedder{Err: errors.New("quota")} })
		res := svc.FindSimilarPatents(context.Background(), "desc")
		assert.False(t, res.Success)
		assert.Equal(t, FailureBackend, res.Failure.Kind)
	})
	t.Run("query fails", func(t *testing.T) {
		caller := reporttest.NewCaller().On(prompts.AbstractSystem, reporttest.Reply{Body: "abstract"})
		svc := newTestService(caller, func(d *Deps) { d.Patents = &reporttest.Index{Err: errors.New("unavailable")} })
		res := svc.FindSimilarPatents(context.Background(), "desc")
		assert.False(t, res.Success)
		assert.Equal(t, MsgPatentsFailed, res.Message)
	})
	t.Run("no description", func(t *testing.T) {
		caller := reporttest.NewCaller()
		res := newTestService(caller).FindSimilarPatents(context.Background(), "")
		assert.False(t, res.Success)
		assert.Equal(t, FailureInput, res.Failure.Kind)
		assert.Zero(t, caller.Calls())
	})
}

func TestFindSuggestedAttorneysNormalizesBudgetRange(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.AttorneySystem, reporttest.Reply{Body: "Needs a mechanical patent specialist."})
	attorneys := &reporttest.Index{Matches: []vectorindex.Match{
		{ID: "a1", Score: 0.9, Metadata: []byte(`{"name":"Ada","budget_range":"{\"start\":1000,\"end\":5000}","years_of_experience":12}`)},
		{ID: "a2", Score: 0.8, Metadata: []byte(`{"name":"Grace","budget_range":{"start":2000,"end":8000}}`)},
		{ID: "a3", Score: 0.7, Metadata: []byte(`{"name":"Linus","budget_range":"call for quote"}`)},
		{ID: "a4", Score: 0.6, Metadata: []byte(`{"name":"Extra"}`)},
	}}
	svc := newTestService(caller, func(d *Deps) { d.Attorneys = attorneys })

	res := svc.FindSuggestedAttorneys(context.Background(), "A foldable phone hinge")
	require.True(t, res.Success)
	require.Len(t, res.Attorneys, 3)
	assert.Equal(t, DefaultAttorneysTopK, attorneys.LastTopK)

	require.NotNil(t, res.Attorneys[0].BudgetRange)
	assert.Equal(t, BudgetRange{Start: 1000, End: 5000}, *res.Attorneys[0].BudgetRange)
	assert.Equal(t, 12.0, res.Attorneys[0].YearsOfExperience)
	require.NotNil(t, res.Attorneys[1].BudgetRange)
	assert.Equal(t, BudgetRange{Start: 2000, End: 8000}, *res.Attorneys[1].BudgetRange)
	assert.Nil(t, res.Attorneys[2].BudgetRange)
	assert.Equal(t, "Linus", res.Attorneys[2].Name)
}

func TestFindSuggestedAttorneysKeepsMistypedMetadata(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.AttorneySystem, reporttest.Reply{Body: "profile"})
	attorneys := &reporttest.Index{Matches: []vectorindex.Match{
		{ID: "a1", Score: 0.9, Metadata: []byte(`{"name":"Ada","budget_range":5000}`)},
		{ID: "a2", Score: 0.8, Metadata: []byte(`{"name":"Grace","budget_range":["1000","5000"]}`)},
		{ID: "a3", Score: 0.7, Metadata: []byte(`{"name":"Linus","years_of_experience":"12","contact":5551234}`)},
	}}
	svc := newTestService(caller, func(d *Deps) { d.Attorneys = attorneys })

	res := svc.FindSuggestedAttorneys(context.Background(), "A foldable phone hinge")
	require.True(t, res.Success)
	require.Len(t, res.Attorneys, 3)
	assert.Equal(t, "Ada", res.Attorneys[0].Name)
	assert.Nil(t, res.Attorneys[0].BudgetRange)
	assert.Equal(t, "Grace", res.Attorneys[1].Name)
	assert.Nil(t, res.Attorneys[1].BudgetRange)
	assert.Equal(t, 12.0, res.Attorneys[2].YearsOfExperience)
	assert.Equal(t, "5551234", res.Attorneys[2].Contact)
}

func TestFindSuggestedAttorneysFailure(t *testing.T) {
	caller := reporttest.NewCaller().On(prompts.AttorneySystem, reporttest.Reply{Body: "profile"})
	svc := newTestService(caller, func(d *Deps) { d.Attorneys = &reporttest.Index{Err: errors.New("down")} })

	res := svc.FindSuggestedAttorneys(context.Background(), "desc")
	assert.False(t, res.Success)
	assert.NotNil(t, res.Attorneys)
	assert.Equal(t, MsgAttorneyFailed, res.Message)
}
