package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/joelkehle/patentmate/internal/clientstore"
	"github.com/joelkehle/patentmate/internal/prompts"
	"github.com/joelkehle/patentmate/internal/report"
	"github.com/joelkehle/patentmate/internal/report/reporttest"
	"github.com/joelkehle/patentmate/internal/telemetry"
	"github.com/joelkehle/patentmate/internal/vectorindex"
	"github.com/joelkehle/patentmate/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSession     = "6f1c2b1e-5d3a-4c2b-9e8f-0a1b2c3d4e5f"
	finalReportJSON = `{"executiveSummary":"Strong **candidate**.","patentabilityScore":82,"marketPotential":70,"riskAssessment":35,"nextSteps":["File a provisional"],"contributorInsights":{"totalContributors":2,"keyExpertiseAreas":["Mechanics"],"contributionDistribution":[{"name":"Ada","value":60},{"name":"Grace","value":40}]},"timelineEstimate":{"researchAndDevelopment":6,"patentApplication":12,"marketEntry":18},"budgetEstimate":{"researchAndDevelopment":50000,"patentFees":10000,"legalFees":15000}}`
	analysisJSON    = `{"contributions":[{"description":"Dual-axis hinge"}],"contributors":[{"name":"Ada Lovelace","expertise":"Mechanics","contribution":"Hinge design"}]}`
)

type fakePDF struct {
	title, markdown string
	err             error
}

func (f *fakePDF) Render(_ context.Context, title, markdown string) ([]byte, error) {
	f.title, f.markdown = title, markdown
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type harness struct {
	handler   http.Handler
	kv        clientstore.KV
	caller    *reporttest.Caller
	patents   *reporttest.Index
	attorneys *reporttest.Index
	pdf       *fakePDF
	metrics   *telemetry.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := clientstore.NewMemoryStore()
	h := &harness{
		kv:     clientstore.Bind(store, testSession),
		caller: reporttest.NewCaller(),
		patents: &reporttest.Index{Matches: []vectorindex.Match{
			reporttest.Match("US1", 0.91, map[string]any{"title": "Folding hinge", "patent_number": "US1234567", "assignee": "Acme"}),
		}},
		attorneys: &reporttest.Index{Matches: []vectorindex.Match{
			{ID: "a1", Score: 0.88, Metadata: []byte(`{"name":"Grace Hopper","specialty":"Mechanical","budget_range":"{\"start\":1000,\"end\":5000}"}`)},
		}},
		pdf:     &fakePDF{},
		metrics: telemetry.NewMetrics(),
	}
	h.caller.On(prompts.PatentabilitySystem, reporttest.Reply{Body: "## 1. Patentability Assessment\n\nLikely patentable."})
	h.caller.On(prompts.ContributionSystem, reporttest.Reply{Body: analysisJSON})
	h.caller.On(prompts.FinalReportSystem, reporttest.Reply{Body: finalReportJSON})
	h.caller.On(prompts.AbstractSystem, reporttest.Reply{Body: "A hinge abstract."})
	h.caller.On(prompts.AttorneySystem, reporttest.Reply{Body: "A mechanical patent attorney."})

	svc := report.NewService(report.Deps{
		Caller:    h.caller,
		Embedder:  &reporttest.Embedder{},
		Patents:   h.patents,
		Attorneys: h.attorneys,
		Metrics:   h.metrics,
	}, report.Options{})
	h.handler = NewServer(Deps{Store: store, Reports: svc, PDF: h.pdf, Metrics: h.metrics}, Options{}).Handler()
	return h
}

func (h *harness) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: testSession})
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

func (h *harness) get(t *testing.T, target string) *httptest.ResponseRecorder {
	return h.do(t, http.MethodGet, target, nil, "")
}

func (h *harness) postForm(t *testing.T, target string, values url.Values) *httptest.ResponseRecorder {
	return h.do(t, http.MethodPost, target, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (h *harness) postJSON(t *testing.T, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	blob, err := json.Marshal(payload)
	require.NoError(t, err)
	return h.do(t, http.MethodPost, target, bytes.NewReader(blob), "application/json")
}

func (h *harness) draft(t *testing.T) wizard.Draft {
	t.Helper()
	var d wizard.Draft
	_, err := clientstore.GetJSON(context.Background(), h.kv, clientstore.KeyWizardDraft, &d)
	require.NoError(t, err)
	return d
}

func (h *harness) seedPatentReport(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, clientstore.SetJSON(ctx, h.kv, clientstore.KeyPatentReport, "## Assessment\n\nLikely patentable."))
	require.NoError(t, clientstore.SetJSON(ctx, h.kv, clientstore.KeyFormAnswers, wizard.FormAnswers{PatentDescription: "A foldable phone hinge"}))
}

// sampleSteps answers each default step in order.
var sampleSteps = []url.Values{
	{"inventionStage": {"prototype"}},
	{"priorArtSearch": {"self"}},
	{"novelty": {"A hinge that folds twice"}},
	{"publicDisclosure": {"false"}},
	{"patentGoals": {wizard.GoalProtectIP, wizard.GoalOther}, "otherGoal": {"Defensive"}},
	{"protectionRegions": {"domestic"}},
	{"timeline": {"immediate"}},
	{"budget": {"$10k"}},
	{"disclosureProcessFamiliarity": {"somewhat"}},
	{"needDisclosureExplanation": {"true"}},
	{"needDisclosureAssistance": {"false"}},
	{"needConfidentialityAgreement": {"true"}},
	{"ndaAgreed": {"on"}},
	{"patentDescription": {"A foldable phone hinge with two axes."}},
}

func walkWizard(t *testing.T, h *harness) *httptest.ResponseRecorder {
	t.Helper()
	require.Len(t, sampleSteps, len(wizard.DefaultSteps()))
	var rr *httptest.ResponseRecorder
	for i, values := range sampleSteps {
		form := url.Values{}
		for k, v := range values {
			form[k] = v
		}
		if i == len(sampleSteps)-1 {
			form.Set("action", "submit")
		} else {
			form.Set("action", "next")
		}
		rr = h.postForm(t, "/ability-search", form)
		if i < len(sampleSteps)-1 {
			require.Equal(t, http.StatusSeeOther, rr.Code, "step %d", i)
			require.Equal(t, i+1, h.draft(t).Step, "step %d did not advance", i)
		}
	}
	return rr
}

func TestSessionCookieIssued(t *testing.T) {
	h := newHarness(t)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestExistingSessionCookieKept(t *testing.T) {
	h := newHarness(t)
	rr := h.get(t, "/")
	assert.Empty(t, rr.Result().Cookies())
}

func TestWizardFirstStep(t *testing.T) {
	h := newHarness(t)
	rr := h.get(t, "/ability-search")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Step 1 of 14")
	assert.Contains(t, body, "Invention Stage")
	assert.Regexp(t, `value="previous" disabled`, body)
	assert.Regexp(t, `value="next" class="primary" data-requires-valid disabled`, body)
}

func TestWizardNextIgnoredWhileInvalid(t *testing.T) {
	h := newHarness(t)
	rr := h.postForm(t, "/ability-search", url.Values{"action": {"next"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, 0, h.draft(t).Step)

	rr = h.postForm(t, "/ability-search", url.Values{"action": {"next"}, "inventionStage": {"idea"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, 1, h.draft(t).Step)
	assert.Equal(t, "idea", h.draft(t).Answers.InventionStage)
}

func TestWizardPreviousKeepsAnswers(t *testing.T) {
	h := newHarness(t)
	h.postForm(t, "/ability-search", url.Values{"action": {"next"}, "inventionStage": {"market"}})
	h.postForm(t, "/ability-search", url.Values{"action": {"previous"}})

	d := h.draft(t)
	assert.Equal(t, 0, d.Step)
	assert.Equal(t, "market", d.Answers.InventionStage)

	body := h.get(t, "/ability-search").Body.String()
	assert.Contains(t, body, `value="market" checked`)
}

func TestWizardRejectsUnknownOption(t *testing.T) {
	h := newHarness(t)
	rr := h.postForm(t, "/ability-search", url.Values{"action": {"next"}, "inventionStage": {"spaceship"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Please choose one of the listed options.")
}

func TestWizardSubmitPersistsReportAndRedirects(t *testing.T) {
	h := newHarness(t)
	rr := walkWizard(t, h)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/report", rr.Header().Get("Location"))

	stored, ok, err := report.LoadPatentReport(context.Background(), h.kv)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, stored)

	answers, ok, err := report.LoadFormAnswers(context.Background(), h.kv)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, wizard.No, answers.PublicDisclosure)
	assert.True(t, answers.NDAAgreed)
	assert.Equal(t, "Defensive", answers.OtherGoal)

	_, err = h.kv.Get(context.Background(), clientstore.KeyWizardDraft)
	assert.ErrorIs(t, err, clientstore.ErrNotFound)

	page := h.get(t, "/report")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Patentability Assessment")
	assert.Contains(t, page.Body.String(), "Download as PDF")
}

func TestWizardSubmitFailureShowsMessage(t *testing.T) {
	h := newHarness(t)
	h.caller.On(prompts.PatentabilitySystem, reporttest.Reply{Err: errors.New("status code: 500")})

	rr := walkWizard(t, h)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), report.MsgSubmitFailed)
	assert.Contains(t, rr.Body.String(), "Step 14 of 14")

	_, ok, err := report.LoadPatentReport(context.Background(), h.kv)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 13, h.draft(t).Step)
}

func uploadRequest(t *testing.T, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestWizardUploadReplacesDescription(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, clientstore.SetJSON(context.Background(), h.kv, clientstore.KeyWizardDraft, wizard.Draft{
		Step:    13,
		Answers: wizard.FormAnswers{PatentDescription: "typed text"},
	}))

	body, ct := uploadRequest(t, "idea.md", "# Hinge\nFolds twice.")
	rr := h.do(t, http.MethodPost, "/ability-search/upload", body, ct)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "# Hinge\nFolds twice.", h.draft(t).Answers.PatentDescription)

	body, ct = uploadRequest(t, "idea.pdf", "%PDF")
	rr = h.do(t, http.MethodPost, "/ability-search/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Only .txt and .md files are supported.")
	assert.Equal(t, "# Hinge\nFolds twice.", h.draft(t).Answers.PatentDescription)
}

func TestReportEmptyState(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/report", "/final-report"} {
		rr := h.get(t, path)
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), "No report available.", path)
	}
	rr := h.get(t, "/contributor-analysis")
	assert.Contains(t, rr.Body.String(), "No contributor analysis available.")
	assert.Equal(t, http.StatusNotFound, h.get(t, "/report/pdf").Code)
}

func TestReportDownloads(t *testing.T) {
	h := newHarness(t)
	h.seedPatentReport(t)

	rr := h.get(t, "/report/markdown")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "## Assessment\n\nLikely patentable.", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "patent-report.md")

	rr = h.get(t, "/report/pdf")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, patentReportTitle, h.pdf.title)
	assert.Contains(t, h.pdf.markdown, "Likely patentable.")
}

func TestReportPDFFailure(t *testing.T) {
	h := newHarness(t)
	h.seedPatentReport(t)
	h.pdf.err = errors.New("chrome missing")
	assert.Equal(t, http.StatusInternalServerError, h.get(t, "/report/pdf").Code)
}

func TestDisclosureFlow(t *testing.T) {
	h := newHarness(t)
	h.seedPatentReport(t)

	page := h.get(t, "/invention-disclosure")
	assert.Contains(t, page.Body.String(), "A foldable phone hinge")

	rr := h.postForm(t, "/invention-disclosure", url.Values{"patentDescription": {"A foldable phone hinge"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/contributor-analysis", rr.Header().Get("Location"))

	page = h.get(t, "/contributor-analysis")
	assert.Contains(t, page.Body.String(), "Ada Lovelace")
	assert.Contains(t, page.Body.String(), "Dual-axis hinge")
}

func TestDisclosureFailureKeepsText(t *testing.T) {
	h := newHarness(t)
	h.caller.On(prompts.ContributionSystem, reporttest.Reply{Body: "no json here"})

	rr := h.postForm(t, "/invention-disclosure", url.Values{"patentDescription": {"My hinge"}})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), report.MsgAnalyzeFailed)
	assert.Contains(t, rr.Body.String(), "My hinge")
}

func TestContributorEditing(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, report.SaveAnalysis(context.Background(), h.kv, report.ContributionAnalysis{
		Contributions: []report.Contribution{{Description: "one"}, {Description: "two"}},
		Contributors:  []report.Contributor{{Name: "Ada"}},
	}))

	form := url.Values{
		"contribution":            {"one", "two edited"},
		"contributorName":         {"Ada"},
		"contributorExpertise":    {"Math"},
		"contributorContribution": {"Engine"},
		"action":                  {"remove-contribution:0"},
	}
	rr := h.postForm(t, "/contributor-analysis", form)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	a, ok, err := report.LoadAnalysis(context.Background(), h.kv)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []report.Contribution{{Description: "two edited"}}, a.Contributions)
	assert.Equal(t, []report.Contributor{{Name: "Ada", Expertise: "Math", Contribution: "Engine"}}, a.Contributors)

	form.Set("action", "add-contributor")
	h.postForm(t, "/contributor-analysis", form)
	a, _, _ = report.LoadAnalysis(context.Background(), h.kv)
	assert.Len(t, a.Contributors, 2)

	form.Set("action", "remove-contributor:9")
	assert.Equal(t, http.StatusBadRequest, h.postForm(t, "/contributor-analysis", form).Code)
}

func TestFinalReportContent(t *testing.T) {
	h := newHarness(t)
	h.seedPatentReport(t)

	shell := h.get(t, "/final-report")
	require.Equal(t, http.StatusOK, shell.Code)
	assert.Contains(t, shell.Body.String(), `data-src="/final-report/content"`)

	rr := h.get(t, "/final-report/content")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<strong>candidate</strong>")
	assert.Contains(t, body, "82%")
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "$75,000")
	assert.Contains(t, body, "Grace Hopper")
	assert.Contains(t, body, "$1,000 - $5,000")
	assert.Contains(t, body, "Folding hinge")

	fr, ok, err := report.LoadFinalReport(context.Background(), h.kv)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 82.0, fr.PatentabilityScore)

	pdf := h.get(t, "/final-report/pdf")
	require.Equal(t, http.StatusOK, pdf.Code)
	assert.Contains(t, h.pdf.markdown, "# Final Patent Report")
	assert.Contains(t, h.pdf.markdown, "## Recommended Attorneys")
	assert.Contains(t, h.pdf.markdown, "Grace Hopper")
	assert.Contains(t, h.pdf.markdown, "## Related Patents")
	assert.Contains(t, h.pdf.markdown, "Folding hinge")
}

func TestFinalReportAttorneyFailureRendersEmptyTab(t *testing.T) {
	h := newHarness(t)
	h.seedPatentReport(t)
	h.attorneys.Err = errors.New("attorney index down")

	rr := h.get(t, "/final-report/content")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Strong")
	assert.Contains(t, body, report.MsgAttorneyFailed)
	assert.Contains(t, body, "No attorneys to recommend.")
	assert.Contains(t, body, "Folding hinge")
}

func TestFinalReportContentEmpty(t *testing.T) {
	h := newHarness(t)
	rr := h.get(t, "/final-report/content")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No report available.")
	assert.Zero(t, h.caller.Calls())
}

func TestAPIPatentApplication(t *testing.T) {
	h := newHarness(t)

	rr := h.postJSON(t, "/api/patent-application", map[string]any{"inventionStage": "idea"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	answers := wizard.FormAnswers{
		InventionStage: "idea", PriorArtSearch: "no", Novelty: "new",
		PublicDisclosure: wizard.No, PatentGoals: []string{wizard.GoalLicensing},
		ProtectionRegions: "international", Timeline: "short-term", Budget: "5k",
		DisclosureProcessFamiliarity: "familiar", NeedDisclosureExplanation: wizard.No,
		NeedDisclosureAssistance: wizard.No, NeedConfidentialityAgreement: wizard.No,
		NDAAgreed: true, PatentDescription: "A widget",
	}
	rr = h.postJSON(t, "/api/patent-application", answers)
	require.Equal(t, http.StatusOK, rr.Code)

	var res report.SubmitResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, report.MsgSubmitted, res.Message)
	require.NotNil(t, res.Report)
}

func TestAPIPatentApplicationBackendFailure(t *testing.T) {
	h := newHarness(t)
	h.caller.On(prompts.PatentabilitySystem, reporttest.Reply{Body: ""})

	answers := wizard.FormAnswers{
		InventionStage: "idea", PriorArtSearch: "no", Novelty: "new",
		PublicDisclosure: wizard.Yes, PatentGoals: []string{wizard.GoalLicensing},
		ProtectionRegions: "domestic", Timeline: "immediate", Budget: "5k",
		DisclosureProcessFamiliarity: "familiar", NeedDisclosureExplanation: wizard.No,
		NeedDisclosureAssistance: wizard.No, NeedConfidentialityAgreement: wizard.No,
		NDAAgreed: true, PatentDescription: "A widget",
	}
	rr := h.postJSON(t, "/api/patent-application", answers)
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Nil(t, decoded["report"])
}

func TestAPIFinalReportAcceptsEncodedAnalysis(t *testing.T) {
	h := newHarness(t)
	rr := h.postJSON(t, "/api/final-report", map[string]any{
		"patentReport":        "narrative",
		"contributorAnalysis": analysisJSON,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	last := h.caller.Requests[len(h.caller.Requests)-1]
	assert.Contains(t, last.Prompt, analysisJSON)
	assert.NotContains(t, last.Prompt, `\"contributions\"`)
}

func TestAPISearchEndpoints(t *testing.T) {
	h := newHarness(t)

	rr := h.postJSON(t, "/api/similar-patents", map[string]string{"patentDescription": "hinge"})
	require.Equal(t, http.StatusOK, rr.Code)
	var patents report.PatentsResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &patents))
	require.Len(t, patents.Patents, 1)
	assert.Equal(t, "US1234567", patents.Patents[0].PatentNumber)

	rr = h.postJSON(t, "/api/suggested-attorneys", map[string]string{"patentDescription": "hinge"})
	require.Equal(t, http.StatusOK, rr.Code)
	var attorneys report.AttorneysResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &attorneys))
	require.Len(t, attorneys.Attorneys, 1)
	assert.Equal(t, &report.BudgetRange{Start: 1000, End: 5000}, attorneys.Attorneys[0].BudgetRange)

	rr = h.postJSON(t, "/api/similar-patents", map[string]string{"patentDescription": " "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = h.do(t, http.MethodPost, "/api/similar-patents", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPIReportPDF(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/api/report-pdf?title=Final%20Report", strings.NewReader("# Hello"), "text/markdown")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Final Report", h.pdf.title)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Final-Report.pdf")

	rr = h.do(t, http.MethodPost, "/api/report-pdf", strings.NewReader("  "), "text/markdown")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPIReportPDFRejectsOversizedBody(t *testing.T) {
	h := newHarness(t)
	body := strings.Repeat("a", maxMarkdownBody+1)
	rr := h.do(t, http.MethodPost, "/api/report-pdf", strings.NewReader(body), "text/markdown")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Empty(t, h.pdf.markdown)
}

func TestAPICORSPreflight(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/similar-patents", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	rr := h.get(t, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())

	h.get(t, "/report")
	rr = h.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `patentmate_http_requests_total{route="/report",status="200"}`)
}

func TestStaticAndNotFound(t *testing.T) {
	h := newHarness(t)
	rr := h.get(t, "/static/style.css")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), ".topbar")

	rr = h.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Page not found")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report", sanitizeFilename(" "))
	assert.Equal(t, "a-b_c-1", sanitizeFilename("a b_c/1"))
}
