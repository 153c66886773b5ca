package render

import (
	"context"
	_ "embed"
	"encoding/base64"
	"html"
	"os"
	"regexp"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

const defaultPDFTimeout = 30 * time.Second

//go:embed print.css
var printCSS string

// PDFRenderer turns a markdown document into a PDF.
type PDFRenderer interface {
	Render(ctx context.Context, title, markdown string) ([]byte, error)
}

// ChromiumPDFRenderer prints through a headless Chromium.
type ChromiumPDFRenderer struct {
	chromePath string
	timeout    time.Duration
}

// NewChromiumPDFRenderer uses chromePath when set, otherwise the first
// Chromium found in the usual locations.
func NewChromiumPDFRenderer(chromePath string, timeout time.Duration) *ChromiumPDFRenderer {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	if timeout <= 0 {
		timeout = defaultPDFTimeout
	}
	return &ChromiumPDFRenderer{chromePath: chromePath, timeout: timeout}
}

func (r *ChromiumPDFRenderer) Render(ctx context.Context, title, markdown string) ([]byte, error) {
	htmlDoc, err := buildPrintHTML(title, markdown)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				html.EscapeString(title) + ` &middot; Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, eris.Wrap(err, "render: print pdf")
	}
	return pdf, nil
}

func buildPrintHTML(title, markdown string) (string, error) {
	content, err := MarkdownHTML(markdown)
	if err != nil {
		return "", err
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + printCSS + "</style></head><body>" +
		"<div class='pdf-wrap'><header class='pdf-title'>" + html.EscapeString(title) + "</header>" +
		"<article class='report-html'>" + applyPrintLayoutHooks(string(content)) + "</article></div>" +
		"</body></html>", nil
}

var (
	reBreakBefore   = regexp.MustCompile(`(?i)<h2([^>]*)>\s*(Recommended Attorneys|Related Patents)\s*</h2>`)
	reNumberedTitle = regexp.MustCompile(`<h([23])([^>]*)>\s*([0-9]+\.\s[^<]*)\s*</h[23]>`)
)

// applyPrintLayoutHooks starts appendix sections on a new page and marks
// numbered section headings for emphasis.
func applyPrintLayoutHooks(contentHTML string) string {
	out := reBreakBefore.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">$2</h2>`)
	out = reNumberedTitle.ReplaceAllString(out, `<h$1$2 data-section-heading="true">$3</h$1>`)
	return out
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
