package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/joelkehle/patentmate/internal/clientstore"
	"github.com/joelkehle/patentmate/internal/config"
	"github.com/joelkehle/patentmate/internal/render"
	"github.com/joelkehle/patentmate/internal/report"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type renderFlags struct {
	input    string
	session  string
	final    bool
	output   string
	title    string
	markdown bool
}

func renderCmd(cfg *config.Config) *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render-report",
		Short: "Render a saved report as PDF or markdown",
		Long: `Render a report from a markdown file, a stored JSON-encoded report string,
or a session in the configured store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (f.input == "") == (f.session == "") {
				return eris.New("exactly one of --input or --session is required")
			}
			return runRender(cmd.Context(), cfg, f)
		},
	}
	cmd.Flags().StringVar(&f.input, "input", "", "markdown file or JSON-encoded report string")
	cmd.Flags().StringVar(&f.session, "session", "", "session id to load the report from")
	cmd.Flags().BoolVar(&f.final, "final", false, "with --session, render the final report instead of the patent report")
	cmd.Flags().StringVar(&f.output, "output", "", "output path (defaults to stdout)")
	cmd.Flags().StringVar(&f.title, "title", "", "document title")
	cmd.Flags().BoolVar(&f.markdown, "markdown", false, "write markdown instead of PDF")
	return cmd
}

func runRender(ctx context.Context, cfg *config.Config, f renderFlags) error {
	var (
		md    string
		title string
		err   error
	)
	if f.input != "" {
		md, err = readReportFile(f.input)
		title = "Patent Application Report"
	} else {
		md, title, err = loadSessionReport(ctx, cfg, f.session, f.final)
	}
	if err != nil {
		return err
	}
	if f.title != "" {
		title = f.title
	}

	out := []byte(md)
	if !f.markdown {
		renderer := render.NewChromiumPDFRenderer(cfg.Render.ChromePath, cfg.Render.Timeout)
		if out, err = renderer.Render(ctx, title, md); err != nil {
			return err
		}
	}
	if f.output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(f.output, out, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", f.output)
	}
	zap.L().Info("report rendered", zap.String("output", f.output), zap.Int("bytes", len(out)))
	return nil
}

// readReportFile accepts plain markdown or the JSON string form the store
// keeps reports in.
func readReportFile(path string) (string, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "read %s", path)
	}
	text := strings.TrimSpace(string(blob))
	if strings.HasPrefix(text, `"`) {
		var decoded string
		if err := json.Unmarshal([]byte(text), &decoded); err == nil {
			text = decoded
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", eris.Errorf("%s is empty", path)
	}
	return text, nil
}

func loadSessionReport(ctx context.Context, cfg *config.Config, session string, final bool) (string, string, error) {
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return "", "", err
	}
	defer store.Close()
	kv := clientstore.Bind(store, session)

	if final {
		fr, ok, err := report.LoadFinalReport(ctx, kv)
		if err != nil {
			return "", "", err
		}
		if !ok {
			return "", "", eris.Errorf("session %s has no final report", session)
		}
		matches, err := report.LoadMatches(ctx, kv)
		if err != nil {
			return "", "", err
		}
		return report.FinalReportMarkdown(fr, matches.Attorneys, matches.Patents), "Final Patent Report", nil
	}

	md, ok, err := report.LoadPatentReport(ctx, kv)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", eris.Errorf("session %s has no patent report", session)
	}
	return md, "Patent Application Report", nil
}
