package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joelkehle/patentmate/internal/clientstore"
	"github.com/joelkehle/patentmate/internal/config"
	"github.com/joelkehle/patentmate/internal/llm"
	"github.com/joelkehle/patentmate/internal/render"
	"github.com/joelkehle/patentmate/internal/report"
	"github.com/joelkehle/patentmate/internal/telemetry"
	"github.com/joelkehle/patentmate/internal/vectorindex"
	"github.com/joelkehle/patentmate/internal/web"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				zap.L().Warn("close dependency", zap.Error(err))
			}
		}
	}()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingOptions{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			zap.L().Warn("flush traces", zap.Error(err))
		}
	}()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	closers = append(closers, store)

	caller, err := newCaller(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	if c, ok := caller.(io.Closer); ok {
		closers = append(closers, c)
	}

	metrics := telemetry.NewMetrics()
	deps := report.Deps{Caller: caller, Metrics: metrics}

	// Similarity search is optional; without it the attorney and patent
	// sections report a failure and the rest of the app keeps working.
	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.LLM.GeminiAPIKey, cfg.Embedding.Model, llm.PurposeQuery)
	if err != nil {
		zap.L().Warn("similarity search disabled: no embedder", zap.Error(err))
	} else {
		closers = append(closers, embedder)
		milvus, err := dialVectors(ctx, cfg.Vector)
		if err != nil {
			zap.L().Warn("similarity search disabled: vector store unreachable", zap.Error(err))
		} else {
			closers = append(closers, milvus)
			deps.Embedder = embedder
			deps.Patents = milvus.Collection(cfg.Vector.PatentsCollection, cfg.Embedding.Dimension)
			deps.Attorneys = milvus.Collection(cfg.Vector.AttorneysCollection, cfg.Embedding.Dimension)
		}
	}

	svc := report.NewService(deps, report.Options{
		Model:         modelFor(cfg.LLM),
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
		SummaryTokens: cfg.LLM.SummaryTokens,
	})

	server := web.NewServer(web.Deps{
		Store:   store,
		Reports: svc,
		PDF:     render.NewChromiumPDFRenderer(cfg.Render.ChromePath, cfg.Render.Timeout),
		Metrics: metrics,
	}, web.Options{
		CookieSecure:   cfg.Server.CookieSecure,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("patentmate listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("store", cfg.Store.Driver),
			zap.String("llm", cfg.LLM.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return eris.Wrap(err, "serve")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutdown")
	}
	return nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (clientstore.Store, error) {
	return clientstore.Open(ctx, clientstore.Options{
		Driver:    sc.Driver,
		Path:      sc.Path,
		DSN:       sc.DSN,
		RedisAddr: sc.RedisAddr,
		TTL:       sc.TTL,
	})
}

func newCaller(ctx context.Context, lc config.LLMConfig) (llm.Caller, error) {
	switch strings.ToLower(lc.Provider) {
	case "", "anthropic":
		c, err := llm.NewAnthropicCaller(lc.AnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "gemini":
		c, err := llm.NewGeminiCaller(ctx, lc.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, eris.Errorf("unknown llm provider %q", lc.Provider)
	}
}

// modelFor drops a configured model that belongs to the other provider so
// the caller falls back to its own default.
func modelFor(lc config.LLMConfig) string {
	model := strings.TrimSpace(lc.Model)
	switch strings.ToLower(lc.Provider) {
	case "gemini":
		if strings.HasPrefix(model, "claude") {
			return ""
		}
	default:
		if strings.HasPrefix(model, "gemini") {
			return ""
		}
	}
	return model
}

func dialVectors(ctx context.Context, vc config.VectorConfig) (*vectorindex.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return vectorindex.Dial(dialCtx, vectorindex.Config{
		Address:  vc.Address,
		Username: vc.Username,
		Password: vc.Password,
		Database: vc.Database,
		NProbe:   vc.NProbe,
	})
}
