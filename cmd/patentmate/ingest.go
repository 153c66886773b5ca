package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/joelkehle/patentmate/internal/config"
	"github.com/joelkehle/patentmate/internal/llm"
	"github.com/joelkehle/patentmate/internal/vectorindex"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const ingestBatchSize = 64

// ingestRecord is one element of the input array. Text is what gets
// embedded; Metadata is returned verbatim by searches.
type ingestRecord struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Metadata json.RawMessage `json:"metadata"`
}

func ingestCmd(cfg *config.Config) *cobra.Command {
	var (
		input      string
		collection string
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed and load patents or attorneys into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := collectionName(cfg.Vector, collection)
			if err != nil {
				return err
			}
			records, err := readIngestFile(input)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), cfg, name, records)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "JSON array of {id, text, metadata} records")
	cmd.Flags().StringVar(&collection, "collection", "", "patents or attorneys")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func collectionName(vc config.VectorConfig, kind string) (string, error) {
	switch strings.ToLower(kind) {
	case "patents":
		return vc.PatentsCollection, nil
	case "attorneys":
		return vc.AttorneysCollection, nil
	default:
		return "", eris.Errorf("unknown collection %q (want patents or attorneys)", kind)
	}
}

func readIngestFile(path string) ([]ingestRecord, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	var records []ingestRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, eris.Wrapf(err, "decode %s", path)
	}
	for i, r := range records {
		if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Text) == "" {
			return nil, eris.Errorf("record %d needs an id and text", i)
		}
		if len(r.Metadata) == 0 || !json.Valid(r.Metadata) {
			return nil, eris.Errorf("record %s has no valid metadata", r.ID)
		}
	}
	return records, nil
}

func runIngest(ctx context.Context, cfg *config.Config, collection string, records []ingestRecord) error {
	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.LLM.GeminiAPIKey, cfg.Embedding.Model, llm.PurposeDocument)
	if err != nil {
		return err
	}
	defer embedder.Close()

	milvus, err := dialVectors(ctx, cfg.Vector)
	if err != nil {
		return err
	}
	defer milvus.Close()

	coll := milvus.Collection(collection, cfg.Embedding.Dimension)
	if err := coll.EnsureSchema(ctx); err != nil {
		return err
	}
	zap.L().Info("ingesting records", zap.String("collection", coll.Name()), zap.Int("records", len(records)))
	return ingest(ctx, embedder, coll, records)
}

func ingest(ctx context.Context, embedder llm.Embedder, w vectorindex.Writer, records []ingestRecord) error {
	batch := make([]vectorindex.Record, 0, ingestBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := w.Upsert(ctx, batch); err != nil {
			return err
		}
		zap.L().Info("ingested batch", zap.Int("records", len(batch)))
		batch = batch[:0]
		return nil
	}

	for _, r := range records {
		vec, err := embedder.Embed(ctx, r.Text)
		if err != nil {
			return eris.Wrapf(err, "embed %s", r.ID)
		}
		batch = append(batch, vectorindex.Record{ID: r.ID, Metadata: r.Metadata, Vector: vec})
		if len(batch) == ingestBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
