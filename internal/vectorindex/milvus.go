package vectorindex

import (
	"context"
	"encoding/json"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Column names shared by every collection.
const (
	FieldID        = "id"
	FieldMetadata  = "metadata"
	FieldEmbedding = "embedding"

	maxIDLength       = 256
	maxMetadataLength = 65535
	defaultNList      = 128
	defaultNProbe     = 16
)

// milvusAPI is the subset of client.Client used here.
type milvusAPI interface {
	Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	Upsert(ctx context.Context, collName, partitionName string, columns ...entity.Column) (entity.Column, error)
	HasCollection(ctx context.Context, collName string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema, shardsNum int32, opts ...client.CreateCollectionOption) error
	CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error
	LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error
	Close() error
}

// Config holds Milvus connection settings.
type Config struct {
	Address  string
	Username string
	Password string
	Database string
	NProbe   int
}

// Client is a Milvus connection shared by several collections.
type Client struct {
	api    milvusAPI
	nprobe int
}

// Dial connects to Milvus.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "vectorindex: connect %s", cfg.Address)
	}
	return newClient(c, cfg.NProbe), nil
}

func newClient(api milvusAPI, nprobe int) *Client {
	if nprobe <= 0 {
		nprobe = defaultNProbe
	}
	return &Client{api: api, nprobe: nprobe}
}

func (c *Client) Close() error {
	return c.api.Close()
}

// Collection returns a handle on one collection of dim-dimensional vectors.
func (c *Client) Collection(name string, dim int) *Collection {
	return &Collection{client: c, name: name, dim: dim}
}

// Collection implements Index and Writer over one Milvus collection.
type Collection struct {
	client *Client
	name   string
	dim    int
}

func (c *Collection) Name() string { return c.name }

// Query runs a cosine similarity search and decodes the metadata column.
func (c *Collection) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, eris.New("vectorindex: empty query vector")
	}
	if topK <= 0 {
		return nil, eris.Errorf("vectorindex: topK must be positive, got %d", topK)
	}
	sp, err := entity.NewIndexIvfFlatSearchParam(c.client.nprobe)
	if err != nil {
		return nil, eris.Wrap(err, "vectorindex: search params")
	}

	results, err := c.client.api.Search(ctx, c.name, []string{}, "",
		[]string{FieldMetadata},
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, entity.COSINE, topK, sp,
		client.WithSearchQueryConsistencyLevel(entity.ClBounded),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "vectorindex: search %s", c.name)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return decodeResult(results[0])
}

func decodeResult(res client.SearchResult) ([]Match, error) {
	if res.Err != nil {
		return nil, eris.Wrap(res.Err, "vectorindex: search result")
	}
	metaCol := res.Fields.GetColumn(FieldMetadata)
	if metaCol == nil && res.ResultCount > 0 {
		return nil, eris.New("vectorindex: result has no metadata column")
	}

	matches := make([]Match, 0, res.ResultCount)
	for i := 0; i < res.ResultCount; i++ {
		m := Match{}
		if res.IDs != nil {
			if id, err := res.IDs.GetAsString(i); err == nil {
				m.ID = id
			}
		}
		if i < len(res.Scores) {
			m.Score = res.Scores[i]
		}
		raw, err := metaCol.GetAsString(i)
		if err != nil {
			return nil, eris.Wrapf(err, "vectorindex: read metadata row %d", i)
		}
		if !json.Valid([]byte(raw)) {
			zap.L().Warn("skipping row with invalid metadata", zap.String("id", m.ID))
			continue
		}
		m.Metadata = json.RawMessage(raw)
		matches = append(matches, m)
	}
	return matches, nil
}

// Upsert writes records, replacing rows with the same ID.
func (c *Collection) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	metas := make([]string, len(records))
	vectors := make([][]float32, len(records))
	for i, r := range records {
		if len(r.Vector) != c.dim {
			return eris.Errorf("vectorindex: record %s has dimension %d, want %d", r.ID, len(r.Vector), c.dim)
		}
		if len(r.Metadata) > maxMetadataLength {
			return eris.Errorf("vectorindex: record %s metadata exceeds %d bytes", r.ID, maxMetadataLength)
		}
		ids[i] = r.ID
		metas[i] = string(r.Metadata)
		vectors[i] = r.Vector
	}

	_, err := c.client.api.Upsert(ctx, c.name, "",
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldMetadata, metas),
		entity.NewColumnFloatVector(FieldEmbedding, c.dim, vectors),
	)
	if err != nil {
		return eris.Wrapf(err, "vectorindex: upsert %s", c.name)
	}
	return nil
}

// EnsureSchema creates the collection and its vector index when missing,
// then loads it for search.
func (c *Collection) EnsureSchema(ctx context.Context) error {
	api := c.client.api
	has, err := api.HasCollection(ctx, c.name)
	if err != nil {
		return eris.Wrapf(err, "vectorindex: describe %s", c.name)
	}
	if !has {
		schema := entity.NewSchema().
			WithName(c.name).
			WithDescription("patentmate " + c.name).
			WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).
				WithIsPrimaryKey(true).WithMaxLength(maxIDLength)).
			WithField(entity.NewField().WithName(FieldMetadata).WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(maxMetadataLength)).
			WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(c.dim)))
		if err := api.CreateCollection(ctx, schema, 1); err != nil {
			return eris.Wrapf(err, "vectorindex: create %s", c.name)
		}
		idx, err := entity.NewIndexIvfFlat(entity.COSINE, defaultNList)
		if err != nil {
			return eris.Wrap(err, "vectorindex: index params")
		}
		if err := api.CreateIndex(ctx, c.name, FieldEmbedding, idx, false); err != nil {
			return eris.Wrapf(err, "vectorindex: index %s", c.name)
		}
		zap.L().Info("created vector collection", zap.String("collection", c.name), zap.Int("dim", c.dim))
	}
	if err := api.LoadCollection(ctx, c.name, false); err != nil {
		return eris.Wrapf(err, "vectorindex: load %s", c.name)
	}
	return nil
}
