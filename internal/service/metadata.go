// Package service exposes the query pipeline as top-level operations. An
// unknown domain, model or column reference is reported as absence
// (found == false, err == nil); malformed documents and execution faults
// are returned as errors.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atlekbai/metaquery/internal/codec"
	"github.com/atlekbai/metaquery/internal/compiler"
	"github.com/atlekbai/metaquery/internal/query"
	"github.com/atlekbai/metaquery/internal/result"
	"github.com/atlekbai/metaquery/internal/schema"
	"github.com/atlekbai/metaquery/internal/source"
)

type MetadataService struct {
	models   *schema.Registry
	executor *source.Executor
	maxRows  int
	logger   *slog.Logger
}

type Option func(*MetadataService)

// WithMaxRows caps every result at n rows. A negative n leaves results
// uncapped.
func WithMaxRows(n int) Option {
	return func(s *MetadataService) { s.maxRows = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *MetadataService) { s.logger = l }
}

func New(models *schema.Registry, executor *source.Executor, opts ...Option) *MetadataService {
	s := &MetadataService{models: models, executor: executor, maxRows: -1, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ── Models ──────────────────────────────────────────────────────────

// LoadModel returns the model, or false when either id is empty or unknown.
func (s *MetadataService) LoadModel(domainID, modelID string) (*schema.Model, bool) {
	return s.models.Get(domainID, modelID)
}

// ListBusinessModels lists model summaries, filtered by whichever ids are
// non-empty.
func (s *MetadataService) ListBusinessModels(domainID, modelID string) []schema.ModelSummary {
	return s.models.List(domainID, modelID)
}

func (s *MetadataService) ListBusinessModelsJSON(domainID, modelID string) ([]byte, error) {
	data, err := json.Marshal(s.ListBusinessModels(domainID, modelID))
	if err != nil {
		return nil, fmt.Errorf("encode model list: %w", err)
	}
	return data, nil
}

// ── Queries ─────────────────────────────────────────────────────────

// DoQuery compiles, runs and shapes req. rowLimit below zero means no
// limit beyond the service cap and the request's own limit.
func (s *MetadataService) DoQuery(ctx context.Context, req *query.Request, rowLimit int) (*result.ResultSet, bool, error) {
	plan, err := compiler.Compile(s.models, req)
	if errors.Is(err, compiler.ErrNotFound) {
		s.logger.InfoContext(ctx, "query references unknown metadata",
			"domain", req.DomainID,
			"model", req.ModelID,
			"reason", err.Error(),
		)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("compile query: %w", err)
	}

	raw, err := s.executor.Execute(ctx, plan, source.EffectiveLimit(rowLimit, s.maxRows))
	if err != nil {
		return nil, false, err
	}

	rs, err := result.Shape(plan, raw)
	if err != nil {
		return nil, false, fmt.Errorf("shape result of query %s: %w", plan.ID, err)
	}
	return rs, true, nil
}

func (s *MetadataService) DoXMLQuery(ctx context.Context, doc string, rowLimit int) (*result.ResultSet, bool, error) {
	req, err := codec.DecodeXML(strings.NewReader(doc))
	if err != nil {
		return nil, false, err
	}
	return s.DoQuery(ctx, req, rowLimit)
}

func (s *MetadataService) DoJSONQuery(ctx context.Context, doc string, rowLimit int) (*result.ResultSet, bool, error) {
	req, err := codec.DecodeJSON(strings.NewReader(doc))
	if err != nil {
		return nil, false, err
	}
	return s.DoQuery(ctx, req, rowLimit)
}

func (s *MetadataService) DoXMLQueryToJSON(ctx context.Context, doc string, rowLimit int) ([]byte, bool, error) {
	rs, found, err := s.DoXMLQuery(ctx, doc, rowLimit)
	return encode(rs, found, err, marshalJSON)
}

func (s *MetadataService) DoJSONQueryToJSON(ctx context.Context, doc string, rowLimit int) ([]byte, bool, error) {
	rs, found, err := s.DoJSONQuery(ctx, doc, rowLimit)
	return encode(rs, found, err, marshalJSON)
}

func (s *MetadataService) DoXMLQueryToCDAJSON(ctx context.Context, doc string, rowLimit int) ([]byte, bool, error) {
	rs, found, err := s.DoXMLQuery(ctx, doc, rowLimit)
	return encode(rs, found, err, result.CDAJSON)
}

func (s *MetadataService) DoJSONQueryToCDAJSON(ctx context.Context, doc string, rowLimit int) ([]byte, bool, error) {
	rs, found, err := s.DoJSONQuery(ctx, doc, rowLimit)
	return encode(rs, found, err, result.CDAJSON)
}

// QueryToXML renders req as an MQL document, typing its conditions by the
// model they reference.
func (s *MetadataService) QueryToXML(req *query.Request) ([]byte, bool, error) {
	model, ok := s.models.Get(req.DomainID, req.ModelID)
	if !ok {
		return nil, false, nil
	}
	data, err := codec.EncodeXML(req, model)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// JSONQueryToXML converts a JSON query document to MQL.
func (s *MetadataService) JSONQueryToXML(doc string) ([]byte, bool, error) {
	req, err := codec.DecodeJSON(strings.NewReader(doc))
	if err != nil {
		return nil, false, err
	}
	return s.QueryToXML(req)
}

func marshalJSON(rs *result.ResultSet) ([]byte, error) { return json.Marshal(rs) }

// encode renders a found result set and passes absence and failure through.
func encode(rs *result.ResultSet, found bool, err error, marshal func(*result.ResultSet) ([]byte, error)) ([]byte, bool, error) {
	if err != nil || !found {
		return nil, found, err
	}
	data, err := marshal(rs)
	if err != nil {
		return nil, false, fmt.Errorf("encode result: %w", err)
	}
	return data, true, nil
}
