package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlekbai/metaquery/internal/compiler/sqlgen"
	"github.com/atlekbai/metaquery/internal/db"
	"github.com/atlekbai/metaquery/internal/sampledata"
	"github.com/atlekbai/metaquery/internal/schema"
	"github.com/atlekbai/metaquery/internal/service"
	"github.com/atlekbai/metaquery/internal/source"
)

// runtime is everything a command needs to answer queries.
type runtime struct {
	svc     *service.MetadataService
	sources *source.Sources
}

func (r *runtime) Close() error {
	return r.sources.Close()
}

// openRuntime loads the registry and opens every configured source.
func openRuntime(ctx context.Context, opts *RootOptions) (*runtime, error) {
	cfg := opts.Config
	sources := source.NewSources()

	var regs []*schema.Registry
	if opts.Demo {
		reg, err := sampledata.Registry()
		if err != nil {
			return nil, fmt.Errorf("load sample domain: %w", err)
		}
		sqlDB, err := sampledata.OpenSQLite(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed sample data: %w", err)
		}
		sources.Add(sampledata.Connection, source.NewSQLSource(sqlDB, sqlgen.SQLite))
		regs = append(regs, reg)
	}
	if cfg.Models.Dir != "" {
		reg, err := schema.LoadDir(ctx, cfg.Models.Dir)
		if err != nil {
			sources.Close()
			return nil, fmt.Errorf("load models from %s: %w", cfg.Models.Dir, err)
		}
		regs = append(regs, reg)
	}
	if cfg.Metadata.DatabaseURL != "" {
		reg, err := loadRepository(ctx, cfg.Metadata.DatabaseURL)
		if err != nil {
			sources.Close()
			return nil, err
		}
		regs = append(regs, reg)
	}

	models, err := schema.Merge(regs...)
	if err != nil {
		sources.Close()
		return nil, err
	}

	for _, name := range cfg.SourceNames() {
		sc := cfg.Sources[name]
		src, err := source.Open(ctx, sc.Driver, sc.DSN)
		if err != nil {
			sources.Close()
			return nil, fmt.Errorf("source %s: %w", name, err)
		}
		sources.Add(name, src)
	}

	slog.Info("models loaded", "models", models.ModelCount(), "sources", sources.Len())

	exec := source.NewExecutor(sources, source.WithTimeout(cfg.Query.Timeout))
	svc := service.New(models, exec, service.WithMaxRows(cfg.Query.MaxRows))
	return &runtime{svc: svc, sources: sources}, nil
}

func loadRepository(ctx context.Context, url string) (*schema.Registry, error) {
	pool, err := db.NewPool(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to metadata repository: %w", err)
	}
	defer pool.Close()

	reg, err := schema.LoadPostgres(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("load models from metadata repository: %w", err)
	}
	return reg, nil
}
