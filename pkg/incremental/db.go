// SPDX-License-Identifier: Apache-2.0

package incremental

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/sqlcontract/sqlcontract/pkg/config"
	"github.com/sqlcontract/sqlcontract/pkg/contract"
	"github.com/sqlcontract/sqlcontract/pkg/dag"
	"github.com/sqlcontract/sqlcontract/pkg/diag"
	"github.com/sqlcontract/sqlcontract/pkg/drift"
	"github.com/sqlcontract/sqlcontract/pkg/infer"
	"github.com/sqlcontract/sqlcontract/pkg/logging"
	"github.com/sqlcontract/sqlcontract/pkg/manifest"
	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
	"github.com/sqlcontract/sqlcontract/pkg/sqlparse"
	"github.com/sqlcontract/sqlcontract/pkg/template"
	"github.com/sqlcontract/sqlcontract/pkg/ttlcache"
	"github.com/sqlcontract/sqlcontract/pkg/types"
	"github.com/sqlcontract/sqlcontract/pkg/warehouse"
)

// Database is the incremental graph's one long-lived mutable object (spec
// §9 "Global state"): the current input values plus the memo tables for
// every derived query. Its inputs (ManifestInput, ConfigInput, Catalog and
// each SqlFile) are meant to be replaced, not mutated, by a single writer
// between evaluation rounds; the derived queries below are safe to invoke
// concurrently from many readers during a round.
type Database struct {
	Manifest *Input[[]byte]
	Config   *Input[config.Config]
	Catalog  *Input[[]byte]

	sqlFilesMu sync.RWMutex
	sqlFiles   map[string]*Input[string]

	manifestMemo   *memoTable[struct{}, *manifest.Manifest]
	parseMemo      *memoTable[string, sqlast.Statement]
	inferMemo      *memoTable[string, types.Schema]
	contractMemo   *memoTable[string, []diag.Diagnostic]
	downstreamMemo *memoTable[string, []string]
	driftMemo      *memoTable[string, drift.Detection]

	// Warehouse and SchemaCache back DriftCheck: Warehouse is nil until a
	// caller opts in (drift detection needs a live connection, unlike every
	// other query here), and SchemaCache defaults to a populated cache so
	// repeated drift checks against the same table within a TTL window
	// don't re-issue a warehouse round-trip.
	Warehouse   warehouse.Adapter
	SchemaCache *ttlcache.Cache

	// Logger receives cache/fetch progress events. Defaults to a noop so
	// callers that don't care about logging never need to set it.
	Logger logging.Logger
}

// NewDatabase builds an empty Database. Callers set inputs with SetManifest,
// SetConfig, SetCatalog and SetSQLFile before running queries.
func NewDatabase() *Database {
	return &Database{
		Manifest: NewInputWithEqual[[]byte](nil, bytes.Equal),
		Config:   NewInputWithEqual(config.Config{}, reflect.DeepEqual),
		Catalog:  NewInputWithEqual[[]byte](nil, bytes.Equal),
		sqlFiles: make(map[string]*Input[string]),

		manifestMemo:   newMemoTable[struct{}, *manifest.Manifest](),
		parseMemo:      newMemoTable[string, sqlast.Statement](),
		inferMemo:      newMemoTable[string, types.Schema](),
		contractMemo:   newMemoTable[string, []diag.Diagnostic](),
		downstreamMemo: newMemoTable[string, []string](),
		driftMemo:      newMemoTable[string, drift.Detection](),
		SchemaCache:    ttlcache.NewDefault(),
		Logger:         logging.NewNoopLogger(),
	}
}

// SetWarehouse installs the adapter DriftCheck fetches live schemas
// through. Drift checking returns an error until this is called.
func (db *Database) SetWarehouse(adapter warehouse.Adapter) { db.Warehouse = adapter }

// SetLogger installs the logger cache/fetch progress events report
// through, replacing the default noop.
func (db *Database) SetLogger(l logging.Logger) { db.Logger = l }

// SetManifest replaces the current raw manifest JSON.
func (db *Database) SetManifest(raw []byte) { db.Manifest.Set(raw) }

// SetConfig replaces the current decoded configuration.
func (db *Database) SetConfig(cfg config.Config) { db.Config.Set(cfg) }

// SetCatalog replaces the current raw warehouse catalog JSON, if any.
func (db *Database) SetCatalog(raw []byte) { db.Catalog.Set(raw) }

// SetSQLFile creates or updates the SqlFile input at path. Per spec.md §3
// "Lifecycle", replacing a path's content with an equal value is a no-op;
// replacing it with distinct content is equivalent to creating a new input
// under the same path (its version simply advances).
func (db *Database) SetSQLFile(path, contents string) {
	db.sqlFilesMu.Lock()
	defer db.sqlFilesMu.Unlock()
	in, ok := db.sqlFiles[path]
	if !ok {
		db.sqlFiles[path] = NewInput(contents)
		return
	}
	in.Set(contents)
}

func (db *Database) sqlFile(path string) (*Input[string], bool) {
	db.sqlFilesMu.RLock()
	defer db.sqlFilesMu.RUnlock()
	in, ok := db.sqlFiles[path]
	return in, ok
}

// ManifestQuery parses the current raw manifest JSON, memoized against
// Manifest's version. A nil/empty manifest input yields a nil result.
func (db *Database) ManifestQuery(ctx context.Context) (*manifest.Manifest, error) {
	return db.manifestMemo.get(ctx, struct{}{}, func(tr *Tracker) (*manifest.Manifest, error) {
		raw := Read(tr, db.Manifest)
		if len(raw) == 0 {
			return nil, nil
		}
		return manifest.Parse(raw)
	})
}

// ParseSQL renders and parses the SQL file at path, memoized against that
// file's version and the configuration's version (the dialect it parses
// under).
func (db *Database) ParseSQL(ctx context.Context, path string) (sqlast.Statement, error) {
	return db.parseMemo.get(ctx, path, func(tr *Tracker) (sqlast.Statement, error) {
		in, ok := db.sqlFile(path)
		if !ok {
			return nil, fmt.Errorf("incremental: no sql file registered for %q", path)
		}
		contents := Read(tr, in)
		cfg := Read(tr, db.Config)

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rendered, err := template.WithDefaults().Preprocess(contents, &path)
		if err != nil {
			return nil, err
		}
		return sqlparse.Parse(rendered.RenderedSQL, cfg.Dialect, path)
	})
}

// InferSchema infers path's output schema, memoized against the SQL file,
// the configuration and the manifest (the SELECT's FROM/JOIN targets
// resolve against the manifest's declared model and source schemas).
func (db *Database) InferSchema(ctx context.Context, path string) (types.Schema, error) {
	return db.inferMemo.get(ctx, path, func(tr *Tracker) (types.Schema, error) {
		stmt, err := db.ParseSQL(ctx, path)
		if err != nil {
			return types.Schema{}, err
		}
		cfg := Read(tr, db.Config)
		Read(tr, db.Manifest)
		if in, ok := db.sqlFile(path); ok {
			Read(tr, in)
		}
		m, err := db.ManifestQuery(ctx)
		if err != nil {
			return types.Schema{}, err
		}

		if err := ctx.Err(); err != nil {
			return types.Schema{}, err
		}

		catalog := Read(tr, db.Catalog)
		useCatalog := len(catalog) > 0

		inferCtx := infer.NewInferenceContext(cfg.Dialect, useCatalog)
		if m != nil {
			inferCtx = infer.FromManifest(m, cfg.Dialect, useCatalog)
		}
		return infer.Infer(stmt, inferCtx, path)
	})
}

// CheckContract infers uniqueID's model's SQL file and compares the result
// against its manifest-declared contract, returning the comparison's
// diagnostics. A model without an enforced contract yields no diagnostics.
// Memoized against the SQL file, configuration and manifest, same as
// InferSchema, plus the model's own declared columns and enforcement flag
// transitively through the manifest dependency.
func (db *Database) CheckContract(ctx context.Context, path, uniqueID string) ([]diag.Diagnostic, error) {
	return db.contractMemo.get(ctx, uniqueID, func(tr *Tracker) ([]diag.Diagnostic, error) {
		inferred, err := db.InferSchema(ctx, path)
		if err != nil {
			return nil, err
		}
		cfg := Read(tr, db.Config)
		Read(tr, db.Manifest)
		Read(tr, db.Catalog)
		if in, ok := db.sqlFile(path); ok {
			Read(tr, in)
		}
		m, err := db.ManifestQuery(ctx)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node, ok := m.Nodes[uniqueID]
		if !ok || node.Config.Contract == nil || !node.Config.Contract.Enforced {
			return nil, nil
		}
		if cfg.SkipsModel(uniqueID) {
			return nil, nil
		}

		inferCtx := infer.FromManifest(m, cfg.Dialect, false)
		declared, _ := inferCtx.Lookup(uniqueID)

		c := types.Contract{
			Schema: declared,
			Policy: types.EnforcementPolicy{
				AllowExtraColumns: cfg.Allowlist.AllowExtraColumns,
				AllowWidening:     cfg.Allowlist.AllowWidening,
			},
			Enforced: true,
		}

		diffResult := contract.Compare(uniqueID, c, inferred, &path)
		db.Logger.LogContractCheck(uniqueID, len(diffResult.Diagnostics))
		return diffResult.Diagnostics, nil
	})
}

// DownstreamModels returns uniqueID's downstream closure in the current
// manifest's DAG, memoized against the manifest's version.
func (db *Database) DownstreamModels(ctx context.Context, uniqueID string) ([]string, error) {
	return db.downstreamMemo.get(ctx, uniqueID, func(tr *Tracker) ([]string, error) {
		Read(tr, db.Manifest)
		m, err := db.ManifestQuery(ctx)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return dag.FromManifest(m).Downstream(uniqueID), nil
	})
}

// DriftCheck compares uniqueID's declared schema against what the
// warehouse actually reports for table, fetching through SchemaCache (so a
// live round-trip only happens once per TTL window) and db.Warehouse.
// Memoized by uniqueID against the manifest and configuration versions:
// while neither changes, a repeat call returns the earlier detection
// without consulting SchemaCache or the warehouse, whether or not the
// cached schema has since expired. SchemaCache only decides whether a
// recomputation fetches from the warehouse.
func (db *Database) DriftCheck(ctx context.Context, uniqueID string, table warehouse.TableIdentifier) (drift.Detection, error) {
	if db.Warehouse == nil {
		return drift.Detection{}, fmt.Errorf("incremental: drift check for %q requires a warehouse adapter (see SetWarehouse)", uniqueID)
	}
	return db.driftMemo.get(ctx, uniqueID, func(tr *Tracker) (drift.Detection, error) {
		Read(tr, db.Manifest)
		m, err := db.ManifestQuery(ctx)
		if err != nil {
			return drift.Detection{}, err
		}
		if m == nil {
			return drift.Detection{}, nil
		}
		cfg := Read(tr, db.Config)
		if cfg.SkipsModel(uniqueID) {
			return drift.Detection{}, nil
		}

		if err := ctx.Err(); err != nil {
			return drift.Detection{}, err
		}

		inferCtx := infer.FromManifest(m, cfg.Dialect, false)
		expected, _ := inferCtx.Lookup(uniqueID)

		actual, ok := db.SchemaCache.Get(table)
		if ok {
			db.Logger.LogCacheHit(table.String())
		} else {
			db.Logger.LogCacheMiss(table.String())
			actual, err = db.Warehouse.FetchSchema(ctx, table)
			if err != nil {
				return drift.Detection{}, err
			}
			db.SchemaCache.Insert(table, actual)
		}

		detection := drift.Detect(uniqueID, expected, actual, nil)
		db.Logger.LogDriftCheck(uniqueID, len(detection.Diagnostics))
		return detection, nil
	})
}
