// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sqlcontract/sqlcontract/cmd/flags"
	"github.com/sqlcontract/sqlcontract/pkg/config"
	"github.com/sqlcontract/sqlcontract/pkg/diag"
	"github.com/sqlcontract/sqlcontract/pkg/incremental"
	"github.com/sqlcontract/sqlcontract/pkg/logging"
	"github.com/sqlcontract/sqlcontract/pkg/manifest"
	"github.com/sqlcontract/sqlcontract/pkg/report"
	"github.com/sqlcontract/sqlcontract/pkg/ttlcache"
	"github.com/sqlcontract/sqlcontract/pkg/warehouse"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "check <manifest.json> <models-dir>",
		Short:     "Check every model's inferred schema against its declared contract and warehouse drift",
		Example:   "check target/manifest.json models/",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"manifest", "models-dir"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, _, err := runPipeline(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			if rep.HasErrors() {
				return fmt.Errorf("check: %d error(s) found across %d model(s)", rep.Summary.Errors, rep.Summary.ModelsChecked)
			}
			return nil
		},
	}
	flags.PipelineFlags(cmd)
	return cmd
}

func cacheStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "cache-stats <manifest.json> <models-dir>",
		Short:     "Run the check pipeline and report warehouse schema cache statistics instead of the full report",
		Example:   "cache-stats target/manifest.json models/",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"manifest", "models-dir"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cache, err := runPipeline(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			total, valid, expired := cache.Stats()
			stats := struct {
				Total   int `json:"total"`
				Valid   int `json:"valid"`
				Expired int `json:"expired"`
			}{total, valid, expired}

			out, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	flags.PipelineFlags(cmd)
	return cmd
}

// runPipeline loads configuration and the manifest, registers every model's
// SQL file and runs contract and (when a warehouse is configured) drift
// checks for each, returning the assembled report and the schema cache the
// run populated.
func runPipeline(ctx context.Context, manifestPath, modelsDir string) (report.Report, *ttlcache.Cache, error) {
	logger := logging.NewNoopLogger()
	if !flags.Quiet() {
		logger = logging.NewLogger()
	}

	res, err := config.Load(flags.ConfigPath())
	if err != nil {
		return report.Report{}, nil, err
	}
	for _, w := range res.Warnings {
		pterm.Warning.Println(w)
	}
	cfg := res.Config

	rawManifest, err := os.ReadFile(manifestPath)
	if err != nil {
		return report.Report{}, nil, fmt.Errorf("check: read manifest: %w", err)
	}

	db := incremental.NewDatabase()
	db.SetLogger(logger)
	db.SetConfig(cfg)
	db.SetManifest(rawManifest)

	if catalogPath := flags.CatalogPath(); catalogPath != "" {
		rawCatalog, err := os.ReadFile(catalogPath)
		if err != nil {
			return report.Report{}, nil, fmt.Errorf("check: read catalog: %w", err)
		}
		db.SetCatalog(rawCatalog)
	}

	adapter, err := warehouseAdapter(cfg, logger)
	if err != nil {
		return report.Report{}, nil, err
	}
	if adapter != nil {
		db.SetWarehouse(adapter)
	}

	m, err := db.ManifestQuery(ctx)
	if err != nil {
		return report.Report{}, nil, fmt.Errorf("check: parse manifest: %w", err)
	}
	if m == nil {
		return report.Report{}, nil, fmt.Errorf("check: empty manifest")
	}

	models := m.Models()
	logger.LogCheckStart(len(models))

	builder := report.NewBuilder(cfg.RedactSensitiveData, cfg.SeverityOverrideMap())
	for uniqueID, node := range models {
		if !node.Config.IsEnabled() {
			continue
		}
		if cfg.SkipsModel(uniqueID) {
			continue
		}

		path := filepath.Join(modelsDir, node.OriginalFilePath)
		contents, err := os.ReadFile(path)
		if err != nil {
			return report.Report{}, nil, fmt.Errorf("check: read model %s: %w", uniqueID, err)
		}
		db.SetSQLFile(path, string(contents))

		logger.LogModelParseStart(path)
		diags, err := db.CheckContract(ctx, path, uniqueID)
		if err != nil {
			var convertible interface{ ToDiagnostic() diag.Diagnostic }
			if !errors.As(err, &convertible) {
				return report.Report{}, nil, fmt.Errorf("check: %s: %w", uniqueID, err)
			}
			diags = []diag.Diagnostic{convertible.ToDiagnostic()}
		}
		logger.LogModelParseComplete(path)
		builder.AddDiagnostics(diags...)
		builder.ModelChecked()
		if node.Config.Contract != nil && node.Config.Contract.Enforced {
			builder.ContractValidated()
		}

		if adapter != nil {
			table := relation(node)
			detection, err := db.DriftCheck(ctx, uniqueID, table)
			if err != nil {
				var fetchErr *warehouse.FetchError
				if !errors.As(err, &fetchErr) {
					return report.Report{}, nil, fmt.Errorf("check: drift %s: %w", uniqueID, err)
				}
			} else {
				builder.AddDiagnostics(detection.Diagnostics...)
			}
		}
	}

	rep := builder.Build()
	logger.LogCheckComplete(rep.Summary.Errors, rep.Summary.Warnings)
	return rep, db.SchemaCache, nil
}

// relation derives the warehouse table a model resolves to, defaulting the
// alias to the model's own name, matching dbt's own default materialization
// naming.
func relation(node *manifest.Node) warehouse.TableIdentifier {
	var database, schema, alias string
	if node.Database != nil {
		database = *node.Database
	}
	if node.Schema != nil {
		schema = *node.Schema
	}
	if node.Alias != nil {
		alias = *node.Alias
	} else {
		alias = node.Name
	}
	return warehouse.TableIdentifier{Database: database, Schema: schema, Table: alias}
}

func warehouseAdapter(cfg config.Config, logger logging.Logger) (warehouse.Adapter, error) {
	if cfg.Warehouse == nil {
		return nil, nil
	}
	switch cfg.Warehouse.Type {
	case "postgres", "":
		db, err := sql.Open("postgres", cfg.Warehouse.DSN)
		if err != nil {
			return nil, fmt.Errorf("check: open warehouse connection: %w", err)
		}
		adapter := warehouse.NewPostgresAdapter(db)
		adapter.Logger = logger
		return adapter, nil
	default:
		return nil, fmt.Errorf("check: unsupported warehouse type %q", cfg.Warehouse.Type)
	}
}
