// SPDX-License-Identifier: Apache-2.0

// Package manifest parses dbt-style manifest.json files: the project graph
// of models and sources that every downstream component (DAG construction,
// contract diffing, state comparison) is built from.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaOnce sync.Once
	compiledSchemaErr  error
)

func schema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compiledSchemaErr = fmt.Errorf("manifest: decode embedded schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("manifest.schema.json", doc); err != nil {
			compiledSchemaErr = fmt.Errorf("manifest: add schema resource: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = c.Compile("manifest.schema.json")
	})
	return compiledSchema, compiledSchemaErr
}

// Manifest is the subset of dbt's manifest.json this tool relies on: models,
// sources and the precomputed parent/child maps.
type Manifest struct {
	Metadata  Metadata            `json:"metadata"`
	Nodes     map[string]Node     `json:"nodes"`
	Sources   map[string]Source   `json:"sources"`
	ParentMap map[string][]string `json:"parent_map,omitempty"`
	ChildMap  map[string][]string `json:"child_map,omitempty"`
}

// Metadata describes the dbt invocation that produced the manifest.
type Metadata struct {
	DbtSchemaVersion string  `json:"dbt_schema_version"`
	DbtVersion       string  `json:"dbt_version"`
	GeneratedAt      string  `json:"generated_at"`
	InvocationID     *string `json:"invocation_id,omitempty"`
}

// Node is a model, test, snapshot or seed entry in the manifest.
type Node struct {
	UniqueID         string               `json:"unique_id"`
	Name             string               `json:"name"`
	ResourceType     string               `json:"resource_type"`
	PackageName      string               `json:"package_name"`
	Path             string               `json:"path"`
	OriginalFilePath string               `json:"original_file_path"`
	Database         *string              `json:"database,omitempty"`
	Schema           *string              `json:"schema,omitempty"`
	Alias            *string              `json:"alias,omitempty"`
	Config           NodeConfig           `json:"config"`
	Description      string               `json:"description,omitempty"`
	Columns          map[string]ColumnDef `json:"columns,omitempty"`
	DependsOn        DependsOn            `json:"depends_on"`
	FQN              []string             `json:"fqn,omitempty"`
}

// NodeConfig holds the subset of dbt_project.yml / model-level config this
// tool reasons about.
type NodeConfig struct {
	Enabled      *bool           `json:"enabled,omitempty"`
	Materialized *string         `json:"materialized,omitempty"`
	Contract     *ContractConfig `json:"contract,omitempty"`
}

// IsEnabled reports whether the node is enabled, defaulting to true when the
// field is absent, matching dbt's own default.
func (c NodeConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ContractConfig mirrors dbt's `contract: {enforced: true}` model config.
type ContractConfig struct {
	Enforced bool `json:"enforced"`
}

// ColumnDef is a column declared in a model's YAML properties, optionally
// carrying a contract data_type.
type ColumnDef struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	DataType    *string `json:"data_type,omitempty"`
}

// DependsOn lists the upstream unique_ids a node references.
type DependsOn struct {
	Nodes []string `json:"nodes,omitempty"`
}

// Source is a declared source table, e.g. a raw-loaded table dbt does not
// build but models can select from.
type Source struct {
	UniqueID   string               `json:"unique_id"`
	SourceName string               `json:"source_name"`
	Name       string               `json:"name"`
	Database   *string              `json:"database,omitempty"`
	Schema     string               `json:"schema"`
	Identifier *string              `json:"identifier,omitempty"`
	Columns    map[string]ColumnDef `json:"columns,omitempty"`
}

// Parse decodes and validates raw manifest JSON. The document is first
// checked against the embedded JSON schema so malformed manifests are
// rejected with a precise path before any field is trusted, then decoded
// into the typed Manifest.
func Parse(data []byte) (*Manifest, error) {
	sch, err := schema()
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, &ParseError{Cause: err}
	}
	if err := sch.Validate(generic); err != nil {
		return nil, &SchemaValidationError{Cause: err}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Cause: err}
	}
	return &m, nil
}

// Models returns every node whose resource_type is "model", keyed by
// unique_id.
func (m *Manifest) Models() map[string]*Node {
	out := make(map[string]*Node)
	for id := range m.Nodes {
		n := m.Nodes[id]
		if n.ResourceType == "model" {
			out[id] = &n
		}
	}
	return out
}

// Node looks up a node by unique_id.
func (m *Manifest) Node(uniqueID string) (*Node, bool) {
	n, ok := m.Nodes[uniqueID]
	if !ok {
		return nil, false
	}
	return &n, true
}

// Source looks up a source by unique_id.
func (m *Manifest) Source(uniqueID string) (*Source, bool) {
	s, ok := m.Sources[uniqueID]
	if !ok {
		return nil, false
	}
	return &s, true
}
