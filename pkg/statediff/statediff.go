// SPDX-License-Identifier: Apache-2.0

// Package statediff compares a current dbt manifest against a prior
// (production) state manifest to support Slim-CI-style workflows: which
// models are new, deleted, or modified, and what their blast radius is.
package statediff

import (
	"sort"

	"github.com/sqlcontract/sqlcontract/pkg/dag"
	"github.com/sqlcontract/sqlcontract/pkg/manifest"
)

// Reason is why a model is considered modified.
type Reason string

const (
	ReasonNew                 Reason = "new model"
	ReasonSQLChanged          Reason = "SQL changed"
	ReasonColumnsChanged      Reason = "columns changed"
	ReasonDependenciesChanged Reason = "dependencies changed"
	ReasonContractChanged     Reason = "contract changed"
	ReasonMaterializedChanged Reason = "materialization changed"
	ReasonDeleted             Reason = "deleted"
)

// ModifiedModel is one model found to differ between the two manifests.
type ModifiedModel struct {
	UniqueID         string
	Name             string
	Reasons          []Reason
	DownstreamImpact []string
}

// Result is the full comparison between current and state manifests.
type Result struct {
	ModifiedModels    []ModifiedModel
	NewModels         []string
	DeletedModels     []string
	AllAffectedModels []string
	TotalBlastRadius  int
}

// HasChanges reports whether any model was added, removed, or modified.
func (r Result) HasChanges() bool {
	return len(r.ModifiedModels) > 0 || len(r.NewModels) > 0 || len(r.DeletedModels) > 0
}

// Compare diffs current against state, computing each modified/new node's
// downstream closure via the current manifest's DAG — deleted nodes aren't
// in that DAG, so they contribute no downstream impact, per the blast-radius
// rule in the state comparison algorithm.
func Compare(current, state *manifest.Manifest) Result {
	currentDag := dag.FromManifest(current)

	affected := map[string]bool{}
	var modified []ModifiedModel
	var newModels []string

	for id, curNode := range current.Nodes {
		downstream := currentDag.Downstream(id)

		if stateNode, ok := state.Nodes[id]; ok {
			reasons := detectModifications(curNode, stateNode)
			if len(reasons) == 0 {
				continue
			}
			affected[id] = true
			for _, d := range downstream {
				affected[d] = true
			}
			modified = append(modified, ModifiedModel{
				UniqueID:         id,
				Name:             curNode.Name,
				Reasons:          reasons,
				DownstreamImpact: downstream,
			})
			continue
		}

		affected[id] = true
		for _, d := range downstream {
			affected[d] = true
		}
		modified = append(modified, ModifiedModel{
			UniqueID:         id,
			Name:             curNode.Name,
			Reasons:          []Reason{ReasonNew},
			DownstreamImpact: downstream,
		})
		newModels = append(newModels, id)
	}

	var deleted []string
	for id := range state.Nodes {
		if _, ok := current.Nodes[id]; !ok {
			deleted = append(deleted, id)
			affected[id] = true
		}
	}

	sort.Slice(modified, func(i, j int) bool { return modified[i].UniqueID < modified[j].UniqueID })
	sort.Strings(newModels)
	sort.Strings(deleted)

	allAffected := make([]string, 0, len(affected))
	for id := range affected {
		allAffected = append(allAffected, id)
	}
	sort.Strings(allAffected)

	return Result{
		ModifiedModels:    modified,
		NewModels:         newModels,
		DeletedModels:     deleted,
		AllAffectedModels: allAffected,
		TotalBlastRadius:  len(allAffected),
	}
}

func detectModifications(current, state manifest.Node) []Reason {
	var reasons []Reason

	if current.Path != state.Path || current.OriginalFilePath != state.OriginalFilePath {
		reasons = append(reasons, ReasonSQLChanged)
	}
	if columnsChanged(current.Columns, state.Columns) {
		reasons = append(reasons, ReasonColumnsChanged)
	}
	if dependenciesChanged(current.DependsOn.Nodes, state.DependsOn.Nodes) {
		reasons = append(reasons, ReasonDependenciesChanged)
	}
	if contractChanged(current.Config.Contract, state.Config.Contract) {
		reasons = append(reasons, ReasonContractChanged)
	}
	if strPtrOrNil(current.Config.Materialized) != strPtrOrNil(state.Config.Materialized) {
		reasons = append(reasons, ReasonMaterializedChanged)
	}

	return reasons
}

func columnsChanged(current, state map[string]manifest.ColumnDef) bool {
	if len(current) != len(state) {
		return true
	}
	for name, curCol := range current {
		stateCol, ok := state[name]
		if !ok {
			return true
		}
		if strPtrOrNil(curCol.DataType) != strPtrOrNil(stateCol.DataType) {
			return true
		}
	}
	return false
}

func dependenciesChanged(current, state []string) bool {
	if len(current) != len(state) {
		return true
	}
	currentSet := make(map[string]bool, len(current))
	for _, n := range current {
		currentSet[n] = true
	}
	for _, n := range state {
		if !currentSet[n] {
			return true
		}
	}
	return false
}

func contractChanged(current, state *manifest.ContractConfig) bool {
	switch {
	case current != nil && state != nil:
		return current.Enforced != state.Enforced
	case current == nil && state == nil:
		return false
	default:
		return true
	}
}

func strPtrOrNil(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
