// SPDX-License-Identifier: Apache-2.0

// Package template renders the Jinja-like templating dbt projects use inside
// their SQL files: {{ ref(...) }}, {{ source(...) }}, {{ var(...) }} and
// {{ config(...) }} calls, plus {# ... #} comments. It does not attempt to
// support arbitrary Jinja (loops, macros, filters beyond the handful dbt
// projects rely on) — only what's needed to resolve a model to analyzable
// SQL.
package template

// Context supplies the values the built-in functions resolve against: the
// project's declared variables. It carries no manifest, so ref() and
// source() always render their bare model or source.table names, never a
// resolved database.schema.table reference.
type Context struct {
	// Vars holds values set via `dbt_project.yml`'s `vars:` block or
	// `--vars` on the CLI, consulted by the var() function.
	Vars map[string]string
}

// NewContext builds a Context with the given variables.
func NewContext(vars map[string]string) Context {
	if vars == nil {
		vars = map[string]string{}
	}
	return Context{Vars: vars}
}
