// SPDX-License-Identifier: Apache-2.0

// Package infertest holds named Schema/InferenceContext fixtures shared by
// inference tests, in the style of the teacher's per-operation expect
// fixtures: a fixed set of package-level values the tests assert equality
// against, rather than building equivalent structures inline in every test.
package infertest

import (
	"github.com/sqlcontract/sqlcontract/pkg/infer"
	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
	"github.com/sqlcontract/sqlcontract/pkg/types"
)

// UsersSchema is a small users table: id (Int), name (String), email
// (String), signup_date (Date).
var UsersSchema = types.NewSchema(
	types.NewColumn("id", types.NewInt()),
	types.NewColumn("name", types.NewString()),
	types.NewColumn("email", types.NewString()),
	types.NewColumn("signup_date", types.NewDate()),
)

// OrdersSchema is a small orders table: id (Int), user_id (Int), amount
// (Decimal(10,2)), status (String).
var OrdersSchema = types.NewSchema(
	types.NewColumn("id", types.NewInt()),
	types.NewColumn("user_id", types.NewInt()),
	types.NewColumn("amount", types.NewDecimal(types.U16(10), types.U16(2))),
	types.NewColumn("status", types.NewString()),
)

// CustomersSchema is a small customers table: id (Int), name (String),
// sharing its id/name column names with UsersSchema to exercise left-biased
// join merge (customers.name is shadowed when joined after users).
var CustomersSchema = types.NewSchema(
	types.NewColumn("id", types.NewInt()),
	types.NewColumn("name", types.NewString()),
	types.NewColumn("region", types.NewString()),
)

// NewFixtureContext builds an InferenceContext over the standard fixture
// tables (users, orders, customers), bound both by their bare name and by a
// "model.<name>" unique_id form, as FromManifest would bind them.
func NewFixtureContext(dialect sqlast.Dialect, useCatalog bool) *infer.InferenceContext {
	ctx := infer.NewInferenceContext(dialect, useCatalog)
	for name, schema := range map[string]types.Schema{
		"users":     UsersSchema,
		"orders":    OrdersSchema,
		"customers": CustomersSchema,
	} {
		ctx.Bind(name, schema)
		ctx.Bind("model."+name, schema)
	}
	return ctx
}
