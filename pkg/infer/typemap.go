// SPDX-License-Identifier: Apache-2.0

package infer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
	"github.com/sqlcontract/sqlcontract/pkg/types"
)

var decimalWithPrecisionScale = regexp.MustCompile(`^(?:NUMERIC|DECIMAL)\((\d+)\s*,\s*(\d+)\)$`)
var decimalWithPrecision = regexp.MustCompile(`^(?:NUMERIC|DECIMAL)\((\d+)\)$`)
var snowflakeNumber = regexp.MustCompile(`^NUMBER\((\d+)\s*,\s*(\d+)\)$`)
var arraySuffix = regexp.MustCompile(`^(.*)\[\]$`)
var arrayPrefix = regexp.MustCompile(`^_(.+)$`)

var integerFamily = map[string]bool{
	"INT": true, "INTEGER": true, "SMALLINT": true, "BIGINT": true, "TINYINT": true,
	"INT2": true, "INT4": true, "INT8": true, "SERIAL": true, "BIGSERIAL": true,
	"SMALLSERIAL": true, "OID": true,
}

var floatFamily = map[string]bool{
	"FLOAT": true, "FLOAT4": true, "FLOAT8": true, "REAL": true, "DOUBLE": true,
	"DOUBLE PRECISION": true,
}

var stringFamily = map[string]bool{
	"CHAR": true, "VARCHAR": true, "TEXT": true, "NAME": true, "CITEXT": true, "UUID": true,
	"BYTEA": true, "BYTES": true, "BINARY": true, "GEOMETRY": true, "GEOGRAPHY": true,
	"INET": true, "CIDR": true, "MACADDR": true, "MACADDR8": true, "BIT": true,
	"BIT VARYING": true, "VARBIT": true, "INTERVAL": true, "TSVECTOR": true, "TSQUERY": true,
	"INT4RANGE": true, "INT8RANGE": true, "NUMRANGE": true, "TSRANGE": true, "TSTZRANGE": true,
	"DATERANGE": true, "XML": true, "REGCLASS": true, "REGPROC": true, "REGTYPE": true,
}

var timestampFamily = map[string]bool{
	"TIMESTAMP": true, "TIMESTAMPTZ": true, "TIME": true, "TIMETZ": true, "DATETIME": true,
	"TIMESTAMP_NTZ": true, "TIMESTAMP_LTZ": true, "TIMESTAMP_TZ": true,
}

var jsonFamily = map[string]bool{"JSON": true, "JSONB": true, "VARIANT": true}
var structFamily = map[string]bool{"OBJECT": true, "STRUCT": true, "RECORD": true}

// MapWarehouseType maps a warehouse-reported or SQL-written type name (as
// in a CAST target or a manifest-declared data_type) onto the canonical
// LogicalType, per the dialect-specific table in the inference algorithm.
// The mapping does not vary by dialect beyond Snowflake's NUMBER(p,0)
// special case, since the family membership tables above already fold in
// every dialect's spelling of each family.
func MapWarehouseType(dialect sqlast.Dialect, raw string) types.LogicalType {
	norm := strings.ToUpper(strings.TrimSpace(raw))

	if m := arraySuffix.FindStringSubmatch(norm); m != nil {
		return types.NewArray(MapWarehouseType(dialect, m[1]))
	}
	if m := arrayPrefix.FindStringSubmatch(norm); m != nil {
		return types.NewArray(MapWarehouseType(dialect, m[1]))
	}
	if norm == "ARRAY" {
		return types.NewArray(types.NewUnknown())
	}

	if dialect == sqlast.Snowflake {
		if m := snowflakeNumber.FindStringSubmatch(norm); m != nil {
			if m[2] == "0" {
				return types.NewInt()
			}
			return types.NewDecimal(parseU16(m[1]), parseU16(m[2]))
		}
	}

	if norm == "MONEY" {
		return types.NewDecimal(types.U16(19), types.U16(2))
	}
	if norm == "NUMERIC" || norm == "DECIMAL" {
		return types.NewDecimal(nil, nil)
	}
	if m := decimalWithPrecisionScale.FindStringSubmatch(norm); m != nil {
		return types.NewDecimal(parseU16(m[1]), parseU16(m[2]))
	}
	if m := decimalWithPrecision.FindStringSubmatch(norm); m != nil {
		return types.NewDecimal(parseU16(m[1]), types.U16(0))
	}

	base := baseTypeName(norm)

	switch {
	case integerFamily[base]:
		return types.NewInt()
	case floatFamily[base]:
		return types.NewFloat()
	case base == "DATE":
		return types.NewDate()
	case timestampFamily[base]:
		return types.NewTimestamp()
	case jsonFamily[base]:
		return types.NewJson()
	case structFamily[base]:
		return types.NewStruct(nil)
	case stringFamily[base] || base == "VARCHAR" || base == "CHAR":
		return types.NewString()
	case base == "BOOL" || base == "BOOLEAN":
		return types.NewBool()
	default:
		return types.NewUnknown()
	}
}

// baseTypeName strips a trailing parenthesized modifier (VARCHAR(255),
// CHAR(10)) so family lookup only needs the bare type keyword.
func baseTypeName(norm string) string {
	if idx := strings.IndexByte(norm, '('); idx >= 0 {
		return strings.TrimSpace(norm[:idx])
	}
	return norm
}

func parseU16(s string) *uint16 {
	v, _ := strconv.ParseUint(s, 10, 16)
	return types.U16(uint16(v))
}
