// SPDX-License-Identifier: Apache-2.0

package diag

import "regexp"

var (
	singleQuotedIdentifier  = regexp.MustCompile(`'([a-zA-Z_][a-zA-Z0-9_]*)'`)
	backtickedQualifiedName = regexp.MustCompile("`([a-zA-Z_][a-zA-Z0-9_.]*)`")
)

const redacted = "<REDACTED>"

// Redact returns a copy of d with single-quoted identifiers, back-ticked
// qualified names, downstream impact and non-type-name expected/actual
// values replaced with <REDACTED>. Per spec §7, a value is preserved only
// when it is entirely uppercase letters or digits (i.e. looks like a type
// name such as INT64 or STRING).
func (d Diagnostic) Redact() Diagnostic {
	d.Message = singleQuotedIdentifier.ReplaceAllString(d.Message, "'"+redacted+"'")
	d.Message = backtickedQualifiedName.ReplaceAllString(d.Message, "`"+redacted+"`")

	if d.Expected != nil {
		v := redactValue(*d.Expected)
		d.Expected = &v
	}
	if d.Actual != nil {
		v := redactValue(*d.Actual)
		d.Actual = &v
	}

	if len(d.Impact) > 0 {
		impact := make([]string, len(d.Impact))
		for i := range impact {
			impact[i] = redacted
		}
		d.Impact = impact
	}

	return d
}

func redactValue(v string) string {
	if isTypeNameLike(v) {
		return v
	}
	return redacted
}

func isTypeNameLike(v string) bool {
	for _, r := range v {
		if !(isUpper(r) || isDigit(r)) {
			return false
		}
	}
	return true
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// RedactAll redacts every diagnostic in ds, returning a new slice.
func RedactAll(ds []Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(ds))
	for i, d := range ds {
		out[i] = d.Redact()
	}
	return out
}
