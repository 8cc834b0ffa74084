// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"strings"
)

// QuoteName bracket-quotes a T-SQL identifier, doubling any closing bracket.
func QuoteName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// SplitColumnList splits a missing-index DMV column list such as
// "[CustomerID], [OrderDate]" into bare column names.
func SplitColumnList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(p, "[")
		p = strings.TrimSuffix(p, "]")
		if p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

func quoteAll(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteName(c)
	}
	return quoted
}

// SuggestedIndexName builds a conventional name for a recommended index.
func SuggestedIndexName(table string, keyColumns []string) string {
	parts := append([]string{"IX", table}, keyColumns...)
	return strings.Join(parts, "_")
}

// DropStatement renders the DDL to drop an index.
func DropStatement(schema, table, index string) string {
	return fmt.Sprintf("DROP INDEX %s ON %s.%s;", QuoteName(index), QuoteName(schema), QuoteName(table))
}

// CreateCoveringStatement renders the DDL for a missing-index recommendation.
// Equality columns lead the key, inequality columns follow, and fetched
// columns land in the INCLUDE list.
func CreateCoveringStatement(schema, table string, equality, inequality, included []string) string {
	key := append(append([]string{}, equality...), inequality...)
	if len(key) == 0 {
		// The optimizer occasionally records include-only suggestions; a key
		// is mandatory, so promote the first included column.
		if len(included) == 0 {
			return ""
		}
		key, included = included[:1], included[1:]
	}

	name := SuggestedIndexName(table, key)
	stmt := fmt.Sprintf("CREATE NONCLUSTERED INDEX %s\nON %s.%s (%s)",
		QuoteName(name), QuoteName(schema), QuoteName(table), strings.Join(quoteAll(key), ", "))
	if len(included) > 0 {
		stmt += fmt.Sprintf("\nINCLUDE (%s)", strings.Join(quoteAll(included), ", "))
	}
	return stmt + ";"
}

// WidenIndexStatement renders a rebuild template for a lookup-heavy index.
// The columns fetched by the lookups are not visible in the usage DMV, so the
// INCLUDE list stays a placeholder for the operator to fill from the plans.
func WidenIndexStatement(schema, table, index string) string {
	return fmt.Sprintf(
		"CREATE NONCLUSTERED INDEX %s\nON %s.%s (/* existing key columns */)\nINCLUDE (/* columns fetched by key lookups */)\nWITH (DROP_EXISTING = ON);",
		QuoteName(index), QuoteName(schema), QuoteName(table))
}
