// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteName(t *testing.T) {
	assert.Equal(t, "[Orders]", QuoteName("Orders"))
	assert.Equal(t, "[weird]]name]", QuoteName("weird]name"))
}

func TestSplitColumnList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"[CustomerID]", []string{"CustomerID"}},
		{"[CustomerID], [OrderDate]", []string{"CustomerID", "OrderDate"}},
		{"[a],[b], [c]", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitColumnList(tt.in), "input %q", tt.in)
	}
}

func TestDropStatement(t *testing.T) {
	assert.Equal(t,
		"DROP INDEX [IX_Orders_Status] ON [dbo].[Orders];",
		DropStatement("dbo", "Orders", "IX_Orders_Status"))
}

func TestCreateCoveringStatement(t *testing.T) {
	stmt := CreateCoveringStatement("dbo", "Orders",
		[]string{"CustomerID"}, []string{"OrderDate"}, []string{"Total", "Status"})

	assert.Equal(t,
		"CREATE NONCLUSTERED INDEX [IX_Orders_CustomerID_OrderDate]\n"+
			"ON [dbo].[Orders] ([CustomerID], [OrderDate])\n"+
			"INCLUDE ([Total], [Status]);",
		stmt)
}

func TestCreateCoveringStatementNoIncludes(t *testing.T) {
	stmt := CreateCoveringStatement("dbo", "Orders", []string{"CustomerID"}, nil, nil)
	assert.Equal(t,
		"CREATE NONCLUSTERED INDEX [IX_Orders_CustomerID]\n"+
			"ON [dbo].[Orders] ([CustomerID]);",
		stmt)
}

func TestCreateCoveringStatementIncludeOnly(t *testing.T) {
	// Include-only suggestions promote the first included column to the key.
	stmt := CreateCoveringStatement("dbo", "Orders", nil, nil, []string{"Total", "Status"})
	assert.Contains(t, stmt, "ON [dbo].[Orders] ([Total])")
	assert.Contains(t, stmt, "INCLUDE ([Status])")

	assert.Empty(t, CreateCoveringStatement("dbo", "Orders", nil, nil, nil))
}

func TestWidenIndexStatement(t *testing.T) {
	stmt := WidenIndexStatement("dbo", "Orders", "IX_Orders_CustomerID")
	assert.Contains(t, stmt, "CREATE NONCLUSTERED INDEX [IX_Orders_CustomerID]")
	assert.Contains(t, stmt, "DROP_EXISTING = ON")
	assert.Contains(t, stmt, "/* columns fetched by key lookups */")
}
