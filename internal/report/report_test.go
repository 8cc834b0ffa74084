// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlhealth/indexadvisor/internal/advisor"
	"github.com/sqlhealth/indexadvisor/internal/models"
)

func buildInput() BuildInput {
	return BuildInput{
		Instance:      "PRODSQL01",
		Database:      "Sales",
		EngineEdition: "Enterprise",
		CollectedAt:   time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		Thresholds:    advisor.DefaultThresholds(),
		Usage: []models.IndexUsage{
			{
				SchemaName: "dbo", TableName: "Orders", IndexName: "PK_Orders",
				IndexType: "CLUSTERED", IsClustered: true,
				UserSeeks: 50000, UserScans: 12, UserUpdates: 9000,
			},
			{
				SchemaName: "dbo", TableName: "Orders", IndexName: "IX_Orders_LegacyCode",
				IndexType: "NONCLUSTERED",
				UserUpdates: 9000,
			},
			{
				SchemaName: "dbo", TableName: "Orders", IndexName: "IX_Orders_Status",
				IndexType: "NONCLUSTERED",
				UserSeeks:   2000,
				UserLookups: 1800,
			},
		},
		Missing: []models.MissingIndex{
			{
				SchemaName: "dbo", TableName: "Customers",
				EqualityColumns: "[Region]", IncludedColumns: "[Name], [Email]",
				ImprovementMeasure: 4321.5, AvgUserImpact: 88.2, UserSeeks: 120,
			},
		},
		Statements: []models.LookupStatement{
			{
				QueryHash:        "0xdeadbeef",
				PlanHandle:       "0x0600ff33",
				StatementText:    "SELECT Name FROM dbo.Customers WHERE Region = 'West'",
				ExecutionCount:   400,
				AvgLogicalReads:  12345,
				AvgElapsedTimeMS: 8.2,
			},
		},
		XETargets: []models.XESessionTarget{
			{SessionName: "IndexUsageCapture", TargetName: "ring_buffer", ExecutionCount: 7, BytesWritten: 2048},
		},
	}
}

func TestBuildOrdersByPriority(t *testing.T) {
	r := Build(buildInput())

	require.Len(t, r.Findings, 3)
	assert.Equal(t, "IX_Orders_LegacyCode", r.Findings[0].Index)
	assert.Equal(t, advisor.LabelDropUnused, r.Findings[0].Label)
	assert.Equal(t, 90, r.Findings[0].Priority)
	assert.Equal(t,
		"DROP INDEX [IX_Orders_LegacyCode] ON [dbo].[Orders];",
		r.Findings[0].Remediation)

	assert.Equal(t, "IX_Orders_Status", r.Findings[1].Index)
	assert.Equal(t, advisor.LabelHighLookups, r.Findings[1].Label)
	assert.Contains(t, r.Findings[1].Remediation, "DROP_EXISTING = ON")

	assert.Equal(t, "PK_Orders", r.Findings[2].Index)
	assert.Equal(t, advisor.LabelHealthy, r.Findings[2].Label)
	assert.Empty(t, r.Findings[2].Remediation)
}

func TestBuildMissingIndexDDL(t *testing.T) {
	r := Build(buildInput())

	require.Len(t, r.MissingIndexes, 1)
	m := r.MissingIndexes[0]
	assert.Equal(t,
		"CREATE NONCLUSTERED INDEX [IX_Customers_Region]\n"+
			"ON [dbo].[Customers] ([Region])\n"+
			"INCLUDE ([Name], [Email]);",
		m.CreateStatement)
}

func TestBuildAttachesDeltas(t *testing.T) {
	in := buildInput()
	in.Deltas = map[string]UsageDelta{
		"Sales.dbo.Orders.IX_Orders_Status": {Seeks: 40, Lookups: 35},
	}
	// Key() includes the database name from the row.
	for i := range in.Usage {
		in.Usage[i].DatabaseName = "Sales"
	}

	r := Build(in)
	var found *Finding
	for i := range r.Findings {
		if r.Findings[i].Index == "IX_Orders_Status" {
			found = &r.Findings[i]
		}
	}
	require.NotNil(t, found)
	require.NotNil(t, found.Delta)
	assert.Equal(t, uint64(40), found.Delta.Seeks)

	for _, f := range r.Findings {
		if f.Index != "IX_Orders_Status" {
			assert.Nil(t, f.Delta)
		}
	}
}

func TestBuildKeepsStatementIdentifiers(t *testing.T) {
	r := Build(buildInput())

	require.Len(t, r.LookupStatements, 1)
	assert.Equal(t, "0xdeadbeef", r.LookupStatements[0].QueryHash)
	assert.Equal(t, "0x0600ff33", r.LookupStatements[0].PlanHandle)
}

func TestBuildObfuscatesScanPlans(t *testing.T) {
	in := buildInput()
	in.Obfuscator = NewObfuscator()
	in.ScanPlans = []models.QueryStoreScanPlan{{
		QueryID:         7,
		QuerySQLText:    "SELECT * FROM dbo.Orders WHERE Total = 500",
		QueryPlan:       `<ShowPlanXML><StmtSimple StatementText="SELECT * FROM dbo.Orders WHERE Total = 500"></StmtSimple></ShowPlanXML>`,
		CountExecutions: 12,
	}}

	r := Build(in)
	require.Len(t, r.ScanPlans, 1)
	p := r.ScanPlans[0]
	assert.NotContains(t, p.QueryText, "500")
	assert.Contains(t, p.QueryPlan, "ShowPlanXML")
	assert.NotContains(t, p.QueryPlan, "500")
}

func TestBuildKeepsRawPlanWithoutObfuscation(t *testing.T) {
	in := buildInput()
	in.ScanPlans = []models.QueryStoreScanPlan{{
		QueryID:   7,
		QueryPlan: "<ShowPlanXML></ShowPlanXML>",
	}}

	r := Build(in)
	require.Len(t, r.ScanPlans, 1)
	assert.Equal(t, "<ShowPlanXML></ShowPlanXML>", r.ScanPlans[0].QueryPlan)
}

func TestRenderJSONRoundTrip(t *testing.T) {
	r := Build(buildInput())

	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, r))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	if diff := cmp.Diff(*r, decoded); diff != "" {
		t.Errorf("report changed across JSON round trip (-want +got):\n%s", diff)
	}
}

func TestRenderYAML(t *testing.T) {
	r := Build(buildInput())

	var buf bytes.Buffer
	require.NoError(t, RenderYAML(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "instance: PRODSQL01")
	assert.Contains(t, out, "CONSIDER DROPPING - Unused")
}

func TestRenderTable(t *testing.T) {
	r := Build(buildInput())

	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "PRODSQL01")
	assert.Contains(t, out, "IX_Orders_LegacyCode")
	assert.Contains(t, out, "DROP INDEX [IX_Orders_LegacyCode] ON [dbo].[Orders];")
	assert.Contains(t, out, "Missing index recommendations")
	assert.Contains(t, out, "IndexUsageCapture")

	// Drop remediation comes before the missing index section.
	assert.Less(t,
		strings.Index(out, "DROP INDEX"),
		strings.Index(out, "Missing index recommendations"))
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	got := truncate(strings.Repeat("ü", 100), 80)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 80, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestParseFormat(t *testing.T) {
	for _, ok := range []string{"table", "json", "yaml"} {
		f, err := ParseFormat(ok)
		require.NoError(t, err)
		assert.Equal(t, Format(ok), f)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}
