// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package report assembles scraped rows and classifications into the
// operator-facing report and renders it as a table, JSON or YAML.
package report

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sqlhealth/indexadvisor/internal/advisor"
	"github.com/sqlhealth/indexadvisor/internal/models"
)

// UsageDelta is the per-interval counter growth for one index in watch mode.
type UsageDelta struct {
	Seeks   uint64 `json:"seeks" yaml:"seeks"`
	Scans   uint64 `json:"scans" yaml:"scans"`
	Lookups uint64 `json:"lookups" yaml:"lookups"`
	Updates uint64 `json:"updates" yaml:"updates"`
}

// Finding is one assessed index.
type Finding struct {
	Schema    string `json:"schema" yaml:"schema"`
	Table     string `json:"table" yaml:"table"`
	Index     string `json:"index" yaml:"index"`
	IndexType string `json:"index_type" yaml:"index_type"`

	Seeks   uint64 `json:"seeks" yaml:"seeks"`
	Scans   uint64 `json:"scans" yaml:"scans"`
	Lookups uint64 `json:"lookups" yaml:"lookups"`
	Updates uint64 `json:"updates" yaml:"updates"`

	Label          advisor.Label `json:"label" yaml:"label"`
	Priority       int           `json:"priority" yaml:"priority"`
	ScanSeekRatio  float64       `json:"scan_seek_ratio" yaml:"scan-seek-ratio"`
	LookupPct      float64       `json:"lookup_pct" yaml:"lookup-pct"`
	WriteReadRatio float64       `json:"write_read_ratio" yaml:"write-read-ratio"`

	Guidance    string `json:"guidance" yaml:"guidance"`
	Remediation string `json:"remediation,omitempty" yaml:"remediation,omitempty"`

	// Delta is present only in watch mode once a baseline exists.
	Delta *UsageDelta `json:"delta,omitempty" yaml:"delta,omitempty"`
}

// MissingIndexFinding is one optimizer-recorded covering-index gap with its
// generated CREATE statement.
type MissingIndexFinding struct {
	Schema             string  `json:"schema" yaml:"schema"`
	Table              string  `json:"table" yaml:"table"`
	ImprovementMeasure float64 `json:"improvement_measure" yaml:"improvement-measure"`
	AvgUserImpact      float64 `json:"avg_user_impact" yaml:"avg-user-impact"`
	UserSeeks          int64   `json:"user_seeks" yaml:"user-seeks"`
	CreateStatement    string  `json:"create_statement" yaml:"create-statement"`
}

// StatementFinding is one lookup-heavy cached statement. PlanHandle lets
// operators pull the full plan with sys.dm_exec_query_plan.
type StatementFinding struct {
	QueryHash        string  `json:"query_hash" yaml:"query-hash"`
	PlanHandle       string  `json:"plan_handle" yaml:"plan-handle"`
	StatementText    string  `json:"statement_text" yaml:"statement-text"`
	ExecutionCount   int64   `json:"execution_count" yaml:"execution-count"`
	AvgLogicalReads  int64   `json:"avg_logical_reads" yaml:"avg-logical-reads"`
	AvgElapsedTimeMS float64 `json:"avg_elapsed_time_ms" yaml:"avg-elapsed-time-ms"`
}

// ScanPlanFinding is one Query Store plan containing an index scan. QueryPlan
// carries the plan XML so operators can see which operator scanned what; it is
// scrubbed of literals when obfuscation is on.
type ScanPlanFinding struct {
	QueryID         int64   `json:"query_id" yaml:"query-id"`
	QueryText       string  `json:"query_text" yaml:"query-text"`
	QueryPlan       string  `json:"query_plan,omitempty" yaml:"query-plan,omitempty"`
	AvgLogicalReads float64 `json:"avg_logical_reads" yaml:"avg-logical-reads"`
	CountExecutions int64   `json:"count_executions" yaml:"count-executions"`
	AvgDurationMS   float64 `json:"avg_duration_ms" yaml:"avg-duration-ms"`
}

// XESessionFinding is the health of one Extended Events session target.
type XESessionFinding struct {
	SessionName    string `json:"session_name" yaml:"session-name"`
	TargetName     string `json:"target_name" yaml:"target-name"`
	ExecutionCount int64  `json:"execution_count" yaml:"execution-count"`
	BytesWritten   int64  `json:"bytes_written" yaml:"bytes-written"`
}

// Report is one complete collection against one database.
type Report struct {
	Instance      string    `json:"instance" yaml:"instance"`
	Database      string    `json:"database" yaml:"database"`
	EngineEdition string    `json:"engine_edition" yaml:"engine-edition"`
	CollectedAt   time.Time `json:"collected_at" yaml:"collected-at"`

	Findings              []Finding             `json:"findings" yaml:"findings"`
	MissingIndexes        []MissingIndexFinding `json:"missing_indexes,omitempty" yaml:"missing-indexes,omitempty"`
	MissingIndexTruncated bool                  `json:"missing_index_truncated,omitempty" yaml:"missing-index-truncated,omitempty"`
	LookupStatements      []StatementFinding    `json:"lookup_statements,omitempty" yaml:"lookup-statements,omitempty"`
	ScanPlans             []ScanPlanFinding     `json:"scan_plans,omitempty" yaml:"scan-plans,omitempty"`
	XESessions            []XESessionFinding    `json:"xe_sessions,omitempty" yaml:"xe-sessions,omitempty"`
}

// BuildInput carries everything one collection produced.
type BuildInput struct {
	Instance      string
	Database      string
	EngineEdition string
	CollectedAt   time.Time

	Thresholds advisor.Thresholds

	Usage            []models.IndexUsage
	Missing          []models.MissingIndex
	MissingTruncated bool
	Statements       []models.LookupStatement
	ScanPlans        []models.QueryStoreScanPlan
	XETargets        []models.XESessionTarget

	// Deltas maps models.IndexUsage.Key() to the interval growth; nil
	// outside watch mode or before a baseline exists.
	Deltas map[string]UsageDelta

	// Obfuscator, when set, strips literals from captured statement text.
	Obfuscator *Obfuscator
	Logger     *zap.Logger
}

// Build classifies every usage row and assembles the report. Findings are
// ordered by priority descending, then by object name for a stable layout.
func Build(in BuildInput) *Report {
	r := &Report{
		Instance:              in.Instance,
		Database:              in.Database,
		EngineEdition:         in.EngineEdition,
		CollectedAt:           in.CollectedAt,
		MissingIndexTruncated: in.MissingTruncated,
	}

	for _, row := range in.Usage {
		usage := advisor.Usage{
			Seeks:     row.UserSeeks,
			Scans:     row.UserScans,
			Lookups:   row.UserLookups,
			Updates:   row.UserUpdates,
			Clustered: row.IsClustered,
		}
		assessment := advisor.Classify(usage, in.Thresholds)

		f := Finding{
			Schema:         row.SchemaName,
			Table:          row.TableName,
			Index:          row.IndexName,
			IndexType:      row.IndexType,
			Seeks:          row.UserSeeks,
			Scans:          row.UserScans,
			Lookups:        row.UserLookups,
			Updates:        row.UserUpdates,
			Label:          assessment.Label,
			Priority:       assessment.Priority,
			ScanSeekRatio:  assessment.ScanSeekRatio,
			LookupPct:      assessment.LookupPct,
			WriteReadRatio: assessment.WriteReadRatio,
			Guidance:       assessment.Guidance,
			Remediation:    remediationFor(assessment.Label, row),
		}
		if in.Deltas != nil {
			if d, ok := in.Deltas[row.Key()]; ok {
				delta := d
				f.Delta = &delta
			}
		}
		r.Findings = append(r.Findings, f)
	}

	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Schema != b.Schema {
			return a.Schema < b.Schema
		}
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		return a.Index < b.Index
	})

	for _, m := range in.Missing {
		r.MissingIndexes = append(r.MissingIndexes, MissingIndexFinding{
			Schema:             m.SchemaName,
			Table:              m.TableName,
			ImprovementMeasure: m.ImprovementMeasure,
			AvgUserImpact:      m.AvgUserImpact,
			UserSeeks:          m.UserSeeks,
			CreateStatement: CreateCoveringStatement(
				m.SchemaName,
				m.TableName,
				SplitColumnList(m.EqualityColumns),
				SplitColumnList(m.InequalityColumns),
				SplitColumnList(m.IncludedColumns),
			),
		})
	}

	for _, s := range in.Statements {
		text := s.StatementText
		if in.Obfuscator != nil {
			obfuscated, err := in.Obfuscator.ObfuscateSQL(text)
			if err != nil {
				if in.Logger != nil {
					in.Logger.Warn("unable to obfuscate statement, omitting text", zap.Error(err))
				}
				text = ""
			} else {
				text = obfuscated
			}
		}
		r.LookupStatements = append(r.LookupStatements, StatementFinding{
			QueryHash:        s.QueryHash.String(),
			PlanHandle:       s.PlanHandle.String(),
			StatementText:    text,
			ExecutionCount:   s.ExecutionCount,
			AvgLogicalReads:  s.AvgLogicalReads,
			AvgElapsedTimeMS: s.AvgElapsedTimeMS,
		})
	}

	for _, p := range in.ScanPlans {
		text := p.QuerySQLText
		plan := p.QueryPlan
		if in.Obfuscator != nil {
			obfuscated, err := in.Obfuscator.ObfuscateSQL(text)
			if err != nil {
				if in.Logger != nil {
					in.Logger.Warn("unable to obfuscate query store text, omitting text", zap.Error(err))
				}
				text = ""
			} else {
				text = obfuscated
			}
			scrubbed, err := in.Obfuscator.ObfuscateXMLPlan(plan)
			if err != nil {
				if in.Logger != nil {
					in.Logger.Warn("unable to obfuscate query plan, omitting plan", zap.Error(err))
				}
				plan = ""
			} else {
				plan = scrubbed
			}
		}
		r.ScanPlans = append(r.ScanPlans, ScanPlanFinding{
			QueryID:         p.QueryID,
			QueryText:       text,
			QueryPlan:       plan,
			AvgLogicalReads: p.AvgLogicalReads,
			CountExecutions: p.CountExecutions,
			AvgDurationMS:   p.AvgDurationMS,
		})
	}

	for _, x := range in.XETargets {
		r.XESessions = append(r.XESessions, XESessionFinding{
			SessionName:    x.SessionName,
			TargetName:     x.TargetName,
			ExecutionCount: x.ExecutionCount,
			BytesWritten:   x.BytesWritten,
		})
	}

	return r
}

func remediationFor(label advisor.Label, row models.IndexUsage) string {
	switch label {
	case advisor.LabelDropUnused:
		return DropStatement(row.SchemaName, row.TableName, row.IndexName)
	case advisor.LabelHighLookups:
		if row.IsClustered {
			return ""
		}
		return WidenIndexStatement(row.SchemaName, row.TableName, row.IndexName)
	default:
		return ""
	}
}
