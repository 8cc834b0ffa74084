// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package models

import "time"

// IndexUsage is one row of the index usage statistics query: the cumulative
// access counters for a single rowstore index since the last service restart.
type IndexUsage struct {
	SQLInstance  string `db:"sql_instance"`
	ComputerName string `db:"computer_name"`
	DatabaseName string `db:"database_name"`
	SchemaName   string `db:"schema_name"`
	TableName    string `db:"table_name"`
	IndexName    string `db:"index_name"`
	IndexID      int64  `db:"index_id"`
	IndexType    string `db:"index_type"`
	IsClustered  bool   `db:"is_clustered"`
	IsUnique     bool   `db:"is_unique"`
	IsPrimaryKey bool   `db:"is_primary_key"`

	UserSeeks   uint64 `db:"user_seeks"`
	UserScans   uint64 `db:"user_scans"`
	UserLookups uint64 `db:"user_lookups"`
	UserUpdates uint64 `db:"user_updates"`

	LastUserSeek   *time.Time `db:"last_user_seek"`
	LastUserScan   *time.Time `db:"last_user_scan"`
	LastUserLookup *time.Time `db:"last_user_lookup"`
	LastUserUpdate *time.Time `db:"last_user_update"`
}

// Key identifies the index across collections, for delta tracking.
func (u IndexUsage) Key() string {
	return u.DatabaseName + "." + u.SchemaName + "." + u.TableName + "." + u.IndexName
}

// MissingIndex is one row of the missing-index DMV query: a covering-index
// gap the optimizer recorded, with its estimated improvement measure.
type MissingIndex struct {
	SQLInstance        string  `db:"sql_instance"`
	DatabaseName       string  `db:"database_name"`
	SchemaName         string  `db:"schema_name"`
	TableName          string  `db:"table_name"`
	EqualityColumns    string  `db:"equality_columns"`
	InequalityColumns  string  `db:"inequality_columns"`
	IncludedColumns    string  `db:"included_columns"`
	UserSeeks          int64   `db:"user_seeks"`
	UserScans          int64   `db:"user_scans"`
	UniqueCompiles     int64   `db:"unique_compiles"`
	AvgTotalUserCost   float64 `db:"avg_total_user_cost"`
	AvgUserImpact      float64 `db:"avg_user_impact"`
	ImprovementMeasure float64 `db:"improvement_measure"`
}

// LookupStatement is one row of the expensive-statement query: a cached
// statement ranked by logical reads, the usual symptom of key lookups.
type LookupStatement struct {
	SQLInstance      string     `db:"sql_instance"`
	QueryHash        QueryHash  `db:"query_hash"`
	PlanHandle       PlanHandle `db:"plan_handle"`
	StatementText    string     `db:"statement_text"`
	ExecutionCount   int64      `db:"execution_count"`
	TotalLogicalRead int64      `db:"total_logical_reads"`
	AvgLogicalReads  int64      `db:"avg_logical_reads"`
	AvgElapsedTimeMS float64    `db:"avg_elapsed_time_ms"`
	LastExecution    *time.Time `db:"last_execution_time"`
}

// QueryStoreScanPlan is one row of the Query Store scan-plan query: a stored
// plan whose XML contains an index scan operator.
type QueryStoreScanPlan struct {
	SQLInstance      string  `db:"sql_instance"`
	QueryID          int64   `db:"query_id"`
	QuerySQLText     string  `db:"query_sql_text"`
	PlanID           int64   `db:"plan_id"`
	QueryPlan        string  `db:"query_plan"`
	AvgLogicalReads  float64 `db:"avg_logical_io_reads"`
	CountExecutions  int64   `db:"count_executions"`
	AvgDurationMS    float64 `db:"avg_duration_ms"`
}

// XESessionTarget is one row of the Extended Events session health query.
type XESessionTarget struct {
	SQLInstance    string `db:"sql_instance"`
	SessionName    string `db:"session_name"`
	TargetName     string `db:"target_name"`
	ExecutionCount int64  `db:"execution_count"`
	BytesWritten   int64  `db:"bytes_written"`
}
