// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package queries holds the diagnostic T-SQL the advisor runs. Every query is
// a one-shot, read-only statement against the system catalog and dynamic
// management views.
//
// Direct access to the constants is not recommended: several queries change
// shape based on configuration (instance filter, row caps). Use the
// GetXxxQuery builders.
package queries

import (
	"fmt"
	"strings"
)

// StandardEngineEdition is the engine edition reported by on-prem Standard,
// Enterprise and Express editions. Azure SQL Database is 5, Managed Instance 8.
const (
	StandardEngineEdition        = 3
	AzureSQLDatabaseEdition      = 5
	AzureManagedInstanceEdition  = 8
	engineEditionGuardEditions   = "2,3,4,5,8"
	engineEditionGuardErrMessage = "is not a supported SQL Server edition for index diagnostics"
)

// editionGuard aborts a diagnostic batch early on unsupported engines instead
// of failing halfway through with a confusing catalog error.
const editionGuard = `
SET DEADLOCK_PRIORITY -10;

IF SERVERPROPERTY('EngineEdition') NOT IN (` + engineEditionGuardEditions + `) BEGIN
	DECLARE @ErrorMessage AS nvarchar(500) = 'Connection string Server:' + @@ServerName + ',Database:' + DB_NAME() + ' ` + engineEditionGuardErrMessage + `.';
	RAISERROR (@ErrorMessage,11,1)
	RETURN
END
`

// indexUsageQuery reads the cumulative usage counters for every rowstore
// index on user tables in the current database. Counters reset on service
// restart, which is why last_user_* timestamps ride along.
const indexUsageQuery = editionGuard + `
SELECT
	 REPLACE(@@SERVERNAME,'\',':') AS [sql_instance]
	,HOST_NAME() AS [computer_name]
	,DB_NAME() AS [database_name]
	,SCHEMA_NAME(o.[schema_id]) AS [schema_name]
	,o.[name] AS [table_name]
	,i.[name] AS [index_name]
	,i.[index_id] AS [index_id]
	,i.[type_desc] AS [index_type]
	,CAST(CASE WHEN i.[type] = 1 THEN 1 ELSE 0 END AS bit) AS [is_clustered]
	,i.[is_unique] AS [is_unique]
	,i.[is_primary_key] AS [is_primary_key]
	,COALESCE(us.[user_seeks], 0) AS [user_seeks]
	,COALESCE(us.[user_scans], 0) AS [user_scans]
	,COALESCE(us.[user_lookups], 0) AS [user_lookups]
	,COALESCE(us.[user_updates], 0) AS [user_updates]
	,us.[last_user_seek] AS [last_user_seek]
	,us.[last_user_scan] AS [last_user_scan]
	,us.[last_user_lookup] AS [last_user_lookup]
	,us.[last_user_update] AS [last_user_update]
FROM sys.indexes AS i WITH (NOLOCK)
INNER JOIN sys.objects AS o WITH (NOLOCK)
	ON i.[object_id] = o.[object_id]
LEFT JOIN sys.dm_db_index_usage_stats AS us WITH (NOLOCK)
	ON us.[object_id] = i.[object_id]
	AND us.[index_id] = i.[index_id]
	AND us.[database_id] = DB_ID()
WHERE o.[type] = 'U'
	AND o.[is_ms_shipped] = 0
	AND i.[type] IN (1, 2)
	AND i.[name] IS NOT NULL
{filter_instance_name}
ORDER BY SCHEMA_NAME(o.[schema_id]), o.[name], i.[index_id]
OPTION(RECOMPILE)
`

// GetIndexUsageQuery returns the index usage statistics query, optionally
// filtered to a single instance name.
func GetIndexUsageQuery(instanceName string) string {
	return applyInstanceFilter(indexUsageQuery, instanceName)
}

// missingIndexQuery surfaces the optimizer's accumulated covering-index gaps.
// The server caps the missing-index DMVs at 600 groups; callers should note
// truncation when the row count hits the requested cap.
const missingIndexQuery = editionGuard + `
SELECT TOP ({top_count})
	 REPLACE(@@SERVERNAME,'\',':') AS [sql_instance]
	,DB_NAME(mid.[database_id]) AS [database_name]
	,OBJECT_SCHEMA_NAME(mid.[object_id], mid.[database_id]) AS [schema_name]
	,OBJECT_NAME(mid.[object_id], mid.[database_id]) AS [table_name]
	,COALESCE(mid.[equality_columns], '') AS [equality_columns]
	,COALESCE(mid.[inequality_columns], '') AS [inequality_columns]
	,COALESCE(mid.[included_columns], '') AS [included_columns]
	,migs.[user_seeks] AS [user_seeks]
	,migs.[user_scans] AS [user_scans]
	,migs.[unique_compiles] AS [unique_compiles]
	,migs.[avg_total_user_cost] AS [avg_total_user_cost]
	,migs.[avg_user_impact] AS [avg_user_impact]
	,migs.[avg_total_user_cost] * migs.[avg_user_impact] * (migs.[user_seeks] + migs.[user_scans]) AS [improvement_measure]
FROM sys.dm_db_missing_index_groups AS mig WITH (NOLOCK)
INNER JOIN sys.dm_db_missing_index_group_stats AS migs WITH (NOLOCK)
	ON migs.[group_handle] = mig.[index_group_handle]
INNER JOIN sys.dm_db_missing_index_details AS mid WITH (NOLOCK)
	ON mig.[index_handle] = mid.[index_handle]
WHERE mid.[database_id] = DB_ID()
ORDER BY [improvement_measure] DESC
OPTION(RECOMPILE)
`

// GetMissingIndexQuery returns the missing index query capped at topCount rows.
func GetMissingIndexQuery(topCount uint) string {
	r := strings.NewReplacer("{top_count}", fmt.Sprintf("%d", topCount))
	return r.Replace(missingIndexQuery)
}

// lookupStatementsQuery finds the cached statements paying the most for key
// lookups, by logical reads. The statement text is carved out of the batch
// with the usual offset arithmetic.
const lookupStatementsQuery = editionGuard + `
SELECT TOP ({top_count})
	 REPLACE(@@SERVERNAME,'\',':') AS [sql_instance]
	,qs.[query_hash] AS [query_hash]
	,qs.[plan_handle] AS [plan_handle]
	,SUBSTRING(
		qt.[text],
		(qs.[statement_start_offset] / 2) + 1,
		(
			CASE qs.[statement_end_offset]
				WHEN -1 THEN DATALENGTH(qt.[text])
				ELSE qs.[statement_end_offset]
			END - qs.[statement_start_offset]
		) / 2 + 1
	) AS [statement_text]
	,qs.[execution_count] AS [execution_count]
	,qs.[total_logical_reads] AS [total_logical_reads]
	,qs.[total_logical_reads] / qs.[execution_count] AS [avg_logical_reads]
	,qs.[total_elapsed_time] / qs.[execution_count] / 1000.0 AS [avg_elapsed_time_ms]
	,qs.[last_execution_time] AS [last_execution_time]
FROM sys.dm_exec_query_stats AS qs WITH (NOLOCK)
CROSS APPLY sys.dm_exec_sql_text(qs.[sql_handle]) AS qt
WHERE qs.[execution_count] > 0
	AND qt.[text] IS NOT NULL
	AND qt.[text] NOT LIKE '%sys.%'
	AND qt.[text] NOT LIKE '%INFORMATION_SCHEMA%'
ORDER BY qs.[total_logical_reads] DESC
OPTION(RECOMPILE)
`

// GetLookupStatementsQuery returns the expensive-statement query capped at
// topCount rows.
func GetLookupStatementsQuery(topCount uint) string {
	r := strings.NewReplacer("{top_count}", fmt.Sprintf("%d", topCount))
	return r.Replace(lookupStatementsQuery)
}

// queryStoreScanPlansQuery pulls the plans with the highest average logical
// reads whose XML mentions an index scan. Returns nothing when Query Store is
// off for the database; that is a warning, not an error.
const queryStoreScanPlansQuery = editionGuard + `
IF NOT EXISTS (
	SELECT 1 FROM sys.databases WITH (NOLOCK)
	WHERE [database_id] = DB_ID() AND [is_query_store_on] = 1
) RETURN;

SELECT TOP ({top_count})
	 REPLACE(@@SERVERNAME,'\',':') AS [sql_instance]
	,q.[query_id] AS [query_id]
	,qt.[query_sql_text] AS [query_sql_text]
	,p.[plan_id] AS [plan_id]
	,CAST(p.[query_plan] AS nvarchar(max)) AS [query_plan]
	,rs.[avg_logical_io_reads] AS [avg_logical_io_reads]
	,rs.[count_executions] AS [count_executions]
	,rs.[avg_duration] / 1000.0 AS [avg_duration_ms]
FROM sys.query_store_query AS q WITH (NOLOCK)
INNER JOIN sys.query_store_query_text AS qt WITH (NOLOCK)
	ON q.[query_text_id] = qt.[query_text_id]
INNER JOIN sys.query_store_plan AS p WITH (NOLOCK)
	ON p.[query_id] = q.[query_id]
INNER JOIN sys.query_store_runtime_stats AS rs WITH (NOLOCK)
	ON rs.[plan_id] = p.[plan_id]
WHERE CAST(p.[query_plan] AS nvarchar(max)) LIKE '%PhysicalOp="Index Scan"%'
	OR CAST(p.[query_plan] AS nvarchar(max)) LIKE '%PhysicalOp="Clustered Index Scan"%'
ORDER BY rs.[avg_logical_io_reads] DESC
OPTION(RECOMPILE)
`

// GetQueryStoreScanPlansQuery returns the Query Store scan-plan query capped
// at topCount rows.
func GetQueryStoreScanPlansQuery(topCount uint) string {
	r := strings.NewReplacer("{top_count}", fmt.Sprintf("%d", topCount))
	return r.Replace(queryStoreScanPlansQuery)
}

// xeSessionHealthQuery reports whether a named Extended Events session is
// running and how much its targets have buffered. Read-only: the advisor
// never creates or alters sessions.
const xeSessionHealthQuery = editionGuard + `
SELECT
	 REPLACE(@@SERVERNAME,'\',':') AS [sql_instance]
	,s.[name] AS [session_name]
	,t.[target_name] AS [target_name]
	,CAST(t.[execution_count] AS bigint) AS [execution_count]
	,CAST(t.[bytes_written] AS bigint) AS [bytes_written]
FROM sys.dm_xe_sessions AS s WITH (NOLOCK)
INNER JOIN sys.dm_xe_session_targets AS t WITH (NOLOCK)
	ON s.[address] = t.[event_session_address]
WHERE s.[name] = '{session_name}'
`

// GetXESessionHealthQuery returns the session health query for sessionName.
// Single quotes in the name are doubled; bring your own sanity beyond that.
func GetXESessionHealthQuery(sessionName string) string {
	escaped := strings.ReplaceAll(sessionName, "'", "''")
	r := strings.NewReplacer("{session_name}", escaped)
	return r.Replace(xeSessionHealthQuery)
}

// EngineEditionQuery returns the numeric engine edition of the server.
const EngineEditionQuery = `SELECT CAST(SERVERPROPERTY('EngineEdition') AS int) AS [engine_edition]`

func applyInstanceFilter(query, instanceName string) string {
	if instanceName == "" {
		r := strings.NewReplacer("{filter_instance_name}", "")
		return r.Replace(query)
	}
	whereClause := fmt.Sprintf("\tAND @@SERVERNAME = '%s'", strings.ReplaceAll(instanceName, "'", "''"))
	r := strings.NewReplacer("{filter_instance_name}", whereClause)
	return r.Replace(query)
}

// GetEngineTypeName maps an engine edition number to a readable name.
func GetEngineTypeName(edition int) string {
	switch edition {
	case 2:
		return "Standard"
	case StandardEngineEdition:
		return "Enterprise"
	case 4:
		return "Express"
	case AzureSQLDatabaseEdition:
		return "Azure SQL Database"
	case AzureManagedInstanceEdition:
		return "Azure SQL Managed Instance"
	default:
		return "Unknown"
	}
}
