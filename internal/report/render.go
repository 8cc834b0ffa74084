// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/sqlhealth/indexadvisor/internal/advisor"
)

// Format selects a report renderer.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Render writes the report in the requested format.
func Render(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatJSON:
		return RenderJSON(w, r)
	case FormatYAML:
		return RenderYAML(w, r)
	default:
		return RenderTable(w, r)
	}
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// RenderYAML writes the report as YAML.
func RenderYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// RenderTable writes the human-facing report.
func RenderTable(w io.Writer, r *Report) error {
	fmt.Fprintf(w, "%s\n", headerStyle.Render(fmt.Sprintf(
		"Index health for %s / %s (%s), collected %s",
		r.Instance, r.Database, r.EngineEdition, r.CollectedAt.Format("2006-01-02 15:04:05 MST"))))

	fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("Index assessments"))
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PRI", "LABEL", "INDEX", "SEEKS", "SCANS", "LOOKUPS", "UPDATES", "SCAN:SEEK")
	for _, f := range r.Findings {
		t.Row(
			strconv.Itoa(f.Priority),
			string(f.Label),
			fmt.Sprintf("%s.%s.%s", f.Schema, f.Table, f.Index),
			strconv.FormatUint(f.Seeks, 10),
			strconv.FormatUint(f.Scans, 10),
			strconv.FormatUint(f.Lookups, 10),
			strconv.FormatUint(f.Updates, 10),
			formatRatio(f.ScanSeekRatio),
		)
	}
	fmt.Fprintln(w, t.Render())

	for _, f := range r.Findings {
		if f.Remediation == "" {
			continue
		}
		fmt.Fprintf(w, "\n-- %s.%s.%s: %s\n%s\n", f.Schema, f.Table, f.Index, f.Label, f.Remediation)
	}

	if len(r.MissingIndexes) > 0 {
		fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("Missing index recommendations"))
		if r.MissingIndexTruncated {
			fmt.Fprintln(w, "(results truncated at the configured cap)")
		}
		for _, m := range r.MissingIndexes {
			fmt.Fprintf(w, "\n-- %s.%s, improvement measure %.1f, avg impact %.1f%%\n%s\n",
				m.Schema, m.Table, m.ImprovementMeasure, m.AvgUserImpact, m.CreateStatement)
		}
	}

	if len(r.LookupStatements) > 0 {
		fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("Lookup-heavy statements"))
		st := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("QUERY HASH", "EXECS", "AVG READS", "AVG MS", "STATEMENT")
		for _, s := range r.LookupStatements {
			st.Row(
				s.QueryHash,
				strconv.FormatInt(s.ExecutionCount, 10),
				strconv.FormatInt(s.AvgLogicalReads, 10),
				fmt.Sprintf("%.1f", s.AvgElapsedTimeMS),
				truncate(s.StatementText, 80),
			)
		}
		fmt.Fprintln(w, st.Render())
	}

	if len(r.ScanPlans) > 0 {
		fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("Query Store scan plans"))
		pt := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("QUERY ID", "EXECS", "AVG READS", "AVG MS", "QUERY")
		for _, p := range r.ScanPlans {
			pt.Row(
				strconv.FormatInt(p.QueryID, 10),
				strconv.FormatInt(p.CountExecutions, 10),
				fmt.Sprintf("%.0f", p.AvgLogicalReads),
				fmt.Sprintf("%.1f", p.AvgDurationMS),
				truncate(p.QueryText, 80),
			)
		}
		fmt.Fprintln(w, pt.Render())
	}

	if len(r.XESessions) > 0 {
		fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("Extended Events sessions"))
		for _, x := range r.XESessions {
			fmt.Fprintf(w, "  %s / %s: %d executions, %d bytes written\n",
				x.SessionName, x.TargetName, x.ExecutionCount, x.BytesWritten)
		}
	}

	return nil
}

func formatRatio(v float64) string {
	if v >= advisor.RatioSentinel {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}

// truncate shortens s to limit runes. Captured statement text can carry
// multi-byte characters, so cutting bytes would split a rune mid-sequence.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
