// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package advisor classifies index health from DMV usage counters.
//
// The classification is a pure function over the four counters exposed by
// sys.dm_db_index_usage_stats (user_seeks, user_scans, user_lookups,
// user_updates) plus the index kind. It never touches the database and it is
// deterministic: identical inputs always produce identical assessments.
package advisor

// RatioSentinel is returned by Ratio when the denominator is zero. The value
// matches what the hand-run diagnostic queries display for the same case, so
// operators reading a report next to an old spreadsheet see the same number.
const RatioSentinel = 999999

// Label is the closed set of index health classifications.
type Label string

const (
	LabelHealthy     Label = "HEALTHY"
	LabelNoActivity  Label = "REVIEW - No Activity"
	LabelLowValue    Label = "REVIEW - Low Value"
	LabelScanHeavy   Label = "REVIEW - Scan Heavy"
	LabelHighLookups Label = "ADD INCLUDES - High Lookups"
	LabelDropUnused  Label = "CONSIDER DROPPING - Unused"
)

// Base priorities per label. Priority only ever goes up when an additional
// threshold is crossed, never down.
const (
	priorityHealthy     = 0
	priorityNoActivity  = 30
	priorityLowValue    = 40
	priorityScanHeavy   = 70
	priorityHighLookups = 60
	priorityDropUnused  = 90

	// Each threshold crossed beyond the first adds this much.
	compoundBump = 5

	// Priorities never reach the drop band unless the drop rule itself fired.
	compoundCap = 85
)

// Usage is a single index usage observation. Counters are cumulative since
// the last SQL Server service restart.
type Usage struct {
	Seeks     uint64
	Scans     uint64
	Lookups   uint64
	Updates   uint64
	Clustered bool
}

// Reads returns the total read-side accesses of the index.
func (u Usage) Reads() uint64 {
	return u.Seeks + u.Scans + u.Lookups
}

// Assessment is the outcome of classifying one Usage observation.
type Assessment struct {
	Label    Label
	Priority int

	// ScanSeekRatio is scans per seek, RatioSentinel when there are no seeks.
	ScanSeekRatio float64
	// LookupPct is the share of reads that were key lookups, in percent.
	LookupPct float64
	// WriteReadRatio is updates per read, RatioSentinel when there are no reads.
	WriteReadRatio float64

	Guidance string
}

// Ratio divides a by b, returning RatioSentinel when b is zero.
func Ratio(a, b uint64) float64 {
	if b == 0 {
		return RatioSentinel
	}
	return float64(a) / float64(b)
}

// lookupPct returns the percentage of reads that were key lookups. Lookups
// are a subset of reads, so a zero read count implies zero lookups and the
// result is simply zero rather than a sentinel.
func lookupPct(u Usage) float64 {
	reads := u.Reads()
	if reads == 0 {
		return 0
	}
	return float64(u.Lookups) / float64(reads) * 100
}

// Classify assigns a health label and priority to one usage observation.
//
// Rules are evaluated independently; the assessment takes the label of the
// highest-priority matching rule and bumps the priority for every further
// rule that also matched. An observation matching nothing is HEALTHY with
// priority zero.
func Classify(u Usage, t Thresholds) Assessment {
	a := Assessment{
		Label:          LabelHealthy,
		ScanSeekRatio:  Ratio(u.Scans, u.Seeks),
		LookupPct:      lookupPct(u),
		WriteReadRatio: Ratio(u.Updates, u.Reads()),
	}

	type match struct {
		label    Label
		priority int
	}
	var matched []match

	reads := u.Reads()

	if reads == 0 {
		if u.Updates > 0 && !u.Clustered {
			// Pure write cost, zero read benefit.
			matched = append(matched, match{LabelDropUnused, priorityDropUnused})
		} else {
			matched = append(matched, match{LabelNoActivity, priorityNoActivity})
		}
	} else {
		if u.Scans >= t.MinScans && u.Seeks > 0 && a.ScanSeekRatio >= t.ScanSeekRatio {
			matched = append(matched, match{LabelScanHeavy, priorityScanHeavy})
		}
		if u.Scans >= t.MinScans && u.Seeks == 0 {
			// All reads are scans; the sentinel ratio counts as a crossing.
			matched = append(matched, match{LabelScanHeavy, priorityScanHeavy})
		}
		if u.Lookups >= t.MinLookups && a.LookupPct >= t.LookupPct {
			matched = append(matched, match{LabelHighLookups, priorityHighLookups})
		}
		if !u.Clustered && u.Updates > 0 && a.WriteReadRatio >= t.WriteReadRatio {
			matched = append(matched, match{LabelLowValue, priorityLowValue})
		}
	}

	if len(matched) == 0 {
		a.Guidance = guidance[LabelHealthy]
		return a
	}

	best := matched[0]
	for _, m := range matched[1:] {
		if m.priority > best.priority {
			best = m
		}
	}

	a.Label = best.label
	a.Priority = best.priority
	if n := len(matched) - 1; n > 0 {
		a.Priority += n * compoundBump
		if a.Priority > compoundCap && best.label != LabelDropUnused {
			a.Priority = compoundCap
		}
	}
	a.Guidance = guidanceFor(a.Label, u)

	return a
}

var guidance = map[Label]string{
	LabelHealthy:     "No action needed.",
	LabelNoActivity:  "No reads or writes recorded since the last service restart. Confirm the index is not seasonal before acting.",
	LabelLowValue:    "Maintenance cost outweighs read benefit. Review the queries this index was built for; consider dropping after a full business cycle of observation.",
	LabelScanHeavy:   "Reads are dominated by full scans. Check key column order against the predicates of the scanning queries, or narrow the index.",
	LabelHighLookups: "Queries seek this index but return to the base table for missing columns. Add the fetched columns to an INCLUDE list to make it covering.",
	LabelDropUnused:  "Index is written to but never read. Verify across a full business cycle, then drop to reclaim write throughput and space.",
}

func guidanceFor(l Label, u Usage) string {
	if l == LabelHighLookups && u.Clustered {
		// Lookups land on the clustered index; the fix is widening the
		// nonclustered indexes that miss columns, not changing this one.
		return "Key lookups are landing on this clustered index. Widen the nonclustered indexes whose queries trigger the lookups with INCLUDE columns."
	}
	return guidance[l]
}
