// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package scrapers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlhealth/indexadvisor/internal/models"
	"github.com/sqlhealth/indexadvisor/internal/queries"
)

// QueryStatsScraper reads the cached statements paying the most in logical
// reads, the usual symptom of key lookups against non-covering indexes.
type QueryStatsScraper struct {
	conn     Querier
	logger   *zap.Logger
	topCount uint
}

// NewQueryStatsScraper creates a query stats scraper capped at topCount rows.
func NewQueryStatsScraper(conn Querier, logger *zap.Logger, topCount uint) *QueryStatsScraper {
	return &QueryStatsScraper{conn: conn, logger: logger, topCount: topCount}
}

// Scrape runs the expensive-statement query once. Rows with a null or empty
// query hash are dropped; they cannot be correlated across collections.
func (s *QueryStatsScraper) Scrape(ctx context.Context) ([]models.LookupStatement, error) {
	var rows []models.LookupStatement
	if err := s.conn.Query(ctx, &rows, queries.GetLookupStatementsQuery(s.topCount)); err != nil {
		return nil, fmt.Errorf("query stats scrape failed: %w", err)
	}

	kept := rows[:0]
	dropped := 0
	for _, row := range rows {
		if row.QueryHash.IsEmpty() {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	if dropped > 0 {
		s.logger.Debug("dropped statements without query hash", zap.Int("count", dropped))
	}

	return kept, nil
}
