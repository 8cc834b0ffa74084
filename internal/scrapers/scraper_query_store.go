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

// QueryStoreScraper reads the stored plans with the highest logical read
// averages whose XML contains an index scan. Databases without Query Store
// enabled yield an empty result, not an error.
type QueryStoreScraper struct {
	conn     Querier
	logger   *zap.Logger
	topCount uint
}

// NewQueryStoreScraper creates a Query Store scraper capped at topCount rows.
func NewQueryStoreScraper(conn Querier, logger *zap.Logger, topCount uint) *QueryStoreScraper {
	return &QueryStoreScraper{conn: conn, logger: logger, topCount: topCount}
}

// Scrape runs the scan-plan query once.
func (s *QueryStoreScraper) Scrape(ctx context.Context) ([]models.QueryStoreScanPlan, error) {
	var rows []models.QueryStoreScanPlan
	if err := s.conn.Query(ctx, &rows, queries.GetQueryStoreScanPlansQuery(s.topCount)); err != nil {
		return nil, fmt.Errorf("query store scrape failed: %w", err)
	}

	if len(rows) == 0 {
		s.logger.Info("no scan-heavy plans found; Query Store may be off for this database")
	}

	return rows, nil
}
