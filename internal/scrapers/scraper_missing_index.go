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

// MissingIndexScraper reads the optimizer's recorded covering-index gaps.
type MissingIndexScraper struct {
	conn     Querier
	logger   *zap.Logger
	topCount uint
}

// NewMissingIndexScraper creates a missing index scraper capped at topCount rows.
func NewMissingIndexScraper(conn Querier, logger *zap.Logger, topCount uint) *MissingIndexScraper {
	return &MissingIndexScraper{conn: conn, logger: logger, topCount: topCount}
}

// Scrape runs the missing index query once. The second return value reports
// whether the result hit the requested cap; the server itself stops tracking
// at 600 groups, so a full page means the picture may be incomplete.
func (s *MissingIndexScraper) Scrape(ctx context.Context) ([]models.MissingIndex, bool, error) {
	var rows []models.MissingIndex
	if err := s.conn.Query(ctx, &rows, queries.GetMissingIndexQuery(s.topCount)); err != nil {
		return nil, false, fmt.Errorf("missing index scrape failed: %w", err)
	}

	truncated := uint(len(rows)) >= s.topCount
	if truncated {
		s.logger.Warn("missing index results hit the row cap; raise top-missing-indexes for the full picture",
			zap.Uint("cap", s.topCount))
	}

	return rows, truncated, nil
}
