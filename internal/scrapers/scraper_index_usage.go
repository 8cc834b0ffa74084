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

// IndexUsageScraper reads the cumulative usage counters for every rowstore
// index on user tables in the connected database. Unsupported engine editions
// are rejected by the query preamble itself, so the scraper carries no
// edition state.
type IndexUsageScraper struct {
	conn         Querier
	logger       *zap.Logger
	instanceName string
}

// NewIndexUsageScraper creates an index usage scraper.
func NewIndexUsageScraper(conn Querier, logger *zap.Logger, instanceName string) *IndexUsageScraper {
	return &IndexUsageScraper{
		conn:         conn,
		logger:       logger,
		instanceName: instanceName,
	}
}

// Scrape runs the index usage query once.
func (s *IndexUsageScraper) Scrape(ctx context.Context) ([]models.IndexUsage, error) {
	var rows []models.IndexUsage
	if err := s.conn.Query(ctx, &rows, queries.GetIndexUsageQuery(s.instanceName)); err != nil {
		return nil, fmt.Errorf("index usage scrape failed: %w", err)
	}

	if len(rows) == 0 {
		s.logger.Info("no user indexes found by usage query")
	}
	s.logger.Debug("scraped index usage rows", zap.Int("count", len(rows)))

	return rows, nil
}
