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

// XESessionScraper checks whether a named Extended Events session is running
// and what its targets have buffered. Strictly read-only; session creation is
// an operator decision the advisor never makes.
type XESessionScraper struct {
	conn        Querier
	logger      *zap.Logger
	sessionName string
}

// NewXESessionScraper creates an Extended Events session health scraper.
func NewXESessionScraper(conn Querier, logger *zap.Logger, sessionName string) *XESessionScraper {
	return &XESessionScraper{conn: conn, logger: logger, sessionName: sessionName}
}

// Scrape runs the session health query once. An absent session is reported
// as zero rows.
func (s *XESessionScraper) Scrape(ctx context.Context) ([]models.XESessionTarget, error) {
	if s.sessionName == "" {
		return nil, nil
	}

	var rows []models.XESessionTarget
	if err := s.conn.Query(ctx, &rows, queries.GetXESessionHealthQuery(s.sessionName)); err != nil {
		return nil, fmt.Errorf("extended events session scrape failed: %w", err)
	}

	if len(rows) == 0 {
		s.logger.Warn("extended events session not running", zap.String("session", s.sessionName))
	}

	return rows, nil
}
