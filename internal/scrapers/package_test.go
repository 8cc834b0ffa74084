// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package scrapers

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
