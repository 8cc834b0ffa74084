// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package models holds the row types the scrapers scan DMV results into,
// plus custom scanner types for SQL Server's binary identifiers.
package models

import (
	"encoding/hex"
	"fmt"
)

// QueryHash is a SQL Server query_hash (binary(8)) rendered as a 0x-prefixed
// hex string. The driver hands binary columns over as []byte.
type QueryHash string

// Scan implements sql.Scanner for QueryHash.
func (qh *QueryHash) Scan(value any) error {
	if value == nil {
		*qh = ""
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*qh = QueryHash("0x" + hex.EncodeToString(v))
		return nil
	default:
		return fmt.Errorf("QueryHash.Scan: cannot convert %T to QueryHash", value)
	}
}

// String returns the hex representation.
func (qh QueryHash) String() string {
	return string(qh)
}

// IsEmpty reports whether the hash is null or zero length.
func (qh QueryHash) IsEmpty() bool {
	return qh == "" || qh == "0x"
}

// PlanHandle is a SQL Server plan_handle (varbinary(64)) rendered as a
// 0x-prefixed hex string.
type PlanHandle string

// Scan implements sql.Scanner for PlanHandle.
func (ph *PlanHandle) Scan(value any) error {
	if value == nil {
		*ph = ""
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*ph = PlanHandle("0x" + hex.EncodeToString(v))
		return nil
	default:
		return fmt.Errorf("PlanHandle.Scan: cannot convert %T to PlanHandle", value)
	}
}

// String returns the hex representation.
func (ph PlanHandle) String() string {
	return string(ph)
}
