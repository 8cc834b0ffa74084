// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObfuscateSQL(t *testing.T) {
	o := NewObfuscator()

	out, err := o.ObfuscateSQL("SELECT Name FROM dbo.Customers WHERE Region = 'West' AND Tier = 3")
	require.NoError(t, err)
	assert.NotContains(t, out, "'West'")
	assert.NotContains(t, out, "3")
	assert.Contains(t, out, "dbo.Customers")
}

func TestObfuscateXMLPlan(t *testing.T) {
	o := NewObfuscator()

	plan := `<ShowPlanXML><StmtSimple StatementText="SELECT * FROM Orders WHERE Id = 42"></StmtSimple></ShowPlanXML>`
	out, err := o.ObfuscateXMLPlan(plan)
	require.NoError(t, err)
	assert.NotContains(t, out, "42")
	assert.Contains(t, out, "ShowPlanXML")
}

func TestObfuscateXMLPlanInvalidXML(t *testing.T) {
	o := NewObfuscator()

	_, err := o.ObfuscateXMLPlan("<unclosed")
	require.Error(t, err)
}
