// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/DataDog/datadog-agent/pkg/obfuscate"
)

// Attributes of a SQL Server XML plan that can carry literal values.
var xmlPlanObfuscationAttrs = []string{
	"StatementText",
	"ConstValue",
	"ScalarString",
	"ParameterCompiledValue",
}

// Obfuscator strips literals from captured SQL text and plans so reports can
// be shared without leaking row data.
type Obfuscator struct {
	inner *obfuscate.Obfuscator
}

// NewObfuscator creates an obfuscator tuned for SQL Server syntax.
func NewObfuscator() *Obfuscator {
	return &Obfuscator{inner: obfuscate.NewObfuscator(obfuscate.Config{
		SQL: obfuscate.SQLConfig{
			DBMS: "mssql",
		},
	})}
}

// ObfuscateSQL normalizes literals out of a SQL string.
func (o *Obfuscator) ObfuscateSQL(sql string) (string, error) {
	obfuscated, err := o.inner.ObfuscateSQLString(sql)
	if err != nil {
		return "", err
	}
	return obfuscated.Query, nil
}

// ObfuscateXMLPlan obfuscates the SQL text and compiled parameter values
// embedded in a SQL Server XML plan.
func (o *Obfuscator) ObfuscateXMLPlan(rawPlan string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(rawPlan))
	var buffer bytes.Buffer
	encoder := xml.NewEncoder(&buffer)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch elem := token.(type) {
		case xml.StartElement:
			for i := range elem.Attr {
				for _, attrName := range xmlPlanObfuscationAttrs {
					if elem.Attr[i].Name.Local != attrName || elem.Attr[i].Value == "" {
						continue
					}
					val, err := o.ObfuscateSQL(elem.Attr[i].Value)
					if err != nil {
						// A plan we cannot scrub is a plan we do not emit.
						return "", nil
					}
					elem.Attr[i].Value = val
				}
			}
			if err := encoder.EncodeToken(elem); err != nil {
				return "", err
			}
		case xml.CharData:
			if err := encoder.EncodeToken(xml.CharData(bytes.TrimSpace(elem))); err != nil {
				return "", err
			}
		default:
			if err := encoder.EncodeToken(token); err != nil {
				return "", err
			}
		}
	}

	if err := encoder.Flush(); err != nil {
		return "", err
	}
	return buffer.String(), nil
}
