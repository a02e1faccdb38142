package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeSQL(t *testing.T) {
	cases := []struct {
		sql   string
		op    string
		table string
	}{
		{sql: `SELECT * FROM "consumption_records" WHERE home_id = $1`, op: "SELECT", table: "consumption_records"},
		{sql: "INSERT INTO `alerts` (`home_id`) VALUES (?)", op: "INSERT", table: "alerts"},
		{sql: `UPDATE homes SET address = $1`, op: "UPDATE", table: "homes"},
		{sql: `WITH t AS (SELECT 1) DELETE FROM alerts`, op: "SELECT", table: ""},
		{sql: ``, op: "UNKNOWN", table: ""},
	}
	for _, tc := range cases {
		op, table := describeSQL(tc.sql)
		assert.Equal(t, tc.op, op, tc.sql)
		if tc.table != "" {
			assert.Equal(t, tc.table, table, tc.sql)
		}
	}
}

func TestParamsFilterDropsValues(t *testing.T) {
	l := NewGormLogger(DefaultGormLoggerConfig())
	sql, params := l.ParamsFilter(context.Background(), "SELECT 1", "H001", 1300.5)
	assert.Equal(t, "SELECT 1", sql)
	assert.Nil(t, params)
}
