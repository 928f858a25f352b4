package db

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "gms.data_correlations",
		Columns:      []string{"source_id", "score"},
		ConflictKeys: []string{"source_id"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "gms.data_correlations",
		ConflictKeys: []string{"source_id"},
	}, [][]any{{1, 0.5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:   "gms.data_correlations",
		Columns: []string{"source_id", "score"},
	}, [][]any{{1, 0.5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_TxFlow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(
		[]string{"_tmp_upsert_gms_grid_statistics"},
		[]string{"cell_id", "boring_count"},
	).WillReturnResult(2)
	mock.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "gms.grid_statistics",
		Columns:      []string{"cell_id", "boring_count"},
		ConflictKeys: []string{"cell_id"},
	}, [][]any{{"c1", 3}, {"c2", 0}})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"gms.data_correlations", `"gms"."data_correlations"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitizeTable(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	result := quoteAndJoin([]string{"cell_id", "boring_count", "avg_depth"})
	assert.Equal(t, `"cell_id", "boring_count", "avg_depth"`, result)
}
