package history

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/restocompras/supplier-scraper/internal/pipeline"
)

func TestRecordRunInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "runs")
	require.NoError(t, err)

	started := time.Unix(1700000000, 0).UTC()
	sum := pipeline.Summary{
		RunID:        "run-uuid",
		Supplier:     "greenshop",
		StartedAt:    started,
		FinishedAt:   started.Add(42 * time.Second),
		Extracted:    10,
		Dropped:      1,
		Deduplicated: 2,
		Matched:      6,
		Submitted:    5,
		Skipped:      1,
		Aborted:      false,
	}

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(
			sum.RunID,
			sum.Supplier,
			sum.StartedAt,
			sum.FinishedAt,
			sum.Extracted,
			sum.Dropped,
			sum.Deduplicated,
			sum.Matched,
			sum.Submitted,
			sum.Skipped,
			sum.Aborted,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.RecordRun(context.Background(), sum))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRunRequiresRunID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "runs")
	require.NoError(t, err)

	require.Error(t, store.RecordRun(context.Background(), pipeline.Summary{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStoreWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewStoreWithPool(mock, "runs; DROP TABLE runs")
	require.Error(t, err)

	store, err := NewStoreWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, "runs", store.table)
}
