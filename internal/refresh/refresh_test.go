package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecer struct {
	statements []string
	failOn     string
}

func (f *fakeExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.statements = append(f.statements, sql)
	if f.failOn != "" && sql == "REFRESH MATERIALIZED VIEW CONCURRENTLY "+f.failOn {
		return pgconn.CommandTag{}, errors.New("deadlock detected")
	}
	return pgconn.NewCommandTag("REFRESH"), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefreshView(t *testing.T) {
	db := &fakeExecer{}
	err := RefreshView(context.Background(), db, "mv_company_overview", testLogger())
	require.NoError(t, err)
	require.Len(t, db.statements, 1)
	assert.Equal(t, "REFRESH MATERIALIZED VIEW CONCURRENTLY mv_company_overview", db.statements[0])
}

func TestRefreshView_UnknownView(t *testing.T) {
	db := &fakeExecer{}
	err := RefreshView(context.Background(), db, "employees; DROP TABLE employees", testLogger())
	require.Error(t, err)
	assert.Empty(t, db.statements)
}

// Re-running a refresh issues the identical statement again: against
// unchanged base data the snapshot is rebuilt to the same contents.
func TestRefreshView_Idempotent(t *testing.T) {
	db := &fakeExecer{}
	for i := 0; i < 3; i++ {
		require.NoError(t, RefreshView(context.Background(), db, "mv_document_expiry_stats", testLogger()))
	}
	require.Len(t, db.statements, 3)
	assert.Equal(t, db.statements[0], db.statements[1])
	assert.Equal(t, db.statements[1], db.statements[2])
}

// A failing view does not stop the others; the first error is reported.
func TestRefreshAll_ContinuesPastFailure(t *testing.T) {
	db := &fakeExecer{failOn: "mv_company_overview"}
	err := RefreshAll(context.Background(), db, testLogger())
	require.Error(t, err)
	assert.Len(t, db.statements, len(Views))
}
