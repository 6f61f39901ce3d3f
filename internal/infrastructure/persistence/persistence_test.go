package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		onUnique error
		want     apperror.ErrorCode
	}{
		{"unique with caller code", &pq.Error{Code: "23505"}, apperror.ErrDuplicateApplication, apperror.ErrCodeDuplicateApplication},
		{"unique without caller code", &pq.Error{Code: "23505"}, nil, apperror.ErrCodeConflict},
		{"lock timeout", &pq.Error{Code: "55P03"}, nil, apperror.ErrCodeInfrastructure},
		{"serialization", &pq.Error{Code: "40001"}, nil, apperror.ErrCodeInfrastructure},
		{"deadlock", &pq.Error{Code: "40P01"}, nil, apperror.ErrCodeInfrastructure},
		{"canceled", &pq.Error{Code: "57014"}, nil, apperror.ErrCodeInfrastructure},
		{"connection", &pq.Error{Code: "08006"}, nil, apperror.ErrCodeInfrastructure},
		{"deadline", context.DeadlineExceeded, nil, apperror.ErrCodeInfrastructure},
		{"syntax", &pq.Error{Code: "42601"}, nil, apperror.ErrCodeDatabaseError},
		{"plain", errors.New("boom"), nil, apperror.ErrCodeDatabaseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err, "операция", tt.onUnique)
			assert.Equal(t, tt.want, apperror.CodeOf(err))
		})
	}

	assert.NoError(t, classify(nil, "операция", nil))
	assert.True(t, apperror.IsRetryable(classify(&pq.Error{Code: "55P03"}, "операция", nil)))
}

func TestClassifyKeepsAppErrors(t *testing.T) {
	err := classify(apperror.ErrGigNotFound, "операция", nil)
	assert.ErrorIs(t, err, apperror.ErrGigNotFound)
}

func TestNotFoundOr(t *testing.T) {
	assert.ErrorIs(t, notFoundOr(sql.ErrNoRows, apperror.ErrSkillNotFound, "x"), apperror.ErrSkillNotFound)
	assert.Equal(t, apperror.ErrCodeDatabaseError, apperror.CodeOf(notFoundOr(errors.New("x"), apperror.ErrSkillNotFound, "x")))
}

type recordingExecer struct {
	queries []string
	args    [][]interface{}
}

func (r *recordingExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	r.queries = append(r.queries, query)
	r.args = append(r.args, args)
	return nil, nil
}

func TestBatchInserterFlushesBySize(t *testing.T) {
	exec := &recordingExecer{}
	bi := NewBatchInserter(exec, "INSERT INTO t (a, b)", "ON CONFLICT DO NOTHING", 2, 2)
	ctx := context.Background()

	require.NoError(t, bi.Add(ctx, 1, "x"))
	assert.Empty(t, exec.queries)
	require.NoError(t, bi.Add(ctx, 2, "y"))
	require.Len(t, exec.queries, 1)
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING", exec.queries[0])
	assert.Equal(t, []interface{}{1, "x", 2, "y"}, exec.args[0])

	require.NoError(t, bi.Add(ctx, 3, "z"))
	require.NoError(t, bi.Flush(ctx))
	require.Len(t, exec.queries, 2)
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2) ON CONFLICT DO NOTHING", exec.queries[1])

	require.NoError(t, bi.Flush(ctx))
	assert.Len(t, exec.queries, 2)
}

func TestBatchInserterRejectsWrongArity(t *testing.T) {
	bi := NewBatchInserter(&recordingExecer{}, "INSERT INTO t (a, b)", "", 2, 10)
	assert.Error(t, bi.Add(context.Background(), 1))
}

func TestGigListWhere(t *testing.T) {
	employer := uuid.New()
	skill := uuid.New()
	status := valueobject.GigStatusOpen
	slot := valueobject.TimeSlotEvening
	minPay := 100.0
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	q := &queryArgs{}
	where, distance := gigListWhere(repository.GigFilter{
		EmployerID:   &employer,
		Status:       &status,
		Location:     "Mos_cow%",
		SkillID:      &skill,
		MinPay:       &minPay,
		TimeSlot:     &slot,
		Near:         &valueobject.Coordinates{Latitude: 55.75, Longitude: 37.62},
		CreatedAfter: &after,
	}, q)

	assert.Contains(t, where, "g.deleted_at IS NULL")
	assert.Contains(t, where, "g.employer_id = $1")
	assert.Contains(t, where, "g.status = $2")
	assert.Contains(t, where, "g.location ILIKE $3")
	assert.Contains(t, where, "g.primary_skill_id = $4")
	assert.Contains(t, where, "s.skill_id = $4")
	assert.Contains(t, where, "g.pay >= $5")
	assert.Contains(t, distance, "$8::float8")
	assert.Contains(t, distance, "$9::float8")
	assert.True(t, strings.HasSuffix(where, "g.created_at >= $11"))

	assert.Equal(t, `%Mos\_cow\%%`, q.args[2])
	assert.Equal(t, 18, q.args[5])
	assert.Equal(t, 24, q.args[6])
	assert.Equal(t, valueobject.DefaultRadiusKm, q.args[9])
	assert.Len(t, q.args, 11)
}

func TestGigListWhereWithoutFilters(t *testing.T) {
	q := &queryArgs{}
	where, distance := gigListWhere(repository.GigFilter{}, q)
	assert.Equal(t, "g.deleted_at IS NULL", where)
	assert.Equal(t, "NULL::float8", distance)
	assert.Empty(t, q.args)
}
