package pgerr_test

import (
	"errors"
	"fmt"
	"testing"

	"allocation/internal/adapters/out/postgres/pgerr"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestCondition(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		condition string
	}{
		{name: "unique", err: &pq.Error{Code: "23505"}, condition: pgerr.UniqueViolation},
		{name: "lock", err: &pq.Error{Code: "55P03"}, condition: pgerr.LockNotAvailable},
		{name: "wrapped", err: fmt.Errorf("insert: %w", &pq.Error{Code: "40001"}), condition: pgerr.SerializationFailure},
		{name: "not pq", err: errors.New("boom"), condition: ""},
		{name: "nil", err: nil, condition: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.condition, pgerr.Condition(tt.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, pgerr.IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, pgerr.IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.True(t, pgerr.IsLockNotAvailable(&pq.Error{Code: "55P03"}))
	assert.True(t, pgerr.IsRetryable(&pq.Error{Code: "40001"}))
	assert.True(t, pgerr.IsRetryable(&pq.Error{Code: "40P01"}))
	assert.False(t, pgerr.IsRetryable(&pq.Error{Code: "23505"}))
}

func TestConstraint(t *testing.T) {
	err := fmt.Errorf("create: %w", &pq.Error{Code: "23505", Constraint: "idx_order_line_reference"})

	assert.Equal(t, "idx_order_line_reference", pgerr.Constraint(err))
	assert.Empty(t, pgerr.Constraint(errors.New("boom")))
}
