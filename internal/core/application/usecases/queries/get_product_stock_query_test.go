package queries_test

import (
	"testing"

	"allocation/internal/core/application/usecases/queries"
	"allocation/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetProductStockQuery(t *testing.T) {
	query, err := queries.NewGetProductStockQuery("SMALL-TABLE")
	require.NoError(t, err)
	assert.Equal(t, "SMALL-TABLE", query.SKU())
	assert.NoError(t, query.Validate())

	_, err = queries.NewGetProductStockQuery("  ")
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	var zero queries.GetProductStockQuery
	require.ErrorIs(t, zero.Validate(), queries.ErrGetProductStockQueryIsNotConstructed)
}
