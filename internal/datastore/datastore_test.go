package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjmmwon/FiReDR/pkg/errors"
)

func TestStore_AppendAssignsStableIndices(t *testing.T) {
	s := New()

	start1, err := s.Append(NewFloat64Batch([][]float64{{1, 2}, {3, 4}}))
	require.NoError(t, err)
	assert.Equal(t, 0, start1)

	start2, err := s.Append(NewFloat64Batch([][]float64{{5, 6}}))
	require.NoError(t, err)
	assert.Equal(t, 2, start2)

	assert.Equal(t, 3, s.Size())
}

func TestStore_DimensionMismatch(t *testing.T) {
	s := New()
	_, err := s.Append(NewFloat64Batch([][]float64{{1, 2, 3, 4}}))
	require.NoError(t, err)

	_, err = s.Append(NewFloat64Batch([][]float64{{1, 2, 3}}))
	assert.True(t, errors.IsDimensionMismatch(err))
}

func TestStore_DtypeMismatch(t *testing.T) {
	s := New()
	_, err := s.Append(NewFloat64Batch([][]float64{{1, 2}}))
	require.NoError(t, err)

	_, err = s.Append(NewFloat32Batch([][]float32{{1, 2}}))
	assert.Equal(t, errors.CodeDtypeMismatch, errors.GetErrorCode(err))
}

func TestStore_GetOnEmptyStore(t *testing.T) {
	s := New()
	_, err := s.Get(0)
	assert.True(t, errors.IsEmptyStore(err))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New()
	_, err := s.Append(NewFloat64Batch([][]float64{{1, 2}}))
	require.NoError(t, err)

	row, err := s.Get(0)
	require.NoError(t, err)
	row[0] = 999

	row2, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, row2[0])
}

func TestStore_GetRange(t *testing.T) {
	s := New()
	_, err := s.Append(NewFloat64Batch([][]float64{{1}, {2}, {3}}))
	require.NoError(t, err)

	rows, err := s.GetRange(1, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2}, {3}}, rows)
}

func TestStore_UnknownIndex(t *testing.T) {
	s := New()
	_, err := s.Append(NewFloat64Batch([][]float64{{1}}))
	require.NoError(t, err)

	_, err = s.Get(5)
	assert.Equal(t, errors.CodeUnknownIndex, errors.GetErrorCode(err))
}
