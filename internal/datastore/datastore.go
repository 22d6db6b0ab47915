// Package datastore implements the append-only column store that backs
// an Ensemble: a dense, fixed-dimensional feature matrix with stable,
// monotonically increasing point indices. Uses slice-based storage
// instead of a map-keyed index for near-zero per-row overhead, holding
// each row as its own copied slice.
package datastore

import (
	"sync"

	"github.com/jjmmwon/FiReDR/pkg/errors"
)

// DType tags the element type established at first append. Go has no
// runtime numeric-type mismatch the way a dynamically typed column
// store does, so DType models it explicitly: the first batch's Go type
// fixes the store's dtype, and any later batch must match.
type DType int

const (
	// DTypeUnset means no batch has been appended yet.
	DTypeUnset DType = iota
	DTypeFloat32
	DTypeFloat64
)

func (d DType) String() string {
	switch d {
	case DTypeFloat32:
		return "float32"
	case DTypeFloat64:
		return "float64"
	default:
		return "unset"
	}
}

// Batch is one 2-D input to Append: m rows of d float64 values each
// (float32 inputs are expected to be widened by the caller before
// Append; Dtype records what the caller claims the original element
// type was, so DtypeMismatch can still be enforced across calls).
type Batch struct {
	Rows  [][]float64
	Dtype DType
}

// NewFloat64Batch wraps raw float64 rows as a Batch with DTypeFloat64.
func NewFloat64Batch(rows [][]float64) Batch {
	return Batch{Rows: rows, Dtype: DTypeFloat64}
}

// NewFloat32Batch widens float32 rows to float64 storage, tagging the
// batch's original dtype as DTypeFloat32 for mismatch checking.
func NewFloat32Batch(rows [][]float32) Batch {
	wide := make([][]float64, len(rows))
	for i, row := range rows {
		w := make([]float64, len(row))
		for j, v := range row {
			w[j] = float64(v)
		}
		wide[i] = w
	}
	return Batch{Rows: wide, Dtype: DTypeFloat32}
}

// Store is an append-only, fixed-dimensional feature matrix providing
// O(1) row access by stable logical index. One mutex serializes
// appends against concurrent reads; per spec, appends happen from
// exactly one goroutine, but reads may run concurrently across a
// forest's per-tree fan-out while a batch is in flight, so RWMutex
// protects against a racy concurrent Append.
type Store struct {
	mu sync.RWMutex

	dim   int
	dtype DType
	rows  [][]float64
}

// New creates an empty Store. Dimension and dtype are fixed by the
// first Append.
func New() *Store {
	return &Store{}
}

// Append adds batch's rows to the store and returns the index assigned
// to the first new row. Fails with DimensionMismatch if batch.Rows'
// column count differs from the store's established dimension, or
// DtypeMismatch if batch.Dtype differs from the store's established
// dtype. Both checks are skipped for the very first append, which
// establishes the store's dimension and dtype.
func (s *Store) Append(batch Batch) (int, error) {
	if len(batch.Rows) == 0 {
		return 0, errors.New(errors.CodeInvalidInput, "batch must contain at least one row")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rowDim := len(batch.Rows[0])
	for _, row := range batch.Rows {
		if len(row) != rowDim {
			return 0, errors.New(errors.CodeDimensionMismatch, "batch rows have inconsistent column counts")
		}
	}

	if s.dtype == DTypeUnset {
		s.dim = rowDim
		s.dtype = batch.Dtype
	} else {
		if rowDim != s.dim {
			return 0, errors.Newf(errors.CodeDimensionMismatch,
				"batch has %d columns, store established %d", rowDim, s.dim)
		}
		if batch.Dtype != s.dtype {
			return 0, errors.Newf(errors.CodeDtypeMismatch,
				"batch dtype %s differs from established dtype %s", batch.Dtype, s.dtype)
		}
	}

	startIndex := len(s.rows)
	for _, row := range batch.Rows {
		cp := make([]float64, len(row))
		copy(cp, row)
		s.rows = append(s.rows, cp)
	}
	return startIndex, nil
}

// Size returns the total number of rows appended so far.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Dim returns the established feature count, or 0 if no append has
// occurred yet.
func (s *Store) Dim() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Dtype returns the established element type, or DTypeUnset.
func (s *Store) Dtype() DType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dtype
}

// Get returns a copy of row i. Fails with EmptyStore if the store has
// no rows, or UnknownIndex if i is out of range.
func (s *Store) Get(i int) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.rows) == 0 {
		return nil, errors.New(errors.CodeEmptyStore, "data store is empty")
	}
	if i < 0 || i >= len(s.rows) {
		return nil, errors.Newf(errors.CodeUnknownIndex, "row index %d out of range [0,%d)", i, len(s.rows))
	}
	row := make([]float64, s.dim)
	copy(row, s.rows[i])
	return row, nil
}

// GetRange returns copies of rows [start, end). Fails with EmptyStore
// if the store has no rows, or UnknownIndex if the range is invalid.
func (s *Store) GetRange(start, end int) ([][]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.rows) == 0 {
		return nil, errors.New(errors.CodeEmptyStore, "data store is empty")
	}
	if start < 0 || end > len(s.rows) || start > end {
		return nil, errors.Newf(errors.CodeUnknownIndex, "range [%d,%d) out of range [0,%d)", start, end, len(s.rows))
	}
	out := make([][]float64, end-start)
	for i := start; i < end; i++ {
		row := make([]float64, s.dim)
		copy(row, s.rows[i])
		out[i-start] = row
	}
	return out, nil
}

// At returns a direct, unsafe view of row i for read-only internal use
// (no per-call copy). Callers must not mutate the returned slice and
// must not retain it past the next Append, since a future
// implementation is free to grow by reallocation. Unlike Get, it skips
// the EmptyStore/UnknownIndex error wrapping hot call sites (the
// hyperplane and tree-traversal code) don't need on every row access;
// callers there have already validated i against Size().
func (s *Store) At(i int) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows[i]
}
