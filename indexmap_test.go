/*
 * indexmap_test.go, part of trajmaker.
 *
 * Copyright 2026 The trajmaker Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package trajmaker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexMapBijection(t *testing.T) {
	for _, tc := range []struct {
		dims   Dims
		natoms int
	}{
		{Dims{1, 1, 1}, 1},
		{Dims{2, 3, 4}, 5},
		{Dims{3, 1, 2}, 7},
		{Dims{1, 4, 1}, 2},
	} {
		m, err := NewIndexMap(tc.natoms, tc.dims)
		require.NoError(t, err)
		require.Equal(t, tc.dims.Cells()*tc.natoms, m.Len())
		seen := make([]int, m.Len())
		next := 0
		for a := 0; a < tc.dims[0]; a++ {
			for b := 0; b < tc.dims[1]; b++ {
				for c := 0; c < tc.dims[2]; c++ {
					for i := 0; i < tc.natoms; i++ {
						abs := m.At(a, b, c, i)
						require.True(t, abs >= 0 && abs < m.Len(), "index %d out of range", abs)
						seen[abs]++
						//row-major over (a,b,c,i)
						assert.Equal(t, next, abs)
						next++
						cell, base := m.Cell(abs)
						assert.Equal(t, CellCoord{a + 1, b + 1, c + 1}, cell)
						assert.Equal(t, i, base)
					}
				}
			}
		}
		for abs, n := range seen {
			assert.Equal(t, 1, n, "absolute index %d seen %d times", abs, n)
		}
	}
}

func TestCellAtomToAbsolute(t *testing.T) {
	dims := Dims{2, 3, 4}
	assert.Equal(t, 0, CellAtomToAbsolute(0, 0, 0, 0, dims, 5))
	assert.Equal(t, 4, CellAtomToAbsolute(0, 0, 0, 4, dims, 5))
	assert.Equal(t, 5, CellAtomToAbsolute(0, 0, 1, 0, dims, 5))
	assert.Equal(t, 20, CellAtomToAbsolute(0, 1, 0, 0, dims, 5))
	assert.Equal(t, 60, CellAtomToAbsolute(1, 0, 0, 0, dims, 5))
	assert.Equal(t, 119, CellAtomToAbsolute(1, 2, 3, 4, dims, 5))
}

func TestIndexMapErrors(t *testing.T) {
	for _, dims := range []Dims{{0, 1, 1}, {1, -2, 1}, {1, 1, 0}} {
		_, err := NewIndexMap(3, dims)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidDimensions), "got %v", err)
	}
	_, err := NewIndexMap(0, Dims{1, 1, 1})
	require.Error(t, err)

	//supercells whose atom count doesn't fit in an int32
	for _, dims := range []Dims{{1 << 21, 1 << 21, 1 << 21}, {1 << 11, 1 << 11, 1 << 11}, {1 << 10, 1 << 10, 1 << 10}} {
		_, err := NewIndexMap(4, dims)
		require.Error(t, err, "%v", dims)
		assert.True(t, errors.Is(err, ErrInvalidDimensions), "got %v", err)
	}
	m, err := NewIndexMap(1, Dims{1 << 10, 1 << 10, 1 << 10})
	require.NoError(t, err)
	assert.Equal(t, 1<<30, m.Len())

	m, err = NewIndexMap(2, Dims{1, 1, 1})
	require.NoError(t, err)
	assert.Panics(t, func() { m.At(1, 0, 0, 0) })
	assert.Panics(t, func() { m.At(0, 0, 0, 2) })
	assert.Panics(t, func() { m.Cell(2) })
}
