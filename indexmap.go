/*
 * indexmap.go, part of trajmaker.
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
	"fmt"
	"math"
)

// MaxAtoms is the largest supercell, in atoms, that can be built. Trajectory
// formats such as DCD store the number of atoms as a 32-bit integer.
const MaxAtoms = math.MaxInt32

// Dims holds the number of replicated cells along each lattice vector.
type Dims [3]int

// Cells returns the number of cells in the supercell.
func (D Dims) Cells() int {
	return D[0] * D[1] * D[2]
}

// Check returns an ErrInvalidDimensions error if any dimension is not
// positive, or if the supercell has more than MaxAtoms cells.
func (D Dims) Check() error {
	for i, v := range D {
		if v <= 0 {
			return NewConfigError(ErrInvalidDimensions, fmt.Sprintf("supercell.dimensions[%d]", i),
				"supercell dimensions should be integers >= 1, got %d", v)
		}
	}
	cells := 1
	for _, v := range D {
		if cells > MaxAtoms/v {
			return NewConfigError(ErrInvalidDimensions, "supercell.dimensions",
				"a %dx%dx%d supercell has more than %d cells", D[0], D[1], D[2], MaxAtoms)
		}
		cells *= v
	}
	return nil
}

// CheckAtoms is like Check, and also fails if replicating a base cell of
// natoms atoms would give more than MaxAtoms atoms.
func (D Dims) CheckAtoms(natoms int) error {
	if err := D.Check(); err != nil {
		return err
	}
	if natoms > 0 && D.Cells() > MaxAtoms/natoms {
		return NewConfigError(ErrInvalidDimensions, "supercell.dimensions",
			"a %dx%dx%d supercell of a %d atom cell has more than %d atoms", D[0], D[1], D[2], natoms, MaxAtoms)
	}
	return nil
}

// CellAtomToAbsolute returns the index, in the replicated supercell, of the
// base atom i of cell (a,b,c). All indices are 0-based. The layout is
// row-major over (a,b,c,i): the atom index varies fastest, then c, then b,
// then a. No bounds checking is done.
func CellAtomToAbsolute(a, b, c, i int, dims Dims, natoms int) int {
	return ((a*dims[1]+b)*dims[2]+c)*natoms + i
}

// IndexMap maps (cell, base atom) pairs to supercell atom indices. It is a
// bijection onto [0, Len()).
type IndexMap struct {
	dims   Dims
	natoms int
}

// NewIndexMap returns the IndexMap for a base cell with natoms atoms,
// replicated dims times.
func NewIndexMap(natoms int, dims Dims) (*IndexMap, error) {
	if err := dims.Check(); err != nil {
		return nil, errDecorate(err, "NewIndexMap")
	}
	if natoms < 1 {
		return nil, NewConfigError(ErrIndexOutOfRange, "structure", "the base cell has no atoms")
	}
	if err := dims.CheckAtoms(natoms); err != nil {
		return nil, errDecorate(err, "NewIndexMap")
	}
	return &IndexMap{dims: dims, natoms: natoms}, nil
}

// At returns the absolute index of base atom i in cell (a,b,c), all 0-based.
// It panics if any argument is out of range.
func (M *IndexMap) At(a, b, c, i int) int {
	if a < 0 || a >= M.dims[0] || b < 0 || b >= M.dims[1] || c < 0 || c >= M.dims[2] || i < 0 || i >= M.natoms {
		panic(ErrCellOutOfRange)
	}
	return CellAtomToAbsolute(a, b, c, i, M.dims, M.natoms)
}

// Cell is the inverse of At: it returns the 1-based cell coordinate and the
// 0-based base atom index of the absolute index abs.
func (M *IndexMap) Cell(abs int) (CellCoord, int) {
	if abs < 0 || abs >= M.Len() {
		panic(ErrCellOutOfRange)
	}
	i := abs % M.natoms
	rest := abs / M.natoms
	c := rest % M.dims[2]
	rest /= M.dims[2]
	b := rest % M.dims[1]
	a := rest / M.dims[1]
	return CellCoord{a + 1, b + 1, c + 1}, i
}

// Len returns the number of atoms in the supercell.
func (M *IndexMap) Len() int {
	return M.dims.Cells() * M.natoms
}

// Dims returns the supercell dimensions.
func (M *IndexMap) Dims() Dims {
	return M.dims
}

// Atoms returns the number of atoms in the base cell.
func (M *IndexMap) Atoms() int {
	return M.natoms
}
