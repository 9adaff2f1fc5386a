/*
 * structure.go, part of trajmaker.
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

	v3 "github.com/pablogalaviz/trajmaker/v3"
	"gonum.org/v1/gonum/mat"
)

// Atom contains the information to represent an atom, except for the coordinates,
// which are kept in a separate *v3.Matrix.
type Atom struct {
	Symbol string
	ID     int //1-based position in the structure
}

// Copy returns a copy of the Atom.
func (N *Atom) Copy() *Atom {
	if N == nil {
		panic("Attempted to copy a nil atom")
	}
	ret := *N
	return &ret
}

// Structure is a periodic set of atoms: a lattice, whose rows are the
// lattice vectors a, b and c, the atoms and their cartesian coordinates.
type Structure struct {
	Comment string
	Lattice *v3.Matrix
	Atoms   []*Atom
	Coords  *v3.Matrix
}

// NewStructure builds a Structure, checking that there are as many atoms as
// coordinates and that the lattice is 3x3.
func NewStructure(comment string, lattice *v3.Matrix, atoms []*Atom, coords *v3.Matrix) (*Structure, error) {
	if lattice == nil || coords == nil {
		return nil, fmt.Errorf("NewStructure: nil lattice or coordinates")
	}
	if lattice.NVecs() != 3 {
		return nil, fmt.Errorf("NewStructure: lattice must have 3 vectors, got %d", lattice.NVecs())
	}
	if len(atoms) != coords.NVecs() {
		return nil, fmt.Errorf("NewStructure: inconsistent atoms (%d) and coordinates (%d)", len(atoms), coords.NVecs())
	}
	return &Structure{Comment: comment, Lattice: lattice, Atoms: atoms, Coords: coords}, nil
}

// Len returns the number of atoms in the structure.
func (S *Structure) Len() int {
	return len(S.Atoms)
}

// Atom returns the ith atom. Panics if out of range.
func (S *Structure) Atom(i int) *Atom {
	if i < 0 || i >= len(S.Atoms) {
		panic("Structure: Requested Atom out of bounds")
	}
	return S.Atoms[i]
}

// Symbols returns the chemical symbol of every atom, in order.
func (S *Structure) Symbols() []string {
	ret := make([]string, len(S.Atoms))
	for i, v := range S.Atoms {
		ret[i] = v.Symbol
	}
	return ret
}

// Box returns the lattice vectors as a 9-element slice, in the layout the
// trajectory writers expect.
func (S *Structure) Box() []float64 {
	box := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		v := S.Lattice.Vec(i)
		box = append(box, v[:]...)
	}
	return box
}

// Replicate returns the supercell obtained by repeating S dims[0], dims[1]
// and dims[2] times along its lattice vectors. Cell (a,b,c) is translated by
// a·L0 + b·L1 + c·L2. Atoms are laid out with a varying slowest and the
// base atom index fastest, the same order used by IndexMap.
func (S *Structure) Replicate(dims Dims) (*Structure, error) {
	n := S.Len()
	if n == 0 {
		return nil, fmt.Errorf("Replicate: empty structure")
	}
	if err := dims.CheckAtoms(n); err != nil {
		return nil, errDecorate(err, "Replicate")
	}
	total := dims.Cells() * n
	lattice := v3.Zeros(3)
	for i := 0; i < 3; i++ {
		lattice.VecView(i).Scale(float64(dims[i]), S.Lattice.VecView(i))
	}
	coords := v3.Zeros(total)
	atoms := make([]*Atom, 0, total)
	shift := v3.Zeros(1)
	for a := 0; a < dims[0]; a++ {
		for b := 0; b < dims[1]; b++ {
			for c := 0; c < dims[2]; c++ {
				for k := 0; k < 3; k++ {
					shift.Set(0, k, float64(a)*S.Lattice.At(0, k)+float64(b)*S.Lattice.At(1, k)+float64(c)*S.Lattice.At(2, k))
				}
				start := CellAtomToAbsolute(a, b, c, 0, dims, n)
				coords.View(start, 0, n, 3).AddVec(S.Coords, shift)
				for _, at := range S.Atoms {
					nat := at.Copy()
					nat.ID = len(atoms) + 1
					atoms = append(atoms, nat)
				}
			}
		}
	}
	return &Structure{Comment: S.Comment, Lattice: lattice, Atoms: atoms, Coords: coords}, nil
}

// ToFractional returns the coordinates in coords expressed in the basis of
// the lattice (rows are the lattice vectors), i.e. F such that F·L = coords.
func ToFractional(coords, lattice *v3.Matrix) (*v3.Matrix, error) {
	var inv mat.Dense
	if err := inv.Inverse(lattice.Dense); err != nil {
		return nil, fmt.Errorf("ToFractional: singular lattice: %w", err)
	}
	ret := v3.Zeros(coords.NVecs())
	ret.Mul(coords, &inv)
	return ret, nil
}

// ToCartesian is the inverse of ToFractional.
func ToCartesian(frac, lattice *v3.Matrix) *v3.Matrix {
	ret := v3.Zeros(frac.NVecs())
	ret.Mul(frac, lattice)
	return ret
}
