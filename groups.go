/*
 * groups.go, part of trajmaker.
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

// CellCoord identifies one cell of the supercell. Coordinates are 1-based,
// A in [1,nx], B in [1,ny], C in [1,nz].
type CellCoord struct {
	A, B, C int
}

func (C CellCoord) String() string {
	return fmt.Sprintf("%d-%d-%d", C.A, C.B, C.C)
}

// In returns true if the cell lies inside a supercell of dimensions dims.
func (C CellCoord) In(dims Dims) bool {
	return C.A >= 1 && C.A <= dims[0] && C.B >= 1 && C.B <= dims[1] && C.C >= 1 && C.C <= dims[2]
}

// Override replaces the default phase and scale of one group in one cell.
type Override struct {
	Phase [3]float64
	Scale [3]float64
}

// Overrides holds the per-cell, per-group overrides, keyed by cell and then
// by group name.
type Overrides map[CellCoord]map[string]Override

// Set stores the override for group name in cell.
func (O Overrides) Set(cell CellCoord, name string, ov Override) {
	m, ok := O[cell]
	if !ok {
		m = make(map[string]Override)
		O[cell] = m
	}
	m[name] = ov
}

// Lookup returns the override for group name in cell, if any.
// It is safe to call on a nil Overrides.
func (O Overrides) Lookup(cell CellCoord, name string) (Override, bool) {
	m, ok := O[cell]
	if !ok {
		return Override{}, false
	}
	ov, ok := m[name]
	return ov, ok
}

// GroupDefinition is an oscillation group as declared in the configuration.
// Indices are 1-based indices of atoms in the base cell.
type GroupDefinition struct {
	Name      string
	Indices   []int
	Amplitude [3]float64
	Frequency [3]float64 //cycles per time unit
}

// ResolvedGroup is one instance of a GroupDefinition in one cell of the
// supercell. Indices are 0-based indices of the supercell atoms.
type ResolvedGroup struct {
	Name      string
	Cell      CellCoord
	Indices   []int
	Amplitude [3]float64
	Frequency [3]float64
	Phase     [3]float64
	Scale     [3]float64
}

var (
	defaultPhase = [3]float64{0, 0, 0}
	defaultScale = [3]float64{1, 1, 1}
)

// Displacement returns the offset the group applies to each of its atoms
// at time t: scale ⊙ amplitude ⊙ sin(2π(frequency·t − phase)).
func (G *ResolvedGroup) Displacement(t float64) [3]float64 {
	var d [3]float64
	for k := range d {
		d[k] = G.Scale[k] * G.Amplitude[k] * math.Sin(2*math.Pi*(G.Frequency[k]*t-G.Phase[k]))
	}
	return d
}

// CheckIndices returns an ErrIndexOutOfRange error for the first index, of the
// first group, that falls outside [1, natoms].
func CheckIndices(defs []GroupDefinition, natoms int) error {
	for gi, d := range defs {
		for k, i := range d.Indices {
			if i < 1 || i > natoms {
				return NewConfigError(ErrIndexOutOfRange, fmt.Sprintf("groups[%d].indices[%d]", gi, k),
					"atom index %d out of bounds for group %q, index should be between 1 and %d", i, d.Name, natoms)
			}
		}
	}
	return nil
}

// ResolveGroups expands every definition into one ResolvedGroup per cell of
// the supercell described by m. Groups come out in declaration order, and,
// within a group, with the cells ordered like the atoms of the supercell
// (a slowest, c fastest). Phase and scale are taken from ov when it has an
// entry for the cell and the group name, otherwise they default to zero
// phase and unit scale. Repeated indices in a definition are applied once.
func ResolveGroups(defs []GroupDefinition, m *IndexMap, ov Overrides) ([]*ResolvedGroup, error) {
	if err := CheckIndices(defs, m.Atoms()); err != nil {
		return nil, errDecorate(err, "ResolveGroups")
	}
	dims := m.Dims()
	ret := make([]*ResolvedGroup, 0, len(defs)*dims.Cells())
	for _, d := range defs {
		base := uniqueIndices(d.Indices)
		for a := 1; a <= dims[0]; a++ {
			for b := 1; b <= dims[1]; b++ {
				for c := 1; c <= dims[2]; c++ {
					cell := CellCoord{a, b, c}
					g := &ResolvedGroup{
						Name:      d.Name,
						Cell:      cell,
						Indices:   make([]int, len(base)),
						Amplitude: d.Amplitude,
						Frequency: d.Frequency,
						Phase:     defaultPhase,
						Scale:     defaultScale,
					}
					for k, i := range base {
						g.Indices[k] = m.At(a-1, b-1, c-1, i-1)
					}
					if o, ok := ov.Lookup(cell, d.Name); ok {
						g.Phase = o.Phase
						g.Scale = o.Scale
					}
					ret = append(ret, g)
				}
			}
		}
	}
	return ret, nil
}

//uniqueIndices returns the indices without repetitions, keeping the
//order of the first appearance.
func uniqueIndices(indices []int) []int {
	seen := make(map[int]bool, len(indices))
	ret := make([]int, 0, len(indices))
	for _, v := range indices {
		if seen[v] {
			continue
		}
		seen[v] = true
		ret = append(ret, v)
	}
	return ret
}
