/*
 * validate.go, part of trajmaker.
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
	"cmp"
	"fmt"
	"slices"
)

// Params gathers everything needed to resolve the groups and evolve the
// supercell, as read from a configuration file.
type Params struct {
	Dims      Dims
	Groups    []GroupDefinition
	Overrides Overrides
	Evolution Evolution
}

// Validate checks p against a base cell with natoms atoms. It returns the
// first problem found, as a *ConfigError:
//
//	ErrInvalidDimensions  a supercell dimension is not positive, or the
//	                      supercell would have more than MaxAtoms atoms
//	ErrInvalidEvolution   the time step is not positive, or a time is not finite
//	ErrSchemaViolation    a group has no name, no indices, or a repeated name;
//	                      an override names an unknown group or a cell
//	                      outside the supercell
//	ErrIndexOutOfRange    a group index is outside [1, natoms]
func Validate(p *Params, natoms int) error {
	if err := p.Dims.Check(); err != nil {
		return errDecorate(err, "Validate")
	}
	if err := p.Evolution.Check(); err != nil {
		return errDecorate(err, "Validate")
	}
	if natoms < 1 {
		return NewConfigError(ErrIndexOutOfRange, "structure.input_poscar", "the base cell has no atoms")
	}
	if err := p.Dims.CheckAtoms(natoms); err != nil {
		return errDecorate(err, "Validate")
	}
	names := make(map[string]int, len(p.Groups))
	for i, g := range p.Groups {
		field := fmt.Sprintf("groups[%d]", i)
		if g.Name == "" {
			return NewConfigError(ErrSchemaViolation, field+".name", "groups must have a name")
		}
		if prev, ok := names[g.Name]; ok {
			return NewConfigError(ErrSchemaViolation, field+".name", "group name %q already used by groups[%d]", g.Name, prev)
		}
		names[g.Name] = i
		if len(g.Indices) == 0 {
			return NewConfigError(ErrSchemaViolation, field+".indices", "group %q has no atoms", g.Name)
		}
	}
	if err := CheckIndices(p.Groups, natoms); err != nil {
		return errDecorate(err, "Validate")
	}
	cells := make([]CellCoord, 0, len(p.Overrides))
	for cell := range p.Overrides {
		cells = append(cells, cell)
	}
	slices.SortFunc(cells, func(x, y CellCoord) int {
		return cmp.Or(cmp.Compare(x.A, y.A), cmp.Compare(x.B, y.B), cmp.Compare(x.C, y.C))
	})
	for _, cell := range cells {
		field := fmt.Sprintf("supercell.parameters[%s]", cell)
		if !cell.In(p.Dims) {
			return NewConfigError(ErrSchemaViolation, field+".supercell_index",
				"cell %s is outside the %dx%dx%d supercell", cell, p.Dims[0], p.Dims[1], p.Dims[2])
		}
		groups := make([]string, 0, len(p.Overrides[cell]))
		for name := range p.Overrides[cell] {
			groups = append(groups, name)
		}
		slices.Sort(groups)
		for _, name := range groups {
			if _, ok := names[name]; !ok {
				return NewConfigError(ErrSchemaViolation, field+".groups", "override for unknown group %q", name)
			}
		}
	}
	return nil
}
