/*
 * validate_test.go, part of trajmaker.
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

func validParams() *Params {
	ov := Overrides{}
	ov.Set(CellCoord{2, 1, 1}, "A", Override{Scale: [3]float64{1, 1, 1}})
	return &Params{
		Dims: Dims{2, 1, 1},
		Groups: []GroupDefinition{
			{Name: "A", Indices: []int{1, 2}, Amplitude: [3]float64{0.1, 0, 0}, Frequency: [3]float64{1, 0, 0}},
			{Name: "B", Indices: []int{3}},
		},
		Overrides: ov,
		Evolution: Evolution{FinalTime: 1, DeltaTime: 0.1},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validParams(), 3))

	for _, tc := range []struct {
		name   string
		modify func(p *Params)
		natoms int
		kind   Kind
		field  string
	}{
		{"zero dimension", func(p *Params) { p.Dims[2] = 0 }, 3, ErrInvalidDimensions, "supercell.dimensions[2]"},
		{"negative dimension", func(p *Params) { p.Dims[0] = -1 }, 3, ErrInvalidDimensions, "supercell.dimensions[0]"},
		{"huge supercell", func(p *Params) { p.Dims = Dims{1 << 21, 1 << 21, 1 << 21} }, 3, ErrInvalidDimensions, "supercell.dimensions"},
		{"too many atoms", func(p *Params) { p.Dims = Dims{1 << 10, 1 << 10, 1 << 10} }, 3, ErrInvalidDimensions, "supercell.dimensions"},
		{"tiny step", func(p *Params) { p.Evolution.DeltaTime = 1e-20 }, 3, ErrInvalidEvolution, "evolution.delta_time"},
		{"zero step", func(p *Params) { p.Evolution.DeltaTime = 0 }, 3, ErrInvalidEvolution, "evolution.delta_time"},
		{"index too large", func(p *Params) {}, 2, ErrIndexOutOfRange, "groups[1].indices[0]"},
		{"index zero", func(p *Params) { p.Groups[0].Indices[1] = 0 }, 3, ErrIndexOutOfRange, "groups[0].indices[1]"},
		{"no atoms", func(p *Params) {}, 0, ErrIndexOutOfRange, "structure.input_poscar"},
		{"no name", func(p *Params) { p.Groups[1].Name = "" }, 3, ErrSchemaViolation, "groups[1].name"},
		{"repeated name", func(p *Params) { p.Groups[1].Name = "A" }, 3, ErrSchemaViolation, "groups[1].name"},
		{"empty group", func(p *Params) { p.Groups[1].Indices = nil }, 3, ErrSchemaViolation, "groups[1].indices"},
		{"cell outside", func(p *Params) {
			p.Overrides.Set(CellCoord{1, 2, 1}, "B", Override{})
		}, 3, ErrSchemaViolation, "supercell.parameters[1-2-1].supercell_index"},
		{"unknown group", func(p *Params) {
			p.Overrides.Set(CellCoord{1, 1, 1}, "C", Override{})
		}, 3, ErrSchemaViolation, "supercell.parameters[1-1-1].groups"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.modify(p)
			err := Validate(p, tc.natoms)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "want %q, got %v", tc.kind, err)
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tc.field, cerr.Field)
			assert.True(t, cerr.Critical())
		})
	}
}

func TestValidateBlocksEvolution(t *testing.T) {
	p := validParams()
	p.Groups = []GroupDefinition{{Name: "A", Indices: []int{5}}}
	p.Overrides = nil
	err := Validate(p, 4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	m, err := NewIndexMap(4, p.Dims)
	require.NoError(t, err)
	groups, err := ResolveGroups(p.Groups, m, p.Overrides)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Nil(t, groups)
}

func TestConfigErrorMessage(t *testing.T) {
	err := NewConfigError(ErrSchemaViolation, "groups[0].name", "groups must have a %s", "name")
	assert.Equal(t, "schema violation in groups[0].name: groups must have a name", err.Error())
	assert.Equal(t, []string{"Validate"}, err.Decorate("Validate"))
	assert.Equal(t, "configuration not found", NewConfigError(ErrConfigurationNotFound, "", "").Error())
}
