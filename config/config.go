/*
 * config.go, part of trajmaker.
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

// Package config loads the YAML run configuration of trajmaker, checks it
// against its JSON schema and turns it into trajmaker.Params. It also
// holds the run settings that come from flags and the environment.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	trajmaker "github.com/pablogalaviz/trajmaker"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// StructureOptions names the input and output files.
type StructureOptions struct {
	InputPOSCAR   string `yaml:"input_poscar"`
	OutputXDATCAR string `yaml:"output_xdatcar"`
	OutputPOSCAR  string `yaml:"output_poscar,omitempty"` //undisplaced supercell, not written if empty
	Label         string `yaml:"label,omitempty"`
}

type EvolutionOptions struct {
	FinalTime float64 `yaml:"final_time"`
	DeltaTime float64 `yaml:"delta_time"`
}

type GroupOptions struct {
	Name      string    `yaml:"name"`
	Indices   []int     `yaml:"indices"`
	Frequency []float64 `yaml:"frequency"`
	Amplitude []float64 `yaml:"amplitude"`
}

type CellGroupOptions struct {
	Name  string    `yaml:"name"`
	Phase []float64 `yaml:"phase"`
	Scale []float64 `yaml:"scale"`
}

type CellParameters struct {
	SupercellIndex []int              `yaml:"supercell_index"`
	Groups         []CellGroupOptions `yaml:"groups"`
}

type SupercellOptions struct {
	//Dimensions are read as numbers so that a non-integer value is reported
	//as invalid dimensions rather than as a schema violation.
	Dimensions []float64        `yaml:"dimensions"`
	Parameters []CellParameters `yaml:"parameters,omitempty"`
}

// Config is the content of a configuration file.
type Config struct {
	Structure StructureOptions `yaml:"structure"`
	Evolution EvolutionOptions `yaml:"evolution"`
	Groups    []GroupOptions   `yaml:"groups"`
	Supercell SupercellOptions `yaml:"supercell"`

	path string
}

// Path returns the file the configuration was read from, if any.
func (C *Config) Path() string {
	return C.path
}

var resolvedSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(schemaJSON, &s); err != nil {
		return nil, fmt.Errorf("config: parsing embedded schema: %w", err)
	}
	rs, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("config: resolving embedded schema: %w", err)
	}
	return rs, nil
})

// Schema returns the JSON schema configuration files are checked against.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

// Load reads the YAML configuration file path. A missing file, or a
// directory, gives a trajmaker.ErrConfigurationNotFound error. A file whose
// name doesn't end in .yaml or .yml, that can't be parsed, or that doesn't
// follow the schema gives a trajmaker.ErrSchemaViolation error.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, trajmaker.NewConfigError(trajmaker.ErrConfigurationNotFound, "", "configuration file %s does not exist", path)
	}
	if err != nil {
		return nil, trajmaker.NewConfigError(trajmaker.ErrConfigurationNotFound, "", "%s", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, trajmaker.NewConfigError(trajmaker.ErrSchemaViolation, "", "configuration file %s is not a YAML (.yaml, .yml) file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, trajmaker.NewConfigError(trajmaker.ErrConfigurationNotFound, "", "%s", err)
	}
	C, err := Parse(data)
	if err != nil {
		return nil, err
	}
	C.path = path
	return C, nil
}

// Parse decodes and checks a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, trajmaker.NewConfigError(trajmaker.ErrSchemaViolation, "", "invalid YAML: %s", err)
	}
	//The schema validator works on JSON values.
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, trajmaker.NewConfigError(trajmaker.ErrSchemaViolation, "", "document can't be expressed as JSON: %s", err)
	}
	var instance any
	if err := json.Unmarshal(js, &instance); err != nil {
		return nil, trajmaker.NewConfigError(trajmaker.ErrSchemaViolation, "", "%s", err)
	}
	rs, err := resolvedSchema()
	if err != nil {
		return nil, err
	}
	if err := rs.Validate(instance); err != nil {
		return nil, trajmaker.NewConfigError(trajmaker.ErrSchemaViolation, "", "%s", err)
	}
	C := new(Config)
	if err := yaml.Unmarshal(data, C); err != nil {
		return nil, trajmaker.NewConfigError(trajmaker.ErrSchemaViolation, "", "%s", err)
	}
	return C, nil
}

func vec3(v []float64) [3]float64 {
	var ret [3]float64
	copy(ret[:], v)
	return ret
}

// Dims returns the supercell dimensions, or a trajmaker.ErrInvalidDimensions
// error if any of them is not a positive integer.
func (C *Config) Dims() (trajmaker.Dims, error) {
	var dims trajmaker.Dims
	if len(C.Supercell.Dimensions) != 3 {
		return dims, trajmaker.NewConfigError(trajmaker.ErrInvalidDimensions, "supercell.dimensions",
			"expected 3 dimensions, got %d", len(C.Supercell.Dimensions))
	}
	for i, d := range C.Supercell.Dimensions {
		if d != math.Trunc(d) || d < 1 || d > math.MaxInt32 {
			return dims, trajmaker.NewConfigError(trajmaker.ErrInvalidDimensions, fmt.Sprintf("supercell.dimensions[%d]", i),
				"supercell dimensions should be integers >= 1, got %g", d)
		}
		dims[i] = int(d)
	}
	return dims, nil
}

// Params converts the configuration into the parameters of a run. Override
// entries are keyed by cell; if a cell is listed more than once, the last
// entry replaces the previous ones, and within an entry the last settings
// for a group win. The result still has to go through trajmaker.Validate.
func (C *Config) Params() (*trajmaker.Params, error) {
	dims, err := C.Dims()
	if err != nil {
		return nil, err
	}
	p := &trajmaker.Params{
		Dims:      dims,
		Groups:    make([]trajmaker.GroupDefinition, 0, len(C.Groups)),
		Overrides: make(trajmaker.Overrides),
		Evolution: trajmaker.Evolution{FinalTime: C.Evolution.FinalTime, DeltaTime: C.Evolution.DeltaTime},
	}
	for _, g := range C.Groups {
		p.Groups = append(p.Groups, trajmaker.GroupDefinition{
			Name:      g.Name,
			Indices:   append([]int(nil), g.Indices...),
			Amplitude: vec3(g.Amplitude),
			Frequency: vec3(g.Frequency),
		})
	}
	for i, cp := range C.Supercell.Parameters {
		if len(cp.SupercellIndex) != 3 {
			return nil, trajmaker.NewConfigError(trajmaker.ErrSchemaViolation, fmt.Sprintf("supercell.parameters[%d].supercell_index", i),
				"expected 3 indices, got %d", len(cp.SupercellIndex))
		}
		cell := trajmaker.CellCoord{A: cp.SupercellIndex[0], B: cp.SupercellIndex[1], C: cp.SupercellIndex[2]}
		delete(p.Overrides, cell)
		for _, g := range cp.Groups {
			p.Overrides.Set(cell, g.Name, trajmaker.Override{Phase: vec3(g.Phase), Scale: vec3(g.Scale)})
		}
	}
	return p, nil
}

// Label returns the title line of the trajectory, "Trajectory" if the
// configuration sets none.
func (C *Config) Label() string {
	if C.Structure.Label == "" {
		return "Trajectory"
	}
	return C.Structure.Label
}
