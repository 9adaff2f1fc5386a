/*
 * poscar.go, part of trajmaker.
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

// Package vasp reads and writes the VASP structure (POSCAR) and trajectory
// (XDATCAR) formats.
package vasp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	trajmaker "github.com/pablogalaviz/trajmaker"
	v3 "github.com/pablogalaviz/trajmaker/v3"
	"gonum.org/v1/gonum/mat"
)

//lineReader keeps track of the line number, for the error messages.
type lineReader struct {
	s    *bufio.Scanner
	line int
	name string
}

func (r *lineReader) next(what string) (string, error) {
	if !r.s.Scan() {
		err := r.s.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return "", Error{fmt.Sprintf("reading %s after line %d: %s", what, r.line, err), r.name, []string{"ReadPOSCAR"}, true}
	}
	r.line++
	return r.s.Text(), nil
}

func (r *lineReader) errorf(format string, args ...any) error {
	return Error{fmt.Sprintf("line %d: ", r.line) + fmt.Sprintf(format, args...), r.name, []string{"ReadPOSCAR"}, true}
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(fields))
	}
	ret := make([]float64, n)
	for i := range ret {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		ret[i] = f
	}
	return ret, nil
}

//isSymbol returns true if s looks like a chemical symbol, such as "C",
//"Na" or the "Fe_pv" names of some POTCARs.
func isSymbol(s string) bool {
	s, _, _ = strings.Cut(s, "_")
	s, _, _ = strings.Cut(s, "/")
	if len(s) == 0 || len(s) > 3 || !unicode.IsUpper(rune(s[0])) {
		return false
	}
	for _, r := range s[1:] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// ReadPOSCAR reads a structure in the POSCAR format from r. The lattice and
// the coordinates are returned in Angstrom, cartesian coordinates. Both the
// VASP 5 layout, with a line of chemical symbols, and the VASP 4 one, where
// the symbols are taken from the comment line, are supported. A negative
// scaling factor is taken as the volume of the cell. Selective dynamics
// flags are read and ignored.
func ReadPOSCAR(in io.Reader, name string) (*trajmaker.Structure, error) {
	r := &lineReader{s: bufio.NewScanner(in), name: name}
	comment, err := r.next("comment")
	if err != nil {
		return nil, err
	}
	comment = strings.TrimSpace(comment)
	line, err := r.next("scaling factor")
	if err != nil {
		return nil, err
	}
	sf := strings.Fields(line)
	if len(sf) != 1 && len(sf) != 3 {
		return nil, r.errorf("expected 1 or 3 scaling factors, got %d", len(sf))
	}
	scale, err := parseFloats(sf, len(sf))
	if err != nil {
		return nil, r.errorf("scaling factor: %s", err)
	}
	ldata := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		line, err := r.next("lattice vectors")
		if err != nil {
			return nil, err
		}
		v, err := parseFloats(strings.Fields(line), 3)
		if err != nil {
			return nil, r.errorf("lattice vector %d: %s", i+1, err)
		}
		ldata = append(ldata, v...)
	}
	lattice, _ := v3.NewMatrix(ldata)
	vscale := [3]float64{1, 1, 1}
	switch {
	case len(scale) == 3:
		if scale[0] <= 0 || scale[1] <= 0 || scale[2] <= 0 {
			return nil, r.errorf("the three scaling factors must be positive")
		}
		copy(vscale[:], scale)
	case scale[0] < 0:
		det := math.Abs(mat.Det(lattice))
		if det == 0 {
			return nil, r.errorf("singular lattice")
		}
		s := math.Cbrt(-scale[0] / det)
		vscale = [3]float64{s, s, s}
	case scale[0] == 0:
		return nil, r.errorf("the scaling factor can't be zero")
	default:
		vscale = [3]float64{scale[0], scale[0], scale[0]}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			lattice.Set(i, j, lattice.At(i, j)*vscale[j])
		}
	}

	line, err = r.next("species")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	var symbols []string
	if len(fields) > 0 {
		if _, err := strconv.Atoi(fields[0]); err != nil {
			symbols = fields
			line, err = r.next("species counts")
			if err != nil {
				return nil, err
			}
			fields = strings.Fields(line)
		}
	}
	counts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			break
		}
		if n < 0 {
			return nil, r.errorf("negative atom count %d", n)
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		return nil, r.errorf("no atom counts found in %q", line)
	}
	if symbols == nil {
		//VASP 4 files may carry the species in the comment
		for _, f := range strings.Fields(comment) {
			if isSymbol(f) {
				symbols = append(symbols, f)
			}
		}
	}
	if len(symbols) < len(counts) {
		return nil, r.errorf("%d species counts, but %d chemical symbols", len(counts), len(symbols))
	}
	natoms := 0
	atoms := make([]*trajmaker.Atom, 0)
	for i, n := range counts {
		sym, _, _ := strings.Cut(symbols[i], "_")
		sym, _, _ = strings.Cut(sym, "/")
		for k := 0; k < n; k++ {
			natoms++
			atoms = append(atoms, &trajmaker.Atom{Symbol: sym, ID: natoms})
		}
	}
	if natoms == 0 {
		return nil, r.errorf("the structure has no atoms")
	}

	line, err = r.next("coordinate mode")
	if err != nil {
		return nil, err
	}
	mode := strings.TrimSpace(line)
	if mode != "" && (mode[0] == 's' || mode[0] == 'S') {
		line, err = r.next("coordinate mode")
		if err != nil {
			return nil, err
		}
		mode = strings.TrimSpace(line)
	}
	if mode == "" {
		return nil, r.errorf("missing coordinate mode")
	}
	cartesian := strings.ContainsRune("cCkK", rune(mode[0]))

	cdata := make([]float64, 0, 3*natoms)
	for i := 0; i < natoms; i++ {
		line, err := r.next("coordinates")
		if err != nil {
			return nil, err
		}
		v, err := parseFloats(strings.Fields(line), 3)
		if err != nil {
			return nil, r.errorf("coordinates of atom %d: %s", i+1, err)
		}
		cdata = append(cdata, v...)
	}
	coords, _ := v3.NewMatrix(cdata)
	if cartesian {
		for i := 0; i < natoms; i++ {
			for j := 0; j < 3; j++ {
				coords.Set(i, j, coords.At(i, j)*vscale[j])
			}
		}
	} else {
		coords = trajmaker.ToCartesian(coords, lattice)
	}
	s, err := trajmaker.NewStructure(comment, lattice, atoms, coords)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"ReadPOSCAR"}, true}
	}
	return s, nil
}

// POSCARFileRead reads the POSCAR file name.
func POSCARFileRead(name string) (*trajmaker.Structure, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"POSCARFileRead"}, true}
	}
	defer f.Close()
	s, err := ReadPOSCAR(f, name)
	if err != nil {
		return nil, errDecorate(err, "POSCARFileRead")
	}
	return s, nil
}

// SpeciesCount is a run of consecutive atoms with the same symbol.
type SpeciesCount struct {
	Symbol string
	Count  int
}

// Species splits the atoms of s in runs of consecutive atoms of the same
// element, the way POSCAR and XDATCAR list them. A symbol may appear in
// more than one run.
func Species(s trajmaker.Atomer) []SpeciesCount {
	var ret []SpeciesCount
	for i := 0; i < s.Len(); i++ {
		sym := s.Atom(i).Symbol
		if n := len(ret); n > 0 && ret[n-1].Symbol == sym {
			ret[n-1].Count++
			continue
		}
		ret = append(ret, SpeciesCount{sym, 1})
	}
	return ret
}

func writeSpecies(w io.Writer, sc []SpeciesCount) error {
	for _, v := range sc {
		if _, err := fmt.Fprintf(w, " %3s", v.Symbol); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, v := range sc {
		if _, err := fmt.Fprintf(w, " %3d", v.Count); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeLattice(w io.Writer, lattice *v3.Matrix, format string) error {
	for i := 0; i < 3; i++ {
		v := lattice.Vec(i)
		if _, err := fmt.Fprintf(w, format, v[0], v[1], v[2]); err != nil {
			return err
		}
	}
	return nil
}

// WritePOSCAR writes s in the VASP 5 POSCAR format, with a scaling factor
// of 1. Coordinates are written as fractional ("Direct") if direct is true,
// and cartesian otherwise.
func WritePOSCAR(out io.Writer, s *trajmaker.Structure, direct bool) error {
	w := bufio.NewWriter(out)
	werr := func(err error) error {
		return Error{err.Error(), "", []string{"WritePOSCAR"}, true}
	}
	comment := strings.ReplaceAll(s.Comment, "\n", " ")
	if comment == "" {
		for _, v := range Species(s) {
			comment += v.Symbol
			if v.Count > 1 {
				comment += strconv.Itoa(v.Count)
			}
		}
	}
	if _, err := fmt.Fprintf(w, "%s\n %19.16f\n", comment, 1.0); err != nil {
		return werr(err)
	}
	if err := writeLattice(w, s.Lattice, " %21.16f %21.16f %21.16f\n"); err != nil {
		return werr(err)
	}
	if err := writeSpecies(w, Species(s)); err != nil {
		return werr(err)
	}
	coords := s.Coords
	if direct {
		var err error
		coords, err = trajmaker.ToFractional(s.Coords, s.Lattice)
		if err != nil {
			return Error{err.Error(), "", []string{"WritePOSCAR"}, true}
		}
		_, err = fmt.Fprintln(w, "Direct")
		if err != nil {
			return werr(err)
		}
	} else if _, err := fmt.Fprintln(w, "Cartesian"); err != nil {
		return werr(err)
	}
	for i := 0; i < coords.NVecs(); i++ {
		v := coords.Vec(i)
		if _, err := fmt.Fprintf(w, " %19.16f %19.16f %19.16f\n", v[0], v[1], v[2]); err != nil {
			return werr(err)
		}
	}
	if err := w.Flush(); err != nil {
		return werr(err)
	}
	return nil
}

// POSCARFileWrite writes s to the file name, which is overwritten if it
// exists.
func POSCARFileWrite(name string, s *trajmaker.Structure, direct bool) error {
	f, err := os.Create(name)
	if err != nil {
		return Error{UnableToOpen + ": " + err.Error(), name, []string{"POSCARFileWrite"}, true}
	}
	if err := WritePOSCAR(f, s, direct); err != nil {
		f.Close()
		if e, ok := err.(Error); ok {
			e.filename = name
			err = e
		}
		return errDecorate(err, "POSCARFileWrite")
	}
	if err := f.Close(); err != nil {
		return Error{err.Error(), name, []string{"POSCARFileWrite"}, true}
	}
	return nil
}

//Errors

// Error is the error type for the VASP readers and writers. It fulfills
// trajmaker.TrajError.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.filename == "" {
		return "vasp: " + err.message
	}
	return fmt.Sprintf("vasp file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error.
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the file associated with the error.
func (err Error) FileName() string { return err.filename }

// Format returns "vasp".
func (err Error) Format() string { return "vasp" }

// Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const (
	UnableToOpen   = "Unable to open file"
	TrajUnIniWrite = "Traj object uninitialized to write"
	NilCoordinates = "Given nil coordinates"
)

func errDecorate(err error, caller string) error {
	if err2, ok := err.(trajmaker.Error); ok {
		err2.Decorate(caller)
	}
	return err
}
