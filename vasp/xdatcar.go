/*
 * xdatcar.go, part of trajmaker.
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

package vasp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	trajmaker "github.com/pablogalaviz/trajmaker"
	v3 "github.com/pablogalaviz/trajmaker/v3"
	"gonum.org/v1/gonum/mat"
)

// DefaultLabel is the first line of the XDATCAR files when no label is given.
const DefaultLabel = "Trajectory"

// XDATCARW writes a fixed-cell VASP XDATCAR trajectory. Every frame is
// written as a "Direct configuration" block of fractional coordinates,
// wrapped into [0,1).
type XDATCARW struct {
	f         io.Closer
	w         *bufio.Writer
	filename  string
	natoms    int
	frames    int
	inv       *mat.Dense
	frac      *v3.Matrix
	writeable bool
}

// NewXDATCARWriter creates the file name and writes the XDATCAR header for
// the cell and atoms of s. Only the lattice and the atoms of s are used.
func NewXDATCARWriter(name string, s *trajmaker.Structure, label string) (*XDATCARW, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"NewXDATCARWriter"}, true}
	}
	X, err := newXDATCAR(f, f, s, label)
	if err != nil {
		f.Close()
		if e, ok := err.(Error); ok {
			e.filename = name
			err = e
		}
		return nil, errDecorate(err, "NewXDATCARWriter")
	}
	X.filename = name
	return X, nil
}

func newXDATCAR(out io.Writer, closer io.Closer, s *trajmaker.Structure, label string) (*XDATCARW, error) {
	if s == nil || s.Len() == 0 {
		return nil, Error{"no atoms to write", "", []string{"newXDATCAR"}, true}
	}
	X := &XDATCARW{f: closer, w: bufio.NewWriter(out), natoms: s.Len(), frac: v3.Zeros(s.Len())}
	X.inv = mat.NewDense(3, 3, nil)
	if err := X.inv.Inverse(s.Lattice.Dense); err != nil {
		return nil, Error{"singular lattice: " + err.Error(), "", []string{"newXDATCAR"}, true}
	}
	if label == "" {
		label = DefaultLabel
	}
	label = strings.ReplaceAll(label, "\n", " ")
	werr := func(err error) error {
		return Error{err.Error(), "", []string{"newXDATCAR"}, true}
	}
	if _, err := fmt.Fprintf(X.w, "%s\n           1\n", label); err != nil {
		return nil, werr(err)
	}
	if err := writeLattice(X.w, s.Lattice, "  %11.6f %11.6f %11.6f\n"); err != nil {
		return nil, werr(err)
	}
	if err := writeSpecies(X.w, Species(s)); err != nil {
		return nil, werr(err)
	}
	X.writeable = true
	return X, nil
}

// Len returns the number of atoms per frame.
func (X *XDATCARW) Len() int {
	return X.natoms
}

// Frames returns the number of frames written so far.
func (X *XDATCARW) Frames() int {
	return X.frames
}

// WNext writes the cartesian coordinates in coords as the next frame.
// The cell is fixed, so box is ignored.
func (X *XDATCARW) WNext(coords *v3.Matrix, box ...[]float64) error {
	if !X.writeable {
		return Error{TrajUnIniWrite, X.filename, []string{"WNext"}, true}
	}
	if coords == nil {
		return Error{NilCoordinates, X.filename, []string{"WNext"}, true}
	}
	if coords.NVecs() != X.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", coords.NVecs(), X.natoms), X.filename, []string{"WNext"}, true}
	}
	X.frac.Mul(coords, X.inv)
	if _, err := fmt.Fprintf(X.w, "Direct configuration=%6d\n", X.frames+1); err != nil {
		return Error{err.Error(), X.filename, []string{"WNext"}, true}
	}
	for i := 0; i < X.natoms; i++ {
		v := X.frac.Vec(i)
		for j := range v {
			v[j] = wrap(v[j])
		}
		if _, err := fmt.Fprintf(X.w, " %11.8f %11.8f %11.8f\n", v[0], v[1], v[2]); err != nil {
			return Error{err.Error(), X.filename, []string{"WNext"}, true}
		}
	}
	X.frames++
	return nil
}

//wrap brings a fractional coordinate into [0,1). Values within rounding
//distance of 1 become 0.
func wrap(x float64) float64 {
	x -= math.Floor(x)
	if x >= 1-1e-12 {
		x = 0
	}
	return x
}

// Close flushes the trajectory and closes the file.
func (X *XDATCARW) Close() error {
	if !X.writeable {
		return nil
	}
	X.writeable = false
	err := X.w.Flush()
	if X.f != nil {
		if err2 := X.f.Close(); err == nil {
			err = err2
		}
	}
	if err != nil {
		return Error{err.Error(), X.filename, []string{"Close"}, true}
	}
	return nil
}

var _ trajmaker.TrajWriter = (*XDATCARW)(nil)
