/*
 * trajplot.go, part of trajmaker.
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

// Package trajplot draws the displacements of a generated trajectory as
// functions of time.
package trajplot

import (
	"fmt"

	trajmaker "github.com/pablogalaviz/trajmaker"
	v3 "github.com/pablogalaviz/trajmaker/v3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Size of the saved figures.
var (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// Displacement returns, for each cartesian component, the displacement of
// atom (a 0-based supercell index) from its position in base, at the time
// of every frame.
func Displacement(base *v3.Matrix, frames []*trajmaker.Frame, atom int) ([3]plotter.XYs, error) {
	var ret [3]plotter.XYs
	if atom < 0 || atom >= base.NVecs() {
		return ret, fmt.Errorf("trajplot: atom %d out of range, the structure has %d atoms", atom+1, base.NVecs())
	}
	for j := range ret {
		ret[j] = make(plotter.XYs, len(frames))
	}
	b := base.Vec(atom)
	for k, f := range frames {
		if f.Coords.NVecs() != base.NVecs() {
			return ret, fmt.Errorf("trajplot: frame %d has %d atoms, expected %d", k, f.Coords.NVecs(), base.NVecs())
		}
		c := f.Coords.Vec(atom)
		for j := range ret {
			ret[j][k].X = f.Time
			ret[j][k].Y = c[j] - b[j]
		}
	}
	return ret, nil
}

func newPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = "time"
	p.Y.Label.Text = ylabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

// DisplacementPlot saves to filename a plot of the x, y and z displacements
// of the given atoms (1-based supercell indices). The format is taken from
// the file extension (png, svg, pdf, ...).
func DisplacementPlot(base *v3.Matrix, frames []*trajmaker.Frame, atoms []int, title, filename string) error {
	if len(atoms) == 0 {
		return fmt.Errorf("trajplot: no atoms to plot")
	}
	p := newPlot(title, "displacement (Å)")
	var lines []any
	for _, a := range atoms {
		d, err := Displacement(base, frames, a-1)
		if err != nil {
			return err
		}
		for j, axis := range []string{"x", "y", "z"} {
			lines = append(lines, fmt.Sprintf("atom %d %s", a, axis), d[j])
		}
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return fmt.Errorf("trajplot: %w", err)
	}
	if err := p.Save(Width, Height, filename); err != nil {
		return fmt.Errorf("trajplot: saving %s: %w", filename, err)
	}
	return nil
}

// RMSDPlot saves to filename a plot of the RMSD of every frame with respect
// to base.
func RMSDPlot(base *v3.Matrix, frames []*trajmaker.Frame, title, filename string) error {
	rmsd, err := trajmaker.RMSD(base, frames)
	if err != nil {
		return fmt.Errorf("trajplot: %w", err)
	}
	pts := make(plotter.XYs, len(frames))
	for k, f := range frames {
		pts[k].X = f.Time
		pts[k].Y = rmsd[k]
	}
	p := newPlot(title, "RMSD (Å)")
	if err := plotutil.AddLinePoints(p, "RMSD", pts); err != nil {
		return fmt.Errorf("trajplot: %w", err)
	}
	if err := p.Save(Width, Height, filename); err != nil {
		return fmt.Errorf("trajplot: saving %s: %w", filename, err)
	}
	return nil
}
