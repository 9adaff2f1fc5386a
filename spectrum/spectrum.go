/*
 * spectrum.go, part of trajmaker.
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

// Package spectrum finds the time correlations and the frequency content of
// the displacements in a trajectory. It is mostly used to check that a
// generated trajectory oscillates at the frequencies it was asked for.
package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	trajmaker "github.com/pablogalaviz/trajmaker"
	v3 "github.com/pablogalaviz/trajmaker/v3"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series returns the displacement of atom (0-based) along axis (0, 1 or 2
// for x, y and z) from its position in base, for every frame.
func Series(base *v3.Matrix, frames []*trajmaker.Frame, atom, axis int) ([]float64, error) {
	if atom < 0 || atom >= base.NVecs() {
		return nil, fmt.Errorf("spectrum: atom %d out of range, there are %d atoms", atom, base.NVecs())
	}
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("spectrum: invalid axis %d", axis)
	}
	ref := base.At(atom, axis)
	ret := make([]float64, len(frames))
	for k, f := range frames {
		if f.Coords.NVecs() != base.NVecs() {
			return nil, fmt.Errorf("spectrum: frame %d has %d atoms, expected %d", k, f.Coords.NVecs(), base.NVecs())
		}
		ret[k] = f.Coords.At(atom, axis) - ref
	}
	return ret, nil
}

// CrossCorrelation returns the normalized cross-correlation of x and y for
// the lags 0 to len(x)-1:
//
//	c[lag] = Σ (x[i]-<x>)(y[i+lag]-<y>) / (N σx σy)
//
// where the σ are population standard deviations. The sum is obtained with
// FFTs over zero-padded copies of the series, so there is no wrap-around.
func CrossCorrelation(x, y []float64) ([]float64, error) {
	n := len(x)
	if n == 0 || len(y) != n {
		return nil, fmt.Errorf("spectrum: series must be non-empty and of equal length, got %d and %d", len(x), len(y))
	}
	xmean, xstd := stat.PopMeanStdDev(x, nil)
	ymean, ystd := stat.PopMeanStdDev(y, nil)
	if xstd == 0 || ystd == 0 {
		return nil, fmt.Errorf("spectrum: constant series have no defined correlation")
	}
	xpad := make([]complex128, 2*n)
	ypad := make([]complex128, 2*n)
	for i := range x {
		xpad[i] = complex(x[i]-xmean, 0)
		ypad[i] = complex(y[i]-ymean, 0)
	}
	f := fourier.NewCmplxFFT(2 * n)
	f.Coefficients(xpad, xpad)
	f.Coefficients(ypad, ypad)
	for i, v := range xpad {
		ypad[i] *= cmplx.Conj(v)
	}
	f.Sequence(ypad, ypad)
	//Sequence doesn't normalize
	norm := float64(2*n) * float64(n) * xstd * ystd
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = real(ypad[i]) / norm
	}
	return ret, nil
}

// AutoCorrelation is the cross-correlation of x with itself. It is 1 at lag 0.
func AutoCorrelation(x []float64) ([]float64, error) {
	return CrossCorrelation(x, x)
}

// Power returns the frequencies, in inverse time units, and the power of
// each of them in x, sampled every dt. The mean of x is removed first.
func Power(x []float64, dt float64) (freqs, power []float64, err error) {
	if len(x) < 2 {
		return nil, nil, fmt.Errorf("spectrum: at least 2 samples are needed, got %d", len(x))
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, nil, fmt.Errorf("spectrum: invalid time step %g", dt)
	}
	mean := stat.Mean(x, nil)
	seq := make([]float64, len(x))
	for i, v := range x {
		seq[i] = v - mean
	}
	f := fourier.NewFFT(len(seq))
	coeff := f.Coefficients(nil, seq)
	freqs = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		freqs[i] = f.Freq(i) / dt
		a := cmplx.Abs(c)
		power[i] = a * a
	}
	return freqs, power, nil
}

// DominantFrequency returns the non-zero frequency with the largest power in
// x, sampled every dt. The resolution is 1/(len(x)·dt). A series with no
// oscillation returns 0.
func DominantFrequency(x []float64, dt float64) (float64, error) {
	freqs, power, err := Power(x, dt)
	if err != nil {
		return 0, err
	}
	//skip the zero frequency
	if floats.Max(power[1:]) <= 1e-20*float64(len(x)) {
		return 0, nil
	}
	return freqs[1+floats.MaxIdx(power[1:])], nil
}
