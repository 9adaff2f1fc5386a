/*
 * stats.go, part of trajmaker.
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

	v3 "github.com/pablogalaviz/trajmaker/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the root mean square displacement (RMSD) of the frames
// of a trajectory with respect to the undisplaced structure.
type Summary struct {
	Frames int
	Mean   float64 //mean over frames of the per-frame RMSD
	StdDev float64
	Max    float64
	MaxAt  int //frame with the largest RMSD
}

func (S Summary) String() string {
	return fmt.Sprintf("frames:%d rmsd mean:%.4f std:%.4f max:%.4f (frame %d)", S.Frames, S.Mean, S.StdDev, S.Max, S.MaxAt)
}

// RMSD returns, for each frame, the root mean square of the distances
// between the frame coordinates and ref.
func RMSD(ref *v3.Matrix, frames []*Frame) ([]float64, error) {
	n := ref.NVecs()
	ret := make([]float64, len(frames))
	for k, f := range frames {
		if f.Coords.NVecs() != n {
			return nil, fmt.Errorf("RMSD: frame %d has %d atoms, reference has %d", k, f.Coords.NVecs(), n)
		}
		var sum float64
		for i := 0; i < n; i++ {
			d := floats.Distance(f.Coords.VecSlice(i), ref.VecSlice(i), 2)
			sum += d * d
		}
		ret[k] = math.Sqrt(sum / float64(n))
	}
	return ret, nil
}

// Summarize computes the RMSD of every frame and its statistics.
func Summarize(ref *v3.Matrix, frames []*Frame) (Summary, error) {
	rmsd, err := RMSD(ref, frames)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Frames: len(frames)}
	if len(rmsd) == 0 {
		return s, nil
	}
	s.Mean, s.StdDev = stat.MeanStdDev(rmsd, nil)
	if len(rmsd) == 1 {
		s.StdDev = 0
	}
	s.MaxAt = floats.MaxIdx(rmsd)
	s.Max = rmsd[s.MaxAt]
	return s, nil
}
