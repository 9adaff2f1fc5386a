/*
 * evolve.go, part of trajmaker.
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
	"context"
	"fmt"
	"math"
	"runtime"

	v3 "github.com/pablogalaviz/trajmaker/v3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Evolution holds the time sampling of a run.
type Evolution struct {
	FinalTime float64
	DeltaTime float64

	//Progress, if not nil, is called before each frame is computed.
	//EvolveConc calls it from several goroutines.
	Progress func(step int, t float64)
}

// MaxFrames is the largest number of frames a run can produce.
const MaxFrames = math.MaxInt32

// Check returns an ErrInvalidEvolution error if the sampling can't be used,
// including a time step so small that there would be more than MaxFrames
// frames.
func (E Evolution) Check() error {
	if math.IsNaN(E.FinalTime) || math.IsInf(E.FinalTime, 0) {
		return NewConfigError(ErrInvalidEvolution, "evolution.final_time", "final time must be a finite number, got %g", E.FinalTime)
	}
	if !(E.DeltaTime > 0) || math.IsInf(E.DeltaTime, 0) {
		return NewConfigError(ErrInvalidEvolution, "evolution.delta_time", "time step must be a positive number, got %g", E.DeltaTime)
	}
	if n := E.FinalTime / E.DeltaTime; n > MaxFrames {
		return NewConfigError(ErrInvalidEvolution, "evolution.delta_time",
			"time step %g is too small, final time %g would need more than %d frames", E.DeltaTime, E.FinalTime, MaxFrames)
	}
	return nil
}

// Times returns the sampled times, 0, delta, 2·delta, ... on the half-open
// interval [0, final). There are ceil(final/delta) of them, none if
// final <= 0.
func (E Evolution) Times() ([]float64, error) {
	if err := E.Check(); err != nil {
		return nil, errDecorate(err, "Times")
	}
	if E.FinalTime <= 0 {
		return nil, nil
	}
	n := int(math.Ceil(E.FinalTime / E.DeltaTime))
	ret := make([]float64, n)
	for k := range ret {
		ret[k] = float64(k) * E.DeltaTime
	}
	return ret, nil
}

// Frame is a snapshot of the supercell at a given time.
type Frame struct {
	Step   int
	Time   float64
	Coords *v3.Matrix
}

// Evolve computes one frame per sampled time. Each frame starts from a copy
// of base, the undisplaced supercell coordinates, and adds the displacement
// of every group to each of its atoms, applying groups in the given order.
// Atoms in no group are not moved, atoms in several groups get the sum of
// the displacements.
func Evolve(base *v3.Matrix, groups []*ResolvedGroup, ev Evolution) ([]*Frame, error) {
	if err := checkGroups(base, groups); err != nil {
		return nil, errDecorate(err, "Evolve")
	}
	times, err := ev.Times()
	if err != nil {
		return nil, errDecorate(err, "Evolve")
	}
	frames := make([]*Frame, len(times))
	for k, t := range times {
		if ev.Progress != nil {
			ev.Progress(k, t)
		}
		frames[k] = frameAt(base, groups, k, t)
	}
	return frames, nil
}

// EvolveConc produces the same frames as Evolve, computing them with up to
// workers goroutines (GOMAXPROCS if workers < 1). Frames are returned in
// time order. The computation stops early if ctx is cancelled.
func EvolveConc(ctx context.Context, base *v3.Matrix, groups []*ResolvedGroup, ev Evolution, workers int) ([]*Frame, error) {
	if err := checkGroups(base, groups); err != nil {
		return nil, errDecorate(err, "EvolveConc")
	}
	times, err := ev.Times()
	if err != nil {
		return nil, errDecorate(err, "EvolveConc")
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	frames := make([]*Frame, len(times))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k, t := range times {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if ev.Progress != nil {
				ev.Progress(k, t)
			}
			frames[k] = frameAt(base, groups, k, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

//frameAt reads base and groups only, so it can run concurrently.
func frameAt(base *v3.Matrix, groups []*ResolvedGroup, step int, t float64) *Frame {
	coords := v3.Clone(base)
	for _, g := range groups {
		d := g.Displacement(t)
		for _, i := range g.Indices {
			floats.Add(coords.VecSlice(i), d[:])
		}
	}
	return &Frame{Step: step, Time: t, Coords: coords}
}

//checkGroups verifies that every group index addresses a row of base.
//A failure here means the groups were not built with ResolveGroups for
//this supercell.
func checkGroups(base *v3.Matrix, groups []*ResolvedGroup) error {
	if base == nil {
		panic(ErrNilCoordinates)
	}
	n := base.NVecs()
	for gi, g := range groups {
		if g == nil {
			return fmt.Errorf("nil resolved group %d", gi)
		}
		for _, i := range g.Indices {
			if i < 0 || i >= n {
				return fmt.Errorf("resolved group %q (cell %s) has atom index %d, but the supercell has %d atoms", g.Name, g.Cell, i, n)
			}
		}
	}
	return nil
}

// WriteFrames writes the frames, in order, to w. box, if given, is passed
// along with every frame.
func WriteFrames(w TrajWriter, frames []*Frame, box ...[]float64) error {
	for _, f := range frames {
		if err := w.WNext(f.Coords, box...); err != nil {
			return errDecorate(err, "WriteFrames")
		}
	}
	return nil
}
