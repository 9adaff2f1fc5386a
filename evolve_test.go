/*
 * evolve_test.go, part of trajmaker.
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
	"math"
	"sync/atomic"
	"testing"

	v3 "github.com/pablogalaviz/trajmaker/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestTimes(t *testing.T) {
	times, err := Evolution{FinalTime: 1.0, DeltaTime: 0.3}.Times()
	require.NoError(t, err)
	require.Len(t, times, 4)
	assert.InDeltaSlice(t, []float64{0, 0.3, 0.6, 0.9}, times, 1e-12)

	times, err = Evolution{FinalTime: 1.0, DeltaTime: 0.25}.Times()
	require.NoError(t, err)
	assert.Len(t, times, 4)

	times, err = Evolution{FinalTime: 0, DeltaTime: 0.1}.Times()
	require.NoError(t, err)
	assert.Empty(t, times)

	for _, ev := range []Evolution{
		{FinalTime: 1, DeltaTime: 0},
		{FinalTime: 1, DeltaTime: -0.1},
		{FinalTime: 1, DeltaTime: math.NaN()},
		{FinalTime: math.Inf(1), DeltaTime: 0.1},
		{FinalTime: 1, DeltaTime: 1e-20},
		{FinalTime: 1e300, DeltaTime: 1e-300},
	} {
		_, err := ev.Times()
		assert.ErrorIs(t, err, ErrInvalidEvolution, "%+v", ev)
	}
}

//setup replicates the test cell and resolves groups for it.
func setup(t *testing.T, dims Dims, defs []GroupDefinition, ov Overrides) (*Structure, []*ResolvedGroup) {
	t.Helper()
	s := testCell(t)
	sup, err := s.Replicate(dims)
	require.NoError(t, err)
	m, err := NewIndexMap(s.Len(), dims)
	require.NoError(t, err)
	groups, err := ResolveGroups(defs, m, ov)
	require.NoError(t, err)
	return sup, groups
}

func TestEvolveSingleAtom(t *testing.T) {
	coords, err := v3.NewMatrix([]float64{1, 2, 3})
	require.NoError(t, err)
	m, err := NewIndexMap(1, Dims{1, 1, 1})
	require.NoError(t, err)
	groups, err := ResolveGroups([]GroupDefinition{{
		Name:      "A",
		Indices:   []int{1},
		Amplitude: [3]float64{2, 0, 0},
		Frequency: [3]float64{1, 0, 0},
	}}, m, nil)
	require.NoError(t, err)
	frames, err := Evolve(coords, groups, Evolution{FinalTime: 0.5, DeltaTime: 0.25})
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, [3]float64{1, 2, 3}, frames[0].Coords.Vec(0))
	got := frames[1].Coords.Vec(0)
	assert.InDeltaSlice(t, []float64{3, 2, 3}, got[:], 1e-12)
	assert.Equal(t, 1, frames[1].Step)
	assert.Equal(t, 0.25, frames[1].Time)
	//base coordinates are not modified
	assert.Equal(t, [3]float64{1, 2, 3}, coords.Vec(0))
}

func TestEvolveZeroAmplitude(t *testing.T) {
	sup, groups := setup(t, Dims{2, 2, 1}, []GroupDefinition{
		{Name: "still", Indices: []int{1, 2}, Frequency: [3]float64{3, 1, 2}},
	}, nil)
	frames, err := Evolve(sup.Coords, groups, Evolution{FinalTime: 2, DeltaTime: 0.1})
	require.NoError(t, err)
	require.Len(t, frames, 20)
	for _, f := range frames {
		assert.True(t, f.Coords.Equal(sup.Coords), "frame %d moved", f.Step)
	}
}

func TestEvolveUngroupedAtomsStill(t *testing.T) {
	sup, groups := setup(t, Dims{1, 1, 2}, []GroupDefinition{
		{Name: "Na", Indices: []int{1}, Amplitude: [3]float64{0.1, 0.1, 0.1}, Frequency: [3]float64{1, 1, 1}},
	}, nil)
	frames, err := Evolve(sup.Coords, groups, Evolution{FinalTime: 1, DeltaTime: 0.1})
	require.NoError(t, err)
	for _, f := range frames {
		//atom 2 of every cell is Cl, absolute rows 1 and 3
		assert.Equal(t, sup.Coords.Vec(1), f.Coords.Vec(1))
		assert.Equal(t, sup.Coords.Vec(3), f.Coords.Vec(3))
	}
}

func TestEvolveOverlappingGroupsAdd(t *testing.T) {
	defs := []GroupDefinition{
		{Name: "A", Indices: []int{1}, Amplitude: [3]float64{1, 0, 0}, Frequency: [3]float64{1, 0, 0}},
		{Name: "B", Indices: []int{1, 2}, Amplitude: [3]float64{0.5, 0, 0.25}, Frequency: [3]float64{2, 0, 1}},
	}
	sup, groups := setup(t, Dims{1, 1, 1}, defs, nil)
	ev := Evolution{FinalTime: 1, DeltaTime: 0.1}
	frames, err := Evolve(sup.Coords, groups, ev)
	require.NoError(t, err)
	for _, f := range frames {
		da := groups[0].Displacement(f.Time)
		db := groups[1].Displacement(f.Time)
		b0 := sup.Coords.Vec(0)
		got := f.Coords.Vec(0)
		for k := 0; k < 3; k++ {
			assert.InDelta(t, b0[k]+da[k]+db[k], got[k], 1e-12)
		}
		b1 := sup.Coords.Vec(1)
		got = f.Coords.Vec(1)
		for k := 0; k < 3; k++ {
			assert.InDelta(t, b1[k]+db[k], got[k], 1e-12)
		}
	}
}

func TestEvolvePerCellOverride(t *testing.T) {
	ov := Overrides{}
	ov.Set(CellCoord{2, 1, 1}, "A", Override{Phase: [3]float64{0.5, 0, 0}, Scale: [3]float64{2, 1, 1}})
	sup, groups := setup(t, Dims{2, 1, 1}, []GroupDefinition{
		{Name: "A", Indices: []int{1}, Amplitude: [3]float64{1, 0, 0}, Frequency: [3]float64{1, 0, 0}},
	}, ov)
	frames, err := Evolve(sup.Coords, groups, Evolution{FinalTime: 0.5, DeltaTime: 0.25})
	require.NoError(t, err)
	f := frames[1]
	//cell (1,1,1): sin(π/2) = 1
	assert.InDelta(t, sup.Coords.At(0, 0)+1, f.Coords.At(0, 0), 1e-12)
	//cell (2,1,1): 2·sin(2π(0.25-0.5)) = -2
	assert.InDelta(t, sup.Coords.At(2, 0)-2, f.Coords.At(2, 0), 1e-12)
}

func TestEvolveBadGroups(t *testing.T) {
	coords := v3.Zeros(2)
	_, err := Evolve(coords, []*ResolvedGroup{{Name: "x", Indices: []int{2}}}, Evolution{FinalTime: 1, DeltaTime: 0.5})
	assert.Error(t, err)
	_, err = Evolve(coords, []*ResolvedGroup{nil}, Evolution{FinalTime: 1, DeltaTime: 0.5})
	assert.Error(t, err)
	_, err = Evolve(coords, nil, Evolution{FinalTime: 1, DeltaTime: 0})
	assert.ErrorIs(t, err, ErrInvalidEvolution)
	assert.Panics(t, func() { Evolve(nil, nil, Evolution{FinalTime: 1, DeltaTime: 1}) })
}

func TestEvolveConcMatchesEvolve(t *testing.T) {
	defer goleak.VerifyNone(t)
	ov := Overrides{}
	ov.Set(CellCoord{1, 2, 1}, "A", Override{Phase: [3]float64{0.1, 0.2, 0.3}, Scale: [3]float64{1, -1, 0.5}})
	sup, groups := setup(t, Dims{2, 2, 2}, []GroupDefinition{
		{Name: "A", Indices: []int{1}, Amplitude: [3]float64{0.1, 0.2, 0.3}, Frequency: [3]float64{1, 2, 3}},
		{Name: "B", Indices: []int{2, 1}, Amplitude: [3]float64{0.05, 0, 0.05}, Frequency: [3]float64{0.5, 0, 4}},
	}, ov)
	ev := Evolution{FinalTime: 3, DeltaTime: 0.05}
	want, err := Evolve(sup.Coords, groups, ev)
	require.NoError(t, err)

	var calls atomic.Int32
	ev.Progress = func(int, float64) { calls.Add(1) }
	for _, workers := range []int{0, 1, 3, 16} {
		calls.Store(0)
		got, err := EvolveConc(context.Background(), sup.Coords, groups, ev, workers)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		assert.EqualValues(t, len(want), calls.Load())
		for k := range want {
			assert.Equal(t, want[k].Step, got[k].Step)
			assert.Equal(t, want[k].Time, got[k].Time)
			assert.True(t, want[k].Coords.Equal(got[k].Coords), "frame %d differs with %d workers", k, workers)
		}
	}
}

func TestEvolveConcCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	sup, groups := setup(t, Dims{1, 1, 1}, []GroupDefinition{
		{Name: "A", Indices: []int{1}, Amplitude: [3]float64{1, 1, 1}, Frequency: [3]float64{1, 1, 1}},
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frames, err := EvolveConc(ctx, sup.Coords, groups, Evolution{FinalTime: 10, DeltaTime: 0.01}, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, frames)
}

type recWriter struct {
	frames int
	boxes  [][]float64
}

func (r *recWriter) WNext(coords *v3.Matrix, box ...[]float64) error {
	r.frames++
	if len(box) > 0 {
		r.boxes = append(r.boxes, box[0])
	}
	return nil
}
func (r *recWriter) Len() int     { return 0 }
func (r *recWriter) Close() error { return nil }

func TestWriteFrames(t *testing.T) {
	sup, groups := setup(t, Dims{1, 1, 1}, nil, nil)
	frames, err := Evolve(sup.Coords, groups, Evolution{FinalTime: 1, DeltaTime: 0.3})
	require.NoError(t, err)
	w := &recWriter{}
	require.NoError(t, WriteFrames(w, frames, sup.Box()))
	assert.Equal(t, 4, w.frames)
	require.Len(t, w.boxes, 4)
	assert.Equal(t, sup.Box(), w.boxes[3])
}
