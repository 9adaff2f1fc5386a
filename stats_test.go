/*
 * stats_test.go, part of trajmaker.
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
	"math"
	"testing"

	v3 "github.com/pablogalaviz/trajmaker/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRMSD(t *testing.T) {
	ref := v3.Zeros(2)
	f0 := &Frame{Coords: v3.Zeros(2)}
	c1, err := v3.NewMatrix([]float64{3, 4, 0, 0, 0, 0})
	require.NoError(t, err)
	f1 := &Frame{Step: 1, Coords: c1}
	rmsd, err := RMSD(ref, []*Frame{f0, f1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, math.Sqrt(25.0 / 2)}, rmsd, 1e-12)

	s, err := Summarize(ref, []*Frame{f0, f1})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Frames)
	assert.Equal(t, 1, s.MaxAt)
	assert.InDelta(t, math.Sqrt(12.5), s.Max, 1e-12)
	assert.InDelta(t, math.Sqrt(12.5)/2, s.Mean, 1e-12)
	assert.Greater(t, s.StdDev, 0.0)
	assert.Contains(t, s.String(), "frames:2")

	_, err = RMSD(v3.Zeros(3), []*Frame{f0})
	assert.Error(t, err)
}

func TestSummarizeEdgeCases(t *testing.T) {
	s, err := Summarize(v3.Zeros(1), nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, s)

	s, err = Summarize(v3.Zeros(1), []*Frame{{Coords: v3.Zeros(1)}})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Frames)
	assert.Equal(t, 0.0, s.StdDev)
}
