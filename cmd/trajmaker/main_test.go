/*
 * main_test.go, part of trajmaker.
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

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	trajmaker "github.com/pablogalaviz/trajmaker"
	"github.com/pablogalaviz/trajmaker/config"
	"github.com/pablogalaviz/trajmaker/traj/stf"
	v3 "github.com/pablogalaviz/trajmaker/v3"
	"github.com/pablogalaviz/trajmaker/vasp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const poscar = `NaCl
   1.0
     4.0 0.0 0.0
     0.0 4.0 0.0
     0.0 0.0 4.0
   Na   Cl
    1    1
Direct
  0.0 0.0 0.0
  0.5 0.5 0.5
`

const cfgTemplate = `structure:
  input_poscar: {{dir}}/POSCAR
  output_xdatcar: {{dir}}/XDATCAR
  output_poscar: {{dir}}/SUPERCELL
evolution:
  final_time: 1.0
  delta_time: 0.25
groups:
  - name: sodium
    indices: [{{index}}]
    frequency: [1.0, 0.0, 0.0]
    amplitude: [0.1, 0.0, 0.0]
supercell:
  dimensions: [2, 1, 1]
`

// fixture writes a POSCAR and a configuration file to a temporary
// directory and returns the directory and the configuration path.
func fixture(t *testing.T, index string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "POSCAR"), []byte(poscar), 0o644))
	cfg := strings.NewReplacer("{{dir}}", dir, "{{index}}", index).Replace(cfgTemplate)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return dir, path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })
	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--silent"))
	return cmd.Execute()
}

func TestRunXDATCAR(t *testing.T) {
	dir, cfg := fixture(t, "1")
	require.NoError(t, execute(t, "run", "-c", cfg))

	data, err := os.ReadFile(filepath.Join(dir, "XDATCAR"))
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "Direct configuration="))
	assert.True(t, strings.HasPrefix(string(data), vasp.DefaultLabel+"\n"))

	super, err := vasp.POSCARFileRead(filepath.Join(dir, "SUPERCELL"))
	require.NoError(t, err)
	assert.Equal(t, 4, super.Len())
	assert.Equal(t, []string{"Na", "Cl", "Na", "Cl"}, super.Symbols())
}

func TestRunWithoutSubcommand(t *testing.T) {
	dir, cfg := fixture(t, "2")
	require.NoError(t, execute(t, "-c", cfg))
	_, err := os.Stat(filepath.Join(dir, "XDATCAR"))
	assert.NoError(t, err)
}

func TestRunSTF(t *testing.T) {
	dir, cfg := fixture(t, "1")
	out := filepath.Join(dir, "traj.stf")
	require.NoError(t, execute(t, "run", "-c", cfg, "-o", out, "--stf-precision", "4", "-w", "2"))

	r, header, err := stf.New(out)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "4", header["prec"])
	assert.Equal(t, "0.25", header["delta_time"])
	assert.NotEmpty(t, header["run"])
	require.Equal(t, 4, r.Len())

	c := v3.Zeros(4)
	var xs []float64
	for {
		err := r.Next(c)
		if err != nil {
			var last trajmaker.LastFrameError
			require.True(t, errors.As(err, &last), err)
			break
		}
		xs = append(xs, c.At(0, 0))
	}
	//x of the first Na follows 0.1 sin(2πt), sampled at t = 0, 0.25, 0.5, 0.75
	require.Len(t, xs, 4)
	assert.InDeltaSlice(t, []float64{0, 0.1, 0, -0.1}, xs, 1e-4)
}

func TestRunDCD(t *testing.T) {
	dir, cfg := fixture(t, "1")
	out := filepath.Join(dir, "traj.dcd")
	require.NoError(t, execute(t, "run", "-c", cfg, "--output", out))
	info, err := os.Stat(out)
	require.NoError(t, err)
	//header, then per frame a unit cell record and three coordinate records
	frame := (4 + 48 + 4) + 3*(4+4*4+4)
	assert.Equal(t, int64(276+4*frame), info.Size())
}

func TestRunIndexOutOfRange(t *testing.T) {
	dir, cfg := fixture(t, "5")
	err := execute(t, "run", "-c", cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, trajmaker.ErrIndexOutOfRange)
	assert.Contains(t, err.Error(), "sodium")
	//nothing is written when the configuration is rejected
	for _, name := range []string{"XDATCAR", "SUPERCELL"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), name)
	}
}

func TestRunConfigurationNotFound(t *testing.T) {
	err := execute(t, "run", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, trajmaker.ErrConfigurationNotFound)
	assert.Error(t, execute(t, "run"))
}

func TestRunBadSettings(t *testing.T) {
	_, cfg := fixture(t, "1")
	assert.Error(t, execute(t, "run", "-c", cfg, "--format", "pdb"))
	assert.Error(t, execute(t, "run", "-c", cfg, "--workers", "-2"))
}

func TestValidate(t *testing.T) {
	dir, cfg := fixture(t, "2")
	require.NoError(t, execute(t, "validate", "-c", cfg))
	_, err := os.Stat(filepath.Join(dir, "XDATCAR"))
	assert.True(t, os.IsNotExist(err))

	_, cfg = fixture(t, "3")
	assert.ErrorIs(t, execute(t, "validate", "-c", cfg), trajmaker.ErrIndexOutOfRange)
}

func TestPlot(t *testing.T) {
	dir, cfg := fixture(t, "1")
	png := filepath.Join(dir, "na.png")
	require.NoError(t, execute(t, "plot", "-c", cfg, "--atoms", "1,3", "--png-out", png))
	_, err := os.Stat(png)
	require.NoError(t, err)

	svg := filepath.Join(dir, "rmsd.svg")
	require.NoError(t, execute(t, "plot", "-c", cfg, "--png-out", svg))
	_, err = os.Stat(svg)
	require.NoError(t, err)

	assert.Error(t, execute(t, "plot", "-c", cfg, "--atoms", "9", "--png-out", png))
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger(&config.Settings{Debug: true})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = newLogger(&config.Settings{Debug: true, Silent: true})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.WarnLevel))
	assert.True(t, l.Core().Enabled(zap.ErrorLevel))
}

func TestRunDebug(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })
	dir, cfg := fixture(t, "1")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "-c", cfg, "-d"})
	require.NoError(t, cmd.Execute())
	_, err := os.Stat(filepath.Join(dir, "XDATCAR"))
	assert.NoError(t, err)
}

func TestReportError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	var buf bytes.Buffer
	reportError(zap.New(core), &buf, errors.New("index out of bounds"))
	assert.Empty(t, buf.String())
	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, e.Level)
	assert.Equal(t, "index out of bounds", e.ContextMap()["error"])

	//the logger is a no-op until the settings are loaded
	reportError(zap.NewNop(), &buf, errors.New("invalid format"))
	assert.Equal(t, "trajmaker: invalid format\n", buf.String())
}

func TestLogFrequenciesSkipsUnmeasurableGroups(t *testing.T) {
	coords, err := v3.NewMatrix([]float64{0, 0, 0, 1, 1, 1})
	require.NoError(t, err)
	moving := &trajmaker.ResolvedGroup{
		Name:      "moving",
		Indices:   []int{1},
		Amplitude: [3]float64{0.1, 0, 0},
		Frequency: [3]float64{1, 0, 0},
		Scale:     [3]float64{1, 1, 1},
	}
	broken := &trajmaker.ResolvedGroup{Name: "broken", Indices: []int{7}}
	ev := trajmaker.Evolution{FinalTime: 4, DeltaTime: 0.25}
	frames, err := trajmaker.Evolve(coords, []*trajmaker.ResolvedGroup{moving}, ev)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	a := &app{logger: zap.New(core)}
	a.logFrequencies(&job{
		super:  &trajmaker.Structure{Coords: coords},
		params: &trajmaker.Params{Evolution: ev},
		groups: []*trajmaker.ResolvedGroup{broken, moving},
	}, frames)

	assert.Equal(t, 1, logs.FilterMessage("unable to measure frequency").Len())
	measured := logs.FilterMessage("measured frequencies").All()
	require.Len(t, measured, 1)
	assert.Equal(t, "moving", measured[0].ContextMap()["group"])
}
