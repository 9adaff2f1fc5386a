/*
 * run.go, part of trajmaker.
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
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	trajmaker "github.com/pablogalaviz/trajmaker"
	"github.com/pablogalaviz/trajmaker/config"
	"github.com/pablogalaviz/trajmaker/spectrum"
	"github.com/pablogalaviz/trajmaker/traj/dcd"
	"github.com/pablogalaviz/trajmaker/traj/stf"
	"github.com/pablogalaviz/trajmaker/vasp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// job is a configuration that passed every check, with its supercell
// ready to be evolved.
type job struct {
	cfg    *config.Config
	params *trajmaker.Params
	base   *trajmaker.Structure
	super  *trajmaker.Structure
	groups []*trajmaker.ResolvedGroup
}

// prepare loads and checks the configuration and the base cell, and builds
// the supercell. Nothing is written, so a failure here leaves no partial
// output behind.
func (a *app) prepare() (*job, error) {
	if a.cfgPath == "" {
		return nil, fmt.Errorf("a configuration file is required (-c/--config)")
	}
	a.logger.Info("Configuration file", zap.String("path", a.cfgPath))
	C, err := config.Load(a.cfgPath)
	if err != nil {
		return nil, err
	}
	p, err := C.Params()
	if err != nil {
		return nil, err
	}
	base, err := vasp.POSCARFileRead(C.Structure.InputPOSCAR)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("base cell read",
		zap.String("path", C.Structure.InputPOSCAR),
		zap.Int("atoms", base.Len()),
		zap.Strings("symbols", base.Symbols()))
	if err := trajmaker.Validate(p, base.Len()); err != nil {
		return nil, err
	}
	super, err := base.Replicate(p.Dims)
	if err != nil {
		return nil, err
	}
	m, err := trajmaker.NewIndexMap(base.Len(), p.Dims)
	if err != nil {
		return nil, err
	}
	groups, err := trajmaker.ResolveGroups(p.Groups, m, p.Overrides)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Supercell",
		zap.Ints("dimensions", p.Dims[:]),
		zap.Int("cells", p.Dims.Cells()),
		zap.Int("atoms", super.Len()),
		zap.Int("groups", len(groups)))
	return &job{cfg: C, params: p, base: base, super: super, groups: groups}, nil
}

// evolve computes all the frames of j.
func (a *app) evolve(ctx context.Context, j *job) ([]*trajmaker.Frame, error) {
	ev := j.params.Evolution
	ev.Progress = func(step int, t float64) {
		a.logger.Debug("calculating time", zap.Int("step", step), zap.Float64("time", t))
	}
	return trajmaker.EvolveConc(ctx, j.super.Coords, j.groups, ev, a.settings.Workers)
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	start := time.Now()
	a.banner()
	runID := uuid.NewString()
	a.logger.Debug("run", zap.String("id", runID))
	j, err := a.prepare()
	if err != nil {
		return err
	}
	frames, err := a.evolve(cmd.Context(), j)
	if err != nil {
		return err
	}
	if out := j.cfg.Structure.OutputPOSCAR; out != "" {
		if err := vasp.POSCARFileWrite(out, j.super, true); err != nil {
			return err
		}
		a.logger.Info("Supercell saved", zap.String("path", out))
	}
	out := a.settings.Output
	if out == "" {
		out = j.cfg.Structure.OutputXDATCAR
	}
	format := a.settings.OutputFormat(out)
	a.logger.Info(fmt.Sprintf("Saving %d frames to %s", len(frames), out), zap.String("format", format))
	w, err := a.newWriter(format, out, j, runID)
	if err != nil {
		return err
	}
	if err := trajmaker.WriteFrames(w, frames, j.super.Box()); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if s, err := trajmaker.Summarize(j.super.Coords, frames); err != nil {
		a.logger.Warn("unable to summarize the trajectory", zap.Error(err))
	} else {
		a.logger.Info("Displacements", zap.Stringer("summary", s))
	}
	if a.logger.Core().Enabled(zap.DebugLevel) {
		a.logFrequencies(j, frames)
	}
	a.logger.Info("Total computation time", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// logFrequencies logs, for the first cell of each group, the dominant
// frequency measured along each axis of the group's first atom.
func (a *app) logFrequencies(j *job, frames []*trajmaker.Frame) {
	seen := make(map[string]bool)
	for _, g := range j.groups {
		if seen[g.Name] || len(g.Indices) == 0 {
			continue
		}
		seen[g.Name] = true
		measured, err := measureFrequencies(j, frames, g.Indices[0])
		if err != nil {
			a.logger.Debug("unable to measure frequency", zap.String("group", g.Name), zap.Error(err))
			continue
		}
		a.logger.Debug("measured frequencies",
			zap.String("group", g.Name),
			zap.Stringer("cell", g.Cell),
			zap.Float64s("requested", g.Frequency[:]),
			zap.Float64s("measured", measured[:]))
	}
}

//measureFrequencies returns the dominant frequency of the motion of atom
//along each axis.
func measureFrequencies(j *job, frames []*trajmaker.Frame, atom int) ([3]float64, error) {
	var measured [3]float64
	for axis := range measured {
		x, err := spectrum.Series(j.super.Coords, frames, atom, axis)
		if err != nil {
			return measured, err
		}
		measured[axis], err = spectrum.DominantFrequency(x, j.params.Evolution.DeltaTime)
		if err != nil {
			return measured, err
		}
	}
	return measured, nil
}

// newWriter opens the trajectory file in the given format.
func (a *app) newWriter(format, path string, j *job, runID string) (trajmaker.TrajWriter, error) {
	label := j.cfg.Label()
	switch format {
	case config.FormatSTF:
		header := map[string]string{
			"prec":       strconv.Itoa(a.settings.STFPrecision),
			"run":        runID,
			"label":      label,
			"delta_time": strconv.FormatFloat(j.params.Evolution.DeltaTime, 'g', -1, 64),
		}
		w, err := stf.NewWriter(path, j.super.Len(), header, a.settings.STFCompression)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.FormatDCD:
		w, err := dcd.NewWriter(path, j.super.Len(), &dcd.Options{
			Title:     label,
			DeltaTime: float32(j.params.Evolution.DeltaTime),
			UnitCell:  true,
		})
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		w, err := vasp.NewXDATCARWriter(path, j.super, label)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

func (a *app) validate(cmd *cobra.Command, args []string) error {
	j, err := a.prepare()
	if err != nil {
		return err
	}
	times, err := j.params.Evolution.Times()
	if err != nil {
		return err
	}
	a.logger.Info("Configuration is valid",
		zap.Int("frames", len(times)),
		zap.Int("atoms", j.super.Len()))
	return nil
}
