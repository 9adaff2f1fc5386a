/*
 * plot.go, part of trajmaker.
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
	"github.com/pablogalaviz/trajmaker/trajplot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type plotOptions struct {
	atoms []int
	out   string
	title string
}

func (a *app) plotCmd() *cobra.Command {
	o := &plotOptions{}
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot the displacements of the trajectory instead of writing it",
		Long: `plot evolves the supercell described by the configuration file and
saves a figure of the x, y and z displacements of the atoms given with
--atoms (1-based supercell indices) against time. Without --atoms the
RMSD of each frame is plotted. The image format follows the extension
of --png-out: png, svg, pdf or eps.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.plot(cmd, o)
		},
	}
	cmd.Flags().IntSliceVar(&o.atoms, "atoms", nil, "supercell atoms to plot (1-based)")
	cmd.Flags().StringVar(&o.out, "png-out", "displacement.png", "image file")
	cmd.Flags().StringVar(&o.title, "title", "", "plot title (default: the trajectory label)")
	return cmd
}

func (a *app) plot(cmd *cobra.Command, o *plotOptions) error {
	j, err := a.prepare()
	if err != nil {
		return err
	}
	frames, err := a.evolve(cmd.Context(), j)
	if err != nil {
		return err
	}
	title := o.title
	if title == "" {
		title = j.cfg.Label()
	}
	if len(o.atoms) == 0 {
		err = trajplot.RMSDPlot(j.super.Coords, frames, title, o.out)
	} else {
		err = trajplot.DisplacementPlot(j.super.Coords, frames, o.atoms, title, o.out)
	}
	if err != nil {
		return err
	}
	a.logger.Info("Plot saved", zap.String("path", o.out), zap.Ints("atoms", o.atoms))
	return nil
}
