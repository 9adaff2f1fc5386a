/*
 * main.go, part of trajmaker.
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

// Command trajmaker generates synthetic atomic trajectories: it replicates
// a unit cell read from a POSCAR file into a supercell and makes groups of
// atoms oscillate, writing the frames as an XDATCAR, STF or DCD trajectory.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pablogalaviz/trajmaker/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "1.0.0"

// app holds the state shared by the commands.
type app struct {
	cfgPath  string
	settings *config.Settings
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	v := config.NewViper()
	root := &cobra.Command{
		Use:   "trajmaker -c config.yaml",
		Short: "Generate synthetic trajectories of oscillating atoms in a supercell",
		Long: `trajmaker replicates the unit cell of a POSCAR file into a supercell
and moves groups of atoms sinusoidally, with a per-group amplitude and
frequency and per-cell phase and scale overrides. The frames are written
as a VASP XDATCAR file, or as STF or DCD trajectories, depending on the
output file extension.

Running trajmaker with no subcommand is the same as "trajmaker run".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings(v)
			if err != nil {
				return err
			}
			a.settings = s
			a.logger, err = newLogger(s)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			zap.ReplaceGlobals(a.logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: a.run,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "path to the YAML configuration file")
	pf.BoolP("silent", "s", false, "only output error messages")
	pf.BoolP("debug", "d", false, "show debug information")
	pf.IntP("workers", "w", 0, "frames computed concurrently (0: one per CPU)")
	pf.StringP("output", "o", "", "trajectory file, replaces structure.output_xdatcar")
	pf.String("format", "", "output format: xdatcar, stf or dcd (default: from the file extension)")
	pf.Int("stf-precision", 2, "decimal places kept in STF trajectories")
	pf.Int("stf-compression", 9, "compression level of STF trajectories")
	for key, flag := range map[string]string{
		"silent":          "silent",
		"debug":           "debug",
		"workers":         "workers",
		"output":          "output",
		"format":          "format",
		"stf.precision":   "stf-precision",
		"stf.compression": "stf-compression",
	} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Generate the trajectory described by the configuration file",
			Args:  cobra.NoArgs,
			RunE:  a.run,
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check the configuration file and the structure, without writing anything",
			Args:  cobra.NoArgs,
			RunE:  a.validate,
		},
		a.plotCmd(),
	)
	return root
}

//newLogger builds a console logger; debug lowers the level, silent
//leaves only errors.
func newLogger(s *config.Settings) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	cfg.OutputPaths = []string{"stdout"}
	switch {
	case s.Silent:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	case s.Debug:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func (a *app) banner() {
	a.logger.Info("--------------------------------------------------")
	a.logger.Info(" TrajMaker " + version)
	a.logger.Info(" synthetic trajectories of oscillating supercells")
	a.logger.Info("--------------------------------------------------")
}

//reportError logs a fatal error through l, or writes it to w if l was
//never built or drops errors.
func reportError(l *zap.Logger, w io.Writer, err error) {
	if l.Core().Enabled(zapcore.ErrorLevel) {
		l.Error("trajmaker failed", zap.Error(err))
		_ = l.Sync()
		return
	}
	fmt.Fprintln(w, "trajmaker:", err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(zap.L(), os.Stderr, err)
		os.Exit(1)
	}
}
