/*
 * settings.go, part of trajmaker.
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

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables that override the
// run settings, e.g. TRAJMAKER_WORKERS or TRAJMAKER_STF_PRECISION.
const EnvPrefix = "TRAJMAKER"

// Output formats.
const (
	FormatAuto    = ""
	FormatXDATCAR = "xdatcar"
	FormatSTF     = "stf"
	FormatDCD     = "dcd"
)

// Settings are the options of a run that don't belong to the configuration
// file.
type Settings struct {
	Debug   bool
	Silent  bool
	Workers int    //frames computed concurrently, 0 for one per CPU
	Output  string //replaces structure.output_xdatcar if not empty
	Format  string //one of the Format constants

	STFPrecision   int
	STFCompression int
}

// NewViper returns a viper instance with the default settings, reading
// overrides from TRAJMAKER_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults sets the default value of every setting in v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("silent", false)
	v.SetDefault("workers", 0)
	v.SetDefault("output", "")
	v.SetDefault("format", FormatAuto)
	v.SetDefault("stf.precision", 2)
	v.SetDefault("stf.compression", 9)
}

// LoadSettings reads the settings from v and checks them.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Debug:          v.GetBool("debug"),
		Silent:         v.GetBool("silent"),
		Workers:        v.GetInt("workers"),
		Output:         v.GetString("output"),
		Format:         strings.ToLower(strings.TrimSpace(v.GetString("format"))),
		STFPrecision:   v.GetInt("stf.precision"),
		STFCompression: v.GetInt("stf.compression"),
	}
	if s.Workers < 0 {
		return nil, fmt.Errorf("config: workers must be >= 0, got %d", s.Workers)
	}
	switch s.Format {
	case FormatAuto, FormatXDATCAR, FormatSTF, FormatDCD:
	default:
		return nil, fmt.Errorf("config: unknown output format %q", s.Format)
	}
	if s.STFPrecision < 1 || s.STFPrecision > 9 {
		return nil, fmt.Errorf("config: STF precision must be between 1 and 9, got %d", s.STFPrecision)
	}
	return s, nil
}

// OutputFormat returns the format to write path in: the Format setting if
// given, otherwise deduced from the extension (.stf, .stz, .stl and .str
// are STF, .dcd is DCD, anything else XDATCAR).
func (S *Settings) OutputFormat(path string) string {
	if S.Format != FormatAuto {
		return S.Format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stf", ".stz", ".stl", ".str":
		return FormatSTF
	case ".dcd":
		return FormatDCD
	default:
		return FormatXDATCAR
	}
}
