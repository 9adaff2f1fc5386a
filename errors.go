/*
 * errors.go, part of trajmaker.
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
	"strings"
)

// Kind classifies the fatal configuration errors. A Kind is itself an error,
// so callers can test for it with errors.Is.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	ErrConfigurationNotFound Kind = "configuration not found"
	ErrSchemaViolation       Kind = "schema violation"
	ErrInvalidDimensions     Kind = "invalid supercell dimensions"
	ErrIndexOutOfRange       Kind = "atom index out of range"
	ErrInvalidEvolution      Kind = "invalid evolution parameters"
)

// ConfigError reports a problem with the run configuration. Field identifies
// the offending element, using the same paths as the configuration file,
// e.g. "groups[1].indices[0]".
type ConfigError struct {
	Kind    Kind
	Field   string
	message string
	deco    []string
}

// NewConfigError builds a ConfigError of the given kind for field.
func NewConfigError(kind Kind, field string, format string, args ...any) *ConfigError {
	return &ConfigError{Kind: kind, Field: field, message: fmt.Sprintf(format, args...)}
}

func (err *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(string(err.Kind))
	if err.Field != "" {
		b.WriteString(" in ")
		b.WriteString(err.Field)
	}
	if err.message != "" {
		b.WriteString(": ")
		b.WriteString(err.message)
	}
	return b.String()
}

// Decorate adds the name of a calling function to the error.
func (err *ConfigError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical is always true, configuration errors abort the run.
func (err *ConfigError) Critical() bool { return true }

// Unwrap exposes the Kind.
func (err *ConfigError) Unwrap() error { return err.Kind }

//errDecorate is a helper function that decorates err with the caller's name
//if it implements Error, and returns it unchanged otherwise.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if err2, ok := err.(Error); ok {
		err2.Decorate(caller)
	}
	return err
}

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use ConfigError.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrCellOutOfRange = PanicMsg("trajmaker: cell or atom index out of range")
	ErrNilCoordinates = PanicMsg("trajmaker: nil coordinates")
)
