/*
 * doc.go, part of trajmaker.
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

/*
Package stf reads and writes the simple trajectory format (STF), a
compressed text trajectory format meant to be trivial to parse from any
language.

An STF file is compressed with z-standard (zstd) unless its name ends in
'z' (gzip), 'r' (raw deflate) or 'l' (lzw). The uncompressed stream
contains only ASCII.

The stream starts with a header of key=value lines, sorted by key. The
header always carries the precision, an integer p > 0:

	prec=2

The header ends with a line holding "**", one or more spaces and the
number of atoms per frame.

After the header there is one line per atom per frame, each with the x, y
and z cartesian coordinates in Angstrom multiplied by 10^p and rounded
to an integer. This package uses p = 2 when none is requested.

Each frame ends with a line starting with "*". It may be followed by
whitespace and the 9 components of the box vectors, in Angstrom.

The "**" sequence only appears as the header terminator.
*/
package stf
