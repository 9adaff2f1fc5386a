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
Package trajmaker builds synthetic trajectories with a prescribed oscillatory
dynamics. A base unit cell is replicated into a nx × ny × nz supercell, atoms
are assigned to oscillation groups, and each frame displaces the members of
every group by

	scale ⊙ amplitude ⊙ sin(2π (frequency·t − phase))

where all products are taken per cartesian component.

	**Capabilities**

	Replicates a Structure into a supercell (Structure.Replicate).

	Maps (cell, base atom) pairs to supercell atom indices with a closed
	form (CellAtomToAbsolute, IndexMap).

	Expands group definitions into one ResolvedGroup per group and cell,
	with per-cell phase/scale overrides (ResolveGroups).

	Evaluates the frames sequentially (Evolve) or with a pool of
	goroutines (EvolveConc).

	Validates the run parameters before anything is computed (Validate).

Atom ordering

The supercell atom list is ordered with the cell index a (along the first
lattice vector) varying slowest, then b, then c, and the base-cell atom index
varying fastest. Structure.Replicate and IndexMap both follow this order, so
the absolute indices stored in a ResolvedGroup address the rows of the
replicated coordinates directly.

File formats live in their own packages: vasp (POSCAR, XDATCAR),
traj/stf and traj/dcd. trajplot draws displacements against time and
spectrum measures the frequencies present in a trajectory.
*/
package trajmaker
