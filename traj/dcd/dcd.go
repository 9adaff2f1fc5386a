/*
 * dcd.go, part of trajmaker.
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

// Package dcd writes CHARMM/NAMD binary (DCD) trajectories.
package dcd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	trajmaker "github.com/pablogalaviz/trajmaker"
	v3 "github.com/pablogalaviz/trajmaker/v3"
	"gonum.org/v1/gonum/floats"
)

const (
	mAXTITLE    = 80
	nTITLE      = 2
	charmmVer   = 24
	headerBytes = 4 + 84 + 4 + 4 + 4 + nTITLE*mAXTITLE + 4 + 4 + 4 + 4
	//offset of NSET, the number of frames, in the file.
	nsetOffset = 8
)

// Options controls the header of a new DCD file. The zero value is usable.
type Options struct {
	Title     string  //up to 80 characters, stored as the second title line
	DeltaTime float32 //time between frames, 1 if zero
	UnitCell  bool    //write the box of each frame
}

//header is the first record of a DCD file. Blank fields are written as zeros.
type header struct {
	Size1    int32
	Magic    [4]byte
	NSet     int32
	IStart   int32
	NSavc    int32
	_        [6]int32
	Delta    float32
	UnitCell int32
	_        [8]int32
	Version  int32
	Size2    int32
}

// DCDWObj is a CHARMM/NAMD binary trajectory open for writing.
type DCDWObj struct {
	natoms   int32
	writable bool
	filename string
	unitcell bool
	frames   int32
	dcd      *os.File
	buf      *bufio.Writer
	block    []float32
	endian   binary.ByteOrder
}

// NewWriter creates filename and writes a DCD header for natoms atoms to it.
// opts may be nil.
func NewWriter(filename string, natoms int, opts *Options) (*DCDWObj, error) {
	if natoms < 1 || natoms > math.MaxInt32/4 {
		return nil, Error{fmt.Sprintf("invalid number of atoms: %d", natoms), filename, []string{"NewWriter"}, true}
	}
	if opts == nil {
		opts = &Options{}
	}
	D := &DCDWObj{
		natoms:   int32(natoms),
		filename: filename,
		unitcell: opts.UnitCell,
		block:    make([]float32, natoms),
		endian:   binary.LittleEndian,
	}
	var err error
	D.dcd, err = os.Create(filename)
	if err != nil {
		return nil, Error{err.Error(), filename, []string{"os.Create", "NewWriter"}, true}
	}
	D.buf = bufio.NewWriter(D.dcd)
	if err := D.writeHeader(opts); err != nil {
		D.dcd.Close()
		return nil, errDecorate(err, "NewWriter")
	}
	D.writable = true
	return D, nil
}

func (D *DCDWObj) writeHeader(opts *Options) error {
	h := header{Size1: 84, Magic: [4]byte{'C', 'O', 'R', 'D'}, NSavc: 1, Delta: 1, Version: charmmVer, Size2: 84}
	if opts.DeltaTime != 0 {
		h.Delta = opts.DeltaTime
	}
	if opts.UnitCell {
		h.UnitCell = 1
	}
	title := make([]byte, nTITLE*mAXTITLE)
	for i := range title {
		title[i] = ' '
	}
	copy(title, "Created by trajmaker")
	t := opts.Title
	if len(t) > mAXTITLE {
		t = t[:mAXTITLE]
	}
	copy(title[mAXTITLE:], t)
	tsize := int32(4 + len(title))
	for _, v := range []any{h, tsize, int32(nTITLE), title, tsize, int32(4), D.natoms, int32(4)} {
		if err := binary.Write(D.buf, D.endian, v); err != nil {
			return Error{err.Error(), D.filename, []string{"binary.Write", "writeHeader"}, true}
		}
	}
	return nil
}

// Len returns the number of atoms per frame.
func (D *DCDWObj) Len() int {
	return int(D.natoms)
}

// Frames returns the number of frames written so far.
func (D *DCDWObj) Frames() int {
	return int(D.frames)
}

// WNext writes the next frame. If the file was created with a unit cell,
// box must hold the 9 components of the lattice vectors, which are stored
// as lengths and angles.
func (D *DCDWObj) WNext(towrite *v3.Matrix, box ...[]float64) error {
	if !D.writable {
		return Error{TrajUnIni, D.filename, []string{"WNext"}, true}
	}
	if towrite == nil {
		return Error{"got nil coordinates", D.filename, []string{"WNext"}, true}
	}
	if int32(towrite.NVecs()) != D.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", towrite.NVecs(), D.natoms), D.filename, []string{"WNext"}, true}
	}
	if D.unitcell {
		if len(box) == 0 || len(box[0]) < 9 {
			return Error{"trajectory has a unit cell, but no box was given", D.filename, []string{"WNext"}, true}
		}
		cell := unitCell(box[0])
		for _, v := range []any{int32(48), cell, int32(48)} {
			if err := binary.Write(D.buf, D.endian, v); err != nil {
				return Error{err.Error(), D.filename, []string{"binary.Write", "WNext"}, true}
			}
		}
	}
	for j := 0; j < 3; j++ {
		for i := range D.block {
			D.block[i] = float32(towrite.At(i, j))
		}
		if err := D.writeFloat32Block(D.block); err != nil {
			return errDecorate(err, "WNext")
		}
	}
	D.frames++
	return nil
}

//unitCell converts the lattice vectors in box to the CHARMM unit cell record,
//A, gamma, B, beta, alpha, C, with the angles in degrees.
func unitCell(box []float64) [6]float64 {
	a, b, c := box[0:3], box[3:6], box[6:9]
	la, lb, lc := floats.Norm(a, 2), floats.Norm(b, 2), floats.Norm(c, 2)
	angle := func(x, y []float64, lx, ly float64) float64 {
		if lx == 0 || ly == 0 {
			return 90
		}
		cos := math.Max(-1, math.Min(1, floats.Dot(x, y)/(lx*ly)))
		return math.Acos(cos) * 180 / math.Pi
	}
	return [6]float64{la, angle(a, b, la, lb), lb, angle(a, c, la, lc), angle(b, c, lb, lc), lc}
}

//writeFloat32Block writes block surrounded by its size in bytes.
func (D *DCDWObj) writeFloat32Block(block []float32) error {
	blocksize := int32(len(block)) * 4
	for _, v := range []any{blocksize, block, blocksize} {
		if err := binary.Write(D.buf, D.endian, v); err != nil {
			return Error{err.Error(), D.filename, []string{"binary.Write", "writeFloat32Block"}, true}
		}
	}
	return nil
}

// Close flushes the pending frames, stores the number of frames in the
// header and closes the file.
func (D *DCDWObj) Close() error {
	if !D.writable {
		return nil
	}
	D.writable = false
	err := D.buf.Flush()
	if err == nil {
		err = D.updateFrames()
	}
	if err2 := D.dcd.Close(); err == nil && err2 != nil {
		err = Error{err2.Error(), D.filename, []string{"Close"}, true}
	}
	return err
}

//DCD requires the number of frames at the beginning.
func (D *DCDWObj) updateFrames() error {
	if _, err := D.dcd.Seek(nsetOffset, io.SeekStart); err != nil {
		return Error{err.Error(), D.filename, []string{"dcd.Seek", "updateFrames"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, D.frames); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "updateFrames"}, true}
	}
	return nil
}

//Errors

// Error is the general structure for DCD trajectory errors. It fulfills
// trajmaker.TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("dcd file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error.
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the file to which the failing trajectory was associated.
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "dcd") associated to the error.
func (err Error) Format() string { return "dcd" }

// Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const TrajUnIni = "Traj object uninitialized to write"

func errDecorate(err error, caller string) error {
	if err2, ok := err.(trajmaker.Error); ok {
		err2.Decorate(caller)
	}
	return err
}

var _ trajmaker.TrajWriter = (*DCDWObj)(nil)
