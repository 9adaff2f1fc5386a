/*
 * stf.go, part of trajmaker.
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

package stf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	trajmaker "github.com/pablogalaviz/trajmaker"
	v3 "github.com/pablogalaviz/trajmaker/v3"
	"go.uber.org/zap"
)

const (
	lzwLitwidth int = 8
	DefaultPrec int = 2
)

// StfW is a handle to an STF file open for writing.
type StfW struct {
	f         *os.File
	h         io.WriteCloser
	buf       *bufio.Writer
	natoms    int
	frames    int
	filename  string
	writeable bool
	prec      int
	mult      float64
}

// Close flushes the compressed stream and closes the file. The handle
// can't be used afterwards.
func (S *StfW) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.buf.Flush()
	if err2 := S.h.Close(); err == nil {
		err = err2
	}
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return Error{"Can't close trajectory: " + err.Error(), S.filename, []string{"Close"}, true}
	}
	return nil
}

// Len returns the number of atoms per frame.
func (S *StfW) Len() int {
	return S.natoms
}

// Frames returns the number of frames written so far.
func (S *StfW) Frames() int {
	return S.frames
}

// WNext writes coord as the next frame. If box is given, and has at least
// 9 elements, they are written as the box vectors of the frame.
func (S *StfW) WNext(coord *v3.Matrix, box ...[]float64) error {
	if !S.writeable {
		return Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	v := coord.NVecs()
	if v != S.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, []string{"WNext"}, true}
	}
	var line []byte
	for i := 0; i < v; i++ {
		line = coordsEncode(line[:0], coord.Vec(i), S.mult)
		if _, err := S.buf.Write(line); err != nil {
			return Error{err.Error(), S.filename, []string{"WNext"}, true}
		}
	}
	var err error
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		_, err = fmt.Fprintf(S.buf, "* %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f\n",
			b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
	} else {
		_, err = S.buf.WriteString("*\n")
	}
	if err != nil {
		return Error{err.Error(), S.filename, []string{"WNext"}, true}
	}
	S.frames++
	return nil
}

//compressor picks the stream compression from the last letter of the file name.
func compressor(name string, level int) func(io.Writer) (io.WriteCloser, error) {
	switch name[len(name)-1] {
	case 'l', 'L':
		return func(a io.Writer) (io.WriteCloser, error) { return lzw.NewWriter(a, lzw.MSB, lzwLitwidth), nil }
	case 'z', 'Z':
		return func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, level) }
	case 'r', 'R':
		return func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, level) }
	default:
		return func(a io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}
	}
}

// NewWriter creates the file name and writes the STF header, made of the
// given key=value pairs plus the precision, to it. The precision is taken
// from header["prec"] if present and valid, otherwise DefaultPrec is used.
// The optional compressionLevel is passed to the compressor; it defaults to 9.
func NewWriter(name string, natoms int, header map[string]string, compressionLevel ...int) (*StfW, error) {
	if name == "" {
		return nil, Error{UnableToOpen + ": empty file name", name, []string{"NewWriter"}, true}
	}
	if natoms < 1 {
		return nil, Error{fmt.Sprintf("invalid number of atoms: %d", natoms), name, []string{"NewWriter"}, true}
	}
	level := 9
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	S := &StfW{filename: name, natoms: natoms, prec: DefaultPrec}
	h := make(map[string]string, len(header)+1)
	for k, v := range header {
		if strings.ContainsAny(k, "=\n") || strings.Contains(v, "\n") || strings.Contains(k+v, "**") {
			return nil, Error{fmt.Sprintf("invalid header entry %q=%q", k, v), name, []string{"NewWriter"}, true}
		}
		h[k] = v
	}
	if p, ok := h["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			S.prec = prec
		} else {
			zap.L().Warn("invalid STF precision, using the default", zap.String("file", name), zap.String("prec", p), zap.Int("default", DefaultPrec))
		}
	}
	h["prec"] = strconv.Itoa(S.prec)
	S.mult = math.Pow(10, float64(S.prec))

	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.h, err = compressor(name, level)(S.f)
	if err != nil {
		S.f.Close()
		return nil, Error{"Can't create compressor: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.buf = bufio.NewWriter(S.h)
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(S.buf, "%s=%s\n", k, h[k])
	}
	fmt.Fprintf(S.buf, "** %d\n", S.natoms)
	S.writeable = true
	return S, nil
}

func coordsEncode(dst []byte, f [3]float64, mult float64) []byte {
	for i, v := range f {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendInt(dst, int64(math.RoundToEven(v*mult)), 10)
	}
	return append(dst, '\n')
}

func coordsDecode(str string, temp *[3]float64, mult float64) error {
	s := strings.Fields(str)
	if len(s) < 3 {
		return fmt.Errorf("Ill formated coordinates line in stf: Too few fields: %s", str)
	}
	if len(s) > 3 {
		return fmt.Errorf("Ill formated coordinates line in stf: Too many fields: %s", str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("Can't parse coordinate %d (%s). Error: %s", i, v, err.Error())
		}
		temp[i] = float64(f) / mult
	}
	return nil
}

// StfR is a handle to an STF file open for reading.
type StfR struct {
	f        *os.File
	dec      io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	mult     float64
	readable bool
}

//zstd.Decoder's Close doesn't return an error, so it is not an io.ReadCloser.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (s zstdReadCloser) Close() error {
	s.Decoder.Close()
	return nil
}

func decompressor(name string) func(io.Reader) (io.ReadCloser, error) {
	switch name[len(name)-1] {
	case 'l', 'L':
		return func(a io.Reader) (io.ReadCloser, error) { return lzw.NewReader(a, lzw.MSB, lzwLitwidth), nil }
	case 'z', 'Z':
		return func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	case 'r', 'R':
		return func(a io.Reader) (io.ReadCloser, error) { return flate.NewReader(a), nil }
	default:
		return func(a io.Reader) (io.ReadCloser, error) {
			r, err := zstd.NewReader(a)
			if err != nil {
				return nil, err
			}
			return zstdReadCloser{r}, nil
		}
	}
}

// New opens an STF trajectory for reading, and returns the handle and the
// header, which always has at least the "prec" key.
func New(name string) (*StfR, map[string]string, error) {
	if name == "" {
		return nil, nil, Error{UnableToOpen + ": empty file name", name, []string{"New"}, true}
	}
	S := &StfR{filename: name, natoms: -1, prec: DefaultPrec}
	var err error
	S.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"New"}, true}
	}
	S.dec, err = decompressor(name)(bufio.NewReader(S.f))
	if err != nil {
		S.f.Close()
		return nil, nil, Error{"Can't read header: " + err.Error(), name, []string{"New"}, true}
	}
	S.h = bufio.NewReader(S.dec)
	m := make(map[string]string)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.close()
			return nil, nil, Error{"Can't read header: " + err.Error(), name, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.close()
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from '%s'", str), name, []string{"New"}, true}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil || S.natoms < 1 {
				S.close()
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from '%s'", nat[1]), name, []string{"New"}, true}
			}
			break
		}
		k, v, ok := strings.Cut(str, "=")
		if !ok {
			S.close()
			return nil, nil, Error{"Malformed header line: " + str, name, []string{"New"}, true}
		}
		m[k] = v
	}
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			S.prec = prec
		} else {
			zap.L().Warn("invalid STF precision, assuming the default", zap.String("file", name), zap.String("prec", p), zap.Int("default", DefaultPrec))
		}
	}
	m["prec"] = strconv.Itoa(S.prec)
	S.mult = math.Pow(10, float64(S.prec))
	S.readable = true
	return S, m, nil
}

// Readable returns true if Next can be called on the handle.
func (S *StfR) Readable() bool {
	return S.readable
}

// Next puts the coordinates of the next frame in c and, if box is given and
// the frame has the information, the box vectors in box[0]. If c is nil the
// frame is checked and discarded. At the end of the trajectory Next closes
// the handle and returns an error implementing trajmaker.LastFrameError.
func (S *StfR) Next(c *v3.Matrix, box ...[]float64) error {
	if !S.readable {
		return Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	if c != nil && c.NVecs() != S.natoms {
		return Error{fmt.Sprintf("matrix has %d rows, the trajectory %d atoms", c.NVecs(), S.natoms), S.filename, []string{"Next"}, true}
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadString('\n')
		if err != nil {
			//EOF before the first atom is the normal end of the trajectory.
			if errors.Is(err, io.EOF) && i == 0 && b == "" {
				S.close()
				return newlastFrameError(S.filename, "Next")
			}
			return Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
		}
		if err := coordsDecode(b, &temp, S.mult); err != nil {
			return Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		if c == nil {
			continue
		}
		c.SetVec(i, temp)
	}
	s, err := S.h.ReadString('\n')
	if err != nil {
		return Error{"Can't read the frame termination mark: " + err.Error(), S.filename, []string{"Next"}, true}
	}
	if s[0] != '*' {
		return Error{WrongFormat + ": wrong number of atoms in frame", S.filename, []string{"Next"}, true}
	}
	if len(box) == 0 || len(box[0]) < 9 {
		return nil
	}
	fields := strings.Fields(s)
	if len(fields) < 10 {
		zap.L().Debug("STF frame has no box information", zap.String("file", S.filename))
		return nil
	}
	for j, v := range fields[1:10] {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Error{fmt.Sprintf("Can't read box component %d: %s", j, err), S.filename, []string{"Next"}, true}
		}
		box[0][j] = f
	}
	return nil
}

func (S *StfR) close() {
	S.dec.Close()
	S.f.Close()
	S.readable = false
}

// Close closes the handle. It can't be read afterwards.
func (S *StfR) Close() error {
	if !S.readable {
		return nil
	}
	S.close()
	return nil
}

// Len returns the number of atoms in each frame of the trajectory.
func (S *StfR) Len() int {
	return S.natoms
}

// Prec returns the precision of the trajectory.
func (S *StfR) Prec() int {
	return S.prec
}

//Errors

// Error is the general structure for STF trajectory errors. It fulfills
// trajmaker.TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
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

// Format returns the format of the file (always "stf") associated to the error.
func (err Error) Format() string { return "stf" }

// Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
)

//lastFrameError implements trajmaker.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "stf" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}

var (
	_ trajmaker.TrajWriter     = (*StfW)(nil)
	_ trajmaker.Traj           = (*StfR)(nil)
	_ trajmaker.LastFrameError = (*lastFrameError)(nil)
	_ trajmaker.TrajError      = Error{}
)
