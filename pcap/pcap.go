// Copyright (c) 2020-2023, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package pcap writes and checks the 802.15.4 capture files produced by a simulation.
package pcap

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

type FrameType int

const (
	FrameTypeOff FrameType = iota
	FrameTypeWpan
	FrameTypeWpanTap
	FrameTypeUnknown
)

const (
	FrameTypeOffStr     string = "off"
	FrameTypeWpanStr    string = "wpan"
	FrameTypeWpanTapStr string = "wpan-tap"
)

const (
	dltIeee802154       = 195
	dltIeee802154Tap    = 283
	pcapMagicNumber     = 0xA1B2C3D4
	pcapVersionMajor    = 2
	pcapVersionMinor    = 4
	pcapSnapLen         = 256
	pcapFileHeaderSize  = 24
	pcapFrameHeaderSize = 16
	// wpan-tap header with FCS type, RSS and channel assignment TLVs,
	// see https://gitlab.com/exegin/ieee802-15-4-tap
	tapHeaderSize = 28
)

const (
	tlvFcsType           = 0
	tlvRss               = 1
	tlvChannelAssignment = 3
)

// 802.15.4 frame of a reserved type, written at t=0 as a time reference for the capture.
const timeReferenceFrameData = "\x04\x21This is an OTNS simulation PCAP-start t=0 reference frame.\x61\x3f"

// Frame is a single radio frame of a capture.
type Frame struct {
	Timestamp uint64 // simulated time in us
	Data      []byte
	Channel   int
	Rssi      float32
}

// Header is the global header of a capture file.
type Header struct {
	VersionMajor uint16
	VersionMinor uint16
	SnapLen      uint32
	LinkType     uint32
}

// FrameType returns the frame type matching the link type of the capture.
func (h Header) FrameType() FrameType {
	switch h.LinkType {
	case dltIeee802154:
		return FrameTypeWpan
	case dltIeee802154Tap:
		return FrameTypeWpanTap
	default:
		return FrameTypeUnknown
	}
}

// File is a capture file being written.
type File struct {
	fd        *os.File
	frameType FrameType
	frames    int
}

func ParseFrameTypeStr(tp string) FrameType {
	switch tp {
	case FrameTypeOffStr:
		return FrameTypeOff
	case FrameTypeWpanStr:
		return FrameTypeWpan
	case FrameTypeWpanTapStr:
		return FrameTypeWpanTap
	default:
		return FrameTypeUnknown
	}
}

func (ft FrameType) String() string {
	switch ft {
	case FrameTypeOff:
		return FrameTypeOffStr
	case FrameTypeWpan:
		return FrameTypeWpanStr
	case FrameTypeWpanTap:
		return FrameTypeWpanTapStr
	default:
		return "unknown"
	}
}

// NewFile creates a capture file with all frames using frameType.
func NewFile(filename string, frameType FrameType, useTimeRefFrame bool) (*File, error) {
	var linkType uint32
	switch frameType {
	case FrameTypeWpan:
		linkType = dltIeee802154
	case FrameTypeWpanTap:
		linkType = dltIeee802154Tap
	default:
		return nil, errors.Errorf("invalid PCAP frame type: %d", frameType)
	}

	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	pf := &File{fd: fd, frameType: frameType}
	if err = pf.writeHeader(linkType); err != nil {
		_ = fd.Close()
		return nil, err
	}

	if useTimeRefFrame {
		if err = pf.AppendFrame(Frame{Data: []byte(timeReferenceFrameData)}); err != nil {
			_ = fd.Close()
			return nil, errors.Wrap(err, "write time reference frame")
		}
	}
	return pf, nil
}

// Frames returns the number of frames appended so far.
func (pf *File) Frames() int {
	return pf.frames
}

func (pf *File) AppendFrame(frame Frame) error {
	var prefix []byte
	if pf.frameType == FrameTypeWpanTap {
		prefix = tapHeader(frame)
	}

	var header [pcapFrameHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], uint32(frame.Timestamp/1000000))
	binary.LittleEndian.PutUint32(header[4:8], uint32(frame.Timestamp%1000000))
	frLen := uint32(len(prefix) + len(frame.Data))
	binary.LittleEndian.PutUint32(header[8:12], frLen)
	binary.LittleEndian.PutUint32(header[12:16], frLen)

	for _, b := range [][]byte{header[:], prefix, frame.Data} {
		if _, err := pf.fd.Write(b); err != nil {
			return err
		}
	}
	pf.frames++
	return nil
}

func (pf *File) Sync() error {
	return pf.fd.Sync()
}

func (pf *File) Close() error {
	return pf.fd.Close()
}

func (pf *File) writeHeader(linkType uint32) error {
	var header [pcapFileHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], pcapMagicNumber)
	binary.LittleEndian.PutUint16(header[4:6], pcapVersionMajor)
	binary.LittleEndian.PutUint16(header[6:8], pcapVersionMinor)
	binary.LittleEndian.PutUint32(header[16:20], pcapSnapLen)
	binary.LittleEndian.PutUint32(header[20:24], linkType)
	if _, err := pf.fd.Write(header[:]); err != nil {
		return err
	}
	return pf.fd.Sync()
}

func tapHeader(frame Frame) []byte {
	hdr := make([]byte, 4, tapHeaderSize)
	// version 0, reserved 0
	binary.LittleEndian.PutUint16(hdr[2:4], tapHeaderSize)

	rss := make([]byte, 4)
	binary.LittleEndian.PutUint32(rss, math.Float32bits(frame.Rssi))
	channel := make([]byte, 3)
	binary.LittleEndian.PutUint16(channel, uint16(frame.Channel))

	hdr = appendTlv(hdr, tlvFcsType, []byte{1}) // 16-bit FCS
	hdr = appendTlv(hdr, tlvRss, rss)
	hdr = appendTlv(hdr, tlvChannelAssignment, channel) // channel page 0
	return hdr
}

// appendTlv appends a TLV padded to a multiple of 4 bytes.
func appendTlv(buf []byte, tlvType uint16, data []byte) []byte {
	var tl [4]byte
	binary.LittleEndian.PutUint16(tl[0:2], tlvType)
	binary.LittleEndian.PutUint16(tl[2:4], uint16(len(data)))
	buf = append(buf, tl[:]...)
	buf = append(buf, data...)
	for len(data)%4 != 0 {
		buf = append(buf, 0)
		data = append(data, 0)
	}
	return buf
}

// ReadHeader reads and checks the global header of a capture.
func ReadHeader(r io.Reader) (Header, error) {
	var raw [pcapFileHeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Header{}, errors.Wrap(err, "read pcap header")
	}
	if magic := binary.LittleEndian.Uint32(raw[:4]); magic != pcapMagicNumber {
		return Header{}, errors.Errorf("not a pcap file: magic %08x", magic)
	}
	return Header{
		VersionMajor: binary.LittleEndian.Uint16(raw[4:6]),
		VersionMinor: binary.LittleEndian.Uint16(raw[6:8]),
		SnapLen:      binary.LittleEndian.Uint32(raw[16:20]),
		LinkType:     binary.LittleEndian.Uint32(raw[20:24]),
	}, nil
}

// ReadFileHeader opens filename and reads its capture header.
func ReadFileHeader(filename string) (Header, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()
	return ReadHeader(f)
}
