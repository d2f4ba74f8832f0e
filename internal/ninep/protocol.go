// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     protocol.go
// Date:     07.Feb.2024
//
// =============================================================================

// Package ninep exports editor state as a 9P2000 filesystem: every open
// buffer is a directory of control files under /buffers, plus a root ctl
// file and a current file naming the focused buffer. Sessions never touch
// buffer state directly; each request crosses into the editor thread over
// its event queue and blocks on a per-request reply channel.
package ninep

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Protocol constants.
const (
	// MaxDataLen bounds the negotiated msize: 64 KiB of payload plus the
	// largest message header.
	MaxDataLen = 64 * 1024

	headerLen = 4 + 1 + 2 // size[4] type[1] tag[2]

	supportedVersion = "9P2000"
	unknownVersion   = "unknown"

	// noFid is the ~0 fid value clients send when a field is unused.
	noFid = ^uint32(0)

	// maxWalkElems is the 9P2000 limit on names per Twalk.
	maxWalkElems = 16
)

// Message type bytes, in protocol order.
const (
	msgTversion uint8 = 100 + iota
	msgRversion
	msgTauth
	msgRauth
	msgTattach
	msgRattach
	_ // Terror is illegal
	msgRerror
	msgTflush
	msgRflush
	msgTwalk
	msgRwalk
	msgTopen
	msgRopen
	msgTcreate
	msgRcreate
	msgTread
	msgRread
	msgTwrite
	msgRwrite
	msgTclunk
	msgRclunk
	msgTremove
	msgRremove
	msgTstat
	msgRstat
	msgTwstat
	msgRwstat
)

// Open mode bits from the Topen mode byte.
const (
	openTrunc = 0x10
)

// Qid type bytes.
const (
	qtDir  uint8 = 0x80
	qtFile uint8 = 0x00
)

// Stat mode bits.
const (
	dmDir uint32 = 0x80000000
)

// Qid is the server's stable identity for a filesystem node.
type Qid struct {
	Type    uint8
	Version uint32
	Path    uint64
}

// Stat is the machine-independent stat record sent in Rstat replies and
// directory reads.
type Stat struct {
	Qid    Qid
	Mode   uint32
	Atime  uint32
	Mtime  uint32
	Length uint64
	Name   string
	UID    string
	GID    string
	MUID   string
}

// message is one decoded 9P message: header plus the undecoded body.
type message struct {
	typ  uint8
	tag  uint16
	body []byte
}

// readMessage reads one size-prefixed message, refusing anything larger
// than maxSize.
func readMessage(r io.Reader, maxSize uint32) (message, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return message{}, err
	}

	size := binary.LittleEndian.Uint32(sizeBuf[:])
	if size < headerLen || size > maxSize {
		return message{}, fmt.Errorf("invalid message size %d", size)
	}

	rest := make([]byte, size-4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return message{}, err
	}

	return message{
		typ:  rest[0],
		tag:  binary.LittleEndian.Uint16(rest[1:3]),
		body: rest[3:],
	}, nil
}

// decoder is a cursor over a message body. Reads past the end set err and
// return zero values, so decoding a malformed message cannot panic.
type decoder struct {
	buf []byte
	pos int
	err error
}

func (d *decoder) need(n int) bool {
	if d.err != nil || d.pos+n > len(d.buf) {
		d.err = fmt.Errorf("truncated message")
		return false
	}

	return true
}

func (d *decoder) uint8() uint8 {
	if !d.need(1) {
		return 0
	}

	v := d.buf[d.pos]
	d.pos++

	return v
}

func (d *decoder) uint16() uint16 {
	if !d.need(2) {
		return 0
	}

	v := binary.LittleEndian.Uint16(d.buf[d.pos:])
	d.pos += 2

	return v
}

func (d *decoder) uint32() uint32 {
	if !d.need(4) {
		return 0
	}

	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4

	return v
}

func (d *decoder) uint64() uint64 {
	if !d.need(8) {
		return 0
	}

	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8

	return v
}

func (d *decoder) str() string {
	n := int(d.uint16())
	if !d.need(n) {
		return ""
	}

	s := string(d.buf[d.pos : d.pos+n])
	d.pos += n

	return s
}

func (d *decoder) bytes(n int) []byte {
	if !d.need(n) {
		return nil
	}

	b := d.buf[d.pos : d.pos+n]
	d.pos += n

	return b
}

// encoder builds a message body.
type encoder struct {
	buf []byte
}

func (e *encoder) uint8(v uint8)   { e.buf = append(e.buf, v) }
func (e *encoder) uint16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *encoder) uint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) uint64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

func (e *encoder) str(s string) {
	e.uint16(uint16(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) bytes(b []byte) { e.buf = append(e.buf, b...) }

func (e *encoder) qid(q Qid) {
	e.uint8(q.Type)
	e.uint32(q.Version)
	e.uint64(q.Path)
}

// stat appends the two-level size-prefixed stat encoding.
func (e *encoder) stat(s Stat) {
	var inner encoder

	inner.uint16(0) // type, unused by this server
	inner.uint32(0) // dev
	inner.qid(s.Qid)
	inner.uint32(s.Mode)
	inner.uint32(s.Atime)
	inner.uint32(s.Mtime)
	inner.uint64(s.Length)
	inner.str(s.Name)
	inner.str(s.UID)
	inner.str(s.GID)
	inner.str(s.MUID)

	e.uint16(uint16(len(inner.buf)))
	e.bytes(inner.buf)
}

// writeMessage frames and writes one reply.
func writeMessage(w io.Writer, typ uint8, tag uint16, body []byte) error {
	size := uint32(headerLen + len(body))

	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, size)
	out = append(out, typ)
	out = binary.LittleEndian.AppendUint16(out, tag)
	out = append(out, body...)

	_, err := w.Write(out)

	return err
}

// statBytes renders a directory's entries the way Rread on a directory
// expects them: a packed sequence of stat records.
func statBytes(stats []Stat) []byte {
	var e encoder
	for _, s := range stats {
		e.stat(s)
	}

	return e.buf
}
