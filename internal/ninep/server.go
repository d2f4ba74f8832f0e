// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     server.go
// Date:     07.Feb.2024
//
// =============================================================================

package ninep

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/Release-Candidate/samedit/internal/editor"
)

// DefaultTCPPort is the editor's well-known localhost port.
const DefaultTCPPort = 0xADD

// DefaultSocketName is the name under the user's namespace directory.
const DefaultSocketName = "samedit"

// SocketPath returns the conventional UNIX socket path for name:
// /tmp/ns.$USER.:0/<name>.
func SocketPath(name string) string {
	user := os.Getenv("USER")
	return filepath.Join(fmt.Sprintf("/tmp/ns.%s.:0", user), name)
}

// Server accepts 9P connections and runs one session per connection. All
// sessions share the qid table; buffer state stays behind the editor's
// event queue.
type Server struct {
	tree   *tree
	logger *slog.Logger

	mu        sync.Mutex
	listeners []net.Listener
}

// New returns a server bridging sessions to the editor through the given
// event queue and buffer-change feed. Install the changes channel on the
// editor with SetFsysNotify before serving.
func New(events chan<- editor.Event, changes <-chan editor.BufChange, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		tree:   newTree(events, changes),
		logger: logger,
	}
}

// ListenSocket serves on the conventional UNIX socket, creating the
// namespace directory if needed. Blocks until the listener fails or the
// server is closed.
func (s *Server) ListenSocket(name string) error {
	path := SocketPath(name)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("unable to create namespace dir: %w", err)
	}

	// A stale socket from a previous run blocks the bind.
	_ = os.Remove(path)

	l, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("unable to bind %s: %w", path, err)
	}

	s.logger.Info("9p listening", "socket", path)

	return s.serve(l)
}

// ListenTCP serves on 127.0.0.1:port. Blocks like [Server.ListenSocket].
func (s *Server) ListenTCP(port int) error {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("unable to bind tcp port %d: %w", port, err)
	}

	s.logger.Info("9p listening", "addr", l.Addr().String())

	return s.serve(l)
}

// Serve runs the accept loop on a caller-provided listener; tests use
// this with an in-memory or ephemeral listener.
func (s *Server) Serve(l net.Listener) error {
	return s.serve(l)
}

func (s *Server) serve(l net.Listener) error {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()

	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}

		s.logger.Debug("new 9p connection")

		sess := newSession(s.tree, conn, s.logger)

		go sess.handleConnection()
	}
}

// Close shuts down all listeners; in-flight sessions end when their
// connections do.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.listeners {
		_ = l.Close()
	}

	s.listeners = nil
}

// session is the per-connection protocol state machine: unattached until
// a successful Tattach, then a fid table mapping client handles to qids.
// T-messages are served strictly in order within a session.
type session struct {
	tree   *tree
	conn   net.Conn
	logger *slog.Logger

	msize uint32

	attached bool
	uname    string
	aname    string
	fids     map[uint32]uint64
}

func newSession(t *tree, conn net.Conn, logger *slog.Logger) *session {
	return &session{
		tree:   t,
		conn:   conn,
		logger: logger,
		msize:  MaxDataLen + headerLen,
		fids:   make(map[uint32]uint64),
	}
}

func (s *session) handleConnection() {
	defer func() {
		// A disconnect clunks everything the session held.
		s.fids = nil
		_ = s.conn.Close()
	}()

	for {
		msg, err := readMessage(s.conn, s.msize)
		if err != nil {
			s.logger.Debug("9p session closed", "err", err)
			return
		}

		s.tree.update()

		if err := s.dispatch(msg); err != nil {
			return
		}
	}
}

func (s *session) reply(typ uint8, tag uint16, body []byte) error {
	return writeMessage(s.conn, typ, tag, body)
}

func (s *session) replyErr(tag uint16, ename string) error {
	var e encoder
	e.str(ename)

	return s.reply(msgRerror, tag, e.buf)
}

// dispatch serves one T-message. The returned error is fatal for the
// session (write failure); protocol errors become Rerror replies and the
// session continues.
func (s *session) dispatch(m message) error {
	d := &decoder{buf: m.body}

	switch m.typ {
	case msgTversion:
		return s.handleVersion(m.tag, d)

	case msgTauth:
		return s.replyErr(m.tag, "authentication not required")

	case msgTattach:
		return s.handleAttach(m.tag, d)

	case msgTflush:
		// Requests are served synchronously in order, so there is never
		// an in-flight request to flush.
		return s.reply(msgRflush, m.tag, nil)
	}

	if !s.attached {
		return s.replyErr(m.tag, "not attached")
	}

	switch m.typ {
	case msgTwalk:
		return s.handleWalk(m.tag, d)
	case msgTopen:
		return s.handleOpen(m.tag, d)
	case msgTread:
		return s.handleRead(m.tag, d)
	case msgTwrite:
		return s.handleWrite(m.tag, d)
	case msgTclunk:
		return s.handleClunk(m.tag, d)
	case msgTstat:
		return s.handleStat(m.tag, d)
	default:
		return s.replyErr(m.tag, fmt.Sprintf("unsupported message type %d", m.typ))
	}
}

// handleVersion resets the session: any in-flight state is dropped and
// all fids are forgotten.
func (s *session) handleVersion(tag uint16, d *decoder) error {
	clientMsize := d.uint32()
	version := d.str()

	if d.err != nil {
		return s.replyErr(tag, d.err.Error())
	}

	s.fids = make(map[uint32]uint64)
	s.attached = false

	if clientMsize < s.msize {
		s.msize = clientMsize
	}

	resp := supportedVersion
	if version != supportedVersion {
		resp = unknownVersion
	}

	var e encoder
	e.uint32(s.msize)
	e.str(resp)

	return s.reply(msgRversion, tag, e.buf)
}

func (s *session) handleAttach(tag uint16, d *decoder) error {
	fid := d.uint32()
	_ = d.uint32() // afid, auth is not used
	uname := d.str()
	aname := d.str()

	if d.err != nil {
		return s.replyErr(tag, d.err.Error())
	}

	if aname != "" {
		return s.replyErr(tag, errUnknownRoot)
	}

	if _, ok := s.fids[fid]; ok {
		return s.replyErr(tag, errDuplicateFid)
	}

	s.attached = true
	s.uname = uname
	s.aname = aname
	s.fids[fid] = qidRoot

	var e encoder
	e.qid(s.tree.qidFor(qidRoot))

	return s.reply(msgRattach, tag, e.buf)
}

func (s *session) handleWalk(tag uint16, d *decoder) error {
	fid := d.uint32()
	newFid := d.uint32()
	n := int(d.uint16())

	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		names = append(names, d.str())
	}

	if d.err != nil {
		return s.replyErr(tag, d.err.Error())
	}

	if n > maxWalkElems {
		return s.replyErr(tag, "too many walk elements")
	}

	start, ok := s.fids[fid]
	if !ok {
		return s.replyErr(tag, errUnknownFid)
	}

	if newFid != fid {
		if _, exists := s.fids[newFid]; exists {
			return s.replyErr(tag, errDuplicateFid)
		}
	}

	// An empty walk duplicates the fid.
	if n == 0 {
		s.fids[newFid] = start

		var e encoder
		e.uint16(0)

		return s.reply(msgRwalk, tag, e.buf)
	}

	walked := make([]Qid, 0, n)
	cur := start

	for _, name := range names {
		if !s.tree.isDir(cur) {
			if len(walked) == 0 {
				return s.replyErr(tag, errWalkNonDir)
			}

			break
		}

		next, ok := s.tree.lookupChild(cur, name)
		if !ok {
			if len(walked) == 0 {
				return s.replyErr(tag, errUnknownFile)
			}

			break
		}

		cur = next
		walked = append(walked, s.tree.qidFor(cur))
	}

	// The new fid is bound only when every element resolved.
	if len(walked) == n {
		s.fids[newFid] = cur
	}

	var e encoder
	e.uint16(uint16(len(walked)))

	for _, q := range walked {
		e.qid(q)
	}

	return s.reply(msgRwalk, tag, e.buf)
}

func (s *session) handleOpen(tag uint16, d *decoder) error {
	fid := d.uint32()
	mode := d.uint8()

	if d.err != nil {
		return s.replyErr(tag, d.err.Error())
	}

	qid, ok := s.fids[fid]
	if !ok {
		return s.replyErr(tag, errUnknownFid)
	}

	if mode&openTrunc != 0 {
		s.tree.truncate(qid)
	}

	var e encoder
	e.qid(s.tree.qidFor(qid))
	e.uint32(MaxDataLen) // iounit

	return s.reply(msgRopen, tag, e.buf)
}

func (s *session) handleRead(tag uint16, d *decoder) error {
	fid := d.uint32()
	offset := d.uint64()
	count := d.uint32()

	if d.err != nil {
		return s.replyErr(tag, d.err.Error())
	}

	qid, ok := s.fids[fid]
	if !ok {
		return s.replyErr(tag, errUnknownFid)
	}

	var raw []byte

	if s.tree.isDir(qid) {
		stats, err := s.tree.dirEntries(qid)
		if err != nil {
			return s.replyErr(tag, err.Error())
		}

		raw = statBytes(stats)
	} else {
		content, err := s.tree.contentFor(qid)
		if err != nil {
			return s.replyErr(tag, err.Error())
		}

		raw = []byte(content)
	}

	if offset > uint64(len(raw)) {
		offset = uint64(len(raw))
	}

	raw = raw[offset:]

	if count > MaxDataLen {
		count = MaxDataLen
	}

	if uint32(len(raw)) > count {
		raw = raw[:count]
	}

	var e encoder
	e.uint32(uint32(len(raw)))
	e.bytes(raw)

	return s.reply(msgRread, tag, e.buf)
}

func (s *session) handleWrite(tag uint16, d *decoder) error {
	fid := d.uint32()
	offset := d.uint64()
	count := d.uint32()
	data := d.bytes(int(count))

	if d.err != nil {
		return s.replyErr(tag, d.err.Error())
	}

	qid, ok := s.fids[fid]
	if !ok {
		return s.replyErr(tag, errUnknownFid)
	}

	if s.tree.isDir(qid) {
		return s.replyErr(tag, errNotWritable)
	}

	n, err := s.tree.write(qid, string(data), int(offset))
	if err != nil {
		return s.replyErr(tag, err.Error())
	}

	var e encoder
	e.uint32(uint32(n))

	return s.reply(msgRwrite, tag, e.buf)
}

func (s *session) handleClunk(tag uint16, d *decoder) error {
	fid := d.uint32()

	if d.err != nil {
		return s.replyErr(tag, d.err.Error())
	}

	if _, ok := s.fids[fid]; !ok {
		return s.replyErr(tag, errUnknownFid)
	}

	delete(s.fids, fid)

	return s.reply(msgRclunk, tag, nil)
}

func (s *session) handleStat(tag uint16, d *decoder) error {
	fid := d.uint32()

	if d.err != nil {
		return s.replyErr(tag, d.err.Error())
	}

	qid, ok := s.fids[fid]
	if !ok {
		return s.replyErr(tag, errUnknownFid)
	}

	stat, err := s.tree.statFor(qid)
	if err != nil {
		return s.replyErr(tag, err.Error())
	}

	var inner encoder
	inner.stat(stat)

	var e encoder
	e.uint16(uint16(len(inner.buf)))
	e.bytes(inner.buf)

	return s.reply(msgRstat, tag, e.buf)
}
