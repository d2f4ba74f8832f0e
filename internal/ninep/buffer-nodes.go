// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     buffer-nodes.go
// Date:     07.Feb.2024
//
// =============================================================================

package ninep

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Release-Candidate/samedit/internal/editor"
)

// Fixed qids for the static part of the tree.
const (
	qidRoot uint64 = iota
	qidCtl
	qidCurrent
	qidBuffers

	// firstBufferQid is where per-buffer qid blocks start.
	firstBufferQid
)

// Static file names.
const (
	ctlFile     = "ctl"
	currentFile = "current"
	buffersDir  = "buffers"
)

// Per-buffer control files, in qid-offset order: a buffer directory's qid
// block is the directory itself followed by these seven files, so parent
// and name are pure arithmetic on the qid.
var bufferFiles = [...]string{
	"filename",
	"dot",
	"addr",
	"xdot",
	"xaddr",
	"body",
	"event",
}

// qidBlock is the stride between buffer directory qids: the directory
// plus its seven files.
const qidBlock = uint64(len(bufferFiles)) + 1

// Protocol error strings.
const (
	errDuplicateFid = "duplicate fid"
	errUnknownFid   = "unknown fid"
	errUnknownFile  = "file not found"
	errUnknownRoot  = "unknown root directory"
	errWalkNonDir   = "walk in non-directory"
	errNotWritable  = "file is not writable"
)

// bufferNode is one open buffer's directory in the tree.
type bufferNode struct {
	id    int    // editor buffer id
	strID string // directory name
	qid   uint64 // directory qid; files are qid+1..qid+7
}

// tree tracks the mapping between buffer ids and qid blocks. It is the
// read-mostly table shared by all sessions, guarded by an RWMutex that is
// only ever held for the duration of a map operation.
type tree struct {
	events chan<- editor.Event

	mu      sync.RWMutex
	known   map[uint64]*bufferNode // by directory qid
	byID    map[int]uint64         // buffer id -> directory qid
	nextQid uint64

	changes <-chan editor.BufChange
	current int
}

func newTree(events chan<- editor.Event, changes <-chan editor.BufChange) *tree {
	return &tree{
		events:  events,
		known:   make(map[uint64]*bufferNode),
		byID:    make(map[int]uint64),
		nextQid: firstBufferQid,
		changes: changes,
		current: 0,
	}
}

// update drains pending buffer-set notifications from the editor thread,
// keeping the qid table in step before a request is served.
func (t *tree) update() {
	for {
		select {
		case c := <-t.changes:
			t.apply(c)
		default:
			return
		}
	}
}

func (t *tree) apply(c editor.BufChange) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch c.Kind {
	case editor.BufAdded:
		if _, ok := t.byID[c.ID]; ok {
			return
		}

		qid := t.nextQid
		t.nextQid += qidBlock
		t.known[qid] = &bufferNode{id: c.ID, strID: strconv.Itoa(c.ID), qid: qid}
		t.byID[c.ID] = qid

	case editor.BufRemoved:
		if qid, ok := t.byID[c.ID]; ok {
			delete(t.known, qid)
			delete(t.byID, c.ID)
		}

	case editor.BufCurrent:
		t.current = c.ID
	}
}

// parentAndName decomposes a buffer-file qid into its directory qid and
// file name.
func parentAndName(qid uint64) (uint64, string) {
	base := firstBufferQid
	parent := base + ((qid - base) / qidBlock * qidBlock)
	offset := qid - parent

	if offset == 0 || offset > uint64(len(bufferFiles)) {
		return parent, ""
	}

	return parent, bufferFiles[offset-1]
}

// isBufferDirQid reports whether qid is the directory of a known buffer.
func (t *tree) isBufferDirQid(qid uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.known[qid]

	return ok
}

// nodeByQid returns the buffer node owning qid (directory or file),
// ok=false for unknown or non-buffer qids.
func (t *tree) nodeByQid(qid uint64) (*bufferNode, string, bool) {
	if qid < firstBufferQid {
		return nil, "", false
	}

	parent, name := parentAndName(qid)

	t.mu.RLock()
	defer t.mu.RUnlock()

	node, ok := t.known[parent]
	if !ok {
		return nil, "", false
	}

	if qid == parent {
		return node, "", true
	}

	if name == "" {
		return nil, "", false
	}

	return node, name, true
}

// lookupChild resolves one walk element within a directory qid.
func (t *tree) lookupChild(dir uint64, name string) (uint64, bool) {
	switch dir {
	case qidRoot:
		switch name {
		case ctlFile:
			return qidCtl, true
		case currentFile:
			return qidCurrent, true
		case buffersDir:
			return qidBuffers, true
		case "..":
			return qidRoot, true
		}

		return 0, false

	case qidBuffers:
		if name == ".." {
			return qidRoot, true
		}

		t.mu.RLock()
		defer t.mu.RUnlock()

		for qid, node := range t.known {
			if node.strID == name {
				return qid, true
			}
		}

		return 0, false

	default:
		node, fname, ok := t.nodeByQid(dir)
		if !ok || fname != "" {
			return 0, false
		}

		if name == ".." {
			return qidBuffers, true
		}

		for i, f := range bufferFiles {
			if f == name {
				return node.qid + uint64(i) + 1, true
			}
		}

		return 0, false
	}
}

// isDir reports whether qid names a directory in the tree.
func (t *tree) isDir(qid uint64) bool {
	switch qid {
	case qidRoot, qidBuffers:
		return true
	case qidCtl, qidCurrent:
		return false
	default:
		_, name, ok := t.nodeByQid(qid)
		return ok && name == ""
	}
}

// qidFor builds the wire Qid for a path.
func (t *tree) qidFor(qid uint64) Qid {
	typ := qtFile
	if t.isDir(qid) {
		typ = qtDir
	}

	return Qid{Type: typ, Version: 0, Path: qid}
}

func fileStat(qid uint64, name string, length uint64) Stat {
	return Stat{
		Qid:    Qid{Type: qtFile, Path: qid},
		Mode:   0o644,
		Length: length,
		Name:   name,
		UID:    "samedit",
		GID:    "samedit",
		MUID:   "samedit",
	}
}

func dirStat(qid uint64, name string) Stat {
	return Stat{
		Qid:  Qid{Type: qtDir, Path: qid},
		Mode: dmDir | 0o755,
		Name: name,
		UID:  "samedit",
		GID:  "samedit",
		MUID: "samedit",
	}
}

// ask sends a request into the editor thread and waits for its reply.
func (t *tree) ask(req editor.Req) (string, error) {
	res := editor.Send(t.events, req)
	return res.S, res.Err
}

// contentFor returns a file qid's current contents.
func (t *tree) contentFor(qid uint64) (string, error) {
	switch qid {
	case qidCtl:
		return "", nil
	case qidCurrent:
		return t.ask(editor.ReadCurrentBuffer{})
	}

	node, name, ok := t.nodeByQid(qid)
	if !ok || name == "" {
		return "", fmt.Errorf(errUnknownFile)
	}

	switch name {
	case "filename":
		return t.ask(editor.ReadBufferName{ID: node.id})
	case "dot":
		return t.ask(editor.ReadBufferDot{ID: node.id})
	case "addr":
		return t.ask(editor.ReadBufferAddr{ID: node.id})
	case "xdot":
		return t.ask(editor.ReadBufferXDot{ID: node.id})
	case "xaddr":
		return t.ask(editor.ReadBufferXAddr{ID: node.id})
	case "body":
		return t.ask(editor.ReadBufferBody{ID: node.id})
	case "event":
		// The event stream has no specified behaviour yet: reads see an
		// empty file.
		return "", nil
	}

	return "", fmt.Errorf(errUnknownFile)
}

// statFor returns the stat record for any known qid.
func (t *tree) statFor(qid uint64) (Stat, error) {
	switch qid {
	case qidRoot:
		return dirStat(qidRoot, "/"), nil
	case qidBuffers:
		return dirStat(qidBuffers, buffersDir), nil
	case qidCtl:
		return fileStat(qidCtl, ctlFile, 0), nil
	case qidCurrent:
		content, err := t.contentFor(qidCurrent)
		if err != nil {
			return Stat{}, err
		}

		return fileStat(qidCurrent, currentFile, uint64(len(content))), nil
	}

	node, name, ok := t.nodeByQid(qid)
	if !ok {
		return Stat{}, fmt.Errorf(errUnknownFile)
	}

	if name == "" {
		return dirStat(qid, node.strID), nil
	}

	content, err := t.contentFor(qid)
	if err != nil {
		return Stat{}, err
	}

	return fileStat(qid, name, uint64(len(content))), nil
}

// dirEntries lists the stat records read from a directory.
func (t *tree) dirEntries(qid uint64) ([]Stat, error) {
	switch qid {
	case qidRoot:
		ctl, err := t.statFor(qidCtl)
		if err != nil {
			return nil, err
		}

		cur, err := t.statFor(qidCurrent)
		if err != nil {
			return nil, err
		}

		return []Stat{ctl, cur, dirStat(qidBuffers, buffersDir)}, nil

	case qidBuffers:
		t.mu.RLock()

		nodes := make([]*bufferNode, 0, len(t.known))
		for _, node := range t.known {
			nodes = append(nodes, node)
		}

		t.mu.RUnlock()

		stats := make([]Stat, 0, len(nodes))
		for _, node := range nodes {
			stats = append(stats, dirStat(node.qid, node.strID))
		}

		sortStatsByName(stats)

		return stats, nil
	}

	node, name, ok := t.nodeByQid(qid)
	if !ok || name != "" {
		return nil, fmt.Errorf(errWalkNonDir)
	}

	stats := make([]Stat, 0, len(bufferFiles))

	for i, fname := range bufferFiles {
		fileQid := node.qid + uint64(i) + 1

		content, err := t.contentFor(fileQid)
		if err != nil {
			return nil, err
		}

		stats = append(stats, fileStat(fileQid, fname, uint64(len(content))))
	}

	return stats, nil
}

func sortStatsByName(stats []Stat) {
	for i := 1; i < len(stats); i++ {
		for j := i; j > 0 && stats[j-1].Name > stats[j].Name; j-- {
			stats[j-1], stats[j] = stats[j], stats[j-1]
		}
	}
}

// write dispatches a Twrite's payload for a file qid.
func (t *tree) write(qid uint64, data string, offset int) (int, error) {
	switch qid {
	case qidCtl:
		// One command per newline-terminated line.
		for _, line := range strings.Split(data, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}

			if _, err := t.ask(editor.ControlMessage{Msg: line}); err != nil {
				return 0, err
			}
		}

		return len(data), nil

	case qidCurrent:
		return 0, fmt.Errorf(errNotWritable)
	}

	node, name, ok := t.nodeByQid(qid)
	if !ok || name == "" {
		return 0, fmt.Errorf(errUnknownFile)
	}

	var req editor.Req

	switch name {
	case "dot":
		req = editor.SetBufferDot{ID: node.id, S: data}
	case "addr":
		req = editor.SetBufferAddr{ID: node.id, S: data}
	case "xdot":
		req = editor.SetBufferXDot{ID: node.id, S: data}
	case "xaddr":
		req = editor.SetBufferXAddr{ID: node.id, S: data}
	case "body":
		req = editor.InsertBufferBody{ID: node.id, S: data, Offset: offset}
	case "event":
		// Inert until an event design exists: accept and discard.
		return len(data), nil
	default:
		return 0, fmt.Errorf(errNotWritable)
	}

	if _, err := t.ask(req); err != nil {
		return 0, err
	}

	return len(data), nil
}

// truncate handles opening a file with the truncate flag: body truncation
// clears the buffer, everything else is a no-op.
func (t *tree) truncate(qid uint64) {
	node, name, ok := t.nodeByQid(qid)
	if ok && name == "body" {
		_, _ = t.ask(editor.ClearBufferBody{ID: node.id})
	}
}
