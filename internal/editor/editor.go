// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     editor.go
// Date:     07.Feb.2024
//
// =============================================================================

// Package editor is the single-threaded owner of all buffer state. It
// consumes one multi-producer event queue -- key input, buffer actions,
// filesystem requests, terminal resizes -- and is the only goroutine that
// ever mutates a Buffer. Filesystem sessions talk to it exclusively
// through [Message] values carrying a reply channel.
package editor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Release-Candidate/samedit/internal/buffer"
	"github.com/Release-Candidate/samedit/internal/config"
	"github.com/Release-Candidate/samedit/internal/dot"
)

// eventQueueLen is the capacity of the event channel. Producers are
// interactive (keystrokes, fs sessions blocked on replies), so the queue
// only needs to absorb bursts, not sustained backlog.
const eventQueueLen = 1024

// BufChangeKind tags a buffer-set change notification for the filesystem
// layer.
type BufChangeKind int

const (
	BufAdded BufChangeKind = iota
	BufRemoved
	BufCurrent
)

// BufChange is sent to the filesystem layer whenever the set of open
// buffers (or the focused buffer) changes, so its directory tree tracks
// the editor.
type BufChange struct {
	Kind BufChangeKind
	ID   int
}

// InputHandler turns a decoded key into buffer actions. Mode and keymap
// dispatch live outside the core; the editor only applies what the
// handler returns.
type InputHandler func(key string) []buffer.Action

// Editor owns the buffer set and the event loop.
type Editor struct {
	Events chan Event

	buffers *buffer.Buffers
	cfg     atomic.Pointer[config.Config]
	cfgPath string

	rows, cols int

	clipboard     string
	statusMessage string

	inputHandler InputHandler

	fsysTx chan<- BufChange

	logger *slog.Logger
	logBuf *lockedBuffer
}

// lockedBuffer is the in-memory sink behind the slog handler, readable
// later by the view-logs command.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buf.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buf.String()
}

// New returns an editor with a single scratch buffer and the given
// config-file path (used by reload-config; may be empty).
func New(cfgPath string) *Editor {
	logBuf := &lockedBuffer{}

	e := &Editor{
		Events:  make(chan Event, eventQueueLen),
		buffers: buffer.NewBuffers(),
		cfgPath: cfgPath,
		logBuf:  logBuf,
		logger: slog.New(slog.NewTextHandler(logBuf,
			&slog.HandlerOptions{Level: slog.LevelDebug})),
	}

	e.cfg.Store(config.Default())
	e.applyConfigToBuffers()

	return e
}

// Config returns the current configuration handle.
func (e *Editor) Config() *config.Config {
	return e.cfg.Load()
}

// SetInputHandler installs the key-to-action mapping used for
// [InputEvent]s.
func (e *Editor) SetInputHandler(h InputHandler) {
	e.inputHandler = h
}

// SetFsysNotify installs the channel buffer-set changes are reported on.
// The channel must be serviced or buffered; notifications are sent from
// the editor thread.
func (e *Editor) SetFsysNotify(tx chan<- BufChange) {
	e.fsysTx = tx

	for _, id := range e.buffers.IDs() {
		e.notifyFsys(BufChange{Kind: BufAdded, ID: id})
	}

	e.notifyFsys(BufChange{Kind: BufCurrent, ID: e.buffers.Active().ID})
}

// Buffers exposes the buffer set to same-thread collaborators (the view
// layer); filesystem sessions must go through [Message]s instead.
func (e *Editor) Buffers() *buffer.Buffers {
	return e.buffers
}

// StatusMessage returns the last status line text.
func (e *Editor) StatusMessage() string {
	return e.statusMessage
}

// Clipboard returns the last yanked text.
func (e *Editor) Clipboard() string {
	return e.clipboard
}

// Run consumes events until ctx is cancelled.
func (e *Editor) Run(ctx context.Context) {
	e.logger.Info("editor thread running")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("editor thread stopping")
			return

		case ev := <-e.Events:
			e.HandleEvent(ev)
		}
	}
}

// HandleEvent dispatches one event. Exported so tests (and a synchronous
// embedding) can drive the editor without the goroutine.
func (e *Editor) HandleEvent(ev Event) {
	switch v := ev.(type) {
	case InputEvent:
		if e.inputHandler == nil {
			return
		}

		for _, a := range e.inputHandler(v.Key) {
			e.handleAction(a)
		}

	case ActionEvent:
		e.handleAction(v.Action)

	case MessageEvent:
		e.handleMessage(v.Message)

	case WinsizeChanged:
		e.rows, e.cols = v.Rows, v.Cols
		e.buffers.Active().ClampScroll(e.rows, e.cols)
	}
}

func (e *Editor) handleAction(a buffer.Action) {
	out := e.buffers.Active().HandleAction(a)
	if out == nil {
		return
	}

	if out.SetClipboard != "" {
		e.clipboard = out.SetClipboard
	}

	if out.SetStatusMessage != "" {
		e.setStatus(out.SetStatusMessage)
	}
}

func (e *Editor) setStatus(s string) {
	e.statusMessage = strings.TrimRight(s, "\n")
}

func (e *Editor) notifyFsys(c BufChange) {
	if e.fsysTx != nil {
		e.fsysTx <- c
	}
}

// handleMessage serves one filesystem request and always replies exactly
// once on the message's channel.
func (e *Editor) handleMessage(m Message) {
	reply := func(s string, err error) {
		m.Tx <- Result{S: s, Err: err}
	}

	withBuffer := func(id int, f func(b *buffer.Buffer) (string, error)) {
		b := e.buffers.WithID(id)
		if b == nil {
			reply("", fmt.Errorf("unknown buffer %d", id))
			e.notifyFsys(BufChange{Kind: BufRemoved, ID: id})

			return
		}

		reply(f(b))
	}

	switch req := m.Req.(type) {
	case ControlMessage:
		reply(e.executeControl(req.Msg))

	case ReadCurrentBuffer:
		reply(strconv.Itoa(e.buffers.Active().ID), nil)

	case ReadBufferName:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			return b.FullName(), nil
		})

	case ReadBufferDot:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			return b.DotContents(), nil
		})

	case ReadBufferAddr:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			return b.Addr(), nil
		})

	case ReadBufferXDot:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			return b.XDotContents(), nil
		})

	case ReadBufferXAddr:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			return b.XAddr(), nil
		})

	case ReadBufferBody:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			return b.Contents(), nil
		})

	case SetBufferDot:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			b.NewTransaction()
			b.HandleAction(buffer.InsertString{S: req.S})

			return "handled", nil
		})

	case SetBufferAddr:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			d, err := b.MapAddr(strings.TrimSpace(req.S))
			if err != nil {
				return "", err
			}

			b.Dot = d

			return "handled", nil
		})

	case SetBufferXDot:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			// Run the insertion on the secondary dot without disturbing
			// the user's selection.
			userDot := b.Dot
			b.Dot = b.XDot
			b.NewTransaction()
			b.HandleAction(buffer.InsertString{S: req.S})
			b.XDot, b.Dot = b.Dot, userDot
			b.ClampDots()

			return "handled", nil
		})

	case SetBufferXAddr:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			d, err := b.MapAddr(strings.TrimSpace(req.S))
			if err != nil {
				return "", err
			}

			b.XDot = d

			return "handled", nil
		})

	case InsertBufferBody:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			charIdx := byteOffsetToChar(b, req.Offset)
			b.Dot = dot.FromCur(dot.Cur(charIdx))
			b.NewTransaction()
			b.HandleAction(buffer.InsertString{S: req.S})

			return "handled", nil
		})

	case ClearBufferBody:
		withBuffer(req.ID, func(b *buffer.Buffer) (string, error) {
			b.NewTransaction()
			b.HandleAction(buffer.DotSet{Object: dot.Object(dot.BufferStart)})
			b.HandleAction(buffer.DotExtendForward{Object: dot.Object(dot.BufferEnd)})
			b.HandleAction(buffer.Delete{})

			return "handled", nil
		})

	case AppendOutput:
		e.buffers.WriteOutputForBuffer(req.ID, req.S)
		reply("handled", nil)

	default:
		reply("", fmt.Errorf("unknown request"))
	}
}

// byteOffsetToChar translates a byte offset from the wire into a
// character index, clamped to the buffer.
func byteOffsetToChar(b *buffer.Buffer, offset int) int {
	contents := b.Contents()

	if offset < 0 {
		return 0
	}

	if offset >= len(contents) {
		return b.LenChars()
	}

	return len([]rune(contents[:offset]))
}

// executeControl runs one ctl-file command line.
func (e *Editor) executeControl(msg string) (string, error) {
	cmd := strings.TrimSpace(msg)
	e.logger.Debug("control message", "cmd", cmd)

	verb, rest, _ := strings.Cut(cmd, " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "echo":
		e.setStatus(rest)
		return "handled", nil

	case "buffer":
		id, err := strconv.Atoi(rest)
		if err != nil {
			return "", fmt.Errorf("%q is not a buffer id", rest)
		}

		if e.buffers.WithID(id) == nil {
			return "", fmt.Errorf("unknown buffer %d", id)
		}

		e.buffers.RecordJump()
		e.buffers.FocusID(id)
		e.notifyFsys(BufChange{Kind: BufCurrent, ID: id})

		return "handled", nil

	case "open":
		return e.openPath(rest)

	case "reload":
		if err := e.buffers.Active().ReloadFromDisk(); err != nil {
			return "", err
		}

		return "handled", nil

	case "reload-config":
		return e.reloadConfig()

	case "view-logs":
		logs := e.logBuf.String()
		id := e.buffers.AddVirtual(func(id int) *buffer.Buffer {
			return buffer.NewVirtual(id, "*logs*", logs)
		})
		e.notifyFsys(BufChange{Kind: BufAdded, ID: id})
		e.notifyFsys(BufChange{Kind: BufCurrent, ID: id})

		return "handled", nil

	case "set":
		return e.setConfigProp(rest)

	default:
		return "", fmt.Errorf("%q is not a known command", verb)
	}
}

func (e *Editor) openPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("open requires a path")
	}

	before := e.buffers.IDs()

	id, err := e.buffers.OpenOrFocus(path)
	if err != nil {
		return "", err
	}

	if id >= 0 {
		e.buffers.Active().SetConfig(e.cfg.Load())
		e.notifyFsys(BufChange{Kind: BufAdded, ID: id})

		// Opening the first real file may have evicted the empty
		// scratch buffer; tell the filesystem layer it is gone.
		for _, old := range before {
			if e.buffers.WithID(old) == nil {
				e.notifyFsys(BufChange{Kind: BufRemoved, ID: old})
			}
		}
	}

	e.notifyFsys(BufChange{Kind: BufCurrent, ID: e.buffers.Active().ID})

	return "handled", nil
}

func (e *Editor) reloadConfig() (string, error) {
	if e.cfgPath == "" {
		return "", fmt.Errorf("no config file configured")
	}

	raw, err := os.ReadFile(e.cfgPath)
	if err != nil {
		return "", fmt.Errorf("unable to read %s: %w", e.cfgPath, err)
	}

	cfg, err := config.Parse(string(raw))
	if err != nil {
		return "", err
	}

	e.cfg.Store(cfg)
	e.applyConfigToBuffers()
	e.logger.Info("config reloaded", "path", e.cfgPath)

	return "handled", nil
}

func (e *Editor) setConfigProp(directive string) (string, error) {
	// Config is replaced atomically, never mutated in place: readers on
	// other threads hold a consistent snapshot.
	next := *e.cfg.Load()
	if err := next.TrySetProp(directive); err != nil {
		return "", err
	}

	e.cfg.Store(&next)
	e.applyConfigToBuffers()

	return "handled", nil
}

func (e *Editor) applyConfigToBuffers() {
	cfg := e.cfg.Load()
	for _, id := range e.buffers.IDs() {
		e.buffers.WithID(id).SetConfig(cfg)
	}
}
