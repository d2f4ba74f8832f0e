// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     request.go
// Date:     07.Feb.2024
//
// =============================================================================

package editor

import "github.com/Release-Candidate/samedit/internal/buffer"

// Req enumerates every control message a filesystem session can send to
// the editor thread. Sessions never touch buffer state directly: they
// build a Req, wrap it in a [Message] with a reply channel and block on
// the reply.
type Req interface {
	req()
}

// ReadBufferName asks for a buffer's display name.
type ReadBufferName struct{ ID int }

// ReadBufferDot asks for the contents of the primary dot.
type ReadBufferDot struct{ ID int }

// ReadBufferAddr asks for the primary dot as an address.
type ReadBufferAddr struct{ ID int }

// ReadBufferXDot asks for the contents of the secondary dot.
type ReadBufferXDot struct{ ID int }

// ReadBufferXAddr asks for the secondary dot as an address.
type ReadBufferXAddr struct{ ID int }

// ReadBufferBody asks for the full buffer contents.
type ReadBufferBody struct{ ID int }

// ReadCurrentBuffer asks for the id of the focused buffer.
type ReadCurrentBuffer struct{}

// SetBufferDot replaces the primary dot's text with S.
type SetBufferDot struct {
	ID int
	S  string
}

// SetBufferAddr evaluates S as an address into the primary dot.
type SetBufferAddr struct {
	ID int
	S  string
}

// SetBufferXDot replaces the secondary dot's text with S without
// disturbing the user's selection.
type SetBufferXDot struct {
	ID int
	S  string
}

// SetBufferXAddr evaluates S as an address into the secondary dot.
type SetBufferXAddr struct {
	ID int
	S  string
}

// InsertBufferBody inserts S at the character position corresponding to
// byte Offset.
type InsertBufferBody struct {
	ID     int
	S      string
	Offset int
}

// ClearBufferBody empties the buffer, as triggered by opening its body
// file with truncation.
type ClearBufferBody struct{ ID int }

// AppendOutput routes S to the output buffer for the given buffer id.
type AppendOutput struct {
	ID int
	S  string
}

// ControlMessage carries one line written to the root ctl file.
type ControlMessage struct{ Msg string }

func (ReadBufferName) req()    {}
func (ReadBufferDot) req()     {}
func (ReadBufferAddr) req()    {}
func (ReadBufferXDot) req()    {}
func (ReadBufferXAddr) req()   {}
func (ReadBufferBody) req()    {}
func (ReadCurrentBuffer) req() {}
func (SetBufferDot) req()      {}
func (SetBufferAddr) req()     {}
func (SetBufferXDot) req()     {}
func (SetBufferXAddr) req()    {}
func (InsertBufferBody) req()  {}
func (ClearBufferBody) req()   {}
func (AppendOutput) req()      {}
func (ControlMessage) req()    {}

// Result is the reply to a [Message]: the requested content (for reads)
// or an error to surface as a protocol-level error reply.
type Result struct {
	S   string
	Err error
}

// Message pairs a request with the channel its reply must be sent on.
// The editor thread sends exactly one Result per Message.
type Message struct {
	Req Req
	Tx  chan Result
}

// Send wraps req in a fresh Message, queues it on the editor's event
// channel and blocks until the reply arrives.
func Send(events chan<- Event, req Req) Result {
	tx := make(chan Result, 1)
	events <- MessageEvent{Message{Req: req, Tx: tx}}

	return <-tx
}

// Event is one entry in the editor thread's single consumption queue.
type Event interface {
	event()
}

// InputEvent is a decoded key from the input reader. Key decoding itself
// happens outside the core; the editor only forwards these to the
// installed input handler.
type InputEvent struct{ Key string }

// ActionEvent asks the editor to run a buffer action on the active
// buffer.
type ActionEvent struct{ Action buffer.Action }

// MessageEvent carries a filesystem request.
type MessageEvent struct{ Message Message }

// WinsizeChanged reports a new terminal size.
type WinsizeChanged struct {
	Rows int
	Cols int
}

func (InputEvent) event()     {}
func (ActionEvent) event()    {}
func (MessageEvent) event()   {}
func (WinsizeChanged) event() {}
