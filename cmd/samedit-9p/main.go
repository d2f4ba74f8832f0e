// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     main.go
// Date:     07.Feb.2024
//
// =============================================================================

// samedit-9p runs the editor core headless and exports it over 9P, so
// external tools (or a separate UI process) can drive buffers through the
// filesystem interface:
//
//	samedit-9p -socket samedit -config ~/.config/samedit/config &
//	9p -a 'unix!/tmp/ns.$USER.:0/samedit' read ctl
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Release-Candidate/samedit/internal/editor"
	"github.com/Release-Candidate/samedit/internal/ninep"
)

func main() {
	socket := flag.String("socket", ninep.DefaultSocketName,
		"name of the UNIX socket under /tmp/ns.$USER.:0/")
	port := flag.Int("port", 0,
		"also listen on this localhost TCP port (0 disables)")
	cfgPath := flag.String("config", "", "config file to load")
	flag.Parse()

	ed := editor.New(*cfgPath)

	changes := make(chan editor.BufChange, 64)
	ed.SetFsysNotify(changes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ed.Run(ctx)

	for _, path := range flag.Args() {
		res := drive(ed, editor.ControlMessage{Msg: "open " + path})
		if res.Err != nil {
			fmt.Fprintln(os.Stderr, res.Err)
			os.Exit(1)
		}
	}

	srv := ninep.New(ed.Events, changes, nil)
	defer srv.Close()

	errs := make(chan error, 2)

	go func() { errs <- srv.ListenSocket(*socket) }()

	if *port != 0 {
		go func() { errs <- srv.ListenTCP(*port) }()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	case <-sig:
	}
}

// drive sends one request into the editor thread and waits for the reply.
func drive(ed *editor.Editor, req editor.Req) editor.Result {
	tx := make(chan editor.Result, 1)
	ed.Events <- editor.MessageEvent{Message: editor.Message{Req: req, Tx: tx}}

	return <-tx
}
