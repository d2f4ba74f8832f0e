// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     main.go
// Date:     07.Feb.2024
//
// =============================================================================

// samedit-demo exercises the editor core from a terminal without the full
// UI: pipe mode runs a sam edit program over stdin, interactive mode is a
// minimal line editor over a single buffer.
//
//	echo 'foo bar' | samedit-demo -e ', s/foo/baz/g'
//	samedit-demo notes.txt
package main

import (
	"flag"
	"fmt"
	"os"

	"atomicgo.dev/cursor"
	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"

	"github.com/Release-Candidate/samedit/internal/buffer"
	"github.com/Release-Candidate/samedit/internal/dot"
	"github.com/Release-Candidate/samedit/internal/sam"
)

func main() {
	prog := flag.String("e", "", "sam edit program to run over stdin")
	flag.Parse()

	if *prog != "" {
		if err := runPipe(*prog); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		return
	}

	if err := runInteractive(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runPipe streams stdin through an edit program, printing the transformed
// text to stdout. p/ output goes to stderr so it can be separated from
// the stream.
func runPipe(src string) error {
	prog, err := sam.Parse(src)
	if err != nil {
		return err
	}

	stream := sam.NewCachedStdin()

	if _, _, err := prog.Execute(stream, "stdin", os.Stderr); err != nil {
		return err
	}

	fmt.Print(stream.Contents())

	return nil
}

// runInteractive edits a single buffer with a crude always-redraw loop:
// printable keys insert, backspace deletes, arrows move the dot, ctrl-z
// undoes, ctrl-s saves, esc quits.
func runInteractive(path string) error {
	var (
		b   *buffer.Buffer
		err error
	)

	if path == "" {
		b = buffer.NewUnnamed(1, "")
	} else if b, err = buffer.NewFromFile(1, path); err != nil {
		return err
	}

	status := "esc quits, ctrl-s saves, ctrl-z undoes"

	cursor.Hide()
	defer cursor.Show()

	area := cursor.NewArea()
	draw(&area, b, status)

	return keyboard.Listen(func(key keys.Key) (bool, error) {
		switch key.Code {
		case keys.Escape:
			return true, nil

		case keys.CtrlC:
			return true, nil

		case keys.CtrlS:
			if path == "" {
				status = "no file to save to"
				break
			}

			msg, err := b.SaveToDiskAt(path, false)
			if err != nil {
				status = fmt.Sprintf("%s: %v", msg, err)
			} else {
				status = msg
			}

		case keys.CtrlZ:
			if !b.Undo() {
				status = "nothing to undo"
			}

		case keys.CtrlY:
			if !b.Redo() {
				status = "nothing to redo"
			}

		case keys.Up:
			b.HandleAction(buffer.DotSet{Object: dot.ArrowObject(dot.Up)})
		case keys.Down:
			b.HandleAction(buffer.DotSet{Object: dot.ArrowObject(dot.Down)})
		case keys.Left:
			b.HandleAction(buffer.DotSet{Object: dot.ArrowObject(dot.Left)})
		case keys.Right:
			b.HandleAction(buffer.DotSet{Object: dot.ArrowObject(dot.Right)})

		case keys.Backspace:
			b.HandleAction(buffer.DotExtendBackward{
				Object: dot.Object(dot.Character),
			})
			b.HandleAction(buffer.Delete{})

		case keys.Enter:
			b.NewTransaction()
			b.HandleAction(buffer.InsertChar{C: '\n'})

		case keys.Space:
			b.HandleAction(buffer.InsertChar{C: ' '})

		case keys.RuneKey:
			for _, r := range key.Runes {
				b.HandleAction(buffer.InsertChar{C: r})
			}
		}

		draw(&area, b, status)

		return false, nil
	})
}

// draw repaints the whole buffer plus a status line; fine for a demo,
// nowhere near a real renderer.
func draw(area *cursor.Area, b *buffer.Buffer, status string) {
	nLines := b.Text().LenLines()

	out := ""
	for y := 0; y < nLines; y++ {
		out += b.RawRLineUnchecked(y, 0, 80, nil) + "\n"
	}

	out += fmt.Sprintf("-- %s %s\n", b.FullName(), status)

	area.Update(out)
}
