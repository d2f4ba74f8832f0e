// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     config.go
// Date:     07.Feb.2024
//
// =============================================================================

// Package config holds the process-wide editor configuration and the
// parser for its line-oriented file format: `set prop=val` directives,
// `#` comments and blank lines. The parsed Config is immutable in use and
// replaced wholesale on reload.
package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Color is a 24-bit RGB colour parsed from a "#RRGGBB" string.
type Color struct {
	R, G, B uint8
}

// ParseColor parses a "#RRGGBB" string.
func ParseColor(s string) (Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("%q is not a #RRGGBB color", s)
	}

	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%q is not a #RRGGBB color", s)
	}

	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// String renders the colour back in its config-file form.
func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ColorScheme is the set of colours the renderer consumes.
type ColorScheme struct {
	Bg           Color
	Fg           Color
	DotBg        Color
	BarBg        Color
	SigncolFg    Color
	MinibufferHl Color
}

// Config is the full editor configuration.
type Config struct {
	Tabstop         int
	ExpandTab       bool
	MatchIndent     bool
	StatusTimeout   uint64 // seconds
	MinibufferLines int
	FindCommand     string
	Colors          ColorScheme
}

// Default returns the built-in configuration used when no config file
// exists or a directive leaves a property untouched.
func Default() *Config {
	return &Config{
		Tabstop:         4,
		ExpandTab:       true,
		MatchIndent:     true,
		StatusTimeout:   5,
		MinibufferLines: 10,
		FindCommand:     defaultFindCommand(),
		Colors: ColorScheme{
			Bg:           Color{R: 0x1B, G: 0x17, B: 0x20},
			Fg:           Color{R: 0xEB, G: 0xDB, B: 0xB2},
			DotBg:        Color{R: 0x33, G: 0x66, B: 0x77},
			BarBg:        Color{R: 0x4E, G: 0x41, B: 0x5C},
			SigncolFg:    Color{R: 0x54, G: 0x48, B: 0x63},
			MinibufferHl: Color{R: 0x3E, G: 0x35, B: 0x49},
		},
	}
}

func defaultFindCommand() string {
	if runtime.GOOS == "darwin" || runtime.GOOS == "linux" {
		return "fd -t f"
	}

	return "find . -type f"
}

// Parse parses file contents as a config file. On error the returned
// message is meant for the user's status line.
func Parse(contents string) (*Config, error) {
	cfg := Default()

	for _, rawLine := range strings.Split(contents, "\n") {
		line := strings.TrimRight(rawLine, " \t\r")

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		directive, ok := strings.CutPrefix(line, "set ")
		if !ok {
			return nil, fmt.Errorf("%q is not a 'set prop=val' command", line)
		}

		if err := cfg.TrySetProp(directive); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// TrySetProp applies a single "prop=val" assignment, as found after `set`
// in a config file or received over the control interface.
func (c *Config) TrySetProp(input string) error {
	prop, val, found := strings.Cut(input, "=")
	if !found {
		return fmt.Errorf("%q is not a 'set prop=val' command", input)
	}

	prop = strings.TrimSpace(prop)
	val = strings.TrimSpace(val)

	switch prop {
	// Numbers.
	case "tabstop":
		return setNum(&c.Tabstop, prop, val)
	case "minibuffer-lines":
		return setNum(&c.MinibufferLines, prop, val)
	case "status-timeout":
		n := int(c.StatusTimeout)
		if err := setNum(&n, prop, val); err != nil {
			return err
		}
		c.StatusTimeout = uint64(n)
		return nil

	// Flags.
	case "expand-tab":
		return setBool(&c.ExpandTab, prop, val)
	case "match-indent":
		return setBool(&c.MatchIndent, prop, val)

	// Strings.
	case "find-command":
		c.FindCommand = val
		return nil

	// Colors.
	case "bg-color":
		return setColor(&c.Colors.Bg, prop, val)
	case "fg-color":
		return setColor(&c.Colors.Fg, prop, val)
	case "dot-bg-color":
		return setColor(&c.Colors.DotBg, prop, val)
	case "bar-bg-color":
		return setColor(&c.Colors.BarBg, prop, val)
	case "signcol-fg-color":
		return setColor(&c.Colors.SigncolFg, prop, val)
	case "minibuffer-hl-color":
		return setColor(&c.Colors.MinibufferHl, prop, val)

	default:
		return fmt.Errorf("%q is not a known config property", prop)
	}
}

func setNum(dst *int, prop string, val string) error {
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return fmt.Errorf("expected number for %q but found %q", prop, val)
	}

	*dst = n

	return nil
}

func setBool(dst *bool, prop string, val string) error {
	switch val {
	case "true":
		*dst = true
	case "false":
		*dst = false
	default:
		return fmt.Errorf("expected true/false for %q but found %q", prop, val)
	}

	return nil
}

func setColor(dst *Color, prop string, val string) error {
	col, err := ParseColor(val)
	if err != nil {
		return fmt.Errorf("invalid color for %q: %w", prop, err)
	}

	*dst = col

	return nil
}
