package main

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"macrorec/store"
)

// selectRecording lets the user pick one of the recordings in dir with the
// arrow keys. It returns "" when there is nothing to pick.
func selectRecording(dir string) (string, error) {
	files, err := store.List(dir)
	if err != nil {
		return "", fmt.Errorf("listing recordings: %w", err)
	}

	if len(files) == 0 {
		fmt.Printf("No recordings in %s\n", dir)
		return "", nil
	}

	if len(files) == 1 {
		fmt.Printf("Using recording: %s\n", filepath.Base(files[0]))
		return files[0], nil
	}

	// Raw mode for arrow key input
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	renderList := func() {
		fmt.Print("\r\x1b[J") // clear from cursor to end
		fmt.Print("Select recording (↑/↓, Enter to confirm):\r\n\r\n")
		for i, f := range files {
			name := filepath.Base(f)
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", name)
			} else {
				fmt.Printf("    %s\r\n", name)
			}
		}
	}

	renderList()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}

		if n == 1 {
			switch buf[0] {
			case 13: // Enter
				fmt.Printf("\r\n")
				return files[cursor], nil
			case 3, 'q': // Ctrl+C
				fmt.Printf("\r\n")
				return "", nil
			case 'j':
				cursor = moveCursor(cursor, 1, len(files))
			case 'k':
				cursor = moveCursor(cursor, -1, len(files))
			}
		} else if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
			switch buf[2] {
			case 'A':
				cursor = moveCursor(cursor, -1, len(files))
			case 'B':
				cursor = moveCursor(cursor, 1, len(files))
			}
		}

		// Redraw: move up to overwrite
		fmt.Printf("\x1b[%dA", len(files)+2)
		renderList()
	}
}

func moveCursor(cur, delta, n int) int {
	cur += delta
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
