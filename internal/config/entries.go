package config

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ReadEntries reads a server list: one host[:port] per line, text after '#'
// ignored. Comment-only lines are skipped; the first empty line ends the list.
func ReadEntries(r io.Reader) ([]string, error) {
	var entries []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			break
		}

		entry, _, _ := strings.Cut(raw, "#")
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

// Entries returns the positional entries followed by those read from --file.
func (c *Config) Entries() ([]string, error) {
	entries := append([]string(nil), c.Args.Entries...)
	if c.Mode.File == "" {
		return entries, nil
	}

	f, err := os.Open(c.Mode.File)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fromFile, err := ReadEntries(f)
	if err != nil {
		return nil, err
	}

	return append(entries, fromFile...), nil
}
