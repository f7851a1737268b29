// Package fasta reads and writes multi-record sequence files.
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is a single named sequence.
type Record struct {
	// ID is the first whitespace delimited token of the header.
	ID string
	// Header is the full header line without the leading '>'.
	Header   string
	Sequence string
}

// Parse reads every record of r. Sequence lines are concatenated.
// Content that does not start with a header yields no records.
func Parse(r io.Reader) ([]Record, error) {
	var (
		records []Record
		cur     *Record
		seq     strings.Builder
	)
	flush := func() {
		if cur != nil {
			cur.Sequence = seq.String()
			records = append(records, *cur)
			seq.Reset()
		}
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			header := strings.TrimSpace(line[1:])
			id := header
			if fields := strings.Fields(header); len(fields) > 0 {
				id = fields[0]
			}
			cur = &Record{ID: id, Header: header}
			continue
		}
		if cur == nil {
			return nil, nil
		}
		seq.WriteString(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fasta: %w", err)
	}
	flush()
	return records, nil
}

// ReadFile parses the records of a file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Sniff reports whether the file content looks like FASTA: its first non-blank
// byte is '>'. Only a small prefix of the file is read.
func Sniff(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	trimmed := bytes.TrimLeft(buf[:n], " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '>', nil
}

// Format renders a record as a two line FASTA entry.
func Format(rec Record) []byte {
	header := rec.Header
	if header == "" {
		header = rec.ID
	}
	return []byte(">" + header + "\n" + rec.Sequence + "\n")
}

// WriteFile writes a single record to path.
func WriteFile(path string, rec Record) error {
	return os.WriteFile(path, Format(rec), 0644)
}

// Matches reports whether the file at path holds exactly rec.
// A missing or unreadable file does not match.
func Matches(path string, rec Record) bool {
	records, err := ReadFile(path)
	if err != nil || len(records) != 1 {
		return false
	}
	got := records[0]
	return got.Header == rec.Header && got.Sequence == rec.Sequence
}
