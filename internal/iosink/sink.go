// Package iosink writes export files. Every file is an append-only Sink: a
// bounded channel of rows consumed by one goroutine that owns a buffered
// writer. Writers block while the channel is full.
package iosink

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"strings"
	"sync"
)

// Buffer is the number of rows a Sink accepts before Write blocks.
const Buffer = 1024

// Sink is an append-only file of rows.
type Sink struct {
	path string
	file *os.File
	buf  *bufio.Writer
	enc  func([]string) error

	rows chan []string
	done chan struct{}

	mu     sync.RWMutex
	closed bool

	// err is the first write error, it is read after done is closed.
	err error
}

// NewCSV creates a CSV file and writes the header if it is not empty.
func NewCSV(path string, header []string) (*Sink, error) {
	s, err := create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(s.buf)
	s.enc = func(fields []string) error {
		if err := w.Write(fields); err != nil {
			return err
		}
		// csv.Writer keeps its own buffer on top of bufio.
		w.Flush()
		return w.Error()
	}
	if len(header) > 0 {
		if err = s.enc(header); err != nil {
			s.file.Close()
			return nil, WriteFileError(path, err)
		}
	}
	s.start()
	return s, nil
}

// NewText creates a plain text file. Fields of a row are concatenated and
// terminated by a newline.
func NewText(path string) (*Sink, error) {
	s, err := create(path)
	if err != nil {
		return nil, err
	}
	s.enc = func(fields []string) error {
		_, err := s.buf.WriteString(strings.Join(fields, "") + "\n")
		return err
	}
	s.start()
	return s, nil
}

func create(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, OutputFileError(path, err)
	}
	return &Sink{
		path: path,
		file: f,
		buf:  bufio.NewWriter(f),
		rows: make(chan []string, Buffer),
		done: make(chan struct{}),
	}, nil
}

func (s *Sink) start() {
	go func() {
		defer close(s.done)
		for fields := range s.rows {
			if s.err != nil {
				continue
			}
			if err := s.enc(fields); err != nil {
				s.err = WriteFileError(s.path, err)
			}
		}
	}()
}

// Path returns the location of the file.
func (s *Sink) Path() string {
	return s.path
}

// Write appends a row. It blocks while the buffer is full and returns
// early when ctx is cancelled.
func (s *Sink) Write(ctx context.Context, fields ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return WriteFileError(s.path, errors.New("sink is closed"))
	}

	row := make([]string, len(fields))
	copy(row, fields)

	select {
	case s.rows <- row:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close waits for the queued rows, flushes and closes the file. It returns
// the first error that happened during writing. Close is idempotent.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.rows)
	s.mu.Unlock()

	<-s.done
	err := s.err
	if ferr := s.buf.Flush(); ferr != nil && err == nil {
		err = WriteFileError(s.path, ferr)
	}
	if cerr := s.file.Close(); cerr != nil && err == nil {
		err = WriteFileError(s.path, cerr)
	}
	return err
}
