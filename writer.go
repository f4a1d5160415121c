// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	// defaultWriterPool reuses default-sized bufio writers between Write calls.
	defaultWriterPool = sync.Pool{
		New: func() any {
			return bufio.NewWriterSize(io.Discard, DefaultWriteBuffer)
		},
	}
)

// zeroFill is a shared source of zero-valued padding bytes.
var zeroFill [4096]byte

// Write encodes the container to out with default options.
//
// On success the container header is back-filled with the resolved
// offset table and file size. On a layout failure nothing is written.
func Write(out io.Writer, c *Container) error {
	return WriteWithOptions(out, c, WriteOptions{})
}

// WriteWithOptions encodes the container to out using explicit options.
func WriteWithOptions(out io.Writer, c *Container, opts WriteOptions) error {
	if out == nil {
		return ErrNilWriter
	}
	if c == nil {
		return ErrNilReader
	}

	opts.applyDefaults()

	// Resolution runs to completion before any byte reaches the sink.
	layout, err := ResolveLayout(c)
	if err != nil {
		return err
	}
	layout.Apply(c)

	w, releaseWriter := acquireWriter(out, opts.WriterBufferSize)
	defer releaseWriter()

	if err := writeHeader(w, c, layout, opts.ByteOrder); err != nil {
		return err
	}

	if err := writeParts(w, c.Parts, layout, opts); err != nil {
		return err
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush container: %w", err)
	}

	return nil
}

// WriteFile encodes the container to path.
func WriteFile(path string, c *Container, opts WriteOptions) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create container file: %w", err)
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	if err := WriteWithOptions(f, c, opts); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync container file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close container file: %w", err)
	}
	f = nil

	return nil
}

// acquireWriter returns a buffered writer and release callback.
func acquireWriter(out io.Writer, size int) (*bufio.Writer, func()) {
	if size == DefaultWriteBuffer {
		w := defaultWriterPool.Get().(*bufio.Writer) //nolint:forcetypeassert // pool contains only *bufio.Writer
		w.Reset(out)

		return w, func() {
			w.Reset(io.Discard)
			defaultWriterPool.Put(w)
		}
	}

	return bufio.NewWriterSize(out, size), func() {}
}

// writeHeader emits the fixed header record and the offset table.
// Multi-byte fields go through the wire byte order; the magic and the
// digest are copied verbatim.
func writeHeader(w *bufio.Writer, c *Container, layout Layout, order binary.ByteOrder) error {
	var header [headerSize]byte

	copy(header[0:4], Magic)
	copy(header[hashFieldOffset:hashFieldOffset+hashSize], c.Header.Hash[:])
	order.PutUint16(header[20:22], c.Header.VersionMajor)
	order.PutUint16(header[22:24], c.Header.VersionMinor)
	order.PutUint32(header[24:28], layout.FileSize)
	order.PutUint32(header[28:32], uint32(len(c.Parts))) //nolint:gosec // part count bounded by resolved uint32 layout

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var entry [offsetEntrySize]byte
	for _, offset := range layout.Offsets {
		order.PutUint32(entry[:], offset)
		if _, err := w.Write(entry[:]); err != nil {
			return fmt.Errorf("write offset table: %w", err)
		}
	}

	return nil
}

// writeParts emits part records in order with zero fill between the
// running cursor and each resolved offset.
func writeParts(w *bufio.Writer, parts []Part, layout Layout, opts WriteOptions) error {
	cursor := layoutStart(len(parts))
	for i := range parts {
		offset := uint64(layout.Offsets[i])

		var padding uint64
		if cursor < offset {
			padding = offset - cursor
			if err := writeZeroFill(w, padding); err != nil {
				return fmt.Errorf("pad part %s: %w", parts[i].Tag, err)
			}
		}

		var record [partHeaderSize]byte
		copy(record[0:tagSize], parts[i].Tag)
		opts.ByteOrder.PutUint32(record[tagSize:], parts[i].Size)
		if _, err := w.Write(record[:]); err != nil {
			return fmt.Errorf("write part %s header: %w", parts[i].Tag, err)
		}

		cursor = offset + partHeaderSize
		if parts[i].Data != nil {
			if _, err := w.Write(parts[i].Data); err != nil {
				return fmt.Errorf("write part %s payload: %w", parts[i].Tag, err)
			}

			cursor += uint64(parts[i].Size)
		}

		if opts.OnPartDone != nil {
			opts.OnPartDone(PartProgress{
				Tag:            parts[i].Tag,
				Offset:         layout.Offsets[i],
				Size:           parts[i].Size,
				Padding:        uint32(padding), //nolint:gosec // gap bounded by uint32 offsets
				PayloadWritten: parts[i].Data != nil,
			})
		}
	}

	return nil
}

// writeZeroFill emits n zero-valued bytes.
func writeZeroFill(w *bufio.Writer, n uint64) error {
	for n > 0 {
		chunk := uint64(len(zeroFill))
		if chunk > n {
			chunk = n
		}

		if _, err := w.Write(zeroFill[:chunk]); err != nil {
			return err
		}

		n -= chunk
	}

	return nil
}
