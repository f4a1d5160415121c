// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Reader provides read-only access to a parsed container.
type Reader struct {
	// ra is the underlying random-access reader used for payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// header stores parsed fixed header fields.
	header Header
	// parts stores parsed immutable part metadata.
	parts []PartInfo
	// size is total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens a container file by path and parses its structure.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens a container file by path and parses its structure
// using explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	r, err := NewReaderFromReaderAtWithOptions(f, fi.Size(), opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReaderFromReaderAt parses a container from an existing ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	return NewReaderFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// NewReaderFromReaderAtWithOptions parses a container from an existing
// ReaderAt and known size using explicit reader options.
func NewReaderFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	opts.applyDefaults()

	r := &Reader{ra: ra, size: size}
	if err := r.parse(ra, size, opts); err != nil {
		return nil, err
	}

	return r, nil
}

// Header returns parsed fixed header fields.
func (r *Reader) Header() Header {
	if r == nil {
		return Header{}
	}

	h := r.header
	h.PartOffsets = make([]uint32, len(r.header.PartOffsets))
	copy(h.PartOffsets, r.header.PartOffsets)

	return h
}

// Parts returns a copy of parsed part metadata.
func (r *Reader) Parts() []PartInfo {
	if r == nil {
		return nil
	}

	parts := make([]PartInfo, len(r.parts))
	copy(parts, r.parts)
	return parts
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// OpenPart opens the payload stream of the first part with the given tag.
func (r *Reader) OpenPart(tag string) (io.Reader, error) {
	if r == nil || r.ra == nil {
		return nil, ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	info := r.findPartByTag(tag)
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, tag)
	}

	return r.openPartByInfo(*info), nil
}

// OpenPartInfo opens a payload stream by already resolved metadata.
func (r *Reader) OpenPartInfo(info PartInfo) (io.Reader, error) {
	if r == nil || r.ra == nil {
		return nil, ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	return r.openPartByInfo(info), nil
}

// ReadPart reads the full payload of the first part with the given tag.
func (r *Reader) ReadPart(tag string) ([]byte, error) {
	src, err := r.OpenPart(tag)
	if err != nil {
		return nil, err
	}

	return io.ReadAll(src)
}

// openPartByInfo returns a bounded payload reader for resolved metadata.
func (r *Reader) openPartByInfo(info PartInfo) io.Reader {
	payloadStart := int64(info.Offset) + partHeaderSize
	return io.NewSectionReader(r.ra, payloadStart, int64(info.Size))
}

// findPartByTag resolves the first part with the given tag.
func (r *Reader) findPartByTag(tag string) *PartInfo {
	for i := range r.parts {
		if r.parts[i].Tag == tag {
			return &r.parts[i]
		}
	}

	return nil
}

// parse reads and validates container structure from ReaderAt.
func (r *Reader) parse(ra io.ReaderAt, size int64, opts ReaderOptions) error {
	header, partCount, err := parseFixedHeader(ra, size, opts)
	if err != nil {
		return err
	}

	offsets, err := parseOffsetTable(ra, size, partCount, opts)
	if err != nil {
		return err
	}
	header.PartOffsets = offsets

	parts, err := parsePartRecords(ra, size, offsets, opts)
	if err != nil {
		return err
	}

	parts, err = filterPartsByTagRules(parts, opts.TagRules, opts.TagMatcherOptions)
	if err != nil {
		return err
	}

	r.header = header
	r.parts = parts

	return nil
}

// parseFixedHeader reads and validates the fixed 32-byte header.
func parseFixedHeader(ra io.ReaderAt, size int64, opts ReaderOptions) (Header, uint32, error) {
	if size < headerSize {
		return Header{}, 0, fmt.Errorf("%w: short header", ErrInvalidHeader)
	}

	var raw [headerSize]byte
	if _, err := ra.ReadAt(raw[:], 0); err != nil {
		return Header{}, 0, fmt.Errorf("read header: %w", err)
	}

	if string(raw[0:4]) != Magic {
		return Header{}, 0, ErrInvalidHeader
	}

	var header Header
	copy(header.Hash[:], raw[hashFieldOffset:hashFieldOffset+hashSize])
	header.VersionMajor = opts.ByteOrder.Uint16(raw[20:22])
	header.VersionMinor = opts.ByteOrder.Uint16(raw[22:24])
	header.FileSize = opts.ByteOrder.Uint32(raw[24:28])
	partCount := opts.ByteOrder.Uint32(raw[28:32])

	if int64(header.FileSize) > size && !opts.AllowTruncatedPayloads {
		return Header{}, 0, fmt.Errorf("%w: declared size %d, stored %d",
			ErrTruncated, header.FileSize, size)
	}

	return header, partCount, nil
}

// parseOffsetTable reads the part offset table following the header.
func parseOffsetTable(ra io.ReaderAt, size int64, partCount uint32, opts ReaderOptions) ([]uint32, error) {
	tableEnd := uint64(headerSize) + uint64(partCount)*offsetEntrySize
	if tableEnd > uint64(size) {
		return nil, fmt.Errorf("%w: offset table for %d parts", ErrTruncated, partCount)
	}

	raw := make([]byte, partCount*offsetEntrySize)
	if _, err := ra.ReadAt(raw, headerSize); err != nil {
		return nil, fmt.Errorf("read offset table: %w", err)
	}

	offsets := make([]uint32, partCount)
	for i := range offsets {
		offsets[i] = opts.ByteOrder.Uint32(raw[i*offsetEntrySize:])
	}

	return offsets, nil
}

// parsePartRecords reads one part header per offset table entry and
// validates record bounds against stored bytes.
func parsePartRecords(ra io.ReaderAt, size int64, offsets []uint32, opts ReaderOptions) ([]PartInfo, error) {
	recordStart := layoutStart(len(offsets))
	parts := make([]PartInfo, 0, len(offsets))

	for _, offset := range offsets {
		if uint64(offset) < recordStart || int64(offset)+partHeaderSize > size {
			if opts.SkipMalformedParts {
				continue
			}

			return nil, fmt.Errorf("%w: record at offset %d", ErrPartOutOfBounds, offset)
		}

		var record [partHeaderSize]byte
		if _, err := ra.ReadAt(record[:], int64(offset)); err != nil {
			return nil, fmt.Errorf("read part record at %d: %w", offset, err)
		}

		info := PartInfo{
			Tag:    string(record[0:tagSize]),
			Offset: offset,
			Size:   opts.ByteOrder.Uint32(record[tagSize:]),
		}

		payloadEnd := int64(offset) + partHeaderSize + int64(info.Size)
		if payloadEnd > size && !opts.AllowTruncatedPayloads {
			if opts.SkipMalformedParts {
				continue
			}

			return nil, fmt.Errorf("%w: part %s payload ends at %d, stored %d",
				ErrPartOutOfBounds, info.Tag, payloadEnd, size)
		}

		parts = append(parts, info)
	}

	return parts, nil
}
