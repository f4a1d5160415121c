// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"fmt"
	"io"
	"os"
)

// ReadContainerHeader opens a container and returns only its fixed header
// fields and offset table, without part record reads.
func ReadContainerHeader(path string) (Header, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return Header{}, err
	}
	defer func() { _ = f.Close() }()

	return ReadContainerHeaderFromReaderAt(f, size)
}

// ReadContainerHeaderFromReaderAt reads only fixed header fields and the
// offset table from a random-access source.
func ReadContainerHeaderFromReaderAt(ra io.ReaderAt, size int64) (Header, error) {
	if ra == nil {
		return Header{}, ErrNilReader
	}

	opts := ReaderOptions{AllowTruncatedPayloads: true}
	opts.applyDefaults()

	header, partCount, err := parseFixedHeader(ra, size, opts)
	if err != nil {
		return Header{}, err
	}

	offsets, err := parseOffsetTable(ra, size, partCount, opts)
	if err != nil {
		return Header{}, err
	}

	header.PartOffsets = offsets
	return header, nil
}

// ListParts opens a container and returns part metadata without payload reads.
func ListParts(path string) ([]PartInfo, error) {
	return ListPartsWithOptions(path, ReaderOptions{})
}

// ListPartsWithOptions opens a container and returns part metadata without
// payload reads using reader options.
func ListPartsWithOptions(path string, opts ReaderOptions) ([]PartInfo, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return ListPartsFromReaderAtWithOptions(f, size, opts)
}

// ListPartsFromReaderAt parses part metadata from a random-access source.
func ListPartsFromReaderAt(ra io.ReaderAt, size int64) ([]PartInfo, error) {
	return ListPartsFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// ListPartsFromReaderAtWithOptions parses part metadata from a
// random-access source using reader options.
func ListPartsFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) ([]PartInfo, error) {
	r, err := NewReaderFromReaderAtWithOptions(ra, size, opts)
	if err != nil {
		return nil, err
	}

	return r.Parts(), nil
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open container: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}

	return f, fi.Size(), nil
}
