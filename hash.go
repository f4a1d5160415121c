// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"fmt"
	"io"
	"os"
)

// HashFunc computes the 16-byte container digest over the hashed region.
// The digest algorithm itself is defined by the toolchain producing the
// container and is supplied by the caller.
type HashFunc func(r io.Reader) ([16]byte, error)

// PatchFileHash recomputes the header digest of an existing container
// file and writes it in place.
//
// The hashed region starts at the version field (byte 20) and runs to the
// end of the file; the digest lands in the header hash field at byte 4.
func PatchFileHash(path string, fn HashFunc) error {
	if fn == nil {
		return ErrNilHashFunc
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open for hash patch: %w", err)
	}
	defer func() { _ = f.Close() }()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek end: %w", err)
	}
	if size < headerSize {
		return fmt.Errorf("%w: short header", ErrInvalidHeader)
	}

	var magic [4]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if string(magic[:]) != Magic {
		return ErrInvalidHeader
	}

	region := io.NewSectionReader(f, hashedRegionStart, size-hashedRegionStart)
	digest, err := fn(region)
	if err != nil {
		return fmt.Errorf("hash content: %w", err)
	}

	if _, err := f.WriteAt(digest[:], hashFieldOffset); err != nil {
		return fmt.Errorf("write hash field: %w", err)
	}

	return f.Sync()
}

// ReadFileHash returns the stored 16-byte header digest of a container file.
func ReadFileHash(path string) ([16]byte, error) {
	var digest [16]byte

	f, size, err := openFileWithSize(path)
	if err != nil {
		return digest, err
	}
	defer func() { _ = f.Close() }()

	if size < headerSize {
		return digest, fmt.Errorf("%w: short header", ErrInvalidHeader)
	}

	var magic [4]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil {
		return digest, fmt.Errorf("read magic: %w", err)
	}
	if string(magic[:]) != Magic {
		return digest, ErrInvalidHeader
	}

	if _, err := f.ReadAt(digest[:], hashFieldOffset); err != nil {
		return digest, fmt.Errorf("read hash field: %w", err)
	}

	return digest, nil
}
