// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import "errors"

// Sentinel errors for container operations. Use errors.Is in callers.
var (
	// ErrPartCountMismatch means the number of parts differs from the supplied offset table length.
	ErrPartCountMismatch = errors.New("mismatch between number of parts and part offsets")
	// ErrPartOffsetTooSmall means a supplied offset leaves no room for the preceding part.
	ErrPartOffsetTooSmall = errors.New("offset mismatch, not enough space for data")
	// ErrFileSizeTooSmall means the declared file size is smaller than the computed layout requires.
	ErrFileSizeTooSmall = errors.New("file size specified is too small")
	// ErrInvalidPartTag means a part tag is not exactly 4 bytes.
	ErrInvalidPartTag = errors.New("part tag must be exactly 4 bytes")
	// ErrPartSizeMismatch means part payload length differs from its declared size.
	ErrPartSizeMismatch = errors.New("part payload length differs from declared size")
	// ErrSizeOverflow means the computed layout exceeds the uint32 container limit.
	ErrSizeOverflow = errors.New("layout exceeds uint32 container limit")
	// ErrInvalidHeader means the container is missing or has a bad header.
	ErrInvalidHeader = errors.New("invalid container: missing or bad header")
	// ErrTruncated means stored bytes end before the structure they must hold.
	ErrTruncated = errors.New("container truncated")
	// ErrPartOutOfBounds means a stored part record or payload falls outside the container.
	ErrPartOutOfBounds = errors.New("part record out of container bounds")
	// ErrPartNotFound means the part is not found.
	ErrPartNotFound = errors.New("part not found")
	// ErrDuplicatePartTag means two staged parts resolve to the same tag.
	ErrDuplicatePartTag = errors.New("duplicate part tag")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrInvalidTagPattern means one or more tag filter rules are invalid.
	ErrInvalidTagPattern = errors.New("invalid tag rules")
	// ErrNilHashFunc means no digest function was provided for hash patching.
	ErrNilHashFunc = errors.New("hash function is nil")
)
