// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"fmt"
	"math"
)

// Layout is a fully resolved, self-consistent part placement plan.
// It is produced by ResolveLayout as a value and applied to the
// container header in a separate explicit step.
type Layout struct {
	// Offsets holds one absolute record offset per part, in part order.
	Offsets []uint32 `json:"offsets" yaml:"offsets"`
	// FileSize is the resolved total container size in bytes.
	FileSize uint32 `json:"file_size" yaml:"file_size"`
}

// ResolveLayout computes or verifies part offsets and the total size.
//
// When the header carries an offset table it is verified against the
// parts; otherwise offsets are assigned sequentially. The container is
// never mutated; use Layout.Apply to write the plan back.
func ResolveLayout(c *Container) (Layout, error) {
	if c == nil {
		return Layout{}, ErrNilReader
	}

	if err := validateParts(c.Parts); err != nil {
		return Layout{}, err
	}

	if c.Header.PartOffsets != nil {
		return verifyLayout(&c.Header, c.Parts)
	}

	return autoLayout(&c.Header, c.Parts)
}

// Apply writes the resolved plan into the container header.
func (l Layout) Apply(c *Container) {
	if c == nil {
		return
	}

	offsets := make([]uint32, len(l.Offsets))
	copy(offsets, l.Offsets)

	c.Header.PartOffsets = offsets
	c.Header.FileSize = l.FileSize
}

// layoutStart returns the offset of the first part record: fixed header
// plus the offset table.
func layoutStart(partCount int) uint64 {
	return uint64(headerSize) + uint64(partCount)*offsetEntrySize
}

// validateParts rejects malformed tags and payload/size disagreement
// before any offset arithmetic runs.
func validateParts(parts []Part) error {
	for i := range parts {
		if len(parts[i].Tag) != tagSize {
			return fmt.Errorf("%w: part %d tag %q", ErrInvalidPartTag, i, parts[i].Tag)
		}

		if parts[i].Data != nil && uint64(len(parts[i].Data)) != uint64(parts[i].Size) {
			return fmt.Errorf("%w: part %s payload %d, declared %d",
				ErrPartSizeMismatch, parts[i].Tag, len(parts[i].Data), parts[i].Size)
		}
	}

	return nil
}

// verifyLayout checks a caller-supplied offset table against the parts.
func verifyLayout(h *Header, parts []Part) (Layout, error) {
	if len(parts) != len(h.PartOffsets) {
		return Layout{}, fmt.Errorf("%w: %d parts, %d offsets",
			ErrPartCountMismatch, len(parts), len(h.PartOffsets))
	}

	cursor := layoutStart(len(parts))
	for i := range parts {
		offset := uint64(h.PartOffsets[i])
		if offset < cursor {
			return Layout{}, fmt.Errorf("%w: part %s offset %d, need at least %d",
				ErrPartOffsetTooSmall, parts[i].Tag, offset, cursor)
		}

		cursor = offset + partHeaderSize + uint64(parts[i].Size)
		if cursor > math.MaxUint32 {
			return Layout{}, fmt.Errorf("%w: part %s ends at %d", ErrSizeOverflow, parts[i].Tag, cursor)
		}
	}

	size, err := resolveFileSize(h, uint32(cursor))
	if err != nil {
		return Layout{}, err
	}

	offsets := make([]uint32, len(h.PartOffsets))
	copy(offsets, h.PartOffsets)

	return Layout{Offsets: offsets, FileSize: size}, nil
}

// autoLayout assigns sequential offsets in part order with no gaps.
func autoLayout(h *Header, parts []Part) (Layout, error) {
	cursor := layoutStart(len(parts))
	if cursor > math.MaxUint32 {
		return Layout{}, fmt.Errorf("%w: offset table ends at %d", ErrSizeOverflow, cursor)
	}

	offsets := make([]uint32, 0, len(parts))
	for i := range parts {
		offsets = append(offsets, uint32(cursor))

		cursor += partHeaderSize + uint64(parts[i].Size)
		if cursor > math.MaxUint32 {
			return Layout{}, fmt.Errorf("%w: part %s ends at %d", ErrSizeOverflow, parts[i].Tag, cursor)
		}
	}

	size, err := resolveFileSize(h, uint32(cursor))
	if err != nil {
		return Layout{}, err
	}

	return Layout{Offsets: offsets, FileSize: size}, nil
}

// resolveFileSize reconciles the declared file size with the computed
// minimum. A zero declared size means "use the computed value"; a
// declared size may exceed the minimum (trailing space stays unaccounted).
func resolveFileSize(h *Header, computed uint32) (uint32, error) {
	if h.FileSize == 0 {
		return computed, nil
	}

	if h.FileSize < computed {
		return 0, fmt.Errorf("%w: declared %d, need %d", ErrFileSizeTooSmall, h.FileSize, computed)
	}

	return h.FileSize, nil
}
