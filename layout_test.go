// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"errors"
	"math"
	"testing"
)

func TestResolveLayout_AutoSequential(t *testing.T) {
	t.Parallel()

	c := &Container{
		Parts: []Part{
			{Tag: "AAAA", Size: 4},
			{Tag: "BBBB", Size: 8},
		},
	}

	layout, err := ResolveLayout(c)
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}

	wantOffsets := []uint32{40, 52}
	if len(layout.Offsets) != len(wantOffsets) {
		t.Fatalf("len(offsets)=%d, want %d", len(layout.Offsets), len(wantOffsets))
	}
	for i, want := range wantOffsets {
		if layout.Offsets[i] != want {
			t.Fatalf("offsets[%d]=%d, want %d", i, layout.Offsets[i], want)
		}
	}
	if layout.FileSize != 68 {
		t.Fatalf("file_size=%d, want 68", layout.FileSize)
	}

	// Resolve is pure; the header stays untouched until Apply.
	if c.Header.PartOffsets != nil {
		t.Fatal("resolve must not mutate header offsets")
	}
	if c.Header.FileSize != 0 {
		t.Fatal("resolve must not mutate header file size")
	}
}

func TestResolveLayout_AutoChainsSizes(t *testing.T) {
	t.Parallel()

	sizes := []uint32{0, 1, 17, 4096, 3}
	parts := make([]Part, 0, len(sizes))
	for _, s := range sizes {
		parts = append(parts, Part{Tag: "PRTX", Size: s})
	}

	c := &Container{Parts: parts}
	layout, err := ResolveLayout(c)
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}

	cursor := uint32(headerSize + offsetEntrySize*len(parts))
	for i, s := range sizes {
		if layout.Offsets[i] != cursor {
			t.Fatalf("offsets[%d]=%d, want %d", i, layout.Offsets[i], cursor)
		}

		cursor += partHeaderSize + s
	}
	if layout.FileSize != cursor {
		t.Fatalf("file_size=%d, want %d", layout.FileSize, cursor)
	}
}

func TestResolveLayout_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	c := &Container{
		Parts: []Part{
			{Tag: "AAAA", Size: 4},
			{Tag: "BBBB", Size: 8},
		},
	}

	layout, err := ResolveLayout(c)
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}
	layout.Apply(c)

	// Re-feeding the computed table and size must verify with no change.
	verified, err := ResolveLayout(c)
	if err != nil {
		t.Fatalf("ResolveLayout verify: %v", err)
	}

	if verified.FileSize != layout.FileSize {
		t.Fatalf("verified file_size=%d, want %d", verified.FileSize, layout.FileSize)
	}
	for i := range layout.Offsets {
		if verified.Offsets[i] != layout.Offsets[i] {
			t.Fatalf("verified offsets[%d]=%d, want %d", i, verified.Offsets[i], layout.Offsets[i])
		}
	}
}

func TestResolveLayout_CountMismatch(t *testing.T) {
	t.Parallel()

	c := &Container{
		Header: Header{PartOffsets: []uint32{40}},
		Parts: []Part{
			{Tag: "AAAA", Size: 4},
			{Tag: "BBBB", Size: 8},
		},
	}

	if _, err := ResolveLayout(c); !errors.Is(err, ErrPartCountMismatch) {
		t.Fatalf("expected ErrPartCountMismatch, got %v", err)
	}

	// An empty supplied table against a non-empty part list fails the same way.
	c.Header.PartOffsets = []uint32{}
	if _, err := ResolveLayout(c); !errors.Is(err, ErrPartCountMismatch) {
		t.Fatalf("expected ErrPartCountMismatch for empty table, got %v", err)
	}
}

func TestResolveLayout_OffsetTooSmall(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		offsets []uint32
	}{
		{name: "first before table end", offsets: []uint32{39, 52}},
		{name: "second overlaps first", offsets: []uint32{40, 51}},
		{name: "non-monotonic", offsets: []uint32{60, 40}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := &Container{
				Header: Header{PartOffsets: tc.offsets},
				Parts: []Part{
					{Tag: "AAAA", Size: 4},
					{Tag: "BBBB", Size: 8},
				},
			}

			if _, err := ResolveLayout(c); !errors.Is(err, ErrPartOffsetTooSmall) {
				t.Fatalf("expected ErrPartOffsetTooSmall, got %v", err)
			}
		})
	}
}

func TestResolveLayout_DeclaredSize(t *testing.T) {
	t.Parallel()

	newContainer := func(fileSize uint32) *Container {
		return &Container{
			Header: Header{FileSize: fileSize},
			Parts: []Part{
				{Tag: "AAAA", Size: 4},
				{Tag: "BBBB", Size: 8},
			},
		}
	}

	t.Run("one byte short fails", func(t *testing.T) {
		t.Parallel()

		if _, err := ResolveLayout(newContainer(67)); !errors.Is(err, ErrFileSizeTooSmall) {
			t.Fatalf("expected ErrFileSizeTooSmall, got %v", err)
		}
	})

	t.Run("exact passes unchanged", func(t *testing.T) {
		t.Parallel()

		layout, err := ResolveLayout(newContainer(68))
		if err != nil {
			t.Fatalf("ResolveLayout: %v", err)
		}
		if layout.FileSize != 68 {
			t.Fatalf("file_size=%d, want 68", layout.FileSize)
		}
	})

	t.Run("larger passes unchanged", func(t *testing.T) {
		t.Parallel()

		layout, err := ResolveLayout(newContainer(1024))
		if err != nil {
			t.Fatalf("ResolveLayout: %v", err)
		}
		if layout.FileSize != 1024 {
			t.Fatalf("file_size=%d, want 1024", layout.FileSize)
		}
	})
}

func TestResolveLayout_VerifyWithGapsValidatesSize(t *testing.T) {
	t.Parallel()

	// Gapped table: part 2 starts 12 bytes past the minimum.
	c := &Container{
		Header: Header{PartOffsets: []uint32{40, 64}},
		Parts: []Part{
			{Tag: "AAAA", Size: 4},
			{Tag: "BBBB", Size: 8},
		},
	}

	layout, err := ResolveLayout(c)
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}

	if layout.FileSize != 80 {
		t.Fatalf("file_size=%d, want 80", layout.FileSize)
	}
}

func TestResolveLayout_InputValidation(t *testing.T) {
	t.Parallel()

	t.Run("short tag", func(t *testing.T) {
		t.Parallel()

		c := &Container{Parts: []Part{{Tag: "AB", Size: 1}}}
		if _, err := ResolveLayout(c); !errors.Is(err, ErrInvalidPartTag) {
			t.Fatalf("expected ErrInvalidPartTag, got %v", err)
		}
	})

	t.Run("payload size disagreement", func(t *testing.T) {
		t.Parallel()

		c := &Container{Parts: []Part{{Tag: "AAAA", Size: 4, Data: []byte("abc")}}}
		if _, err := ResolveLayout(c); !errors.Is(err, ErrPartSizeMismatch) {
			t.Fatalf("expected ErrPartSizeMismatch, got %v", err)
		}
	})

	t.Run("empty payload with zero size passes", func(t *testing.T) {
		t.Parallel()

		c := &Container{Parts: []Part{{Tag: "AAAA", Size: 0, Data: []byte{}}}}
		if _, err := ResolveLayout(c); err != nil {
			t.Fatalf("ResolveLayout: %v", err)
		}
	})

	t.Run("uint32 overflow", func(t *testing.T) {
		t.Parallel()

		c := &Container{Parts: []Part{
			{Tag: "AAAA", Size: math.MaxUint32},
			{Tag: "BBBB", Size: math.MaxUint32},
		}}
		if _, err := ResolveLayout(c); !errors.Is(err, ErrSizeOverflow) {
			t.Fatalf("expected ErrSizeOverflow, got %v", err)
		}
	})

	t.Run("nil container", func(t *testing.T) {
		t.Parallel()

		if _, err := ResolveLayout(nil); !errors.Is(err, ErrNilReader) {
			t.Fatalf("expected ErrNilReader, got %v", err)
		}
	})
}

func TestResolveLayout_EmptyContainer(t *testing.T) {
	t.Parallel()

	c := &Container{}
	layout, err := ResolveLayout(c)
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}

	if len(layout.Offsets) != 0 {
		t.Fatalf("len(offsets)=%d, want 0", len(layout.Offsets))
	}
	if layout.FileSize != headerSize {
		t.Fatalf("file_size=%d, want %d", layout.FileSize, headerSize)
	}
}

func TestLayoutApply(t *testing.T) {
	t.Parallel()

	c := &Container{
		Parts: []Part{{Tag: "DXIL", Size: 16}},
	}

	layout, err := ResolveLayout(c)
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}
	layout.Apply(c)

	if c.Header.FileSize != layout.FileSize {
		t.Fatalf("applied file_size=%d, want %d", c.Header.FileSize, layout.FileSize)
	}
	if len(c.Header.PartOffsets) != 1 || c.Header.PartOffsets[0] != layout.Offsets[0] {
		t.Fatalf("applied offsets=%v, want %v", c.Header.PartOffsets, layout.Offsets)
	}

	// Apply copies the offsets; mutating the plan must not reach the header.
	layout.Offsets[0] = 9999
	if c.Header.PartOffsets[0] == 9999 {
		t.Fatal("Apply must copy offsets instead of sharing the slice")
	}
}
