// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"encoding/binary"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout constants.
const (
	// Magic is the 4-byte container signature.
	Magic = "DXBC"
	// headerSize is the fixed container header size in bytes.
	headerSize = 32
	// partHeaderSize is the per-part record header size (tag + size).
	partHeaderSize = 8
	// hashSize is the content digest size stored in the header.
	hashSize = 16
	// tagSize is the part name tag length in bytes.
	tagSize = 4
	// offsetEntrySize is one offset table entry size in bytes.
	offsetEntrySize = 4
	// hashedRegionStart is the first byte covered by the header digest.
	hashedRegionStart = 20
	// hashFieldOffset is where the 16-byte digest lives in the header.
	hashFieldOffset = 4
)

// Default writer tuning values.
const (
	DefaultWriteBuffer = 256 * 1024
)

// Well-known part tags.
const (
	// TagDXIL marks the DXIL bytecode part.
	TagDXIL = "DXIL"
	// TagSFI0 marks the shader feature info part.
	TagSFI0 = "SFI0"
	// TagHASH marks the shader hash part.
	TagHASH = "HASH"
	// TagISG1 marks the input signature part.
	TagISG1 = "ISG1"
	// TagOSG1 marks the output signature part.
	TagOSG1 = "OSG1"
	// TagPSG1 marks the patch constant signature part.
	TagPSG1 = "PSG1"
	// TagPSV0 marks the pipeline state validation part.
	TagPSV0 = "PSV0"
	// TagRTS0 marks the root signature part.
	TagRTS0 = "RTS0"
	// TagSTAT marks the shader statistics part.
	TagSTAT = "STAT"
	// TagILDB marks the embedded debug info part.
	TagILDB = "ILDB"
	// TagILDN marks the debug name part.
	TagILDN = "ILDN"
	// TagSRCI marks the source info part.
	TagSRCI = "SRCI"
)

// Header describes the fixed container header fields.
// Magic and part count are format-derived and not stored here.
type Header struct {
	// PartOffsets is the part offset table; nil means "compute on write".
	PartOffsets []uint32 `json:"part_offsets,omitempty" yaml:"part_offsets,omitempty"`
	// Hash is the 16-byte content digest copied verbatim to the wire.
	Hash [16]byte `json:"hash" yaml:"hash"`
	// FileSize is the declared total container size; 0 means "compute on write".
	FileSize uint32 `json:"file_size,omitempty" yaml:"file_size,omitempty"`
	// VersionMajor is the container major version.
	VersionMajor uint16 `json:"version_major" yaml:"version_major"`
	// VersionMinor is the container minor version.
	VersionMinor uint16 `json:"version_minor" yaml:"version_minor"`
}

// Part is one named, sized block inside the container.
type Part struct {
	// Tag is the 4-byte part name written verbatim to the wire.
	Tag string `json:"tag" yaml:"tag"`
	// Data is optional payload; when set its length must equal Size.
	Data []byte `json:"-" yaml:"-"`
	// Size is the declared payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
}

// Container owns one header and an ordered part sequence.
// Write back-fills Header.PartOffsets and Header.FileSize on success.
type Container struct {
	Header Header `json:"header" yaml:"header"`
	Parts  []Part `json:"parts" yaml:"parts"`
}

// PartInfo describes a single parsed part record.
type PartInfo struct {
	// Tag is the part name as stored on the wire.
	Tag string `json:"tag" yaml:"tag"`
	// Offset is the absolute byte offset of the part record.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is the declared payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
}

// PartProgress contains one completed part write event from the emit flow.
type PartProgress struct {
	// Tag is the part name written to the container.
	Tag string `json:"tag" yaml:"tag"`
	// Offset is the resolved part record offset.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is the declared payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// Padding is the number of zero fill bytes emitted before the record.
	Padding uint32 `json:"padding,omitempty" yaml:"padding,omitempty"`
	// PayloadWritten reports whether payload bytes followed the part header.
	PayloadWritten bool `json:"payload_written,omitempty" yaml:"payload_written,omitempty"`
}

// WriteOptions configures emit behavior.
type WriteOptions struct {
	// ByteOrder is the wire byte order for multi-byte fields.
	// Default is little-endian regardless of host order.
	ByteOrder binary.ByteOrder `json:"-" yaml:"-"`
	// OnPartDone is called after one part record is fully written.
	OnPartDone func(part PartProgress) `json:"-" yaml:"-"`
	// WriterBufferSize is buffered writer size in bytes.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
}

// ReaderOptions configures parse compatibility behavior.
type ReaderOptions struct {
	// ByteOrder is the wire byte order for multi-byte fields.
	// Default is little-endian regardless of host order.
	ByteOrder binary.ByteOrder `json:"-" yaml:"-"`
	// TagRules defines ordered rules selecting visible parts by tag.
	// Empty rule set keeps all parts.
	TagRules []pathrules.Rule `json:"tag_rules,omitempty" yaml:"tag_rules,omitempty"`
	// TagMatcherOptions control tag rule matching.
	TagMatcherOptions pathrules.MatcherOptions `json:"tag_matcher_options,omitzero" yaml:"tag_matcher_options,omitzero"`
	// AllowTruncatedPayloads accepts containers whose declared file size
	// extends past the stored bytes (header-only emitter output).
	AllowTruncatedPayloads bool `json:"allow_truncated_payloads,omitempty" yaml:"allow_truncated_payloads,omitempty"`
	// SkipMalformedParts drops out-of-bounds part records from the visible
	// part list instead of failing the parse.
	SkipMalformedParts bool `json:"skip_malformed_parts,omitempty" yaml:"skip_malformed_parts,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnPartDone is called after one part payload is fully written to disk.
	OnPartDone func(part PartInfo, written int64, outputPath string) `json:"-" yaml:"-"`
	// TagRules limits extraction to parts selected by tag rules; empty keeps all.
	TagRules []pathrules.Rule `json:"tag_rules,omitempty" yaml:"tag_rules,omitempty"`
	// TagMatcherOptions control tag rule matching.
	TagMatcherOptions pathrules.MatcherOptions `json:"tag_matcher_options,omitzero" yaml:"tag_matcher_options,omitzero"`
	// Parts limits extraction to selected metadata list; nil means all parsed parts.
	Parts []PartInfo `json:"-" yaml:"-"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
}

// EditOptions configures file-based container edit flow.
type EditOptions struct {
	// WriteOptions are applied when the edited container is re-encoded.
	WriteOptions WriteOptions `json:"write_options,omitzero" yaml:"write_options,omitzero"`
	// BackupKeep controls how many backup generations are kept after successful commit.
	// 0 means remove backup, 1 keeps only `<file>.bak`, N keeps `.bak` + `.bak.1..N-1`.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// applyDefaults fills zero-valued write options with defaults.
func (opts *WriteOptions) applyDefaults() {
	if opts.ByteOrder == nil {
		opts.ByteOrder = binary.LittleEndian
	}

	if opts.WriterBufferSize < 4096 {
		opts.WriterBufferSize = DefaultWriteBuffer
	}
}

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	if opts.ByteOrder == nil {
		opts.ByteOrder = binary.LittleEndian
	}

	if opts.TagMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.TagMatcherOptions = pathrules.MatcherOptions{
			DefaultAction: pathrules.ActionExclude,
		}
	}

	if opts.TagMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.TagMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}

// applyDefaults fills zero-valued edit options with defaults.
func (opts *EditOptions) applyDefaults() {
	opts.WriteOptions.applyDefaults()

	if opts.BackupKeep < 0 {
		opts.BackupKeep = 0
	}
}
