// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

/*
Package dxbc encodes, reads, extracts, and edits DXBC shader containers:
a fixed 32-byte header with a 16-byte content digest, a part offset table,
and a flat sequence of named, sized parts ("DXIL", "ISG1", ...).

Layout rules (summary):
  - parts are placed strictly in list order, first record at 32 + 4*n;
  - a caller-supplied offset table is verified instead of recomputed;
  - gaps in a verified table become zero fill, auto layout never adds gaps;
  - a declared file size smaller than the layout minimum is rejected;
  - all multi-byte fields use the configured wire order (default
    little-endian), tags and the digest are written verbatim.

# Writing

Encode a container with automatic layout:

	c := &dxbc.Container{
	    Header: dxbc.Header{VersionMajor: 1},
	    Parts: []dxbc.Part{
	        {Tag: dxbc.TagDXIL, Size: uint32(len(code)), Data: code},
	        {Tag: dxbc.TagSFI0, Size: 8, Data: flags},
	    },
	}
	if err := dxbc.Write(out, c); err != nil {
	    return err
	}
	// c.Header.PartOffsets and c.Header.FileSize are now populated.

Parts without payload bytes produce a header-only record; the declared
size still reserves room in the layout. To verify an existing layout
instead, pre-fill Header.PartOffsets and Header.FileSize before Write.

To inspect a layout without writing:

	layout, err := dxbc.ResolveLayout(c)
	if err != nil {
	    return err
	}
	_ = layout.FileSize

To write to a path with sync-and-close handling:

	err := dxbc.WriteFile("shader.dxbc", c, dxbc.WriteOptions{})

# Reading

Open a container and read parts:

	r, err := dxbc.Open("shader.dxbc")
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, p := range r.Parts() {
	    data, _ := r.ReadPart(p.Tag)
	    // use data
	}

For metadata-only scans, use fast helpers without creating a full reader:

	header, err := dxbc.ReadContainerHeader("shader.dxbc")
	if err != nil {
	    return err
	}
	parts, err := dxbc.ListParts("shader.dxbc")
	if err != nil {
	    return err
	}
	_, _ = header, parts

To select parts by tag rules (github.com/woozymasta/pathrules):

	parts, err := dxbc.ListPartsWithOptions("shader.dxbc", dxbc.ReaderOptions{
	    TagRules: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "?SG1"},
	    },
	})

# Extracting

Extract part payloads to a directory (parallel workers):

	if err := r.Extract(ctx, "out/", dxbc.ExtractOptions{MaxWorkers: 4}); err != nil {
	    return err
	}

Each part lands in a file named from its sanitized tag (DXIL.bin);
repeated tags get numbered suffixes.

# Editing

Edit an existing container in one transaction:

	editor, err := dxbc.OpenEditor("shader.dxbc", dxbc.EditOptions{BackupKeep: 1})
	if err != nil {
	    return err
	}
	if err := editor.Replace(dxbc.Part{
	    Tag:  dxbc.TagRTS0,
	    Size: uint32(len(rootSig)),
	    Data: rootSig,
	}); err != nil {
	    return err
	}
	if err := editor.Commit(ctx); err != nil {
	    return err
	}

# Header digest

The digest algorithm belongs to the producing toolchain; the package only
patches the header field over the hashed region (byte 20 to EOF):

	err := dxbc.PatchFileHash("shader.dxbc", myDigestFunc)
*/
package dxbc
