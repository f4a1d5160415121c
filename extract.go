// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// extractCopyBufferSize defines per-worker buffer size for payload copy.
const extractCopyBufferSize = 64 * 1024

// extractWorkItem stores one selected part with its prepared output name.
type extractWorkItem struct {
	fileName string
	part     PartInfo
}

// Extract writes selected part payloads from the container to dstDir.
// Extraction is parallelized by MaxWorkers; on failure it returns the
// first encountered error.
func (r *Reader) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	if r == nil || r.ra == nil {
		return ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if ctx == nil {
		ctx = context.Background()
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	parts := r.parts
	if opts.Parts != nil {
		parts = opts.Parts
	}

	parts, err := filterPartsByTagRules(parts, opts.TagRules, opts.TagMatcherOptions)
	if err != nil {
		return err
	}

	if len(parts) == 0 {
		return nil
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	workItems := prepareExtractWorkItems(parts)

	taskCh := make(chan extractWorkItem, len(workItems))
	errCh := make(chan error, len(workItems))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			copyBuf := make([]byte, extractCopyBufferSize)
			for task := range taskCh {
				// errCh is buffered for every work item, send never blocks.
				errCh <- r.extractPreparedPart(ctx, dstRootAbs, task, copyBuf, opts.OnPartDone)
			}
		})
	}

	for _, task := range workItems {
		if err := ctx.Err(); err != nil {
			close(taskCh)
			wg.Wait()
			return err
		}

		taskCh <- task
	}

	close(taskCh)
	wg.Wait()
	close(errCh)

	var first error
	for err := range errCh {
		if err != nil && first == nil {
			first = err
		}
	}

	return first
}

// prepareExtractWorkItems derives unique filesystem-safe output names
// from part tags. Repeated tags get numbered suffixes in part order.
func prepareExtractWorkItems(parts []PartInfo) []extractWorkItem {
	seen := make(map[string]int, len(parts))
	workItems := make([]extractWorkItem, 0, len(parts))

	for _, part := range parts {
		base := sanitizePartFileName(part.Tag)
		name := base + ".bin"
		if n := seen[base]; n > 0 {
			name = fmt.Sprintf("%s.%d.bin", base, n)
		}
		seen[base]++

		workItems = append(workItems, extractWorkItem{
			part:     part,
			fileName: name,
		})
	}

	return workItems
}

// extractPreparedPart writes one prepared work item to destination root.
func (r *Reader) extractPreparedPart(
	ctx context.Context,
	dstRootAbs string,
	task extractWorkItem,
	copyBuf []byte,
	onPartDone func(part PartInfo, written int64, outputPath string),
) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	outPath := filepath.Join(dstRootAbs, task.fileName)

	src := r.openPartByInfo(task.part)
	file, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", task.fileName, err)
	}

	written, copyErr := copyExtractData(file, src, copyBuf)
	closeErr := file.Close()
	if copyErr != nil {
		return fmt.Errorf("write %s: %w", task.fileName, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", task.fileName, closeErr)
	}

	if onPartDone != nil {
		onPartDone(task.part, written, outPath)
	}

	return nil
}

// copyExtractData copies one payload stream to output file using fixed worker buffer.
func copyExtractData(dst *os.File, src io.Reader, buf []byte) (int64, error) {
	if len(buf) == 0 {
		return 0, io.ErrShortBuffer
	}

	var total int64
	for {
		readN, readErr := src.Read(buf)
		if readN > 0 {
			writeN, writeErr := dst.Write(buf[:readN])
			total += int64(writeN)

			if writeErr != nil {
				return total, writeErr
			}

			if writeN != readN {
				return total, io.ErrShortWrite
			}
		}

		if readErr == nil {
			continue
		}

		if readErr == io.EOF {
			return total, nil
		}

		return total, readErr
	}
}

// sanitizePartFileName maps a raw 4-byte tag to a filesystem-safe base name.
// Tags can contain arbitrary bytes; anything outside [A-Za-z0-9_-] becomes '_'.
func sanitizePartFileName(tag string) string {
	var b strings.Builder
	b.Grow(len(tag))

	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}

	if b.Len() == 0 {
		return "part"
	}

	return b.String()
}
