// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Editor accumulates container edit operations and applies them on Commit.
// Staged operations are keyed by part tag; containers with repeated tags
// are rejected at commit time.
type Editor struct {
	path string
	ops  []editOperation
	opts EditOptions
}

// editOperation stores one staged editor operation.
type editOperation struct {
	parts []Part
	tags  []string
	kind  editOperationKind
}

// editOperationKind identifies staged edit action type.
type editOperationKind uint8

const (
	// editOperationAdd appends new parts and fails on existing tag.
	editOperationAdd editOperationKind = iota + 1
	// editOperationReplace rewrites existing parts.
	editOperationReplace
	// editOperationRemove removes parts by exact tag.
	editOperationRemove
)

// OpenEditor creates a staged editor for file-based container rewrite workflow.
func OpenEditor(path string, opts EditOptions) (*Editor, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidHeader)
	}

	opts.applyDefaults()

	return &Editor{
		path: trimmedPath,
		opts: opts,
		ops:  make([]editOperation, 0, 8),
	}, nil
}

// Add schedules adding new parts and fails on tag collision during commit.
func (e *Editor) Add(parts ...Part) error {
	if e == nil {
		return ErrNilReader
	}

	if err := validateParts(parts); err != nil {
		return err
	}

	if len(parts) == 0 {
		return nil
	}

	e.ops = append(e.ops, editOperation{
		kind:  editOperationAdd,
		parts: clonePartList(parts),
	})

	return nil
}

// Replace schedules replacing existing parts.
func (e *Editor) Replace(parts ...Part) error {
	if e == nil {
		return ErrNilReader
	}

	if err := validateParts(parts); err != nil {
		return err
	}

	if len(parts) == 0 {
		return nil
	}

	e.ops = append(e.ops, editOperation{
		kind:  editOperationReplace,
		parts: clonePartList(parts),
	})

	return nil
}

// Remove schedules exact-tag removal.
func (e *Editor) Remove(tags ...string) error {
	if e == nil {
		return ErrNilReader
	}

	for _, tag := range tags {
		if len(tag) != tagSize {
			return fmt.Errorf("%w: %q", ErrInvalidPartTag, tag)
		}
	}

	if len(tags) == 0 {
		return nil
	}

	e.ops = append(e.ops, editOperation{
		kind: editOperationRemove,
		tags: append([]string(nil), tags...),
	})

	return nil
}

// Commit applies all staged operations in one rewrite transaction.
// The edited container is re-encoded with a fresh auto layout.
func (e *Editor) Commit(ctx context.Context) error {
	if e == nil {
		return ErrNilReader
	}

	if ctx == nil {
		ctx = context.Background()
	}

	backupPath := e.path + ".bak"
	if err := prepareBackupSlot(backupPath, e.opts.BackupKeep); err != nil {
		return err
	}

	if err := os.Rename(e.path, backupPath); err != nil {
		return fmt.Errorf("move container to backup: %w", err)
	}

	if err := e.commitFromBackup(ctx, backupPath); err != nil {
		rollbackErr := rollbackFromBackup(e.path, backupPath)
		if rollbackErr != nil {
			return fmt.Errorf("%v (rollback failed: %v)", err, rollbackErr)
		}

		return err
	}

	if e.opts.BackupKeep == 0 {
		if err := removeIfExists(backupPath); err != nil {
			return fmt.Errorf("remove backup: %w", err)
		}
	}

	return nil
}

// commitFromBackup writes the edited container from backup source.
func (e *Editor) commitFromBackup(ctx context.Context, backupPath string) error {
	srcReader, err := Open(backupPath)
	if err != nil {
		return fmt.Errorf("parse backup: %w", err)
	}
	defer func() { _ = srcReader.Close() }()

	parts, err := buildEditPlan(ctx, srcReader, e.ops)
	if err != nil {
		return err
	}

	edited := &Container{
		Header: Header{
			Hash:         srcReader.header.Hash,
			VersionMajor: srcReader.header.VersionMajor,
			VersionMinor: srcReader.header.VersionMinor,
			// Offsets and size are recomputed for the edited part set.
		},
		Parts: parts,
	}

	return WriteFile(e.path, edited, e.opts.WriteOptions)
}

// buildEditPlan applies staged operations to source parts and builds the
// final part list. Source order is preserved; added parts append in
// staged order.
func buildEditPlan(ctx context.Context, src *Reader, ops []editOperation) ([]Part, error) {
	order := make([]string, 0, len(src.parts))
	state := make(map[string]Part, len(src.parts))

	for _, info := range src.parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, exists := state[info.Tag]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePartTag, info.Tag)
		}

		data, err := src.ReadPart(info.Tag)
		if err != nil {
			return nil, fmt.Errorf("read source part %s: %w", info.Tag, err)
		}

		order = append(order, info.Tag)
		state[info.Tag] = Part{Tag: info.Tag, Size: info.Size, Data: data}
	}

	for _, op := range ops {
		switch op.kind {
		case editOperationAdd:
			added, err := applyEditAdd(state, op.parts)
			if err != nil {
				return nil, err
			}

			order = append(order, added...)
		case editOperationReplace:
			if err := applyEditReplace(state, op.parts); err != nil {
				return nil, err
			}
		case editOperationRemove:
			for _, tag := range op.tags {
				delete(state, tag)
			}
		default:
			return nil, fmt.Errorf("unknown edit operation kind: %d", op.kind)
		}
	}

	plan := make([]Part, 0, len(state))
	for _, tag := range order {
		part, alive := state[tag]
		if !alive {
			continue
		}

		plan = append(plan, part)
	}

	return plan, nil
}

// applyEditAdd adds new parts and fails on existing tags.
func applyEditAdd(state map[string]Part, parts []Part) ([]string, error) {
	added := make([]string, 0, len(parts))
	for _, part := range parts {
		if _, exists := state[part.Tag]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePartTag, part.Tag)
		}

		state[part.Tag] = part
		added = append(added, part.Tag)
	}

	return added, nil
}

// applyEditReplace replaces existing parts and fails on missing tags.
func applyEditReplace(state map[string]Part, parts []Part) error {
	for _, part := range parts {
		if _, exists := state[part.Tag]; !exists {
			return fmt.Errorf("%w: %q", ErrPartNotFound, part.Tag)
		}

		state[part.Tag] = part
	}

	return nil
}

// clonePartList copies staged parts so later caller mutation cannot leak in.
func clonePartList(parts []Part) []Part {
	out := make([]Part, len(parts))
	for i := range parts {
		out[i] = parts[i]
		if parts[i].Data != nil {
			out[i].Data = append([]byte(nil), parts[i].Data...)
		}
	}

	return out
}

// prepareBackupSlot rotates/removes existing backup generations before new commit.
func prepareBackupSlot(backupPath string, keep int) error {
	if keep < 0 {
		keep = 0
	}

	switch keep {
	case 0, 1:
		return removeIfExists(backupPath)
	default:
		oldest := fmt.Sprintf("%s.%d", backupPath, keep-1)
		if err := removeIfExists(oldest); err != nil {
			return err
		}

		for i := keep - 2; i >= 1; i-- {
			from := fmt.Sprintf("%s.%d", backupPath, i)
			to := fmt.Sprintf("%s.%d", backupPath, i+1)
			if err := renameIfExists(from, to); err != nil {
				return err
			}
		}

		return renameIfExists(backupPath, backupPath+".1")
	}
}

// renameIfExists renames source to destination when source exists.
func renameIfExists(from string, to string) error {
	_, err := os.Stat(from)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", from, err)
	}

	if err := removeIfExists(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}

	return nil
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return fmt.Errorf("remove %s: %w", path, err)
}

// rollbackFromBackup restores backup on failed commit.
func rollbackFromBackup(path string, backupPath string) error {
	_ = os.Remove(path)

	if err := os.Rename(backupPath, path); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	return nil
}
