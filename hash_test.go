// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dxbc

package dxbc

import (
	"crypto/md5"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// md5Digest adapts crypto/md5 to the HashFunc shape for tests.
func md5Digest(r io.Reader) ([16]byte, error) {
	var digest [16]byte

	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return digest, err
	}

	copy(digest[:], h.Sum(nil))

	return digest, nil
}

func TestPatchFileHash(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shader.dxbc")
	c := &Container{
		Header: Header{VersionMajor: 1},
		Parts:  []Part{{Tag: "DXIL", Size: 8, Data: []byte("bytecode")}},
	}
	if err := WriteFile(path, c, WriteOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := PatchFileHash(path, md5Digest); err != nil {
		t.Fatalf("PatchFileHash: %v", err)
	}

	stored, err := ReadFileHash(path)
	if err != nil {
		t.Fatalf("ReadFileHash: %v", err)
	}

	// Recompute over the hashed region (byte 20 to EOF) and compare.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := md5.Sum(raw[hashedRegionStart:])
	if stored != want {
		t.Fatalf("stored digest=%x, want %x", stored, want)
	}

	// Bytes outside the hash field are untouched by the patch.
	if string(raw[0:4]) != Magic {
		t.Fatalf("magic=%q, want %q", raw[0:4], Magic)
	}
	if raw[20] != 1 {
		t.Fatalf("version byte=%d, want 1", raw[20])
	}
}

func TestPatchFileHash_IsStableAcrossRepatches(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shader.dxbc")
	c := &Container{
		Parts: []Part{{Tag: "STAT", Size: 4, Data: []byte("stat")}},
	}
	if err := WriteFile(path, c, WriteOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := PatchFileHash(path, md5Digest); err != nil {
		t.Fatalf("first patch: %v", err)
	}
	first, err := ReadFileHash(path)
	if err != nil {
		t.Fatalf("ReadFileHash: %v", err)
	}

	// The hash field itself is outside the hashed region; repatching is a fixpoint.
	if err := PatchFileHash(path, md5Digest); err != nil {
		t.Fatalf("second patch: %v", err)
	}
	second, err := ReadFileHash(path)
	if err != nil {
		t.Fatalf("ReadFileHash: %v", err)
	}

	if first != second {
		t.Fatalf("digest drifted across repatches: %x vs %x", first, second)
	}
}

func TestPatchFileHash_Errors(t *testing.T) {
	t.Parallel()

	t.Run("nil func", func(t *testing.T) {
		t.Parallel()

		if err := PatchFileHash("whatever", nil); !errors.Is(err, ErrNilHashFunc) {
			t.Fatalf("expected ErrNilHashFunc, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "missing.dxbc")
		if err := PatchFileHash(path, md5Digest); err == nil {
			t.Fatal("patching a missing file must fail")
		}
	})

	t.Run("not a container", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "junk.bin")
		if err := os.WriteFile(path, make([]byte, 64), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		if err := PatchFileHash(path, md5Digest); !errors.Is(err, ErrInvalidHeader) {
			t.Fatalf("expected ErrInvalidHeader, got %v", err)
		}
	})

	t.Run("short file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "short.bin")
		if err := os.WriteFile(path, []byte("DXBC"), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		if err := PatchFileHash(path, md5Digest); !errors.Is(err, ErrInvalidHeader) {
			t.Fatalf("expected ErrInvalidHeader, got %v", err)
		}
	})
}

func TestReadFileHash(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shader.dxbc")
	c := &Container{
		Header: Header{Hash: testHash()},
		Parts:  []Part{{Tag: "DXIL", Size: 2, Data: []byte("ok")}},
	}
	if err := WriteFile(path, c, WriteOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	digest, err := ReadFileHash(path)
	if err != nil {
		t.Fatalf("ReadFileHash: %v", err)
	}
	if digest != testHash() {
		t.Fatalf("digest=%x, want %x", digest, testHash())
	}
}
