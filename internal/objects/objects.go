// Package objects stores and restores the per-commit copies of file content.
//
// Content is kept either verbatim or as a zstd stream. The content hash
// recorded in a commit always refers to the raw bytes.
package objects

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/javanhut/cvs/internal/fsadapter"
)

// Compression selects how stored content is encoded.
type Compression string

const (
	CompressNone Compression = ""
	CompressZstd Compression = "zstd"
)

// ParseCompression maps a settings value to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressNone, nil
	case "zstd":
		return CompressZstd, nil
	default:
		return CompressNone, fmt.Errorf("unknown compression %q (expected none or zstd)", s)
	}
}

// StoredName returns the storage file name for a working-tree file name.
func (c Compression) StoredName(name string) string {
	if c == CompressZstd {
		return name + ".zst"
	}
	return name
}

// Store copies src into dst, encoding it with c.
func Store(fs *fsadapter.Adapter, src, dst string, c Compression) error {
	switch c {
	case CompressNone:
		return fs.CopyFile(src, dst)
	case CompressZstd:
		in, err := fs.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()

		return fs.WriteStream(dst, func(w io.Writer) error {
			enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
			if err != nil {
				return fmt.Errorf("zstd writer: %w", err)
			}
			if _, err := io.Copy(enc, in); err != nil {
				enc.Close()
				return fmt.Errorf("zstd write: %w", err)
			}
			if err := enc.Close(); err != nil {
				return fmt.Errorf("zstd close: %w", err)
			}
			return nil
		})
	default:
		return fmt.Errorf("unknown compression %q", c)
	}
}

// Restore decodes stored content at src into the working-tree file dst.
func Restore(fs *fsadapter.Adapter, src, dst string, c Compression) error {
	switch c {
	case CompressNone:
		return fs.CopyFile(src, dst)
	case CompressZstd:
		in, err := fs.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()

		dec, err := zstd.NewReader(in)
		if err != nil {
			return fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()

		return fs.WriteStream(dst, func(w io.Writer) error {
			if _, err := io.Copy(w, dec); err != nil {
				return fmt.Errorf("read zstd payload: %w", err)
			}
			return nil
		})
	default:
		return fmt.Errorf("unknown compression %q", c)
	}
}
