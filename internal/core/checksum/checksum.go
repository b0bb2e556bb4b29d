package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// Algorithm represents the hashing algorithm to use
type Algorithm string

const (
	// MD5 matches what Drive and single-part S3 uploads report
	MD5 Algorithm = "md5"
	// SHA256 for replicas that do not constrain the algorithm
	SHA256 Algorithm = "sha256"
)

// ErrTooLarge is returned when content exceeds Options.MaxSize
var ErrTooLarge = errors.New("content exceeds checksum size limit")

// Options configures the checksum calculator
type Options struct {
	// MaxSize: content larger than this is not checksummed (0 = unlimited)
	MaxSize int64

	// BufferSize: size of buffer for streaming reads
	BufferSize int
}

// DefaultOptions returns the recommended default options
func DefaultOptions() Options {
	return Options{
		MaxSize:    100 * 1024 * 1024, // 100MB
		BufferSize: 32 * 1024,         // 32KB
	}
}

// Calculator computes content checksums
type Calculator interface {
	// Calculate streams reader through the hash, checking ctx between chunks
	Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error)
}

// DefaultCalculator implements Calculator with streaming support
type DefaultCalculator struct {
	opts Options
}

// NewCalculator creates a new calculator with the given options
func NewCalculator(opts Options) *DefaultCalculator {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	return &DefaultCalculator{opts: opts}
}

// NewDefaultCalculator creates a calculator with default options
func NewDefaultCalculator() *DefaultCalculator {
	return NewCalculator(DefaultOptions())
}

// Calculate implements the Calculator interface
func (c *DefaultCalculator) Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}

	if c.opts.MaxSize > 0 {
		reader = io.LimitReader(reader, c.opts.MaxSize+1)
	}

	buffer := make([]byte, c.opts.BufferSize)
	total := int64(0)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			total += int64(n)
			if c.opts.MaxSize > 0 && total > c.opts.MaxSize {
				return "", fmt.Errorf("%w (%d bytes)", ErrTooLarge, c.opts.MaxSize)
			}
			h.Write(buffer[:n])
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// CalculateFile opens path read-only and checksums its content
func (c *DefaultCalculator) CalculateFile(ctx context.Context, path string, algo Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return c.Calculate(ctx, f, algo)
}

// Equal compares two hex digests case-insensitively. Empty digests never match.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

// IsSupported checks if the given algorithm is supported
func IsSupported(algo Algorithm) bool {
	_, err := newHash(algo)
	return err == nil
}

func newHash(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case MD5:
		return md5.New(), nil
	case SHA256:
		return sha256.New(), nil
	}
	return nil, fmt.Errorf("unsupported algorithm: %s", algo)
}
