package source

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

// Compression names as recorded in fingerprints.
const (
	CompressionNone  = ""
	CompressionGzip  = "gzip"
	CompressionBzip2 = "bzip2"
	CompressionXZ    = "xz"
)

var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// detectCompression identifies the compression of a stream from its first bytes.
func detectCompression(header []byte) string {
	switch {
	case len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		return CompressionGzip
	case len(header) >= 3 && header[0] == 'B' && header[1] == 'Z' && header[2] == 'h':
		return CompressionBzip2
	case bytes.HasPrefix(header, xzMagic):
		return CompressionXZ
	default:
		return CompressionNone
	}
}

// decompress reads all of r, transparently decoding gzip, bzip2 or xz. At most
// limit decoded bytes are returned; limit <= 0 means no limit.
func decompress(r io.Reader, limit int64) ([]byte, string, error) {
	br := bufio.NewReader(r)

	header, err := br.Peek(len(xzMagic))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", fmt.Errorf("peeking header: %w", err)
	}

	kind := detectCompression(header)

	var reader io.Reader = br

	switch kind {
	case CompressionGzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, kind, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gzr.Close()

		reader = gzr
	case CompressionBzip2:
		bzr, err := bzip2.NewReader(br, nil)
		if err != nil {
			return nil, kind, fmt.Errorf("creating bzip2 reader: %w", err)
		}
		defer bzr.Close()

		reader = bzr
	case CompressionXZ:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, kind, fmt.Errorf("creating xz reader: %w", err)
		}

		reader = xzr
	}

	if limit > 0 {
		reader = io.LimitReader(reader, limit+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, kind, fmt.Errorf("decoding %s input: %w", describe(kind), err)
	}

	if limit > 0 && int64(len(data)) > limit {
		return nil, kind, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}

	return data, kind, nil
}

func describe(kind string) string {
	if kind == CompressionNone {
		return "plain"
	}

	return kind
}
