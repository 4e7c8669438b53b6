// Package metadata fingerprints run inputs and signs rendered reports.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// TagStart is the start of the metadata block.
	TagStart = "<!-- SHOWLIST_REPORT"
	// TagEnd is the end of the metadata block.
	TagEnd = "SHOWLIST_REPORT -->"
)

// Metadata verification errors.
var (
	ErrNoMetadataBlock = errors.New("no metadata block found")
	ErrNoHashFound     = errors.New("no hash found in metadata")
	ErrHashMismatch    = errors.New("hash mismatch")
)

// Metadata is the signature block appended to a report.
type Metadata struct {
	RunID       string
	GeneratedAt time.Time
	Hash        string
}

// metadataRegex matches the entire metadata block including tags.
var metadataRegex = regexp.MustCompile(`(?s)\n*<!--\s*SHOWLIST_REPORT\s*\n(.*?)\n\s*SHOWLIST_REPORT\s*-->\n*`)

// Extract removes the metadata block from content and returns both the
// metadata and the cleaned content. The cleaned content is what gets hashed.
func Extract(content string) (*Metadata, string) {
	match := metadataRegex.FindStringSubmatch(content)
	clean := strings.TrimRight(metadataRegex.ReplaceAllString(content, "\n"), "\n")

	if len(match) < 2 {
		return nil, clean
	}

	meta := &Metadata{}

	for line := range strings.SplitSeq(match[1], "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		val = strings.TrimSpace(val)

		switch strings.TrimSpace(key) {
		case "RUN_ID":
			meta.RunID = val
		case "GENERATED_AT":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.GeneratedAt = t
			}
		case "HASH":
			meta.Hash = val
		}
	}

	return meta, clean
}

// CalculateHash computes the SHA-256 hash of the content, excluding any metadata block.
func CalculateHash(content string) string {
	_, clean := Extract(content)
	hash := sha256.Sum256([]byte(clean))

	return hex.EncodeToString(hash[:])
}

// Sign replaces any metadata block on content with a fresh one.
func Sign(content, runID string, at time.Time) string {
	_, clean := Extract(content)

	block := fmt.Sprintf("\n\n%s\nRUN_ID: %s\nGENERATED_AT: %s\nHASH: %s\n%s\n",
		TagStart, runID, at.UTC().Format(time.RFC3339), CalculateHash(clean), TagEnd)

	return clean + block
}

// Verify checks that content matches the hash in its metadata block.
func Verify(content string) (*Metadata, error) {
	meta, clean := Extract(content)
	if meta == nil {
		return nil, ErrNoMetadataBlock
	}

	if meta.Hash == "" {
		return meta, ErrNoHashFound
	}

	if calculated := CalculateHash(clean); calculated != meta.Hash {
		return meta, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return meta, nil
}
