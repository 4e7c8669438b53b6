package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Fingerprint identifies the exact bytes a run read from one input.
type Fingerprint struct {
	Location    string    `json:"location"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	Compression string    `json:"compression,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// NewFingerprint fingerprints data, the decoded content read from location.
func NewFingerprint(location, compression string, data []byte, fetchedAt time.Time) Fingerprint {
	sum := sha256.Sum256(data)

	return Fingerprint{
		Location:    location,
		Size:        int64(len(data)),
		SHA256:      hex.EncodeToString(sum[:]),
		Compression: compression,
		FetchedAt:   fetchedAt.UTC(),
	}
}

// Short returns an abbreviated hash for display.
func (f Fingerprint) Short() string {
	if len(f.SHA256) < 12 {
		return f.SHA256
	}

	return f.SHA256[:12]
}

// Same reports whether two fingerprints describe identical content.
func (f Fingerprint) Same(o Fingerprint) bool {
	return f.SHA256 != "" && f.SHA256 == o.SHA256 && f.Size == o.Size
}
