package catalog

import (
	"crypto/md5"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// License names the terms a producer published a source file under.
type License struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url,omitempty"`
}

// Origin is the provenance record of a snapshot: who produced the file,
// where it came from and how to cite it.
type Origin struct {
	Producer      string  `yaml:"producer"`
	Title         string  `yaml:"title"`
	Description   string  `yaml:"description,omitempty"`
	CitationFull  string  `yaml:"citation_full,omitempty"`
	URLMain       string  `yaml:"url_main,omitempty"`
	URLDownload   string  `yaml:"url_download,omitempty"`
	DatePublished string  `yaml:"date_published,omitempty"`
	DateAccessed  string  `yaml:"date_accessed"`
	License       License `yaml:"license"`
}

// Snapshot is the immutable, dated capture of one source file.
type Snapshot struct {
	URI    string `yaml:"uri"`
	MD5    string `yaml:"md5"`
	Size   int64  `yaml:"size"`
	Origin Origin `yaml:"origin"`
}

// ChecksumError reports a file whose content does not match its snapshot
// record.
type ChecksumError struct {
	URI  string
	Want string
	Got  string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: want %s, got %s", e.URI, e.Want, e.Got)
}

// LoadSnapshot reads a snapshot record from YAML.
func LoadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.URI == "" {
		return nil, fmt.Errorf("snapshot has no uri")
	}
	return &s, nil
}

// Encode writes the snapshot record as YAML.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(s)
}

// Sum returns the md5 checksum and size of a file.
func Sum(r io.Reader) (string, int64, error) {
	h := md5.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), n, nil
}

// Verify checks a file against the recorded checksum and size.
func (s *Snapshot) Verify(r io.Reader) error {
	sum, n, err := Sum(r)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", s.URI, err)
	}

	if s.Size != 0 && n != s.Size {
		return fmt.Errorf("size mismatch for %s: want %d bytes, got %d", s.URI, s.Size, n)
	}
	if sum != s.MD5 {
		return &ChecksumError{URI: s.URI, Want: s.MD5, Got: sum}
	}

	return nil
}
