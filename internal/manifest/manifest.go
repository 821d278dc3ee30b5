// Package manifest writes a compressed record of every version a purge is
// about to delete, with a blake3 digest so the record can be verified later.
//
// The format is zstd-compressed JSON lines: one Header, then one Entry per
// object version or delete marker. The digest covers the uncompressed lines.
package manifest

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"BucketPurger/internal/purge"
)

// DigestSuffix is appended to the manifest path for the b3sum-style sidecar.
const DigestSuffix = ".b3"

var ErrDigestMismatch = errors.New("manifest digest mismatch")

type Header struct {
	Bucket        string    `json:"bucket"`
	Host          string    `json:"host"`
	CreatedAt     time.Time `json:"created_at"`
	Versions      int       `json:"versions"`
	DeleteMarkers int       `json:"delete_markers"`
	Keys          int       `json:"keys"`
	Bytes         int64     `json:"bytes"`
}

type Entry struct {
	Key          string    `json:"key"`
	VersionID    string    `json:"version_id"`
	DeleteMarker bool      `json:"delete_marker,omitempty"`
	IsLatest     bool      `json:"is_latest,omitempty"`
	Size         int64     `json:"size,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Write streams plan to w and returns the hex digest of the uncompressed content.
func Write(w io.Writer, plan *purge.Plan, host string, now time.Time) (string, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return "", fmt.Errorf("zstd writer: %w", err)
	}
	h := blake3.New()
	enc := json.NewEncoder(io.MultiWriter(zw, h))

	header := Header{
		Bucket:        plan.Bucket,
		Host:          host,
		CreatedAt:     now.UTC(),
		Versions:      plan.Versions,
		DeleteMarkers: plan.DeleteMarkers,
		Keys:          plan.Keys,
		Bytes:         plan.Bytes,
	}
	if err := enc.Encode(header); err != nil {
		_ = zw.Close()
		return "", fmt.Errorf("encode header: %w", err)
	}
	for _, v := range plan.Entries {
		e := Entry{
			Key:          v.Key,
			VersionID:    v.VersionID,
			DeleteMarker: v.DeleteMarker,
			IsLatest:     v.IsLatest,
			Size:         v.Size,
			LastModified: v.LastModified.UTC(),
		}
		if err := enc.Encode(e); err != nil {
			_ = zw.Close()
			return "", fmt.Errorf("encode entry %s: %w", v.Key, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("zstd close: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteFile writes the manifest to path and its digest to path+DigestSuffix.
func WriteFile(path string, plan *purge.Plan, now time.Time) (string, error) {
	host, _ := os.Hostname()
	if host == "" {
		host = "unknown"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create manifest dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("create manifest: %w", err)
	}
	bw := bufio.NewWriter(f)
	digest, err := Write(bw, plan, host, now)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	sidecar := fmt.Sprintf("%s  %s\n", digest, filepath.Base(path))
	if err := os.WriteFile(path+DigestSuffix, []byte(sidecar), 0600); err != nil {
		return "", fmt.Errorf("write digest: %w", err)
	}
	return digest, nil
}

// Read decodes a manifest and returns its content with the recomputed digest.
func Read(r io.Reader) (*Header, []Entry, string, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, "", fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()
	h := blake3.New()
	dec := json.NewDecoder(io.TeeReader(zr, h))

	var header Header
	if err := dec.Decode(&header); err != nil {
		return nil, nil, "", fmt.Errorf("decode header: %w", err)
	}
	var entries []Entry
	for {
		var e Entry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, "", fmt.Errorf("decode entry %d: %w", len(entries), err)
		}
		entries = append(entries, e)
	}
	return &header, entries, hex.EncodeToString(h.Sum(nil)), nil
}

// Verify re-reads path and compares its digest with the sidecar file.
func Verify(path string) (*Header, error) {
	sidecar, err := os.ReadFile(path + DigestSuffix)
	if err != nil {
		return nil, fmt.Errorf("read digest: %w", err)
	}
	fields := strings.Fields(string(sidecar))
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty digest file", ErrDigestMismatch)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	header, _, digest, err := Read(f)
	if err != nil {
		return nil, err
	}
	if digest != fields[0] {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrDigestMismatch, fields[0], digest)
	}
	return header, nil
}
