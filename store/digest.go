package store

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Subresource-integrity style algorithm names, accepted case-insensitively
// as caller-supplied IntegrityOptions.Algorithm.
const (
	AlgoSHA256   = "sha256"
	AlgoSHA384   = "sha384"
	AlgoSHA512   = "sha512"
	AlgoBLAKE2b  = "blake2b-256"
)

// NewHash returns a hash.Hash for the named algorithm, for callers (such
// as the tee package) that need to build their own verifier rather than
// go through DigestReader.
func NewHash(algorithm string) (hash.Hash, error) {
	return newHash(algorithm)
}

func newHash(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case AlgoSHA256:
		return sha256.New(), nil
	case AlgoSHA384:
		return sha512.New384(), nil
	case AlgoSHA512:
		return sha512.New(), nil
	case AlgoBLAKE2b:
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("store: unsupported digest algorithm %q", algorithm)
	}
}

// DigestReader computes a base64-encoded digest of r under the named
// algorithm while passing bytes through unmodified, so it can sit in a
// tee chain without buffering.
type DigestReader struct {
	r io.Reader
	h hash.Hash
}

func NewDigestReader(r io.Reader, algorithm string) (*DigestReader, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return nil, err
	}
	return &DigestReader{r: r, h: h}, nil
}

func (d *DigestReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if n > 0 {
		d.h.Write(p[:n])
	}
	return n, err
}

// Sum returns the base64-standard-encoded digest of everything read so far.
func (d *DigestReader) Sum() string {
	return base64.StdEncoding.EncodeToString(d.h.Sum(nil))
}

// Digest hashes all of r under algorithm and returns the base64 digest.
func Digest(r io.Reader, algorithm string) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// MatchesAny reports whether digest (as produced by Digest/DigestReader,
// under algorithm) equals any of wanted.
func MatchesAny(digest string, wanted []string) bool {
	for _, w := range wanted {
		if w == digest {
			return true
		}
	}
	return false
}
