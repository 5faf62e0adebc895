package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"odinc/internal/source"
)

// Digest is a SHA-256 value.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports the digest of nothing hashed.
func (d Digest) IsZero() bool { return d == Digest{} }

// sourceDigest hashes each file's path and content hash in file order.
func sourceDigest(fs *source.FileSet, ids []source.FileID) Digest {
	h := sha256.New()
	for _, id := range ids {
		f := fs.Get(id)
		writeString(h, f.Path)
		_, _ = h.Write(f.Hash[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// cacheKey combines the sources with every setting that changes the
// generated text.
func cacheKey(cfg *Config, src Digest) Digest {
	h := sha256.New()
	var schema [2]byte
	binary.LittleEndian.PutUint16(schema[:], diskCacheSchemaVersion)
	_, _ = h.Write(schema[:])
	writeString(h, cfg.Target)
	writeString(h, cfg.Backend)
	for _, b := range []bool{cfg.ModulePerFile, cfg.NoBoundsCheck, cfg.DebugInfo, cfg.NoEntry} {
		if b {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	}
	_, _ = h.Write(src[:])
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// writeString writes a length-prefixed string so adjacent fields cannot
// run into each other.
func writeString(h interface{ Write([]byte) (int, error) }, s string) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(s))
}
