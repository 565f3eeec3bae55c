package project

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// Canonical encoding: a byte-stable, injective serialization of a tree
// used as hash input for commits. Two semantically equal trees encode to
// identical bytes regardless of insertion order or process run.
//
// Layout:
//
//	file   = 'F' uvarint(len(content)) content
//	folder = 'D' uvarint(nchildren) { uvarint(len(name)) name child }*
//
// Folder entries are emitted in ascending lexicographic byte order of
// name. File content is written verbatim.

// Canonical returns the canonical encoding of the tree rooted at n.
func Canonical(n *Node) []byte {
	var buf bytes.Buffer
	writeCanonical(&buf, n)
	return buf.Bytes()
}

func writeCanonical(buf *bytes.Buffer, n *Node) {
	switch n.Kind {
	case KindFile:
		buf.WriteByte('F')
		writeUvarint(buf, uint64(len(n.Content)))
		buf.WriteString(n.Content)
	case KindFolder:
		buf.WriteByte('D')
		names := make([]string, 0, len(n.Children))
		for name := range n.Children {
			names = append(names, name)
		}
		sort.Strings(names)
		writeUvarint(buf, uint64(len(names)))
		for _, name := range names {
			writeUvarint(buf, uint64(len(name)))
			buf.WriteString(name)
			writeCanonical(buf, n.Children[name])
		}
	}
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	buf.Write(tmp[:binary.PutUvarint(tmp[:], v)])
}

// Digest returns the SHA-256 digest of the canonical encoding.
func Digest(n *Node) [sha256.Size]byte {
	return sha256.Sum256(Canonical(n))
}

// Hash returns the digest hex-encoded, the form sent on the wire and
// anchored on the ledger.
func Hash(n *Node) string {
	d := Digest(n)
	return hex.EncodeToString(d[:])
}
