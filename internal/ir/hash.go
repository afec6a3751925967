package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainFact separates fact digests from any other hash computed over the
// same canonical bytes. The version suffix allows a future format change.
const DomainFact = "factstore/fact/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FactDigest computes a content digest of a fact. Ordinal is not part of the
// canonical form, so the same fact exported from two drives, or re-imported,
// digests identically.
func FactDigest(f Fact) (string, error) {
	canonical, err := MarshalCanonical(f)
	if err != nil {
		return "", fmt.Errorf("FactDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFact, canonical), nil
}

// MustFactDigest is like FactDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFactDigest(f Fact) string {
	d, err := FactDigest(f)
	if err != nil {
		panic(err)
	}
	return d
}

// MarshalExport returns the canonical form of f with its digest added under
// the "digest" key. This is one line of the export stream.
func MarshalExport(f Fact) ([]byte, error) {
	canonical, err := MarshalCanonical(f)
	if err != nil {
		return nil, fmt.Errorf("MarshalExport: %w", err)
	}
	fields := canonicalFields(f)
	fields["digest"] = hashWithDomain(DomainFact, canonical)
	return marshalCanonicalObject(fields)
}
