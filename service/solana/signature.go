package solana

import (
	"regexp"
	"strings"
)

const (
	minSignatureLength = 80
	maxSignatureLength = 90
)

// base58: digits 1-9, letters without 0, O, I and l
var base58Regex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)

// SignatureStatus is the result of the syntactic signature check.
type SignatureStatus string

const (
	SignatureEmpty   SignatureStatus = "empty"
	SignatureInvalid SignatureStatus = "invalid"
	SignatureValid   SignatureStatus = "valid"
)

// IsWellFormed reports whether sig looks like a base58 transaction signature.
// It is a pre-filter only and says nothing about whether the transaction exists.
func IsWellFormed(sig string) bool {
	if len(sig) < minSignatureLength || len(sig) > maxSignatureLength {
		return false
	}
	return base58Regex.MatchString(sig)
}

// ClassifySignature trims input and classifies it for display.
func ClassifySignature(input string) SignatureStatus {
	sig := strings.TrimSpace(input)
	if sig == "" {
		return SignatureEmpty
	}
	if !IsWellFormed(sig) {
		return SignatureInvalid
	}
	return SignatureValid
}
