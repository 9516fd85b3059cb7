// Package attest signs canonical UNF reports.
//
// An attestation is a small canonical text document binding a report CID and
// its dataset UNF to an issuer key:
//
//	-----BEGIN UNF ATTESTATION-----
//	META
//	Spec: unf-attestation-1
//	Version: 1
//
//	SUBJECT
//	Report-CID: bafkrei...
//	Source-CID: bafkrei...
//	UNF: UNF:6:...
//
//	CLAIMS
//	Issued-At: 2024-01-02T03:04:05Z
//	Issuer: lab-a
//
//	CRYPTO
//	Hash-Alg: sha256
//	Issuer-Key: ed25519:...
//	Signature: ...
//	Signature-Alg: ed25519
//	-----END UNF ATTESTATION-----
//
// Keys within a section are sorted, values are single-line, and there is no
// newline after the postamble. The signature covers the bytes from the
// preamble through the end of CLAIMS. Supported signature algorithms are
// ed25519 and dilithium3; the signed digest is sha256, sha512 or sha3-256.
package attest
