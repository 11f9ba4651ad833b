// Package fingerprint computes content fingerprints for indexed chunks.
package fingerprint

import "github.com/minio/highwayhash"

// key is fixed so fingerprints are comparable across runs and processes.
var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// Of returns the 64-bit HighwayHash of text. Zero is reserved for "unknown".
func Of(text string) uint64 {
	h := highwayhash.Sum64([]byte(text), key)
	if h == 0 {
		return 1
	}
	return h
}
