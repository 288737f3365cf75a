//go:build !cgo
// +build !cgo

package convert

import (
	"fmt"
)

// newNativeEncoder returns an error when built without cgo
func newNativeEncoder() (Encoder, error) {
	return nil, fmt.Errorf("native WebP encoder requires a cgo build")
}

// isNativeSupported returns false when built without cgo
func isNativeSupported() bool {
	return false
}
