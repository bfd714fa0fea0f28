//go:build linux

package sessionstore

import (
	"fmt"
	"os/exec"
)

// NewKernel needs the keyctl tool from keyutils.
func NewKernel() (*Kernel, error) {
	if _, err := exec.LookPath("keyctl"); err != nil {
		return nil, fmt.Errorf("kernel session backend: %w", err)
	}
	return newKernel(runKeyctl), nil
}
