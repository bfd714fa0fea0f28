//go:build !linux

package sessionstore

func NewKernel() (*Kernel, error) {
	return nil, ErrUnsupported
}
