//go:build !linux

package cpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/srodi/itop/pkg/types"
)

var errUnsupported = fmt.Errorf("bpf source requires linux: %w", errors.ErrUnsupported)

// Source is a placeholder on non-Linux platforms.
type Source struct{}

// NewSource returns an error because eBPF is only supported on Linux.
func NewSource(objectPath string, logger *slog.Logger) (*Source, error) {
	return nil, errUnsupported
}

// Sample always fails on unsupported platforms.
func (s *Source) Sample(ctx context.Context) ([]types.RawProcessSnapshot, error) {
	return nil, errUnsupported
}

// Host always fails on unsupported platforms.
func (s *Source) Host(ctx context.Context) (types.HostStat, error) {
	return types.HostStat{}, errUnsupported
}

// Close is a no-op stub.
func (s *Source) Close() error {
	return nil
}
