package strata

import (
	"fmt"

	"github.com/iamNilotpal/strata/pkg/errors"
	"github.com/iamNilotpal/strata/pkg/options"
	"github.com/iamNilotpal/strata/pkg/relation"
)

func (c *Cache) validateHandle(h *Handle) error {
	if h == nil {
		return errors.NewUsageError(errors.ErrUsageInvalidInput, "Handle must not be nil")
	}

	if h.closed {
		return errors.NewUsageError(
			errors.ErrUsageClosedHandle, "Handle was closed",
		).WithDetail("relation", h.lb.String())
	}

	return nil
}

func validateFork(fork relation.Fork) error {
	if !fork.Valid() {
		return errors.NewUsageError(
			errors.ErrUsageInvalidFork,
			fmt.Sprintf("Unknown fork %d", uint8(fork)),
		).WithProvided(uint8(fork))
	}
	return nil
}

func (c *Cache) validateBlockOp(h *Handle, fork relation.Fork, buf []byte) error {
	if err := c.validateHandle(h); err != nil {
		return err
	}

	if err := validateFork(fork); err != nil {
		return err
	}

	if len(buf) != int(c.opts.BlockSize) {
		return errors.NewUsageError(
			errors.ErrUsageBufferSize,
			fmt.Sprintf(
				"Buffer must hold exactly one block: got %s, want %s",
				options.FormatBytes(uint64(len(buf))), options.FormatBytes(uint64(c.opts.BlockSize)),
			),
		).
			WithProvided(len(buf)).
			WithExpected(c.opts.BlockSize)
	}

	return nil
}
