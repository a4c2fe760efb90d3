package partition

import (
	"github.com/pkg/errors"

	"github.com/nathantp/gpu-stream-compact/pkg/device"
)

// Failure taxonomy for the size-query and run entry points. All returned
// errors wrap one of these sentinels (or the device-level sentinels for
// platform limits and kernel faults); callers match with errors.Cause.
var (
	// Bad sizes or parameters: mismatched buffer lengths, nil required
	// arguments, element counts beyond the range of the count type.
	ErrConfiguration = errors.New("invalid configuration")

	// The supplied temporary storage is smaller than the queried size.
	ErrInsufficientScratch = errors.New("temporary storage too small")

	// Opaque runtime failure while executing a pass. Output and count
	// buffers are in an unspecified state.
	ErrExecution = errors.New("execution failure")
)

// Translates a launch failure into the package taxonomy. Platform-limit
// errors pass through with their device cause intact.
func launchErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == device.ErrKernelFault {
		return errors.Wrapf(ErrExecution, "%v: %v", msg, err)
	}
	return errors.Wrap(err, msg)
}
