package bird

import "fmt"

// DeviceError is returned whenever the SDK reports a failure.
type DeviceError struct {
	Op  string
	Msg string
	Err error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

func newDeviceError(op, msg string) error {
	return &DeviceError{Op: op, Msg: msg}
}
