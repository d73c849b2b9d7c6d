//go:build !(windows && cgo && birdsdk)

package birdsdk

import (
	"errors"

	"fob_apiserver/internal/bird"
)

var ErrUnavailable = errors.New("vendor bird SDK not compiled in, rebuild on windows with -tags birdsdk")

// New reports ErrUnavailable in builds without the SDK.
func New() (bird.Driver, error) {
	return nil, ErrUnavailable
}
