package override

import "errors"

// ErrUnknownEntity is returned by trackers that know their entity set and are asked about
// an id outside of it.
var ErrUnknownEntity = errors.New("override: unknown entity")
