package repository

import "errors"

// ErrUnknownIndex is returned by GetAllByIndex for an index the collection
// does not declare.
var ErrUnknownIndex = errors.New("unknown index")
