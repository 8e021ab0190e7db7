package idgen

import "github.com/google/uuid"

var NewFunc = func() string { return uuid.New().String() }

// Short returns the first eight characters of a new identifier, used as a
// log prefix.
func Short() string {
	id := NewFunc()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
