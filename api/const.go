package api

import "errors"

// ErrorOutofMemory arena cannot grow a block set without exceeding its
// configured capacity.
var ErrorOutofMemory = errors.New("outofmemory")

// ErrorLocked global mallocer configuration attempted after the first
// allocation went through it.
var ErrorLocked = errors.New("mallocerLocked")

// ErrorValueMissing named value lookup on an object that does not
// carry the requested key.
var ErrorValueMissing = errors.New("valueMissing")

// ErrorTypeMismatch named value exists but is not of the requested
// type.
var ErrorTypeMismatch = errors.New("typeMismatch")
