// Package lib implement helper functions and types shared by the
// allocator and the managed object model.
package lib
