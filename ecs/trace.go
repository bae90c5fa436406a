package ecs

import "github.com/TheBitDrifter/bark"

// panicTrace panics with err wrapped in a stack trace via bark.AddTrace,
// exactly as TheBitDrifter/warehouse does at its own invariant-violation
// panic sites (warehouse/query.go, warehouse/entity.go). Reserved for
// structural-invariant violations and other programming errors that
// spec.md §7 classifies as "a fatal bug, not a recoverable error" — never
// for ordinary, caller-recoverable failures, which return a typed error
// instead.
func panicTrace(err error) {
	panic(bark.AddTrace(err))
}
