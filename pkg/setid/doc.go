// Package setid defines the coordinated set identification service: its
// characteristic identifiers and value formats, the set identity resolving
// key (SIRK) with its encryption scheme, and the resolvable set identifier
// (RSI) used to recognise an advertising peer as a set member without
// connecting.
//
// Everything in this package is pure: no I/O, no shared state. The
// coordinator in pkg/coordinator drives these functions against live
// connections.
package setid
