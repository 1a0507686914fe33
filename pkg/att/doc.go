// Package att defines the handle-addressed attribute protocol consumed by
// the set coordinator.
//
// The package does not implement a transport. It defines the Conn interface
// an attribute transport must provide (read, write, subscribe, service and
// characteristic discovery) together with the handle, UUID, property and
// error-code types shared by implementations and their callers.
//
// All Conn methods that touch the wire take a context and block until the
// peer responds or the context is done. Change notifications are delivered
// through the callback registered with Subscribe; a nil payload signals
// that the peer cancelled the subscription.
package att
