// Package coordinator implements the set coordinator: the client side of
// the coordinated set identification service.
//
// A Coordinator discovers set identification service instances on
// connected peers, reads and decrypts their set identity records, and
// drives the lock choreography across all members of a set:
//
//  1. Connect to a set device and wrap the connection in a SetMember.
//  2. Discover: find service instances and characteristic handles,
//     subscribing to change notifications.
//  3. DiscoverSets: read identity key, set size and rank for each instance.
//  4. Find, connect and discover the remaining members the same way.
//  5. Lock all members in rank order before exclusive operations;
//     Release them (reverse rank order) afterwards.
//
// All operations beyond the initial validation are asynchronous: the call
// returns once the operation has been issued, and the terminal outcome is
// delivered through the registered Callbacks. At most one operation may be
// in flight across the whole coordinator; concurrent calls fail with
// ErrBusy without touching any connection.
//
// If acquiring the lock fails after some members were already locked, the
// coordinator rolls the locked members back in descending rank order
// before reporting the failure. A failure of the rollback itself replaces
// the original error and can leave the set in a mixed lock state; callers
// should release and retry.
package coordinator
