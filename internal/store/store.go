// Package store defines the port to the hierarchical key-value store the
// room core is built on. Backends own their resources; consumers hold only
// the narrow interfaces below.
package store

import "context"

// Snapshot is the full value of a subtree at notification time. Interior
// nodes are map[string]any, leaves are scalars. A nil Snapshot means the
// subtree does not exist.
type Snapshot map[string]any

// Subscription is a live change feed on one path. Cancel is idempotent.
type Subscription interface {
	Cancel()
}

// RemoteTree is the store contract: a subscription delivers the full
// subtree on attach and again after every change under the path. Mutations
// return once the backend acknowledges them; completion is not ordered
// against snapshot delivery.
type RemoteTree interface {
	// Subscribe registers onChange for path. The current subtree is
	// delivered before Subscribe returns.
	Subscribe(path string, onChange func(Snapshot)) (Subscription, error)

	// Push stores value under a newly generated child id and returns it.
	Push(ctx context.Context, path string, value map[string]any) (string, error)

	// Update merges partial into the node at path, keeping siblings.
	Update(ctx context.Context, path string, partial map[string]any) error

	// Remove deletes the subtree at path. Removing an absent path is a
	// no-op, not an error.
	Remove(ctx context.Context, path string) error
}
