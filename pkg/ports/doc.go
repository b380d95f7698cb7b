/*
Package ports defines the driven ports (interfaces) for the Arbor engine.

These interfaces decouple the document engine from external implementations,
allowing editors to persist documents in various storage backends and to
coordinate access across processes.

# Key Interfaces

  - DocumentStore: Persists documents in their plain map form.
  - Watchable: Notifies about documents changed outside the process.
  - DistributedLocker: Provides distributed locking for concurrent document access.

Stores deal with persisted maps rather than domain values so that they stay
independent of the schema version; decoding and migration happen in the
session layer.
*/
package ports
