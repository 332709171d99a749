/*
Package store implements the single-host, crash-safe embedded record store
every other Foreman component is built on.

State lives in one JSON snapshot file inside the workspace directory:

	<workspace>/.<app>/store/state.json
	<workspace>/.<app>/store/.lock/          (advisory lock, directory-create atomic)

Writers serialize under the advisory lock: create `.lock` with
`os.Mkdir`, which is atomic across processes on any POSIX filesystem. A
lock older than 5 seconds is considered abandoned by a crashed writer and
is stolen; a lock still held after 200 contention polls (~2s at a 10ms
poll interval) is force-stolen regardless of age so a wedged writer can
never deadlock the workspace.

Every write follows read-mutate-write: decode the current snapshot, apply
the caller's mutation closure, encode the result to a sibling temp file,
and `os.Rename` it into place. Rename is atomic on the same filesystem, so
a reader that opens the state file mid-write either sees the old complete
snapshot or the new complete snapshot, never a torn file — readers never
take the lock.
*/
package store
