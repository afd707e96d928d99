// Package workqueue provides the non-blocking per-worker deque contract a
// work-stealing pool dispatches through: TryPush/TryPop from the owning
// worker, TrySteal from any peer. Two implementations are provided, a
// mutex-guarded ring in the shape of a Chase-Lev work-stealing deque, and
// a bounded CAS ring in the Vyukov bounded-MPMC-queue style, using the
// same per-slot sequence-number retry idiom as the lock-free skip-list's
// CAS loops.
package workqueue

// Queue is the non-blocking contract every pool worker dispatches
// through. All three operations report success via their bool return
// rather than blocking: a full queue on TryPush, or an empty one on
// TryPop/TrySteal, is a normal outcome the caller is expected to handle
// (grow, fall back to direct execution, or look elsewhere for work).
type Queue[T any] interface {
	TryPush(item T) bool
	TryPop() (T, bool)
	TrySteal() (T, bool)
	Len() int
}
