package leave

// Ledger arithmetic over a Balance row. Reserve/Commit/Release mirror the
// submit/approve/reject-or-cancel transitions. None of these clamp;
// Available may go negative when allocations are reduced mid-year.

// Reserve parks days as pending at submission time.
func Reserve(b *Balance, days int) {
	b.Pending += days
}

// Commit moves reserved days to used when an application is approved.
func Commit(b *Balance, days int) {
	b.Pending -= days
	b.Used += days
}

// Release frees reserved days without marking them used, on rejection
// or cancellation.
func Release(b *Balance, days int) {
	b.Pending -= days
}

// Available is allocated minus used minus pending.
func Available(b Balance) int {
	return b.Allocated - b.Used - b.Pending
}
