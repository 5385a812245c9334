// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package team

// Destroy releases a team's local state. It is currently local-only: the
// team's pSync bit is NOT returned to the reservation mask, so the pool of
// available team slots can only shrink over the life of a run (spec.md §9
// "team_destroy does not return the pSync bit to the reservation mask").
// This asymmetry is preserved deliberately rather than silently fixed,
// since releasing the bit here without every PE observing the release
// would violate the "all PEs hold identical masks" quiescent invariant.
func Destroy(t *Team) {
	t.MyPe = -1
	t.PsyncIdx = -1
}
