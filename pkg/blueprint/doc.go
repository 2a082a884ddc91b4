// Package blueprint implements the editable layout engine: entities placed
// on an integer grid, the wires between them, and a linear undo log.
//
// # Overview
//
// A [Blueprint] owns four stores that always change together:
//
//   - the entity table, a persistent map from [EntityID] to [Entity]
//   - the [PositionGrid], which indexes every entity in the cells it covers
//   - the tile table
//   - the [ConnectionGraph], the deduplicated list of wires
//
// All four are persistent (structurally shared) values. A [State] bundles
// their roots, and every [HistoryEntry] of the [EditHistory] holds the State
// right after its edit, so undo and redo restore the stores in lock-step by
// swapping roots instead of replaying edits.
//
// # Basic Usage
//
//	bp := blueprint.New(catalog.Builtin())
//	id, err := bp.CreateEntity("assembling-machine-2", geom.Vec{X: 1.5, Y: 1.5}, geom.North)
//	if errors.Is(err, errors.ErrCodePlacementBlocked) {
//	    // The footprint is taken.
//	}
//	bp.RotateEntity(id, false, true)
//	bp.Undo()
//
// Placement follows the overlap rules of [PositionGrid.IsAreaAvailable]:
// occupied cells block, except for gates crossing perpendicular straight
// rails and rails crossing each other.
//
// # Wires
//
// Entities carry their wires inline ([Entity.Connections]), keyed by side
// and color, exactly like the exchange format. The [ConnectionGraph] is
// derived from that data and kept in sync by [Blueprint.Connect],
// [Blueprint.Disconnect] and [Blueprint.RemoveEntity]. Per-color networks are
// available through [ConnectionGraph.Networks].
//
// # Snapshots
//
// [Blueprint.View] returns an immutable [View] that layout generators read
// from, possibly on another goroutine. Generated edits come back as a
// [Batch] and are applied with [Blueprint.Apply] as a single history entry.
//
// # Import and Export
//
// [FromRaw] and [Blueprint.ToRaw] convert between a blueprint and the flat
// [Raw] form; [ReadJSON] and [Blueprint.WriteJSON] handle its JSON encoding.
package blueprint
