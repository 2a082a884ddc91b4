// Package generate synthesizes entities from an immutable blueprint snapshot.
//
// Three generators share one shape: collect valid free positions around the
// entities they serve, turn them into candidate devices, pick devices
// greedily under a fully specified ordering, and emit placement requests.
//
//   - [Pipes] joins fluid sources with pipes and underground pipe pairs.
//   - [Poles] powers consumers with electric poles and wires them together.
//   - [Beacons] surrounds module hosts with non-overlapping beacons.
//
// Generators never mutate the blueprint. They read a [blueprint.View], so
// they may run on another goroutine, and their [Result] is applied back
// through [Result.ApplyTo] as one atomic history entry:
//
//	res, err := generate.Pipes(ctx, bp.View(), generate.PipeOptions{})
//	if errors.Is(err, errors.ErrCodeNoSolution) {
//	    // nothing to route
//	}
//	ids, err := res.ApplyTo(bp)
//
// Output is deterministic: the same snapshot and options always produce the
// same result.
package generate
