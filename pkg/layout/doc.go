// Package layout assigns deterministic canvas positions to the states of a flow.
//
// # Algorithm
//
// The engine ranks states by depth-first discovery from the initial state:
//
//  1. Each state's successors are the non-empty next values of its transitions,
//     in transition order. Duplicate successors are kept.
//  2. A depth-first walk from the initial state (when it exists) gives every
//     newly discovered state a level one below the state it was reached from.
//     A state is visited once; the first path to reach it wins, so a level is a
//     discovery depth, not a shortest distance.
//  3. States still unvisited are walked in document order, each island starting
//     at the level just past the deepest level so far, which stacks disconnected
//     components below the main layout.
//  4. States of a level form a row in discovery order.
//
// The walk uses an explicit stack, so deep or cyclic flows cannot exhaust the
// goroutine stack, and it reproduces the visiting order of the recursive form.
//
// # Coordinates
//
// For the i-th of n states on level L:
//
//	x = StartX + i*HorizontalSpacing - (n-1)*HorizontalSpacing/2 + L*LevelSkew
//	y = StartY + L*VerticalSpacing
//
// With [DefaultOptions] this is 300 between columns, 250 between rows, an
// origin of (50, 50) and a 20 unit rightward drift per level. Saved layouts
// depend on these values, so they are covered by golden tests.
//
// # Usage
//
//	res := layout.Compute(doc.States, doc.InitialState)
//	pos, _ := res.Position("Trigger")
package layout
