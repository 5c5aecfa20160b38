// Package agent drives actors along computed paths: waypoint advancement,
// stall detection, and path recalculation with failure cooldowns. It knows
// nothing about the map; path computation is delegated to a Controller.
package agent

import (
	"math"

	"drift-and-delve/server/internal/nav"
)

const (
	// AgentHalf is half the collision box of an actor in world units.
	AgentHalf = 14.0
	// NodeReachedEpsilon is how close an actor must get to consume an
	// intermediate waypoint.
	NodeReachedEpsilon = AgentHalf * 0.75
	// PushRecalcThreshold is the distance regression that signals the
	// actor was displaced and the path no longer applies.
	PushRecalcThreshold = 4.0
	// StallThresholdTicks is how many non-improving ticks count as stuck.
	StallThresholdTicks = 6
	// RecalcCooldownTicks delays the next attempt after a failed search.
	RecalcCooldownTicks = 8
	// DefaultArriveRadius is the terminal arrival distance when the path
	// state does not set one.
	DefaultArriveRadius = 12.0

	// stuckRecalcThreshold is the collision-stuck counter level that
	// forces a recalculation regardless of stall progress.
	stuckRecalcThreshold = 8

	// goalReuseRadius keeps an existing path when a new target lands
	// within half a tile of its goal.
	goalReuseRadius = nav.DefaultTileSize * 0.5
)

// PathState is the per-actor navigation state.
type PathState struct {
	Path         []nav.Point `json:"path,omitempty"`
	Index        int         `json:"index,omitempty"`
	Goal         nav.Point   `json:"goal"`
	Target       nav.Point   `json:"target"`
	LastDistance float64     `json:"-"`
	StallTicks   uint8       `json:"-"`
	RecalcTick   uint64      `json:"-"`
	ArriveRadius float64     `json:"arriveRadius,omitempty"`
}

// Actor exposes the minimal state required to follow a path.
type Actor struct {
	ID           string
	X            float64
	Y            float64
	Facing       string
	Path         *PathState
	StuckCounter uint8
}

// Controller surfaces the hooks required to mutate intent and facing and
// to compute paths for actors.
type Controller interface {
	SetIntent(actorID string, dx, dy float64)
	SetFacing(actorID string, facing string)
	DeriveFacing(dx, dy float64, fallback string) string
	ComputePath(actorID string, target nav.Point) ([]nav.Point, nav.Point, bool)
}

// Advance walks each actor and advances their navigation state.
func Advance(actors []*Actor, tick uint64, controller Controller) {
	for _, actor := range actors {
		FollowPath(actor, tick, controller)
	}
}

// FollowPath advances one actor along its path, performing stall detection
// and recalculation when required.
func FollowPath(actor *Actor, tick uint64, controller Controller) {
	if actor == nil || actor.Path == nil {
		return
	}

	path := actor.Path
	if len(path.Path) == 0 {
		if controller != nil {
			controller.SetIntent(actor.ID, 0, 0)
		}
		if hasTarget(path.Target) && tick >= path.RecalcTick {
			if RecalculatePath(actor, tick, controller) {
				FollowPath(actor, tick, controller)
			}
		}
		return
	}

	if path.Index >= len(path.Path) {
		FinishPath(actor, controller)
		return
	}

	for path.Index < len(path.Path) {
		node := path.Path[path.Index]
		dx := node.X - actor.X
		dy := node.Y - actor.Y
		dist := math.Hypot(dx, dy)

		limit := float64(NodeReachedEpsilon)
		if path.Index == len(path.Path)-1 {
			radius := path.ArriveRadius
			if radius <= 0 {
				radius = DefaultArriveRadius
			}
			limit = radius
		}

		if dist <= limit {
			path.Index++
			path.LastDistance = 0
			path.StallTicks = 0
			continue
		}

		if path.LastDistance == 0 || dist+0.1 < path.LastDistance {
			path.LastDistance = dist
			path.StallTicks = 0
		} else {
			path.StallTicks++
			if path.StallTicks >= StallThresholdTicks || actor.StuckCounter >= stuckRecalcThreshold {
				if tick >= path.RecalcTick && RecalculatePath(actor, tick, controller) {
					FollowPath(actor, tick, controller)
				}
				return
			}
		}

		// A sudden distance jump means something shoved the actor off
		// the route.
		if path.LastDistance > 0 && dist > path.LastDistance+PushRecalcThreshold {
			if tick >= path.RecalcTick && RecalculatePath(actor, tick, controller) {
				FollowPath(actor, tick, controller)
			}
			return
		}

		if controller != nil {
			controller.SetIntent(actor.ID, dx, dy)
			facing := controller.DeriveFacing(dx, dy, actor.Facing)
			controller.SetFacing(actor.ID, facing)
			actor.Facing = facing
		}
		return
	}

	FinishPath(actor, controller)
}

// FinishPath stops an actor at its destination and clears the active path
// along with the pending target.
func FinishPath(actor *Actor, controller Controller) {
	ClearPath(actor, controller)
}

// ClearPath drops any outstanding navigation instructions and zeroes the
// actor's intent.
func ClearPath(actor *Actor, controller Controller) {
	if actor == nil || actor.Path == nil {
		return
	}
	clearState(actor.Path)
	actor.Path.Target = nav.Point{}
	actor.Path.RecalcTick = 0
	if controller != nil {
		controller.SetIntent(actor.ID, 0, 0)
	}
}

// EnsurePath computes and installs a path to the requested target, keeping
// the current path when its goal is close enough, and recording recalc
// metadata when the request fails.
func EnsurePath(actor *Actor, target nav.Point, tick uint64, controller Controller) bool {
	if actor == nil || actor.Path == nil {
		return false
	}

	path := actor.Path
	path.Target = target
	if len(path.Path) > 0 && path.Index < len(path.Path) {
		goal := path.Goal
		if math.Hypot(goal.X-target.X, goal.Y-target.Y) <= goalReuseRadius {
			return true
		}
	}

	if controller == nil {
		clearState(path)
		path.RecalcTick = tick + RecalcCooldownTicks
		return false
	}
	return computeAndInstall(actor, target, tick, controller)
}

// RecalculatePath recomputes the current path toward the pending target,
// handling failure cooldowns.
func RecalculatePath(actor *Actor, tick uint64, controller Controller) bool {
	if actor == nil || actor.Path == nil || controller == nil {
		return false
	}
	target := actor.Path.Target
	if !hasTarget(target) {
		return false
	}
	return computeAndInstall(actor, target, tick, controller)
}

func computeAndInstall(actor *Actor, target nav.Point, tick uint64, controller Controller) bool {
	path := actor.Path
	waypoints, goal, ok := controller.ComputePath(actor.ID, target)
	if !ok {
		clearState(path)
		path.RecalcTick = tick + RecalcCooldownTicks
		controller.SetIntent(actor.ID, 0, 0)
		return false
	}

	path.Path = waypoints
	path.Index = 0
	path.Goal = goal
	path.LastDistance = 0
	path.StallTicks = 0
	path.RecalcTick = tick + 1
	return true
}

func clearState(path *PathState) {
	path.Path = nil
	path.Index = 0
	path.Goal = nav.Point{}
	path.LastDistance = 0
	path.StallTicks = 0
}

// hasTarget treats the zero point as "no pending target".
func hasTarget(p nav.Point) bool {
	return p.X != 0 || p.Y != 0
}
