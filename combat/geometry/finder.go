package geometry

import (
	"context"
	"math"
	"sort"

	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/logging"
	loggeometry "rift-and-ruin/server/logging/geometry"
)

// Finder computes the concrete target set for a resolved geometry tag.
// It is stateless; the optional publisher only receives diagnostics and
// never influences the result.
type Finder struct {
	pub logging.Publisher
}

// NewFinder constructs a Finder. A nil publisher disables diagnostics.
func NewFinder(pub logging.Publisher) *Finder {
	return &Finder{pub: pub}
}

// FindTargets resolves the geometry against the candidate pool and returns
// the ordered targets. Geometry names are the canonical tag spellings; an
// unrecognised geometry degrades to single_target with a warning. Dead
// candidates are never returned. Parameter defaults are expected to have
// been merged in by the parser; absent parameters degrade to an empty or
// primary-only result rather than an error.
func (f *Finder) FindTargets(geom string, source, primary Target, params tags.Params, ctx TargetContext, candidates []Target) []Target {
	var selected []Target
	switch geom {
	case tags.TagSingleTarget:
		selected = singleTarget(primary, ctx)
	case tags.TagChain:
		selected = chainTargets(primary, params, ctx, candidates)
	case tags.TagCone:
		selected = coneTargets(source, primary, params, ctx, candidates)
	case tags.TagCircle:
		selected = circleTargets(source, primary, params, ctx, candidates)
	case tags.TagBeam:
		selected = beamTargets(source, primary, params, ctx, candidates)
	default:
		f.warnUnknownGeometry(geom)
		selected = singleTarget(primary, ctx)
	}
	f.emitSelection(geom, ctx, len(candidates), selected, params)
	return selected
}

func singleTarget(primary Target, ctx TargetContext) []Target {
	if primary == nil || !primary.Alive() || !Matches(primary, ctx) {
		return nil
	}
	return []Target{primary}
}

// chainTargets starts at the primary and repeatedly jumps to the nearest
// unvisited candidate within chain_range of the current link, up to
// chain_count extra jumps. Ties keep the earlier candidate so traversal
// is deterministic for a given candidate order.
func chainTargets(primary Target, params tags.Params, ctx TargetContext, candidates []Target) []Target {
	first := singleTarget(primary, ctx)
	if len(first) == 0 {
		return nil
	}
	chainRange := params.FloatOr("chain_range", 0)
	chainCount := params.IntOr("chain_count", 0)
	if chainRange <= 0 || chainCount <= 0 {
		return first
	}

	targets := first
	visited := map[string]struct{}{primary.ID(): {}}
	current := primary
	for jump := 0; jump < chainCount; jump++ {
		var next Target
		nextDistSq := math.Inf(1)
		from := current.Position()
		for _, candidate := range candidates {
			if candidate == nil || !candidate.Alive() {
				continue
			}
			if _, seen := visited[candidate.ID()]; seen {
				continue
			}
			if !Matches(candidate, ctx) {
				continue
			}
			distSq := from.DistanceSquared(candidate.Position())
			if distSq > chainRange*chainRange {
				continue
			}
			if distSq < nextDistSq {
				next = candidate
				nextDistSq = distSq
			}
		}
		if next == nil {
			break
		}
		visited[next.ID()] = struct{}{}
		targets = append(targets, next)
		current = next
	}
	return targets
}

// coneTargets sweeps an arc from the source toward the primary target.
// Facing falls back to the source's declared facing, then its velocity,
// then +X when no hint is available.
func coneTargets(source, primary Target, params tags.Params, ctx TargetContext, candidates []Target) []Target {
	if source == nil {
		return nil
	}
	coneRange := params.FloatOr("cone_range", 0)
	coneAngle := params.FloatOr("cone_angle", 0)
	if coneRange <= 0 || coneAngle <= 0 {
		return nil
	}
	origin := source.Position()
	facing := estimateFacing(source, primary)
	halfAngle := DegreesToRadians(coneAngle) / 2

	var targets []Target
	for _, candidate := range candidates {
		if candidate == nil || !candidate.Alive() || !Matches(candidate, ctx) {
			continue
		}
		offset := candidate.Position().Sub(origin)
		if offset.Length() > coneRange {
			continue
		}
		if AngleBetween(facing, offset) > halfAngle {
			continue
		}
		targets = append(targets, candidate)
	}
	return targets
}

// circleTargets collects everything within radius of the resolved center,
// nearest first, optionally truncated to max_targets.
func circleTargets(source, primary Target, params tags.Params, ctx TargetContext, candidates []Target) []Target {
	center, ok := resolveCenter(source, primary, params)
	if !ok {
		return nil
	}
	radius := params.FloatOr("radius", 0)
	if radius <= 0 {
		return nil
	}

	type scored struct {
		target Target
		distSq float64
	}
	var hits []scored
	for _, candidate := range candidates {
		if candidate == nil || !candidate.Alive() || !Matches(candidate, ctx) {
			continue
		}
		distSq := center.DistanceSquared(candidate.Position())
		if distSq > radius*radius {
			continue
		}
		hits = append(hits, scored{target: candidate, distSq: distSq})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].distSq < hits[j].distSq
	})

	maxTargets := params.IntOr("max_targets", 0)
	if maxTargets > 0 && len(hits) > maxTargets {
		hits = hits[:maxTargets]
	}
	targets := make([]Target, 0, len(hits))
	for _, hit := range hits {
		targets = append(targets, hit.target)
	}
	return targets
}

// beamTargets projects every candidate onto the line from the source
// through the primary target and
// keeps those whose projection falls within the beam and whose lateral
// distance fits the beam width, ordered by distance along the beam. A
// negative pierce_count removes the hit limit.
func beamTargets(source, primary Target, params tags.Params, ctx TargetContext, candidates []Target) []Target {
	if source == nil {
		return nil
	}
	beamRange := params.FloatOr("beam_range", 0)
	beamWidth := params.FloatOr("beam_width", 0)
	if beamRange <= 0 || beamWidth <= 0 {
		return nil
	}
	origin := source.Position()
	direction := estimateFacing(source, primary).Normalize()
	if direction.IsZero() {
		return nil
	}

	type scored struct {
		target     Target
		projection float64
	}
	var hits []scored
	for _, candidate := range candidates {
		if candidate == nil || !candidate.Alive() || !Matches(candidate, ctx) {
			continue
		}
		offset := candidate.Position().Sub(origin)
		projection := offset.Dot(direction)
		if projection < 0 || projection > beamRange {
			continue
		}
		lateralSq := offset.LengthSquared() - projection*projection
		if lateralSq > beamWidth*beamWidth {
			continue
		}
		hits = append(hits, scored{target: candidate, projection: projection})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].projection < hits[j].projection
	})

	if pierceCount := params.IntOr("pierce_count", 0); pierceCount >= 0 {
		limit := pierceCount + 1
		if len(hits) > limit {
			hits = hits[:limit]
		}
	}
	targets := make([]Target, 0, len(hits))
	for _, hit := range hits {
		targets = append(targets, hit.target)
	}
	return targets
}

// estimateFacing prefers the direction toward the primary target, then the
// source's declared facing, then its velocity, then +X.
func estimateFacing(source, primary Target) Vec2 {
	if source == nil {
		return Vec2{X: 1}
	}
	if primary != nil {
		toward := primary.Position().Sub(source.Position())
		if !toward.IsZero() {
			return toward
		}
	}
	if oriented, ok := source.(Oriented); ok {
		if facing := oriented.Facing(); !facing.IsZero() {
			return facing
		}
	}
	if moving, ok := source.(Moving); ok {
		if velocity := moving.Velocity(); !velocity.IsZero() {
			return velocity
		}
	}
	return Vec2{X: 1}
}

func resolveCenter(source, primary Target, params tags.Params) (Vec2, bool) {
	switch params.StringOr("origin", "target") {
	case "source":
		if source == nil {
			return Vec2{}, false
		}
		return source.Position(), true
	case "point":
		return Vec2{
			X: params.FloatOr("origin_x", 0),
			Y: params.FloatOr("origin_y", 0),
		}, true
	default:
		if primary != nil {
			return primary.Position(), true
		}
		if source != nil {
			return source.Position(), true
		}
		return Vec2{}, false
	}
}

func (f *Finder) warnUnknownGeometry(geom string) {
	if f == nil || f.pub == nil {
		return
	}
	f.pub.Publish(context.Background(), logging.Event{
		Type:     "geometry.unknown_shape",
		Severity: logging.SeverityWarn,
		Category: logging.CategoryGeometry,
		Payload:  map[string]string{"geometry": geom},
	})
}

func (f *Finder) emitSelection(geom string, ctx TargetContext, candidateCount int, selected []Target, params tags.Params) {
	if f == nil || f.pub == nil {
		return
	}
	refs := make([]logging.EntityRef, 0, len(selected))
	for _, target := range selected {
		refs = append(refs, logging.EntityRef{ID: target.ID(), Kind: logging.EntityKindUnknown})
	}
	loggeometry.TargetsSelected(context.Background(), f.pub, 0, logging.EntityRef{}, refs, "", loggeometry.TargetsSelectedPayload{
		Geometry:   geom,
		Context:    string(ctx),
		Candidates: candidateCount,
		Selected:   len(selected),
		Range:      primaryRange(params),
	}, nil)
}

func primaryRange(params tags.Params) float64 {
	for _, key := range []string{"chain_range", "cone_range", "radius", "beam_range"} {
		if params.Has(key) {
			return params.FloatOr(key, 0)
		}
	}
	return 0
}
