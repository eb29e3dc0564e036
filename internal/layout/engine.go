package layout

import (
	"sort"
	"time"

	"github.com/watson-app/watson/internal/calmodel"
)

// Hitbox is one timed event's rendered rectangle plus the index of the
// source event it came from, mirroring types.rs's EventHitbox.
type Hitbox struct {
	Index            int
	X, Y, W, H       float64
	HasNeighborAbove bool
}

// minHitboxHeight is the pixel floor every hitbox is drawn at, even
// for a zero-duration or fully-clipped event.
const minHitboxHeight = 18.0

type span struct {
	index     int
	startSecs float64
	endSecs   float64
	lane      int
}

// CalculateHitboxes lays out every Timed event that intersects ctx's
// window, following spec.md §4.9's six-step algorithm. Events of any
// other Kind, or missing an End, are not positioned. Grounded on
// cache.rs's CalculateHitboxes/flush_cluster_to_hitboxes.
func CalculateHitboxes(events []calmodel.Event, ctx Context) []Hitbox {
	if len(events) == 0 {
		return nil
	}

	spans := projectSpans(events, ctx)
	if len(spans) == 0 {
		return nil
	}

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].startSecs < spans[j].startSecs
	})

	hitboxes := make([]Hitbox, 0, len(spans))

	var cluster []span
	var clusterEnd float64

	for _, item := range spans {
		if len(cluster) == 0 || item.startSecs < clusterEnd {
			if item.endSecs > clusterEnd {
				clusterEnd = item.endSecs
			}
			cluster = append(cluster, item)
			continue
		}

		hitboxes = flushClusterToHitboxes(cluster, hitboxes, ctx)
		cluster = cluster[:0]
		clusterEnd = item.endSecs
		cluster = append(cluster, item)
	}
	hitboxes = flushClusterToHitboxes(cluster, hitboxes, ctx)

	return hitboxes
}

// projectSpans maps each Timed event onto today's grid by anchoring
// its duration to ctx.TODate and only keeping the event's
// time-of-day, then clips it to [WindowStart, WindowEnd).
func projectSpans(events []calmodel.Event, ctx Context) []span {
	var spans []span
	for idx, event := range events {
		if event.Kind != calmodel.KindTimed || event.End == nil {
			continue
		}

		start := event.Start.UTC().Local()
		end := event.End.UTC().Local()
		duration := end.Sub(start)

		startDT := ctx.TODate.Add(time.Duration(start.Hour())*time.Hour +
			time.Duration(start.Minute())*time.Minute +
			time.Duration(start.Second())*time.Second)
		endDT := startDT.Add(duration)

		if !endDT.After(ctx.WindowStart) || !startDT.Before(ctx.WindowEnd) {
			continue
		}

		visibleStart := startDT
		if ctx.WindowStart.After(visibleStart) {
			visibleStart = ctx.WindowStart
		}
		visibleEnd := endDT
		if ctx.WindowEnd.Before(visibleEnd) {
			visibleEnd = ctx.WindowEnd
		}

		spans = append(spans, span{
			index:     idx,
			startSecs: visibleStart.Sub(ctx.WindowStart).Seconds(),
			endSecs:   visibleEnd.Sub(ctx.WindowStart).Seconds(),
		})
	}
	return spans
}

// flushClusterToHitboxes assigns lanes within cluster, then emits a
// Hitbox per item, appending to results. has_neighbor_above looks at
// every hitbox emitted so far, not just this cluster's (cache.rs
// passes the same results Vec across every flush).
func flushClusterToHitboxes(cluster []span, results []Hitbox, ctx Context) []Hitbox {
	if len(cluster) == 0 {
		return results
	}

	maxLane := 0
	for i := range cluster {
		lane := 0
		for {
			overlaps := false
			for j := 0; j < i; j++ {
				if cluster[j].lane == lane &&
					cluster[i].startSecs < cluster[j].endSecs &&
					cluster[i].endSecs > cluster[j].startSecs {
					overlaps = true
					break
				}
			}
			if !overlaps {
				break
			}
			lane++
		}
		cluster[i].lane = lane
		if lane > maxLane {
			maxLane = lane
		}
	}

	lanesTotal := float64(maxLane + 1)
	laneWidth := (ctx.InnerWidth - ctx.LineOffset) / lanesTotal

	for i := range cluster {
		item := cluster[i]

		yStart := (item.startSecs/ctx.TotalSeconds)*ctx.InnerHeight + ctx.PaddingTop
		yEnd := (item.endSecs/ctx.TotalSeconds)*ctx.InnerHeight + ctx.PaddingTop
		x := ctx.Padding + ctx.LineOffset + float64(item.lane)*laneWidth
		h := yEnd - yStart
		if h < minHitboxHeight {
			h = minHitboxHeight
		}

		hasNeighborAbove := false
		for _, prev := range results {
			sameLane := abs(prev.X-x) < 1.0
			touchesTop := abs(prev.Y+prev.H-yStart) < 1.5
			if sameLane && touchesTop {
				hasNeighborAbove = true
				break
			}
		}

		results = append(results, Hitbox{
			Index:            item.index,
			X:                x,
			Y:                yStart,
			W:                laneWidth - 3.0,
			H:                h,
			HasNeighborAbove: hasNeighborAbove,
		})
	}

	return results
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// HitTest scans hitboxes in reverse insertion order and returns the
// first one containing (x, y), so the last-drawn overlay wins
// (spec.md §4.9, builder.rs's click handler).
func HitTest(hitboxes []Hitbox, x, y float64) *Hitbox {
	for i := len(hitboxes) - 1; i >= 0; i-- {
		hb := hitboxes[i]
		if x >= hb.X && x <= hb.X+hb.W && y >= hb.Y && y <= hb.Y+hb.H {
			return &hitboxes[i]
		}
	}
	return nil
}
