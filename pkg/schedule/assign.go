package schedule

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/yugr/gaplan/pkg/interval"
	"github.com/yugr/gaplan/pkg/project"
)

// slot is a candidate booking for one resource.
type slot struct {
	info *ResourceInfo
	iv   interval.Interval
	frag time.Duration
}

// allocate finds the earliest free gap in the sheet, not before start, that
// fits effort hours. Fragmentation is the idle calendar time the booking
// leaves next to it inside its gap; it is only used to break ties.
func (ri *ResourceInfo) allocate(start time.Time, effort float64, log *slog.Logger) (slot, bool) {
	log.Debug("allocate", "resource", ri.Resource.Name, "effort", effort, "from", interval.FormatDate(start))

	ivs := ri.sheet.Intervals()
	free := start
	for i := 0; i <= len(ivs); i++ {
		gapFinish := interval.Forever
		if i < len(ivs) {
			gapFinish = ivs[i].Start
		}
		gapStart := free
		if gapStart.Before(start) {
			gapStart = start
		}
		if i < len(ivs) {
			free = ivs[i].Finish
		}
		if !gapStart.Before(gapFinish) {
			continue
		}

		gap := interval.Interval{Start: gapStart, Finish: gapFinish}
		iv, ok := ri.cal.AllowsEffort(gap, effort)
		if !ok {
			log.Debug("allocate: slot rejected", "resource", ri.Resource.Name, "slot", gap.String())
			continue
		}

		gapOpen := gapStart
		if i > 0 {
			gapOpen = ivs[i-1].Finish
		}
		frag := iv.Start.Sub(gapOpen)
		if i < len(ivs) {
			frag += gapFinish.Sub(iv.Finish)
		}
		return slot{info: ri, iv: iv, frag: frag}, true
	}
	return slot{}, false
}

// assignBestResources books effort hours on at most par of rcs, starting no
// earlier than start. It tries every split degree and keeps the one that
// finishes first, preferring fewer resources on ties.
func (s *Scheduler) assignBestResources(sched *Schedule, rcs []*project.Resource, start time.Time, effort float64, par int) (interval.Interval, []*project.Resource, error) {
	n := min(par, len(rcs))
	s.log.Debug("assign resources", "effort", effort, "resources", resourceNames(rcs), "parallel", par)

	var best []slot
	var bestFinish time.Time
	for i := 1; i <= n; i++ {
		share := effort / float64(i)
		var cands []slot
		for _, r := range rcs {
			ri, ok := sched.rcs[r.Name]
			if !ok {
				return interval.Interval{}, nil, fmt.Errorf("%w: resource %q is not a project member", ErrNoResources, r.Name)
			}
			if c, ok := ri.allocate(start, share/r.Efficiency, s.log); ok {
				cands = append(cands, c)
			}
		}
		if len(cands) < i {
			break
		}
		sort.SliceStable(cands, func(a, b int) bool {
			x, y := cands[a], cands[b]
			if !x.iv.Finish.Equal(y.iv.Finish) {
				return x.iv.Finish.Before(y.iv.Finish)
			}
			if x.frag != y.frag {
				return x.frag < y.frag
			}
			return x.info.Resource.Name < y.info.Resource.Name
		})

		finish := cands[0].iv.Finish
		for _, c := range cands[:i] {
			if c.iv.Finish.After(finish) {
				finish = c.iv.Finish
			}
		}
		s.log.Debug("assign resources: candidate split", "parallel", i, "finish", interval.FormatDate(finish))
		if best == nil || finish.Before(bestFinish) {
			best = append([]slot(nil), cands[:i]...)
			bestFinish = finish
		}
	}
	if best == nil {
		return interval.Interval{}, nil, fmt.Errorf("%w: no resource can take %gh of work", ErrNoResources, effort)
	}

	total := best[0].iv
	assigned := make([]*project.Resource, 0, len(best))
	for _, c := range best {
		if err := c.info.sheet.Add(c.iv); err != nil {
			return interval.Interval{}, nil, fmt.Errorf("booking %s: %w", c.info.Resource.Name, err)
		}
		if c.iv.Start.Before(total.Start) {
			total.Start = c.iv.Start
		}
		if c.iv.Finish.After(total.Finish) {
			total.Finish = c.iv.Finish
		}
		assigned = append(assigned, c.info.Resource)
	}
	return total, assigned, nil
}

func resourceNames(rcs []*project.Resource) string {
	names := make([]string, 0, len(rcs))
	for _, r := range rcs {
		names = append(names, r.Name)
	}
	return strings.Join(names, "/")
}
