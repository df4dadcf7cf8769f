package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/utils"
)

var (
	// ErrOverlap means a reservation would double-book time; it indicates a bookkeeping bug
	ErrOverlap = errors.New("interval overlaps busy time")
	// ErrInvalidInterval is returned for intervals whose end is not after their start
	ErrInvalidInterval = errors.New("interval end must be after start")
)

// Entry is one occupied interval on a single day
type Entry struct {
	models.Interval
	Owner  string
	Locked bool
}

// BusyTimeline is the per-day ordered set of occupied intervals for one run.
// Entries never cross midnight and never overlap.
type BusyTimeline struct {
	loc  *time.Location
	days map[string][]Entry
}

// NewTimeline returns an empty timeline keyed by days in loc
func NewTimeline(loc *time.Location) *BusyTimeline {
	if loc == nil {
		loc = time.Local
	}
	return &BusyTimeline{loc: loc, days: make(map[string][]Entry)}
}

// Reserve marks iv as occupied by owner. Nothing is written if any part overlaps.
func (b *BusyTimeline) Reserve(iv models.Interval, owner string) error {
	if iv.Empty() {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, iv)
	}
	pieces := b.splitByDay(iv)
	for _, p := range pieces {
		for _, e := range b.days[b.key(p.Start)] {
			if e.Overlaps(p) {
				return fmt.Errorf("%w: %s for %q collides with %s held by %q", ErrOverlap, p, owner, e.Interval, e.Owner)
			}
		}
	}
	for _, p := range pieces {
		b.insert(Entry{Interval: p, Owner: owner})
	}
	return nil
}

// Release frees everything held by owner and returns the released intervals
func (b *BusyTimeline) Release(owner string) []models.Interval {
	var released []models.Interval
	for k, entries := range b.days {
		kept := entries[:0]
		for _, e := range entries {
			if !e.Locked && e.Owner == owner {
				released = append(released, e.Interval)
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(b.days, k)
		} else {
			b.days[k] = kept
		}
	}
	sortIntervals(released)
	return released
}

// Free returns the gaps inside window that no entry occupies
func (b *BusyTimeline) Free(window models.Interval) []models.Interval {
	return b.FreeExcept(window, nil)
}

// FreeExcept is Free where entries matching ignore are treated as free time
func (b *BusyTimeline) FreeExcept(window models.Interval, ignore func(Entry) bool) []models.Interval {
	if window.Empty() {
		return nil
	}

	var busy []models.Interval
	for _, day := range b.dayKeys(window) {
		for _, e := range b.days[day] {
			if ignore != nil && ignore(e) {
				continue
			}
			if e.Overlaps(window) {
				busy = append(busy, e.Interval)
			}
		}
	}
	sortIntervals(busy)

	var gaps []models.Interval
	cursor := window.Start
	for _, iv := range busy {
		if iv.Start.After(cursor) {
			gaps = append(gaps, models.Interval{Start: cursor, End: iv.Start})
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
	}
	if window.End.After(cursor) {
		gaps = append(gaps, models.Interval{Start: cursor, End: window.End})
	}
	return gaps
}

// Entries returns every entry in chronological order
func (b *BusyTimeline) Entries() []Entry {
	var out []Entry
	for _, entries := range b.days {
		out = append(out, entries...)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Owner < out[j].Owner
	})
	return out
}

// Day returns the entries of one calendar day in order
func (b *BusyTimeline) Day(day time.Time) []Entry {
	entries := b.days[b.key(day)]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Locked returns the locked intervals in order
func (b *BusyTimeline) Locked() []models.Interval {
	var out []models.Interval
	for _, e := range b.Entries() {
		if e.Locked {
			out = append(out, e.Interval)
		}
	}
	return out
}

// Owned returns the intervals currently held by owner
func (b *BusyTimeline) Owned(owner string) []models.Interval {
	var out []models.Interval
	for _, e := range b.Entries() {
		if !e.Locked && e.Owner == owner {
			out = append(out, e.Interval)
		}
	}
	return out
}

// Owners returns the distinct owners of reserved time, sorted
func (b *BusyTimeline) Owners() []string {
	seen := make(map[string]bool)
	var out []string
	for _, entries := range b.days {
		for _, e := range entries {
			if e.Locked || seen[e.Owner] {
				continue
			}
			seen[e.Owner] = true
			out = append(out, e.Owner)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy
func (b *BusyTimeline) Clone() *BusyTimeline {
	c := NewTimeline(b.loc)
	for k, entries := range b.days {
		cp := make([]Entry, len(entries))
		copy(cp, entries)
		c.days[k] = cp
	}
	return c
}

func (b *BusyTimeline) insert(e Entry) {
	k := b.key(e.Start)
	entries := b.days[k]
	i := sort.Search(len(entries), func(i int) bool {
		return !entries[i].Start.Before(e.Start)
	})
	entries = append(entries, Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	b.days[k] = entries
}

func (b *BusyTimeline) key(t time.Time) string {
	return t.In(b.loc).Format(constants.DateFormat)
}

// dayKeys lists the day keys a window touches
func (b *BusyTimeline) dayKeys(window models.Interval) []string {
	var keys []string
	day := utils.Midnight(window.Start.In(b.loc))
	for day.Before(window.End) {
		keys = append(keys, day.Format(constants.DateFormat))
		day = day.AddDate(0, 0, 1)
	}
	return keys
}

// splitByDay cuts iv at every midnight it crosses
func (b *BusyTimeline) splitByDay(iv models.Interval) []models.Interval {
	var out []models.Interval
	cur := iv.Start.In(b.loc)
	end := iv.End.In(b.loc)
	for cur.Before(end) {
		next := utils.Midnight(cur).AddDate(0, 0, 1)
		out = append(out, models.Interval{Start: cur, End: utils.MinTime(next, end)})
		cur = next
	}
	return out
}

func sortIntervals(ivs []models.Interval) {
	sort.Slice(ivs, func(i, j int) bool {
		return ivs[i].Start.Before(ivs[j].Start)
	})
}
