package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/logger"
	"github.com/julianstephens/daylit-planner/internal/models"
)

// occurrenceNamespace seeds the deterministic occurrence IDs
var occurrenceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/julianstephens/daylit-planner/occurrence"))

var (
	ErrUnsupportedFrequency = errors.New("unsupported recurrence frequency")
	ErrInvalidInterval      = errors.New("recurrence interval must be at least 1")
)

var toRRuleFreq = map[constants.Frequency]rrule.Frequency{
	constants.FrequencyDaily:   rrule.DAILY,
	constants.FrequencyWeekly:  rrule.WEEKLY,
	constants.FrequencyMonthly: rrule.MONTHLY,
	constants.FrequencyYearly:  rrule.YEARLY,
}

// rrule weekdays are Monday-based
var toRRuleWeekday = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Options tunes an expansion
type Options struct {
	// IncludeSkipped yields excluded dates as occurrences with Skipped set
	IncludeSkipped bool
	// MaxOccurrences caps the number of yielded occurrences; zero means the package default
	MaxOccurrences int
}

// Sequence lazily yields the occurrences of one rule inside a horizon
type Sequence struct {
	sourceID string
	rule     models.Recurrence
	horizon  models.Horizon
	opts     Options
	next     rrule.Next

	index     int
	yielded   int
	scanned   int
	prev      *time.Time
	done      bool
	truncated bool
}

// Expand builds a sequence for rule anchored at dtstart, clipped to horizon
func Expand(sourceID string, rule models.Recurrence, dtstart time.Time, horizon models.Horizon, opts Options) (*Sequence, error) {
	ropt, err := toROption(rule, dtstart)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", sourceID, err)
	}
	r, err := rrule.NewRRule(ropt)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", sourceID, err)
	}
	if opts.MaxOccurrences <= 0 {
		opts.MaxOccurrences = constants.MaxOccurrencesPerRule
	}
	return &Sequence{
		sourceID: sourceID,
		rule:     rule,
		horizon:  horizon,
		opts:     opts,
		next:     r.Iterator(),
	}, nil
}

// Next returns the next occurrence inside the horizon, or false once the sequence is exhausted
func (s *Sequence) Next() (models.Occurrence, bool) {
	for !s.done {
		t, ok := s.next()
		if !ok {
			s.done = true
			break
		}
		s.scanned++
		// scanning before the horizon still has to terminate for ancient anchors
		if s.scanned > s.opts.MaxOccurrences*20 {
			s.stop(true)
			break
		}

		index := s.index
		s.index++
		prev := s.prev
		tt := t
		s.prev = &tt

		if !t.Before(s.horizon.End) {
			s.done = true
			break
		}
		if t.Before(s.horizon.Start) {
			continue
		}

		skipped := s.rule.Excludes(t)
		if skipped && !s.opts.IncludeSkipped {
			continue
		}

		if s.yielded >= s.opts.MaxOccurrences {
			s.stop(true)
			break
		}
		s.yielded++

		occ := models.Occurrence{
			ID:        OccurrenceID(s.sourceID, t),
			SourceID:  s.sourceID,
			Index:     index,
			Start:     t,
			Completed: s.rule.IsCompleted(t),
			Skipped:   skipped,
		}
		if prev != nil {
			p := *prev
			occ.Previous = &p
		}
		return occ, true
	}
	return models.Occurrence{}, false
}

// All drains the sequence
func (s *Sequence) All() []models.Occurrence {
	var out []models.Occurrence
	for {
		occ, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, occ)
	}
}

// Truncated reports whether the safety cap ended the sequence early
func (s *Sequence) Truncated() bool {
	return s.truncated
}

func (s *Sequence) stop(truncated bool) {
	s.done = true
	s.truncated = truncated
	if truncated {
		logger.Warn("recurrence expansion truncated by safety cap",
			"source", s.sourceID,
			"cap", s.opts.MaxOccurrences,
		)
	}
}

// OccurrenceID derives a stable identifier for the occurrence of sourceID at t
func OccurrenceID(sourceID string, t time.Time) string {
	return uuid.NewSHA1(occurrenceNamespace, []byte(sourceID+"@"+t.UTC().Format(time.RFC3339))).String()
}

func toROption(rule models.Recurrence, dtstart time.Time) (rrule.ROption, error) {
	freq, ok := toRRuleFreq[rule.Frequency]
	if !ok {
		return rrule.ROption{}, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, rule.Frequency)
	}
	interval := rule.Interval
	if interval == 0 {
		interval = 1
	}
	if interval < 1 {
		return rrule.ROption{}, ErrInvalidInterval
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Count:    rule.Count,
		Dtstart:  dtstart,
	}
	if rule.Until != nil {
		opt.Until = *rule.Until
	}
	for _, wd := range rule.Weekdays {
		opt.Byweekday = append(opt.Byweekday, toRRuleWeekday[wd])
	}
	return opt, nil
}
