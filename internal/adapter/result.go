package adapter

import (
	"encoding/json"
	"io"
	"time"

	"github.com/julianstephens/daylit-planner/internal/models"
)

// ResultDocument is the host-facing JSON form of a ScheduleResult
type ResultDocument struct {
	RunID    string          `json:"run_id,omitempty"`
	Horizon  HorizonSpec     `json:"horizon"`
	Outcomes []OutcomeRecord `json:"outcomes"`
	Busy     []ChunkRecord   `json:"busy"`
	Breaks   []ChunkRecord   `json:"breaks,omitempty"`
	Stats    models.Stats    `json:"stats"`
	Warnings []string        `json:"warnings,omitempty"`
	Log      []LogRecord     `json:"log,omitempty"`
}

// LogRecord is one scheduling decision
type LogRecord struct {
	Decision string `json:"decision"`
	ItemID   string `json:"item_id,omitempty"`
	Message  string `json:"message"`
}

// OutcomeRecord reports one task, task occurrence or flexible event
type OutcomeRecord struct {
	ID          string        `json:"id"`
	SourceID    string        `json:"source_id"`
	Name        string        `json:"name"`
	Kind        string        `json:"kind"`
	Date        string        `json:"date,omitempty"`
	Status      string        `json:"status"`
	RequiredMin int           `json:"required_min"`
	PlacedMin   int           `json:"placed_min"`
	Chunks      []ChunkRecord `json:"chunks"`
	Reason      string        `json:"reason,omitempty"`
	Score       float64       `json:"score"`
	Bumped      bool          `json:"bumped,omitempty"`
}

// ChunkRecord is a placed interval in RFC3339
type ChunkRecord struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func chunkRecord(start, end time.Time, loc *time.Location) ChunkRecord {
	return ChunkRecord{Start: start.In(loc).Format(time.RFC3339), End: end.In(loc).Format(time.RFC3339)}
}

// NewResultDocument maps a result back to external IDs and host units, rendering times in loc
func NewResultDocument(res models.ScheduleResult, loc *time.Location) ResultDocument {
	if loc == nil {
		loc = time.Local
	}
	doc := ResultDocument{
		Horizon: HorizonSpec{
			Start: res.Horizon.Start.In(loc).Format(time.RFC3339),
			End:   res.Horizon.End.In(loc).Format(time.RFC3339),
		},
		Outcomes: make([]OutcomeRecord, 0, len(res.Outcomes)),
		Busy:     make([]ChunkRecord, 0, len(res.Busy)),
		Stats:    res.Stats,
		Warnings: res.Warnings,
	}
	for _, iv := range res.Busy {
		doc.Busy = append(doc.Busy, chunkRecord(iv.Start, iv.End, loc))
	}
	for _, iv := range res.Breaks {
		doc.Breaks = append(doc.Breaks, chunkRecord(iv.Start, iv.End, loc))
	}
	for _, e := range res.Log {
		doc.Log = append(doc.Log, LogRecord{Decision: string(e.Decision), ItemID: e.ItemID, Message: e.Message})
	}
	for _, o := range res.Outcomes {
		rec := OutcomeRecord{
			ID:          o.ItemID,
			SourceID:    o.SourceID,
			Name:        o.Name,
			Kind:        string(o.Kind),
			Date:        o.Date,
			Status:      string(o.Status),
			RequiredMin: int(o.Required / time.Minute),
			PlacedMin:   int(o.Placed / time.Minute),
			Chunks:      make([]ChunkRecord, 0, len(o.Chunks)),
			Reason:      string(o.Reason),
			Score:       o.Score,
			Bumped:      o.Bumped,
		}
		for _, c := range o.Chunks {
			rec.Chunks = append(rec.Chunks, chunkRecord(c.Start, c.End, loc))
		}
		doc.Outcomes = append(doc.Outcomes, rec)
	}
	return doc
}

// Encode writes the document as indented JSON
func (d ResultDocument) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
