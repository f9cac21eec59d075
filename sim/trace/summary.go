package trace

import "sort"

// ActivitySpan is the interval between the first and last completion of an activity.
type ActivitySpan struct {
	Activity string `json:"activity"`
	First    int64  `json:"first"`
	Last     int64  `json:"last"`
	Count    int    `json:"count"`
}

// Duration returns Last - First in minutes.
func (a ActivitySpan) Duration() int64 {
	return a.Last - a.First
}

// OrderSpan is the interval between the first and last record of one entity.
type OrderSpan struct {
	EntityID int        `json:"entity_id"`
	First    int64      `json:"first"`
	Last     int64      `json:"last"`
	Outcome  RecordKind `json:"outcome"` // kind of the entity's last record
}

// Duration returns Last - First in minutes.
func (o OrderSpan) Duration() int64 {
	return o.Last - o.First
}

// Summary aggregates statistics from a trace.
type Summary struct {
	TotalRecords      int                `json:"total_records"`
	KindCounts        map[RecordKind]int `json:"kind_counts"`
	Activities        []ActivitySpan     `json:"activities"` // first-seen activity order, terminal records excluded
	Orders            []OrderSpan        `json:"orders"`     // ascending entity ID
	MeanOrderDuration float64            `json:"mean_order_duration"`
	ServerLoad        map[string]int     `json:"server_load"` // server → activity records served
}

// Summarize computes aggregate statistics from records.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(records []ActivityRecord) *Summary {
	summary := &Summary{
		KindCounts: make(map[RecordKind]int),
		ServerLoad: make(map[string]int),
	}
	summary.TotalRecords = len(records)

	spans := make(map[string]*ActivitySpan)
	orders := make(map[int]*OrderSpan)
	for _, r := range records {
		summary.KindCounts[r.Kind]++

		o, ok := orders[r.EntityID]
		if !ok {
			o = &OrderSpan{EntityID: r.EntityID, First: r.Time}
			orders[r.EntityID] = o
		}
		o.Last = r.Time
		o.Outcome = r.Kind

		if r.Terminal() {
			continue
		}
		summary.ServerLoad[r.Server]++
		s, ok := spans[r.Activity]
		if !ok {
			s = &ActivitySpan{Activity: r.Activity, First: r.Time}
			spans[r.Activity] = s
			summary.Activities = append(summary.Activities, ActivitySpan{})
		}
		s.Last = r.Time
		s.Count++
	}

	for i, name := range Flow(records).Nodes {
		summary.Activities[i] = *spans[name]
	}

	served := 0
	var total int64
	for _, o := range orders {
		summary.Orders = append(summary.Orders, *o)
		if o.Outcome == KindActivity {
			served++
			total += o.Duration()
		}
	}
	sort.Slice(summary.Orders, func(i, j int) bool {
		return summary.Orders[i].EntityID < summary.Orders[j].EntityID
	})
	if served > 0 {
		summary.MeanOrderDuration = float64(total) / float64(served)
	}
	return summary
}
