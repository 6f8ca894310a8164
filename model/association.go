package model

// ScoredDate is a candidate date with its weighted distance to an event
type ScoredDate struct {
	Date     *DateMention `json:"date"`
	Distance float64      `json:"distance"`
}

// Association links one event mention to its best candidate date in the same
// document. Exactly one Association exists per EventMention. Date is nil only
// when the document contains no date mentions at all, in which case Distance
// is +Inf. Alternatives holds all remaining candidates ordered by ascending
// distance, for ambiguity assessment and audit.
type Association struct {
	Event           *EventMention `json:"event"`
	Date            *DateMention  `json:"date,omitempty"`
	Distance        float64       `json:"distance_score"`
	FinalConfidence float64       `json:"final_confidence"`
	Ambiguous       bool          `json:"is_ambiguous"`
	Alternatives    []ScoredDate  `json:"alternative_dates,omitempty"`
}

// ResolvedDate returns the chosen calendar date, nil when no date was chosen
// or the chosen mention could not be parsed
func (a *Association) ResolvedDate() *PartialDate {
	if a.Date == nil {
		return nil
	}
	return a.Date.Resolved
}
