package models

// Itinerary is the structured travel plan exchanged with the caller. The
// planning model emits this exact JSON shape; entries with Fixed set are
// preserved across regenerations.
type Itinerary struct {
	Days []ItineraryDay `json:"days" validate:"required,min=1,dive"`
}

// ItineraryDay is one day of the plan
type ItineraryDay struct {
	Date      string           `json:"date" validate:"required"`
	DayNumber int              `json:"day_number" validate:"required,min=1"`
	Locations []ItineraryStop `json:"locations" validate:"required,min=1,dive"`
}

// ItineraryStop is one scheduled location within a day. Time is "HH:MM" or
// empty when no fixed time applies.
type ItineraryStop struct {
	Address    string `json:"address" validate:"required"`
	Time       string `json:"time"`
	Notes      string `json:"notes"`
	Fixed      bool   `json:"fixed"`
	VisitOrder int    `json:"visit_order" validate:"min=1"`
}

// Empty reports whether the itinerary has no scheduled days
func (it *Itinerary) Empty() bool {
	return it == nil || len(it.Days) == 0
}

// ItineraryResult is the outcome of itinerary generation. When the
// conversation does not yet carry enough signal, Prompt holds a friendly
// request for more detail instead of a plan.
type ItineraryResult struct {
	Itinerary *Itinerary `json:"itinerary,omitempty"`
	Prompt    string     `json:"prompt,omitempty"`
}
