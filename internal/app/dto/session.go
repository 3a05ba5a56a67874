package dto

import (
	"time"

	"elaview/internal/domain/availability"
	"elaview/internal/domain/compliance"
	"elaview/internal/domain/draft"
	"elaview/internal/domain/pricing"
	"elaview/internal/domain/session"
	"elaview/internal/domain/shared/daterange"
	"elaview/internal/domain/spaces"
)

type SelectionView struct {
	State       availability.State   `json:"state"`
	Start       string               `json:"start,omitempty"`
	End         string               `json:"end,omitempty"`
	Hover       string               `json:"hover,omitempty"`
	Conflict    string               `json:"conflict,omitempty"`
	Outcome     availability.Outcome `json:"outcome,omitempty"`
	CanContinue bool                 `json:"can_continue"`
}

type PricingView struct {
	Days      int      `json:"days"`
	DailyRate MoneyDTO `json:"daily_rate"`
	Total     MoneyDTO `json:"total"`
}

type ComplianceView struct {
	Conflicts      []string `json:"conflicts"`
	ConflictLabels []string `json:"conflict_labels"`
	Sensitive      bool     `json:"sensitive_content"`
	NeedsApproval  bool     `json:"needs_approval"`
	MustConfirm    bool     `json:"must_confirm"`
}

type SessionView struct {
	ID                  string         `json:"id"`
	SpaceID             string         `json:"space_id"`
	Loading             bool           `json:"loading"`
	AvailabilityUnknown bool           `json:"availability_unknown"`
	Selection           SelectionView  `json:"selection"`
	Pricing             PricingView    `json:"pricing"`
	Compliance          ComplianceView `json:"compliance"`
	Details             draft.Details  `json:"details"`
	CreativeURL         string         `json:"creative_url,omitempty"`
	OpenedAt            time.Time      `json:"opened_at"`
}

type CalendarView struct {
	SessionID string                     `json:"session_id"`
	Month     string                     `json:"month"`
	Loading   bool                       `json:"loading"`
	Days      []availability.CalendarDay `json:"days"`
}

func dayKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return daterange.Key(t)
}

func MapSelection(sel availability.RangeSelector, outcome availability.Outcome) SelectionView {
	return SelectionView{
		State:       sel.State(),
		Start:       dayKey(sel.Selection.Start),
		End:         dayKey(sel.Selection.End),
		Hover:       dayKey(sel.Hover),
		Conflict:    sel.Conflict,
		Outcome:     outcome,
		CanContinue: sel.CanContinue(),
	}
}

func MapCompliance(res compliance.Result) ComplianceView {
	conflicts := res.Conflicts
	if conflicts == nil {
		conflicts = []string{}
	}
	labels := res.ConflictLabels
	if labels == nil {
		labels = []string{}
	}
	return ComplianceView{
		Conflicts:      conflicts,
		ConflictLabels: labels,
		Sensitive:      res.Sensitive,
		NeedsApproval:  res.NeedsApproval,
		MustConfirm:    res.RequiresConfirmation(),
	}
}

// MapSession renders s priced and checked against space.
func MapSession(s *session.Session, space *spaces.Space) SessionView {
	view := SessionView{
		ID:                  string(s.ID),
		SpaceID:             string(s.SpaceID),
		Loading:             s.Loading,
		AvailabilityUnknown: s.LoadError != "",
		Selection:           MapSelection(s.Selector, ""),
		Details:             s.Details,
		CreativeURL:         s.CreativeURL,
		OpenedAt:            s.OpenedAt,
	}
	if view.Details.ContentTypes == nil {
		view.Details.ContentTypes = []string{}
	}
	if space != nil {
		quote := pricing.Quote(s.Selector.Selection.Start, s.Selector.Selection.End, space.DailyRate)
		view.Pricing = PricingView{
			Days:      quote.Days,
			DailyRate: MapMoney(quote.Daily),
			Total:     MapMoney(quote.Total),
		}
		view.Compliance = MapCompliance(compliance.Check(s.Details.ContentTypes, space.ProhibitedContent))
	}
	return view
}
