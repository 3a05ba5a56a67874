package draft

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"elaview/internal/domain/availability"
	"elaview/internal/domain/compliance"
	"elaview/internal/domain/pricing"
	"elaview/internal/domain/shared/money"
)

var (
	ErrInvalidDetails        = errors.New("draft: invalid details")
	ErrSelectionIncomplete   = errors.New("draft: select both a start and an end date")
	ErrSelectionConflict     = errors.New("draft: selection conflicts with unavailable dates")
	ErrConfirmationRequired  = errors.New("draft: content restrictions must be acknowledged")
	errUnsupportedValidation = errors.New("draft: unsupported validation failure")
)

var validate = newValidator()

var fieldLabels = map[string]string{
	"campaign_name":       "Campaign name",
	"brand_name":          "Brand name",
	"content_type":        "Content type",
	"content_description": "Content description",
	"message":             "Message",
}

// Details is the advertiser-entered part of a booking draft.
type Details struct {
	CampaignName       string   `json:"campaign_name" validate:"required,max=120"`
	BrandName          string   `json:"brand_name" validate:"required,max=120"`
	ContentTypes       []string `json:"content_type" validate:"max=20,dive,max=64"`
	ContentDescription string   `json:"content_description" validate:"max=2000"`
	Message            string   `json:"message" validate:"max=2000"`
}

func (d Details) Normalized() Details {
	out := Details{
		CampaignName:       strings.TrimSpace(d.CampaignName),
		BrandName:          strings.TrimSpace(d.BrandName),
		ContentDescription: strings.TrimSpace(d.ContentDescription),
		Message:            strings.TrimSpace(d.Message),
		ContentTypes:       make([]string, 0, len(d.ContentTypes)),
	}
	seen := make(map[string]struct{}, len(d.ContentTypes))
	for _, tag := range d.ContentTypes {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out.ContentTypes = append(out.ContentTypes, tag)
	}
	return out
}

// ValidationError carries one inline message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", ErrInvalidDetails, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDetails }

// Validate checks the normalized details and reports per-field errors.
func (d Details) Validate() error {
	err := validate.Struct(d.Normalized())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", errUnsupportedValidation, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if idx := strings.IndexByte(name, '['); idx > 0 {
			name = name[:idx]
		}
		if _, exists := fields[name]; exists {
			continue
		}
		fields[name] = message(name, fe)
	}
	return &ValidationError{Fields: fields}
}

func message(field string, fe validator.FieldError) string {
	label := fieldLabels[field]
	if label == "" {
		label = field
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s allows at most %s entries", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ConfirmationRequiredError lists the conflicting content the advertiser must acknowledge.
type ConfirmationRequiredError struct {
	Tags   []string
	Labels []string
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfirmationRequired, strings.Join(e.Labels, ", "))
}

func (e *ConfirmationRequiredError) Unwrap() error { return ErrConfirmationRequired }

// Payload is handed to the booking-creation collaborator.
type Payload struct {
	CampaignName       string   `json:"campaign_name"`
	BrandName          string   `json:"brand_name"`
	ContentType        []string `json:"content_type"`
	ContentDescription string   `json:"content_description"`
	Message            string   `json:"message"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	SelectedDates      []string `json:"selected_dates"`
	TotalAmount        float64  `json:"total_amount"`
	NeedsApproval      bool     `json:"needs_approval"`
	SensitiveContent   bool     `json:"sensitive_content"`
	CreativeURL        string   `json:"creative_url,omitempty"`
}

type BuildInput struct {
	Details                 Details
	Selector                availability.RangeSelector
	DailyRate               money.Money
	ProhibitedContent       []string
	AcknowledgeRestrictions bool
	CreativeURL             string
}

// Build assembles the payload once the selection is conflict-free and the
// details pass validation. Conflicting content needs an explicit acknowledgement.
func Build(in BuildInput) (Payload, compliance.Result, error) {
	if in.Selector.Conflict != "" {
		return Payload{}, compliance.Result{}, ErrSelectionConflict
	}
	r, ok := in.Selector.Selection.Range()
	if !ok {
		return Payload{}, compliance.Result{}, ErrSelectionIncomplete
	}
	if err := in.Details.Validate(); err != nil {
		return Payload{}, compliance.Result{}, err
	}
	details := in.Details.Normalized()
	check := compliance.Check(details.ContentTypes, in.ProhibitedContent)
	if check.RequiresConfirmation() && !in.AcknowledgeRestrictions {
		return Payload{}, check, &ConfirmationRequiredError{Tags: check.Conflicts, Labels: check.ConflictLabels}
	}

	quote := pricing.Quote(r.Start, r.End, in.DailyRate)
	keys := r.Keys()
	return Payload{
		CampaignName:       details.CampaignName,
		BrandName:          details.BrandName,
		ContentType:        details.ContentTypes,
		ContentDescription: details.ContentDescription,
		Message:            details.Message,
		StartDate:          keys[0],
		EndDate:            keys[len(keys)-1],
		SelectedDates:      keys,
		TotalAmount:        quote.Total.Major(),
		NeedsApproval:      check.NeedsApproval,
		SensitiveContent:   check.Sensitive,
		CreativeURL:        in.CreativeURL,
	}, check, nil
}
