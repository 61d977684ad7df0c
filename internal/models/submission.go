package models

import "strings"

// Submission is a report as posted by the submission form.
type Submission struct {
	ItemName     string `form:"itemName" validate:"required"`
	Category     string `form:"category"`
	Location     string `form:"location"`
	Date         string `form:"date"`
	Description  string `form:"description"`
	ContactName  string `form:"contactName" validate:"required"`
	ContactEmail string `form:"contactEmail" validate:"required"`
	Image        *Image `form:"-"`
}

type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (s *Submission) Normalize() {
	s.ItemName = strings.TrimSpace(s.ItemName)
	s.Category = strings.TrimSpace(s.Category)
	s.Location = strings.TrimSpace(s.Location)
	s.Date = strings.TrimSpace(s.Date)
	s.Description = strings.TrimSpace(s.Description)
	s.ContactName = strings.TrimSpace(s.ContactName)
	s.ContactEmail = strings.TrimSpace(s.ContactEmail)
}

// Report builds the row to insert. ImageURL is set by the caller after upload.
func (s Submission) Report(kind Kind) *Report {
	r := &Report{
		Kind:         kind,
		ItemName:     s.ItemName,
		Category:     s.Category,
		Location:     s.Location,
		Description:  s.Description,
		ContactName:  s.ContactName,
		ContactEmail: s.ContactEmail,
	}
	if s.Date != "" {
		d := s.Date
		r.Date = &d
	}
	return r
}
