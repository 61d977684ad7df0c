package models

import (
	"encoding/json"
	"time"
)

type Kind string

const (
	KindLost  Kind = "lost"
	KindFound Kind = "found"
)

var Kinds = []Kind{KindLost, KindFound}

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindLost, KindFound:
		return Kind(s), true
	}
	return "", false
}

// Table is the table holding reports of this kind.
func (k Kind) Table() string {
	return string(k) + "_items"
}

func (k Kind) LocationColumn() string {
	return string(k) + "_location"
}

func (k Kind) DateColumn() string {
	return string(k) + "_date"
}

type Report struct {
	ID           int64     `db:"id"`
	Kind         Kind      `db:"-"`
	ItemName     string    `db:"item_name"`
	Category     string    `db:"category"`
	Location     string    `db:"location"` // lost_location / found_location
	Date         *string   `db:"date"`     // YYYY-MM-DD, nullable
	Description  string    `db:"description"`
	ContactName  string    `db:"contact_name"`
	ContactEmail string    `db:"contact_email"`
	ImageURL     *string   `db:"image_url"` // nullable, URL returned by the image store
	CreatedAt    time.Time `db:"created_at"`
}

// MarshalJSON writes the location and date under kind specific keys
// (lostLocation/lostDate or foundLocation/foundDate).
func (r Report) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":           r.ID,
		"kind":         r.Kind,
		"itemName":     r.ItemName,
		"category":     r.Category,
		"description":  r.Description,
		"contactName":  r.ContactName,
		"contactEmail": r.ContactEmail,
		"imageUrl":     r.ImageURL,
		"createdAt":    r.CreatedAt,
	}
	out[string(r.Kind)+"Location"] = r.Location
	out[string(r.Kind)+"Date"] = r.Date
	return json.Marshal(out)
}
