package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date layout bills are stored with.
const DateLayout = "2006-01-02"

// BillType is an expense category.
type BillType string

const (
	TypeTransports  BillType = "Transports"
	TypeRestaurants BillType = "Restaurants et bars"
	TypeHotel       BillType = "Hôtel et logement"
	TypeOnline      BillType = "Services en ligne"
	TypeIT          BillType = "IT et électronique"
	TypeEquipment   BillType = "Equipement et matériel"
	TypeOffice      BillType = "Fournitures de bureau"
)

// BillTypes lists the categories in the order the form offers them.
var BillTypes = []BillType{
	TypeTransports,
	TypeRestaurants,
	TypeHotel,
	TypeOnline,
	TypeIT,
	TypeEquipment,
	TypeOffice,
}

// Valid reports whether t is one of the known categories.
func (t BillType) Valid() bool {
	for _, known := range BillTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Status is the review state of a bill.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Valid reports whether s is a known review state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// Bill is one expense report record.
type Bill struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Type         BillType `json:"type"`
	Name         string   `json:"name"`
	Date         string   `json:"date"`
	Amount       int      `json:"amount"`
	VAT          string   `json:"vat"`
	Pct          int      `json:"pct"`
	Commentary   string   `json:"commentary"`
	FileURL      string   `json:"fileUrl"`
	FileName     string   `json:"fileName"`
	Status       Status   `json:"status"`
	CommentAdmin string   `json:"commentAdmin,omitempty"`
}

// ParseDate parses a bill date strictly as a calendar date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse bill date %q: %w", raw, err)
	}
	return t, nil
}
