package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusProspect  ConversionStatus = "prospect"
	StatusConverted ConversionStatus = "converted"
	StatusRetained  ConversionStatus = "retained"
	StatusDropped   ConversionStatus = "dropped"
)

type (
	ConversionStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Session is one class-session row as exported by the booking system.
	// A row can cover more than one occurrence of the same slot, in which
	// case Sessions carries the occurrence count.
	Session struct {
		SessionID     string
		Location      string
		Trainer       string
		ClassName     string
		ClassType     string
		TimeSlot      string // e.g. "Mon 18:00"
		Date          Date
		Sessions      int
		Booked        int
		CheckedIn     int
		Capacity      int
		LateCancelled int
		EmptySessions int
		Revenue       Money
	}

	// PayrollLine is one trainer payout row for a month.
	PayrollLine struct {
		Location  string
		Trainer   string
		Date      Date
		Sessions  int
		Customers int
		TotalPaid Money
	}

	// ClientConversion is one client's lifecycle event: trial taken,
	// converted to a membership or not, and the value realised so far.
	ClientConversion struct {
		ClientID  string
		Location  string
		Trainer   string
		Status    ConversionStatus
		FirstSeen Date
		Visits    int
		LTV       Money
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyLocation  = errors.New("empty location")
	ErrEmptyTrainer   = errors.New("empty trainer")
	ErrEmptyClassName = errors.New("empty class name")
	ErrEmptyClientID  = errors.New("empty client id")
	ErrNegativeCount  = errors.New("negative count")
	ErrInvalidStatus  = errors.New("invalid conversion status")
)

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthKey returns the period label for month-keyed views, e.g. "2024-01".
// Keys of this shape sort chronologically as plain strings.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

// YearKey returns the 4-digit year label, e.g. "2024".
func (d Date) YearKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006")
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Euros returns the amount as a float for metric arithmetic.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}

// ParseStatus maps a raw status cell to a ConversionStatus.
// Matching is case-insensitive and tolerates surrounding whitespace.
func ParseStatus(raw string) (ConversionStatus, error) {
	s := ConversionStatus(strings.ToLower(strings.TrimSpace(raw)))
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}

func (s ConversionStatus) Validate() error {
	switch s {
	case StatusProspect, StatusConverted, StatusRetained, StatusDropped:
		return nil
	default:
		return ErrInvalidStatus
	}
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.Location) == "" {
		return ErrEmptyLocation
	}
	if strings.TrimSpace(s.Trainer) == "" {
		return ErrEmptyTrainer
	}
	if strings.TrimSpace(s.ClassName) == "" {
		return ErrEmptyClassName
	}
	if s.Sessions < 0 || s.Booked < 0 || s.CheckedIn < 0 || s.Capacity < 0 ||
		s.LateCancelled < 0 || s.EmptySessions < 0 {
		return ErrNegativeCount
	}
	if err := s.Revenue.Validate(); err != nil {
		return err
	}
	return nil
}

func (p PayrollLine) Validate() error {
	if strings.TrimSpace(p.Location) == "" {
		return ErrEmptyLocation
	}
	if strings.TrimSpace(p.Trainer) == "" {
		return ErrEmptyTrainer
	}
	if p.Sessions < 0 || p.Customers < 0 {
		return ErrNegativeCount
	}
	if err := p.TotalPaid.Validate(); err != nil {
		return err
	}
	return nil
}

func (c ClientConversion) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return ErrEmptyClientID
	}
	if strings.TrimSpace(c.Location) == "" {
		return ErrEmptyLocation
	}
	if c.Visits < 0 {
		return ErrNegativeCount
	}
	if err := c.Status.Validate(); err != nil {
		return err
	}
	if err := c.LTV.Validate(); err != nil {
		return err
	}
	return nil
}
