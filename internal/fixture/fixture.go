// Package fixture defines the typed inputs the booking scenarios send:
// credentials and the create, update and partial-update payloads.
package fixture

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

//go:embed fixtures.yaml
var defaultDocument []byte

// Credentials are exchanged for an auth token.
type Credentials struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// BookingDates holds check-in/check-out dates as YYYY-MM-DD.
type BookingDates struct {
	Checkin  string `yaml:"checkin" json:"checkin"`
	Checkout string `yaml:"checkout" json:"checkout"`
}

// Booking is the full payload used for creation and replacement.
type Booking struct {
	Firstname       string       `yaml:"firstname" json:"firstname"`
	Lastname        string       `yaml:"lastname" json:"lastname"`
	TotalPrice      int          `yaml:"totalprice" json:"totalprice"`
	DepositPaid     bool         `yaml:"depositpaid" json:"depositpaid"`
	BookingDates    BookingDates `yaml:"bookingdates" json:"bookingdates"`
	AdditionalNeeds string       `yaml:"additionalneeds" json:"additionalneeds,omitempty"`
}

// PartialBooking only serializes the fields that are set.
type PartialBooking struct {
	Firstname       *string       `yaml:"firstname,omitempty" json:"firstname,omitempty"`
	Lastname        *string       `yaml:"lastname,omitempty" json:"lastname,omitempty"`
	TotalPrice      *int          `yaml:"totalprice,omitempty" json:"totalprice,omitempty"`
	DepositPaid     *bool         `yaml:"depositpaid,omitempty" json:"depositpaid,omitempty"`
	BookingDates    *BookingDates `yaml:"bookingdates,omitempty" json:"bookingdates,omitempty"`
	AdditionalNeeds *string       `yaml:"additionalneeds,omitempty" json:"additionalneeds,omitempty"`
}

// Set groups every fixture a scenario run needs.
type Set struct {
	Credentials Credentials    `yaml:"credentials"`
	Create      Booking        `yaml:"create"`
	Update      Booking        `yaml:"update"`
	Patch       PartialBooking `yaml:"patch"`
}

// Default returns the embedded fixture set.
func Default() Set {
	s, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded fixtures: %v", err))
	}
	return s
}

// Parse decodes a YAML fixture document. Sections missing from data keep
// their default values.
func Parse(data []byte) (Set, error) {
	var s Set
	if len(defaultDocument) > 0 {
		if err := yaml.Unmarshal(defaultDocument, &s); err != nil {
			return Set{}, fmt.Errorf("decode default fixtures: %w", err)
		}
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Set{}, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Set{}, err
	}
	return s, nil
}

// Load reads a fixture document from path; an empty path yields Default().
func Load(path string) (Set, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

// Validate checks credentials and booking dates.
func (s Set) Validate() error {
	var errs []error
	if s.Credentials.Username == "" || s.Credentials.Password == "" {
		errs = append(errs, errors.New("credentials: username and password are required"))
	}
	if err := s.Create.BookingDates.validate(); err != nil {
		errs = append(errs, fmt.Errorf("create: %w", err))
	}
	if err := s.Update.BookingDates.validate(); err != nil {
		errs = append(errs, fmt.Errorf("update: %w", err))
	}
	if s.Patch.BookingDates != nil {
		if err := s.Patch.BookingDates.validate(); err != nil {
			errs = append(errs, fmt.Errorf("patch: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (d BookingDates) validate() error {
	in, err := time.Parse(dateLayout, d.Checkin)
	if err != nil {
		return fmt.Errorf("checkin %q: %w", d.Checkin, err)
	}
	out, err := time.Parse(dateLayout, d.Checkout)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", d.Checkout, err)
	}
	if out.Before(in) {
		return fmt.Errorf("checkout %s before checkin %s", d.Checkout, d.Checkin)
	}
	return nil
}
