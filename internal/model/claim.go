// Package model defines the core domain types shared across the evaluation
// pipeline: claims, detected assets, groundwater statistics, and evaluation
// results.
package model

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidCoordinates marks claim coordinate text that cannot be parsed
// into a valid WGS84 point. Callers must treat this as a per-claim condition,
// not a batch-level failure.
var ErrInvalidCoordinates = eris.New("model: invalid coordinates")

// GeoPoint is a WGS84 location.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Claim is one land claim as delivered by the extraction collaborator.
// Text fields are normalized on construction; Point is nil until the
// coordinate text has been validated.
type Claim struct {
	ID          string    `json:"id"`
	PattaHolder string    `json:"patta_holder"`
	Village     string    `json:"village"`
	Coordinates string    `json:"coordinates"`
	ClaimStatus string    `json:"claim_status"`
	Point       *GeoPoint `json:"point,omitempty"`
}

// NewClaim builds a Claim from raw extracted fields. Coordinate text is kept
// verbatim even when malformed so the evaluation output can echo it back;
// Point is only set when parsing succeeds.
func NewClaim(id, pattaHolder, village, coordinates, status string) Claim {
	if id == "" {
		id = uuid.NewString()
	}
	c := Claim{
		ID:          id,
		PattaHolder: NormalizeText(pattaHolder),
		Village:     NormalizeText(village),
		Coordinates: strings.TrimSpace(coordinates),
		ClaimStatus: NormalizeText(status),
	}
	if pt, err := ParseCoordinates(c.Coordinates); err == nil {
		c.Point = pt
	}
	return c
}

// ParseCoordinates parses "lat,lon" text into a GeoPoint. It rejects
// anything that is not exactly two comma-separated floats within WGS84
// bounds.
func ParseCoordinates(s string) (*GeoPoint, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return nil, eris.Wrapf(ErrInvalidCoordinates, "expected \"lat,lon\", got %q", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidCoordinates, "latitude %q", parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidCoordinates, "longitude %q", parts[1])
	}

	if lat < -90 || lat > 90 {
		return nil, eris.Wrapf(ErrInvalidCoordinates, "latitude %v out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, eris.Wrapf(ErrInvalidCoordinates, "longitude %v out of range", lon)
	}

	return &GeoPoint{Lat: lat, Lon: lon}, nil
}

// NormalizeText trims and NFC-normalizes a text field coming from the OCR
// collaborator. Extracted text frequently arrives with decomposed Unicode
// sequences that break equality comparisons downstream.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
