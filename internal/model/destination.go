package model

import "fmt"

// Destination selects the backend an upload is routed to
type Destination string

const (
	// DestinationDiagnocat sends the scan to the AI diagnostic service
	DestinationDiagnocat Destination = "diagnocat"
	// DestinationOrthanc stores the scan in the local image archive
	DestinationOrthanc Destination = "orthanc"
)

// Valid reports whether d is a known destination
func (d Destination) Valid() bool {
	switch d {
	case DestinationDiagnocat, DestinationOrthanc:
		return true
	default:
		return false
	}
}

// ParseDestination accepts exactly "diagnocat" or "orthanc"
func ParseDestination(s string) (Destination, error) {
	d := Destination(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown destination %q: want %q or %q", s, DestinationDiagnocat, DestinationOrthanc)
	}
	return d, nil
}
