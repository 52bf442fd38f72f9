package service

import (
	"fmt"
	"strings"
)

// LogisticsType selects the provider sub-API: convenience-store pickup (CVS)
// or door-to-door delivery (Home).
type LogisticsType string

const (
	TypeCVS  LogisticsType = "CVS"
	TypeHome LogisticsType = "Home"
)

// ParseLogisticsType normalizes caller input (case, surrounding whitespace)
// into a closed value. Raw string comparison at call sites is what this
// boundary exists to prevent.
func ParseLogisticsType(value string) (LogisticsType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "CVS":
		return TypeCVS, nil
	case "HOME":
		return TypeHome, nil
	default:
		return "", fmt.Errorf("unknown logistics type %q", value)
	}
}

// Direction distinguishes a forward shipment (merchant to customer) from a
// reverse return shipment (customer back to merchant).
type Direction string

const (
	DirectionForward Direction = "Forward"
	DirectionReverse Direction = "Reverse"
)

// Mode is the CVS sub-variant (store-network contract). It only matters for
// forward CVS shipments.
type Mode string

const (
	ModeB2C Mode = "B2C"
	ModeC2C Mode = "C2C"
)

// ParseMode defaults a blank value to B2C.
func ParseMode(value string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "B2C":
		return ModeB2C, nil
	case "C2C":
		return ModeC2C, nil
	default:
		return "", fmt.Errorf("unknown mode %q", value)
	}
}

// Environment selects the credential set and the provider base host.
type Environment string

const (
	EnvProduction Environment = "Production"
	EnvStage      Environment = "Stage"
)

// ParseEnvironment defaults a blank value to Stage so a misconfigured
// deployment never signs against the production contract by accident.
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "stage", "staging":
		return EnvStage, nil
	case "production", "prod":
		return EnvProduction, nil
	default:
		return "", fmt.Errorf("unknown environment %q", value)
	}
}
