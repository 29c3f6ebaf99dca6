// Package entity defines the normalized catalog record both data clients
// produce. Attributes a source cannot supply are nil and encode as JSON
// null: null means unknown, never false.
package entity

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/warpdl/parkdl/common"
)

// Kind is the closed set of entity types.
type Kind string

const (
	KindAttraction Kind = "attraction"
	KindDining     Kind = "dining"
	KindShow       Kind = "show"
)

var ErrUnknownKind = errors.New("unknown entity type")

// Kinds lists every entity type.
func Kinds() []Kind {
	return []Kind{KindAttraction, KindDining, KindShow}
}

// ParseKind accepts singular and plural spellings ("show", "shows").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attraction", "attractions":
		return KindAttraction, nil
	case "dining", "restaurant", "restaurants":
		return KindDining, nil
	case "show", "shows", "entertainment":
		return KindShow, nil
	}
	return "", ErrUnknownKind
}

// Plural is the name used in URLs and cache keys.
func (k Kind) Plural() string {
	switch k {
	case KindAttraction:
		return "attractions"
	case KindShow:
		return "shows"
	default:
		return string(k)
	}
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type HeightRequirement struct {
	Inches      int    `json:"inches"`
	Centimeters int    `json:"centimeters"`
	Description string `json:"description"`
}

type ThrillLevel string

const (
	ThrillFamily   ThrillLevel = "family"
	ThrillModerate ThrillLevel = "moderate"
	ThrillThrill   ThrillLevel = "thrill"
)

const (
	TierMultiPass  = "multi-pass"
	TierSinglePass = "single-pass"
)

type LightningLane struct {
	Tier string `json:"tier"`
}

// Entity is one normalized catalog record. Only the attributes of its own
// Type are encoded.
type Entity struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Type          Kind               `json:"entityType"`
	DestinationID common.Destination `json:"destinationId"`
	ParkID        *string            `json:"parkId"`
	ParkName      *string            `json:"parkName"`
	Land          *string            `json:"land"`
	Location      *Location          `json:"location"`
	URL           *string            `json:"url"`
	Description   *string            `json:"description"`

	// Attractions.
	HeightRequirement *HeightRequirement `json:"heightRequirement"`
	ThrillLevel       *ThrillLevel       `json:"thrillLevel"`
	LightningLane     *LightningLane     `json:"lightningLane"`
	SingleRider       *bool              `json:"singleRider"`
	RiderSwap         *bool              `json:"riderSwap"`
	VirtualQueue      *bool              `json:"virtualQueue"`

	// Attractions and shows.
	Duration *string `json:"duration"`

	// Dining.
	ServiceType          *string  `json:"serviceType"`
	CuisineTypes         []string `json:"cuisineTypes"`
	PriceRange           *string  `json:"priceRange"`
	MealPeriods          []string `json:"mealPeriods"`
	ReservationsAccepted *bool    `json:"reservationsAccepted"`
	CharacterDining      *bool    `json:"characterDining"`

	// Shows.
	ShowType *string `json:"showType"`
}

type baseJSON struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Type          Kind               `json:"entityType"`
	DestinationID common.Destination `json:"destinationId"`
	ParkID        *string            `json:"parkId"`
	ParkName      *string            `json:"parkName"`
	Land          *string            `json:"land"`
	Location      *Location          `json:"location"`
	URL           *string            `json:"url"`
	Description   *string            `json:"description"`
}

type attractionJSON struct {
	baseJSON
	HeightRequirement *HeightRequirement `json:"heightRequirement"`
	ThrillLevel       *ThrillLevel       `json:"thrillLevel"`
	LightningLane     *LightningLane     `json:"lightningLane"`
	SingleRider       *bool              `json:"singleRider"`
	RiderSwap         *bool              `json:"riderSwap"`
	VirtualQueue      *bool              `json:"virtualQueue"`
	Duration          *string            `json:"duration"`
}

type diningJSON struct {
	baseJSON
	ServiceType          *string  `json:"serviceType"`
	CuisineTypes         []string `json:"cuisineTypes"`
	PriceRange           *string  `json:"priceRange"`
	MealPeriods          []string `json:"mealPeriods"`
	ReservationsAccepted *bool    `json:"reservationsAccepted"`
	CharacterDining      *bool    `json:"characterDining"`
}

type showJSON struct {
	baseJSON
	ShowType *string `json:"showType"`
	Duration *string `json:"duration"`
}

// MarshalJSON emits the common fields plus those of e.Type.
func (e Entity) MarshalJSON() ([]byte, error) {
	base := baseJSON{
		ID:            e.ID,
		Name:          e.Name,
		Type:          e.Type,
		DestinationID: e.DestinationID,
		ParkID:        e.ParkID,
		ParkName:      e.ParkName,
		Land:          e.Land,
		Location:      e.Location,
		URL:           e.URL,
		Description:   e.Description,
	}
	switch e.Type {
	case KindAttraction:
		return json.Marshal(attractionJSON{
			baseJSON:          base,
			HeightRequirement: e.HeightRequirement,
			ThrillLevel:       e.ThrillLevel,
			LightningLane:     e.LightningLane,
			SingleRider:       e.SingleRider,
			RiderSwap:         e.RiderSwap,
			VirtualQueue:      e.VirtualQueue,
			Duration:          e.Duration,
		})
	case KindDining:
		return json.Marshal(diningJSON{
			baseJSON:             base,
			ServiceType:          e.ServiceType,
			CuisineTypes:         e.CuisineTypes,
			PriceRange:           e.PriceRange,
			MealPeriods:          e.MealPeriods,
			ReservationsAccepted: e.ReservationsAccepted,
			CharacterDining:      e.CharacterDining,
		})
	case KindShow:
		return json.Marshal(showJSON{
			baseJSON: base,
			ShowType: e.ShowType,
			Duration: e.Duration,
		})
	default:
		return json.Marshal(base)
	}
}
