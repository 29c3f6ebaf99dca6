package primary

import (
	"encoding/json"
	"strings"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/entity"
)

// listResponse keeps each result raw so a record that cannot be decoded at
// all is skipped on its own.
type listResponse struct {
	Results []json.RawMessage `json:"results"`
}

type marker struct {
	Lat entity.FlexFloat `json:"lat"`
	Lng entity.FlexFloat `json:"lng"`
}

type facet struct {
	Group entity.FlexString `json:"group"`
	Label entity.FlexString `json:"label"`
}

type lightningLaneFlags struct {
	MultiPass  entity.FlexBool `json:"multiPass"`
	SinglePass entity.FlexBool `json:"singlePass"`
}

// vendorEntity is the subset of the finder payload that is read. Every
// field decodes leniently: a wrong type leaves it unset, and absent flags
// stay nil, never false.
type vendorEntity struct {
	ID                   entity.FlexString                       `json:"id"`
	Name                 entity.FlexString                       `json:"name"`
	EntityType           entity.FlexString                       `json:"entityType"`
	ParkID               entity.FlexString                       `json:"parkId"`
	LocationName         entity.FlexString                       `json:"locationName"`
	URL                  entity.FlexString                       `json:"url"`
	Description          entity.FlexString                       `json:"description"`
	Marker               entity.Lenient[marker]                  `json:"marker"`
	Facets               entity.Lenient[[]entity.Lenient[facet]] `json:"facets"`
	HeightRequirement    entity.FlexString                       `json:"heightRequirement"`
	LightningLane        entity.Lenient[lightningLaneFlags]      `json:"lightningLane"`
	SingleRider          entity.FlexBool                         `json:"singleRider"`
	RiderSwap            entity.FlexBool                         `json:"riderSwap"`
	VirtualQueue         entity.FlexBool                         `json:"virtualQueue"`
	Duration             entity.FlexString                       `json:"duration"`
	ServiceType          entity.FlexString                       `json:"serviceType"`
	Cuisine              entity.FlexList                         `json:"cuisine"`
	PriceRange           entity.FlexString                       `json:"priceRange"`
	MealPeriods          entity.FlexList                         `json:"mealPeriods"`
	ReservationsAccepted entity.FlexBool                         `json:"reservationsAccepted"`
	CharacterDining      entity.FlexBool                         `json:"characterDining"`
	ShowType             entity.FlexString                       `json:"showType"`
}

// decodeRecord reports false when raw is not a JSON object.
func decodeRecord(raw json.RawMessage) (vendorEntity, bool) {
	var v vendorEntity
	if err := json.Unmarshal(raw, &v); err != nil {
		return vendorEntity{}, false
	}
	return v, true
}

// Facet groups used by the finder.
const (
	facetHeight  = "height"
	facetThrill  = "thrillFactor"
	facetCuisine = "cuisine"
	facetPrice   = "priceRange"
	facetService = "serviceType"
	facetShow    = "entertainmentType"
	facetMeal    = "mealPeriod"
)

func (v vendorEntity) facetLabels(group string) []string {
	var out []string
	for _, f := range v.Facets.Val {
		if f.OK && strings.EqualFold(string(f.Val.Group), group) && f.Val.Label != "" {
			out = append(out, string(f.Val.Label))
		}
	}
	return out
}

func firstOr(primary entity.FlexString, fallback []string) string {
	if primary != "" {
		return string(primary)
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return ""
}

// cleanID strips the ";entityType=..." suffix the finder appends to ids.
func cleanID(id string) string {
	if i := strings.IndexByte(id, ';'); i >= 0 {
		return id[:i]
	}
	return id
}

// normalize maps one vendor record to an entity. Records without an id or
// name are skipped; any other missing or malformed field becomes nil.
func normalize(v vendorEntity, kind entity.Kind, dest common.Destination) (entity.Entity, bool) {
	id := cleanID(string(v.ID))
	name := string(v.Name)
	if id == "" || name == "" {
		return entity.Entity{}, false
	}
	e := entity.Entity{
		ID:            id,
		Name:          name,
		Type:          kind,
		DestinationID: dest,
		ParkID:        entity.String(string(v.ParkID)),
		ParkName:      entity.String(dest.ParkName(string(v.ParkID))),
		Land:          entity.String(string(v.LocationName)),
		URL:           entity.String(string(v.URL)),
		Description:   entity.String(string(v.Description)),
	}
	if m := v.Marker.Val; v.Marker.OK && m.Lat.Val != nil && m.Lng.Val != nil {
		e.Location = &entity.Location{Latitude: *m.Lat.Val, Longitude: *m.Lng.Val}
	}

	switch kind {
	case entity.KindAttraction:
		e.HeightRequirement = entity.ParseHeight(firstOr(v.HeightRequirement, v.facetLabels(facetHeight)))
		e.ThrillLevel = entity.InferThrillLevel(v.facetLabels(facetThrill)...)
		if ll := v.LightningLane.Val; v.LightningLane.OK {
			e.LightningLane = entity.LightningLaneTier(ll.MultiPass.True(), ll.SinglePass.True())
		}
		e.SingleRider = v.SingleRider.Val
		e.RiderSwap = v.RiderSwap.Val
		e.VirtualQueue = v.VirtualQueue.Val
		e.Duration = entity.String(string(v.Duration))
	case entity.KindDining:
		e.ServiceType = entity.String(firstOr(v.ServiceType, v.facetLabels(facetService)))
		e.CuisineTypes = []string(v.Cuisine)
		if len(e.CuisineTypes) == 0 {
			e.CuisineTypes = v.facetLabels(facetCuisine)
		}
		e.PriceRange = entity.String(firstOr(v.PriceRange, v.facetLabels(facetPrice)))
		e.MealPeriods = []string(v.MealPeriods)
		if len(e.MealPeriods) == 0 {
			e.MealPeriods = v.facetLabels(facetMeal)
		}
		e.ReservationsAccepted = v.ReservationsAccepted.Val
		e.CharacterDining = v.CharacterDining.Val
	case entity.KindShow:
		e.ShowType = entity.String(firstOr(v.ShowType, v.facetLabels(facetShow)))
		e.Duration = entity.String(string(v.Duration))
	}
	return e, true
}
