package fallback

import (
	"encoding/json"
	"strings"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/entity"
)

// childrenResponse keeps each child raw so a child that cannot be decoded at
// all is skipped on its own.
type childrenResponse struct {
	ID       entity.FlexString `json:"id"`
	Children []json.RawMessage `json:"children"`
}

type tag struct {
	Key   entity.FlexString `json:"key"`
	Value entity.FlexString `json:"value"`
}

type coords struct {
	Latitude  entity.FlexFloat `json:"latitude"`
	Longitude entity.FlexFloat `json:"longitude"`
}

// child decodes leniently: a field of the wrong type is left unset.
type child struct {
	ID         entity.FlexString                     `json:"id"`
	Name       entity.FlexString                     `json:"name"`
	EntityType entity.FlexString                     `json:"entityType"`
	ParentID   entity.FlexString                     `json:"parentId"`
	ParkID     entity.FlexString                     `json:"parkId"`
	Location   entity.Lenient[coords]                `json:"location"`
	Tags       entity.Lenient[[]entity.Lenient[tag]] `json:"tags"`
}

// decodeChild reports false when raw is not a JSON object.
func decodeChild(raw json.RawMessage) (child, bool) {
	var c child
	if err := json.Unmarshal(raw, &c); err != nil {
		return child{}, false
	}
	return c, true
}

func (c child) park() string {
	if c.ParkID != "" {
		return string(c.ParkID)
	}
	return string(c.ParentID)
}

func kindOf(entityType string) entity.Kind {
	switch strings.ToUpper(entityType) {
	case "ATTRACTION":
		return entity.KindAttraction
	case "RESTAURANT", "DINING":
		return entity.KindDining
	case "SHOW":
		return entity.KindShow
	}
	return ""
}

// extraction collects tag values before they are committed to an entity.
// Thrill labels and pass flags need every tag seen first.
type extraction struct {
	e          *entity.Entity
	thrill     []string
	multiPass  bool
	singlePass bool
}

type extractor func(x *extraction, value string)

// flag treats a bare tag (empty value) as true.
func flag(value string) *bool {
	if strings.TrimSpace(value) == "" {
		return entity.Bool(true)
	}
	return entity.ParseBool(value)
}

// tagTable maps lower-cased tag keys to extractors. Keys not listed are
// ignored. Each extractor only touches fields of the entity's own type;
// Entity.MarshalJSON drops the rest anyway.
var tagTable = map[string]extractor{
	"land":        func(x *extraction, v string) { x.e.Land = entity.String(v) },
	"area":        func(x *extraction, v string) { x.e.Land = entity.String(v) },
	"description": func(x *extraction, v string) { x.e.Description = entity.String(v) },
	"url":         func(x *extraction, v string) { x.e.URL = entity.String(v) },

	"heightrequirement": func(x *extraction, v string) { x.e.HeightRequirement = entity.ParseHeight(v) },
	"minimumheight":     func(x *extraction, v string) { x.e.HeightRequirement = entity.ParseHeight(v) },
	"thrilllevel":       func(x *extraction, v string) { x.thrill = append(x.thrill, v) },
	"category":          func(x *extraction, v string) { x.thrill = append(x.thrill, v) },
	"lightninglane": func(x *extraction, v string) {
		switch {
		case strings.Contains(strings.ToLower(v), "single"), strings.Contains(strings.ToLower(v), "individual"):
			x.singlePass = true
		default:
			x.multiPass = true
		}
	},
	"lightninglanemultipass":  func(x *extraction, v string) { x.multiPass = isSet(v) },
	"lightninglanesinglepass": func(x *extraction, v string) { x.singlePass = isSet(v) },
	"singlerider":             func(x *extraction, v string) { x.e.SingleRider = flag(v) },
	"riderswap":               func(x *extraction, v string) { x.e.RiderSwap = flag(v) },
	"virtualqueue":            func(x *extraction, v string) { x.e.VirtualQueue = flag(v) },
	"duration":                func(x *extraction, v string) { x.e.Duration = entity.String(v) },

	"servicetype":          func(x *extraction, v string) { x.e.ServiceType = entity.String(v) },
	"cuisine":              func(x *extraction, v string) { x.e.CuisineTypes = append(x.e.CuisineTypes, entity.SplitList(v)...) },
	"pricerange":           func(x *extraction, v string) { x.e.PriceRange = entity.String(v) },
	"mealperiods":          func(x *extraction, v string) { x.e.MealPeriods = append(x.e.MealPeriods, entity.SplitList(v)...) },
	"reservationsaccepted": func(x *extraction, v string) { x.e.ReservationsAccepted = flag(v) },
	"characterdining":      func(x *extraction, v string) { x.e.CharacterDining = flag(v) },

	"showtype": func(x *extraction, v string) { x.e.ShowType = entity.String(v) },
}

func isSet(v string) bool {
	b := flag(v)
	return b != nil && *b
}

func normalize(c child, kind entity.Kind, dest common.Destination) (entity.Entity, bool) {
	id := string(c.ID)
	name := string(c.Name)
	if id == "" || name == "" {
		return entity.Entity{}, false
	}
	e := entity.Entity{
		ID:            id,
		Name:          name,
		Type:          kind,
		DestinationID: dest,
		ParkID:        entity.String(c.park()),
	}
	if e.ParkID != nil {
		e.ParkName = entity.String(dest.ParkName(*e.ParkID))
	}
	if loc := c.Location.Val; c.Location.OK && loc.Latitude.Val != nil && loc.Longitude.Val != nil {
		e.Location = &entity.Location{Latitude: *loc.Latitude.Val, Longitude: *loc.Longitude.Val}
	}

	x := &extraction{e: &e}
	for _, t := range c.Tags.Val {
		if !t.OK {
			continue
		}
		if fn, ok := tagTable[strings.ToLower(string(t.Val.Key))]; ok {
			fn(x, string(t.Val.Value))
		}
	}
	if kind == entity.KindAttraction {
		e.ThrillLevel = entity.InferThrillLevel(x.thrill...)
		e.LightningLane = entity.LightningLaneTier(x.multiPass, x.singlePass)
	}
	return e, true
}
