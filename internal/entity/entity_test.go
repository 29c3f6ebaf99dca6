package entity

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/warpdl/parkdl/common"
)

func TestParseHeight(t *testing.T) {
	tests := []struct {
		in   string
		want *HeightRequirement
	}{
		{"44 in", &HeightRequirement{Inches: 44, Centimeters: 112, Description: "44 in"}},
		{"  40 inches (102 cm) or taller ", &HeightRequirement{Inches: 40, Centimeters: 102, Description: "40 inches (102 cm) or taller"}},
		{`48"`, &HeightRequirement{Inches: 48, Centimeters: 122, Description: `48"`}},
		{"107cm", &HeightRequirement{Inches: 42, Centimeters: 107, Description: "107cm"}},
		{"Any Height", nil},
		{"", nil},
		{"0 in", nil},
	}
	for _, tt := range tests {
		got := ParseHeight(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseHeight(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestInferThrillLevel(t *testing.T) {
	tests := []struct {
		in   []string
		want ThrillLevel
	}{
		{[]string{"Thrill Rides"}, ThrillThrill},
		{[]string{"Big Drops", "Family"}, ThrillThrill},
		{[]string{"Spinning", "Family"}, ThrillModerate},
		{[]string{"All Ages"}, ThrillFamily},
	}
	for _, tt := range tests {
		got := InferThrillLevel(tt.in...)
		if got == nil || *got != tt.want {
			t.Errorf("InferThrillLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := InferThrillLevel("Indoor", "Air conditioning"); got != nil {
		t.Errorf("unmatched labels = %v, want nil", *got)
	}
	if got := InferThrillLevel(); got != nil {
		t.Errorf("no labels = %v, want nil", *got)
	}
}

func TestLightningLaneTier(t *testing.T) {
	if got := LightningLaneTier(true, true); got == nil || got.Tier != TierSinglePass {
		t.Errorf("both flags = %+v, want single-pass", got)
	}
	if got := LightningLaneTier(true, false); got == nil || got.Tier != TierMultiPass {
		t.Errorf("multi = %+v", got)
	}
	if got := LightningLaneTier(false, false); got != nil {
		t.Errorf("none = %+v, want nil", got)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"attractions": KindAttraction,
		"Dining":      KindDining,
		"RESTAURANT":  KindDining,
		"shows":       KindShow,
	} {
		if got, err := ParseKind(in); err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("hotels"); err != ErrUnknownKind {
		t.Errorf("ParseKind(hotels) err = %v", err)
	}
}

func TestMarshalJSON_NullsAndTypeFields(t *testing.T) {
	e := Entity{
		ID:            "80010110",
		Name:          "Space Mountain",
		Type:          KindAttraction,
		DestinationID: common.WaltDisneyWorld,
		ParkID:        String("80007944"),
		SingleRider:   Bool(false),
		ServiceType:   String("should not appear"),
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"heightRequirement", "thrillLevel", "lightningLane", "riderSwap", "land", "location"} {
		v, ok := m[key]
		if !ok {
			t.Errorf("key %q omitted, want null", key)
		} else if v != nil {
			t.Errorf("key %q = %v, want null", key, v)
		}
	}
	if m["singleRider"] != false {
		t.Errorf("singleRider = %v, want false", m["singleRider"])
	}
	if _, ok := m["serviceType"]; ok {
		t.Error("dining field encoded on an attraction")
	}
	if m["entityType"] != "attraction" || m["destinationId"] != "wdw" {
		t.Errorf("common fields = %v", m)
	}
}

func TestMarshalJSON_DiningAndShowKeys(t *testing.T) {
	keys := func(e Entity) map[string]bool {
		b, err := json.Marshal(e)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		out := map[string]bool{}
		for k := range m {
			out[k] = true
		}
		return out
	}
	d := keys(Entity{Type: KindDining})
	for _, k := range []string{"serviceType", "cuisineTypes", "priceRange", "mealPeriods", "reservationsAccepted", "characterDining"} {
		if !d[k] {
			t.Errorf("dining missing %q", k)
		}
	}
	if d["heightRequirement"] || d["showType"] {
		t.Error("dining carries foreign keys")
	}
	s := keys(Entity{Type: KindShow})
	if !s["showType"] || !s["duration"] || s["cuisineTypes"] {
		t.Errorf("show keys = %v", s)
	}
}

func TestEntityJSONRoundTrip(t *testing.T) {
	lvl := ThrillFamily
	in := Entity{
		ID: "1", Name: "Carousel", Type: KindAttraction, DestinationID: common.DisneylandResort,
		HeightRequirement: ParseHeight("44 in"), ThrillLevel: &lvl,
		LightningLane: LightningLaneTier(true, false), Location: &Location{Latitude: 33.8, Longitude: -117.9},
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Entity
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in  %+v\n out %+v", in, out)
	}
}

func TestHelpers(t *testing.T) {
	if String("  ") != nil || *String(" x ") != "x" {
		t.Error("String")
	}
	if v := ParseBool("Yes"); v == nil || !*v {
		t.Error("ParseBool(Yes)")
	}
	if v := ParseBool("no"); v == nil || *v {
		t.Error("ParseBool(no)")
	}
	if ParseBool("maybe") != nil {
		t.Error("ParseBool(maybe) should be nil")
	}
	if got := SplitList("American, Steakhouse / Grill;"); !reflect.DeepEqual(got, []string{"American", "Steakhouse", "Grill"}) {
		t.Errorf("SplitList = %v", got)
	}
	if SplitList(" , ") != nil {
		t.Error("SplitList of blanks should be nil")
	}
}

func TestLenientTypes(t *testing.T) {
	var v struct {
		S    FlexString                            `json:"s"`
		N    FlexString                            `json:"n"`
		B    FlexString                            `json:"b"`
		O    FlexString                            `json:"o"`
		L1   FlexList                              `json:"l1"`
		L2   FlexList                              `json:"l2"`
		L3   FlexList                              `json:"l3"`
		F    FlexFloat                             `json:"f"`
		Flag FlexBool                              `json:"flag"`
		Loc  Lenient[Location]                     `json:"loc"`
		Bad  Lenient[Location]                     `json:"bad"`
		List Lenient[[]Lenient[HeightRequirement]] `json:"list"`
	}
	raw := `{"s": " Tomorrowland ", "n": 44.5, "b": true, "o": {"x": 1},
		"l1": "French, American", "l2": ["A", 3, null, {"x": 1}], "l3": {"x": 1},
		"f": "28.4", "flag": "yes",
		"loc": {"latitude": 1, "longitude": 2}, "bad": "nowhere",
		"list": [{"inches": 40}, "junk"]}`
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v.S != "Tomorrowland" || v.N != "44.5" || v.B != "true" || v.O != "" {
		t.Errorf("FlexString = %q %q %q %q", v.S, v.N, v.B, v.O)
	}
	if !reflect.DeepEqual([]string(v.L1), []string{"French", "American"}) {
		t.Errorf("l1 = %v", v.L1)
	}
	if !reflect.DeepEqual([]string(v.L2), []string{"A", "3"}) {
		t.Errorf("l2 = %v", v.L2)
	}
	if v.L3 != nil {
		t.Errorf("l3 = %v, want nil", v.L3)
	}
	if v.F.Val == nil || *v.F.Val != 28.4 {
		t.Errorf("f = %v", v.F.Val)
	}
	if !v.Flag.True() {
		t.Error("flag not set")
	}
	if !v.Loc.OK || v.Loc.Val.Longitude != 2 {
		t.Errorf("loc = %+v", v.Loc)
	}
	if v.Bad.OK {
		t.Error("bad location decoded")
	}
	if !v.List.OK || len(v.List.Val) != 2 || !v.List.Val[0].OK || v.List.Val[1].OK {
		t.Errorf("list = %+v", v.List)
	}
}
