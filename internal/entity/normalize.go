package entity

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var heightRe = regexp.MustCompile(`(?i)(\d+)\s*(inches|in|"|cm)`)

// ParseHeight reads a free-text requirement such as "44 in (112 cm) or
// taller". The first number with a unit wins. It returns nil when no
// measurement is found.
func ParseHeight(raw string) *HeightRequirement {
	desc := strings.TrimSpace(raw)
	if desc == "" {
		return nil
	}
	m := heightRe.FindStringSubmatch(desc)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return nil
	}
	h := &HeightRequirement{Description: desc}
	if strings.EqualFold(m[2], "cm") {
		h.Centimeters = n
		h.Inches = int(math.Round(float64(n) / 2.54))
	} else {
		h.Inches = n
		h.Centimeters = int(math.Round(float64(n) * 2.54))
	}
	return h
}

var thrillWords = []struct {
	level ThrillLevel
	words []string
}{
	{ThrillThrill, []string{"thrill", "big drop", "scary", "intense"}},
	{ThrillModerate, []string{"moderate", "small drop", "spinning"}},
	{ThrillFamily, []string{"family", "all ages", "kids", "slow"}},
}

// InferThrillLevel classifies by substring over the given labels. Stronger
// levels win when several match.
func InferThrillLevel(labels ...string) *ThrillLevel {
	text := strings.ToLower(strings.Join(labels, " | "))
	if strings.TrimSpace(text) == "" {
		return nil
	}
	for _, tw := range thrillWords {
		for _, w := range tw.words {
			if strings.Contains(text, w) {
				lvl := tw.level
				return &lvl
			}
		}
	}
	return nil
}

// LightningLaneTier returns the paid-access tier. Single pass wins when an
// entity is flagged for both.
func LightningLaneTier(multiPass, singlePass bool) *LightningLane {
	switch {
	case singlePass:
		return &LightningLane{Tier: TierSinglePass}
	case multiPass:
		return &LightningLane{Tier: TierMultiPass}
	default:
		return nil
	}
}

// String returns a pointer to the trimmed s, or nil when it is blank.
func String(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func Bool(b bool) *bool {
	return &b
}

// ParseBool reads loose yes/no values. It returns nil for anything else.
func ParseBool(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "available", "accepted":
		return Bool(true)
	case "false", "no", "n", "0", "unavailable", "not accepted":
		return Bool(false)
	}
	return nil
}

// SplitList splits comma or slash separated values, dropping blanks. It
// returns nil when nothing remains.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
