package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	slotNameRe = regexp.MustCompile(`^([A-Za-z]{1,8})\s*[-#\s]?\s*(\d{1,5})$`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// SlotName holds the structured form of a slot label such as "A-12".
type SlotName struct {
	Section string
	Seq     int
}

// ParseSlotName extracts the section letters and sequence number from a raw slot label.
// "a12", "A 12", "A#12" and "A-012" all parse to {A 12}.
func ParseSlotName(raw string) (SlotName, error) {
	s := strings.TrimSpace(raw)
	s = spaceRe.ReplaceAllString(s, " ")

	m := slotNameRe.FindStringSubmatch(s)
	if m == nil {
		return SlotName{}, fmt.Errorf("unable to parse slot name: %q", raw)
	}

	seq, err := strconv.Atoi(m[2])
	if err != nil || seq == 0 {
		return SlotName{}, fmt.Errorf("invalid sequence in slot name: %q", raw)
	}

	return SlotName{Section: strings.ToUpper(m[1]), Seq: seq}, nil
}

// String renders the canonical label, e.g. "A-12".
func (n SlotName) String() string {
	return fmt.Sprintf("%s-%d", n.Section, n.Seq)
}

// Less orders names by section, then numerically by sequence, so A-2 sorts before A-10.
func (n SlotName) Less(other SlotName) bool {
	if n.Section != other.Section {
		return n.Section < other.Section
	}
	return n.Seq < other.Seq
}

// LessRaw compares two raw labels naturally, falling back to plain string order
// when either does not parse.
func LessRaw(a, b string) bool {
	pa, errA := ParseSlotName(a)
	pb, errB := ParseSlotName(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return pa.Less(pb)
}
