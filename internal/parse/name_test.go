package parse

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSlotName(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  SlotName
		expectErr bool
	}{
		{
			name:     "Canonical",
			raw:      "A-12",
			expected: SlotName{Section: "A", Seq: 12},
		},
		{
			name:     "Lower case without separator",
			raw:      "b3",
			expected: SlotName{Section: "B", Seq: 3},
		},
		{
			name:     "Space separator and padding",
			raw:      "  ev 07 ",
			expected: SlotName{Section: "EV", Seq: 7},
		},
		{
			name:     "Hash separator",
			raw:      "C#1",
			expected: SlotName{Section: "C", Seq: 1},
		},
		{
			name:      "Missing sequence",
			raw:       "A-",
			expectErr: true,
		},
		{
			name:      "Zero sequence",
			raw:       "A-0",
			expectErr: true,
		},
		{
			name:      "Missing section",
			raw:       "12",
			expectErr: true,
		},
		{
			name:      "Trailing garbage",
			raw:       "A-12x",
			expectErr: true,
		},
		{
			name:      "Empty",
			raw:       "",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseSlotName(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, parsed)
			}
		})
	}
}

func TestSlotName_String(t *testing.T) {
	n, err := ParseSlotName("a-012")
	assert.NoError(t, err)
	assert.Equal(t, "A-12", n.String())
}

func TestLessRaw_NaturalOrder(t *testing.T) {
	names := []string{"A-10", "B-1", "A-2", "lobby", "A-1"}
	sort.SliceStable(names, func(i, j int) bool { return LessRaw(names[i], names[j]) })
	assert.Equal(t, []string{"A-1", "A-2", "A-10", "B-1", "lobby"}, names)
}
