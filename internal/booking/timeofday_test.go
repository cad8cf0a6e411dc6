package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"9:00", 0, true},
		{"09:5", 0, true},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"ab:cd", 0, true},
		{"09-00", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:05", TimeOfDay(545).String())
	assert.Equal(t, "00:00", TimeOfDay(0).String())
	assert.Equal(t, "23:59", TimeOfDay(1439).String())
}

func TestGenerateSlots(t *testing.T) {
	from, err := ParseTimeOfDay("09:00")
	require.NoError(t, err)
	to, err := ParseTimeOfDay("12:00")
	require.NoError(t, err)

	slots := GenerateSlots(from, to, 30)
	require.Len(t, slots, 6)
	assert.Equal(t, "09:00", slots[0].From.String())
	assert.Equal(t, "09:30", slots[0].To.String())
	assert.Equal(t, "11:30", slots[5].From.String())
	assert.Equal(t, "12:00", slots[5].To.String())
}

func TestGenerateSlotsDropsRemainder(t *testing.T) {
	from, _ := ParseTimeOfDay("09:00")
	to, _ := ParseTimeOfDay("10:50")

	slots := GenerateSlots(from, to, 30)
	require.Len(t, slots, 3)
	assert.Equal(t, "10:30", slots[2].To.String())
}

func TestGenerateSlotsDegenerateWindows(t *testing.T) {
	from, _ := ParseTimeOfDay("09:00")
	to, _ := ParseTimeOfDay("12:00")

	assert.Nil(t, GenerateSlots(to, from, 30))
	assert.Nil(t, GenerateSlots(from, from, 30))
	assert.Nil(t, GenerateSlots(from, to, 0))
	assert.Nil(t, GenerateSlots(from, to, -15))
}

func TestOverlaps(t *testing.T) {
	at := func(s string) TimeOfDay {
		v, err := ParseTimeOfDay(s)
		require.NoError(t, err)
		return v
	}

	// Identical and partial overlaps.
	assert.True(t, Overlaps(at("09:00"), at("09:30"), at("09:00"), at("09:30")))
	assert.True(t, Overlaps(at("09:00"), at("09:30"), at("09:15"), at("09:45")))
	assert.True(t, Overlaps(at("09:00"), at("10:00"), at("09:15"), at("09:30")))

	// Back-to-back intervals touch but do not overlap.
	assert.False(t, Overlaps(at("09:00"), at("09:30"), at("09:30"), at("10:00")))
	assert.False(t, Overlaps(at("09:30"), at("10:00"), at("09:00"), at("09:30")))

	// Disjoint.
	assert.False(t, Overlaps(at("09:00"), at("09:30"), at("11:00"), at("11:30")))
}

func TestParseWorkDays(t *testing.T) {
	assert.Equal(t, []string{"mon", "wed", "fri"}, ParseWorkDays("mon,wed,fri"))
	assert.Equal(t, []string{"mon", "wed"}, ParseWorkDays(" Mon , WED "))
	assert.Nil(t, ParseWorkDays(""))
	assert.Nil(t, ParseWorkDays(" , ,"))
}

func TestNewPractitionerRef(t *testing.T) {
	ref, err := NewPractitionerRef("d1", "")
	require.NoError(t, err)
	assert.Equal(t, PractitionerRef{Kind: PractitionerDoctor, ID: "d1"}, ref)

	ref, err = NewPractitionerRef("", "s1")
	require.NoError(t, err)
	assert.Equal(t, PractitionerRef{Kind: PractitionerStaff, ID: "s1"}, ref)

	_, err = NewPractitionerRef("", "")
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = NewPractitionerRef("d1", "s1")
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}
