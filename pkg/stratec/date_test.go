package stratec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(19561217)
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 1956, Month: 12, Day: 17}, d)
	assert.Equal(t, "1956-12-17", d.String())
	assert.Equal(t, uint32(19561217), d.Packed())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, v := range []uint32{0, 19561300, 19560001, 19560100, 19560230, 19000229, 19560431} {
		_, err := ParseDate(v)
		var de *DateError
		assert.True(t, errors.As(err, &de), "value %d", v)
	}

	// Leap days exist in leap years only.
	_, err := ParseDate(20000229)
	assert.NoError(t, err)
}

func TestRoundToNearestMonth(t *testing.T) {
	testCases := []struct {
		name string
		in   uint32
		want uint32
	}{
		{"past midpoint rolls into next year", 19561217, 19570101},
		{"midpoint keeps birth month", 19561216, 19561201},
		{"first of month is unchanged", 19561201, 19561201},
		{"early in month", 19800305, 19800301},
		{"late in month", 19800328, 19800401},
		{"february midpoint in common year", 19810215, 19810201},
		{"february in leap year", 19800216, 19800301},
		{"end of january", 19900131, 19900201},
		{"thirty day month midpoint", 19900416, 19900401},
		{"thirty day month past midpoint", 19900417, 19900501},
		{"thirty day month before midpoint", 19900415, 19900401},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RoundToNearestMonth(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Packed())
			assert.Equal(t, 1, got.Day)
		})
	}
}

func TestRoundToNearestMonth_Idempotent(t *testing.T) {
	for year := 1900; year <= 2004; year += 13 {
		for month := 1; month <= 12; month++ {
			for day := 1; day <= 28; day += 3 {
				d := Date{Year: year, Month: month, Day: day}
				once, err := RoundToNearestMonth(d.Packed())
				require.NoError(t, err)
				twice, err := RoundToNearestMonth(once.Packed())
				require.NoError(t, err)
				assert.Equal(t, once, twice, "date %s", d)
			}
		}
	}
}

func TestRoundToNearestMonth_InvalidDate(t *testing.T) {
	_, err := RoundToNearestMonth(19561317)
	var de *DateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, uint32(19561317), de.Value)
}
