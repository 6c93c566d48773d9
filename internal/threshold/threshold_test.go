package threshold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCompareMileage(t *testing.T) {
	cmp, err := CompareFor(ThresholdMileage, Windows{MileageLead: 5000})
	require.NoError(t, err)

	due := MeterReading(120000)
	tests := []struct {
		name    string
		current int64
		want    Status
	}{
		{"well under threshold", 100000, StatusOK},
		{"inside window", 116000, StatusDueSoon},
		{"exactly at window edge", 115000, StatusDueSoon},
		{"one below window edge", 114999, StatusOK},
		{"equal to threshold is overdue", 120000, StatusOverdue},
		{"past threshold", 121000, StatusOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cmp(MeterReading(tt.current), due))
		})
	}
}

func TestCompareHoursUsesHoursLead(t *testing.T) {
	cmp, err := CompareFor(ThresholdHours, Windows{HoursLead: 20})
	require.NoError(t, err)

	due := MeterReading(500)
	assert.Equal(t, StatusDueSoon, cmp(MeterReading(480), due))
	assert.Equal(t, StatusOK, cmp(MeterReading(479), due))
	assert.Equal(t, StatusOverdue, cmp(MeterReading(500), due))
}

func TestCompareDate(t *testing.T) {
	cmp, err := CompareFor(ThresholdDate, Windows{DateLeadDays: 14})
	require.NoError(t, err)

	due := DateReading(date("2025-06-15"))
	tests := []struct {
		name  string
		today string
		want  Status
	}{
		{"well ahead of due date", "2025-05-01", StatusOK},
		{"exactly at window edge", "2025-06-01", StatusDueSoon},
		{"day before window edge", "2025-05-31", StatusOK},
		{"inside window", "2025-06-10", StatusDueSoon},
		{"on the due date is overdue", "2025-06-15", StatusOverdue},
		{"past the due date", "2025-06-16", StatusOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cmp(DateReading(date(tt.today)), due))
		})
	}

	t.Run("time of day does not change classification", func(t *testing.T) {
		lateEvening := date("2025-06-01").Add(23*time.Hour + 59*time.Minute)
		assert.Equal(t, StatusDueSoon, cmp(DateReading(lateEvening), due))
	})
}

func TestCompareIsDeterministic(t *testing.T) {
	cmp, err := CompareFor(ThresholdMileage, DefaultWindows())
	require.NoError(t, err)

	current, due := MeterReading(119_600), MeterReading(120_000)
	first := cmp(current, due)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, cmp(current, due))
	}
}

func TestParseValue(t *testing.T) {
	t.Run("mileage", func(t *testing.T) {
		v, err := ParseValue(ValueMileage, "125000")
		require.NoError(t, err)
		assert.Equal(t, int64(125000), v.Mileage)
		assert.Equal(t, "125000", v.String())

		for _, raw := range []string{"0", "-5", "12.5", "abc", ""} {
			_, err := ParseValue(ValueMileage, raw)
			assert.Error(t, err, "raw=%q", raw)
		}
	})

	t.Run("date", func(t *testing.T) {
		v, err := ParseValue(ValueDate, "2025-06-01")
		require.NoError(t, err)
		assert.Equal(t, "2025-06-01", v.String())

		_, err = ParseValue(ValueDate, "2025-02-30")
		assert.Error(t, err)
		_, err = ParseValue(ValueDate, "01/06/2025")
		assert.Error(t, err)
	})

	t.Run("boolean accepts literals only", func(t *testing.T) {
		v, err := ParseValue(ValueBoolean, "true")
		require.NoError(t, err)
		assert.True(t, v.Bool)

		for _, raw := range []string{"yes", "1", "TRUE", ""} {
			_, err := ParseValue(ValueBoolean, raw)
			assert.Error(t, err, "raw=%q", raw)
		}
	})

	t.Run("text passes through", func(t *testing.T) {
		v, err := ParseValue(ValueText, "replaced nearside wiper")
		require.NoError(t, err)
		assert.Equal(t, "replaced nearside wiper", v.String())
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := ParseValue(ValueType("hours"), "12")
		assert.Error(t, err)
	})
}
