package status

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fleetworks/internal/category"
	"fleetworks/internal/ledger"
	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
)

// =============================================================================
// Status Calculator Test Suite
// =============================================================================
// Classification is the one place boundary semantics live. Every boundary
// (window edge, threshold equality, missing reading) gets a dedicated case.

type CalculatorSuite struct {
	suite.Suite
	calc *Calculator
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorSuite))
}

func (s *CalculatorSuite) SetupTest() {
	s.calc = NewCalculator(threshold.DefaultWindows())
}

func mileageCategory(name string) *category.Category {
	return &category.Category{
		ID:             domain.CategoryID(uuid.New()),
		Name:           name,
		ThresholdType:  threshold.ThresholdMileage,
		AppliesTo:      []category.AssetClass{category.ClassVehicle},
		Responsibility: category.ResponsibilityWorkshop,
		Active:         true,
	}
}

func dateCategory(name string) *category.Category {
	return &category.Category{
		ID:             domain.CategoryID(uuid.New()),
		Name:           name,
		ThresholdType:  threshold.ThresholdDate,
		AppliesTo:      []category.AssetClass{category.ClassVehicle},
		Responsibility: category.ResponsibilityOffice,
		Active:         true,
	}
}

func mileageFact(due int64) *ledger.Fact {
	return &ledger.Fact{Value: threshold.MileageValue(due)}
}

func dateFact(due time.Time) *ledger.Fact {
	return &ledger.Fact{Value: threshold.DateValue(due)}
}

func reading(r threshold.Reading) *threshold.Reading { return &r }

// =============================================================================
// Unknown Cases
// =============================================================================

func (s *CalculatorSuite) TestUnknown() {
	cat := mileageCategory("cambelt")

	s.Run("nil fact is unknown", func() {
		got := s.calc.Classify(nil, cat, reading(threshold.MeterReading(100000)))
		s.Equal(threshold.StatusUnknown, got)
	})

	s.Run("valueless fact is unknown", func() {
		fact := &ledger.Fact{SyncStatus: ledger.SyncError}
		got := s.calc.Classify(fact, cat, reading(threshold.MeterReading(100000)))
		s.Equal(threshold.StatusUnknown, got)
	})

	s.Run("meter category with no reading is unknown regardless of fact", func() {
		got := s.calc.Classify(mileageFact(120000), cat, nil)
		s.Equal(threshold.StatusUnknown, got)
	})

	s.Run("value kind mismatched to threshold type is unknown", func() {
		fact := &ledger.Fact{Value: threshold.TextValue("checked")}
		got := s.calc.Classify(fact, cat, reading(threshold.MeterReading(100000)))
		s.Equal(threshold.StatusUnknown, got)
	})
}

// =============================================================================
// Cambelt Scenario (mileage thresholds)
// =============================================================================

func (s *CalculatorSuite) TestCambeltScenario() {
	cat := mileageCategory("cambelt")
	fact := mileageFact(120000)

	cases := []struct {
		name    string
		current int64
		want    threshold.Status
	}{
		{"well under threshold", 100000, threshold.StatusOK},
		{"inside due-soon window", 116000, threshold.StatusDueSoon},
		{"exactly at window edge", 115000, threshold.StatusDueSoon},
		{"one under window edge", 114999, threshold.StatusOK},
		{"equal to threshold", 120000, threshold.StatusOverdue},
		{"past threshold", 121000, threshold.StatusOverdue},
	}
	calc := NewCalculator(threshold.Windows{DateLeadDays: 14, MileageLead: 5000, HoursLead: 20})
	for _, tc := range cases {
		s.Run(tc.name, func() {
			got := calc.Classify(fact, cat, reading(threshold.MeterReading(tc.current)))
			s.Equal(tc.want, got)
		})
	}
}

// =============================================================================
// Date Thresholds
// =============================================================================

func (s *CalculatorSuite) TestDateThresholds() {
	cat := dateCategory("mot")
	due := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	fact := dateFact(due)

	cases := []struct {
		name  string
		today time.Time
		want  threshold.Status
	}{
		{"well before window", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), threshold.StatusOK},
		{"exactly at window edge", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), threshold.StatusDueSoon},
		{"one day before window", time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), threshold.StatusOK},
		{"day before due", time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), threshold.StatusDueSoon},
		{"on due date", due, threshold.StatusOverdue},
		{"past due date", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), threshold.StatusOverdue},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			got := s.calc.Classify(fact, cat, reading(threshold.DateReading(tc.today)))
			s.Equal(tc.want, got)
		})
	}

	s.Run("time of day does not change classification", func() {
		morning := s.calc.Classify(fact, cat, reading(threshold.DateReading(due.Add(7*time.Hour))))
		evening := s.calc.Classify(fact, cat, reading(threshold.DateReading(due.Add(23*time.Hour))))
		s.Equal(morning, evening)
		s.Equal(threshold.StatusOverdue, morning)
	})
}

// =============================================================================
// First-Due Facts
// =============================================================================

func (s *CalculatorSuite) TestFirstDueFacts() {
	cat := dateCategory("mot")
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fact := dateFact(due)
	fact.FirstDue = true

	s.Run("future first-due date is not_yet_due", func() {
		today := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		got := s.calc.Classify(fact, cat, reading(threshold.DateReading(today)))
		s.Equal(threshold.StatusNotYetDue, got)
	})

	s.Run("first test approaching is due_soon", func() {
		today := time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC)
		got := s.calc.Classify(fact, cat, reading(threshold.DateReading(today)))
		s.Equal(threshold.StatusDueSoon, got)
	})

	s.Run("missed first test is overdue", func() {
		today := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		got := s.calc.Classify(fact, cat, reading(threshold.DateReading(today)))
		s.Equal(threshold.StatusOverdue, got)
	})
}

// =============================================================================
// Purity
// =============================================================================

func (s *CalculatorSuite) TestClassifyIsPure() {
	cat := mileageCategory("cambelt")
	fact := mileageFact(120000)
	r := reading(threshold.MeterReading(119700))

	first := s.calc.Classify(fact, cat, r)
	for i := 0; i < 100; i++ {
		s.Equal(first, s.calc.Classify(fact, cat, r))
	}
	s.Equal(threshold.StatusDueSoon, first)
}
