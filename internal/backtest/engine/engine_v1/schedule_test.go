package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/fundquant/fund-backtest/internal/types"
)

type ScheduleTestSuite struct {
	suite.Suite
}

func TestScheduleSuite(t *testing.T) {
	suite.Run(t, new(ScheduleTestSuite))
}

func (suite *ScheduleTestSuite) TestDailySkipsWeekends() {
	// Mon Jan 1 2024 through Sun Jan 14: 10 weekdays.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

	candidates := GenerateSchedule(start, end, types.FrequencyDaily)
	suite.Len(candidates, 10)

	for _, c := range candidates {
		suite.NotEqual(time.Saturday, c.Weekday())
		suite.NotEqual(time.Sunday, c.Weekday())
	}
}

func (suite *ScheduleTestSuite) TestWeeklyStepsSevenDays() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	candidates := GenerateSchedule(start, end, types.FrequencyWeekly)
	suite.Len(candidates, 5)

	for i := 1; i < len(candidates); i++ {
		suite.Equal(7*24*time.Hour, candidates[i].Sub(candidates[i-1]))
	}
}

func (suite *ScheduleTestSuite) TestWeeklyStartOnWeekendAdvancesToMonday() {
	start := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC) // Saturday
	end := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	candidates := GenerateSchedule(start, end, types.FrequencyWeekly)
	suite.Require().NotEmpty(candidates)
	suite.Equal(time.Monday, candidates[0].Weekday())
	suite.Equal(8, candidates[0].Day())
}

func (suite *ScheduleTestSuite) TestMonthlyKeepsDayOfMonth() {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)

	candidates := GenerateSchedule(start, end, types.FrequencyMonthly)
	suite.Require().Len(candidates, 4)
	suite.Equal(time.January, candidates[0].Month())
	suite.Equal(time.April, candidates[3].Month())

	for _, c := range candidates {
		suite.NotEqual(time.Saturday, c.Weekday())
		suite.NotEqual(time.Sunday, c.Weekday())
	}
}

func (suite *ScheduleTestSuite) TestMonthlyCrossesYearBoundary() {
	start := time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	candidates := GenerateSchedule(start, end, types.FrequencyMonthly)
	suite.Require().Len(candidates, 4)
	suite.Equal(2023, candidates[0].Year())
	suite.Equal(time.February, candidates[3].Month())
	suite.Equal(2024, candidates[3].Year())
}

func (suite *ScheduleTestSuite) TestEmptyRange() {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.Empty(GenerateSchedule(start, end, types.FrequencyDaily))
}

func (suite *ScheduleTestSuite) scheduleSeries(dates ...time.Time) *types.NavSeries {
	var points []types.NavPoint
	for _, d := range dates {
		points = append(points, types.NavPoint{
			FundCode:    "000001",
			TradingDate: d,
			UnitNav:     decimal.NewFromInt(1),
		})
	}

	series, _ := types.NewNavSeries(points, []string{"000001"}, dates[0], dates[len(dates)-1])

	return series
}

func (suite *ScheduleTestSuite) TestSnapNeverMovesForward() {
	// Trading days: Tue Jan 2 and Mon Jan 8. A candidate on Fri Jan 5 snaps
	// back to Jan 2, never forward to Jan 8.
	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	jan8 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	series := suite.scheduleSeries(jan2, jan8)

	candidate := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	snapped := SnapToTradingDays([]time.Time{candidate}, series)
	suite.Require().Len(snapped, 1)
	suite.Equal(jan2, snapped[0])
}

func (suite *ScheduleTestSuite) TestSnapDropsCandidateBeforeFirstTradingDay() {
	jan8 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	series := suite.scheduleSeries(jan8)

	candidate := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	snapped := SnapToTradingDays([]time.Time{candidate}, series)
	suite.Empty(snapped, "a candidate with no earlier trading day is dropped")
}

func (suite *ScheduleTestSuite) TestSnapDeduplicates() {
	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := suite.scheduleSeries(jan2)

	candidates := []time.Time{
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}

	snapped := SnapToTradingDays(candidates, series)
	suite.Require().Len(snapped, 1)
	suite.Equal(jan2, snapped[0])
}

func (suite *ScheduleTestSuite) TestSnapExactTradingDayStays() {
	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	jan3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	series := suite.scheduleSeries(jan2, jan3)

	snapped := SnapToTradingDays([]time.Time{jan3}, series)
	suite.Require().Len(snapped, 1)
	suite.Equal(jan3, snapped[0])
}
