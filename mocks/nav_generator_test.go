package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type NavGeneratorTestSuite struct {
	suite.Suite
}

func TestNavGeneratorSuite(t *testing.T) {
	suite.Run(t, new(NavGeneratorTestSuite))
}

func (suite *NavGeneratorTestSuite) TestFixedSeedIsReproducible() {
	config := DefaultNavConfig()

	first := NewNavGenerator(42).Generate(config)
	second := NewNavGenerator(42).Generate(config)

	suite.Require().Len(second, len(first))

	for i := range first {
		suite.True(first[i].UnitNav.Equal(second[i].UnitNav),
			"same seed must produce the same series")
	}
}

func (suite *NavGeneratorTestSuite) TestGeneratedDatesAreWeekdays() {
	points := GenerateYear("000001")
	suite.Len(points, 252)

	for _, p := range points {
		suite.NotEqual(time.Saturday, p.TradingDate.Weekday())
		suite.NotEqual(time.Sunday, p.TradingDate.Weekday())
	}
}

func (suite *NavGeneratorTestSuite) TestNavStaysPositive() {
	config := DefaultNavConfig()
	config.Volatility = 0.2 // extreme, to stress the floor
	config.Count = 1000

	points := NewNavGenerator(7).Generate(config)
	for _, p := range points {
		suite.True(p.UnitNav.IsPositive(), "NAV must never go non-positive, got %s", p.UnitNav)
	}
}

func (suite *NavGeneratorTestSuite) TestMultiFundCoversAllCodes() {
	codes := []string{"000001", "000002", "000003"}
	points := NewNavGenerator(42).GenerateMultiFund(codes, DefaultNavConfig())

	seen := map[string]int{}
	for _, p := range points {
		seen[p.FundCode]++
	}

	for _, code := range codes {
		suite.Equal(DefaultNavConfig().Count, seen[code])
	}
}

func (suite *NavGeneratorTestSuite) TestFromPricesExactPath() {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	points := FromPrices("000001", start, []float64{1.0, 1.2, 0.6, 0.9})

	suite.Require().Len(points, 4)
	suite.Equal(start, points[0].TradingDate)
	suite.Equal("1.2", points[1].UnitNav.String())
	suite.Equal("0.6", points[2].UnitNav.String())
}
