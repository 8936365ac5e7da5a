package market

import (
	"github.com/bobmcallan/marketview/internal/models"
)

// coinGeckoDays maps each range to the provider's days parameter.
// RangeDay deliberately requests 60 days of daily samples.
var coinGeckoDays = map[models.TimeRange]string{
	models.RangeDay:   "60",
	models.RangeWeek:  "7",
	models.RangeMonth: "30",
	models.RangeYear:  "365",
	models.Range2Y:    "730",
	models.Range4Y:    "1460",
	models.Range8Y:    "2920",
	models.RangeMax:   "max",
}

// CoinGeckoDays returns the days query value for r. Unknown ranges fall back to month.
func CoinGeckoDays(r models.TimeRange) string {
	if d, ok := coinGeckoDays[r]; ok {
		return d
	}
	return coinGeckoDays[models.DefaultTimeRange]
}
