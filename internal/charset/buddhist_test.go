package charset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToBuddhistYear(t *testing.T) {
	d := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2567, ToBuddhistYear(d))
}

func TestGetBuddhistDateVesak(t *testing.T) {
	d := time.Date(2024, time.May, 22, 0, 0, 0, 0, time.UTC)
	bd := GetBuddhistDate(d)
	assert.Equal(t, 2567, bd.YearBE)
	assert.Equal(t, 2024, bd.YearCE)
	assert.Equal(t, 5, bd.Month)
	assert.Equal(t, 22, bd.Day)
	assert.Equal(t, "พฤษภาคม", bd.ThaiMonthName)
	assert.Equal(t, "วันพุธ", bd.ThaiDayName)
	assert.True(t, bd.IsHolyDay)
}

func TestGetBuddhistDateOrdinaryDay(t *testing.T) {
	d := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	bd := GetBuddhistDate(d)
	assert.False(t, bd.IsHolyDay)
}

func TestFormatBuddhistDate(t *testing.T) {
	d := time.Date(2024, time.May, 22, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "วันพุธ ที่ 22 พฤษภาคม พ.ศ. 2567", FormatBuddhistDate(d))
}

func TestHolidaysInMonth(t *testing.T) {
	may := HolidaysInMonth(2567, 5)
	assert.Len(t, may, 3) // Labor Day, Coronation Day, Vesak Day
	assert.Empty(t, HolidaysInMonth(2567, 9))
}

func TestIsHolyDay(t *testing.T) {
	assert.True(t, IsHolyDay(time.Date(2024, time.February, 24, 0, 0, 0, 0, time.UTC))) // Magha Puja
	assert.False(t, IsHolyDay(time.Date(2024, time.February, 25, 0, 0, 0, 0, time.UTC)))
}
