package charset

import (
	"fmt"
	"time"
)

// beOffset is the fixed Buddhist Era offset from the Common Era, applied
// unconditionally (no leap-era correction), matching the original
// implementation's GetBuddhistDate.
const beOffset = 543

// thaiMonthNames is 1-indexed; index 0 is unused so callers can index by
// time.Month directly.
var thaiMonthNames = [...]string{
	"",
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

// thaiDayNames is indexed by time.Weekday (Sunday = 0).
var thaiDayNames = [...]string{
	"วันอาทิตย์", "วันจันทร์", "วันอังคาร", "วันพุธ",
	"วันพฤหัสบดี", "วันศุกร์", "วันเสาร์",
}

// BuddhistDate is a calendar date expressed in both eras, with its Thai
// month/day names and holy-day status resolved.
type BuddhistDate struct {
	YearBE        int
	YearCE        int
	Month         int
	Day           int
	ThaiMonthName string
	ThaiDayName   string
	IsHolyDay     bool
}

// ToBuddhistYear converts t's Common Era year to Buddhist Era.
func ToBuddhistYear(t time.Time) int {
	return t.Year() + beOffset
}

// ThaiMonthName returns the Thai name for month (1-12), or "" outside that
// range.
func ThaiMonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return thaiMonthNames[month]
}

// ThaiDayName returns the Thai name for t's day of week.
func ThaiDayName(t time.Time) string {
	return thaiDayNames[t.Weekday()]
}

// GetBuddhistDate resolves t into a BuddhistDate, including Thai month/day
// names and holy-day status against the fixed Holidays table.
func GetBuddhistDate(t time.Time) BuddhistDate {
	bd := BuddhistDate{
		YearCE: t.Year(),
		YearBE: ToBuddhistYear(t),
		Month:  int(t.Month()),
		Day:    t.Day(),
	}
	bd.ThaiMonthName = ThaiMonthName(bd.Month)
	bd.ThaiDayName = ThaiDayName(t)
	bd.IsHolyDay = IsHolyDay(t)
	return bd
}

// FormatBuddhistDate renders t as "<Thai day name> ที่ <day>
// <Thai month name> พ.ศ. <BE year>".
func FormatBuddhistDate(t time.Time) string {
	bd := GetBuddhistDate(t)
	return fmt.Sprintf("%s ที่ %d %s พ.ศ. %d", bd.ThaiDayName, bd.Day, bd.ThaiMonthName, bd.YearBE)
}

// Holiday is one fixed-date national holiday or Buddhist observance day.
type Holiday struct {
	Month             int
	Day               int
	NameThai          string
	NameEnglish       string
	IsHolyDay         bool
	IsNationalHoliday bool
}

// holidays is the fixed national-holiday and Buddhist-observance table,
// carried at the original implementation's literal fixed dates for the
// two lunar observances (Magha Puja, Vesak); the original documents this
// as a simplification pending real lunar-calendar computation.
var holidays = []Holiday{
	{1, 1, "วันปีใหม่", "New Year's Day", false, true},
	{2, 24, "วันมาฆบูชา", "Magha Puja Day", true, true},
	{4, 6, "วันจักรี", "Chakri Day", false, true},
	{4, 13, "วันสงกรานต์", "Songkran Festival", false, true},
	{5, 1, "วันแรงงานแห่งชาติ", "Labor Day", false, true},
	{5, 4, "วันฉัตรมงคล", "Coronation Day", false, true},
	{5, 22, "วันวิสาขบูชา", "Vesak Day", true, true},
	{7, 28, "วันเฉลิมพระชนมพรรษาพระบาทสมเด็จพระเจ้าอยู่หัว", "HM the King's Birthday", false, true},
	{8, 12, "วันแม่แห่งชาติ", "Mother's Day", false, true},
	{10, 23, "วันปิยมหาราช", "Chulalongkorn Day", false, true},
	{12, 5, "วันพ่อแห่งชาติ", "Father's Day", false, true},
	{12, 10, "วันรัฐธรรมนูญ", "Constitution Day", false, true},
}

// HolidaysInMonth returns the fixed holidays and observance days falling
// in month (1-12) of the given Buddhist Era year. yearBE is accepted (not
// yearCE) since the table is date-only and carries no year dependency of
// its own, but callers address it by the era they're already rendering in.
func HolidaysInMonth(yearBE, month int) []Holiday {
	_ = yearBE
	var out []Holiday
	for _, h := range holidays {
		if h.Month == month {
			out = append(out, h)
		}
	}
	return out
}

// IsHolyDay reports whether t falls on a fixed holy day in the Holidays
// table.
func IsHolyDay(t time.Time) bool {
	month, day := int(t.Month()), t.Day()
	for _, h := range holidays {
		if h.IsHolyDay && h.Month == month && h.Day == day {
			return true
		}
	}
	return false
}
