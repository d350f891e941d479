package period

import (
	"strconv"

	"golang.org/x/text/language"

	"kameti/internal/core"
)

var monthNames = [][12]string{
	{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	{"جنوری", "فروری", "مارچ", "اپریل", "مئی", "جون",
		"جولائی", "اگست", "ستمبر", "اکتوبر", "نومبر", "دسمبر"},
}

// labelMatcher picks a month-name table; index i matches monthNames[i].
var labelMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Urdu,
})

// Label renders the start of period index as "Month Year" in the requested
// locale (BCP 47, e.g. "en", "ur-PK"). Unknown locales render in English.
// The result depends only on its arguments.
func Label(start core.Date, index int, t core.CommitteeType, locale string) string {
	d := For(t).Advance(start, index)
	names := monthNames[localeIndex(locale)]
	return names[d.Month()-1] + " " + strconv.Itoa(d.Year())
}

// MonthLabel is Label for a monthly schedule.
func MonthLabel(start core.Date, index int, locale string) string {
	return Label(start, index, core.Monthly, locale)
}

func localeIndex(locale string) int {
	tag, err := language.Parse(locale)
	if err != nil {
		return 0
	}
	_, idx, conf := labelMatcher.Match(tag)
	if conf == language.No {
		return 0
	}
	return idx
}
