/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package normalize turns raw spreadsheet cell text into the canonical
// strings used in SMS templates: times of day, work durations, month labels,
// net pay breakdowns and dates.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// HoursToken is the unit suffix appended to work durations.
	HoursToken = "घंटे"
	// DayToken follows the day count in month labels.
	DayToken = "दिन"
	// TotalToken precedes the work duration in attendance messages.
	TotalToken = "कुल"

	// DefaultWorkDuration is used when either punch time is missing.
	DefaultWorkDuration = "08:00"

	secondsPerDay = 86400
	dateLayout    = "02-01-2006"
)

var hindiMonths = [12]string{
	"जनवरी",
	"फ़रवरी",
	"मार्च",
	"अप्रैल",
	"मई",
	"जून",
	"जुलाई",
	"अगस्त",
	"सितंबर",
	"अक्टूबर",
	"नवंबर",
	"दिसंबर",
}

var clockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// HindiMonth returns the localized name for a 1-12 month number.
func HindiMonth(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return hindiMonths[month-1]
}

// TimeOfDay converts a spreadsheet time cell to HH:MM:SS. Numeric cells are
// fractions of a day; anything else is returned trimmed.
func TimeOfDay(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	f, ok := dayFraction(s)
	if !ok {
		return s
	}
	total := int(math.Round(f * secondsPerDay))
	if total >= secondsPerDay {
		total = secondsPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Duration renders a work-duration cell as HH:MM. Numeric cells are fractions
// of a day; text is returned trimmed.
func Duration(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return s
	}
	minutes := int(math.Round(f * secondsPerDay / 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// dayFraction extracts the time part of a serial date-time value.
func dayFraction(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f - math.Floor(f), true
}

// WorkDurationFromTimes computes the elapsed HH:MM between two clock strings.
// An out time earlier than the in time is treated as crossing midnight.
func WorkDurationFromTimes(inTime, outTime string) string {
	in, okIn := clockMinutes(inTime)
	out, okOut := clockMinutes(outTime)
	if !okIn || !okOut {
		return DefaultWorkDuration
	}

	diff := out - in
	if diff < 0 {
		diff += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", diff/60, diff%60)
}

func clockMinutes(s string) (int, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return h*60 + mins, true
}

// FormatWorkDuration appends the hours unit unless it is already present.
func FormatWorkDuration(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.Contains(s, HoursToken) {
		return s
	}
	return s + "-" + HoursToken
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthLabel renders <month>-<days>-दिन. A month outside 1-12 falls back to
// the month of now; a non-positive day count falls back to the length of
// that month in now's year.
func MonthLabel(month, days int, now time.Time) string {
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	if days <= 0 {
		days = DaysInMonth(now.Year(), month)
	}
	return fmt.Sprintf("%s-%d-%s", HindiMonth(month), days, DayToken)
}

// ParseAmount parses a money cell. Blank or malformed input reports false.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// NetPay computes gross - (pf + esi).
func NetPay(gross, pf, esi decimal.Decimal) decimal.Decimal {
	return gross.Sub(pf.Add(esi))
}

// NetPayLabel renders <gross>-<pf>-<esi> = <net to 2 decimals>.
func NetPayLabel(gross, pf, esi decimal.Decimal) string {
	return fmt.Sprintf("%s-%s-%s = %s", gross.String(), pf.String(), esi.String(), NetPay(gross, pf, esi).StringFixed(2))
}

// FormatDate renders DD-MM-YYYY.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

var dateLayouts = []string{"2006-01-02", dateLayout, "02/01/2006", time.RFC3339}

// ParseDate accepts YYYY-MM-DD, DD-MM-YYYY, DD/MM/YYYY or RFC3339. Empty input means now.
func ParseDate(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return now, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
}
