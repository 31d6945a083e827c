package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	isoDate = "2006-01-02"
	// serialUnixOffset is the spreadsheet serial of 1970-01-01 (epoch 1899-12-30).
	serialUnixOffset = 25569
	maxSerial        = 2958465
)

var (
	reISODate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reSlashDate  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	reSerialDate = regexp.MustCompile(`^\d+(\.\d+)?$`)
	reNamedMonth = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]+)\.?\s+(\d{4})$`)

	// indonesianMonths maps lower-cased Indonesian month names and their
	// usual abbreviations.
	indonesianMonths = map[string]time.Month{
		"januari":   time.January,
		"jan":       time.January,
		"februari":  time.February,
		"feb":       time.February,
		"pebruari":  time.February,
		"maret":     time.March,
		"mar":       time.March,
		"april":     time.April,
		"apr":       time.April,
		"mei":       time.May,
		"juni":      time.June,
		"jun":       time.June,
		"juli":      time.July,
		"jul":       time.July,
		"agustus":   time.August,
		"agu":       time.August,
		"agt":       time.August,
		"ags":       time.August,
		"september": time.September,
		"sep":       time.September,
		"sept":      time.September,
		"oktober":   time.October,
		"okt":       time.October,
		"november":  time.November,
		"nov":       time.November,
		"nopember":  time.November,
		"desember":  time.December,
		"des":       time.December,
	}

	fallbackDateLayouts = []string{
		"02-01-2006",
		"2006/01/02",
		"2 January 2006",
		"January 2, 2006",
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
)

// ParseDate normalises a birth date cell into YYYY-MM-DD. numeric marks cells
// the source stored as numbers, which are read as spreadsheet serial dates.
// An unparseable value yields ("", false).
func ParseDate(raw string, numeric bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if reISODate.MatchString(raw) {
		if _, err := time.Parse(isoDate, raw); err == nil {
			return raw, true
		}
		return "", false
	}

	if m := reSlashDate.FindStringSubmatch(raw); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if d.Day() != day || int(d.Month()) != month {
			return "", false
		}
		return d.Format(isoDate), true
	}

	if numeric || reSerialDate.MatchString(raw) {
		serial, err := strconv.ParseFloat(raw, 64)
		if err == nil && serial > 0 && serial <= maxSerial {
			secs := int64(math.Floor(serial)-serialUnixOffset) * 86400
			return time.Unix(secs, 0).UTC().Format(isoDate), true
		}
		return "", false
	}

	if m := reNamedMonth.FindStringSubmatch(raw); m != nil {
		if month, ok := indonesianMonths[strings.ToLower(m[2])]; ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if d.Day() != day || d.Month() != month {
				return "", false
			}
			return d.Format(isoDate), true
		}
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(isoDate), true
		}
	}
	return "", false
}
