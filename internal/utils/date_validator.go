package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type DateFormat string

const (
	FormatISO8601      DateFormat = "2006-01-02T15:04:05Z07:00"
	FormatISO8601Milli DateFormat = "2006-01-02T15:04:05.000Z07:00"
	FormatISO8601Local DateFormat = "2006-01-02T15:04:05"
	FormatISO8601Date  DateFormat = "2006-01-02"
	FormatSQLDateTime  DateFormat = "2006-01-02 15:04:05"
	FormatEuropeanDate DateFormat = "02/01/2006"
	FormatDashDate     DateFormat = "02-01-2006"
	FormatDotDate      DateFormat = "02.01.2006"
	FormatMonthDay     DateFormat = "January 2, 2006"
	FormatShortMonth   DateFormat = "Jan 2, 2006"
	FormatDayMonth     DateFormat = "2 January 2006"
)

// Dates of birth are stored in this layout.
const DateLayout = string(FormatISO8601Date)

var slashDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

type DateValidator struct {
	supportedFormats []DateFormat
}

type ValidationResult struct {
	IsValid        bool
	DetectedFormat DateFormat
	ParsedTime     time.Time
}

// HasClock reports whether the detected layout carries a time of day.
func (r ValidationResult) HasClock() bool {
	switch r.DetectedFormat {
	case FormatISO8601, FormatISO8601Milli, FormatISO8601Local, FormatSQLDateTime:
		return true
	}
	return false
}

// NewDateValidator accepts ISO layouts first, then day-first local layouts.
// Slash dates are read day/month/year, as written on the intake forms.
func NewDateValidator() *DateValidator {
	return &DateValidator{
		supportedFormats: []DateFormat{
			FormatISO8601,
			FormatISO8601Milli,
			FormatISO8601Local,
			FormatISO8601Date,
			FormatSQLDateTime,
			FormatEuropeanDate,
			FormatDashDate,
			FormatDotDate,
			FormatMonthDay,
			FormatShortMonth,
			FormatDayMonth,
		},
	}
}

func (dv *DateValidator) ValidateAndConvert(input string) ValidationResult {
	var result ValidationResult

	input = strings.TrimSpace(input)
	if input == "" {
		return result
	}

	for _, format := range dv.supportedFormats {
		parsedTime, err := time.Parse(string(format), input)
		if err != nil || !dv.isValidForFormat(input, format) {
			continue
		}

		result.IsValid = true
		result.DetectedFormat = format
		result.ParsedTime = parsedTime
		return result
	}

	return result
}

func (dv *DateValidator) isValidForFormat(input string, format DateFormat) bool {
	if format != FormatEuropeanDate {
		return true
	}

	matches := slashDatePattern.FindStringSubmatch(input)
	if len(matches) < 4 {
		return false
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])

	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// NormalizeDate returns input as YYYY-MM-DD, or false if it is not a
// recognisable calendar date. A timestamp is reduced to the calendar day it
// names in its own offset.
func (dv *DateValidator) NormalizeDate(input string) (string, bool) {
	result := dv.ValidateAndConvert(input)
	if !result.IsValid {
		return "", false
	}
	return result.ParsedTime.Format(DateLayout), true
}

// ParseTimestamp returns input as a UTC instant. A bare date is read as
// midday UTC so it keeps its calendar day in every Australian timezone.
func (dv *DateValidator) ParseTimestamp(input string) (time.Time, bool) {
	result := dv.ValidateAndConvert(input)
	if !result.IsValid {
		return time.Time{}, false
	}
	if !result.HasClock() {
		return result.ParsedTime.Add(12 * time.Hour).UTC(), true
	}
	return result.ParsedTime.UTC(), true
}
