package attendance

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"attendance-analyzer-go/models"
)

const (
	// WorkingDaysApril is the denominator of the April percentage
	WorkingDaysApril = 8
	// LowAttendanceThreshold is the default cut-off for LowAttendance
	LowAttendanceThreshold = 75.0

	monthApril = "April"

	// aprilTenthsPerDay is one April day in tenths of a percent
	aprilTenthsPerDay = 1000 / WorkingDaysApril
)

var (
	errNegative = errors.New("must not be negative")
	errNotPos   = errors.New("must be positive")
	errNotReal  = errors.New("not a finite number")
)

// Round1 rounds x to one decimal place, halves away from zero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Aggregate converts rows into student records, in input order, and computes
// the dataset statistics. It fails on the first row that does not convert;
// there is no partial result.
func Aggregate(rows []RawRow) (*models.DatasetSummary, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	// Means are taken over tenths of a percent so the sums are exact and the
	// halfway case rounds the same way as Round1.
	students := make([]models.StudentRecord, 0, len(rows))
	var attendanceTenths, aprilTenths int64
	for i, row := range rows {
		rec, err := toRecord(i, row)
		if err != nil {
			return nil, err
		}
		students = append(students, rec)
		attendanceTenths += int64(math.Round(rec.AttendancePercent * 10))
		aprilTenths += int64(rec.April) * aprilTenthsPerDay
	}

	return &models.DatasetSummary{
		TotalStudents:     len(students),
		AverageAttendance: meanTenths(attendanceTenths, len(students)),
		MonthlyData: []models.MonthlyAttendance{
			{Month: monthApril, Attendance: meanTenths(aprilTenths, len(students))},
		},
		Students: students,
	}, nil
}

// meanTenths returns sum/n, both in tenths, as a percent rounded half away
// from zero. sum must not be negative.
func meanTenths(sum int64, n int) float64 {
	d := int64(n)
	return float64((2*sum+d)/(2*d)) / 10
}

// toRecord does not check total against decToMar+april, clamp the April
// percentage, or look for repeated roll numbers.
func toRecord(i int, row RawRow) (models.StudentRecord, error) {
	rollNo, err := parseCount(i, FieldRollNo, row.RollNo)
	if err != nil {
		return models.StudentRecord{}, err
	}
	if rollNo < 1 {
		return models.StudentRecord{}, &MalformedRowError{Row: i, Field: FieldRollNo, Value: row.RollNo, Err: errNotPos}
	}
	decToMar, err := parseCount(i, FieldDecToMar, row.DecToMar)
	if err != nil {
		return models.StudentRecord{}, err
	}
	april, err := parseCount(i, FieldApril, row.April)
	if err != nil {
		return models.StudentRecord{}, err
	}
	total, err := parseCount(i, FieldTotal, row.Total)
	if err != nil {
		return models.StudentRecord{}, err
	}

	raw := strings.TrimSpace(row.AttendancePercent)
	percent, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.StudentRecord{}, &MalformedRowError{Row: i, Field: FieldAttendancePercent, Value: row.AttendancePercent, Err: err}
	}
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return models.StudentRecord{}, &MalformedRowError{Row: i, Field: FieldAttendancePercent, Value: row.AttendancePercent, Err: errNotReal}
	}
	if percent < 0 {
		return models.StudentRecord{}, &MalformedRowError{Row: i, Field: FieldAttendancePercent, Value: row.AttendancePercent, Err: errNegative}
	}

	return models.StudentRecord{
		RollNo:            rollNo,
		AdmissionNo:       row.AdmissionNo,
		Name:              strings.TrimSpace(row.Name),
		DecToMar:          decToMar,
		April:             april,
		Total:             total,
		AttendancePercent: percent,
		AprilPercent:      Round1(float64(april) / WorkingDaysApril * 100),
	}, nil
}

func parseCount(i int, field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &MalformedRowError{Row: i, Field: field, Value: value, Err: err}
	}
	if n < 0 {
		return 0, &MalformedRowError{Row: i, Field: field, Value: value, Err: errNegative}
	}
	return n, nil
}
