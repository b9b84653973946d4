// Package attendance finds attendance rows in text extracted from a report
// and turns them into student records with summary statistics.
//
// The pipeline is ExtractRows followed by Aggregate; Analyze runs both.
// Everything here is pure and safe for concurrent use.
package attendance

import "attendance-analyzer-go/models"

// Analyze extracts and aggregates the attendance table in text.
func Analyze(text string) (*models.DatasetSummary, error) {
	rows := ExtractRows(text)
	if len(rows) == 0 {
		return nil, ErrExtractionFailed
	}
	return Aggregate(rows)
}

// FindStudent returns the first record with rollNo, in dataset order.
func FindStudent(ds *models.DatasetSummary, rollNo int) (models.StudentRecord, error) {
	if ds != nil {
		for _, s := range ds.Students {
			if s.RollNo == rollNo {
				return s, nil
			}
		}
	}
	return models.StudentRecord{}, ErrStudentNotFound
}

// LowAttendance returns the students whose attendance percent is strictly
// below threshold, in dataset order. The result is never nil.
func LowAttendance(ds *models.DatasetSummary, threshold float64) []models.StudentRecord {
	low := []models.StudentRecord{}
	if ds == nil {
		return low
	}
	for _, s := range ds.Students {
		if s.AttendancePercent < threshold {
			low = append(low, s)
		}
	}
	return low
}
