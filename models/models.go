package models

import "time"

// StudentRecord is one student's attendance row from an analyzed report
type StudentRecord struct {
	RollNo            int     `json:"rollNo"`
	AdmissionNo       string  `json:"admissionNo"` // Opaque, never parsed as a number
	Name              string  `json:"name"`
	DecToMar          int     `json:"decToMar"` // Days attended December through March
	April             int     `json:"april"`    // Days attended in April
	Total             int     `json:"total"`    // As printed in the report, not recomputed
	AttendancePercent float64 `json:"attendancePercent"`
	AprilPercent      float64 `json:"aprilPercent"`
}

// MonthlyAttendance is the mean attendance percentage for one month
type MonthlyAttendance struct {
	Month      string  `json:"month"`
	Attendance float64 `json:"attendance"`
}

// DatasetSummary is the result of analyzing one attendance report
type DatasetSummary struct {
	TotalStudents     int                 `json:"totalStudents"`
	AverageAttendance float64             `json:"averageAttendance"`
	MonthlyData       []MonthlyAttendance `json:"monthlyData"`
	Students          []StudentRecord     `json:"students"`
}

// Dataset is a stored analysis, keyed by ID
type Dataset struct {
	ID        string          `json:"id"`
	FileName  string          `json:"fileName"`
	CreatedAt time.Time       `json:"createdAt"`
	Summary   *DatasetSummary `json:"summary"`
}

// AnalysisResponse is returned by the analyze endpoint: the summary plus the ID it was stored under
type AnalysisResponse struct {
	DatasetID string `json:"datasetId"`
	*DatasetSummary
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
