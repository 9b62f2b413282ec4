package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"hostel/internal/model"
)

const AttendanceSheet = "Attendance"

// ContentTypeXLSX is the media type of the workbooks written here.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var attendanceHeader = []any{"Date", "Roll Number", "Student", "Status", "Marked At"}

// Attendance writes one row per record, dates shown in loc. Records whose
// student no longer exists keep their student id in the name column.
func Attendance(w io.Writer, records []model.Attendance, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", AttendanceSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(AttendanceSheet, "A1", &attendanceHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(AttendanceSheet, "A1", "E1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(AttendanceSheet, "A", "E", 20); err != nil {
		return err
	}

	for i, a := range records {
		name, roll := a.StudentID, ""
		if a.Student != nil {
			name, roll = a.Student.FullName, a.Student.RollNumber
		}
		row := []any{
			a.Date.In(loc).Format(time.DateOnly),
			roll,
			name,
			string(a.Status),
			a.UpdatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(AttendanceSheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}
