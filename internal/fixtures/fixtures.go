// Package fixtures holds the sample hostel used by the seed command and by
// the in-memory store when the configured database cannot be reached.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"hostel/internal/auth"
	"hostel/internal/model"
	"hostel/internal/store"
)

// Demo credentials created by Load.
const (
	AdminEmail      = "admin@example.com"
	AdminPassword   = "admin123"
	StudentEmail    = "aarav@example.com"
	StudentPassword = "student123"
)

var rooms = []model.Room{
	{RoomNumber: "101", Capacity: 2, Type: model.RoomAC, Price: 6000},
	{RoomNumber: "102", Capacity: 2, Type: model.RoomNonAC, Price: 4000},
	{RoomNumber: "103", Capacity: 2, Type: model.RoomAC, Price: 6000},
	{RoomNumber: "104", Capacity: 3, Type: model.RoomNonAC, Price: 3500},
	{RoomNumber: "105", Capacity: 2, Type: model.RoomAC, Price: 6000},
	{RoomNumber: "106", Capacity: 1, Type: model.RoomAC, Price: 8000},
}

var students = []model.Student{
	{FullName: "Aarav Sharma", RollNumber: "CS2023001", Course: "B.Tech CSE", ContactNumber: "9876543210", ParentContactNumber: "9876543211", RoomNumber: "101"},
	{FullName: "Vivaan Gupta", RollNumber: "CS2023002", Course: "B.Tech CSE", ContactNumber: "9876543212", ParentContactNumber: "9876543213", RoomNumber: "101"},
	{FullName: "Aditya Patel", RollNumber: "ME2023001", Course: "B.Tech ME", ContactNumber: "9876543214", ParentContactNumber: "9876543215", RoomNumber: "102"},
	{FullName: "Vihaan Singh", RollNumber: "ME2023002", Course: "B.Tech ME", ContactNumber: "9876543216", ParentContactNumber: "9876543217", RoomNumber: "102"},
	{FullName: "Arjun Kumar", RollNumber: "EE2023001", Course: "B.Tech EE", ContactNumber: "9876543218", ParentContactNumber: "9876543219", RoomNumber: "103"},
	{FullName: "Sai Krishna", RollNumber: "EE2023002", Course: "B.Tech EE", ContactNumber: "9876543220", ParentContactNumber: "9876543221", RoomNumber: "103"},
	{FullName: "Reyansh Reddy", RollNumber: "CE2023001", Course: "B.Tech CE", ContactNumber: "9876543222", ParentContactNumber: "9876543223", RoomNumber: "104"},
	{FullName: "Ayaan Khan", RollNumber: "CE2023002", Course: "B.Tech CE", ContactNumber: "9876543224", ParentContactNumber: "9876543225", RoomNumber: "104"},
	{FullName: "Ishaan Joshi", RollNumber: "IT2023001", Course: "B.Tech IT", ContactNumber: "9876543226", ParentContactNumber: "9876543227", RoomNumber: "105"},
	{FullName: "Dhruv Malhotra", RollNumber: "IT2023002", Course: "B.Tech IT", ContactNumber: "9876543228", ParentContactNumber: "9876543229", RoomNumber: "105"},
}

// Summary counts what Load wrote.
type Summary struct {
	Rooms      int
	Students   int
	Attendance int
	Complaints int
	Users      int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d rooms, %d students, %d attendance records, %d complaints, %d users",
		s.Rooms, s.Students, s.Attendance, s.Complaints, s.Users)
}

// Load writes the sample hostel into an empty store: six rooms, ten
// students placed in rooms 101 to 105, attendance for today and yesterday
// in loc, three complaints, an admin account and a student account linked
// to the first student.
func Load(ctx context.Context, s store.Store, now time.Time, loc *time.Location) (Summary, error) {
	var sum Summary

	adminHash, err := auth.HashPassword(AdminPassword)
	if err != nil {
		return sum, err
	}
	admin := model.User{Name: "Hostel Admin", Email: AdminEmail, PasswordHash: adminHash, Role: model.RoleAdmin}
	if err := s.Users().Create(ctx, &admin); err != nil {
		return sum, fmt.Errorf("admin account: %w", err)
	}
	sum.Users++

	byRoom := map[string][]string{}
	created := make([]model.Student, 0, len(students))
	for _, tpl := range students {
		st := tpl
		if err := s.Students().Create(ctx, &st); err != nil {
			return sum, fmt.Errorf("student %s: %w", st.RollNumber, err)
		}
		byRoom[st.RoomNumber] = append(byRoom[st.RoomNumber], st.ID)
		created = append(created, st)
		sum.Students++
	}

	for _, tpl := range rooms {
		rm := tpl
		rm.OccupantIDs = byRoom[rm.RoomNumber]
		if err := s.Rooms().Create(ctx, &rm); err != nil {
			return sum, fmt.Errorf("room %s: %w", rm.RoomNumber, err)
		}
		sum.Rooms++
	}

	studentHash, err := auth.HashPassword(StudentPassword)
	if err != nil {
		return sum, err
	}
	first := created[0]
	account := model.User{Name: first.FullName, Email: StudentEmail, PasswordHash: studentHash, Role: model.RoleStudent, StudentProfile: first.ID}
	if err := s.Users().Create(ctx, &account); err != nil {
		return sum, fmt.Errorf("student account: %w", err)
	}
	first.UserID = account.ID
	if err := s.Students().Update(ctx, &first); err != nil {
		return sum, err
	}
	sum.Users++

	today := model.DayOf(now, loc)
	yesterday := model.DayOf(today.Start.AddDate(0, 0, -1), loc)
	for i, st := range created {
		for d, day := range []model.DayWindow{today, yesterday} {
			status := model.Present
			if (d == 0 && i == 3) || (d == 1 && i%5 == 4) {
				status = model.Absent
			}
			a := model.Attendance{
				StudentID: st.ID,
				Date:      day.Start,
				Day:       day.Start,
				Status:    status,
				MarkedBy:  admin.ID,
			}
			if err := s.Attendance().Create(ctx, &a); err != nil {
				return sum, fmt.Errorf("attendance %s: %w", st.RollNumber, err)
			}
			sum.Attendance++
		}
	}

	complaints := []model.Complaint{
		{StudentID: created[0].ID, Category: model.CategoryElectricity, Description: "Fan not working in room 101", Status: model.ComplaintPending},
		{StudentID: created[2].ID, Category: model.CategoryWater, Description: "Leaking tap in bathroom", Status: model.ComplaintInProgress},
		{StudentID: created[4].ID, Category: model.CategoryFood, Description: "Quality of rice was poor today", Status: model.ComplaintResolved, AdminReply: "Spoken to the mess contractor."},
	}
	for i := range complaints {
		c := complaints[i]
		c.CreatedAt = now.Add(time.Duration(i-len(complaints)) * time.Hour).UTC()
		if err := s.Complaints().Create(ctx, &c); err != nil {
			return sum, fmt.Errorf("complaint: %w", err)
		}
		sum.Complaints++
	}
	return sum, nil
}
