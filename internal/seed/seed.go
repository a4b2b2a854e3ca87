// Package seed loads the demo accounts, courses and students used for local
// runs and walkthroughs. Seeding is idempotent: existing usernames, course
// codes, fee heads and roll numbers are left untouched.
package seed

import (
	"context"
	"errors"
	"fmt"

	"feedesk/internal/access"
	"feedesk/internal/model"
	"feedesk/internal/repository"
	"feedesk/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type DemoUser struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     access.Role
}

var DemoUsers = []DemoUser{
	{Username: "admin", Password: "admin123", Name: "Anil Kumar", Email: "admin@vignan.edu.in", Role: access.Admin},
	{Username: "principal", Password: "principal123", Name: "Dr. Lakshmi Narayanan", Email: "principal@vignan.edu.in", Role: access.Principal},
	{Username: "cashier", Password: "cashier123", Name: "Priya Sharma", Email: "accounts@vignan.edu.in", Role: access.Cashier},
}

var demoStudents = []model.Student{
	{RollNumber: "CS2021001", Name: "Rahul Verma", Course: "B.Tech CSE", Section: "A", Year: "3rd Year", TotalFee: decimal.NewFromInt(125000), ParentPhone: "+91 98480 11223", ParentEmail: "verma.family@example.com"},
	{RollNumber: "CS2021002", Name: "Sneha Reddy", Course: "B.Tech CSE", Section: "A", Year: "3rd Year", TotalFee: decimal.NewFromInt(125000), ParentPhone: "+91 98480 22334", ParentEmail: "reddy.sneha.parent@example.com"},
	{RollNumber: "EC2022014", Name: "Arjun Patel", Course: "B.Tech ECE", Section: "B", Year: "2nd Year", TotalFee: decimal.NewFromInt(115000), ParentPhone: "+91 99590 33445"},
	{RollNumber: "ME2023007", Name: "Kavya Iyer", Course: "B.Tech Mechanical", Section: "A", Year: "1st Year", TotalFee: decimal.NewFromInt(110000), ParentPhone: "+91 90000 44556", ParentEmail: "iyer.home@example.com"},
	{RollNumber: "MBA2023021", Name: "Mohammed Farhan", Course: "MBA", Section: "A", Year: "1st Year", TotalFee: decimal.NewFromInt(95000), ParentPhone: "+91 91210 55667"},
	{RollNumber: "CE2020033", Name: "Divya Nair", Course: "B.Tech Civil", Section: "C", Year: "4th Year", TotalFee: decimal.NewFromInt(105000), ParentPhone: "+91 94400 66778", ParentEmail: "nair.divya.parent@example.com"},
}

var demoCourses = []model.Course{
	{Code: "CSE", Name: "B.Tech CSE"},
	{Code: "ECE", Name: "B.Tech ECE"},
	{Code: "ME", Name: "B.Tech Mechanical"},
	{Code: "CE", Name: "B.Tech Civil"},
	{Code: "MBA", Name: "MBA"},
}

// demoFeeHeads adds up to the total fee of the seeded CSE third years.
var demoFeeHeads = []model.FeeHead{
	{Year: "3rd Year", Name: "Tuition Fee", Amount: decimal.NewFromInt(110000)},
	{Year: "3rd Year", Name: "Laboratory Fee", Amount: decimal.NewFromInt(10000)},
	{Year: "3rd Year", Name: "Examination Fee", Amount: decimal.NewFromInt(5000)},
}

// Demo inserts the demo users, courses and students that do not exist yet.
func Demo(ctx context.Context, st repository.Stores) error {
	users, students := 0, 0
	if err := courses(ctx, st.Academic); err != nil {
		return err
	}
	for _, u := range DemoUsers {
		created, err := User(ctx, st.Users, u)
		if err != nil {
			return err
		}
		if created {
			users++
		}
	}
	for _, s := range demoStudents {
		s.ID = uuid.New()
		s.Active = true
		err := st.Students.Create(ctx, &s)
		switch {
		case err == nil:
			students++
		case errors.Is(err, repository.ErrDuplicate):
		default:
			return fmt.Errorf("seed student %s: %w", s.RollNumber, err)
		}
	}
	log.Info().Int("users", users).Int("students", students).Msg("seed: demo data loaded")
	return nil
}

func courses(ctx context.Context, repo repository.AcademicRepository) error {
	for _, c := range demoCourses {
		c.ID = uuid.New()
		c.Active = true
		if err := repo.CreateCourse(ctx, &c); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("seed course %s: %w", c.Code, err)
		}
	}
	cse, err := repo.FindCourseByRef(ctx, "CSE")
	if err != nil {
		return fmt.Errorf("seed fee heads: %w", err)
	}
	for _, h := range demoFeeHeads {
		h.ID = uuid.New()
		h.CourseID = cse.ID
		if err := repo.CreateFeeHead(ctx, &h); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("seed fee head %s: %w", h.Name, err)
		}
	}
	return nil
}

// User creates one account unless the username is taken. It reports whether
// a row was inserted.
func User(ctx context.Context, repo repository.UserRepository, u DemoUser) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), service.BcryptCost)
	if err != nil {
		return false, err
	}
	var email *string
	if u.Email != "" {
		email = &u.Email
	}
	err = repo.Create(ctx, &model.User{
		ID:           uuid.New(),
		Username:     u.Username,
		Name:         u.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         string(u.Role),
		Active:       true,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed user %s: %w", u.Username, err)
	}
	return true, nil
}
