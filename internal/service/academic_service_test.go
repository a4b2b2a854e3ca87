package service

import (
	"context"
	"testing"

	"feedesk/internal/dto"
	"feedesk/internal/model"
	"feedesk/internal/repository"
	"feedesk/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type academicFixture struct {
	store    *memory.Store
	courses  AcademicService
	fees     FeeStructureService
	students StudentService
}

func newAcademicFixture() *academicFixture {
	store := memory.New()
	audit := NewAuditService(store.Audit(), ist)
	return &academicFixture{
		store:    store,
		courses:  NewAcademicService(store.Academic(), audit),
		fees:     NewFeeStructureService(store.Academic(), store.Students(), audit),
		students: NewStudentService(store.Students(), store.Ledger(), store.Academic(), audit),
	}
}

func (f *academicFixture) head(t *testing.T, courseID, year, name string, amount int64) *dto.FeeHeadResponse {
	t.Helper()
	h, err := f.fees.AddHead(context.Background(), admin, dto.CreateFeeHeadRequest{
		CourseID: courseID, Year: year, Name: name, Amount: decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return h
}

func TestAcademic_CourseRegistry(t *testing.T) {
	ctx := context.Background()
	f := newAcademicFixture()

	cse, err := f.courses.CreateCourse(ctx, admin, dto.CreateCourseRequest{Code: "cse", Name: "B.Tech CSE"})
	require.NoError(t, err)
	assert.Equal(t, "CSE", cse.Code)
	assert.True(t, cse.Active)

	_, err = f.courses.CreateCourse(ctx, admin, dto.CreateCourseRequest{Code: "CSE", Name: "Again"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = f.courses.CreateSection(ctx, admin, dto.CreateSectionRequest{CourseID: cse.ID, Year: "1st Year", Name: "a"})
	require.NoError(t, err)
	_, err = f.courses.CreateSection(ctx, admin, dto.CreateSectionRequest{CourseID: cse.ID, Year: "1st Year", Name: "A"})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = f.courses.CreateSection(ctx, admin, dto.CreateSectionRequest{CourseID: uuid.NewString(), Year: "1st Year", Name: "B"})
	assert.ErrorIs(t, err, ErrNotFound)

	sections, err := f.courses.ListSections(ctx, uuid.MustParse(cse.ID))
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "A", sections[0].Name)

	name := "B.Tech Computer Science"
	updated, err := f.courses.UpdateCourse(ctx, admin, uuid.MustParse(cse.ID), dto.UpdateCourseRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	require.NoError(t, f.courses.DeactivateCourse(ctx, admin, uuid.MustParse(cse.ID)))
	active, err := f.courses.ListCourses(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := f.courses.ListCourses(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)

	require.NoError(t, f.courses.DeleteSection(ctx, admin, uuid.MustParse(sections[0].ID)))
	assert.ErrorIs(t, f.courses.DeleteSection(ctx, admin, uuid.MustParse(sections[0].ID)), ErrNotFound)

	entries, _, err := f.store.Audit().List(ctx, repository.AuditFilter{Action: model.ActionCourseDeactivate})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFeeStructure_TotalsAndApply(t *testing.T) {
	ctx := context.Background()
	f := newAcademicFixture()
	cse, err := f.courses.CreateCourse(ctx, admin, dto.CreateCourseRequest{Code: "CSE", Name: "B.Tech CSE"})
	require.NoError(t, err)

	tuition := f.head(t, cse.ID, "1st Year", "Tuition Fee", 70000)
	f.head(t, cse.ID, "1st Year", "Library Fee", 5000)
	f.head(t, cse.ID, "2nd Year", "Tuition Fee", 72000)

	_, err = f.fees.AddHead(ctx, admin, dto.CreateFeeHeadRequest{
		CourseID: cse.ID, Year: "1st Year", Name: "Tuition Fee", Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	structure, err := f.fees.Get(ctx, uuid.MustParse(cse.ID), "1st Year")
	require.NoError(t, err)
	assert.Len(t, structure.Heads, 2)
	requireAmount(t, 75000, structure.Total)

	amount := decimal.NewFromInt(80000)
	_, err = f.fees.UpdateHead(ctx, admin, uuid.MustParse(tuition.ID), dto.UpdateFeeHeadRequest{Amount: &amount})
	require.NoError(t, err)
	zero := decimal.Zero
	_, err = f.fees.UpdateHead(ctx, admin, uuid.MustParse(tuition.ID), dto.UpdateFeeHeadRequest{Amount: &zero})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// students refer to the course by code or by name, in any case
	for roll, course := range map[string]string{"CS2024001": "CSE", "CS2024002": "b.tech cse", "EC2024001": "B.Tech ECE"} {
		_, err := f.students.Create(ctx, admin, dto.CreateStudentRequest{
			RollNumber: roll, Name: "Student " + roll, Course: course, Year: "1st Year", TotalFee: decimal.NewFromInt(1000),
		})
		require.NoError(t, err)
	}

	applied, err := f.fees.Apply(ctx, admin, dto.ApplyFeeStructureRequest{CourseID: cse.ID, Year: "1st Year"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), applied.StudentsUpdated)
	requireAmount(t, 85000, applied.TotalFee)

	st, err := f.store.Students().FindByRollNumber(ctx, "CS2024002")
	require.NoError(t, err)
	requireAmount(t, 85000, st.TotalFee)
	ece, err := f.store.Students().FindByRollNumber(ctx, "EC2024001")
	require.NoError(t, err)
	requireAmount(t, 1000, ece.TotalFee)

	_, err = f.fees.Apply(ctx, admin, dto.ApplyFeeStructureRequest{CourseID: cse.ID, Year: "4th Year"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	require.NoError(t, f.fees.DeleteHead(ctx, admin, uuid.MustParse(tuition.ID)))
	structure, err = f.fees.Get(ctx, uuid.MustParse(cse.ID), "1st Year")
	require.NoError(t, err)
	requireAmount(t, 5000, structure.Total)
}

func TestStudents_TotalFeeDerivedFromStructure(t *testing.T) {
	ctx := context.Background()
	f := newAcademicFixture()
	cse, err := f.courses.CreateCourse(ctx, admin, dto.CreateCourseRequest{Code: "CSE", Name: "B.Tech CSE"})
	require.NoError(t, err)
	f.head(t, cse.ID, "1st Year", "Tuition Fee", 70000)
	f.head(t, cse.ID, "1st Year", "Exam Fee", 2500)

	created, err := f.students.Create(ctx, admin, dto.CreateStudentRequest{
		RollNumber: "CS2024010", Name: "Kavya Iyer", Course: "B.Tech CSE", Year: "1st Year",
	})
	require.NoError(t, err)
	requireAmount(t, 72500, created.TotalFee)

	// an explicit fee wins over the structure
	created, err = f.students.Create(ctx, admin, dto.CreateStudentRequest{
		RollNumber: "CS2024011", Name: "Arjun Nair", Course: "CSE", Year: "1st Year", TotalFee: decimal.NewFromInt(60000),
	})
	require.NoError(t, err)
	requireAmount(t, 60000, created.TotalFee)

	_, err = f.students.Create(ctx, admin, dto.CreateStudentRequest{
		RollNumber: "ME2024001", Name: "Rohan Das", Course: "B.Tech ME", Year: "1st Year",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.students.Create(ctx, admin, dto.CreateStudentRequest{
		RollNumber: "CS2024012", Name: "Meera Pillai", Course: "CSE", Year: "3rd Year",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.students.Create(ctx, admin, dto.CreateStudentRequest{
		RollNumber: "CS2024013", Name: "Too Much", Course: "CSE", Year: "1st Year",
		TotalFee: model.MaxAmount.Add(decimal.NewFromInt(1)),
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
