package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-habit-api/internal/credential"
	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/internal/repository"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
	"github.com/noah-isme/sma-habit-api/pkg/lock"
	"github.com/noah-isme/sma-habit-api/pkg/sheet"
)

type mockStudentLookup struct {
	nis     map[string]bool
	nisn    map[string]bool
	byNIS   map[string]models.Student
	primary map[string]bool
	err     error
}

func (m *mockStudentLookup) ExistsByNIS(ctx context.Context, nis, excludeID string) (bool, error) {
	return m.nis[nis], m.err
}

func (m *mockStudentLookup) ExistsByNISN(ctx context.Context, nisn, excludeID string) (bool, error) {
	return m.nisn[nisn], m.err
}

func (m *mockStudentLookup) FindByNIS(ctx context.Context, nis, classID string) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	st, ok := m.byNIS[nis]
	if !ok || (classID != "" && (st.ClassID == nil || *st.ClassID != classID)) {
		return nil, sql.ErrNoRows
	}
	return &st, nil
}

func (m *mockStudentLookup) HasPrimaryGuardian(ctx context.Context, studentID string) (bool, error) {
	return m.primary[studentID], nil
}

type mockTeacherLookup struct {
	nip map[string]bool
}

func (m *mockTeacherLookup) ExistsByNIP(ctx context.Context, nip, excludeID string) (bool, error) {
	return m.nip[nip], nil
}

type mockEmailLookup struct {
	emails map[string]bool
}

func (m *mockEmailLookup) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	return m.emails[strings.ToLower(email)], nil
}

type mockOnboardingStore struct {
	usernames map[string]bool
	// racedUsernames are free at probe time but rejected on insert.
	racedUsernames map[string]bool
	failNIS        map[string]error
	students       []models.Student
	teachers       []models.Teacher
	guardians      []models.StudentGuardian
	users          []models.User
}

func newMockOnboardingStore() *mockOnboardingStore {
	return &mockOnboardingStore{usernames: map[string]bool{}, racedUsernames: map[string]bool{}, failNIS: map[string]error{}}
}

func (m *mockOnboardingStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return m.usernames[username], nil
}

func (m *mockOnboardingStore) addUser(user *models.User) error {
	if m.racedUsernames[user.Username] || m.usernames[user.Username] {
		m.usernames[user.Username] = true
		return &repository.DuplicateError{Constraint: repository.ConstraintUsername, Err: &pq.Error{Code: "23505"}}
	}
	m.usernames[user.Username] = true
	user.ID = "user-" + user.Username
	m.users = append(m.users, *user)
	return nil
}

func (m *mockOnboardingStore) CreateStudent(ctx context.Context, user *models.User, student *models.Student) error {
	if err := m.failNIS[student.NIS]; err != nil {
		return err
	}
	if err := m.addUser(user); err != nil {
		return err
	}
	student.ID = "student-" + student.NIS
	student.UserID = user.ID
	m.students = append(m.students, *student)
	return nil
}

func (m *mockOnboardingStore) CreateTeacher(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	if err := m.addUser(user); err != nil {
		return err
	}
	teacher.ID = "teacher-" + user.Username
	m.teachers = append(m.teachers, *teacher)
	return nil
}

func (m *mockOnboardingStore) CreateGuardian(ctx context.Context, user *models.User, guardian *models.Guardian, link *models.StudentGuardian) error {
	if err := m.addUser(user); err != nil {
		return err
	}
	guardian.ID = "guardian-" + user.Username
	link.GuardianID = guardian.ID
	m.guardians = append(m.guardians, *link)
	return nil
}

func sheetRow(number int, values map[string]string) sheet.Row {
	cells := make(map[string]sheet.Cell, len(values))
	for k, v := range values {
		cells[k] = sheet.Cell{Value: v}
	}
	return sheet.Row{Number: number, Cells: cells}
}

type importFixture struct {
	store    *mockOnboardingStore
	students *mockStudentLookup
	teachers *mockTeacherLookup
	emails   *mockEmailLookup
	svc      *ImportService
}

func newImportFixture() *importFixture {
	f := &importFixture{
		store:    newMockOnboardingStore(),
		students: &mockStudentLookup{nis: map[string]bool{}, nisn: map[string]bool{}, byNIS: map[string]models.Student{}, primary: map[string]bool{}},
		teachers: &mockTeacherLookup{nip: map[string]bool{}},
		emails:   &mockEmailLookup{emails: map[string]bool{}},
	}
	classifier := NewRowClassifier(f.students, f.teachers, f.emails, nil)
	f.svc = NewImportService(classifier, f.store, f.store, lock.NewLocalLocker(), NewMetricsService(),
		ImportOptions{BcryptCost: bcrypt.MinCost, LoginRetries: 3}, nil)
	f.svc.now = func() time.Time { return time.Date(2024, 8, 7, 9, 0, 0, 0, time.UTC) }
	return f
}

func TestImportSkipsDecorativeRowsAndImportsRealOne(t *testing.T) {
	f := newImportFixture()
	rows := []sheet.Row{
		sheetRow(2, map[string]string{ColName: "Petunjuk: hapus baris ini sebelum mengunggah"}),
		sheetRow(3, map[string]string{}),
		sheetRow(4, map[string]string{ColName: "Budi Santoso", ColNIS: "2024001", ColGender: "L"}),
		sheetRow(5, map[string]string{ColName: "Siti Nurhaliza", ColNIS: "2024002", ColGender: "P"}),
		sheetRow(6, map[string]string{ColName: "Ahmad Fauzi", ColNIS: "2024100", ColGender: "L", ColBirthDate: "15/05/2010", ColReligion: "islam"}),
	}

	result, err := f.svc.Import(context.Background(), rows, models.ImportStudents, models.ImportContext{ClassID: "class-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ImportedCount)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 4, result.SkippedCount)
	assert.Equal(t, result.TotalRows, result.ImportedCount+result.SkippedCount+len(result.Failures))

	require.Len(t, f.store.users, 1)
	user := f.store.users[0]
	assert.Equal(t, "ahmad.fauzi", user.Username)
	require.NotNil(t, user.PlainPassword)
	assert.Equal(t, "ahmad15", *user.PlainPassword)
	assert.True(t, credential.Matches(user.PasswordHash, "ahmad15"))
	require.NotNil(t, user.Religion)
	assert.Equal(t, "Islam", *user.Religion)

	student := f.store.students[0]
	require.NotNil(t, student.ClassID)
	assert.Equal(t, "class-1", *student.ClassID)
	require.NotNil(t, student.BirthDate)
	assert.Equal(t, "2010-05-15", student.BirthDate.Format(isoDate))
}

func TestImportSameNameTwiceGetsDistinctLogins(t *testing.T) {
	f := newImportFixture()
	rows := []sheet.Row{
		sheetRow(2, map[string]string{ColName: "Ahmad Fauzi", ColEmail: "ahmad1@sekolah.id"}),
		sheetRow(3, map[string]string{ColName: "Ahmad Fauzi", ColEmail: "ahmad2@sekolah.id"}),
	}

	result, err := f.svc.Import(context.Background(), rows, models.ImportTeachers, models.ImportContext{})
	require.NoError(t, err)
	require.Equal(t, 2, result.ImportedCount)
	assert.Equal(t, "ahmad.fauzi", f.store.users[0].Username)
	assert.Equal(t, "ahmad.fauzi1", f.store.users[1].Username)
	assert.Equal(t, models.RoleTeacher, f.store.users[0].Role)
	// no birth date, so the batch day is used
	assert.Equal(t, "ahmad07", *f.store.users[0].PlainPassword)
}

func TestImportRetriesLoginOnStorageConflict(t *testing.T) {
	f := newImportFixture()
	f.store.racedUsernames["dewi.anggraini"] = true
	rows := []sheet.Row{sheetRow(2, map[string]string{ColName: "Dewi Anggraini"})}

	result, err := f.svc.Import(context.Background(), rows, models.ImportTeachers, models.ImportContext{})
	require.NoError(t, err)
	require.Equal(t, 1, result.ImportedCount)
	assert.Equal(t, "dewi.anggraini1", f.store.users[0].Username)
}

func TestImportRecordsFailuresAndContinues(t *testing.T) {
	f := newImportFixture()
	f.students.nis["2024005"] = true
	f.store.failNIS["2024007"] = &repository.DuplicateError{Constraint: repository.ConstraintNIS, Err: errors.New("duplicate key")}
	rows := []sheet.Row{
		sheetRow(2, map[string]string{ColName: "Rina Marlina", ColNIS: "2024005", ColGender: "P"}),
		sheetRow(3, map[string]string{ColName: "Joko Widodo", ColNIS: "2024006", ColGender: "X"}),
		sheetRow(4, map[string]string{ColName: "Andi Pratama", ColNIS: "2024007", ColGender: "L"}),
		sheetRow(5, map[string]string{ColName: "Putri Ayu", ColNIS: "2024008", ColGender: "perempuan"}),
	}

	result, err := f.svc.Import(context.Background(), rows, models.ImportStudents, models.ImportContext{ClassID: "class-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ImportedCount)
	require.Len(t, result.Failures, 3)

	dup := result.Failures[0]
	assert.Equal(t, 2, dup.Row)
	assert.Equal(t, models.FailureValidation, dup.Kind)
	assert.Equal(t, ColNIS, dup.Field)
	assert.Equal(t, "2024005", dup.Values[ColNIS])

	gender := result.Failures[1]
	assert.Equal(t, ColGender, gender.Field)
	assert.Equal(t, "X", gender.Values[ColGender])

	creation := result.Failures[2]
	assert.Equal(t, 4, creation.Row)
	assert.Equal(t, models.FailureCreation, creation.Kind)
	assert.Equal(t, ColNIS, creation.Field)
	assert.NotEmpty(t, creation.Messages)

	assert.Equal(t, "putri.ayu", f.store.users[0].Username)
	assert.Equal(t, models.GenderFemale, f.store.students[0].Gender)
}

func TestImportReleasesLoginOfFailedRow(t *testing.T) {
	f := newImportFixture()
	f.store.failNIS["2024010"] = errors.New("connection reset")
	rows := []sheet.Row{
		sheetRow(2, map[string]string{ColName: "Andi Pratama", ColNIS: "2024010", ColGender: "L"}),
		sheetRow(3, map[string]string{ColName: "Andi Pratama", ColNIS: "2024011", ColGender: "L"}),
	}

	result, err := f.svc.Import(context.Background(), rows, models.ImportStudents, models.ImportContext{ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImportedCount)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Messages[0], "connection reset")
	assert.Equal(t, "andi.pratama", f.store.users[0].Username)
}

func TestImportGuardianLinksStudentInClass(t *testing.T) {
	f := newImportFixture()
	class := "class-1"
	f.students.byNIS["2024001"] = models.Student{ID: "stu-1", NIS: "2024001", ClassID: &class}
	f.students.byNIS["2024002"] = models.Student{ID: "stu-2", NIS: "2024002", ClassID: &class}
	f.students.primary["stu-2"] = true
	rows := []sheet.Row{
		sheetRow(2, map[string]string{ColName: "Hendra Gunawan", ColStudentNIS: "2024001", ColRelationship: "Ayah", ColPrimary: "Ya"}),
		sheetRow(3, map[string]string{ColName: "Lina Marlina", ColStudentNIS: "2024002", ColRelationship: "Ibu", ColPrimary: "ya"}),
		sheetRow(4, map[string]string{ColName: "Bambang Susilo", ColStudentNIS: "9999999", ColRelationship: "Wali"}),
	}

	result, err := f.svc.Import(context.Background(), rows, models.ImportGuardians, models.ImportContext{ClassID: class})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImportedCount)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, ColPrimary, result.Failures[0].Field)
	assert.Equal(t, ColStudentNIS, result.Failures[1].Field)

	require.Len(t, f.store.guardians, 1)
	link := f.store.guardians[0]
	assert.Equal(t, "stu-1", link.StudentID)
	assert.Equal(t, models.RelationshipFather, link.Relationship)
	assert.True(t, link.IsPrimary)
	assert.Equal(t, models.RoleParent, f.store.users[0].Role)
}

func TestImportRequiresClassForStudents(t *testing.T) {
	f := newImportFixture()
	_, err := f.svc.Import(context.Background(), nil, models.ImportStudents, models.ImportContext{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestImportRejectsConcurrentBatch(t *testing.T) {
	f := newImportFixture()
	locker := lock.NewLocalLocker()
	release, err := locker.Acquire(context.Background(), "sma-habit:import-lock", time.Minute)
	require.NoError(t, err)
	defer release(context.Background())
	f.svc.locker = locker

	_, err = f.svc.Import(context.Background(), nil, models.ImportTeachers, models.ImportContext{})
	assert.ErrorIs(t, err, appErrors.ErrImportBusy)
}

func TestImportFileRejectsUnknownExtension(t *testing.T) {
	f := newImportFixture()
	_, err := f.svc.ImportFile(context.Background(), "siswa.pdf", strings.NewReader(""), models.ImportStudents, models.ImportContext{ClassID: "c"})
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedFile)
}

func TestImportFileReadsCSV(t *testing.T) {
	f := newImportFixture()
	csv := "Nama;NIS;NISN;Jenis Kelamin (L/P);Tanggal Lahir (YYYY-MM-DD);Agama;Alamat\n" +
		"Budi Santoso;2024001;;L;2010-05-15;Islam;Jl. Merdeka\n" +
		"Rudi Hartono;2024050;;L;40000;Buddha;Jl. Kenanga\n"

	result, err := f.svc.ImportFile(context.Background(), "siswa.csv", strings.NewReader(csv), models.ImportStudents, models.ImportContext{ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, 1, result.ImportedCount)
	assert.Equal(t, "2009-07-06", f.store.students[0].BirthDate.Format(isoDate))
	assert.Equal(t, "rudi06", *f.store.users[0].PlainPassword)
}
