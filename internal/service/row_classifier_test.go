package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/pkg/sheet"
)

func newTestClassifier() (*RowClassifier, *mockStudentLookup, *mockTeacherLookup, *mockEmailLookup) {
	students := &mockStudentLookup{nis: map[string]bool{}, nisn: map[string]bool{}, byNIS: map[string]models.Student{}, primary: map[string]bool{}}
	teachers := &mockTeacherLookup{nip: map[string]bool{}}
	emails := &mockEmailLookup{emails: map[string]bool{}}
	return NewRowClassifier(students, teachers, emails, nil), students, teachers, emails
}

func TestSkipReason(t *testing.T) {
	cases := []struct {
		name string
		kind models.ImportKind
		want string
	}{
		{name: "", kind: models.ImportStudents, want: "blank"},
		{name: "   ", kind: models.ImportStudents, want: "blank"},
		{name: "PETUNJUK: isi mulai baris 4", kind: models.ImportStudents, want: "instruction"},
		{name: "Hapus baris contoh ini", kind: models.ImportTeachers, want: "instruction"},
		{name: "Budi Santoso", kind: models.ImportStudents, want: "sample"},
		{name: "Budi Santoso", kind: models.ImportTeachers, want: ""},
		{name: "Agus Salim", kind: models.ImportTeachers, want: "sample"},
		{name: "Sri Wahyuni", kind: models.ImportGuardians, want: "sample"},
		{name: "Budi Santosa", kind: models.ImportStudents, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := sheetRow(5, map[string]string{ColName: tc.name})
			assert.Equal(t, tc.want, SkipReason(row, tc.kind))
		})
	}
}

func TestClassifyStudentValidation(t *testing.T) {
	c, students, _, _ := newTestClassifier()
	students.nisn["0098765432"] = true

	cls, err := c.Classify(context.Background(), sheetRow(7, map[string]string{
		ColName:     "Rina Marlina",
		ColNISN:     "0098765432",
		ColGender:   "P",
		ColReligion: "Shinto",
	}), models.ImportStudents, models.ImportContext{ClassID: "class-1"})
	require.NoError(t, err)
	require.Equal(t, OutcomeFail, cls.Outcome)

	failure := cls.Failure
	assert.Equal(t, 7, failure.Row)
	assert.Equal(t, models.FailureValidation, failure.Kind)
	assert.ElementsMatch(t, []string{ColNIS, ColNISN, ColReligion}, failure.Fields)
	assert.Equal(t, failure.Fields[0], failure.Field)
	assert.Len(t, failure.Messages, 3)
	assert.Equal(t, "Shinto", failure.Values[ColReligion])
}

func TestClassifyStudentNormalises(t *testing.T) {
	c, _, _, _ := newTestClassifier()
	row := sheet.Row{Number: 3, Cells: map[string]sheet.Cell{
		ColName:      {Value: "Dimas Saputra"},
		ColNIS:       {Value: "2024001.0", Numeric: true},
		ColGender:    {Value: "laki-laki"},
		ColBirthDate: {Value: "40000", Numeric: true},
		ColReligion:  {Value: "KATOLIK"},
		ColAddress:   {Value: "  "},
	}}

	cls, err := c.Classify(context.Background(), row, models.ImportStudents, models.ImportContext{ClassID: "class-1"})
	require.NoError(t, err)
	require.Equal(t, OutcomeAccept, cls.Outcome)

	accepted := cls.Fields
	assert.Equal(t, 3, accepted.Row)
	assert.Equal(t, "2024001", accepted.Student.NIS)
	assert.Equal(t, models.GenderMale, accepted.Student.Gender)
	assert.Equal(t, "Katolik", *accepted.Religion)
	assert.Nil(t, accepted.Student.Address)
	assert.Nil(t, accepted.Student.NISN)
	assert.Equal(t, 6, accepted.CredentialDay)
}

func TestClassifyStudentUnparsableBirthDate(t *testing.T) {
	c, _, _, _ := newTestClassifier()
	cls, err := c.Classify(context.Background(), sheetRow(3, map[string]string{
		ColName: "Dimas Saputra", ColNIS: "2024001", ColGender: "L", ColBirthDate: "kemarin",
	}), models.ImportStudents, models.ImportContext{ClassID: "class-1"})
	require.NoError(t, err)
	require.Equal(t, OutcomeAccept, cls.Outcome)
	assert.Nil(t, cls.Fields.Student.BirthDate)
	assert.Zero(t, cls.Fields.CredentialDay)
}

func TestClassifyTeacherEmailAndNIP(t *testing.T) {
	c, _, teachers, emails := newTestClassifier()
	teachers.nip["198501012010011001"] = true
	emails.emails["dewi@sekolah.id"] = true

	cls, err := c.Classify(context.Background(), sheet.Row{Number: 4, Cells: map[string]sheet.Cell{
		ColName:  {Value: "Dewi Anggraini"},
		ColEmail: {Value: "Dewi@Sekolah.id"},
		ColNIP:   {Value: "198501012010011001"},
	}}, models.ImportTeachers, models.ImportContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeFail, cls.Outcome)
	assert.Equal(t, []string{ColEmail, ColNIP}, cls.Failure.Fields)

	cls, err = c.Classify(context.Background(), sheetRow(5, map[string]string{
		ColName: "Dewi Anggraini", ColEmail: "bukan-email",
	}), models.ImportTeachers, models.ImportContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeFail, cls.Outcome)
	assert.Equal(t, []string{ColEmail}, cls.Failure.Fields)
}

func TestClassifyTeacherPhoneKeepsLeadingZero(t *testing.T) {
	c, _, _, _ := newTestClassifier()
	cls, err := c.Classify(context.Background(), sheet.Row{Number: 2, Cells: map[string]sheet.Cell{
		ColName:  {Value: "Hadi Purnomo"},
		ColPhone: {Value: "81234567890", Numeric: true},
	}}, models.ImportTeachers, models.ImportContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeAccept, cls.Outcome)
	assert.Equal(t, "081234567890", *cls.Fields.Teacher.Phone)
	assert.Nil(t, cls.Fields.Email)
}

func TestClassifyGuardianRelationship(t *testing.T) {
	c, students, _, _ := newTestClassifier()
	class := "class-1"
	students.byNIS["2024001"] = models.Student{ID: "stu-1", NIS: "2024001", ClassID: &class}

	cls, err := c.Classify(context.Background(), sheetRow(2, map[string]string{
		ColName: "Hendra Gunawan", ColStudentNIS: "2024001", ColRelationship: "paman", ColPrimary: "mungkin",
	}), models.ImportGuardians, models.ImportContext{ClassID: class})
	require.NoError(t, err)
	require.Equal(t, OutcomeFail, cls.Outcome)
	assert.ElementsMatch(t, []string{ColRelationship, ColPrimary}, cls.Failure.Fields)

	cls, err = c.Classify(context.Background(), sheetRow(3, map[string]string{
		ColName: "Hendra Gunawan", ColStudentNIS: "2024001", ColRelationship: "IBU",
	}), models.ImportGuardians, models.ImportContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeAccept, cls.Outcome)
	assert.Equal(t, models.RelationshipMother, cls.Fields.Link.Relationship)
	assert.False(t, cls.Fields.Link.IsPrimary)
	assert.Equal(t, "stu-1", cls.Fields.Link.StudentID)
}

func TestClassifyGuardianStudentOutsideClass(t *testing.T) {
	c, students, _, _ := newTestClassifier()
	other := "class-2"
	students.byNIS["2024001"] = models.Student{ID: "stu-1", NIS: "2024001", ClassID: &other}

	cls, err := c.Classify(context.Background(), sheetRow(2, map[string]string{
		ColName: "Hendra Gunawan", ColStudentNIS: "2024001", ColRelationship: "ayah",
	}), models.ImportGuardians, models.ImportContext{ClassID: "class-1"})
	require.NoError(t, err)
	require.Equal(t, OutcomeFail, cls.Outcome)
	assert.Equal(t, ColStudentNIS, cls.Failure.Field)
}

func TestClassifySurfacesLookupErrors(t *testing.T) {
	c, students, _, _ := newTestClassifier()
	students.err = errors.New("db down")

	_, err := c.Classify(context.Background(), sheetRow(2, map[string]string{
		ColName: "Dimas Saputra", ColNIS: "2024001", ColGender: "L",
	}), models.ImportStudents, models.ImportContext{ClassID: "class-1"})
	assert.EqualError(t, err, "db down")
}

func TestIdentifierText(t *testing.T) {
	assert.Equal(t, "2024001", identifierText(sheet.Cell{Value: "2024001.0", Numeric: true}))
	assert.Equal(t, "198001012005012001", identifierText(sheet.Cell{Value: "198001012005012001", Numeric: true}))
	assert.Equal(t, "198001012005012001", identifierText(sheet.Cell{Value: "198001012005012001.0", Numeric: true}))
	assert.Equal(t, "0012345678", identifierText(sheet.Cell{Value: "0012345678"}))
	assert.Equal(t, "1500", identifierText(sheet.Cell{Value: "1.5E+3"}))
	assert.Equal(t, "NIS-01.A", identifierText(sheet.Cell{Value: "NIS-01.A"}))
	assert.Equal(t, "", identifierText(sheet.Cell{Value: " "}))
}
