package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/pkg/sheet"
	"github.com/noah-isme/sma-habit-api/pkg/validation"
)

// Column keys of the onboarding templates.
const (
	ColName         = "nama"
	ColNIS          = "nis"
	ColNISN         = "nisn"
	ColGender       = "jenis_kelamin"
	ColBirthDate    = "tanggal_lahir"
	ColReligion     = "agama"
	ColAddress      = "alamat"
	ColEmail        = "email"
	ColNIP          = "nip"
	ColPhone        = "no_hp"
	ColStudentNIS   = "nis_siswa"
	ColRelationship = "hubungan"
	ColPrimary      = "utama"
	ColOccupation   = "pekerjaan"
)

// Columns lists the template headings per kind, in template order.
var Columns = map[models.ImportKind][]string{
	models.ImportStudents:  {ColName, ColNIS, ColNISN, ColGender, ColBirthDate, ColReligion, ColAddress},
	models.ImportTeachers:  {ColName, ColEmail, ColNIP, ColPhone, ColReligion, ColAddress},
	models.ImportGuardians: {ColName, ColStudentNIS, ColRelationship, ColPrimary, ColPhone, ColOccupation, ColAddress, ColEmail},
}

// SampleNames are the illustrative rows written into each template. Rows
// carrying exactly these names are skipped on import.
var SampleNames = map[models.ImportKind][]string{
	models.ImportStudents:  {"Budi Santoso", "Siti Nurhaliza"},
	models.ImportTeachers:  {"Dewi Lestari", "Agus Salim"},
	models.ImportGuardians: {"Slamet Riyadi", "Sri Wahyuni"},
}

// instructionMarkers flag decorative rows in the name column.
var instructionMarkers = []string{"petunjuk", "hapus baris", "instruksi", "contoh pengisian", "keterangan:"}

// Outcome is the classifier's decision for one row.
type Outcome int

const (
	OutcomeSkip Outcome = iota
	OutcomeAccept
	OutcomeFail
)

// AcceptedRow carries the normalised values of an accepted row.
type AcceptedRow struct {
	Row      int
	FullName string
	Email    *string
	Religion *string
	// CredentialDay is the birth day for students, 0 when unknown.
	CredentialDay int

	Student  *models.Student
	Teacher  *models.Teacher
	Guardian *models.Guardian
	Link     *models.StudentGuardian
}

// Classification is the result of classifying one row.
type Classification struct {
	Outcome Outcome
	Fields  *AcceptedRow
	Failure *models.ImportFailure
}

type studentLookup interface {
	ExistsByNIS(ctx context.Context, nis, excludeID string) (bool, error)
	ExistsByNISN(ctx context.Context, nisn, excludeID string) (bool, error)
	FindByNIS(ctx context.Context, nis, classID string) (*models.Student, error)
	HasPrimaryGuardian(ctx context.Context, studentID string) (bool, error)
}

type teacherLookup interface {
	ExistsByNIP(ctx context.Context, nip, excludeID string) (bool, error)
}

type emailLookup interface {
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
}

type studentRowInput struct {
	Name     string `col:"nama" validate:"required"`
	NIS      string `col:"nis" validate:"required"`
	NISN     string `col:"nisn"`
	Gender   string `col:"jenis_kelamin" validate:"required,oneof=L P"`
	Religion string `col:"agama" validate:"omitempty,religion"`
}

type teacherRowInput struct {
	Name     string `col:"nama" validate:"required"`
	Email    string `col:"email" validate:"omitempty,email"`
	NIP      string `col:"nip"`
	Religion string `col:"agama" validate:"omitempty,religion"`
}

type guardianRowInput struct {
	Name         string `col:"nama" validate:"required"`
	StudentNIS   string `col:"nis_siswa" validate:"required"`
	Relationship string `col:"hubungan" validate:"required,oneof=father mother guardian"`
	Email        string `col:"email" validate:"omitempty,email"`
}

// RowClassifier decides skip/accept/fail for onboarding rows.
type RowClassifier struct {
	students  studentLookup
	teachers  teacherLookup
	emails    emailLookup
	validator *validation.Validator
}

// NewRowClassifier constructs a RowClassifier.
func NewRowClassifier(students studentLookup, teachers teacherLookup, emails emailLookup, v *validation.Validator) *RowClassifier {
	if v == nil {
		v = validation.New()
	}
	return &RowClassifier{students: students, teachers: teachers, emails: emails, validator: v}
}

// SkipReason reports why a row is decorative, or "" when it is not.
func SkipReason(row sheet.Row, kind models.ImportKind) string {
	name := strings.TrimSpace(row.Text(ColName))
	if name == "" {
		return "blank"
	}
	lower := strings.ToLower(name)
	for _, marker := range instructionMarkers {
		if strings.Contains(lower, marker) {
			return "instruction"
		}
	}
	for _, sample := range SampleNames[kind] {
		if name == sample {
			return "sample"
		}
	}
	return ""
}

// Classify inspects one row. A non-nil error means a lookup against the
// store failed; validation problems are reported through Failure.
func (c *RowClassifier) Classify(ctx context.Context, row sheet.Row, kind models.ImportKind, ic models.ImportContext) (Classification, error) {
	if SkipReason(row, kind) != "" {
		return Classification{Outcome: OutcomeSkip}, nil
	}

	errs := map[string][]string{}
	var accepted *AcceptedRow
	var err error
	switch kind {
	case models.ImportStudents:
		accepted, err = c.classifyStudent(ctx, row, ic, errs)
	case models.ImportTeachers:
		accepted, err = c.classifyTeacher(ctx, row, errs)
	case models.ImportGuardians:
		accepted, err = c.classifyGuardian(ctx, row, ic, errs)
	default:
		return Classification{}, fmt.Errorf("unknown import kind %q", kind)
	}
	if err != nil {
		return Classification{}, err
	}

	if len(errs) > 0 {
		return Classification{Outcome: OutcomeFail, Failure: validationFailure(row, errs)}, nil
	}
	accepted.Row = row.Number
	return Classification{Outcome: OutcomeAccept, Fields: accepted}, nil
}

func (c *RowClassifier) classifyStudent(ctx context.Context, row sheet.Row, ic models.ImportContext, errs map[string][]string) (*AcceptedRow, error) {
	in := studentRowInput{
		Name:     row.Text(ColName),
		NIS:      identifierText(row.Get(ColNIS)),
		NISN:     identifierText(row.Get(ColNISN)),
		Gender:   normalizeGender(row.Text(ColGender)),
		Religion: row.Text(ColReligion),
	}
	c.validate(in, errs)

	if in.NIS != "" {
		taken, err := c.students.ExistsByNIS(ctx, in.NIS, "")
		if err != nil {
			return nil, err
		}
		if taken {
			errs[ColNIS] = append(errs[ColNIS], fmt.Sprintf("NIS %s sudah terdaftar", in.NIS))
		}
	}
	if in.NISN != "" {
		taken, err := c.students.ExistsByNISN(ctx, in.NISN, "")
		if err != nil {
			return nil, err
		}
		if taken {
			errs[ColNISN] = append(errs[ColNISN], fmt.Sprintf("NISN %s sudah terdaftar", in.NISN))
		}
	}

	student := &models.Student{
		NIS:     in.NIS,
		NISN:    optional(in.NISN),
		Gender:  in.Gender,
		Address: optional(row.Text(ColAddress)),
		ClassID: optional(ic.ClassID),
		Active:  true,
	}
	accepted := &AcceptedRow{FullName: in.Name, Religion: religion(in.Religion), Student: student}
	if iso, ok := ParseDate(row.Text(ColBirthDate), row.Get(ColBirthDate).Numeric); ok {
		birth, _ := time.Parse(isoDate, iso)
		student.BirthDate = &birth
		accepted.CredentialDay = birth.Day()
	}
	return accepted, nil
}

func (c *RowClassifier) classifyTeacher(ctx context.Context, row sheet.Row, errs map[string][]string) (*AcceptedRow, error) {
	in := teacherRowInput{
		Name:     row.Text(ColName),
		Email:    strings.ToLower(row.Text(ColEmail)),
		NIP:      identifierText(row.Get(ColNIP)),
		Religion: row.Text(ColReligion),
	}
	c.validate(in, errs)

	if err := c.checkEmail(ctx, in.Email, errs); err != nil {
		return nil, err
	}
	if in.NIP != "" {
		taken, err := c.teachers.ExistsByNIP(ctx, in.NIP, "")
		if err != nil {
			return nil, err
		}
		if taken {
			errs[ColNIP] = append(errs[ColNIP], fmt.Sprintf("NIP %s sudah terdaftar", in.NIP))
		}
	}

	teacher := &models.Teacher{
		NIP:     optional(in.NIP),
		Phone:   optional(phoneText(row.Get(ColPhone))),
		Address: optional(row.Text(ColAddress)),
		Active:  true,
	}
	return &AcceptedRow{FullName: in.Name, Email: optional(in.Email), Religion: religion(in.Religion), Teacher: teacher}, nil
}

func (c *RowClassifier) classifyGuardian(ctx context.Context, row sheet.Row, ic models.ImportContext, errs map[string][]string) (*AcceptedRow, error) {
	in := guardianRowInput{
		Name:         row.Text(ColName),
		StudentNIS:   identifierText(row.Get(ColStudentNIS)),
		Relationship: normalizeRelationship(row.Text(ColRelationship)),
		Email:        strings.ToLower(row.Text(ColEmail)),
	}
	c.validate(in, errs)

	primary, ok := parseFlag(row.Text(ColPrimary))
	if !ok {
		errs[ColPrimary] = append(errs[ColPrimary], "utama harus ya atau tidak")
	}
	if err := c.checkEmail(ctx, in.Email, errs); err != nil {
		return nil, err
	}

	link := &models.StudentGuardian{Relationship: models.Relationship(in.Relationship), IsPrimary: primary}
	if in.StudentNIS != "" {
		student, err := c.students.FindByNIS(ctx, in.StudentNIS, ic.ClassID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			errs[ColStudentNIS] = append(errs[ColStudentNIS], fmt.Sprintf("siswa dengan NIS %s tidak ditemukan", in.StudentNIS))
		case err != nil:
			return nil, err
		default:
			link.StudentID = student.ID
			if primary {
				has, err := c.students.HasPrimaryGuardian(ctx, student.ID)
				if err != nil {
					return nil, err
				}
				if has {
					errs[ColPrimary] = append(errs[ColPrimary], fmt.Sprintf("siswa dengan NIS %s sudah memiliki wali utama", in.StudentNIS))
				}
			}
		}
	}

	guardian := &models.Guardian{
		Phone:      optional(phoneText(row.Get(ColPhone))),
		Address:    optional(row.Text(ColAddress)),
		Occupation: optional(row.Text(ColOccupation)),
	}
	return &AcceptedRow{FullName: in.Name, Email: optional(in.Email), Guardian: guardian, Link: link}, nil
}

func (c *RowClassifier) validate(in interface{}, errs map[string][]string) {
	if err := c.validator.Struct(in); err != nil {
		for field, msgs := range c.validator.FieldErrors(err) {
			errs[field] = append(errs[field], msgs...)
		}
	}
}

func (c *RowClassifier) checkEmail(ctx context.Context, email string, errs map[string][]string) error {
	if email == "" || len(errs[ColEmail]) > 0 {
		return nil
	}
	taken, err := c.emails.EmailExists(ctx, email, "")
	if err != nil {
		return err
	}
	if taken {
		errs[ColEmail] = append(errs[ColEmail], fmt.Sprintf("email %s sudah digunakan", email))
	}
	return nil
}

func validationFailure(row sheet.Row, errs map[string][]string) *models.ImportFailure {
	fields := validation.SortedFields(errs)
	failure := &models.ImportFailure{
		Row:    row.Number,
		Kind:   models.FailureValidation,
		Fields: fields,
		Values: row.Raw(),
	}
	if len(fields) > 0 {
		failure.Field = fields[0]
	}
	for _, f := range fields {
		failure.Messages = append(failure.Messages, errs[f]...)
	}
	return failure
}

var (
	reDigits       = regexp.MustCompile(`^\d+$`)
	reZeroFraction = regexp.MustCompile(`^(\d+)\.0+$`)
)

// identifierText renders an id-like cell as text, undoing the float
// formatting numeric cells pick up ("2024001.0", "1.98E+17").
func identifierText(c sheet.Cell) string {
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return ""
	}
	if reDigits.MatchString(v) {
		return v
	}
	if m := reZeroFraction.FindStringSubmatch(v); m != nil {
		return m[1]
	}
	if c.Numeric || strings.ContainsAny(v, ".eE") {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return v
}

// phoneText is identifierText plus the leading zero numeric cells drop.
func phoneText(c sheet.Cell) string {
	v := identifierText(c)
	if c.Numeric && strings.HasPrefix(v, "8") {
		return "0" + v
	}
	return v
}

func normalizeGender(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "L", "LAKI-LAKI", "LAKI LAKI", "PRIA":
		return models.GenderMale
	case "P", "PEREMPUAN", "WANITA":
		return models.GenderFemale
	default:
		return strings.ToUpper(strings.TrimSpace(raw))
	}
}

func normalizeRelationship(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ayah", "bapak", "father":
		return string(models.RelationshipFather)
	case "ibu", "mother":
		return string(models.RelationshipMother)
	case "wali", "guardian":
		return string(models.RelationshipGuardian)
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

// parseFlag reads the "utama" column; blank means false.
func parseFlag(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "tidak", "t", "no", "n", "0", "false":
		return false, true
	case "ya", "y", "yes", "1", "true":
		return true, true
	}
	return false, false
}

func religion(raw string) *string {
	return optional(validation.CanonicalReligion(raw))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
