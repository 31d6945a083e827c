package models

// ImportKind is the entity kind an onboarding file creates.
type ImportKind string

const (
	ImportStudents  ImportKind = "students"
	ImportTeachers  ImportKind = "teachers"
	ImportGuardians ImportKind = "guardians"
)

// Valid reports whether k is a known import kind.
func (k ImportKind) Valid() bool {
	switch k {
	case ImportStudents, ImportTeachers, ImportGuardians:
		return true
	}
	return false
}

// ImportContext carries batch-wide scoping data.
type ImportContext struct {
	ClassID string `json:"class_id,omitempty"`
	// AnchorDay feeds default credentials for rows without a birth date.
	AnchorDay int `json:"-"`
}

// FailureKind separates constraint violations from storage failures.
type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureCreation   FailureKind = "creation"
)

// ImportFailure describes one rejected row well enough to fix and re-upload it.
type ImportFailure struct {
	Row      int               `json:"row"`
	Kind     FailureKind       `json:"kind"`
	Field    string            `json:"field"`
	Fields   []string          `json:"fields"`
	Messages []string          `json:"messages"`
	Values   map[string]string `json:"values"`
}

// ImportResult summarises one batch.
type ImportResult struct {
	Kind          ImportKind      `json:"kind"`
	TotalRows     int             `json:"total_rows"`
	ImportedCount int             `json:"imported_count"`
	SkippedCount  int             `json:"skipped_count"`
	Failures      []ImportFailure `json:"failures"`
}

// CreatedAccount is the outcome of one committed onboarding unit.
type CreatedAccount struct {
	UserID    string `json:"user_id"`
	ProfileID string `json:"profile_id"`
	Username  string `json:"username"`
}
