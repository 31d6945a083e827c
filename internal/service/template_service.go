package service

import (
	"fmt"

	"github.com/noah-isme/sma-habit-api/internal/models"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
	"github.com/noah-isme/sma-habit-api/pkg/export"
)

const templateInstruction = "Petunjuk: isi data mulai baris ke-5, hapus baris ini dan baris contoh sebelum mengunggah"

// columnHeadings are the visible template headings; each normalises back to
// its column key on import.
var columnHeadings = map[string]string{
	ColName:         "Nama",
	ColNIS:          "NIS",
	ColNISN:         "NISN",
	ColGender:       "Jenis Kelamin (L/P)",
	ColBirthDate:    "Tanggal Lahir (YYYY-MM-DD)",
	ColReligion:     "Agama",
	ColAddress:      "Alamat",
	ColEmail:        "Email",
	ColNIP:          "NIP",
	ColPhone:        "No HP",
	ColStudentNIS:   "NIS Siswa",
	ColRelationship: "Hubungan (Ayah/Ibu/Wali)",
	ColPrimary:      "Utama (Ya/Tidak)",
	ColOccupation:   "Pekerjaan",
}

// sampleValues fill the illustrative rows, keyed by column.
var sampleValues = map[models.ImportKind][]map[string]string{
	models.ImportStudents: {
		{ColNIS: "2024001", ColNISN: "0012345678", ColGender: "L", ColBirthDate: "2010-05-15", ColReligion: "Islam", ColAddress: "Jl. Merdeka No. 1"},
		{ColNIS: "2024002", ColNISN: "0012345679", ColGender: "P", ColBirthDate: "2010-08-17", ColReligion: "Kristen", ColAddress: "Jl. Sudirman No. 2"},
	},
	models.ImportTeachers: {
		{ColEmail: "dewi.lestari@sekolah.sch.id", ColNIP: "198001012005012001", ColPhone: "081234567890", ColReligion: "Islam", ColAddress: "Jl. Pahlawan No. 3"},
		{ColEmail: "agus.salim@sekolah.sch.id", ColNIP: "198502022010011002", ColPhone: "081298765432", ColReligion: "Katolik", ColAddress: "Jl. Diponegoro No. 4"},
	},
	models.ImportGuardians: {
		{ColStudentNIS: "2024001", ColRelationship: "Ayah", ColPrimary: "Ya", ColPhone: "081311112222", ColOccupation: "Wiraswasta", ColAddress: "Jl. Merdeka No. 1"},
		{ColStudentNIS: "2024002", ColRelationship: "Ibu", ColPrimary: "Ya", ColPhone: "081333334444", ColOccupation: "Guru", ColAddress: "Jl. Sudirman No. 2", ColEmail: "sri.wahyuni@contoh.id"},
	},
}

// TemplateService produces the blank onboarding templates.
type TemplateService struct {
	exporter *export.XLSXExporter
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(exporter *export.XLSXExporter) *TemplateService {
	if exporter == nil {
		exporter = export.NewXLSXExporter()
	}
	return &TemplateService{exporter: exporter}
}

// TemplateFilename is the download name of a kind's template.
func TemplateFilename(kind models.ImportKind) string {
	return fmt.Sprintf("template_%s.xlsx", kind)
}

// Workbook describes the template of a kind: headings, one instruction row
// and the two sample rows the classifier skips.
func (s *TemplateService) Workbook(kind models.ImportKind) (export.Workbook, error) {
	cols, ok := Columns[kind]
	if !ok {
		return export.Workbook{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown import kind %q", kind))
	}

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = columnHeadings[c]
	}

	instruction := make([]string, len(cols))
	instruction[0] = templateInstruction
	rows := [][]string{instruction}
	for i, name := range SampleNames[kind] {
		values := sampleValues[kind][i]
		row := make([]string, len(cols))
		for j, c := range cols {
			if c == ColName {
				row[j] = name
				continue
			}
			row[j] = values[c]
		}
		rows = append(rows, row)
	}

	return export.Workbook{Sheets: []export.Sheet{{
		Title:    string(kind),
		Table:    export.Table{Headers: headers, Rows: rows},
		NoteRows: 1,
	}}}, nil
}

// Render returns the template file name and xlsx bytes.
func (s *TemplateService) Render(kind models.ImportKind) (string, []byte, error) {
	wb, err := s.Workbook(kind)
	if err != nil {
		return "", nil, err
	}
	body, err := s.exporter.Render(wb)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render template")
	}
	return TemplateFilename(kind), body, nil
}
