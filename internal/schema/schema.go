// Package schema is the registry of per-activity detail fields. Submission
// recording and report rendering both resolve fields through For, so the
// stored detail rows and the report columns always agree.
package schema

import (
	"strings"

	"github.com/noah-isme/sma-habit-api/internal/models"
)

// Key identifies a schema variant.
type Key string

const (
	KeyNone         Key = ""
	KeyBangunPagi   Key = "bangun_pagi"
	KeyBeribadah    Key = "beribadah"
	KeyBerolahraga  Key = "berolahraga"
	KeyMakanSehat   Key = "makan_sehat"
	KeyGemarBelajar Key = "gemar_belajar"
	KeyMasyarakat   Key = "bermasyarakat"
	KeyTidurCepat   Key = "tidur_cepat"
)

// Render markers for detail cells.
const (
	MarkTrue       = "✓"
	MarkFalse      = "✗"
	MarkNotRecord  = "-"
	ChoiceNotGiven = "-"
)

// Field is one typed detail attribute.
type Field struct {
	Name  string
	Label string
	Type  models.DetailFieldType
	// Options restricts choice values; empty means free text.
	Options []string
}

// Schema is the ordered field list of one activity type.
type Schema struct {
	Key   Key
	Title string
	// TracksTime is set only for the wake-up activity, which records a time of day.
	TracksTime bool
	Fields     []Field

	keywords []string
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Labels returns the field labels in declaration order.
func (s Schema) Labels() []string {
	labels := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		labels[i] = f.Label
	}
	return labels
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Empty reports whether the schema declares no fields.
func (s Schema) Empty() bool { return len(s.Fields) == 0 }

func boolean(name, label string) Field {
	return Field{Name: name, Label: label, Type: models.FieldBoolean}
}

func choice(name, label string, options ...string) Field {
	return Field{Name: name, Label: label, Type: models.FieldChoice, Options: options}
}

var catalog = []Schema{
	{
		Key:        KeyBangunPagi,
		Title:      "Bangun Pagi",
		TracksTime: true,
		keywords:   []string{"bangun"},
		Fields: []Field{
			boolean("berdoa_bangun", "Berdoa Saat Bangun"),
			boolean("merapikan_tempat_tidur", "Merapikan Tempat Tidur"),
			boolean("mandi_pagi", "Mandi Pagi"),
		},
	},
	{
		Key:      KeyBeribadah,
		Title:    "Beribadah",
		keywords: []string{"ibadah"},
		Fields: []Field{
			boolean("ibadah_pagi", "Ibadah Pagi"),
			boolean("ibadah_siang", "Ibadah Siang"),
			boolean("ibadah_sore", "Ibadah Sore"),
			boolean("ibadah_malam", "Ibadah Malam"),
			boolean("membaca_kitab_suci", "Membaca Kitab Suci"),
		},
	},
	{
		Key:      KeyBerolahraga,
		Title:    "Berolahraga",
		keywords: []string{"olahraga", "olah raga"},
		Fields: []Field{
			choice("jenis_olahraga", "Jenis Olahraga",
				"Lari", "Bersepeda", "Senam", "Sepak Bola", "Bulu Tangkis", "Renang", "Lainnya"),
			choice("durasi_olahraga", "Durasi",
				"< 15 menit", "15-30 menit", "30-60 menit", "> 60 menit"),
		},
	},
	{
		Key:      KeyMakanSehat,
		Title:    "Makan Sehat dan Bergizi",
		keywords: []string{"makan"},
		Fields: []Field{
			boolean("sarapan", "Sarapan"),
			boolean("makan_siang", "Makan Siang"),
			boolean("makan_malam", "Makan Malam"),
			boolean("sayur", "Makan Sayur"),
			boolean("buah", "Makan Buah"),
			boolean("air_putih", "Minum Air Putih"),
		},
	},
	{
		Key:      KeyGemarBelajar,
		Title:    "Gemar Belajar",
		keywords: []string{"belajar"},
		Fields: []Field{
			choice("mata_pelajaran", "Mata Pelajaran"),
			choice("durasi_belajar", "Durasi Belajar",
				"< 30 menit", "30-60 menit", "1-2 jam", "> 2 jam"),
			boolean("mengerjakan_tugas", "Mengerjakan Tugas"),
		},
	},
	{
		Key:      KeyMasyarakat,
		Title:    "Bermasyarakat",
		keywords: []string{"masyarakat", "sosial"},
		Fields: []Field{
			choice("kegiatan_sosial", "Kegiatan",
				"Kerja Bakti", "Membantu Tetangga", "Kegiatan Keagamaan", "Organisasi Remaja", "Membantu Orang Tua", "Lainnya"),
			boolean("bersama_keluarga", "Bersama Keluarga"),
		},
	},
	{
		Key:      KeyTidurCepat,
		Title:    "Tidur Cepat",
		keywords: []string{"tidur"},
		Fields: []Field{
			boolean("sikat_gigi", "Sikat Gigi"),
			boolean("berdoa_tidur", "Berdoa Sebelum Tidur"),
			boolean("tanpa_gawai", "Tanpa Gawai Sebelum Tidur"),
		},
	},
}

// Catalog returns every registered schema in catalog order.
func Catalog() []Schema {
	out := make([]Schema, len(catalog))
	copy(out, catalog)
	return out
}

// For resolves an activity title to its schema. Titles are matched by
// keyword so spelling variants share one schema; unknown titles yield an
// empty schema carrying the given title.
func For(activityTitle string) Schema {
	title := normalize(activityTitle)
	if title == "" {
		return Schema{Title: activityTitle}
	}
	for _, s := range catalog {
		if normalize(s.Title) == title {
			return s
		}
	}
	for _, s := range catalog {
		for _, kw := range s.keywords {
			if strings.HasPrefix(title, kw) || strings.Contains(title, kw) {
				return s
			}
		}
	}
	return Schema{Title: activityTitle}
}

// ByKey returns the schema registered under key.
func ByKey(key Key) (Schema, bool) {
	for _, s := range catalog {
		if s.Key == key {
			return s, true
		}
	}
	return Schema{}, false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
