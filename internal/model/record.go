package model

// Record is one student's grade row.
type Record struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"not null" json:"name"`
	Course string `gorm:"not null" json:"course"`
	Grade  int    `gorm:"not null;check:grade >= 0 AND grade <= 100" json:"grade"`
}

func (Record) TableName() string {
	return "grades"
}

// Draft is the user-supplied part of a Record. Grade is a pointer so that a
// missing grade can be told apart from a grade of 0.
type Draft struct {
	Name   string `json:"name" validate:"required"`
	Course string `json:"course" validate:"required"`
	Grade  *int   `json:"grade" validate:"required,min=0,max=100"`
}

// NewDraft is a convenience for callers holding a plain int grade.
func NewDraft(name, course string, grade int) Draft {
	return Draft{Name: name, Course: course, Grade: &grade}
}

// Record builds the stored form of the draft. The draft must be valid.
func (d Draft) Record(id uint) Record {
	rec := Record{ID: id, Name: d.Name, Course: d.Course}
	if d.Grade != nil {
		rec.Grade = *d.Grade
	}
	return rec
}

// Matches reports whether rec already holds the draft's values.
func (d Draft) Matches(rec Record) bool {
	return d.Grade != nil && rec.Name == d.Name && rec.Course == d.Course && rec.Grade == *d.Grade
}
