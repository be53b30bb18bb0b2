package model

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	requiredText = "{0} is required"
	gradeText    = "{0} must be a number between 0 and 100"
	numberText   = "must be a number"
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	RegisterCustomTranslation("required", requiredText, true)
	RegisterCustomTranslation("min", gradeText, true)
	RegisterCustomTranslation("max", gradeText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Normalize trims surrounding whitespace from the text fields.
func (d *Draft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Course = strings.TrimSpace(d.Course)
}

// Validate normalizes the draft and checks it. The returned error is a
// *ValidationError carrying one FieldError per failing field.
func (d *Draft) Validate() error {
	d.Normalize()
	err := Validate.Struct(d)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return errors.Wrap(err, "validating record")
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(Translator)})
	}
	return NewValidationError(errInvalidRecord, flds...)
}

// ParseDraft builds and validates a draft from raw text inputs, as submitted
// by HTML forms or the command line.
func ParseDraft(name, course, grade string) (Draft, error) {
	d := Draft{Name: name, Course: course}
	var flds []FieldError
	if grade = strings.TrimSpace(grade); grade != "" {
		g, err := strconv.Atoi(grade)
		if err != nil {
			flds = append(flds, FieldError{Field: "grade", Error: "grade " + numberText})
		} else {
			d.Grade = &g
		}
	}
	nonNumeric := len(flds) > 0
	if err := d.Validate(); err != nil {
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			return d, err
		}
		for _, fld := range vErr.Fields {
			if fld.Field == "grade" && nonNumeric {
				continue // already reported as non-numeric
			}
			flds = append(flds, fld)
		}
	}
	if len(flds) > 0 {
		return d, NewValidationError(errInvalidRecord, flds...)
	}
	return d, nil
}

// ParseID parses a record id submitted as text.
func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, NewValidationError(errors.New("invalid record id"), FieldError{Field: "id", Error: "id " + numberText})
	}
	return uint(id), nil
}
