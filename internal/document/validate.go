package document

import (
	"github.com/go-playground/validator/v10"

	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/tags"
)

// validate checks decoded documents. Initialized in init() with the tag
// grammar and the color palette as custom rules.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("tag", func(fl validator.FieldLevel) bool {
		return tags.Valid(fl.Field().String())
	})
	_ = validate.RegisterValidation("palette", func(fl validator.FieldLevel) bool {
		return model.ValidColor(fl.Field().String())
	})
}
