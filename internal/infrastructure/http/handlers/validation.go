package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Validation limits.
const (
	MaxNameLength  = 255
	MaxSlugLength  = 50
	MaxTitleLength = 500
)

var validate = newValidator()

// slugPattern: lowercase alphanumeric runs joined by single hyphens.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= MaxSlugLength && slugPattern.MatchString(s)
	})
	return v
}

// validationDetails flattens validator errors into field -> failed tag.
func validationDetails(err error) map[string]string {
	details := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return details
}

// bindJSON decodes and validates the request body into dst, writing the 400
// itself on failure.
func bindJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeErrDetails(w, http.StatusBadRequest, ErrCodeInvalidRequest, "validation failed", validationDetails(err))
		return false
	}
	return true
}
