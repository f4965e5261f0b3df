package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error" example:"validation failed"`
	Details []ValidationError `json:"details"`
}

var validate = validator.New()

// ValidateStruct validates s against its `validate` tags.
func ValidateStruct(s interface{}) []ValidationError {
	return ValidationErrors(validate.Struct(s))
}

// ValidationErrors flattens validator errors. Other errors yield nil.
func ValidationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: errorMessage(fe),
		})
	}
	return out
}

func errorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return err.Field() + " must be a valid email address"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "gte":
		return err.Field() + " must be greater than or equal to " + err.Param()
	case "lte":
		return err.Field() + " must be less than or equal to " + err.Param()
	default:
		return err.Field() + " is invalid"
	}
}

// RespondBindError answers a failed ShouldBindJSON with 400, listing field
// errors when the failure came from validation.
func RespondBindError(c *gin.Context, err error) {
	if details := ValidationErrors(err); len(details) > 0 {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Error: "validation failed", Details: details})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
}
