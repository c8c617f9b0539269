package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorModel is one entry of an error response. Error responses are always
// a JSON array of these.
type ErrorModel struct {
	Source      string `json:"source"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

const (
	TypeMissing       = "value_error.missing"
	TypeMaxLength     = "value_error.any_str.max_length"
	TypeFloat         = "type_error.float"
	TypeInteger       = "type_error.integer"
	TypeNotGE         = "value_error.number.not_ge"
	TypeNotLE         = "value_error.number.not_le"
	TypeNotFound      = "value_error.not_found"
	TypeAlreadyExists = "value_error.already_exists"
	TypeImage         = "type_error.image"
	TypeBody          = "value_error.body"
	TypeDatabase      = "server_error.database"
	TypeUpload        = "server_error.upload"
)

var (
	errToken = ErrorModel{
		Source:      "token",
		Type:        TypeMissing,
		Description: "value is not specified, expired or contains wrong data",
	}
	errDatabase = ErrorModel{
		Source:      "server",
		Type:        TypeDatabase,
		Description: "Error with the database.",
	}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their form name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validationErrors converts validator output into error entries.
func validationErrors(err error) []ErrorModel {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ErrorModel{{Source: "body", Type: TypeBody, Description: err.Error()}}
	}
	out := make([]ErrorModel, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldError(fe))
	}
	return out
}

func fieldError(fe validator.FieldError) ErrorModel {
	e := ErrorModel{Source: fe.Field()}
	switch fe.Tag() {
	case "required":
		e.Type, e.Description = TypeMissing, "field required"
	case "max":
		e.Type = TypeMaxLength
		e.Description = fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
	case "numeric":
		e.Type, e.Description = TypeFloat, "value is not a valid float"
	case "number":
		e.Type, e.Description = TypeInteger, "value is not a valid integer"
	default:
		e.Type = "value_error." + fe.Tag()
		e.Description = fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
	return e
}

func notFound(source, what string) ErrorModel {
	return ErrorModel{Source: source, Type: TypeNotFound, Description: what + " not found"}
}

func rangeError(source string, ge bool, limit int) ErrorModel {
	if ge {
		return ErrorModel{Source: source, Type: TypeNotGE,
			Description: fmt.Sprintf("ensure this value is greater than or equal to %d", limit)}
	}
	return ErrorModel{Source: source, Type: TypeNotLE,
		Description: fmt.Sprintf("ensure this value is less than or equal to %d", limit)}
}

func abortErrors(c *gin.Context, status int, errs ...ErrorModel) {
	c.AbortWithStatusJSON(status, errs)
}

func serverError(c *gin.Context) {
	abortErrors(c, http.StatusInternalServerError, errDatabase)
}
