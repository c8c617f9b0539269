package web

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type RegistrationForm struct {
	Email      string `form:"email" binding:"required,email,min=10,max=100"`
	Password   string `form:"password" binding:"required,min=4,max=100"`
	FirstName  string `form:"first_name" binding:"required,min=2,max=50"`
	LastName   string `form:"last_name" binding:"required,min=2,max=50"`
	Address    string `form:"address" binding:"max=100"`
	RememberMe bool   `form:"remember_me"`
}

type LoginForm struct {
	Email      string `form:"email" binding:"required,email,min=10,max=100"`
	Password   string `form:"password" binding:"required,min=4,max=100"`
	RememberMe bool   `form:"remember_me"`
}

// FormErrors maps a form field name to its messages.
type FormErrors map[string][]string

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]; name != "" && name != "-" {
				return name
			}
			return f.Name
		})
	}
}

var messages = map[string]string{
	"required": "This field is required.",
	"email":    "Incorrect email",
	"min":      "Incorrect length",
	"max":      "Incorrect length",
}

// formErrors turns a binding error into per-field messages. Errors that are
// not validation failures land under "form".
func formErrors(err error) FormErrors {
	out := FormErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["form"] = append(out["form"], "Invalid form data")
		return out
	}
	for _, fe := range verrs {
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		out[fe.Field()] = append(out[fe.Field()], msg)
	}
	return out
}
