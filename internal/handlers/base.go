package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"blogapi/internal/middleware"
	"blogapi/internal/policy"
	"blogapi/internal/services"
	"blogapi/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const forbiddenMessage = "Unauthorized or not found"

func init() {
	// report json names in validation errors instead of Go field names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func caller(c *gin.Context) *policy.Identity {
	return middleware.CurrentIdentity(c)
}

// bindJSON binds and validates the body. An empty body is validated as an
// empty object so missing fields are reported per field.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err != nil {
		respondError(c, bindingError(err))
		return false
	}
	return true
}

// pathID reads a numeric path parameter; anything else is a 404 for resource.
func pathID(c *gin.Context, name, resource string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": resource + " not found"})
		return 0, false
	}
	return id, true
}

// respondError maps the service error taxonomy onto status codes.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var nf *services.NotFoundError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "The given data was invalid.",
			"errors":  verr.Fields,
		})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": forbiddenMessage})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"message": nf.Resource + " not found"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	default:
		fields := map[string]any{"path": c.FullPath(), "method": c.Request.Method}
		if identity := caller(c); identity != nil {
			fields["user_id"] = identity.UserID
		}
		utils.Logger.WithFields(fields).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

func bindingError(err error) *services.ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &services.ValidationError{}
		for _, fe := range verrs {
			out.Add(fe.Field(), fieldMessage(fe))
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return services.NewValidationError(typeErr.Field, fmt.Sprintf("The %s field has an invalid type.", humanize(typeErr.Field)))
	}
	return services.NewValidationError("body", "The request body must be a valid JSON object.")
}

func fieldMessage(fe validator.FieldError) string {
	name := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
