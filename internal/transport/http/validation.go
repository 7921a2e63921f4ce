package httptransport

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

// NewValidator возвращает validator с правилами предметной области.
func NewValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("step_type", func(fl validatorv10.FieldLevel) bool {
		return domain.StepType(strings.TrimSpace(fl.Field().String())).Valid()
	})
	_ = v.RegisterValidation("capital", func(fl validatorv10.FieldLevel) bool {
		_, ok := domain.ParseCapital(fl.Field().String())
		return ok
	})
	return v
}

// bindAndValidate разбирает JSON и проверяет его. При ошибке ответ 400 уже записан.
func bindAndValidate(c *gin.Context, out any, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request_body",
			"message": err.Error(),
		})
		return err
	}

	if err := v.Struct(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": validationErrorsToMap(err),
		})
		return err
	}
	return nil
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fieldPath(fe.Namespace())] = fe.Tag()
		}
		return out
	}
	out["error"] = err.Error()
	return out
}

// fieldPath убирает имя корневой структуры: OrderRequest.customer.first_name -> customer.first_name.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
