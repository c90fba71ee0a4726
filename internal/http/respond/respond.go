// Package respond writes the JSON envelopes shared by handlers and middleware:
// {"data": ...} on success and {"error", "kind", "fields"} on failure.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/you/schoolsvc/domain"
)

// FieldError is one failed binding constraint
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ErrorBody is the wire shape of every error response
type ErrorBody struct {
	Error  string           `json:"error"`
	Kind   domain.ErrorKind `json:"kind"`
	Fields []FieldError     `json:"fields,omitempty"`
}

// Status maps an error kind to its HTTP status
func Status(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindInvalidValue, domain.KindInvalidCredentials, domain.KindDuplicateEmail:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindAccessDenied, domain.KindInsufficientPermissions, domain.KindAdminAlreadyExists:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Data writes a success envelope
func Data(c *gin.Context, status int, v interface{}) {
	c.JSON(status, gin.H{"data": v})
}

// Error writes the error envelope for err. Internal errors are logged and
// replaced with a generic message.
func Error(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	body := ErrorBody{Error: err.Error(), Kind: kind}

	switch kind {
	case domain.KindInternal:
		logger(c).WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"route":  c.FullPath(),
		}).Error("request failed")
		body.Error = "internal server error"
	}
	c.JSON(Status(kind), body)
}

// Abort writes the error envelope and stops the handler chain
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// BindError reports a ShouldBind failure. Validator errors are flattened into
// fields; typed decode errors from domain enums keep their kind.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		c.JSON(http.StatusBadRequest, ErrorBody{
			Error:  domain.ErrValidation.Error(),
			Kind:   domain.KindValidation,
			Fields: fields,
		})
		return
	}
	if domain.KindOf(err) == domain.KindInvalidValue {
		Error(c, err)
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	msg := "malformed request body"
	if errors.As(err, &typeErr) {
		msg = "field " + typeErr.Field + " has the wrong type"
	} else if !errors.As(err, &syntaxErr) && err != nil {
		msg = err.Error()
	}
	c.JSON(http.StatusBadRequest, ErrorBody{Error: msg, Kind: domain.KindValidation})
}

var registerOnce sync.Once

// UseJSONFieldNames makes gin's validator report json tag names, so the
// fields list uses the names clients send.
func UseJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

const loggerKey = "logger"

// SetLogger stores the request logger on c
func SetLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(loggerKey, log)
		c.Next()
	}
}

func logger(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(logrus.FieldLogger); ok {
			return l
		}
	}
	return logrus.StandardLogger()
}
