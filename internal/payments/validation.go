package payments

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
)

var linkedInPattern = regexp.MustCompile(`^(https?://)?(www\.)?(linkedin\.com/in/|linkedin\.com/pub/)[\w-]+/?$`)

// IsLinkedInURL reports whether raw looks like a LinkedIn profile URL.
func IsLinkedInURL(raw string) bool {
	return linkedInPattern.MatchString(strings.TrimSpace(raw))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("linkedin", func(fl validator.FieldLevel) bool {
		return IsLinkedInURL(fl.Field().String())
	})
	return v
}

// Messages keyed by "<field>.<tag>".
var fieldMessages = map[string]string{
	"razorpay_order_id.required":   "Order ID is required",
	"razorpay_payment_id.required": "Payment ID is required",
	"razorpay_signature.required":  "Payment signature is required",
	"investorName.required":        "Investor name is required",
	"investorName.max":             "Investor name is too long",
	"investorEmail.required":       "Investor email is required",
	"investorEmail.email":          "Please provide a valid email address",
	"investorPhone.max":            "Phone number is too long",
	"investorLinkedIn.linkedin":    "Please provide a valid LinkedIn profile URL",
	"receipt.required":             "Receipt ID is required",
	"receipt.max":                  "Receipt ID must be at most 40 characters",
}

// fieldErrors collects per-field messages in insertion order.
type fieldErrors struct {
	order   []string
	details map[string]string
}

func newFieldErrors() *fieldErrors {
	return &fieldErrors{details: map[string]string{}}
}

func (f *fieldErrors) add(field, msg string) {
	if _, exists := f.details[field]; exists {
		return
	}
	f.order = append(f.order, field)
	f.details[field] = msg
}

func (f *fieldErrors) addStruct(v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		f.add("body", err.Error())
		return
	}
	for _, fe := range errs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		f.add(fe.Field(), msg)
	}
}

// err returns nil when nothing was collected. A single failure is promoted to
// the top-level message.
func (f *fieldErrors) err() error {
	if len(f.order) == 0 {
		return nil
	}
	msg := "Validation failed"
	if len(f.order) == 1 {
		msg = f.details[f.order[0]]
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(f.details)
}
