package allocation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Request is the user's input to the allocation engine
type Request struct {
	Capital           decimal.Decimal `json:"capital" validate:"gt=0"`
	RiskLevel         string          `json:"risk_level" validate:"required,risk_level"`
	InvestmentHorizon string          `json:"investment_horizon" validate:"required,horizon"`
	PreferredSectors  []string        `json:"preferred_sectors" validate:"omitempty,dive,required"`
	Currency          string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

// FieldError describes one invalid request field
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError is returned by Request.Validate
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s failed %s", f.Field, f.Rule)
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Capital is compared numerically
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	mustRegister(v, "risk_level", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseRiskLevel(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "horizon", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseHorizon(fl.Field().String())
		return err == nil
	})

	return v
}

// mustRegister registers a custom rule, panicking on failure
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// Validate checks the request against its struct tags
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// Parsed returns the typed risk level and horizon. Call after Validate.
func (r Request) Parsed() (domain.RiskLevel, domain.Horizon, error) {
	risk, err := domain.ParseRiskLevel(r.RiskLevel)
	if err != nil {
		return "", "", err
	}
	horizon, err := domain.ParseHorizon(r.InvestmentHorizon)
	if err != nil {
		return "", "", err
	}
	return risk, horizon, nil
}
