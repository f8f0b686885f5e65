package validator

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// GetValidator	returns the singleton instance of the validator
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// money fields are decimals; expose them as float64 so gt/gte tags apply
		validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	})
	return validate
}

func decimalValue(v reflect.Value) any {
	d, ok := v.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}
