package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type priced struct {
	Amount decimal.Decimal  `validate:"gt=0"`
	Max    *decimal.Decimal `validate:"omitempty,gt=0"`
}

func TestDecimalTags(t *testing.T) {
	neg := decimal.NewFromInt(-5)
	pos := decimal.NewFromInt(5)

	tests := []struct {
		name    string
		in      priced
		wantErr bool
	}{
		{"positive amount", priced{Amount: decimal.RequireFromString("0.01")}, false},
		{"zero amount", priced{Amount: decimal.Zero}, true},
		{"negative amount", priced{Amount: neg}, true},
		{"optional max set", priced{Amount: pos, Max: &pos}, false},
		{"optional max negative", priced{Amount: pos, Max: &neg}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GetValidator().Struct(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
