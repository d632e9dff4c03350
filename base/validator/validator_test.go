package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/suite"
)

type ValidatorTestSuite struct {
	suite.Suite
}

type payload struct {
	Participant string `validate:"required"`
	Amount      int64  `validate:"gt=0"`
}

func (s *ValidatorTestSuite) TestValidate() {
	tests := []struct {
		desc     string
		payload  payload
		expValid bool
	}{
		{
			desc:     "valid payload",
			payload:  payload{Participant: "0xabc", Amount: 100},
			expValid: true,
		},
		{
			desc:     "missing participant",
			payload:  payload{Amount: 100},
			expValid: false,
		},
		{
			desc:     "non-positive amount",
			payload:  payload{Participant: "0xabc", Amount: 0},
			expValid: false,
		},
	}

	v := NewCustomValidator(validator.New())
	for _, t := range tests {
		err := v.Validate(t.payload)
		if t.expValid {
			s.NoError(err, t.desc)
		} else {
			s.Error(err, t.desc)
		}
	}
}

func TestValidatorTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}
