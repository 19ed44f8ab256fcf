package app

import (
	"errors"
	"fmt"
	"strings"

	"conversation-deck-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

var answerValidate *validator.Validate

func init() {
	answerValidate = validator.New()
	if err := answerValidate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
}

func validateAnswerInput(in domain.AnswerInput) error {
	err := answerValidate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed %q", domain.ErrValidation, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}
