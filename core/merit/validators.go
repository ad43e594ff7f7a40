package merit

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/meritlist/core"
)

var (
	subStatusTag  = "substatus"
	subStatusText = "invalid submission status"

	valStatusTag  = "valstatus"
	valStatusText = "invalid validation status"

	docVerStatusTag  = "docverstatus"
	docVerStatusText = "invalid document verification status"

	decisionTag  = "decision"
	decisionText = "final decision must be one of Approved or Rejected"
)

// InitValidators registers the merit validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(subStatusTag, subStatusValidation)
	core.RegisterCustomTranslation(validate, translator, subStatusTag, subStatusText)

	_ = validate.RegisterValidation(valStatusTag, valStatusValidation)
	core.RegisterCustomTranslation(validate, translator, valStatusTag, valStatusText)

	_ = validate.RegisterValidation(docVerStatusTag, docVerStatusValidation)
	core.RegisterCustomTranslation(validate, translator, docVerStatusTag, docVerStatusText)

	_ = validate.RegisterValidation(decisionTag, decisionValidation)
	core.RegisterCustomTranslation(validate, translator, decisionTag, decisionText)
}

// Custom Validators
// pointer fields are dereferenced by the validator before reaching these funcs.

func subStatusValidation(fl validator.FieldLevel) bool {
	status := SubmissionStatus(fl.Field().String())
	for _, s := range allSubmissionStatuses {
		if status == s {
			return true
		}
	}
	return false
}

func valStatusValidation(fl validator.FieldLevel) bool {
	status := ValidationStatus(fl.Field().String())
	for _, s := range allValidationStatuses {
		if status == s {
			return true
		}
	}
	return false
}

func docVerStatusValidation(fl validator.FieldLevel) bool {
	status := DocumentStatus(fl.Field().String())
	for _, s := range allDocumentStatuses {
		if status == s {
			return true
		}
	}
	return false
}

func decisionValidation(fl validator.FieldLevel) bool {
	d := Decision(fl.Field().String())
	return d == DecisionApproved || d == DecisionRejected
}
