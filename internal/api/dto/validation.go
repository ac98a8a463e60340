package dto

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/cuongbtq/ecourts-causelist/internal/api/domain"
	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

var registerOnce sync.Once

// RegisterValidators adds the causelistdate tag to gin's validator.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("causelistdate", func(fl validator.FieldLevel) bool {
			return causelist.IsValidDate(fl.Field().String())
		})
	})
	return err
}

// BindingMessage maps a binding error of DownloadCauseListRequest to the
// message shown to the user. ok is false for errors that are not field
// validation failures, such as malformed JSON.
func BindingMessage(err error) (msg string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "", false
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return domain.MsgFieldsRequired, true
		}
	}
	return domain.MsgInvalidDate, true
}
