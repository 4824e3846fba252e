package util

import (
	"symposium_backend/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 注册业务枚举校验标签，供 binding:"..." 使用
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("violation_kind", func(fl validator.FieldLevel) bool {
		return model.ViolationKind(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("finalize_reason", func(fl validator.FieldLevel) bool {
		return model.FinalizeReason(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("terminal_status", func(fl validator.FieldLevel) bool {
		return model.AttemptStatus(fl.Field().String()).IsTerminal()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("round_status", func(fl validator.FieldLevel) bool {
		return model.RoundStatus(fl.Field().String()).Valid()
	})
}
