package http

import (
	"errors"
	"strings"

	"github.com/aussiebroadwan/passguard/internal/auth/apperr"
	"github.com/aussiebroadwan/passguard/internal/auth/policy"
	"github.com/aussiebroadwan/passguard/internal/auth/service"
	"github.com/aussiebroadwan/passguard/pkg/authsdk"
	validation "github.com/go-ozzo/ozzo-validation"
)

func required(field string) validation.Rule {
	return validation.Required.Error("'" + field + "' must not be empty.")
}

// passwordRule runs the shared password policy so request validation and
// the service agree on every password.
func passwordRule(p policy.Policy) validation.Rule {
	return validation.By(func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil // reported by required
		}
		if res := p.Validate(s); !res.Succeeded {
			return errors.New(strings.Join(res.Errors(), ","))
		}
		return nil
	})
}

func validateLogin(req *authsdk.LoginRequest) error {
	return toValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Username, required("Username")),
		validation.Field(&req.Password, required("Password")),
		validation.Field(&req.TokenExpireAt,
			validation.By(func(value any) error {
				if req.TokenExpireAt != nil && *req.TokenExpireAt <= 0 {
					return errors.New("'Token Expire At' must be greater than '0'.")
				}
				return nil
			}),
		),
	))
}

func validateRegister(req *authsdk.RegisterRequest, p policy.Policy) error {
	return toValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Username, required("Username")),
		validation.Field(&req.LastName, required("Last Name")),
		validation.Field(&req.Password, required("Password"), passwordRule(p)),
	))
}

func validateChangePassword(req *authsdk.ChangePasswordRequest, p policy.Policy) error {
	return toValidationError(validation.ValidateStruct(req,
		validation.Field(&req.OldPassword,
			required("Old Password"),
			validation.By(func(value any) error {
				if req.OldPassword == req.NewPassword {
					return errors.New(service.MsgSamePassword)
				}
				return nil
			}),
		),
		validation.Field(&req.NewPassword, required("New Password"), passwordRule(p)),
	))
}

func validateRefresh(req *authsdk.RefreshTokenRequest) error {
	return toValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Token, required("Token")),
	))
}

// toValidationError converts ozzo field errors into the validation
// BadRequest. Anything else is returned untouched.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string][]string, len(verrs))
	for name, ferr := range verrs {
		fields[name] = []string{ferr.Error()}
	}
	return apperr.Validation(fields)
}
