package rekuest

import (
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"ietool.dev/backend-next/internal/pkg/apperr"
	"ietool.dev/backend-next/internal/util"
)

var (
	Validate = util.NewValidator()

	translator ut.Translator
)

func init() {
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")

	if err := enTranslations.RegisterDefaultTranslations(Validate, translator); err != nil {
		log.Warn().Err(err).Str("locale", "en").Msg("could not register translation")
	}

	custom := map[string]string{
		"isodate":  "{0} must be a date formatted as YYYY-MM-DD",
		"entityid": "{0} must be a valid id",
	}
	for tag, text := range custom {
		text := text
		tag := tag
		err := Validate.RegisterTranslation(tag, translator, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		})
		if err != nil {
			log.Warn().Err(err).Str("tag", tag).Msg("could not register translation for custom validation")
		}
	}
}

type ErrorResponse struct {
	Field     string `json:"field,omitempty"`
	Violation string `json:"violation"`
	Message   string `json:"message"`
}

func translate(ve validator.ValidationErrors) []*ErrorResponse {
	trans := make([]*ErrorResponse, 0, len(ve))
	for _, fe := range ve {
		trans = append(trans, &ErrorResponse{
			Field:     fe.Namespace(),
			Violation: fe.Tag(),
			Message:   strings.TrimSpace(fe.Translate(translator)),
		})
	}
	return trans
}

func validateVar(s any, tag string) []*ErrorResponse {
	err := Validate.Var(s, tag)
	if err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			panic(err)
		}
		return translate(errs)
	}
	return nil
}

func validateStruct(s any) []*ErrorResponse {
	err := Validate.Struct(s)
	if err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			panic(err)
		}
		return translate(errs)
	}
	return nil
}

// ValidBody will get the body from *fiber.Ctx using fiber#BodyParser(),
// and validate it using the validator singleton. If the validation passed it will write the unmarshalled body
// to dest and return a nil, otherwise it will return an error. Notice that dest shall
// always be a pointer.
func ValidBody(ctx *fiber.Ctx, dest any) error {
	if err := ctx.BodyParser(dest); err != nil {
		return apperr.ErrInvalidReq.Msg("invalid request: %s", err)
	}

	return ValidStruct(dest)
}

func ValidStruct(dest any) error {
	if err := validateStruct(dest); err != nil {
		return apperr.NewInvalidViolations(err)
	}

	return nil
}

func ValidVar(field any, tag string) error {
	if err := validateVar(field, tag); err != nil {
		return apperr.NewInvalidViolations(err)
	}

	return nil
}

// ValidID reads the route param name and checks it is an id.
func ValidID(ctx *fiber.Ctx, name string) (string, error) {
	id := ctx.Params(name)
	if err := ValidVar(id, "required,entityid"); err != nil {
		return "", err
	}
	return id, nil
}
