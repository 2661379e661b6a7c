package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"plaingov/internal/eligibility"
	dErrors "plaingov/pkg/domain-errors"
)

// toolArgs is the decoded argument object of every tool. UserContext is only
// read by the eligibility tool; other tools ignore it.
type toolArgs struct {
	ProgramID   string       `json:"program_id" validate:"required"`
	UserContext *userContext `json:"user_context" validate:"omitnil"`
}

// userContext mirrors eligibility.Facts on the wire. Pointers keep "absent"
// distinct from zero values; JSON null counts as absent.
type userContext struct {
	Income          *float64  `json:"income" validate:"omitnil,gte=0"`
	FamilySize      *float64  `json:"familySize" validate:"omitnil,gte=0"`
	HasChildren     *bool     `json:"hasChildren"`
	ChildrenAges    []float64 `json:"childrenAges" validate:"omitnil,dive,gte=0"`
	Province        *string   `json:"province"`
	BusinessType    *string   `json:"businessType"`
	TaxableSupplies *float64  `json:"taxableSupplies" validate:"omitnil,gte=0"`
}

// ToFacts converts the wire form into engine facts.
func (u *userContext) ToFacts() eligibility.Facts {
	return eligibility.Facts{
		Income:          u.Income,
		FamilySize:      u.FamilySize,
		HasChildren:     u.HasChildren,
		ChildrenAges:    u.ChildrenAges,
		Province:        u.Province,
		BusinessType:    u.BusinessType,
		TaxableSupplies: u.TaxableSupplies,
	}
}

type validatorSvc struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

func getValidator() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// report json names so messages match what callers sent
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vSvc = &validatorSvc{validate: v, translator: trans}
	})
	return vSvc
}

// decodeArgs parses and validates raw tool arguments. Every failure is a
// validation error carrying a message safe to return to the caller.
func decodeArgs(raw json.RawMessage, requireUserContext bool) (toolArgs, error) {
	var args toolArgs
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return args, dErrors.New(dErrors.CodeValidation, "arguments are required")
	}
	if trimmed[0] != '{' {
		return args, dErrors.New(dErrors.CodeValidation, "arguments must be an object")
	}
	if err := checkKeyCase(trimmed, reflect.TypeOf(toolArgs{}), ""); err != nil {
		return args, err
	}

	if err := json.Unmarshal(trimmed, &args); err != nil {
		return args, dErrors.Wrap(err, dErrors.CodeValidation, decodeMessage(err))
	}

	if err := getValidator().validate.Struct(args); err != nil {
		return args, dErrors.Wrap(err, dErrors.CodeValidation, validationMessage(err))
	}

	if requireUserContext && args.UserContext == nil {
		return args, dErrors.New(dErrors.CodeValidation, "user_context is required")
	}
	return args, nil
}

// checkKeyCase rejects keys that differ from a declared field only by case.
// encoding/json would otherwise bind "PROGRAM_ID" to program_id. Keys that
// match no field at all are ignored, as they are by the decoder.
func checkKeyCase(raw []byte, shape reflect.Type, prefix string) error {
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		// not an object; the typed decode reports it
		return nil
	}
	names := jsonFields(shape)

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if nested, ok := names[key]; ok {
			if nested != nil {
				if err := checkKeyCase(fields[key], nested, prefix+key+"."); err != nil {
					return err
				}
			}
			continue
		}
		for name := range names {
			if strings.EqualFold(key, name) {
				return dErrors.New(dErrors.CodeValidation,
					fmt.Sprintf("%s%s is not a known argument, use %s%s", prefix, key, prefix, name))
			}
		}
	}
	return nil
}

// jsonFields maps each json field name of t to its struct type when the
// field is itself a struct (or pointer to one), else nil.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	names := make(map[string]reflect.Type, t.NumField())
	for i := range t.NumField() {
		fld := t.Field(i)
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		ft := fld.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			names[name] = ft
		} else {
			names[name] = nil
		}
	}
	return names
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be %s", typeErr.Field, describeKind(typeErr.Type))
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "arguments are not valid JSON"
	}
	return "arguments could not be decoded"
}

func describeKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "a number"
	case reflect.Bool:
		return "a boolean"
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	}
	return "a " + t.Kind().String()
}

// validationMessage returns the first failure, named by its path from the
// argument root (e.g. "user_context.childrenAges[1]").
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid arguments"
	}
	fe := verrs[0]
	path := fe.Namespace()
	if idx := strings.Index(path, "."); idx >= 0 {
		path = path[idx+1:]
	}
	msg := fe.Translate(getValidator().translator)
	return strings.Replace(msg, fe.Field(), path, 1)
}
