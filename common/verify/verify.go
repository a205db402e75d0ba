package verify

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
)

const (
	LocaleZH = "zh"
	LocaleEN = "en"
)

// ValidatorInstance 校验器与翻译器
type ValidatorInstance struct {
	Validate   *validator.Validate
	Translator ut.Translator
}

// InitValidator 创建带翻译的校验器，字段名取 json tag
func InitValidator(locale string) (*ValidatorInstance, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	zhT := zh.New()
	enT := en.New()
	uni := ut.New(enT, zhT, enT)

	trans, ok := uni.GetTranslator(locale)
	if !ok {
		return nil, fmt.Errorf("不支持的语言: %s", locale)
	}

	var err error
	switch locale {
	case LocaleZH:
		err = zhTranslations.RegisterDefaultTranslations(validate, trans)
	case LocaleEN:
		err = enTranslations.RegisterDefaultTranslations(validate, trans)
	default:
		return nil, fmt.Errorf("不支持的语言: %s", locale)
	}
	if err != nil {
		return nil, fmt.Errorf("注册翻译失败: %w", err)
	}

	return &ValidatorInstance{Validate: validate, Translator: trans}, nil
}

// RemoveTopSaStr 翻译校验错误，并去掉 "Struct." 形式的顶层结构体前缀
func RemoveTopSaStr(errs validator.ValidationErrors, trans ut.Translator) string {
	msgs := make([]string, 0, len(errs))
	for field, msg := range errs.Translate(trans) {
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		msgs = append(msgs, field+": "+msg)
	}
	// map 遍历无序，排序保证输出稳定
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
