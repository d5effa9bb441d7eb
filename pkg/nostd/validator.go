package nostd

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	transMu sync.RWMutex
	trans   ut.Translator
)

// CustomValidator echo.Validator 实现，错误信息使用英文翻译
type CustomValidator struct {
	Validator *validator.Validate
}

// TransInit 注册英文翻译
func (cv *CustomValidator) TransInit() error {
	locale := en.New()
	uni := ut.New(locale, locale)
	t, found := uni.GetTranslator("en")
	if !found {
		return fmt.Errorf("translator %s not found", "en")
	}
	if err := en_translations.RegisterDefaultTranslations(cv.Validator, t); err != nil {
		return err
	}

	transMu.Lock()
	trans = t
	transMu.Unlock()
	return nil
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.Validator.Struct(i)
}

// TranslateError 把校验错误拼接为一条可读信息
func TranslateError(errs validator.ValidationErrors) string {
	transMu.RLock()
	t := trans
	transMu.RUnlock()

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		if t != nil {
			messages = append(messages, e.Translate(t))
		} else {
			messages = append(messages, e.Error())
		}
	}
	return strings.Join(messages, "; ")
}
