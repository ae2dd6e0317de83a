package i18n

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/cloudfoundry/jibber_jabber"
	"github.com/imdario/mergo"
	"github.com/sirupsen/logrus"
)

// Localizer translates a message into the user's language.
type Localizer struct {
	Log *logrus.Entry
	S   TranslationSet
}

// TranslationLoader handles loading of translations from JSON files, falling
// back to the hard-coded sets in english.go/french.go when no file is found.
type TranslationLoader struct {
	translationsPath string
	log              *logrus.Entry
	cache            map[string]TranslationSet
}

// NewTranslationLoader creates a new translation loader.
func NewTranslationLoader(log *logrus.Entry, translationsPath string) *TranslationLoader {
	if translationsPath == "" {
		translationsPath = "./translations"
	}

	return &TranslationLoader{
		translationsPath: translationsPath,
		log:              log,
		cache:            make(map[string]TranslationSet),
	}
}

func builtinSet(languageCode string) (TranslationSet, bool) {
	switch languageCode {
	case "en":
		return englishSet(), true
	case "fr":
		return frenchSet(), true
	default:
		return TranslationSet{}, false
	}
}

// LoadTranslation returns the translation set for a language, preferring a
// JSON override file under translationsPath and falling back to the
// built-in set.
func (tl *TranslationLoader) LoadTranslation(languageCode string) (*TranslationSet, error) {
	if cached, ok := tl.cache[languageCode]; ok {
		return &cached, nil
	}

	base, haveBuiltin := builtinSet(languageCode)

	filePath := filepath.Join(tl.translationsPath, languageCode+".json")
	if _, err := os.Stat(filePath); err == nil {
		data, err := ioutil.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
		}

		var file TranslationFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse translation file %s: %w", filePath, err)
		}

		overrides := mapToTranslationSet(file.Translations)
		if err := mergo.Merge(&overrides, base); err != nil {
			return nil, err
		}
		tl.cache[languageCode] = overrides
		return &overrides, nil
	}

	if !haveBuiltin {
		return nil, fmt.Errorf("no translation available for %q", languageCode)
	}

	tl.cache[languageCode] = base
	return &base, nil
}

func mapToTranslationSet(translations map[string]string) TranslationSet {
	ts := TranslationSet{}

	v := reflect.ValueOf(&ts).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Name

		if field.Kind() == reflect.String && field.CanSet() {
			if val, ok := translations[fieldName]; ok {
				field.SetString(val)
			}
		}
	}

	return ts
}

// NewTranslationSet builds a translation set for the given language,
// resolving "auto" from the host OS locale.
func NewTranslationSet(log *logrus.Entry, language string) *TranslationSet {
	loader := NewTranslationLoader(log, "./translations")

	resolved := language
	if resolved == "" || resolved == "auto" {
		resolved = detectLanguage(jibber_jabber.DetectLanguage)
	}

	set, err := loader.LoadTranslation(resolved)
	if err != nil {
		log.Warnf("failed to load translation for %q: %v, falling back to english", resolved, err)
		set, err = loader.LoadTranslation("en")
		if err != nil {
			fallback := englishSet()
			return &fallback
		}
	}
	return set
}

func detectLanguage(langDetector func() (string, error)) string {
	if userLang, err := langDetector(); err == nil {
		code := strings.SplitN(userLang, "_", 2)[0]
		if code != "" {
			return code
		}
	}
	return "en"
}
