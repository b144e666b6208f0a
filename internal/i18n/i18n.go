// Package i18n holds the bot's copy catalog: every user-visible text, keyed by
// dot-separated paths and loaded from YAML.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	// T returns the text for key, or the key itself when unknown.
	T(key string) string
	// F returns the text for key with {name} placeholders replaced by the given
	// name/value pairs.
	F(key string, pairs ...any) string
	// List returns a list value such as the FAQ questions.
	List(key string) []string
	Lang() string
}

type catalog struct {
	texts map[string]string
	lists map[string][]string
}

func newCatalog() *catalog {
	return &catalog{texts: map[string]string{}, lists: map[string][]string{}}
}

// Manager stores all available translations.
type Manager struct {
	translations map[string]*catalog
	defaultLang  string
}

// Load loads the catalog compiled into the binary.
func Load(defaultLang string) (*Manager, error) {
	return LoadFS(embedded, "locales", defaultLang)
}

// LoadFromDir loads translations from a directory containing YAML files.
func LoadFromDir(dir, defaultLang string) (*Manager, error) {
	return LoadFS(os.DirFS(dir), ".", defaultLang)
}

// LoadFS loads every YAML file under root in fsys.
func LoadFS(fsys fs.FS, root, defaultLang string) (*Manager, error) {
	translations, err := parseDir(fsys, root)
	if err != nil {
		return nil, err
	}

	if defaultLang == "" {
		defaultLang = "en"
	}

	if _, ok := translations[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Manager{translations: translations, defaultLang: defaultLang}, nil
}

// Translator returns a translator for the requested language.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	norm := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(norm, "-_"); i > 0 {
		norm = norm[:i]
	}
	if norm == "" || m.translations[norm] == nil {
		norm = m.defaultLang
	}

	return translator{
		lang:         norm,
		fallback:     m.defaultLang,
		translations: m.translations,
	}
}

// Default returns the translator for the default language.
func (m *Manager) Default() Translator {
	return m.Translator("")
}

// Languages returns all loaded languages.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	languages := make([]string, 0, len(m.translations))
	for lang := range m.translations {
		languages = append(languages, lang)
	}
	return languages
}

type translator struct {
	lang         string
	fallback     string
	translations map[string]*catalog
}

func (t translator) Lang() string {
	return t.lang
}

func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	for _, lang := range []string{t.lang, t.fallback} {
		if c := t.translations[lang]; c != nil {
			if value, ok := c.texts[key]; ok && value != "" {
				return value
			}
		}
	}

	return key
}

func (t translator) F(key string, pairs ...any) string {
	text := t.T(key)
	if len(pairs) < 2 {
		return text
	}

	oldnew := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		oldnew = append(oldnew, "{"+fmt.Sprint(pairs[i])+"}", fmt.Sprint(pairs[i+1]))
	}
	return strings.NewReplacer(oldnew...).Replace(text)
}

func (t translator) List(key string) []string {
	for _, lang := range []string{t.lang, t.fallback} {
		if c := t.translations[lang]; c != nil {
			if values, ok := c.lists[key]; ok && len(values) > 0 {
				return append([]string(nil), values...)
			}
		}
	}
	return nil
}

func parseDir(fsys fs.FS, root string) (map[string]*catalog, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", root, err)
	}

	translations := make(map[string]*catalog)
	var processed bool

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry) {
			continue
		}

		processed = true

		name := path.Join(root, entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("i18n: read file %s: %w", name, err)
		}

		if err := parseFile(name, data, translations); err != nil {
			return nil, err
		}
	}

	if !processed {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", root)
	}

	return translations, nil
}

func isYAML(entry fs.DirEntry) bool {
	name := strings.ToLower(entry.Name())
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func parseFile(name string, data []byte, into map[string]*catalog) error {
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("i18n: parse file %s: %w", name, err)
	}

	for lang, value := range raw {
		langKey := strings.ToLower(strings.TrimSpace(lang))
		tree, ok := value.(map[string]any)
		if langKey == "" || !ok {
			continue
		}

		c := into[langKey]
		if c == nil {
			c = newCatalog()
			into[langKey] = c
		}
		flatten("", tree, c)
	}

	return nil
}

func flatten(prefix string, in map[string]any, out *catalog) {
	for key, value := range in {
		if key == "" {
			continue
		}

		nextKey := key
		if prefix != "" {
			nextKey = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			out.texts[nextKey] = v
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					items = append(items, s)
				}
			}
			out.lists[nextKey] = items
		case map[string]any:
			flatten(nextKey, v, out)
		}
	}
}
