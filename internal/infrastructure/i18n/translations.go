package i18n

import (
	"embed"
	"errors"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"rollbook/internal/domain"
	"rollbook/internal/ports/output"
)

//go:embed active.*.toml
var localeFS embed.FS

// Ensure Translator implements the output.Translator port.
var _ output.T = (*Translator)(nil)

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
}

// NewTranslator builds a Translator backed by go-i18n using the given default
// locale (e.g. "en").
//
// It loads translations from the embedded active.*.toml files.
func NewTranslator(defaultLocale string) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"active.en.toml", "active.fr.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			slog.Warn("i18n: failed to load locale file", "file", file, "error", err)
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
	}
}

// T renders the message identified by key for the given locale.
// If the key/locale is not found, it falls back to the default locale,
// then finally to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		return key
	}
	return msg
}

// errorKeys maps each domain sentinel to its catalogue entry.
var errorKeys = []struct {
	err error
	key string
}{
	{domain.ErrEmptyName, "error.empty_name"},
	{domain.ErrInvalidCharacters, "error.invalid_characters"},
	{domain.ErrDuplicateParticipant, "error.duplicate_participant"},
	{domain.ErrParticipantNotFound, "error.participant_not_found"},
	{domain.ErrInvalidDate, "error.invalid_date"},
	{domain.ErrPastDate, "error.past_date"},
	{domain.ErrNoParticipants, "error.no_participants"},
	{domain.ErrRecordNotFound, "error.record_not_found"},
	{domain.ErrStoreUnavailable, "error.store_unavailable"},
}

// ErrorMessage renders the presentation-ready message for a domain error,
// so dialog text never lives inside the business logic.
func (t *Translator) ErrorMessage(locale string, err error) string {
	for _, entry := range errorKeys {
		if errors.Is(err, entry.err) {
			return t.T(locale, entry.key, nil)
		}
	}
	return t.T(locale, "error.unexpected", nil)
}
