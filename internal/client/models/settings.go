package models

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// ErrUnknownField is returned by SetField for names that are not settings.
var ErrUnknownField = errors.New("unknown settings field")

// Field names used in change notifications and per-field diffs.
const (
	FieldTheme                = "theme"
	FieldLanguage             = "language"
	FieldDateFormat           = "dateFormat"
	FieldBudgetAlertThreshold = "budgetAlertThreshold"
	FieldEmailNotifications   = "emailNotifications"
	FieldPushNotifications    = "pushNotifications"
	FieldFiscalYearStart      = "fiscalYearStart"
	FieldDefaultView          = "defaultView"
)

// Settings is the full preference object cached on the client. The first
// four fields are persisted remotely, the rest never leave the device.
type Settings struct {
	Theme                string `json:"theme" validate:"oneof=light dark system"`
	Language             string `json:"language" validate:"required,min=2,max=8"`
	DateFormat           string `json:"dateFormat" validate:"oneof=DD/MM/YYYY MM/DD/YYYY YYYY-MM-DD"`
	BudgetAlertThreshold int    `json:"budgetAlertThreshold" validate:"min=0,max=100"`

	EmailNotifications bool   `json:"emailNotifications"`
	PushNotifications  bool   `json:"pushNotifications"`
	FiscalYearStart    int    `json:"fiscalYearStart" validate:"min=1,max=12"`
	DefaultView        string `json:"defaultView" validate:"oneof=dashboard transactions budgets"`
}

// RemoteSettings is the subset of Settings exchanged with /user/settings.
// Absent fields are left untouched when merging.
type RemoteSettings struct {
	Theme                string `json:"theme,omitempty"`
	Language             string `json:"language,omitempty"`
	DateFormat           string `json:"date_format,omitempty"`
	BudgetAlertThreshold *int   `json:"budget_alert_threshold,omitempty"`
}

// DefaultSettings is used until something has been cached.
func DefaultSettings() Settings {
	return Settings{
		Theme:                "light",
		Language:             "en",
		DateFormat:           "DD/MM/YYYY",
		BudgetAlertThreshold: 80,
		EmailNotifications:   true,
		FiscalYearStart:      1,
		DefaultView:          "dashboard",
	}
}

// Remote extracts the remotely persisted subset.
func (s Settings) Remote() RemoteSettings {
	threshold := s.BudgetAlertThreshold
	return RemoteSettings{
		Theme:                s.Theme,
		Language:             s.Language,
		DateFormat:           s.DateFormat,
		BudgetAlertThreshold: &threshold,
	}
}

// Merge returns s with every field present in r overriding the local value.
// Local-only fields are kept as they are.
func (s Settings) Merge(r RemoteSettings) Settings {
	if r.Theme != "" {
		s.Theme = r.Theme
	}
	if r.Language != "" {
		s.Language = r.Language
	}
	if r.DateFormat != "" {
		s.DateFormat = r.DateFormat
	}
	if r.BudgetAlertThreshold != nil {
		s.BudgetAlertThreshold = *r.BudgetAlertThreshold
	}
	return s
}

// Diff lists the json names of fields whose values differ between s and o,
// in declaration order.
func (s Settings) Diff(o Settings) []string {
	var changed []string
	a, b := reflect.ValueOf(s), reflect.ValueOf(o)
	t := a.Type()
	for i := 0; i < t.NumField(); i++ {
		if a.Field(i).Interface() != b.Field(i).Interface() {
			changed = append(changed, jsonName(t.Field(i)))
		}
	}
	return changed
}

// Fields lists every settings field name in declaration order.
func Fields() []string {
	return []string{
		FieldTheme, FieldLanguage, FieldDateFormat, FieldBudgetAlertThreshold,
		FieldEmailNotifications, FieldPushNotifications, FieldFiscalYearStart, FieldDefaultView,
	}
}

// SetField parses raw according to the field's type and assigns it.
// Range checks are left to validation.
func (s *Settings) SetField(name, raw string) error {
	switch name {
	case FieldTheme:
		s.Theme = raw
	case FieldLanguage:
		s.Language = raw
	case FieldDateFormat:
		s.DateFormat = raw
	case FieldDefaultView:
		s.DefaultView = raw
	case FieldBudgetAlertThreshold, FieldFiscalYearStart:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", name, raw)
		}
		if name == FieldFiscalYearStart {
			s.FiscalYearStart = n
		} else {
			s.BudgetAlertThreshold = n
		}
	case FieldEmailNotifications, FieldPushNotifications:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", name, raw)
		}
		if name == FieldEmailNotifications {
			s.EmailNotifications = b
		} else {
			s.PushNotifications = b
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

// Field returns the value of the named field formatted for display.
func (s Settings) Field(name string) (string, error) {
	switch name {
	case FieldTheme:
		return s.Theme, nil
	case FieldLanguage:
		return s.Language, nil
	case FieldDateFormat:
		return s.DateFormat, nil
	case FieldDefaultView:
		return s.DefaultView, nil
	case FieldBudgetAlertThreshold:
		return strconv.Itoa(s.BudgetAlertThreshold), nil
	case FieldFiscalYearStart:
		return strconv.Itoa(s.FiscalYearStart), nil
	case FieldEmailNotifications:
		return strconv.FormatBool(s.EmailNotifications), nil
	case FieldPushNotifications:
		return strconv.FormatBool(s.PushNotifications), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownField, name)
}

// IsRemoteField reports whether name is persisted on the server.
func IsRemoteField(name string) bool {
	switch name {
	case FieldTheme, FieldLanguage, FieldDateFormat, FieldBudgetAlertThreshold:
		return true
	}
	return false
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			return tag[:i]
		}
	}
	if tag == "" {
		return f.Name
	}
	return tag
}
