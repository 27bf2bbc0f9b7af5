// conf/locale.go contains all locales the application supports

package conf

import "slices"

// SupportedLocales lists the UI languages with a message catalog
var SupportedLocales = []string{"en", "ru"}

// IsSupportedLocale reports whether code names a supported UI language
func IsSupportedLocale(code string) bool {
	return slices.Contains(SupportedLocales, code)
}
