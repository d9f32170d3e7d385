// Package i18n provides the translated user-facing strings.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	MsgNoInternet      = "No internet connection found"
	MsgCheckConnection = "Check your connection and try again"
)

var supported = []language.Tag{
	language.English,
	language.Italian,
}

var matcher = language.NewMatcher(supported)

func init() {
	must(message.SetString(language.Italian, MsgNoInternet, "Nessuna connessione internet trovata"))
	must(message.SetString(language.Italian, MsgCheckConnection, "Controlla la connessione e riprova"))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Printer returns a message printer for the best match of an Accept-Language
// header value. English is the fallback.
func Printer(acceptLanguage string) *message.Printer {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	_, idx, _ := matcher.Match(tags...)
	return message.NewPrinter(supported[idx])
}

// NoInternetMessage is the connectivity failure text shown by the connect dialog.
func NoInternetMessage(p *message.Printer) string {
	return p.Sprintf(MsgNoInternet) + "<br>" + p.Sprintf(MsgCheckConnection)
}
