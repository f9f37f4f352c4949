package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/edgard/botbuilder/internal/setup"
)

//go:embed templates/*.html
var templateFS embed.FS

const pageTitle = "Telegram Bot Builder"

type featureCard struct {
	Title string
	Text  string
}

type authority struct {
	Username string
	Role     string
}

type capability struct {
	Title string
	Items []string
}

var (
	features = []featureCard{
		{Title: "Быстрая настройка", Text: "Подключите бота за несколько секунд"},
		{Title: "Безопасность", Text: "Токены хранятся в защищенном окружении"},
		{Title: "Простое управление", Text: "Интуитивный интерфейс для настройки"},
	}
	authorities = []authority{
		{Username: "@Mad_SVO", Role: "Основатель (все права)"},
		{Username: "@Andrian_SVO", Role: "Зам. Основателя"},
	}
	capabilities = []capability{
		{Title: "Управление", Items: []string{"Назначение рангов", "Управление чатами", "Список сотрудников"}},
		{Title: "Модерация", Items: []string{"Баны и муты", "Админка в чатах", "Глобальные баны"}},
	}
)

// pageData is what index.html renders.
type pageData struct {
	Title         string
	Form          setup.Snapshot
	Status        string
	Empty         bool
	Activated     bool
	Notifications []setup.Notification
	Features      []featureCard
	Authorities   []authority
	Capabilities  []capability
}

func newPageData(snap setup.Snapshot, notes []setup.Notification) pageData {
	display := snap.Display()
	return pageData{
		Title:         pageTitle,
		Form:          snap,
		Status:        snap.Status().String(),
		Empty:         display == setup.DisplayEmpty,
		Activated:     display == setup.DisplayActivated,
		Notifications: notes,
		Features:      features,
		Authorities:   authorities,
		Capabilities:  capabilities,
	}
}

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

func renderPage(w io.Writer, tmpl *template.Template, data pageData) error {
	return tmpl.ExecuteTemplate(w, "index.html", data)
}
