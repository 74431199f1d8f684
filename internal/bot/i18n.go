// Package bot implements the Telegram presentation layer: the main menu and
// picture-of-the-day dialogs, per-chat session state, localized texts, and
// media delivery with file-id reuse.
//
// This file holds the localized message catalogs. Two locales are supported;
// any other user language falls back to English via BCP 47 matching.
package bot

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Catalog bundles every user-visible string and date convention for one locale.
type Catalog struct {
	// Lang is the base language code ("en" or "ru") passed to the resolver
	// for text selection.
	Lang string

	// InputFormat is the date layout users are asked to type.
	InputFormat string

	MainMenu        string
	ApodButton      string
	InfoButton      string
	SelectDate      string
	RandomPicture   string
	Explanation     string
	Back            string
	IncorrectFormat string
	IncorrectDate   string
	Unavailable     string
	UnexpectedError string

	// InfoText is the static about-screen body; infoStats is a format
	// string taking the registered-user count appended below it.
	InfoText  string
	infoStats string

	// dateRequest is a format string taking the minimum and maximum
	// acceptable dates, already rendered in InputFormat.
	dateRequest string
	// captionPrefix labels the date line of a media caption.
	captionPrefix string
}

var catalogEN = Catalog{
	Lang:            "en",
	InputFormat:     "01/02/2006",
	MainMenu:        "Main menu",
	ApodButton:      "Picture of the day 🪐",
	InfoButton:      "Info ℹ️",
	SelectDate:      "Select date 📅",
	RandomPicture:   "Random picture 👀",
	Explanation:     "Explanation 💭",
	Back:            "Back",
	IncorrectFormat: "⚠️ Incorrect format",
	IncorrectDate:   "⚠️ Incorrect date",
	Unavailable: "😞 Unfortunately, the data for this date is currently unavailable.\n" +
		"The image may have been removed or hosted externally. Please try selecting a different date.",
	UnexpectedError: "⚠️ Something went wrong. Please try again.",
	InfoText: "🪐 *Astronomy Picture of the Day*\n\n" +
		"Each day NASA publishes an image or video of our universe, " +
		"accompanied by a short explanation written by a professional astronomer.\n\n" +
		"This bot shows today's picture, any date back to June 16, 1995, " +
		"or a random one, and can tell the story behind each image.",
	infoStats:     "🔭 Stargazers with the bot: %d",
	dateRequest:   "Enter date in MM/DD/YYYY format\nMinimum date `%s`\nMaximum date `%s`",
	captionPrefix: "Date",
}

var catalogRU = Catalog{
	Lang:            "ru",
	InputFormat:     "02.01.2006",
	MainMenu:        "Главное меню",
	ApodButton:      "Картинка дня 🪐",
	InfoButton:      "Информация ℹ️",
	SelectDate:      "Выбрать дату 📅",
	RandomPicture:   "Случайная картинка 👀",
	Explanation:     "Описание 💭",
	Back:            "Назад",
	IncorrectFormat: "⚠️ Некорректный формат",
	IncorrectDate:   "⚠️ Некорректная дата",
	Unavailable: "😞 К сожалению, данные за выбранную дату сейчас недоступны.\n\n" +
		"Возможно, изображение было удалено или размещено на внешнем ресурсе. Попробуйте выбрать другую дату.",
	UnexpectedError: "⚠️ Что-то пошло не так. Попробуйте ещё раз.",
	InfoText: "🪐 *Астрономическая картинка дня*\n\n" +
		"Каждый день NASA публикует изображение или видео нашей Вселенной " +
		"с коротким пояснением профессионального астронома.\n\n" +
		"Бот покажет сегодняшнюю картинку, любую дату начиная с 16 июня 1995 года " +
		"или случайную, а также расскажет историю каждого снимка.",
	infoStats:     "🔭 Наблюдателей с ботом: %d",
	dateRequest:   "Введите дату в формате ДД.ММ.ГГГГ\nМинимальная дата `%s`\nМаксимальная дата `%s`",
	captionPrefix: "Дата",
}

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English, // first tag is the fallback
	language.Russian,
})

// Locale resolves a Telegram language code to a message catalog. Unknown and
// empty codes fall back to English.
func Locale(code string) *Catalog {
	tag, _ := language.MatchStrings(localeMatcher, code)
	if base, _ := tag.Base(); base.String() == "ru" {
		return &catalogRU
	}
	return &catalogEN
}

// DateRequest renders the date-selection prompt with the acceptable range.
func (c *Catalog) DateRequest(now time.Time) string {
	return fmt.Sprintf(c.dateRequest,
		minApodDate.Format(c.InputFormat),
		now.Format(c.InputFormat))
}

// Info renders the about screen, appending the user counter when known.
func (c *Catalog) Info(total int64) string {
	if total <= 0 {
		return c.InfoText
	}
	return c.InfoText + "\n\n" + fmt.Sprintf(c.infoStats, total)
}

// Caption builds the Markdown media caption: a locale-formatted date line
// followed by the title. The date argument is an ISO calendar date; when it
// does not parse, it is shown verbatim.
func (c *Catalog) Caption(isoDate, title string) string {
	shown := isoDate
	if t, err := time.Parse("2006-01-02", isoDate); err == nil {
		shown = c.longDate(t)
	}
	return fmt.Sprintf("%s: *%s*\n\n%s", c.captionPrefix, shown, title)
}

// ruMonths are the genitive month names used in Russian long dates.
var ruMonths = [12]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

func (c *Catalog) longDate(t time.Time) string {
	if c.Lang == "ru" {
		return fmt.Sprintf("%d %s %d г.", t.Day(), ruMonths[t.Month()-1], t.Year())
	}
	return t.Format("January 2, 2006")
}
