package bot

import (
	"strings"
	"testing"

	tele "gopkg.in/telebot.v3"

	"github.com/avolkov/apod-bot/internal/domain"
	"github.com/avolkov/apod-bot/internal/services"
)

func TestMediaPayload_ImageVariants(t *testing.T) {
	// Stored file id wins
	p := mediaPayload(&services.MediaRef{Kind: domain.MediaImage, FileID: "fid-1", URL: "https://x/a.jpg"}, "cap")
	photo, ok := p.(*tele.Photo)
	if !ok {
		t.Fatalf("expected *tele.Photo, got %T", p)
	}
	if photo.FileID != "fid-1" || photo.Caption != "cap" {
		t.Fatalf("bad photo payload: %+v", photo)
	}

	// No file id: sent by URL
	p = mediaPayload(&services.MediaRef{Kind: domain.MediaImage, URL: "https://x/a.jpg"}, "cap")
	photo = p.(*tele.Photo)
	if photo.FileURL != "https://x/a.jpg" || photo.FileID != "" {
		t.Fatalf("bad url photo payload: %+v", photo)
	}
}

func TestMediaPayload_VideoVariants(t *testing.T) {
	// Stored file id
	p := mediaPayload(&services.MediaRef{Kind: domain.MediaVideo, FileID: "fid-2"}, "cap")
	video, ok := p.(*tele.Video)
	if !ok {
		t.Fatalf("expected *tele.Video, got %T", p)
	}
	if video.FileID != "fid-2" {
		t.Fatalf("bad video payload: %+v", video)
	}

	// Downloaded file uploads from disk
	p = mediaPayload(&services.MediaRef{Kind: domain.MediaVideo, LocalPath: "/tmp/v.mp4"}, "cap")
	video = p.(*tele.Video)
	if video.FileLocal != "/tmp/v.mp4" {
		t.Fatalf("bad disk video payload: %+v", video)
	}

	// Neither file id nor local path falls back to the URL
	p = mediaPayload(&services.MediaRef{Kind: domain.MediaVideo, URL: "https://x/v.mp4"}, "cap")
	video = p.(*tele.Video)
	if video.FileURL != "https://x/v.mp4" {
		t.Fatalf("bad url video payload: %+v", video)
	}
}

func TestSentFileID(t *testing.T) {
	if got := sentFileID(nil); got != "" {
		t.Fatalf("nil message: %q", got)
	}
	if got := sentFileID(&tele.Message{}); got != "" {
		t.Fatalf("text message: %q", got)
	}
	m := &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "p-1"}}}
	if got := sentFileID(m); got != "p-1" {
		t.Fatalf("photo: %q", got)
	}
	m = &tele.Message{Video: &tele.Video{File: tele.File{FileID: "v-1"}}}
	if got := sentFileID(m); got != "v-1" {
		t.Fatalf("video: %q", got)
	}
}

func TestMarkups_LocalizedLabelsStableUniques(t *testing.T) {
	cat := Locale("ru")

	mm := mainMenuMarkup(cat)
	if len(mm.InlineKeyboard) != 2 {
		t.Fatalf("main menu shape: %+v", mm.InlineKeyboard)
	}
	if btn := mm.InlineKeyboard[0][0]; btn.Text != cat.ApodButton || btn.Unique != uniqueApod {
		t.Fatalf("main menu button: %+v", btn)
	}
	if btn := mm.InlineKeyboard[1][0]; btn.Text != cat.InfoButton || btn.Unique != uniqueInfo {
		t.Fatalf("info button: %+v", btn)
	}

	am := apodMenuMarkup(cat, true)
	if len(am.InlineKeyboard) != 3 {
		t.Fatalf("apod menu rows = %d, want 3", len(am.InlineKeyboard))
	}
	if last := am.InlineKeyboard[2]; len(last) != 2 {
		t.Fatalf("last row should hold explanation + main menu, got %d buttons", len(last))
	}

	// Without explanation the last row shrinks to the main menu button.
	am = apodMenuMarkup(cat, false)
	if last := am.InlineKeyboard[2]; len(last) != 1 || last[0].Text != cat.MainMenu {
		t.Fatalf("last row without explanation: %+v", last)
	}

	db := dateBackMarkup(cat)
	if btn := db.InlineKeyboard[0][0]; btn.Text != cat.Back {
		t.Fatalf("back button: %+v", btn)
	}

	// The info screen leads back to the main menu, not the picture menu.
	ib := infoBackMarkup(cat)
	if btn := ib.InlineKeyboard[0][0]; btn.Text != cat.Back || btn.Unique != uniqueMainMenu {
		t.Fatalf("info back button: %+v", btn)
	}
}

func TestClipRunes(t *testing.T) {
	if got := clipRunes("short", 10); got != "short" {
		t.Fatalf("no-op clip: %q", got)
	}
	long := strings.Repeat("я", 2000)
	got := clipRunes(long, captionLimit)
	if n := len([]rune(got)); n != captionLimit {
		t.Fatalf("clipped length = %d runes, want %d", n, captionLimit)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("clipped text should end with ellipsis")
	}
}

func TestOptstr(t *testing.T) {
	if optstr("") != nil {
		t.Fatalf("empty string should map to nil")
	}
	if v := optstr("x"); v == nil || *v != "x" {
		t.Fatalf("optstr(x) = %v", v)
	}
}
