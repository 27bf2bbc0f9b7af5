package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/dentalscan/scanctl/internal/model"
	"github.com/dentalscan/scanctl/internal/patientapi"
	"github.com/dentalscan/scanctl/internal/reconcile"
	"github.com/dentalscan/scanctl/internal/report"
	"github.com/dentalscan/scanctl/internal/upload"
)

func TestNewMatchesLocale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		locale string
		want   language.Tag
	}{
		{"en", language.English},
		{"ru", language.Russian},
		{"ru-RU", language.Russian},
		{"", language.English},
		{"not a locale", language.English},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.locale).Tag(), tt.locale)
	}
}

func TestStatusLabels(t *testing.T) {
	t.Parallel()

	ru := New("ru")
	assert.Equal(t, "Загружен", ru.StudyStatus(model.StudyUploaded))
	assert.Equal(t, "Обработка", ru.StudyStatus(model.StudyProcessing))
	assert.Equal(t, "Проанализирован", ru.StudyStatus(model.StudyAnalyzed))
	assert.Equal(t, "Ошибка", ru.StudyStatus(model.StudyFailed))
	assert.Equal(t, "archived", ru.StudyStatus("archived"), "unknown statuses are shown raw")

	en := New("en")
	assert.Equal(t, "Analyzed", en.StudyStatus(model.StudyAnalyzed))
	assert.Equal(t, "Complete", en.AnalysisStatus(model.AnalysisComplete))
	assert.Equal(t, "queued", en.AnalysisStatus("queued"))
}

func TestMessageTranslatesKnownTextOnly(t *testing.T) {
	t.Parallel()

	ru := New("ru")
	assert.Equal(t, "Пароли не совпадают", ru.Message(patientapi.MsgPasswordMismatch))
	assert.Equal(t, "Не удалось загрузить файл", ru.Message(upload.MsgUploadFailed))
	assert.Equal(t, "Study already sent to Diagnocat", ru.Message("Study already sent to Diagnocat"))
	assert.Equal(t, "100% done", ru.Message("100% done"))

	en := New("en")
	assert.Equal(t, patientapi.MsgPasswordMismatch, en.Message(patientapi.MsgPasswordMismatch))
}

func TestFormattedMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Uploading... 25%", New("en").T(MsgUploadProgress, 25))
	assert.Equal(t, "Загрузка... 25%", New("ru").T(MsgUploadProgress, 25))
	assert.Equal(t, "Study 4 sent for analysis", New("en").T(MsgStudySent, 4))
}

func TestActionsAndDecisions(t *testing.T) {
	t.Parallel()

	en := New("en")
	assert.Equal(t, "Send to AI", en.Action(reconcile.ActionSendToAI))
	assert.Empty(t, en.Action(reconcile.ActionNone))
	assert.Equal(t, "Undecided", en.Decision(report.Undecided))
	assert.Equal(t, "Отклонено", New("ru").Decision(report.ConfirmedNegative))
}

func TestFileSizeUnits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 Б", New("ru").FileSize(512))
	assert.Equal(t, "1.50 KB", New("en").FileSize(1536))
}
