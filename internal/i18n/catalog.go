package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"

	"github.com/dentalscan/scanctl/internal/patientapi"
	"github.com/dentalscan/scanctl/internal/repository"
	"github.com/dentalscan/scanctl/internal/upload"
)

// Message keys. The English text doubles as the key.
const (
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
	MsgLoadStudiesFailed  = "Failed to load studies"
	MsgLoadAnalysesFailed = "Failed to load analyses"
	MsgSendFailed         = "Failed to send study for analysis"
	MsgRefreshFailed      = "Failed to refresh analysis"
	MsgAuthRequired       = "Authentication required, run scanctl login"
	MsgSessionExpired     = "Session expired, please log in again"
	MsgUntitled           = "Untitled"
	MsgNoStudies          = "No studies yet"
	MsgNotComplete        = "Analysis %d is not complete yet"
	MsgAnalysisNotHeld    = "Analysis %d not found"
	MsgLoggedIn           = "Logged in as %s"
	MsgLoggedOut          = "Logged out"
	MsgStudySent          = "Study %d sent for analysis"
	MsgAnalysisComplete   = "Analysis %d is complete"
	MsgAnalysisPending    = "Analysis %d is still processing"
	MsgUploadProgress     = "Uploading... %d%%"
	MsgWatchDone          = "All analyses are complete"
	MsgAnomalyMultiple    = "Study %d has %d analyses, showing analysis %d"
	MsgAnomalyOrphan      = "Analysis %d refers to a study that is not listed"
	MsgPasswordPrompt     = "Password: "
	MsgConfirmPrompt      = "Confirm password: "
	MsgConfigWritten      = "Configuration written to %s"
	MsgConfigExists       = "Configuration already exists at %s, use --force to overwrite"
	MsgWatching           = "%d analyses still processing"
	MsgAnalysisFailed     = "Analysis %d failed"
	MsgInvalidID          = "Invalid id %q"

	LabelUploaded   = "Uploaded"
	LabelProcessing = "Processing"
	LabelAnalyzed   = "Analyzed"
	LabelFailed     = "Failed"
	LabelUploading  = "Uploading"
	LabelComplete   = "Complete"

	ActionSend    = "Send to AI"
	ActionRefresh = "Refresh"
	ActionView    = "View results"
	ActionView3D  = "View in archive"

	HeaderID          = "ID"
	HeaderDescription = "Description"
	HeaderStatus      = "Status"
	HeaderSize        = "Size"
	HeaderUploaded    = "Uploaded at"
	HeaderAnalysis    = "Analysis"
	HeaderActions     = "Actions"
	HeaderViewer      = "Viewer"
	HeaderName        = "Name"
	HeaderEmail       = "Email"
	HeaderRole        = "Role"

	ReportAffectedTeeth = "Affected teeth"
	ReportPathologies   = "Pathologies"
	ReportPeriodontal   = "With periodontal data"
	ReportComments      = "With comments"
	ReportConfirmed     = "Confirmed"
	ReportRejected      = "Rejected"
	ReportUndecided     = "Undecided"
	ReportTooth         = "Tooth %d"
	ReportError         = "Analysis error: %s"
)

var russian = map[string]string{
	upload.MsgNotDICOM:            "Пожалуйста, выберите файл DICOM (.dcm)",
	upload.MsgUnknownDestination:  "Неизвестное место назначения загрузки",
	upload.MsgNoFileContent:       "Выбранный файл невозможно прочитать",
	upload.MsgUploadInProgress:    "Загрузка уже выполняется",
	upload.MsgUploadFailed:        "Не удалось загрузить файл",
	upload.MsgUploadedDiagnocat:   "Файл успешно загружен и отправлен на ИИ-анализ!",
	upload.MsgUploadedOrthanc:     "Файл успешно загружен в архив снимков!",
	upload.MsgCollectionsOutdated: "Файл загружен, но списки не удалось обновить",

	patientapi.MsgPasswordMismatch: "Пароли не совпадают",
	patientapi.MsgPasswordTooShort: "Пароль должен содержать минимум 6 символов",
	patientapi.MsgEmailRequired:    "Укажите email",
	patientapi.MsgUnknownRole:      "Неизвестная роль",

	repository.MsgSendPending:    "Исследование уже отправляется на анализ",
	repository.MsgRefreshPending: "Анализ уже обновляется",

	MsgLoginFailed:        "Ошибка входа",
	MsgRegistrationFailed: "Ошибка регистрации",
	MsgLoadStudiesFailed:  "Не удалось загрузить исследования",
	MsgLoadAnalysesFailed: "Не удалось загрузить анализы",
	MsgSendFailed:         "Не удалось отправить исследование на анализ",
	MsgRefreshFailed:      "Не удалось обновить анализ",
	MsgAuthRequired:       "Требуется вход, выполните scanctl login",
	MsgSessionExpired:     "Сеанс истёк, войдите снова",
	MsgUntitled:           "Без названия",
	MsgNoStudies:          "Исследований пока нет",
	MsgNotComplete:        "Анализ %d ещё не завершён",
	MsgAnalysisNotHeld:    "Анализ %d не найден",
	MsgLoggedIn:           "Вход выполнен: %s",
	MsgLoggedOut:          "Выход выполнен",
	MsgStudySent:          "Исследование %d отправлено на анализ",
	MsgAnalysisComplete:   "Анализ %d завершён",
	MsgAnalysisPending:    "Анализ %d ещё обрабатывается",
	MsgUploadProgress:     "Загрузка... %d%%",
	MsgWatchDone:          "Все анализы завершены",
	MsgAnomalyMultiple:    "У исследования %d анализов: %d, показан анализ %d",
	MsgAnomalyOrphan:      "Анализ %d относится к исследованию, которого нет в списке",
	MsgPasswordPrompt:     "Пароль: ",
	MsgConfirmPrompt:      "Подтвердите пароль: ",
	MsgConfigWritten:      "Конфигурация сохранена в %s",
	MsgConfigExists:       "Конфигурация уже существует в %s, используйте --force для перезаписи",
	MsgWatching:           "Анализов ещё в обработке: %d",
	MsgAnalysisFailed:     "Анализ %d завершился с ошибкой",
	MsgInvalidID:          "Неверный идентификатор %q",

	LabelUploaded:   "Загружен",
	LabelProcessing: "Обработка",
	LabelAnalyzed:   "Проанализирован",
	LabelFailed:     "Ошибка",
	LabelUploading:  "Загрузка",
	LabelComplete:   "Готов",

	ActionSend:    "Отправить на ИИ-анализ",
	ActionRefresh: "Обновить",
	ActionView:    "Результаты",
	ActionView3D:  "Просмотр",

	HeaderID:          "ID",
	HeaderDescription: "Описание",
	HeaderStatus:      "Статус",
	HeaderSize:        "Размер",
	HeaderUploaded:    "Загружено",
	HeaderAnalysis:    "Анализ",
	HeaderActions:     "Действия",
	HeaderViewer:      "Просмотр",
	HeaderName:        "Имя",
	HeaderEmail:       "Email",
	HeaderRole:        "Роль",

	ReportAffectedTeeth: "Затронуто зубов",
	ReportPathologies:   "Патологий",
	ReportPeriodontal:   "С данными пародонта",
	ReportComments:      "С комментариями",
	ReportConfirmed:     "Подтверждено",
	ReportRejected:      "Отклонено",
	ReportUndecided:     "Не рассмотрено",
	ReportTooth:         "Зуб %d",
	ReportError:         "Ошибка анализа: %s",
}

// catalogBuilder holds every translation; English falls through to the key
func catalogBuilder() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range russian {
		// keys and texts are static; SetString only fails on malformed messages
		_ = b.SetString(language.Russian, key, text)
	}
	return b
}
