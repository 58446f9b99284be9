package workflow

import "errors"

// Ошибки валидации конфигурации workflow.
var (
	// ErrNoFlows — конфигурация не содержит ни одного flow.
	ErrNoFlows = errors.New("workflow config has no flows")

	// ErrNoDefaultFlow — default_flow пуст или ссылается на неизвестный flow.
	ErrNoDefaultFlow = errors.New("default flow is missing or unknown")

	// ErrEmptyFlow — flow не содержит переходов.
	ErrEmptyFlow = errors.New("flow has no transitions")

	// ErrSelfLoop — ребро с совпадающими from и to.
	ErrSelfLoop = errors.New("transition is a self-loop")

	// ErrDuplicateTransition — несколько рёбер с одинаковыми from, to и event.
	ErrDuplicateTransition = errors.New("duplicate transition")

	// ErrAmbiguousEvent — из одного статуса выходит несколько рёбер
	// с одинаковой меткой события.
	ErrAmbiguousEvent = errors.New("ambiguous event for status")

	// ErrDanglingStatus — в статус можно войти, но из него нет выхода
	// и он не терминальный.
	ErrDanglingStatus = errors.New("dangling non-terminal status")

	// ErrUnknownPrerequisite — ребро ссылается на неизвестный
	// идентификатор пререквизита.
	ErrUnknownPrerequisite = errors.New("unknown prerequisite id")

	// ErrUnknownMappingFlow — правило flow_mapping ссылается
	// на несуществующий flow.
	ErrUnknownMappingFlow = errors.New("flow mapping references unknown flow")

	// ErrInvalidSummaryWindow — некорректное окно длины summary.
	ErrInvalidSummaryWindow = errors.New("invalid summary window")
)

// Ошибки resolution.
var (
	// ErrUnknownFlow — запрошен flow, которого нет в конфигурации.
	ErrUnknownFlow = errors.New("unknown flow")

	// ErrUnknownStatus — статус не принадлежит активному flow.
	ErrUnknownStatus = errors.New("status not in active flow")
)

// ConfigError — ошибка валидации конфигурации с контекстом.
type ConfigError struct {
	Flow    string // имя flow, где произошла ошибка ("" для верхнего уровня)
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ConfigError) Error() string {
	if e.Flow != "" {
		return "flow " + e.Flow + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError создаёт новую ошибку конфигурации.
func NewConfigError(flow, field, message string, err error) *ConfigError {
	return &ConfigError{
		Flow:    flow,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
