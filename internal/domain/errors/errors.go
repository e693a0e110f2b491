package errors

import (
	"fmt"
)

type ErrChatAlreadyRegistered struct {
	OwnerID int64
	ChatID  int64
}

func (e *ErrChatAlreadyRegistered) Error() string {
	return fmt.Sprintf("чат %d уже привязан к пользователю %d", e.ChatID, e.OwnerID)
}

func (e *ErrChatAlreadyRegistered) Is(target error) bool {
	_, ok := target.(*ErrChatAlreadyRegistered)
	return ok
}

type ErrChatNotFound struct {
	ChatID int64
}

func (e *ErrChatNotFound) Error() string {
	return fmt.Sprintf("чат не найден: %d", e.ChatID)
}

func (e *ErrChatNotFound) Is(target error) bool {
	_, ok := target.(*ErrChatNotFound)
	return ok
}

// ErrApprovalRejected - Telegram отклонил одобрение заявки (пользователь отозвал
// заявку, заблокировал бота или бот потерял права). Не повторяется.
type ErrApprovalRejected struct {
	ChatID int64
	UserID int64
	Cause  error
}

func (e *ErrApprovalRejected) Error() string {
	return fmt.Sprintf("заявка пользователя %d в чат %d отклонена платформой: %v", e.UserID, e.ChatID, e.Cause)
}

func (e *ErrApprovalRejected) Unwrap() error {
	return e.Cause
}

func (e *ErrApprovalRejected) Is(target error) bool {
	_, ok := target.(*ErrApprovalRejected)
	return ok
}

// ErrTransportUnavailable - Telegram API недоступен (сетевая ошибка или
// открытый circuit breaker). Вызывающая сторона может повторить позже.
type ErrTransportUnavailable struct {
	Cause error
}

func (e *ErrTransportUnavailable) Error() string {
	return fmt.Sprintf("Telegram API недоступен: %v", e.Cause)
}

func (e *ErrTransportUnavailable) Unwrap() error {
	return e.Cause
}

func (e *ErrTransportUnavailable) Is(target error) bool {
	_, ok := target.(*ErrTransportUnavailable)
	return ok
}

type ErrNotAdmin struct {
	ChatID int64
	UserID int64
}

func (e *ErrNotAdmin) Error() string {
	return fmt.Sprintf("пользователь %d не является администратором чата %d", e.UserID, e.ChatID)
}

func (e *ErrNotAdmin) Is(target error) bool {
	_, ok := target.(*ErrNotAdmin)
	return ok
}

type ErrUnknownCommand struct {
	Command string
}

func (e *ErrUnknownCommand) Error() string {
	return "неизвестная команда: " + e.Command
}

type ErrUnknownAction struct {
	Data string
}

func (e *ErrUnknownAction) Error() string {
	return "неизвестное callback-действие: " + e.Data
}

func (e *ErrUnknownAction) Is(target error) bool {
	_, ok := target.(*ErrUnknownAction)
	return ok
}

type ErrUnknownDBAccessType struct {
	AccessType string
}

func (e *ErrUnknownDBAccessType) Error() string {
	return fmt.Sprintf("неизвестный тип доступа к базе данных: %s", e.AccessType)
}

type ErrBuildSQLQuery struct {
	Operation string
	Cause     error
}

func (e *ErrBuildSQLQuery) Error() string {
	return fmt.Sprintf("ошибка при построении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrBuildSQLQuery) Unwrap() error {
	return e.Cause
}

type ErrSQLExecution struct {
	Operation string
	Cause     error
}

func (e *ErrSQLExecution) Error() string {
	return fmt.Sprintf("ошибка при выполнении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrSQLExecution) Unwrap() error {
	return e.Cause
}

type ErrSQLScan struct {
	Entity string
	Cause  error
}

func (e *ErrSQLScan) Error() string {
	return fmt.Sprintf("ошибка при сканировании %s: %v", e.Entity, e.Cause)
}

func (e *ErrSQLScan) Unwrap() error {
	return e.Cause
}
