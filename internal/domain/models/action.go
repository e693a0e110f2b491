package models

import (
	"fmt"
	"strconv"
	"strings"

	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
)

func newUnknownActionError(data string) error {
	return &customerrors.ErrUnknownAction{Data: data}
}

type ActionType string

const (
	ActionAddChat    ActionType = "add_channel"
	ActionMyChats    ActionType = "my_channels"
	ActionAcceptMenu ActionType = "accept_requests"
	ActionChooseChat ActionType = "choose"
	ActionManageChat ActionType = "manage"
	ActionChatAccept ActionType = "channel_accept"
	ActionToggleAuto ActionType = "auto_accept"
	ActionDeleteChat ActionType = "delete_channel"
	ActionAccept     ActionType = "accept"
	ActionClaim      ActionType = "claim"
	ActionBackMain   ActionType = "back_main"
)

// Action - разобранное действие из callback-данных инлайн-клавиатуры.
// Строка разбирается один раз на границе транспорта, дальше ветвление
// идёт только по типизированному значению.
type Action struct {
	Type   ActionType
	ChatID int64
	// Count - сколько заявок принять; 0 вместе с AcceptAll означает «все».
	Count     int
	AcceptAll bool
}

// ParseAction разбирает callback-данные в Action.
// Возвращает ErrUnknownAction для незнакомого формата.
func ParseAction(data string) (*Action, error) {
	switch data {
	case "add_channel", "add_group":
		return &Action{Type: ActionAddChat}, nil
	case "my_channels":
		return &Action{Type: ActionMyChats}, nil
	case "accept_requests":
		return &Action{Type: ActionAcceptMenu}, nil
	case "back_main":
		return &Action{Type: ActionBackMain}, nil
	}

	prefixed := []struct {
		prefix string
		typ    ActionType
	}{
		{"channel_accept_", ActionChatAccept},
		{"auto_accept_", ActionToggleAuto},
		{"delete_channel_", ActionDeleteChat},
		{"choose_", ActionChooseChat},
		{"manage_", ActionManageChat},
		{"claim_", ActionClaim},
	}

	for _, p := range prefixed {
		if strings.HasPrefix(data, p.prefix) {
			chatID, err := strconv.ParseInt(strings.TrimPrefix(data, p.prefix), 10, 64)
			if err != nil {
				return nil, newUnknownActionError(data)
			}

			return &Action{Type: p.typ, ChatID: chatID}, nil
		}
	}

	if strings.HasPrefix(data, "accept_") {
		return parseAcceptAction(data)
	}

	return nil, newUnknownActionError(data)
}

func parseAcceptAction(data string) (*Action, error) {
	parts := strings.Split(data, "_")
	if len(parts) != 3 {
		return nil, newUnknownActionError(data)
	}

	chatID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, newUnknownActionError(data)
	}

	if parts[1] == "all" {
		return &Action{Type: ActionAccept, ChatID: chatID, AcceptAll: true}, nil
	}

	count, err := strconv.Atoi(parts[1])
	if err != nil || count <= 0 {
		return nil, newUnknownActionError(data)
	}

	return &Action{Type: ActionAccept, ChatID: chatID, Count: count}, nil
}

// CallbackData - обратная операция к ParseAction, используется клавиатурами.
func (a *Action) CallbackData() string {
	switch a.Type {
	case ActionAddChat, ActionMyChats, ActionAcceptMenu, ActionBackMain:
		return string(a.Type)
	case ActionAccept:
		if a.AcceptAll {
			return fmt.Sprintf("accept_all_%d", a.ChatID)
		}

		return fmt.Sprintf("accept_%d_%d", a.Count, a.ChatID)
	case ActionChooseChat, ActionManageChat, ActionChatAccept, ActionToggleAuto, ActionDeleteChat, ActionClaim:
		return fmt.Sprintf("%s_%d", a.Type, a.ChatID)
	default:
		return string(a.Type)
	}
}
