// Package keyboard собирает инлайн-клавиатуры бота.
package keyboard

import (
	"fmt"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/domain"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

// AcceptCountPresets - варианты количества заявок для пакетного приёма.
var AcceptCountPresets = []int{10, 50, 100, 250, 500, 1000, 5000, 10000, 50000, 100000}

func callback(t models.ActionType, chatID int64) string {
	a := models.Action{Type: t, ChatID: chatID}
	return a.CallbackData()
}

// MainMenu - главное меню в личном чате с ботом.
func MainMenu() domain.Keyboard {
	return domain.Keyboard{
		{
			{Text: "➕ Добавить канал или группу", Callback: callback(models.ActionAddChat, 0)},
		},
		{
			{Text: "📋 Мои каналы и группы", Callback: callback(models.ActionMyChats, 0)},
		},
		{
			{Text: "✅ Принять заявки", Callback: callback(models.ActionAcceptMenu, 0)},
		},
	}
}

// ChatList - список чатов владельца; chooseType определяет действие по нажатию.
func ChatList(chats []*models.Chat, chooseType models.ActionType) domain.Keyboard {
	kb := make(domain.Keyboard, 0, len(chats)+1)

	for _, chat := range chats {
		icon := "👥"
		if chat.Kind == models.ChatKindChannel {
			icon = "📢"
		}

		kb = append(kb, []domain.Button{{
			Text:     fmt.Sprintf("%s %s", icon, chat.Title),
			Callback: callback(chooseType, chat.ChatID),
		}})
	}

	return append(kb, backRow())
}

// AcceptCount - выбор количества принимаемых заявок для чата.
func AcceptCount(chatID int64) domain.Keyboard {
	const perRow = 5

	kb := domain.Keyboard{}

	row := make([]domain.Button, 0, perRow)

	for _, count := range AcceptCountPresets {
		a := models.Action{Type: models.ActionAccept, ChatID: chatID, Count: count}
		row = append(row, domain.Button{
			Text:     fmt.Sprintf("%d", count),
			Callback: a.CallbackData(),
		})

		if len(row) == perRow {
			kb = append(kb, row)
			row = make([]domain.Button, 0, perRow)
		}
	}

	if len(row) > 0 {
		kb = append(kb, row)
	}

	all := models.Action{Type: models.ActionAccept, ChatID: chatID, AcceptAll: true}

	kb = append(kb,
		[]domain.Button{{Text: "Принять все заявки", Callback: all.CallbackData()}},
		[]domain.Button{{Text: "« Назад", Callback: callback(models.ActionAcceptMenu, 0)}},
	)

	return kb
}

// ChatActions - действия над конкретным чатом.
func ChatActions(chat *models.Chat) domain.Keyboard {
	autoText := "🔄 Включить автоприём"
	if chat.AutoAccept {
		autoText = "🔄 Выключить автоприём"
	}

	return domain.Keyboard{
		{{Text: "✅ Принять заявки", Callback: callback(models.ActionChatAccept, chat.ChatID)}},
		{{Text: autoText, Callback: callback(models.ActionToggleAuto, chat.ChatID)}},
		{{Text: "🗑 Удалить", Callback: callback(models.ActionDeleteChat, chat.ChatID)}},
		{{Text: "« Назад", Callback: callback(models.ActionMyChats, 0)}},
	}
}

// Claim - кнопка подтверждения владения каналом.
func Claim(chatID int64) domain.Keyboard {
	return domain.Keyboard{
		{{Text: "✅ Я владелец канала - активировать", Callback: callback(models.ActionClaim, chatID)}},
	}
}

// Back - одиночная кнопка возврата в главное меню.
func Back() domain.Keyboard {
	return domain.Keyboard{backRow()}
}

func backRow() []domain.Button {
	return []domain.Button{{Text: "« Назад", Callback: callback(models.ActionBackMain, 0)}}
}
