package service

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"focus-reminders/internal/model"
	"focus-reminders/internal/push"
)

const (
	notificationTitle = "⏰ Time to focus"
	notificationIcon  = "/icon.png"
	defaultEmoji      = "✅"
)

var categoryEmoji = map[string]string{
	"work":       "💼",
	"study":      "📚",
	"fitness":    "💪",
	"family":     "👨‍👩‍👧",
	"reading":    "📚",
	"coding":     "💻",
	"exercise":   "💪",
	"writing":    "✏️",
	"meditation": "🧘",
	"deep work":  "🔍",
}

var motivations = []string{
	"You've got this!",
	"Go for it!",
	"One step closer to your goals.",
	"Focus and win.",
	"The moment is now.",
}

// CategoryEmoji maps a task category to its notification icon.
func CategoryEmoji(category string) string {
	if e, ok := categoryEmoji[strings.ToLower(strings.TrimSpace(category))]; ok {
		return e
	}
	return defaultEmoji
}

func randomMotivation() string {
	return motivations[rand.IntN(len(motivations))]
}

func buildPayload(task model.Task, motivation string) push.Payload {
	var body strings.Builder
	body.WriteString(CategoryEmoji(task.Category))
	body.WriteString(fmt.Sprintf(" It's time for: %s! ", strings.TrimSpace(task.Title)))
	body.WriteString(motivation)

	return push.Payload{
		Title: notificationTitle,
		Body:  body.String(),
		Icon:  notificationIcon,
		Data:  push.Data{TaskID: task.ID, OwnerID: task.OwnerID},
	}
}
