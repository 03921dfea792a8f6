package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/saeedhm/debtbot/internal/models"
	"github.com/saeedhm/debtbot/internal/service"
)

const welcomeText = `Welcome to the debt reminder bot!

It tracks your debts and sends automatic reminders as due dates approach.

Commands:
/add_debt - add a new debt
/list_debts - show active debts
/pay_debt <id> - mark a debt paid
/delete_debt <id> - delete a debt
/add_reminder - add a one-off reminder
/list_reminders - show active reminders
/help - usage help`

const helpText = `Usage:

/add_debt category,amount,YYYY-MM-DD[,description[,recurrence]]
  Example: /add_debt rent,2000000,2026-09-01,monthly apartment rent,monthly
  Recurrence: one-time (default), weekly, monthly, yearly

/list_debts - active debts sorted by due date
/pay_debt 1 - mark debt 1 as paid
/delete_debt 1 - delete debt 1

/add_reminder title,YYYY-MM-DD[,description]
  Example: /add_reminder call the insurer,2026-09-15,policy renewal
/list_reminders - active one-off reminders

Automatic reminders go out daily at 09:00 for debts due within 7 days.`

// Handler is the thin conversational surface. It only parses commands and
// renders service outcomes; all business rules live in the service.
type Handler struct {
	api *tgbotapi.BotAPI
	svc *service.Service
	log *logrus.Logger
}

// NewHandler creates a new command handler
func NewHandler(api *tgbotapi.BotAPI, svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{api: api, svc: svc, log: log}
}

// Run polls for updates until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := h.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.api.StopReceivingUpdates()
			return
		case upd := <-updates:
			h.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate dispatches a single update.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || !msg.Chat.IsPrivate() || !msg.IsCommand() {
		return
	}

	ownerID := msg.From.ID
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		h.reply(chatID, welcomeText)
	case "help":
		h.reply(chatID, helpText)
	case "add_debt":
		h.handleAddDebt(ctx, chatID, ownerID, args)
	case "list_debts":
		h.handleListDebts(ctx, chatID, ownerID)
	case "pay_debt":
		h.handlePayDebt(ctx, chatID, ownerID, args)
	case "delete_debt":
		h.handleDeleteDebt(ctx, chatID, ownerID, args)
	case "add_reminder":
		h.handleAddReminder(ctx, chatID, ownerID, args)
	case "list_reminders":
		h.handleListReminders(ctx, chatID, ownerID)
	}
}

func (h *Handler) handleAddDebt(ctx context.Context, chatID, ownerID int64, args string) {
	parts := splitFields(args)
	if len(parts) < 3 {
		h.reply(chatID, "Use: /add_debt category,amount,YYYY-MM-DD[,description[,recurrence]]")
		return
	}

	amount, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		h.reply(chatID, "Amount must be a whole number (no separators).")
		return
	}

	description := ""
	if len(parts) > 3 {
		description = parts[3]
	}
	recurrence := models.RecurrenceOneTime
	if len(parts) > 4 {
		recurrence = parts[4]
	}

	id, err := h.svc.CreateDebt(ctx, ownerID, parts[0], amount, parts[2], description, recurrence)
	if err != nil {
		h.replyError(chatID, err, "Could not save the debt, try again later.")
		return
	}
	h.reply(chatID, "Debt added. ID: "+strconv.FormatInt(id, 10))
}

func (h *Handler) handleListDebts(ctx context.Context, chatID, ownerID int64) {
	text, err := h.svc.RenderSummary(ctx, ownerID)
	if err != nil {
		h.log.Errorf("list_debts for owner %d: %v", ownerID, err)
		h.reply(chatID, "Could not load your debts, try again later.")
		return
	}
	h.reply(chatID, text)
}

func (h *Handler) handlePayDebt(ctx context.Context, chatID, ownerID int64, args string) {
	id, ok := parseID(args)
	if !ok {
		h.reply(chatID, "Use: /pay_debt <id>\nExample: /pay_debt 1")
		return
	}

	outcome, err := h.svc.MarkPaid(ctx, id, ownerID)
	if err != nil {
		h.log.Errorf("pay_debt %d for owner %d: %v", id, ownerID, err)
		h.reply(chatID, "Could not update the debt, try again later.")
		return
	}
	switch outcome {
	case service.PayPaid:
		h.reply(chatID, "Debt "+strconv.FormatInt(id, 10)+" marked as paid.")
	case service.PayAlreadyPaid:
		h.reply(chatID, "This debt is already paid.")
	default:
		h.reply(chatID, "Debt not found.")
	}
}

func (h *Handler) handleDeleteDebt(ctx context.Context, chatID, ownerID int64, args string) {
	id, ok := parseID(args)
	if !ok {
		h.reply(chatID, "Use: /delete_debt <id>\nExample: /delete_debt 1")
		return
	}

	outcome, err := h.svc.DeleteDebt(ctx, id, ownerID)
	if err != nil {
		h.log.Errorf("delete_debt %d for owner %d: %v", id, ownerID, err)
		h.reply(chatID, "Could not delete the debt, try again later.")
		return
	}
	if outcome == service.DeleteDeleted {
		h.reply(chatID, "Debt "+strconv.FormatInt(id, 10)+" deleted.")
	} else {
		h.reply(chatID, "Debt not found.")
	}
}

func (h *Handler) handleAddReminder(ctx context.Context, chatID, ownerID int64, args string) {
	parts := splitFields(args)
	if len(parts) < 2 {
		h.reply(chatID, "Use: /add_reminder title,YYYY-MM-DD[,description]")
		return
	}

	description := ""
	if len(parts) > 2 {
		description = parts[2]
	}

	id, err := h.svc.CreateReminder(ctx, ownerID, parts[0], parts[1], description)
	if err != nil {
		h.replyError(chatID, err, "Could not save the reminder, try again later.")
		return
	}
	h.reply(chatID, "Reminder added. ID: "+strconv.FormatInt(id, 10))
}

func (h *Handler) handleListReminders(ctx context.Context, chatID, ownerID int64) {
	reminders, err := h.svc.ListActiveReminders(ctx, ownerID)
	if err != nil {
		h.log.Errorf("list_reminders for owner %d: %v", ownerID, err)
		h.reply(chatID, "Could not load your reminders, try again later.")
		return
	}
	if len(reminders) == 0 {
		h.reply(chatID, "You have no active reminders.")
		return
	}

	var b strings.Builder
	b.WriteString("Your active reminders:\n\n")
	for _, rem := range reminders {
		b.WriteString("#" + strconv.FormatInt(rem.ID, 10) + " " + rem.Title + " (" + rem.ReminderDate + ")\n")
	}
	h.reply(chatID, b.String())
}

// replyError shows validation errors to the user verbatim and hides
// everything else behind a generic message.
func (h *Handler) replyError(chatID int64, err error, generic string) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		h.reply(chatID, "Error: "+vErr.Error())
		return
	}
	h.log.Errorf("command failed: %v", err)
	h.reply(chatID, generic)
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Errorf("reply to chat %d: %v", chatID, err)
	}
}

func splitFields(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
