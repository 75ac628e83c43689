package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"veckomat/internal/app"
	"veckomat/internal/config"
	"veckomat/internal/planner"
	"veckomat/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram API around the planning application.
type Bot struct {
	api *tgbotapi.BotAPI
	app *app.App
	cfg *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, application *app.App) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{api: bot, app: application, cfg: cfg}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.CallbackQuery != nil {
		if b.isAllowed(update.CallbackQuery.From.ID) {
			b.handleCallbackQuery(update.CallbackQuery)
		}
		return
	}

	if update.Message == nil {
		return
	}

	if !b.isAllowed(update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) isAllowed(id int64) bool {
	for _, allowed := range b.cfg.TelegramAllowedUserIDs {
		if id == allowed {
			return true
		}
	}
	return false
}

func botUserID(telegramID int64) string {
	return "tg:" + strconv.FormatInt(telegramID, 10)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	userID := botUserID(msg.From.ID)
	text := strings.TrimSpace(msg.Text)

	// Bare URLs go straight to the recipe importer.
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleImport(ctx, msg.Chat.ID, userID, text)
		return
	}

	cmd, args, _ := strings.Cut(text, " ")
	switch cmd {
	case "/start", "/help":
		b.send(msg.Chat.ID, "🍽️ *Veckomat*\n\n"+
			"/plan — plan this week's dinners\n"+
			"/plan force — replan from scratch\n"+
			"/swap <dag> — draw a new meal for one day\n"+
			"/servings <dag> <antal> — set servings for one day\n"+
			"/list — show the shopping list\n"+
			"/meals — show your meal library\n"+
			"/reset — forget learned day preferences\n"+
			"Send a recipe URL to import it.")
	case "/plan":
		b.handlePlan(ctx, msg.Chat.ID, userID, strings.EqualFold(args, "force"))
	case "/swap":
		b.handleSwap(ctx, msg.Chat.ID, userID, args)
	case "/servings":
		b.handleServings(ctx, msg.Chat.ID, userID, args)
	case "/list":
		b.handleList(ctx, msg.Chat.ID, userID)
	case "/meals":
		b.handleMeals(ctx, msg.Chat.ID, userID)
	case "/reset":
		if err := b.app.ResetSignals(ctx, userID); err != nil {
			b.sendError(msg.Chat.ID, err)
			return
		}
		b.send(msg.Chat.ID, "🧹 Learned day preferences cleared.")
	default:
		b.send(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, userID string, force bool) {
	result, err := b.app.GeneratePlan(ctx, userID, time.Now(), force)
	if err != nil {
		b.sendError(chatID, err)
		return
	}

	var sb strings.Builder
	if result.Created {
		sb.WriteString("🗓️ *Veckans middagar*\n\n")
	} else {
		sb.WriteString("🗓️ *Veckans middagar* (already planned — use `/plan force` to redo)\n\n")
	}
	for _, e := range result.Plan.Entries {
		fmt.Fprintf(&sb, "*%s:* %s (%d port)\n", planner.DayName(e.Weekday), e.MealName, e.Servings)
	}
	if result.Warning != "" {
		fmt.Fprintf(&sb, "\n⚠️ %s", result.Warning)
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = swapKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send plan: %v", err)
	}
}

func swapKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, day := range planner.Weekdays {
		name := planner.DayName(day)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🔄 "+name, "swap|"+strconv.Itoa(int(day))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))
}

func (b *Bot) handleSwap(ctx context.Context, chatID int64, userID, arg string) {
	day, err := planner.ParseDay(arg)
	if err != nil {
		b.send(chatID, "Usage: /swap måndag|tisdag|onsdag|torsdag|fredag")
		return
	}
	plan, err := b.app.SwapDay(ctx, userID, time.Now(), day)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	entry := plan.Entry(day)
	b.send(chatID, fmt.Sprintf("🔄 *%s:* %s", planner.DayName(day), entry.MealName))
}

func (b *Bot) handleServings(ctx context.Context, chatID int64, userID, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.send(chatID, "Usage: /servings <dag> <antal>")
		return
	}
	day, err := planner.ParseDay(fields[0])
	if err != nil {
		b.send(chatID, "Usage: /servings <dag> <antal>")
		return
	}
	servings, err := strconv.Atoi(fields[1])
	if err != nil {
		b.send(chatID, "Usage: /servings <dag> <antal>")
		return
	}
	if err := b.app.SetDayServings(ctx, userID, time.Now(), day, servings); err != nil {
		b.sendError(chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("✅ %s updated.", planner.DayName(day)))
}

func (b *Bot) handleList(ctx context.Context, chatID int64, userID string) {
	list, err := b.app.ShoppingList(ctx, userID, time.Now())
	if err != nil {
		b.sendError(chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("🛒 *Inköpslista*\n\n")
	for _, it := range list.Items {
		box := "▫️"
		if it.Checked {
			box = "✅"
		}
		fmt.Fprintf(&sb, "%s %s — %s\n", box, it.DisplayName, shopping.FormatAmount(&it))
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = checkKeyboard(list)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send shopping list: %v", err)
	}
}

// checkKeyboard renders one toggle button per unchecked item. Telegram caps
// callback data at 64 bytes; items with longer merge keys get no button.
func checkKeyboard(list *shopping.List) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, it := range list.Items {
		if it.Checked {
			continue
		}
		data := "check|" + it.CanonicalName + "|" + it.Unit
		if len(data) > 64 {
			continue
		}
		label := it.DisplayName
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("☑️ "+label, data)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) handleImport(ctx context.Context, chatID int64, userID, url string) {
	b.send(chatID, "✂️ *Importing recipe...*")
	m, err := b.app.ImportRecipe(ctx, userID, url)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("✅ *%s* added to your library (%d port).", m.Name, m.DefaultServings))
}

func (b *Bot) handleMeals(ctx context.Context, chatID int64, userID string) {
	meals, err := b.app.ListMeals(ctx, userID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(meals) == 0 {
		b.send(chatID, "Your library is empty. Send a recipe URL to add a meal.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 *Matbibliotek*\n\n")
	for _, m := range meals {
		fmt.Fprintf(&sb, "• %s (👍%d 👎%d)\n", m.Name, m.ThumbsUp, m.ThumbsDown)
	}
	b.send(chatID, sb.String())
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	userID := botUserID(query.From.ID)

	// Answer callback to remove spinner
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	parts := strings.Split(query.Data, "|")
	switch {
	case parts[0] == "swap" && len(parts) == 2:
		dayNum, err := strconv.Atoi(parts[1])
		if err != nil {
			return
		}
		b.handleSwapCallback(ctx, query.Message.Chat.ID, userID, time.Weekday(dayNum))
	case parts[0] == "check" && len(parts) == 3:
		if err := b.app.SetItemChecked(ctx, userID, time.Now(), parts[1], parts[2], true); err != nil {
			b.sendError(query.Message.Chat.ID, err)
			return
		}
		b.handleList(ctx, query.Message.Chat.ID, userID)
	}
}

func (b *Bot) handleSwapCallback(ctx context.Context, chatID int64, userID string, day time.Weekday) {
	plan, err := b.app.SwapDay(ctx, userID, time.Now(), day)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	entry := plan.Entry(day)
	b.send(chatID, fmt.Sprintf("🔄 *%s:* %s", planner.DayName(day), entry.MealName))
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (b *Bot) sendError(chatID int64, err error) {
	text := "❌ Something went wrong."
	switch {
	case errors.Is(err, planner.ErrLibraryTooSmall):
		text = "📚 You need at least 5 meals in your library before a week can be planned."
	case errors.Is(err, planner.ErrPlanNotFound):
		text = "🗓️ No plan exists for this week yet. Run /plan first."
	case errors.Is(err, planner.ErrNoAlternative):
		text = "🤷 No alternative meal is available for that day."
	case errors.Is(err, planner.ErrMealNotFound):
		text = "🔍 That meal does not exist in your library."
	default:
		log.Printf("Error handling telegram command: %v", err)
	}
	b.send(chatID, text)
}
