package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"civiclens_bot/internal/domain/model"
	"civiclens_bot/internal/infra/telegram"
	"civiclens_bot/internal/repo/civichttp"
	"civiclens_bot/internal/services/access"
	"civiclens_bot/internal/services/audit"
	"civiclens_bot/internal/services/review"
	"civiclens_bot/internal/ui"
)

const (
	queueDomainEntities  = "entities"
	queueDomainFlagged   = "flagged"
	queueDomainRatings   = "ratings"
	queueDomainPolicies  = "policies"
	queueDomainOfficials = "officials"
)

var queueDomains = []struct {
	Code  string
	Label string
}{
	{Code: queueDomainEntities, Label: "Reported officials"},
	{Code: queueDomainFlagged, Label: "Flagged ratings"},
	{Code: queueDomainRatings, Label: "Pending ratings"},
	{Code: queueDomainPolicies, Label: "Policy status requests"},
	{Code: queueDomainOfficials, Label: "Official accounts"},
}

func (a *App) handleReviewQueuesEntry(ctx context.Context, message *tgbotapi.Message) {
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	session, ok := a.sessionService.RequireAdmin(ctx, chatID)
	if !ok {
		a.sendText(chatID, ui.MsgNotAdmin)
		return
	}

	if !a.ensureAdminUnlocked(ctx, chatID, message.From.ID, session) {
		return
	}

	a.sendQueuesScreen(chatID)
}

// ensureAdminUnlocked runs the one-time TOTP gate when it is configured.
// It returns false when the admin still has to enter a code; the pending
// form state finishes the unlock.
func (a *App) ensureAdminUnlocked(ctx context.Context, chatID, tgID int64, session model.Session) bool {
	if !a.accessService.RequiresTOTP() || a.accessService.AdminUnlocked(tgID) {
		return true
	}

	enrolled, err := a.accessService.IsEnrolled(ctx, tgID)
	if err != nil {
		a.logger.Warn("check totp enrollment", zap.Error(err), zap.Int64("tg_id", tgID))
		a.sendText(chatID, ui.MsgGenericFailure)
		return false
	}

	if !enrolled {
		account := session.Username
		if account == "" {
			account = strconv.FormatInt(tgID, 10)
		}
		png, err := a.accessService.Enroll(ctx, tgID, account)
		if err != nil {
			a.logger.Warn("enroll totp", zap.Error(err), zap.Int64("tg_id", tgID))
			a.sendText(chatID, ui.MsgGenericFailure)
			return false
		}

		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "totp.png", Bytes: png})
		photo.Caption = "Scan this in your authenticator app."
		if err := a.tg.Send(photo); err != nil {
			a.logger.Error("send totp qr", zap.Error(err), zap.Int64("chat_id", chatID))
		}
	}

	a.setForm(chatID, formState{Kind: telegram.StateWaitingTOTPCode, ActorTGID: tgID})
	a.sendText(chatID, "Enter the 6-digit code from your authenticator.")
	return false
}

func (a *App) continueTOTPCode(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	valid, err := a.accessService.ValidateCode(ctx, state.ActorTGID, text)
	if errors.Is(err, access.ErrTOTPNotEnrolled) {
		a.clearForm(chatID)
		a.sendText(chatID, "No authenticator is set up for this account. Open the review queues again to enroll.")
		return
	}
	if err != nil {
		a.clearForm(chatID)
		a.logger.Warn("validate totp", zap.Error(err), zap.Int64("tg_id", state.ActorTGID))
		a.sendText(chatID, ui.MsgGenericFailure)
		return
	}
	if !valid {
		// Keep the state so the next code attempt goes through.
		a.sendText(chatID, "That code did not match. Try again.")
		return
	}

	a.clearForm(chatID)
	a.sendQueuesScreen(chatID)
}

func (a *App) sendQueuesScreen(chatID int64) {
	rows := make([][]telegram.InlineButton, 0, len(queueDomains))
	for _, domain := range queueDomains {
		rows = append(rows, []telegram.InlineButton{{
			Text: domain.Label,
			Data: fmt.Sprintf("%s:open:%s", callbackPrefixQueue, domain.Code),
		}})
	}
	a.sendInline(chatID, "Review Queues", rows)
}

func (a *App) handleUsersEntry(ctx context.Context, message *tgbotapi.Message) {
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	session, ok := a.sessionService.RequireAdmin(ctx, chatID)
	if !ok {
		a.sendText(chatID, ui.MsgNotAdmin)
		return
	}
	if !a.ensureAdminUnlocked(ctx, chatID, message.From.ID, session) {
		return
	}

	users, err := a.adminUsersService.ListUsers(a.sessionCtx(ctx, chatID))
	if err != nil {
		a.logger.Warn("list users", zap.Error(err), zap.Int64("chat_id", chatID))
		a.sendText(chatID, failureText(err))
		return
	}

	a.sendText(chatID, fmt.Sprintf("Users: %d accounts.", len(users)))
	if len(users) > 10 {
		users = users[:10]
	}
	for _, user := range users {
		a.sendText(chatID, ui.UserCard(user))
	}
}

func (a *App) handleHistoryEntry(ctx context.Context, message *tgbotapi.Message) {
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	if _, ok := a.sessionService.RequireAdmin(ctx, chatID); !ok {
		a.sendText(chatID, ui.MsgNotAdmin)
		return
	}

	records, err := a.auditService.History(ctx, 50)
	if err != nil {
		a.logger.Warn("list audit history", zap.Error(err), zap.Int64("chat_id", chatID))
		a.sendText(chatID, ui.MsgGenericFailure)
		return
	}
	if len(records) == 0 {
		a.sendText(chatID, "No decisions recorded yet.")
		return
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, "History (last 50):")
	for _, record := range records {
		lines = append(lines, fmt.Sprintf(
			"%s | %s %s #%d | actor=%d",
			record.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			record.Decision,
			record.Domain,
			record.TargetID,
			record.ActorTgID,
		))
	}
	a.sendText(chatID, strings.Join(lines, "\n"))
}

func (a *App) handleQueueCallback(ctx context.Context, chatID int64, query *tgbotapi.CallbackQuery, parts []string) (string, bool) {
	session, ok := a.sessionService.RequireAdmin(ctx, chatID)
	if !ok {
		return ui.MsgNotAdmin, true
	}
	if a.accessService.RequiresTOTP() && !a.accessService.AdminUnlocked(query.From.ID) {
		return "Unlock the review queues first.", true
	}

	switch parts[1] {
	case "open":
		if len(parts) < 3 {
			return "", false
		}
		domain := parts[2]
		if err := a.refreshQueue(a.sessionCtx(ctx, chatID), domain); err != nil {
			a.logger.Warn("refresh queue", zap.Error(err), zap.String("domain", domain))
			return failureText(err), true
		}
		a.sendQueueItem(chatID, domain)
		return "", false
	case "approve", "reject":
		if len(parts) < 4 {
			return "", false
		}
		domain := parts[2]
		itemID, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil || itemID <= 0 {
			return "Bad item id", true
		}
		return a.resolveQueueItem(ctx, chatID, query.From.ID, session, domain, itemID, parts[1] == "approve")
	case "back":
		a.sendQueuesScreen(chatID)
		return "", false
	default:
		return "", false
	}
}

func (a *App) resolveQueueItem(
	ctx context.Context,
	chatID int64,
	actorTGID int64,
	session model.Session,
	domain string,
	itemID int64,
	approve bool,
) (string, bool) {
	started := time.Now()
	err := a.resolveQueue(a.sessionCtx(ctx, chatID), domain, itemID, approve)
	elapsed := time.Since(started)

	switch {
	case errors.Is(err, review.ErrInFlight):
		return ui.MsgActionBusy, true
	case errors.Is(err, review.ErrUnknownItem), errors.Is(err, civichttp.ErrNotFound):
		return ui.MsgStaleItem, true
	case err != nil:
		a.logger.Warn("resolve queue item",
			zap.Error(err), zap.String("domain", domain), zap.Int64("item_id", itemID))
		return failureText(err), true
	}

	decision := "reject"
	ack := "Rejected"
	if approve {
		decision = "approve"
		ack = "Approved"
	}

	if err := a.auditService.Record(ctx, audit.Decision{
		ActorTgID: actorTGID,
		ActorRole: session.Role,
		Domain:    domain,
		TargetID:  itemID,
		Decision:  decision,
		Duration:  elapsed,
	}); err != nil {
		a.logger.Warn("record audit decision", zap.Error(err), zap.String("domain", domain))
	}

	a.sendQueueItem(chatID, domain)
	return ack, false
}

// sendQueueItem shows the head of the domain's local pending list with the
// decision buttons, or the empty-queue notice.
func (a *App) sendQueueItem(chatID int64, domain string) {
	card, itemID, size, ok := a.queueHead(domain)
	if !ok {
		a.sendText(chatID, ui.MsgQueueEmpty)
		a.sendQueuesScreen(chatID)
		return
	}

	approveLabel := "✅ Approve"
	if domain == queueDomainOfficials {
		approveLabel = "✅ Verify"
	}

	row := []telegram.InlineButton{{
		Text: approveLabel,
		Data: fmt.Sprintf("%s:approve:%s:%d", callbackPrefixQueue, domain, itemID),
	}}
	if domain != queueDomainOfficials {
		rejectLabel := "❌ Reject"
		if domain == queueDomainFlagged || domain == queueDomainRatings {
			// For ratings the approve side verifies and the reject side
			// deletes.
			approveLabel = "✅ Verify"
			rejectLabel = "❌ Delete"
			row[0].Text = approveLabel
		}
		row = append(row, telegram.InlineButton{
			Text: rejectLabel,
			Data: fmt.Sprintf("%s:reject:%s:%d", callbackPrefixQueue, domain, itemID),
		})
	}

	rows := [][]telegram.InlineButton{
		row,
		{{Text: "⬅️ Back", Data: callbackPrefixQueue + ":back"}},
	}
	a.sendInline(chatID, fmt.Sprintf("%s\n\n%d waiting.", card, size), rows)
}

func (a *App) refreshQueue(ctx context.Context, domain string) error {
	switch domain {
	case queueDomainEntities:
		_, err := a.entitiesService.PendingQueue().Refresh(ctx)
		return err
	case queueDomainFlagged:
		_, err := a.ratingsService.FlaggedQueue().Refresh(ctx)
		return err
	case queueDomainRatings:
		_, err := a.ratingsService.PendingQueue().Refresh(ctx)
		return err
	case queueDomainPolicies:
		_, err := a.policiesService.ReviewQueue().Refresh(ctx)
		return err
	case queueDomainOfficials:
		_, err := a.adminUsersService.PendingOfficials().Refresh(ctx)
		return err
	default:
		return fmt.Errorf("unknown queue domain: %s", domain)
	}
}

func (a *App) resolveQueue(ctx context.Context, domain string, itemID int64, approve bool) error {
	switch domain {
	case queueDomainEntities:
		return resolveOn(ctx, a.entitiesService.PendingQueue(), itemID, approve)
	case queueDomainFlagged:
		return resolveOn(ctx, a.ratingsService.FlaggedQueue(), itemID, approve)
	case queueDomainRatings:
		return resolveOn(ctx, a.ratingsService.PendingQueue(), itemID, approve)
	case queueDomainPolicies:
		return resolveOn(ctx, a.policiesService.ReviewQueue(), itemID, approve)
	case queueDomainOfficials:
		return resolveOn(ctx, a.adminUsersService.PendingOfficials(), itemID, approve)
	default:
		return fmt.Errorf("unknown queue domain: %s", domain)
	}
}

func resolveOn[T any](ctx context.Context, queue *review.Queue[T], itemID int64, approve bool) error {
	if approve {
		return queue.Approve(ctx, itemID)
	}
	return queue.Reject(ctx, itemID)
}

func (a *App) queueHead(domain string) (card string, itemID int64, size int, ok bool) {
	switch domain {
	case queueDomainEntities:
		items := a.entitiesService.PendingQueue().Items()
		if len(items) == 0 {
			return "", 0, 0, false
		}
		return ui.EntityCard(items[0]), items[0].ID, len(items), true
	case queueDomainFlagged:
		items := a.ratingsService.FlaggedQueue().Items()
		if len(items) == 0 {
			return "", 0, 0, false
		}
		return ui.RatingCard(items[0]), items[0].ID, len(items), true
	case queueDomainRatings:
		items := a.ratingsService.PendingQueue().Items()
		if len(items) == 0 {
			return "", 0, 0, false
		}
		return ui.RatingCard(items[0]), items[0].ID, len(items), true
	case queueDomainPolicies:
		items := a.policiesService.ReviewQueue().Items()
		if len(items) == 0 {
			return "", 0, 0, false
		}
		return ui.PolicyRequestCard(items[0]), items[0].ID, len(items), true
	case queueDomainOfficials:
		items := a.adminUsersService.PendingOfficials().Items()
		if len(items) == 0 {
			return "", 0, 0, false
		}
		return ui.UserCard(items[0]), items[0].ID, len(items), true
	default:
		return "", 0, 0, false
	}
}
