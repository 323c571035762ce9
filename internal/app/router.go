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

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
	"civiclens_bot/internal/infra/telegram"
	"civiclens_bot/internal/repo/civichttp"
	"civiclens_bot/internal/services/entities"
	"civiclens_bot/internal/services/policies"
	sessionsvc "civiclens_bot/internal/services/session"
	"civiclens_bot/internal/services/vault"
	"civiclens_bot/internal/ui"
)

const (
	callbackPrefixEntity = "ent"
	callbackPrefixRating = "rat"
	callbackPrefixFeed   = "feed"
	callbackPrefixVault  = "vlt"
	callbackPrefixForum  = "frm"
	callbackPrefixPolicy = "pol"
	callbackPrefixQueue  = "rq"
)

const listPageSize = 5

func (a *App) routeUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		a.routeMessage(ctx, update.Message)
	}

	if update.CallbackQuery != nil {
		a.handleCallback(ctx, update.CallbackQuery)
	}
}

func (a *App) routeMessage(ctx context.Context, message *tgbotapi.Message) {
	if message == nil {
		return
	}

	if message.From != nil {
		if err := a.accessService.TouchUser(ctx, model.BotUser{
			TgID:       message.From.ID,
			Username:   message.From.UserName,
			FirstName:  message.From.FirstName,
			LastName:   message.From.LastName,
			LastSeenAt: time.Now().UTC(),
		}); err != nil {
			a.logger.Warn("touch bot user", zap.Error(err), zap.Int64("tg_id", message.From.ID))
		}
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			a.handleStart(ctx, message)
		default:
			a.sendText(message.Chat.ID, "Unknown command. Use /start")
		}
		return
	}

	if a.handleFormInput(ctx, message) {
		return
	}

	a.handleMenuMessage(ctx, message)
}

func (a *App) handleStart(ctx context.Context, message *tgbotapi.Message) {
	a.clearForm(message.Chat.ID)

	role := enums.RoleNone
	if session, err := a.sessionService.Resolve(ctx, message.Chat.ID); err == nil {
		role = session.Role
	}

	a.sendMainMenu(message.Chat.ID, role)
}

func (a *App) handleMenuMessage(ctx context.Context, message *tgbotapi.Message) {
	if message == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	switch strings.TrimSpace(message.Text) {
	case ui.MenuLogin:
		a.startForm(chatID, message.From.ID, telegram.StateWaitingLogin, "Enter your username or email.")
	case ui.MenuSignup:
		a.startForm(chatID, message.From.ID, telegram.StateWaitingSignup, "Pick a username.")
	case ui.MenuForgotPassword:
		a.startForm(chatID, message.From.ID, telegram.StateWaitingResetEmail, "Enter the email or username of the account.")
	case ui.MenuPublicFeed:
		a.sendFeedScreen(ctx, chatID)
	case ui.MenuRatings:
		if _, ok := a.requireSession(ctx, chatID); ok {
			a.sendEntitiesScreen(ctx, chatID)
		}
	case ui.MenuForum:
		if _, ok := a.requireSession(ctx, chatID); ok {
			a.sendForumScreen(ctx, chatID)
		}
	case ui.MenuVault:
		if _, ok := a.requireSession(ctx, chatID); ok {
			a.sendVaultScreen(ctx, chatID)
		}
	case ui.MenuReportOfficial:
		if _, ok := a.requireSession(ctx, chatID); ok {
			a.startForm(chatID, message.From.ID, telegram.StateWaitingEntityDraft, "Enter the official's or agency's name.")
		}
	case ui.MenuPolicies:
		if _, ok := a.requireSession(ctx, chatID); ok {
			a.sendPoliciesScreen(ctx, chatID, "")
		}
	case ui.MenuReviewQueues:
		a.handleReviewQueuesEntry(ctx, message)
	case ui.MenuUsers:
		a.handleUsersEntry(ctx, message)
	case ui.MenuHistory:
		a.handleHistoryEntry(ctx, message)
	case ui.MenuLogout:
		if err := a.sessionService.Logout(ctx, chatID); err != nil {
			a.logger.Warn("logout", zap.Error(err), zap.Int64("chat_id", chatID))
		}
		a.sendMainMenu(chatID, enums.RoleNone)
	}
}

func (a *App) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query == nil || query.From == nil {
		return
	}

	chatID, ok := callbackChatID(query)
	if !ok {
		a.answerCallback(query.ID, "", false)
		return
	}

	ackText := ""
	ackAlert := false
	defer func() { a.answerCallback(query.ID, ackText, ackAlert) }()

	parts := strings.Split(query.Data, ":")
	if len(parts) < 2 {
		return
	}

	switch parts[0] {
	case callbackPrefixEntity:
		ackText, ackAlert = a.handleEntityCallback(ctx, chatID, query, parts)
	case callbackPrefixRating:
		ackText, ackAlert = a.handleRatingCallback(ctx, chatID, query, parts)
	case callbackPrefixFeed:
		ackText, ackAlert = a.handleFeedCallback(ctx, chatID, query, parts)
	case callbackPrefixVault:
		ackText, ackAlert = a.handleVaultCallback(ctx, chatID, query, parts)
	case callbackPrefixForum:
		ackText, ackAlert = a.handleForumCallback(ctx, chatID, query, parts)
	case callbackPrefixPolicy:
		ackText, ackAlert = a.handlePolicyCallback(ctx, chatID, query, parts)
	case callbackPrefixQueue:
		ackText, ackAlert = a.handleQueueCallback(ctx, chatID, query, parts)
	}
}

// --- entities and ratings ---

func (a *App) sendEntitiesScreen(ctx context.Context, chatID int64) {
	listed, err := a.entitiesService.ListPublic(a.sessionCtx(ctx, chatID))
	if err != nil {
		a.logger.Warn("list entities", zap.Error(err), zap.Int64("chat_id", chatID))
		a.sendText(chatID, failureText(err))
		return
	}

	rows := [][]telegram.InlineButton{
		{
			{Text: "Top rated", Data: callbackPrefixEntity + ":sort:desc"},
			{Text: "Lowest rated", Data: callbackPrefixEntity + ":sort:asc"},
		},
		{
			{Text: "Search", Data: callbackPrefixEntity + ":search"},
			{Text: "Flag a rating", Data: callbackPrefixRating + ":flag"},
		},
	}
	a.sendInline(chatID, fmt.Sprintf("Ratings: %d officials and agencies on record.", len(listed)), rows)
	a.sendEntityList(chatID, listed)
}

func (a *App) sendEntityList(chatID int64, listed []model.Entity) {
	if len(listed) == 0 {
		a.sendText(chatID, "No officials or agencies yet.")
		return
	}
	if len(listed) > listPageSize {
		listed = listed[:listPageSize]
	}

	for _, entity := range listed {
		rows := [][]telegram.InlineButton{{
			{Text: "Open", Data: fmt.Sprintf("%s:open:%d", callbackPrefixEntity, entity.ID)},
			{Text: "Rate", Data: fmt.Sprintf("%s:new:%d", callbackPrefixRating, entity.ID)},
			{Text: "Testify", Data: fmt.Sprintf("%s:new:%d", callbackPrefixVault, entity.ID)},
		}}
		a.sendInline(chatID, ui.EntityCard(entity), rows)
	}
}

// sendEntityDetail always re-fetches; the card must reflect the current
// reputation and review status, not what some earlier list showed.
func (a *App) sendEntityDetail(ctx context.Context, chatID int64, entityID int64) {
	entity, err := a.entitiesService.Get(a.sessionCtx(ctx, chatID), entityID)
	if err != nil {
		a.logger.Warn("get entity", zap.Error(err), zap.Int64("entity_id", entityID))
		a.sendText(chatID, failureText(err))
		return
	}

	rows := [][]telegram.InlineButton{{
		{Text: "Rate", Data: fmt.Sprintf("%s:new:%d", callbackPrefixRating, entity.ID)},
		{Text: "Testify", Data: fmt.Sprintf("%s:new:%d", callbackPrefixVault, entity.ID)},
	}}
	a.sendInline(chatID, ui.EntityCard(entity), rows)
}

func (a *App) handleEntityCallback(ctx context.Context, chatID int64, query *tgbotapi.CallbackQuery, parts []string) (string, bool) {
	if _, ok := a.requireSession(ctx, chatID); !ok {
		return ui.MsgSessionExpired, true
	}

	switch parts[1] {
	case "sort":
		if len(parts) < 3 {
			return "", false
		}
		listed, err := a.entitiesService.ListPublic(a.sessionCtx(ctx, chatID))
		if err != nil {
			a.logger.Warn("list entities for sort", zap.Error(err), zap.Int64("chat_id", chatID))
			return failureText(err), true
		}
		a.sendEntityList(chatID, entities.SortByReputation(listed, parts[2] == "desc"))
		return "", false
	case "search":
		a.startForm(chatID, query.From.ID, telegram.StateWaitingSearch, "Enter a name, place or category to search for.")
		return "", false
	case "open":
		if len(parts) < 3 {
			return "", false
		}
		entityID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || entityID <= 0 {
			return "Bad entity id", true
		}
		a.sendEntityDetail(ctx, chatID, entityID)
		return "", false
	default:
		return "", false
	}
}

func (a *App) handleRatingCallback(ctx context.Context, chatID int64, query *tgbotapi.CallbackQuery, parts []string) (string, bool) {
	if _, ok := a.requireSession(ctx, chatID); !ok {
		return ui.MsgSessionExpired, true
	}

	switch parts[1] {
	case "new":
		if len(parts) < 3 {
			return "", false
		}
		entityID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || entityID <= 0 {
			return "Bad entity id", true
		}
		state := formState{
			Kind:      telegram.StateWaitingRatingDraft,
			ActorTGID: query.From.ID,
		}
		state.RatingDraft.EntityID = entityID
		a.setForm(chatID, state)
		a.sendText(chatID, "Send five scores 1-10 separated by spaces: integrity, transparency, fairness, respectfulness, accountability.")
		return "", false
	case "flag":
		a.startForm(chatID, query.From.ID, telegram.StateWaitingFlagReason, "Enter the number of the rating you want to flag.")
		return "", false
	default:
		return "", false
	}
}

// --- public feed ---

func (a *App) sendFeedScreen(ctx context.Context, chatID int64) {
	items, err := a.vaultService.Feed(a.sessionCtx(ctx, chatID))
	if err != nil {
		a.logger.Warn("load feed", zap.Error(err), zap.Int64("chat_id", chatID))
		a.sendText(chatID, failureText(err))
		return
	}

	filter := a.feedFilter(chatID)
	filtered := filter.Apply(items)

	a.sendInline(chatID, feedHeading(filter, len(filtered)), a.feedFilterRows(items, filter))

	if len(filtered) == 0 {
		a.sendText(chatID, "No public testimony matches the current filter.")
		return
	}
	if len(filtered) > listPageSize {
		filtered = filtered[:listPageSize]
	}

	for _, item := range filtered {
		var rows [][]telegram.InlineButton
		if len(item.Evidence) > 0 {
			rows = append(rows, []telegram.InlineButton{{
				Text: fmt.Sprintf("Evidence (%d)", len(item.Evidence)),
				Data: fmt.Sprintf("%s:media:%d", callbackPrefixFeed, item.Entry.ID),
			}})
		}
		if len(rows) > 0 {
			a.sendInline(chatID, ui.FeedItemCard(item), rows)
		} else {
			a.sendText(chatID, ui.FeedItemCard(item))
		}
	}
}

func (a *App) feedFilterRows(items []model.FeedItem, filter vault.FeedFilter) [][]telegram.InlineButton {
	var rows [][]telegram.InlineButton

	if filter.State == "" {
		var row []telegram.InlineButton
		for _, state := range vault.States(items) {
			row = append(row, telegram.InlineButton{
				Text: state,
				Data: callbackPrefixFeed + ":state:" + state,
			})
			if len(row) == 3 {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	} else {
		var row []telegram.InlineButton
		for _, county := range vault.Counties(items, filter.State) {
			row = append(row, telegram.InlineButton{
				Text: county,
				Data: callbackPrefixFeed + ":county:" + county,
			})
			if len(row) == 3 {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
		rows = append(rows, []telegram.InlineButton{{Text: "Clear filter", Data: callbackPrefixFeed + ":clear"}})
	}

	return rows
}

func (a *App) handleFeedCallback(ctx context.Context, chatID int64, query *tgbotapi.CallbackQuery, parts []string) (string, bool) {
	switch parts[1] {
	case "state":
		if len(parts) < 3 {
			return "", false
		}
		filter := a.feedFilter(chatID)
		filter.SelectState(parts[2])
		a.setFeedFilter(chatID, filter)
		a.sendFeedScreen(ctx, chatID)
		return "", false
	case "county":
		if len(parts) < 3 {
			return "", false
		}
		filter := a.feedFilter(chatID)
		filter.SelectCounty(parts[2])
		a.setFeedFilter(chatID, filter)
		a.sendFeedScreen(ctx, chatID)
		return "", false
	case "clear":
		a.setFeedFilter(chatID, vault.FeedFilter{})
		a.sendFeedScreen(ctx, chatID)
		return "", false
	case "media":
		if len(parts) < 3 {
			return "", false
		}
		entryID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return "Bad entry id", true
		}
		return a.openMediaViewer(ctx, chatID, entryID)
	case "nav":
		if len(parts) < 3 {
			return "", false
		}
		return a.navigateMediaViewer(ctx, chatID, parts[2])
	default:
		return "", false
	}
}

func (a *App) openMediaViewer(ctx context.Context, chatID int64, entryID int64) (string, bool) {
	items, err := a.vaultService.Feed(a.sessionCtx(ctx, chatID))
	if err != nil {
		a.logger.Warn("load feed for viewer", zap.Error(err), zap.Int64("entry_id", entryID))
		return failureText(err), true
	}

	for _, item := range items {
		if item.Entry.ID != entryID {
			continue
		}
		if len(item.Evidence) == 0 {
			return "No evidence attached", true
		}

		viewer := vault.NewMediaViewer(item.Evidence)
		a.viewerMu.Lock()
		a.viewerByChat[chatID] = viewer
		a.viewerMu.Unlock()

		a.sendViewerCurrent(ctx, chatID, viewer)
		return "", false
	}
	return ui.MsgStaleItem, true
}

func (a *App) navigateMediaViewer(ctx context.Context, chatID int64, direction string) (string, bool) {
	a.viewerMu.Lock()
	viewer, ok := a.viewerByChat[chatID]
	a.viewerMu.Unlock()
	if !ok {
		return "The viewer is closed", true
	}

	moved := false
	switch direction {
	case "next":
		moved = viewer.Next()
	case "prev":
		moved = viewer.Prev()
	}
	if !moved {
		return "No more files in that direction", false
	}

	a.sendViewerCurrent(ctx, chatID, viewer)
	return "", false
}

func (a *App) sendViewerCurrent(ctx context.Context, chatID int64, viewer *vault.MediaViewer) {
	evidence, ok := viewer.Current()
	if !ok {
		return
	}

	url, err := a.vaultService.PreviewURL(ctx, evidence)
	if err != nil {
		a.logger.Warn("presign evidence url", zap.Error(err), zap.Int64("evidence_id", evidence.ID))
		a.sendText(chatID, "The file is unavailable right now.")
		return
	}

	position, total := viewer.Position()
	caption := fmt.Sprintf("%d/%d", position, total)
	if evidence.Description != "" {
		caption += " " + evidence.Description
	}

	switch evidence.MediaKind() {
	case enums.MediaKindImage:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
		photo.Caption = caption
		if err := a.tg.Send(photo); err != nil {
			a.logger.Warn("send evidence photo", zap.Error(err), zap.Int64("chat_id", chatID))
		}
	case enums.MediaKindVideo:
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(url))
		video.Caption = caption
		if err := a.tg.Send(video); err != nil {
			a.logger.Warn("send evidence video", zap.Error(err), zap.Int64("chat_id", chatID))
		}
	default:
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileURL(url))
		doc.Caption = caption
		if err := a.tg.Send(doc); err != nil {
			a.logger.Warn("send evidence document", zap.Error(err), zap.Int64("chat_id", chatID))
		}
	}

	var row []telegram.InlineButton
	if viewer.HasPrev() {
		row = append(row, telegram.InlineButton{Text: "⬅️ Prev", Data: callbackPrefixFeed + ":nav:prev"})
	}
	if viewer.HasNext() {
		row = append(row, telegram.InlineButton{Text: "Next ➡️", Data: callbackPrefixFeed + ":nav:next"})
	}
	if len(row) > 0 {
		a.sendInline(chatID, caption, [][]telegram.InlineButton{row})
	}
}

// --- vault ---

func (a *App) sendVaultScreen(ctx context.Context, chatID int64) {
	mine, err := a.vaultService.ListMine(a.sessionCtx(ctx, chatID))
	if err != nil {
		a.logger.Warn("list vault entries", zap.Error(err), zap.Int64("chat_id", chatID))
		a.sendText(chatID, failureText(err))
		return
	}

	rows := [][]telegram.InlineButton{{
		{Text: "New entry", Data: callbackPrefixVault + ":new:0"},
	}}
	a.sendInline(chatID, fmt.Sprintf("My Vault: %d entries.", len(mine)), rows)

	for _, entry := range mine {
		a.sendVaultEntryCard(chatID, entry)
	}
}

func (a *App) sendVaultEntryCard(chatID int64, entry model.VaultEntry) {
	toggle := telegram.InlineButton{
		Text: "Publish",
		Data: fmt.Sprintf("%s:pub:%d", callbackPrefixVault, entry.ID),
	}
	if entry.IsPublic {
		toggle = telegram.InlineButton{
			Text: "Make private",
			Data: fmt.Sprintf("%s:priv:%d", callbackPrefixVault, entry.ID),
		}
	}

	rows := [][]telegram.InlineButton{{
		toggle,
		{Text: "Edit testimony", Data: fmt.Sprintf("%s:edit:%d", callbackPrefixVault, entry.ID)},
		{Text: "Attach evidence", Data: fmt.Sprintf("%s:add:%d", callbackPrefixVault, entry.ID)},
	}}
	a.sendInline(chatID, ui.VaultEntryCard(entry), rows)
}

func (a *App) handleVaultCallback(ctx context.Context, chatID int64, query *tgbotapi.CallbackQuery, parts []string) (string, bool) {
	if _, ok := a.requireSession(ctx, chatID); !ok {
		return ui.MsgSessionExpired, true
	}

	switch parts[1] {
	case "new":
		entityID := int64(0)
		if len(parts) >= 3 {
			entityID, _ = strconv.ParseInt(parts[2], 10, 64)
		}
		state := formState{
			Kind:      telegram.StateWaitingVaultDraft,
			ActorTGID: query.From.ID,
		}
		if entityID > 0 {
			state.VaultDraft.EntityID = entityID
			state.Step = 1
			a.setForm(chatID, state)
			a.sendText(chatID, "Write your testimony. It stays private until you publish it.")
		} else {
			a.setForm(chatID, state)
			a.sendText(chatID, "Enter the id of the official or agency the testimony is about.")
		}
		return "", false
	case "pub", "priv":
		if len(parts) < 3 {
			return "", false
		}
		entryID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || entryID <= 0 {
			return "Bad entry id", true
		}
		return a.toggleVaultVisibility(ctx, chatID, entryID, parts[1] == "pub")
	case "edit":
		if len(parts) < 3 {
			return "", false
		}
		entryID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || entryID <= 0 {
			return "Bad entry id", true
		}
		return a.startVaultEdit(ctx, chatID, query.From.ID, entryID)
	case "add":
		if len(parts) < 3 {
			return "", false
		}
		entryID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || entryID <= 0 {
			return "Bad entry id", true
		}
		a.setForm(chatID, formState{
			Kind:      telegram.StateWaitingUploadNote,
			ActorTGID: query.From.ID,
			EntryID:   entryID,
		})
		a.sendText(chatID, "Describe the evidence, or '-' to skip.")
		return "", false
	default:
		return "", false
	}
}

// startVaultEdit re-reads the entry first so the update keeps its entity
// binding and visibility: the server replaces what the draft carries.
func (a *App) startVaultEdit(ctx context.Context, chatID, actorTGID, entryID int64) (string, bool) {
	mine, err := a.vaultService.ListMine(a.sessionCtx(ctx, chatID))
	if err != nil {
		a.logger.Warn("list vault entries for edit", zap.Error(err), zap.Int64("entry_id", entryID))
		return failureText(err), true
	}

	for _, entry := range mine {
		if entry.ID != entryID {
			continue
		}
		state := formState{
			Kind:      telegram.StateWaitingVaultDraft,
			ActorTGID: actorTGID,
			EntryID:   entry.ID,
			Step:      1,
		}
		state.VaultDraft.EntityID = entry.EntityID
		state.VaultDraft.IsPublic = entry.IsPublic
		a.setForm(chatID, state)
		a.sendText(chatID, "Write the updated testimony.")
		return "", false
	}
	return ui.MsgStaleItem, true
}

func (a *App) toggleVaultVisibility(ctx context.Context, chatID int64, entryID int64, public bool) (string, bool) {
	ctx = a.sessionCtx(ctx, chatID)

	mine, err := a.vaultService.ListMine(ctx)
	if err != nil {
		a.logger.Warn("list vault entries for toggle", zap.Error(err), zap.Int64("entry_id", entryID))
		return failureText(err), true
	}

	for _, entry := range mine {
		if entry.ID != entryID {
			continue
		}
		updated, err := a.vaultService.ToggleVisibility(ctx, entry, public)
		if err != nil {
			a.logger.Warn("toggle visibility", zap.Error(err), zap.Int64("entry_id", entryID))
			return failureText(err), true
		}
		a.sendVaultEntryCard(chatID, updated)
		if public {
			return "Published", false
		}
		return "Hidden", false
	}
	return ui.MsgStaleItem, true
}

// --- forum ---

func (a *App) sendForumScreen(ctx context.Context, chatID int64) {
	posts, err := a.forumService.ListPosts(a.sessionCtx(ctx, chatID))
	if err != nil {
		a.logger.Warn("list forum posts", zap.Error(err), zap.Int64("chat_id", chatID))
		a.sendText(chatID, failureText(err))
		return
	}

	rows := [][]telegram.InlineButton{{
		{Text: "New post", Data: callbackPrefixForum + ":new"},
	}}
	a.sendInline(chatID, fmt.Sprintf("Forum: %d discussions.", len(posts)), rows)

	if len(posts) > listPageSize {
		posts = posts[:listPageSize]
	}
	for _, post := range posts {
		postRows := [][]telegram.InlineButton{{
			{Text: "Open", Data: fmt.Sprintf("%s:open:%d", callbackPrefixForum, post.ID)},
		}}
		a.sendInline(chatID, ui.ForumPostCard(post), postRows)
	}
}

func (a *App) handleForumCallback(ctx context.Context, chatID int64, query *tgbotapi.CallbackQuery, parts []string) (string, bool) {
	if _, ok := a.requireSession(ctx, chatID); !ok {
		return ui.MsgSessionExpired, true
	}

	switch parts[1] {
	case "new":
		a.startForm(chatID, query.From.ID, telegram.StateWaitingForumPost, "Enter a title for the post.")
		return "", false
	case "open":
		if len(parts) < 3 {
			return "", false
		}
		postID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || postID <= 0 {
			return "Bad post id", true
		}

		post, err := a.forumService.GetPost(a.sessionCtx(ctx, chatID), postID)
		if err != nil {
			a.logger.Warn("get forum post", zap.Error(err), zap.Int64("post_id", postID))
			return failureText(err), true
		}

		a.sendText(chatID, ui.ForumPostCard(post))
		for _, comment := range post.Comments {
			a.sendText(chatID, fmt.Sprintf("%s: %s", comment.AuthorName, comment.Content))
		}
		rows := [][]telegram.InlineButton{{
			{Text: "Comment", Data: fmt.Sprintf("%s:cmt:%d", callbackPrefixForum, post.ID)},
		}}
		a.sendInline(chatID, "Join the discussion", rows)
		return "", false
	case "cmt":
		if len(parts) < 3 {
			return "", false
		}
		postID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || postID <= 0 {
			return "Bad post id", true
		}
		a.setForm(chatID, formState{
			Kind:      telegram.StateWaitingComment,
			ActorTGID: query.From.ID,
			PostID:    postID,
		})
		a.sendText(chatID, "Write your comment.")
		return "", false
	default:
		return "", false
	}
}

// --- policies ---

func (a *App) sendPoliciesScreen(ctx context.Context, chatID int64, level enums.JurisdictionLevel) {
	listed, err := a.policiesService.List(a.sessionCtx(ctx, chatID))
	if err != nil {
		a.logger.Warn("list policies", zap.Error(err), zap.Int64("chat_id", chatID))
		a.sendText(chatID, failureText(err))
		return
	}

	filtered := policies.Filter(listed, level, "")

	rows := [][]telegram.InlineButton{{
		{Text: "Federal", Data: callbackPrefixPolicy + ":lvl:federal"},
		{Text: "State", Data: callbackPrefixPolicy + ":lvl:state"},
		{Text: "All", Data: callbackPrefixPolicy + ":lvl:all"},
		{Text: "Search", Data: callbackPrefixPolicy + ":search"},
	}}
	a.sendInline(chatID, fmt.Sprintf("Policies: %d tracked.", len(filtered)), rows)

	if len(filtered) > listPageSize {
		filtered = filtered[:listPageSize]
	}
	for _, policy := range filtered {
		policyRows := [][]telegram.InlineButton{{
			{Text: "Request status change", Data: fmt.Sprintf("%s:req:%d", callbackPrefixPolicy, policy.ID)},
		}}
		a.sendInline(chatID, ui.PolicyCard(policy), policyRows)
	}
}

func (a *App) handlePolicyCallback(ctx context.Context, chatID int64, query *tgbotapi.CallbackQuery, parts []string) (string, bool) {
	if _, ok := a.requireSession(ctx, chatID); !ok {
		return ui.MsgSessionExpired, true
	}

	switch parts[1] {
	case "lvl":
		if len(parts) < 3 {
			return "", false
		}
		level, _ := enums.ParseJurisdictionLevel(parts[2])
		a.sendPoliciesScreen(ctx, chatID, level)
		return "", false
	case "search":
		a.startForm(chatID, query.From.ID, telegram.StateWaitingPolicySearch, "Enter part of a policy title or summary to search for.")
		return "", false
	case "req":
		if len(parts) < 3 {
			return "", false
		}
		policyID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || policyID <= 0 {
			return "Bad policy id", true
		}
		state := formState{
			Kind:      telegram.StateWaitingPolicyDraft,
			ActorTGID: query.From.ID,
		}
		state.PolicyDraft.PolicyID = policyID
		a.setForm(chatID, state)
		a.sendText(chatID, "Enter the number of the requested status.")
		return "", false
	default:
		return "", false
	}
}

// --- shared helpers ---

func (a *App) startForm(chatID, actorTGID int64, kind telegram.State, prompt string) {
	a.setForm(chatID, formState{Kind: kind, ActorTGID: actorTGID})
	a.sendText(chatID, prompt)
}

// requireSession resolves the chat's session and nudges toward login when
// there is none.
func (a *App) requireSession(ctx context.Context, chatID int64) (model.Session, bool) {
	session, err := a.sessionService.Resolve(ctx, chatID)
	if errors.Is(err, sessionsvc.ErrNotAuthenticated) {
		a.sendText(chatID, ui.MsgSessionExpired)
		a.sendMainMenu(chatID, enums.RoleNone)
		return model.Session{}, false
	}
	if err != nil {
		a.logger.Warn("resolve session", zap.Error(err), zap.Int64("chat_id", chatID))
		a.sendText(chatID, ui.MsgGenericFailure)
		return model.Session{}, false
	}
	return session, true
}

// sessionCtx attaches the chat's token when one exists. Public surfaces
// work either way.
func (a *App) sessionCtx(ctx context.Context, chatID int64) context.Context {
	withToken, _, err := a.sessionService.WithSession(ctx, chatID)
	if err != nil {
		return ctx
	}
	return withToken
}

func (a *App) feedFilter(chatID int64) vault.FeedFilter {
	a.filterMu.Lock()
	defer a.filterMu.Unlock()
	return a.filterByChat[chatID]
}

func (a *App) setFeedFilter(chatID int64, filter vault.FeedFilter) {
	a.filterMu.Lock()
	defer a.filterMu.Unlock()
	a.filterByChat[chatID] = filter
}

func feedHeading(filter vault.FeedFilter, count int) string {
	switch {
	case filter.State != "" && filter.County != "":
		return fmt.Sprintf("Public Feed: %s, %s (%d items).", filter.County, filter.State, count)
	case filter.State != "":
		return fmt.Sprintf("Public Feed: %s (%d items). Pick a county to narrow down.", filter.State, count)
	default:
		return fmt.Sprintf("Public Feed: %d items. Pick a state to filter.", count)
	}
}

func (a *App) sendMainMenu(chatID int64, role enums.Role) {
	text, menu := ui.RenderStart(role)
	response := tgbotapi.NewMessage(chatID, text)
	response.ReplyMarkup = telegram.BuildReplyKeyboard(menu)
	if err := a.tg.Send(response); err != nil {
		a.logger.Error("send main menu", zap.Error(err))
	}
}

func (a *App) sendSessionExpired(chatID int64) {
	a.sendText(chatID, ui.MsgSessionExpired)
	a.sendMainMenu(chatID, enums.RoleNone)
}

func (a *App) sendInline(chatID int64, text string, rows [][]telegram.InlineButton) {
	if len(rows) == 0 {
		a.sendText(chatID, text)
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = telegram.BuildInlineKeyboard(rows)
	if err := a.tg.Send(msg); err != nil {
		a.logger.Error("send inline message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (a *App) answerCallback(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	if err := a.tg.Send(cfg); err != nil {
		a.logger.Warn("answer callback", zap.Error(err))
	}
}

func (a *App) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if err := a.tg.Send(msg); err != nil {
		a.logger.Error("send message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func callbackChatID(query *tgbotapi.CallbackQuery) (int64, bool) {
	if query == nil || query.Message == nil {
		return 0, false
	}
	return query.Message.Chat.ID, true
}

func failureText(err error) string {
	return ui.FailureText(civichttp.Detail(err))
}
