package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
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
	"civiclens_bot/internal/services/ratings"
	sessionsvc "civiclens_bot/internal/services/session"
	"civiclens_bot/internal/services/vault"
	"civiclens_bot/internal/ui"
)

const maxUploadFiles = 10

// formState is one chat's in-progress flow. Only one flow runs per chat;
// starting a new one replaces the old.
type formState struct {
	Kind      telegram.State
	ActorTGID int64
	Step      int

	Identifier string
	Username   string
	Email      string

	EntityDraft model.EntityDraft
	RatingDraft model.RatingDraft
	RatingID    int64

	PolicyDraft model.PolicyStatusRequestDraft

	VaultDraft model.VaultEntryDraft
	EntryID    int64
	UploadNote string
	UploadLoc  string
	Files      []vault.BatchFile

	PostTitle string
	PostID    int64
}

func (a *App) setForm(chatID int64, state formState) {
	a.formMu.Lock()
	defer a.formMu.Unlock()
	a.formByChat[chatID] = state
}

func (a *App) getForm(chatID int64) (formState, bool) {
	a.formMu.Lock()
	defer a.formMu.Unlock()
	state, ok := a.formByChat[chatID]
	return state, ok
}

func (a *App) clearForm(chatID int64) {
	a.formMu.Lock()
	defer a.formMu.Unlock()
	delete(a.formByChat, chatID)
}

// handleFormInput consumes the message when the chat has a pending flow.
func (a *App) handleFormInput(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.From == nil {
		return false
	}

	state, ok := a.getForm(message.Chat.ID)
	if !ok {
		return false
	}
	if state.ActorTGID != message.From.ID {
		return false
	}

	text := strings.TrimSpace(message.Text)
	if strings.EqualFold(text, "cancel") {
		a.clearForm(message.Chat.ID)
		a.sendText(message.Chat.ID, "Canceled.")
		return true
	}

	switch state.Kind {
	case telegram.StateWaitingLogin:
		a.continueLogin(ctx, message, state, text)
	case telegram.StateWaitingSignup:
		a.continueSignup(ctx, message, state, text)
	case telegram.StateWaitingResetEmail:
		a.continueResetEmail(ctx, message, state, text)
	case telegram.StateWaitingSearch:
		a.continueSearch(ctx, message, state, text)
	case telegram.StateWaitingEntityDraft:
		a.continueEntityDraft(ctx, message, state, text)
	case telegram.StateWaitingRatingDraft:
		a.continueRatingDraft(ctx, message, state, text)
	case telegram.StateWaitingFlagReason:
		a.continueFlagReason(ctx, message, state, text)
	case telegram.StateWaitingPolicyDraft:
		a.continuePolicyDraft(ctx, message, state, text)
	case telegram.StateWaitingPolicySearch:
		a.continuePolicySearch(ctx, message, state, text)
	case telegram.StateWaitingVaultDraft:
		a.continueVaultDraft(ctx, message, state, text)
	case telegram.StateWaitingUploadNote:
		a.continueUpload(ctx, message, state, text)
	case telegram.StateWaitingForumPost:
		a.continueForumPost(ctx, message, state, text)
	case telegram.StateWaitingComment:
		a.continueComment(ctx, message, state, text)
	case telegram.StateWaitingTOTPCode:
		a.continueTOTPCode(ctx, message, state, text)
	default:
		a.clearForm(message.Chat.ID)
		return false
	}
	return true
}

func (a *App) continueLogin(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	switch state.Step {
	case 0:
		if text == "" {
			a.sendText(chatID, "Enter your username or email.")
			return
		}
		state.Identifier = text
		state.Step = 1
		a.setForm(chatID, state)
		a.sendText(chatID, "Enter your password.")
	case 1:
		a.clearForm(chatID)
		session, err := a.sessionService.Login(ctx, chatID, state.Identifier, message.Text)
		if err != nil {
			a.logger.Warn("login", zap.Error(err), zap.Int64("chat_id", chatID))
			a.sendText(chatID, loginFailureText(err))
			return
		}
		a.sendMainMenu(chatID, session.Role)
	}
}

func (a *App) continueSignup(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	switch state.Step {
	case 0:
		if text == "" {
			a.sendText(chatID, "Pick a username.")
			return
		}
		state.Username = text
		state.Step = 1
		a.setForm(chatID, state)
		a.sendText(chatID, "Enter your email.")
	case 1:
		if text == "" || !strings.Contains(text, "@") {
			a.sendText(chatID, "That does not look like an email. Try again.")
			return
		}
		state.Email = text
		state.Step = 2
		a.setForm(chatID, state)
		a.sendText(chatID, "Choose a password.")
	case 2:
		a.clearForm(chatID)
		session, err := a.sessionService.Signup(ctx, chatID, civichttp.SignupInput{
			Username: state.Username,
			Email:    state.Email,
			Password: message.Text,
		})
		if err != nil {
			a.logger.Warn("signup", zap.Error(err), zap.Int64("chat_id", chatID))
			a.sendText(chatID, failureText(err))
			return
		}
		a.sendMainMenu(chatID, session.Role)
	}
}

func (a *App) continueResetEmail(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	if text == "" {
		a.sendText(chatID, "Enter the email or username of the account.")
		return
	}
	a.clearForm(chatID)

	// The outcome is deliberately not revealed.
	a.sessionService.RequestPasswordReset(ctx, text)
	a.sendText(chatID, ui.MsgPasswordReset)
}

func (a *App) continueSearch(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	if text == "" {
		a.sendText(chatID, "Enter a name, place or category to search for.")
		return
	}
	a.clearForm(chatID)

	listed, err := a.entitiesService.ListPublic(a.sessionCtx(ctx, chatID))
	if err != nil {
		a.logger.Warn("list entities for search", zap.Error(err), zap.Int64("chat_id", chatID))
		a.sendText(chatID, failureText(err))
		return
	}

	matches := entities.Search(listed, text)
	if len(matches) == 0 {
		a.sendText(chatID, "Nothing matched \""+text+"\".")
		return
	}
	a.sendEntityList(chatID, matches)
}

func (a *App) continuePolicySearch(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	if text == "" {
		a.sendText(chatID, "Enter part of a policy title or summary to search for.")
		return
	}
	a.clearForm(chatID)

	listed, err := a.policiesService.List(a.sessionCtx(ctx, chatID))
	if err != nil {
		a.logger.Warn("list policies for search", zap.Error(err), zap.Int64("chat_id", chatID))
		a.sendText(chatID, failureText(err))
		return
	}

	matches := policies.Filter(listed, "", text)
	if len(matches) == 0 {
		a.sendText(chatID, "Nothing matched \""+text+"\".")
		return
	}
	if len(matches) > listPageSize {
		matches = matches[:listPageSize]
	}
	for _, policy := range matches {
		rows := [][]telegram.InlineButton{{
			{Text: "Request status change", Data: fmt.Sprintf("%s:req:%d", callbackPrefixPolicy, policy.ID)},
		}}
		a.sendInline(chatID, ui.PolicyCard(policy), rows)
	}
}

func (a *App) continueEntityDraft(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	switch state.Step {
	case 0:
		if text == "" {
			a.sendText(chatID, "Enter the official's or agency's name.")
			return
		}
		state.EntityDraft.Name = text
		state.Step = 1
		a.setForm(chatID, state)
		a.sendText(chatID, "Type: individual, agency or institution?")
	case 1:
		entityType, ok := enums.ParseEntityType(text)
		if !ok {
			a.sendText(chatID, "Please answer individual, agency or institution.")
			return
		}
		state.EntityDraft.Type = entityType
		state.Step = 2
		a.setForm(chatID, state)
		a.sendText(chatID, "Category (e.g. police, courts, schools)?")
	case 2:
		state.EntityDraft.Category = text
		state.Step = 3
		a.setForm(chatID, state)
		a.sendText(chatID, "Which state?")
	case 3:
		state.EntityDraft.State = text
		state.Step = 4
		a.setForm(chatID, state)
		a.sendText(chatID, "Which county? (or '-' to skip)")
	case 4:
		state.EntityDraft.County = dashToEmpty(text)
		state.Step = 5
		a.setForm(chatID, state)
		a.sendText(chatID, "Jurisdiction? (or '-' to skip)")
	case 5:
		state.EntityDraft.Jurisdiction = dashToEmpty(text)
		a.clearForm(chatID)

		ctx, _, err := a.sessionService.WithSession(ctx, chatID)
		if err != nil {
			a.sendSessionExpired(chatID)
			return
		}

		result, err := a.entitiesService.Create(ctx, state.EntityDraft)
		if errors.Is(err, entities.ErrValidation) {
			a.sendText(chatID, failureText(err))
			return
		}
		if err != nil {
			a.logger.Warn("create entity", zap.Error(err), zap.Int64("chat_id", chatID))
			a.sendText(chatID, failureText(err))
			return
		}

		if result.UnderReview {
			a.sendText(chatID, ui.SubmittedForReview("report"))
		} else {
			a.sendText(chatID, ui.Created("report"))
		}
		a.sendEntityDetail(ctx, chatID, result.Entity.ID)
	}
}

func (a *App) continueRatingDraft(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	switch state.Step {
	case 0:
		scores, err := parseScores(text)
		if err != nil {
			a.sendText(chatID, "Send five numbers 1-10 separated by spaces: integrity, transparency, fairness, respectfulness, accountability.")
			return
		}
		state.RatingDraft.Scores = scores
		state.Step = 1
		a.setForm(chatID, state)
		a.sendText(chatID, "Add a comment, or '-' to skip.")
	case 1:
		state.RatingDraft.Comment = dashToEmpty(message.Text)
		state.Step = 2
		a.setForm(chatID, state)
		a.sendText(chatID, "Violated rights, comma separated ("+rightCodesHint()+"), or '-' for none.")
	case 2:
		rights, unknown := parseRights(text)
		if len(unknown) > 0 {
			a.sendText(chatID, "Unknown right code: "+strings.Join(unknown, ", ")+". Use "+rightCodesHint()+" or '-'.")
			return
		}
		state.RatingDraft.ViolatedRights = rights
		a.clearForm(chatID)

		ctx, _, err := a.sessionService.WithSession(ctx, chatID)
		if err != nil {
			a.sendSessionExpired(chatID)
			return
		}

		if _, err := a.ratingsService.Submit(ctx, state.RatingDraft); err != nil {
			if errors.Is(err, ratings.ErrValidation) {
				a.sendText(chatID, failureText(err))
				return
			}
			a.logger.Warn("submit rating", zap.Error(err), zap.Int64("chat_id", chatID))
			a.sendText(chatID, failureText(err))
			return
		}
		a.sendText(chatID, ui.Created("rating"))
	}
}

func (a *App) continueFlagReason(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	if state.RatingID == 0 {
		ratingID, err := strconv.ParseInt(text, 10, 64)
		if err != nil || ratingID <= 0 {
			a.sendText(chatID, "Enter the number of the rating you want to flag.")
			return
		}
		state.RatingID = ratingID
		a.setForm(chatID, state)
		a.sendText(chatID, "Why should this rating be reviewed?")
		return
	}

	ctx, _, err := a.sessionService.WithSession(ctx, chatID)
	if err != nil {
		a.clearForm(chatID)
		a.sendSessionExpired(chatID)
		return
	}

	err = a.ratingsService.Flag(ctx, state.RatingID, text)
	if errors.Is(err, ratings.ErrReasonTooShort) {
		// Keep the state so a longer reason can follow.
		a.sendText(chatID, "The reason is too short. Please explain in a few more words.")
		return
	}
	a.clearForm(chatID)
	if err != nil {
		a.logger.Warn("flag rating", zap.Error(err), zap.Int64("rating_id", state.RatingID))
		a.sendText(chatID, failureText(err))
		return
	}
	a.sendText(chatID, "The rating was flagged for review. Thank you.")
}

func (a *App) continuePolicyDraft(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	switch state.Step {
	case 0:
		statusID, err := strconv.ParseInt(text, 10, 64)
		if err != nil || statusID <= 0 {
			a.sendText(chatID, "Enter the number of the requested status.")
			return
		}
		state.PolicyDraft.RequestedStatusID = statusID
		state.Step = 1
		a.setForm(chatID, state)
		a.sendText(chatID, "Link to a source that documents the change.")
	case 1:
		state.PolicyDraft.SourceLink = text
		state.Step = 2
		a.setForm(chatID, state)
		a.sendText(chatID, "Add a note for the reviewers, or '-' to skip.")
	case 2:
		state.PolicyDraft.Note = dashToEmpty(message.Text)
		a.clearForm(chatID)

		ctx, _, err := a.sessionService.WithSession(ctx, chatID)
		if err != nil {
			a.sendSessionExpired(chatID)
			return
		}

		result, err := a.policiesService.SubmitStatusRequest(ctx, state.PolicyDraft)
		if errors.Is(err, policies.ErrValidation) {
			a.sendText(chatID, failureText(err))
			return
		}
		if err != nil {
			a.logger.Warn("submit status request", zap.Error(err), zap.Int64("policy_id", state.PolicyDraft.PolicyID))
			a.sendText(chatID, failureText(err))
			return
		}

		if result.UnderReview {
			a.sendText(chatID, ui.SubmittedForReview("status request"))
		} else {
			a.sendText(chatID, ui.Created("status request"))
		}
	}
}

func (a *App) continueVaultDraft(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	switch state.Step {
	case 0:
		entityID, err := strconv.ParseInt(text, 10, 64)
		if err != nil || entityID <= 0 {
			a.sendText(chatID, "Enter the id of the official or agency the testimony is about.")
			return
		}
		state.VaultDraft.EntityID = entityID
		state.Step = 1
		a.setForm(chatID, state)
		a.sendText(chatID, "Write your testimony. It stays private until you publish it.")
	case 1:
		if text == "" {
			a.sendText(chatID, "The testimony cannot be empty.")
			return
		}
		state.VaultDraft.Testimony = message.Text
		a.clearForm(chatID)

		ctx, _, err := a.sessionService.WithSession(ctx, chatID)
		if err != nil {
			a.sendSessionExpired(chatID)
			return
		}

		var entry model.VaultEntry
		if state.EntryID > 0 {
			entry, err = a.vaultService.UpdateEntry(ctx, state.EntryID, state.VaultDraft)
		} else {
			entry, err = a.vaultService.CreateEntry(ctx, state.VaultDraft)
		}
		if err != nil {
			a.logger.Warn("save vault entry", zap.Error(err), zap.Int64("chat_id", chatID))
			a.sendText(chatID, failureText(err))
			return
		}
		a.sendVaultEntryCard(chatID, entry)
	}
}

func (a *App) continueUpload(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	switch state.Step {
	case 0:
		state.UploadNote = dashToEmpty(text)
		state.Step = 1
		a.setForm(chatID, state)
		a.sendText(chatID, "Where was this recorded? (or '-' to skip)")
	case 1:
		state.UploadLoc = dashToEmpty(text)
		state.Step = 2
		a.setForm(chatID, state)
		a.sendText(chatID, "Send photos, videos or documents one by one. Send 'done' when finished.")
	case 2:
		if strings.EqualFold(text, "done") {
			a.clearForm(chatID)
			a.finishUploadBatch(ctx, chatID, state)
			return
		}

		name, fileID, ok := attachedFile(message)
		if !ok {
			a.sendText(chatID, "Attach a file, or send 'done' to finish.")
			return
		}
		if len(state.Files) >= maxUploadFiles {
			a.sendText(chatID, fmt.Sprintf("At most %d files per batch. Send 'done' to upload.", maxUploadFiles))
			return
		}

		body, err := a.downloadTelegramFile(ctx, fileID)
		if err != nil {
			a.logger.Warn("download telegram file", zap.Error(err), zap.String("file_id", fileID))
			a.sendText(chatID, "Could not read that file. Try again or send 'done'.")
			return
		}

		state.Files = append(state.Files, vault.BatchFile{Name: name, Body: bytes.NewReader(body)})
		a.setForm(chatID, state)
		a.sendText(chatID, fmt.Sprintf("Got %s (%d so far). Send more or 'done'.", name, len(state.Files)))
	}
}

func (a *App) finishUploadBatch(ctx context.Context, chatID int64, state formState) {
	if len(state.Files) == 0 {
		a.sendText(chatID, "No files were attached.")
		return
	}

	ctx, _, err := a.sessionService.WithSession(ctx, chatID)
	if err != nil {
		a.sendSessionExpired(chatID)
		return
	}

	result, err := a.vaultService.UploadBatch(ctx, state.EntryID, state.Files, state.UploadNote, state.UploadLoc)
	if err != nil {
		a.logger.Warn("upload batch", zap.Error(err), zap.Int64("entry_id", state.EntryID))
		a.sendText(chatID, failureText(err))
		return
	}

	lines := []string{fmt.Sprintf("Uploaded %d file(s).", len(result.Uploaded))}
	for _, failure := range result.Failed {
		lines = append(lines, fmt.Sprintf("Failed: %s (%s)", failure.Name, failureText(failure.Err)))
	}
	a.sendText(chatID, strings.Join(lines, "\n"))
}

func (a *App) continueForumPost(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	switch state.Step {
	case 0:
		if text == "" {
			a.sendText(chatID, "Enter a title for the post.")
			return
		}
		state.PostTitle = text
		state.Step = 1
		a.setForm(chatID, state)
		a.sendText(chatID, "Write the post body.")
	case 1:
		if text == "" {
			a.sendText(chatID, "The post body cannot be empty.")
			return
		}
		a.clearForm(chatID)

		ctx, _, err := a.sessionService.WithSession(ctx, chatID)
		if err != nil {
			a.sendSessionExpired(chatID)
			return
		}

		if _, err := a.forumService.CreatePost(ctx, state.PostTitle, message.Text); err != nil {
			a.logger.Warn("create forum post", zap.Error(err), zap.Int64("chat_id", chatID))
			a.sendText(chatID, failureText(err))
			return
		}
		a.sendText(chatID, ui.Created("post"))
	}
}

func (a *App) continueComment(ctx context.Context, message *tgbotapi.Message, state formState, text string) {
	chatID := message.Chat.ID

	if text == "" {
		a.sendText(chatID, "The comment cannot be empty.")
		return
	}
	a.clearForm(chatID)

	ctx, _, err := a.sessionService.WithSession(ctx, chatID)
	if err != nil {
		a.sendSessionExpired(chatID)
		return
	}

	if _, err := a.forumService.AddComment(ctx, state.PostID, message.Text); err != nil {
		a.logger.Warn("add comment", zap.Error(err), zap.Int64("post_id", state.PostID))
		a.sendText(chatID, failureText(err))
		return
	}
	a.sendText(chatID, ui.Created("comment"))
}

// telegramFileClient bounds evidence downloads; updates run on a single
// goroutine and must not hang on a stalled transfer.
var telegramFileClient = &http.Client{Timeout: 60 * time.Second}

func (a *App) downloadTelegramFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := a.tg.FileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := telegramFileClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 50<<20))
}

func attachedFile(message *tgbotapi.Message) (name string, fileID string, ok bool) {
	switch {
	case message.Document != nil:
		name = message.Document.FileName
		if strings.TrimSpace(name) == "" {
			name = message.Document.FileID
		}
		return name, message.Document.FileID, true
	case len(message.Photo) > 0:
		// Telegram sends several sizes; the last one is the largest.
		photo := message.Photo[len(message.Photo)-1]
		return photo.FileUniqueID + ".jpg", photo.FileID, true
	case message.Video != nil:
		name = message.Video.FileName
		if strings.TrimSpace(name) == "" {
			name = message.Video.FileUniqueID + ".mp4"
		}
		return name, message.Video.FileID, true
	default:
		return "", "", false
	}
}

func parseScores(text string) (model.RatingScores, error) {
	fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
	if len(fields) != 5 {
		return model.RatingScores{}, fmt.Errorf("expected 5 scores, got %d", len(fields))
	}

	values := make([]int, 5)
	for i, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return model.RatingScores{}, fmt.Errorf("score %q is not a number", field)
		}
		values[i] = value
	}

	return model.RatingScores{
		Integrity:      values[0],
		Transparency:   values[1],
		Fairness:       values[2],
		Respectfulness: values[3],
		Accountability: values[4],
	}, nil
}

func parseRights(text string) ([]enums.RightCode, []string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "-" {
		return nil, nil
	}

	var rights []enums.RightCode
	var unknown []string
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, ok := enums.ParseRightCode(part)
		if !ok {
			unknown = append(unknown, part)
			continue
		}
		rights = append(rights, code)
	}
	return rights, unknown
}

func rightCodesHint() string {
	codes := make([]string, 0, len(enums.RightCodes))
	for _, code := range enums.RightCodes {
		codes = append(codes, string(code))
	}
	return strings.Join(codes, ", ")
}

func dashToEmpty(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "-" {
		return ""
	}
	return trimmed
}

func loginFailureText(err error) string {
	if errors.Is(err, civichttp.ErrUnauthorized) || errors.Is(err, sessionsvc.ErrLoginFailed) {
		return "Wrong username or password."
	}
	return failureText(err)
}
