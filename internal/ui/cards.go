package ui

import (
	"fmt"
	"strings"

	"civiclens_bot/internal/domain/model"
)

func EntityCard(entity model.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", entity.Name, entity.Type)
	if entity.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", entity.Category)
	}
	location := joinNonEmpty(", ", entity.County, entity.State)
	if location != "" {
		fmt.Fprintf(&b, "Location: %s\n", location)
	}
	if entity.Jurisdiction != "" {
		fmt.Fprintf(&b, "Jurisdiction: %s\n", entity.Jurisdiction)
	}
	if entity.ReputationScore != nil {
		fmt.Fprintf(&b, "Reputation: %.1f\n", *entity.ReputationScore)
	} else {
		b.WriteString("Reputation: not yet rated\n")
	}
	if entity.ApprovalStatus.NeedsReview() {
		b.WriteString("Status: under review\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func RatingCard(rating model.Rating) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rating #%d for entity #%d\n", rating.ID, rating.EntityID)
	fmt.Fprintf(&b, "Integrity %d | Transparency %d | Fairness %d | Respect %d | Accountability %d\n",
		rating.Scores.Integrity,
		rating.Scores.Transparency,
		rating.Scores.Fairness,
		rating.Scores.Respectfulness,
		rating.Scores.Accountability,
	)
	if rating.Comment != "" {
		fmt.Fprintf(&b, "Comment: %s\n", rating.Comment)
	}
	if len(rating.ViolatedRights) > 0 {
		codes := make([]string, 0, len(rating.ViolatedRights))
		for _, right := range rating.ViolatedRights {
			codes = append(codes, string(right))
		}
		fmt.Fprintf(&b, "Violated rights: %s\n", strings.Join(codes, ", "))
	}
	if rating.Flagged {
		fmt.Fprintf(&b, "Flagged: %s\n", rating.FlagReason)
	}
	if rating.Verified {
		b.WriteString("Verified\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func PolicyCard(policy model.Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", policy.Title)
	fmt.Fprintf(&b, "Level: %s", policy.JurisdictionLevel)
	if policy.StateCode != "" {
		fmt.Fprintf(&b, " (%s)", policy.StateCode)
	}
	b.WriteString("\n")
	if policy.GoverningBody != "" {
		fmt.Fprintf(&b, "Governing body: %s\n", policy.GoverningBody)
	}
	if policy.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", policy.Status)
	}
	if policy.Summary != "" {
		fmt.Fprintf(&b, "%s\n", policy.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

func PolicyRequestCard(request model.PolicyStatusRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status request #%d\n", request.ID)
	title := request.PolicyTitle
	if title == "" {
		title = fmt.Sprintf("policy #%d", request.PolicyID)
	}
	fmt.Fprintf(&b, "Policy: %s\n", title)
	if request.RequestedStatus != "" {
		fmt.Fprintf(&b, "Requested status: %s\n", request.RequestedStatus)
	}
	if request.SourceLink != "" {
		fmt.Fprintf(&b, "Source: %s\n", request.SourceLink)
	}
	if request.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", request.Note)
	}
	return strings.TrimRight(b.String(), "\n")
}

func VaultEntryCard(entry model.VaultEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vault entry #%d\n", entry.ID)
	visibility := "private"
	if entry.IsPublic {
		visibility = "public"
		if entry.PublishedAt != nil {
			visibility = fmt.Sprintf("public since %s", entry.PublishedAt.Format("2006-01-02"))
		}
	}
	fmt.Fprintf(&b, "Visibility: %s\n", visibility)
	fmt.Fprintf(&b, "%s\n", truncate(entry.Testimony, 400))
	return strings.TrimRight(b.String(), "\n")
}

func FeedItemCard(item model.FeedItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Testimony about %s\n", item.EntityName)
	location := joinNonEmpty(", ", item.County, item.State)
	if location != "" {
		fmt.Fprintf(&b, "Location: %s\n", location)
	}
	fmt.Fprintf(&b, "%s\n", truncate(item.Entry.Testimony, 400))
	if len(item.Evidence) > 0 {
		fmt.Fprintf(&b, "Evidence: %d file(s)\n", len(item.Evidence))
	}
	return strings.TrimRight(b.String(), "\n")
}

func UserCard(user model.User) string {
	var b strings.Builder
	name := user.Username
	if user.IsAnonymous {
		name = fmt.Sprintf("anonymous #%d", user.ID)
	}
	fmt.Fprintf(&b, "%s (%s)\n", name, user.Role)
	if user.Email != "" && !user.IsAnonymous {
		fmt.Fprintf(&b, "Email: %s", user.Email)
		if user.IsEmailVerified {
			b.WriteString(" (verified)")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Joined: %s\n", user.CreatedAt.Format("2006-01-02"))
	return strings.TrimRight(b.String(), "\n")
}

func ForumPostCard(post model.ForumPost) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", post.Title)
	if post.AuthorName != "" {
		fmt.Fprintf(&b, "By %s\n", post.AuthorName)
	}
	fmt.Fprintf(&b, "%s\n", truncate(post.Body, 400))
	if len(post.Comments) > 0 {
		fmt.Fprintf(&b, "%d comment(s)\n", len(post.Comments))
	}
	return strings.TrimRight(b.String(), "\n")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, strings.TrimSpace(part))
		}
	}
	return strings.Join(kept, sep)
}

func truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
