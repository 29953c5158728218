package normalize

import (
	"fmt"

	"reelharvest/internal/services"
)

// CreatedAtLayout is the calendar date format used in exported rows.
const CreatedAtLayout = "02-01-2006"

var (
	textKeys        = []string{"text", "comment", "content"}
	createdAtKeys   = []string{"createdAt", "createTimeISO", "created_at"}
	likeCountKeys   = []string{"likeCount", "diggCount", "likes"}
	replyCountKeys  = []string{"replyCount", "replyCommentTotal", "replies"}
	authorLikedKeys = []string{"isAuthorLiked", "likedByAuthor"}
	authorKeys      = []string{"user", "author"}

	usernameKeys    = []string{"username", "uniqueId"}
	displayNameKeys = []string{"displayName", "nickname"}
	bioKeys         = []string{"bio", "signature"}
	avatarKeys      = []string{"avatarUrl", "avatarThumbnail", "avatar"}
)

// Normalize maps one raw dataset item onto Record. The only failure is a raw
// value that is not a JSON object; every missing, null or mistyped field
// degrades to its zero value.
func Normalize(raw any) (Record, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("%w: expected object, got %s", services.ErrSchema, describe(raw))
	}

	record := Record{
		Text:       lookupString(fields, textKeys),
		CreatedAt:  formatDate(lookupString(fields, createdAtKeys)),
		LikeCount:  lookupCount(fields, likeCountKeys),
		ReplyCount: lookupCount(fields, replyCountKeys),
	}
	if liked, ok := lookupBool(fields, authorLikedKeys); ok {
		record.AuthorLiked = liked
	}
	if user, ok := lookupMap(fields, authorKeys); ok {
		record.Author = &Author{
			Username:      lookupString(user, usernameKeys),
			DisplayName:   lookupString(user, displayNameKeys),
			Bio:           lookupString(user, bioKeys),
			AvatarLocator: lookupString(user, avatarKeys),
		}
	}
	return record, nil
}

func describe(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
