package normalize

// Author is the profile attached to a harvested comment.
type Author struct {
	Username      string
	DisplayName   string
	Bio           string
	AvatarLocator string
}

// Record is a harvested comment reduced to the fixed schema.
//
// Author is nil when the source carried no author object at all, which is
// distinct from an author whose fields are empty. AvatarPath and
// EngagementScore are filled later in the pipeline.
type Record struct {
	Text            string
	CreatedAt       string
	LikeCount       int64
	ReplyCount      int64
	AuthorLiked     bool
	Author          *Author
	AvatarPath      string
	EngagementScore float64
}

// Username returns the author's username or "" when there is no author.
func (r Record) Username() string {
	if r.Author == nil {
		return ""
	}
	return r.Author.Username
}

// AvatarLocator returns the author's avatar URL or "" when there is no author.
func (r Record) AvatarLocator() string {
	if r.Author == nil {
		return ""
	}
	return r.Author.AvatarLocator
}
