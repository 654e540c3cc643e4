package cache

import (
	"fmt"
	"time"
)

const (
	postDetailKeyPrefix = "post:detail:%s"
	postGroupKeyPrefix  = "post:keys:%d"
	tagPostsKeyPrefix   = "tag:post-keys:%d"
	userPostsKeyPrefix  = "user:post-keys:%d"
	tokenKeyPrefix      = "token:%s"

	// TagListKey holds the admin tag list.
	TagListKey = "tags:all"
)

// TTLs of cached values.
const (
	PostDetailTTL = 5 * time.Minute
	TagListTTL    = 10 * time.Minute
	TokenTTL      = 10 * time.Minute
)

// PostDetailKey is the cache key of a post fetched by id or slug.
func PostDetailKey(lookup string) string {
	return fmt.Sprintf(postDetailKeyPrefix, lookup)
}

// PostGroupKey lists every detail key cached for a post.
func PostGroupKey(postID uint) string {
	return fmt.Sprintf(postGroupKeyPrefix, postID)
}

// TagPostsGroupKey lists the detail keys of posts carrying the tag.
func TagPostsGroupKey(tagID uint) string {
	return fmt.Sprintf(tagPostsKeyPrefix, tagID)
}

// UserPostsGroupKey lists the detail keys of posts written by the user.
func UserPostsGroupKey(userID uint) string {
	return fmt.Sprintf(userPostsKeyPrefix, userID)
}

// TokenKey caches the owner of a live access token.
func TokenKey(jti string) string {
	return fmt.Sprintf(tokenKeyPrefix, jti)
}
