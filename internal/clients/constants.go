package clients

import "time"

const (
	USER_AGENT = "ytsentiment-client/1.0 (+https://github.com/spacesedan/ytsentiment)"

	YOUTUBE_DEFAULT_LIMIT   = 50
	YOUTUBE_MAX_PAGE_SIZE   = 100
	YOUTUBE_DEFAULT_TIMEOUT = 30 * time.Second
	YOUTUBE_TEXT_FORMAT     = "plainText"
)
