// Package requestid は1リクエストごとの相関IDを context と HTTP ヘッダで受け渡します。
package requestid

import (
	"context"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header is the response (and accepted request) header carrying the id.
const Header = "X-Request-ID"

// accepted caller supplied ids; anything else is replaced.
var validID = regexp.MustCompile(`^[A-Za-z0-9._\-]{1,128}$`)

type ctxKey struct{}

// New returns a fresh random id.
func New() string {
	return uuid.NewString()
}

// WithContext returns a copy of ctx carrying id.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the id carried by ctx or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Ensure returns ctx unchanged when it already carries an id, otherwise a copy with a new one.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := New()
	return WithContext(ctx, id), id
}

// Middleware は受信したIDを引き継ぐか新規に採番し、レスポンスヘッダと context に設定します。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !validID.MatchString(id) {
			id = New()
		}
		c.Header(Header, id)
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), id))
		c.Next()
	}
}
