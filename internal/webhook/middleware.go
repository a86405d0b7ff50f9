package webhook

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"imob_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SecretHeader carries the plaintext webhook key.
	SecretHeader = "X-Webhook-Secret"

	contextAccountIDKey = "webhookAccountID"
	contextKeyIDKey     = "webhookKeyID"
)

// KeyLookup resolves webhook secrets.
type KeyLookup interface {
	GetByHash(ctx context.Context, keyHash string) (APIKey, error)
	TouchLastUsed(ctx context.Context, keyID uuid.UUID, at time.Time) error
}

// APIKeyAuthMiddleware validates the X-Webhook-Secret header
// and sets the owning account on the gin context.
func APIKeyAuthMiddleware(keys KeyLookup, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := strings.TrimSpace(c.GetHeader(SecretHeader))
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing webhook secret"})
			return
		}

		key, err := keys.GetByHash(c.Request.Context(), HashKey(secret))
		if err != nil {
			if !errors.Is(err, ErrAPIKeyNotFound) {
				log.DatabaseError("webhook key lookup", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}

		if err := keys.TouchLastUsed(c.Request.Context(), key.ID, time.Now()); err != nil {
			log.Warn("failed to record webhook key use", "keyId", key.ID, "error", err)
		}

		c.Set(contextAccountIDKey, key.AccountID)
		c.Set(contextKeyIDKey, key.ID)
		c.Next()
	}
}

func webhookAccountID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(contextAccountIDKey)
	if !ok {
		return uuid.UUID{}, false
	}
	accountID, ok := value.(uuid.UUID)
	return accountID, ok
}
