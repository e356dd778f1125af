package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Human-readable document numbers carry the date for the paper trail and a
// random suffix so concurrent terminals cannot collide.
func newDocumentNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}

func newOrderNumber(now time.Time) string {
	return newDocumentNumber("ORD", now)
}

func newReceiptNumber(now time.Time) string {
	return newDocumentNumber("PAY", now)
}
