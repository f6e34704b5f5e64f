package ledger

import (
	"fmt"
	"time"
)

// Kind distinguishes plain text from file attachment messages.
type Kind string

const (
	KindText Kind = "text"
	KindFile Kind = "file"
)

// TargetType tags a conversation target.
type TargetType string

const (
	TargetUser  TargetType = "user"
	TargetGroup TargetType = "group"
)

// Target identifies the single conversation a message belongs to:
// either a direct peer or a group, never both. Targets are immutable
// after creation.
type Target struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
}

// DirectTo builds a direct-message target.
func DirectTo(userID string) Target {
	return Target{Type: TargetUser, ID: userID}
}

// GroupTarget builds a group target.
func GroupTarget(groupID string) Target {
	return Target{Type: TargetGroup, ID: groupID}
}

// Valid reports whether the target names exactly one known case with a
// non-empty identifier.
func (t Target) Valid() bool {
	return (t.Type == TargetUser || t.Type == TargetGroup) && t.ID != ""
}

// Message is one entry in the ledger. IDs increase in creation order,
// which is also display order.
type Message struct {
	ID       int64     `json:"id"`
	SenderID string    `json:"senderId"`
	Target   Target    `json:"target"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sentAt"`
	Kind     Kind      `json:"kind"`
	FileName string    `json:"fileName,omitempty"`
	FileSize int64     `json:"fileSize,omitempty"`
}

// FormatFileSize renders a byte count for display ("1.5 MB").
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", bytes, units[0])
	}
	return fmt.Sprintf("%s %s", trimZeros(fmt.Sprintf("%.2f", size)), units[i])
}

func trimZeros(s string) string {
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
