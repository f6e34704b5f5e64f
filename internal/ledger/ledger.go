// Package ledger holds the append-mostly log of all messages and
// answers conversation-scoped queries over it.
package ledger

import (
	"fmt"
	"time"

	"teamchat/internal/apperr"
)

// previewLimit is the maximum contact-list preview length in runes.
const previewLimit = 30

// PreviewUnavailable is returned for conversations with no messages.
const PreviewUnavailable = "not available"

// Ledger owns the ordered message log.
type Ledger struct {
	msgs   []*Message
	nextID int64

	now func() time.Time
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{nextID: 1, now: time.Now}
}

// Load replaces the log with a restored snapshot. The ID sequence
// resumes after the highest restored ID.
func (l *Ledger) Load(msgs []*Message) {
	l.msgs = msgs
	l.nextID = 1
	for _, m := range msgs {
		if m.ID >= l.nextID {
			l.nextID = m.ID + 1
		}
	}
}

// Messages returns the full log in insertion order.
func (l *Ledger) Messages() []*Message {
	return l.msgs
}

// AppendText appends a text message and assigns the next creation-ordered ID.
func (l *Ledger) AppendText(senderID string, target Target, content string) (*Message, error) {
	return l.append(senderID, target, content, KindText, "", 0)
}

// AppendFile appends a file attachment message. The content is the
// display line for the attachment.
func (l *Ledger) AppendFile(senderID string, target Target, fileName string, fileSize int64) (*Message, error) {
	content := fmt.Sprintf("📎 %s (%s)", fileName, FormatFileSize(fileSize))
	return l.append(senderID, target, content, KindFile, fileName, fileSize)
}

func (l *Ledger) append(senderID string, target Target, content string, kind Kind, fileName string, fileSize int64) (*Message, error) {
	if senderID == "" {
		return nil, apperr.Validationf("message needs a sender")
	}
	if !target.Valid() {
		return nil, apperr.Validationf("message needs exactly one target")
	}

	m := &Message{
		ID:       l.nextID,
		SenderID: senderID,
		Target:   target,
		Content:  content,
		SentAt:   l.now(),
		Kind:     kind,
		FileName: fileName,
		FileSize: fileSize,
	}
	l.nextID++
	l.msgs = append(l.msgs, m)
	return m, nil
}

// ThreadWith returns the direct-message thread between two users in
// insertion order, regardless of direction.
func (l *Ledger) ThreadWith(selfID, otherID string) []*Message {
	var out []*Message
	for _, m := range l.msgs {
		if m.Target.Type != TargetUser {
			continue
		}
		if (m.SenderID == selfID && m.Target.ID == otherID) ||
			(m.SenderID == otherID && m.Target.ID == selfID) {
			out = append(out, m)
		}
	}
	return out
}

// ThreadOf returns all messages targeting a group in insertion order.
func (l *Ledger) ThreadOf(groupID string) []*Message {
	var out []*Message
	for _, m := range l.msgs {
		if m.Target.Type == TargetGroup && m.Target.ID == groupID {
			out = append(out, m)
		}
	}
	return out
}

// LastPreview returns the content of the most recent message in the
// conversation with contactID, truncated for the contact list.
func (l *Ledger) LastPreview(selfID, contactID string, isGroup bool) string {
	var thread []*Message
	if isGroup {
		thread = l.ThreadOf(contactID)
	} else {
		thread = l.ThreadWith(selfID, contactID)
	}
	if len(thread) == 0 {
		return PreviewUnavailable
	}

	content := thread[len(thread)-1].Content
	runes := []rune(content)
	if len(runes) > previewLimit {
		return string(runes[:previewLimit]) + "..."
	}
	return content
}

// UnreadCount always reports zero: read-state tracking is deliberately
// not implemented.
func (l *Ledger) UnreadCount(selfID, contactID string, isGroup bool) int {
	return 0
}

// Delete removes a single message. Only the sender or an admin may
// delete a message.
func (l *Ledger) Delete(messageID int64, requesterID string, isAdmin bool) error {
	for i, m := range l.msgs {
		if m.ID != messageID {
			continue
		}
		if m.SenderID != requesterID && !isAdmin {
			return apperr.ErrPermissionDenied
		}
		l.msgs = append(l.msgs[:i], l.msgs[i+1:]...)
		return nil
	}
	return apperr.ErrNotFound
}

// RemoveUser drops every direct message the user sent or received.
// Group messages survive; the group cascade triggers only on group
// deletion. The whole cascade completes in one call. Returns the
// number of messages removed.
func (l *Ledger) RemoveUser(userID string) int {
	kept := l.msgs[:0]
	removed := 0
	for _, m := range l.msgs {
		if m.Target.Type == TargetUser && (m.SenderID == userID || m.Target.ID == userID) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	l.msgs = kept
	return removed
}

// RemoveGroup drops every message targeting the group. Returns the
// number of messages removed.
func (l *Ledger) RemoveGroup(groupID string) int {
	kept := l.msgs[:0]
	removed := 0
	for _, m := range l.msgs {
		if m.Target.Type == TargetGroup && m.Target.ID == groupID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	l.msgs = kept
	return removed
}
