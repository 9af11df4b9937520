package notifier

import "strings"

// FailureKind buckets a delivery error by how the dispatcher should react.
type FailureKind int

const (
	// FailureTransient: log and skip, no retry, no state change.
	FailureTransient FailureKind = iota
	// FailureAttachment: the image part of the message was rejected; worth
	// one text-only retry for the same subscriber.
	FailureAttachment
	// FailurePermanent: the recipient will never get future messages;
	// remove them from the registry.
	FailurePermanent
)

func (k FailureKind) String() string {
	switch k {
	case FailureAttachment:
		return "attachment"
	case FailurePermanent:
		return "permanent"
	default:
		return "transient"
	}
}

// Telegram reports these conditions only through human-readable error text,
// so classification is substring matching. Heuristic by contract.
var permanentPhrases = []string{
	"chat not found",
	"bot was blocked",
	"user is deactivated",
}

var attachmentPhrases = []string{
	"photo",
	"wrong file identifier",
}

// Classify buckets a delivery error. Permanent wins over attachment: a
// blocked recipient should be removed, not retried with text.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureTransient
	}
	msg := strings.ToLower(err.Error())
	for _, p := range permanentPhrases {
		if strings.Contains(msg, p) {
			return FailurePermanent
		}
	}
	for _, p := range attachmentPhrases {
		if strings.Contains(msg, p) {
			return FailureAttachment
		}
	}
	return FailureTransient
}
