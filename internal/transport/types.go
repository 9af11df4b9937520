package transport

import "context"

type ChatTarget struct {
	ChatID int64
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender is the outbound delivery surface the notifier fans out over.
//
// Errors surface as plain error values whose message text the notifier
// pattern-matches to classify the failure (permanent, attachment-specific,
// or transient). A low-ceremony contract, but it keeps the notifier
// portable across transports.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) error
	SendPhoto(ctx context.Context, to ChatTarget, photoURL, caption string, opt *SendOptions) error
}

// Adapter is a full chat transport: the Sender surface plus the inbound
// command loop lifecycle.
type Adapter interface {
	Sender

	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
