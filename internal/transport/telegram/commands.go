package telegram

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	"barbybot/internal/store"
	"barbybot/pkg/logx"
)

const commandTimeout = 5 * time.Second

func (a *Adapter) registerHandlers() {
	a.bot.Handle("/start", a.handleStart)
	a.bot.Handle("/subscribe", a.handleSubscribe)
	a.bot.Handle("/unsubscribe", a.handleUnsubscribe)
	a.bot.Handle("/status", a.handleStatus)
}

func (a *Adapter) handleStart(c tele.Context) error {
	user := c.Sender()
	a.log.Info("start command", logx.Int64("user_id", user.ID), logx.String("username", user.Username))

	msg := fmt.Sprintf(`🎭 Welcome to Barby Concert Alerts, %s!

I help you stay updated with concerts at Barby Tel Aviv.

🎵 <b>Available commands:</b>
/start - This welcome message
/subscribe - Get notifications for new concerts
/unsubscribe - Stop notifications
/status - Subscription status

Ready to get started? 🎶`, user.FirstName)

	return c.Send(msg, tele.ModeHTML)
}

func (a *Adapter) handleSubscribe(c tele.Context) error {
	user := c.Sender()
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	exists, err := a.registry.SubscriberExists(ctx, user.ID)
	if err != nil {
		a.log.Error("subscribe check failed", logx.Int64("user_id", user.ID), logx.Err(err))
		return c.Send("Something went wrong, please try again later.")
	}
	if exists {
		return c.Send(fmt.Sprintf("🔔 %s, you're already subscribed to Barby concert alerts!", user.FirstName))
	}

	// Adding an existing user would also be fine; the registry upserts.
	if err := a.registry.AddSubscriber(ctx, store.Subscriber{
		UserID:    user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
	}); err != nil {
		a.log.Error("subscribe failed", logx.Int64("user_id", user.ID), logx.Err(err))
		return c.Send("Something went wrong, please try again later.")
	}

	if n, err := a.registry.SubscriberCount(ctx); err == nil {
		a.log.Info("subscriber added",
			logx.Int64("user_id", user.ID), logx.String("username", user.Username), logx.Int("total", n))
	}

	msg := fmt.Sprintf(`🔔 <b>Subscription Activated!</b>

Hi %s, you're now subscribed to Barby concert alerts!

<b>What happens next:</b>
• I'll notify you when new concerts are announced
• You'll get instant alerts for new shows
• Each notification includes artist, date, and ticket link

<b>Unsubscribe:</b> Use /unsubscribe anytime

Welcome aboard! 🎵`, user.FirstName)

	return c.Send(msg, tele.ModeHTML)
}

func (a *Adapter) handleUnsubscribe(c tele.Context) error {
	user := c.Sender()
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	removed, err := a.registry.RemoveSubscriber(ctx, user.ID)
	if err != nil {
		a.log.Error("unsubscribe failed", logx.Int64("user_id", user.ID), logx.Err(err))
		return c.Send("Something went wrong, please try again later.")
	}
	if !removed {
		return c.Send(fmt.Sprintf("🔕 %s, you weren't subscribed to notifications.", user.FirstName))
	}

	a.log.Info("subscriber removed", logx.Int64("user_id", user.ID), logx.String("reason", "unsubscribe command"))

	msg := fmt.Sprintf(`🔕 <b>Unsubscribed</b>

%s, you've been unsubscribed from Barby concert alerts.

You won't receive any more notifications.

Want to subscribe again? Just use /subscribe anytime! 👋`, user.FirstName)

	return c.Send(msg, tele.ModeHTML)
}

func (a *Adapter) handleStatus(c tele.Context) error {
	user := c.Sender()
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	subscribed, err := a.registry.SubscriberExists(ctx, user.ID)
	if err != nil {
		a.log.Error("status check failed", logx.Int64("user_id", user.ID), logx.Err(err))
		return c.Send("Something went wrong, please try again later.")
	}
	count, _ := a.registry.SubscriberCount(ctx)

	lastCheck := "never"
	if _, meta, err := a.snapshots.LoadSnapshot(ctx); err == nil && !meta.LastCheck.IsZero() {
		lastCheck = meta.LastCheck.Format("02/01/2006 15:04")
	}

	state := "not subscribed"
	if subscribed {
		state = "subscribed 🔔"
	}
	msg := fmt.Sprintf(`📊 <b>Status</b>

You are: <b>%s</b>
Subscribers: %d
Last concert check: %s`, state, count, lastCheck)

	return c.Send(msg, tele.ModeHTML)
}
