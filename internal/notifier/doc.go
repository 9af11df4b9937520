// Package notifier fans out per-show announcement messages to every
// registered subscriber.
//
// Delivery is sequential and paced: one show at a time, one subscriber at a
// time, with fixed-interval delays to stay under Telegram rate limits.
// Failures are classified from the transport error text: attachment errors
// get one text-only fallback, permanent errors (blocked / chat gone) remove
// the subscriber from the registry, everything else is logged and skipped.
package notifier
