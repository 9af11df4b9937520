package notifier

import (
	"strings"

	"barbybot/internal/shows"
)

// renderMessage formats the announcement for one show (Telegram HTML).
//
// The layout matches what subscribers have always received: header, artist,
// optional title line, date, price with optional seat type and sold-out
// marker, ticket link, footer.
func renderMessage(sh shows.Show, baseURL string) string {
	artist := strings.TrimSpace(sh.Artist)

	priceText := "TBA"
	if strings.TrimSpace(sh.Price) != "" {
		priceText = "₪" + strings.TrimSpace(sh.Price)
	}

	date := strings.TrimSpace(sh.Date)
	clock := strings.TrimSpace(sh.Time)
	datetime := "TBA"
	switch {
	case date != "" && clock != "":
		datetime = date + " " + clock
	case date != "":
		datetime = date
	}

	url := strings.TrimRight(baseURL, "/")
	if sh.ID != "" {
		url += "/show/" + sh.ID
	}

	var b strings.Builder
	b.WriteString("🆕 <b>הופעה חדשה בבארבי!</b>\n\n")
	b.WriteString("🎵 <b>" + artist + "</b>\n")

	if title := displayTitle(sh); title != "" {
		b.WriteString("📝 <i>" + title + "</i>\n")
	}

	b.WriteString("📅 " + datetime + "\n")
	b.WriteString("💰 " + priceText)
	if seat := strings.TrimSpace(sh.SeatType); seat != "" {
		b.WriteString(" • " + seat)
	}
	if sh.SoldOut {
		b.WriteString(" 🔴 <b>אזל כרטיסים</b>")
	}
	b.WriteString("\n")
	b.WriteString("🎫 <a href=\"" + url + "\">קניית כרטיסים</a>\n\n")
	b.WriteString("🔔 הודעה מבוט התראות בארבי")

	return b.String()
}

// displayTitle picks the title line, if one is worth showing: it must differ
// from the artist and carry more than 3 meaningful characters once
// whitespace is normalized. Avoids a near-duplicate line under the artist.
func displayTitle(sh shows.Show) string {
	title := strings.TrimSpace(sh.Title)
	if title == "" {
		title = strings.TrimSpace(sh.ShortTitle)
	}
	if title == "" || title == strings.TrimSpace(sh.Artist) {
		return ""
	}
	clean := strings.Join(strings.Fields(title), " ")
	if len([]rune(clean)) <= 3 {
		return ""
	}
	return clean
}

// resolveImageURL composes the upstream image reference with the venue's
// asset base. Empty reference means no image is attached.
func resolveImageURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
