package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/hhhapz/uksidoc/legislation"
	"github.com/hhhapz/uksidoc/render"
)

// Discord embed limits.
const (
	titleLimit       = 256
	descriptionLimit = 4096
	fieldLimit       = 25
	fieldNameLimit   = 256
	fieldValueLimit  = 1024
	footerLimit      = 2048
	embedLimit       = 6000

	accentColor = 0x1D70B8
)

func contentsEmbed(url string, doc legislation.Document) discord.Embed {
	dates := fmt.Sprintf("Made %s\nComing into force %s",
		render.LongDate(doc.MadeDate), render.LongDate(doc.ComingIntoForce))

	embed := discord.Embed{
		Title: truncate(doc.Title, titleLimit),
		URL:   strings.TrimSuffix(url, "/data.xml"),
		Color: accentColor,
	}
	size := runes(embed.Title) + runes(contentsFooter(dates, len(doc.Items)))
	embed.Description = truncate(doc.Description, min(descriptionLimit, embedLimit-size))
	size += runes(embed.Description)

	items := doc.Items
	if len(items) > fieldLimit {
		items = items[:fieldLimit]
	}
	fields := lo.Map(items, func(item legislation.Item, _ int) discord.EmbedField {
		name := strings.TrimSpace(item.Number + " " + item.Title)
		if name == "" {
			name = "-"
		}
		value := "-"
		if item.Link != nil {
			value = *item.Link
		}
		return discord.EmbedField{
			Name:  truncate(name, fieldNameLimit),
			Value: truncate(value, fieldValueLimit),
		}
	})

	// The footer shrinks as fields are added, so it is measured for the
	// count that would remain after each one.
	for i, f := range fields {
		footer := runes(contentsFooter(dates, len(doc.Items)-i-1))
		if size+runes(f.Name)+runes(f.Value)+footer > embedLimit {
			break
		}
		embed.Fields = append(embed.Fields, f)
		size += runes(f.Name) + runes(f.Value)
	}

	embed.Footer = &discord.EmbedFooter{
		Text: contentsFooter(dates, len(doc.Items)-len(embed.Fields)),
	}
	return embed
}

func contentsFooter(dates string, more int) string {
	footer := dates
	if more > 0 {
		footer += fmt.Sprintf("\n... and %s more items", humanize.Comma(int64(more)))
	}
	return truncate(footer, footerLimit)
}

func runes(s string) int {
	return utf8.RuneCountInString(s)
}

func failEmbed(title, description string) discord.Embed {
	return discord.Embed{
		Title:       title,
		Description: description,
		Color:       0xEE0000,
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
