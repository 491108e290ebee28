package main

import (
	"bytes"
	"fmt"
	"runtime"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

var started = time.Now().Unix()

func infoEmbed(url string) discord.Embed {
	stats := runtime.MemStats{}
	runtime.ReadMemStats(&stats)

	buf := &bytes.Buffer{}

	fmt.Fprintf(buf, "Go: %s\n", runtime.Version())
	fmt.Fprintf(buf, "Uptime: <t:%d:R>\n", started)
	fmt.Fprintf(buf, "Memory: %s / %s (alloc / sys)\n", humanize.Bytes(stats.Alloc), humanize.Bytes(stats.Sys))
	fmt.Fprintf(buf, "Document: %s\n", url)
	fmt.Fprintf(buf, "Concurrent Tasks: %s\n", humanize.Comma(int64(runtime.NumGoroutine())))

	return discord.Embed{
		Title:       "uksidoc",
		Description: buf.String(),
		Color:       accentColor,
	}
}

func (b *botState) handleInfo(e *gateway.InteractionCreateEvent) {
	b.log.Info("used info", zap.String("user", e.Sender().Tag()))

	err := b.state.RespondInteraction(e.ID, e.Token, api.InteractionResponse{
		Type: api.MessageInteractionWithSource,
		Data: &api.InteractionResponseData{
			Flags:  discord.EphemeralMessage,
			Embeds: &[]discord.Embed{infoEmbed(b.url)},
		},
	})
	if err != nil {
		b.log.Warn("could not send interaction callback", zap.Error(err))
	}
}
