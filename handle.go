package main

import (
	"context"
	"fmt"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"go.uber.org/zap"

	"github.com/hhhapz/uksidoc/legislation"
)

type botState struct {
	url     string
	fetcher legislation.Fetcher
	state   *state.State
	log     *zap.Logger
}

func newBot(token, url string, fetcher legislation.Fetcher, log *zap.Logger) *botState {
	b := &botState{
		url:     url,
		fetcher: fetcher,
		state:   state.New("Bot " + token),
		log:     log.Named("discord"),
	}
	b.state.AddHandler(b.OnCommand)
	b.state.AddIntents(gateway.IntentGuilds)
	return b
}

func (b *botState) OnCommand(e *gateway.InteractionCreateEvent) {
	data, ok := e.Data.(*discord.CommandInteraction)
	if !ok {
		return
	}

	switch data.Name {
	case "uksi":
		b.handleContents(e)
	case "info":
		b.handleInfo(e)
	}
}

func (b *botState) handleContents(e *gateway.InteractionCreateEvent) {
	user := e.Sender()
	log := b.log.With(zap.String("user", user.Tag()))
	log.Info("used uksi")

	// The fetch can outlive the three second interaction deadline.
	data := api.InteractionResponse{Type: api.DeferredMessageInteractionWithSource}
	if err := b.state.RespondInteraction(e.ID, e.Token, data); err != nil {
		log.Warn("could not send interaction callback", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var embed discord.Embed
	doc, err := legislation.Load(ctx, b.fetcher, b.url, log)
	if err != nil {
		logFailure(log, b.url, err)
		embed = failEmbed("Error", err.Error())
	} else {
		embed = contentsEmbed(b.url, doc)
	}

	if _, err := b.state.EditInteractionResponse(e.AppID, e.Token, api.EditInteractionResponseData{
		Embeds: &[]discord.Embed{embed},
	}); err != nil {
		log.Warn("could not edit interaction response", zap.Error(err))
	}
}

// run connects to the gateway, registers commands and blocks until ctx is
// done.
func (b *botState) run(ctx context.Context) error {
	if err := b.state.Open(ctx); err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}
	defer b.state.Close()

	b.log.Info("gateway connection established")
	app, err := b.state.CurrentApplication()
	if err != nil {
		return fmt.Errorf("could not get application: %w", err)
	}

	if err := b.loadCommands(app.ID); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func (b *botState) loadCommands(appID discord.AppID) error {
	for _, c := range commands {
		if _, err := b.state.CreateCommand(appID, c); err != nil {
			return fmt.Errorf("could not register: %s, %w", c.Name, err)
		}
		b.log.Info("created command", zap.String("name", c.Name))
	}
	return nil
}

var commands = []api.CreateCommandData{
	{
		Name:        "uksi",
		Description: "Show the contents of the configured statutory instrument",
	},
	{
		Name:        "info",
		Description: "Generic Bot Info",
	},
}
