package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	rt "github.com/shunyalabs/rt-go/core"
	"github.com/shunyalabs/rt-go/core/events"
	"github.com/shunyalabs/rt-go/core/transcript"
)

const lineWidth = 80

var (
	interimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	finalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	markerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
)

func runPlain(ctx context.Context, client *rt.Client, aggregator *transcript.Aggregator) error {
	aggregator.SetEventEmitter(func(event events.Event) {
		switch e := event.(type) {
		case events.TranscriptSpeechStarted:
			fmt.Println(markerStyle.Render(fmt.Sprintf("[speech started %.2fs]", e.Start)))
		case events.TranscriptSpeechEnded:
			fmt.Println(markerStyle.Render(fmt.Sprintf("[speech ended %.2fs]", e.End)))
		case events.TranscriptInterimUpdated:
			fmt.Println(interimStyle.Render(wordwrap.String("… "+e.Text, lineWidth)))
		case events.TranscriptFinalized:
			fmt.Println(finalStyle.Render(wordwrap.String(e.Text, lineWidth)))
		}
	})

	err := stream(ctx, client)

	if combined := client.FinalTranscript(); combined != "" {
		fmt.Println(summaryStyle.Render(wordwrap.String("transcript: "+combined, lineWidth)))
	}
	return err
}
