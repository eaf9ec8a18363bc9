package commands

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	rt "github.com/shunyalabs/rt-go/core"
	"github.com/shunyalabs/rt-go/core/events"
	"github.com/shunyalabs/rt-go/core/transcript"
	"github.com/shunyalabs/rt-go/core/wire"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type transcriptEventMsg struct{ event events.Event }

type sessionReadyMsg struct{}

type streamDoneMsg struct{}

type tuiModel struct {
	spinner  spinner.Model
	ready    bool
	speaking bool
	interim  string
	finals   []string
	width    int
	quitting bool

	cancel   context.CancelFunc
	eventsCh chan events.Event
	readyCh  chan struct{}
	doneCh   chan struct{}
}

func newTUIModel(cancel context.CancelFunc, eventsCh chan events.Event, readyCh, doneCh chan struct{}) tuiModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return tuiModel{
		spinner:  s,
		width:    lineWidth,
		cancel:   cancel,
		eventsCh: eventsCh,
		readyCh:  readyCh,
		doneCh:   doneCh,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenEvents(), m.listenReady(), m.listenDone())
}

func (m tuiModel) listenEvents() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.eventsCh
		if !ok {
			return nil
		}
		return transcriptEventMsg{event: event}
	}
}

func (m tuiModel) listenReady() tea.Cmd {
	return func() tea.Msg {
		<-m.readyCh
		return sessionReadyMsg{}
	}
}

func (m tuiModel) listenDone() tea.Cmd {
	return func() tea.Msg {
		<-m.doneCh
		return streamDoneMsg{}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case sessionReadyMsg:
		m.ready = true
		return m, nil

	case streamDoneMsg:
		m.quitting = true
		return m, tea.Quit

	case transcriptEventMsg:
		switch event := msg.event.(type) {
		case events.TranscriptSpeechStarted:
			m.speaking = true
		case events.TranscriptSpeechEnded:
			m.speaking = false
		case events.TranscriptInterimUpdated:
			m.interim = event.Text
		case events.TranscriptFinalized:
			m.finals = append(m.finals, event.Text)
			m.interim = ""
		}
		return m, m.listenEvents()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width <= 0 || width > 100 {
		width = lineWidth
	}

	var b strings.Builder
	if !m.ready {
		b.WriteString(m.spinner.View() + " waiting for the server…\n\n")
	} else {
		status := "listening"
		if m.speaking {
			status = "speaking"
		}
		b.WriteString(statusStyle.Render(status) + "\n\n")
	}

	for _, line := range m.finals {
		b.WriteString(finalStyle.Render(wordwrap.String(line, width)) + "\n")
	}
	if m.interim != "" {
		b.WriteString(interimStyle.Render(wordwrap.String("… "+m.interim, width)) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("q to quit"))
	return b.String()
}

func runTUI(ctx context.Context, client *rt.Client, aggregator *transcript.Aggregator) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eventsCh := make(chan events.Event, 64)
	aggregator.SetEventEmitter(func(event events.Event) {
		// The emitter runs on the receive loop; it must not block.
		select {
		case eventsCh <- event:
		default:
		}
	})

	readyCh := make(chan struct{}, 1)
	client.On(wire.KindRecognitionStarted, func(wire.Message) {
		select {
		case readyCh <- struct{}{}:
		default:
		}
	})

	var streamErr error
	doneCh := make(chan struct{})
	go func() {
		streamErr = stream(ctx, client)
		close(doneCh)
	}()

	program := tea.NewProgram(newTUIModel(cancel, eventsCh, readyCh, doneCh))
	if _, err := program.Run(); err != nil {
		cancel()
		<-doneCh
		return err
	}

	cancel()
	<-doneCh
	return streamErr
}
