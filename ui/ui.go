// Package ui is the reference terminal collaborator for the chat overlay's
// UI↔server channel contract (§6). It renders locally-delivered Say and
// Whisper events and translates user input into UISay/UIWhisper messages.
// It has no wire-protocol role: every effect it has on the mesh passes
// through the server package's channels.
package ui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"meshchat/server"
)

// App is the terminal UI. Construct with New, then call Run from the main
// goroutine.
type App struct {
	name   string
	toUI   <-chan server.ServerMessage
	fromUI chan<- server.ClientMessage

	app  *tview.Application
	feed *tview.TextView
	in   *tview.InputField
}

// New builds an App bound to a server's channel pair. toUI carries
// locally-delivered events the server has already applied; fromUI carries
// the user's Say/Whisper intents back to the server.
func New(name string, toUI <-chan server.ServerMessage, fromUI chan<- server.ClientMessage) *App {
	a := &App{
		name:   name,
		toUI:   toUI,
		fromUI: fromUI,
		app:    tview.NewApplication(),
	}
	a.feed = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() { a.app.Draw() })
	a.feed.SetBorder(true).SetTitle(fmt.Sprintf(" %s ", name))

	a.in = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	a.in.SetDoneFunc(a.handleInput)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.feed, 0, 1, false).
		AddItem(a.in, 1, 0, true)

	a.app.SetRoot(layout, true).SetFocus(a.in)
	return a
}

// Run starts the event pump (draining server messages into the feed) and
// blocks in tview's own event loop until Stop is called or the terminal
// exits.
func (a *App) Run() error {
	go a.pump()
	return a.app.Run()
}

// Stop tears down the terminal UI.
func (a *App) Stop() {
	a.app.Stop()
}

// pump copies locally-delivered server messages into the scrollback feed.
// It exits when toUI closes.
func (a *App) pump() {
	for msg := range a.toUI {
		line := render(msg)
		a.app.QueueUpdateDraw(func() {
			fmt.Fprintln(a.feed, line)
		})
	}
}

func render(msg server.ServerMessage) string {
	stamp := time.Now().Format("15:04:05")
	switch m := msg.(type) {
	case server.ServerSay:
		return fmt.Sprintf("[%s] [yellow]%s[-]: %s", stamp, m.From, m.Text)
	case server.ServerWhisper:
		return fmt.Sprintf("[%s] [blue]%s -> %s[-]: %s", stamp, m.From, m.To, m.Text)
	default:
		return fmt.Sprintf("[%s] (unrecognized message)", stamp)
	}
}

// handleInput parses one line of input on Enter. A line of the form
// "/w destination text..." sends a Whisper; anything else is broadcast
// with Say. Empty lines are ignored.
func (a *App) handleInput(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	text := a.in.GetText()
	a.in.SetText("")
	if text == "" {
		return
	}

	if dest, body, ok := parseWhisper(text); ok {
		select {
		case a.fromUI <- server.UIWhisper{Destination: dest, Text: body}:
		default:
		}
		return
	}
	select {
	case a.fromUI <- server.UISay{Text: text}:
	default:
	}
}

// parseWhisper recognizes "/w <destination> <message>" input syntax.
func parseWhisper(text string) (destination, body string, ok bool) {
	if len(text) < 4 || text[:3] != "/w " {
		return "", "", false
	}
	rest := text[3:]
	for i, c := range rest {
		if c == ' ' {
			return rest[:i], rest[i+1:], true
		}
	}
	return "", "", false
}
