// Package main is the terminal client for duochat: a login screen, a
// recency-ranked sidebar with unseen badges, and a chat pane fed by the live
// push channel.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"duochat/internal/app/chat"
	"duochat/internal/app/user"
	"duochat/internal/client/api"
	"duochat/internal/client/chatstate"
)

// --- Styles ---

var (
	primaryColor = lipgloss.Color("#7C3AED")
	accentColor  = lipgloss.Color("#10B981")
	mutedColor   = lipgloss.Color("#9CA3AF")
	errorColor   = lipgloss.Color("#EF4444")
	badgeColor   = lipgloss.Color("#F59E0B")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(mutedColor).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(badgeColor).
			Bold(true)

	ownMessageStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	otherMessageStyle = lipgloss.NewStyle().
				Foreground(primaryColor)

	onlineDotStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// --- View State ---

type viewState int

const (
	viewAuth viewState = iota
	viewContacts
	viewChat
)

// --- Messages ---

type authDoneMsg struct {
	user *user.User
}

type socketConnectedMsg struct {
	socket *api.Socket
}

type socketEventMsg struct {
	event *api.SocketEvent
}

type socketErrMsg struct {
	err error
}

type conversationOpenedMsg struct {
	peerID string
}

type contactsRefreshedMsg struct{}

type searchResultMsg struct {
	users []user.User
}

type messageSentMsg struct{}

type errMsg struct {
	err error
}

// --- Model ---

type model struct {
	client *api.Client
	state  *chatstate.State
	socket *api.Socket
	self   *user.User

	// Auth
	signupMode    bool
	nameInput     textinput.Model
	emailInput    textinput.Model
	passwordInput textinput.Model
	authFocused   int
	status        string

	// Contacts
	searchMode    bool
	searchInput   textinput.Model
	searchResults []user.User
	selected      int

	// Chat
	messageInput textinput.Model
	chatViewport viewport.Model
	peerName     map[string]string

	view   viewState
	width  int
	height int
}

func initialModel(serverURL string) model {
	nameInput := textinput.New()
	nameInput.Placeholder = "Full name"
	nameInput.CharLimit = 50
	nameInput.Width = 30

	emailInput := textinput.New()
	emailInput.Placeholder = "Email"
	emailInput.Focus()
	emailInput.CharLimit = 100
	emailInput.Width = 30

	passwordInput := textinput.New()
	passwordInput.Placeholder = "Password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.CharLimit = 72
	passwordInput.Width = 30

	searchInput := textinput.New()
	searchInput.Placeholder = "Search contacts..."
	searchInput.CharLimit = 50
	searchInput.Width = 24

	messageInput := textinput.New()
	messageInput.Placeholder = "Type a message..."
	messageInput.CharLimit = 1000
	messageInput.Width = 50

	return model{
		client:        api.New(serverURL),
		nameInput:     nameInput,
		emailInput:    emailInput,
		passwordInput: passwordInput,
		searchInput:   searchInput,
		messageInput:  messageInput,
		chatViewport:  viewport.New(80, 20),
		peerName:      make(map[string]string),
		view:          viewAuth,
	}
}

// --- Commands ---

func (m model) authenticate() tea.Cmd {
	client := m.client
	signup := m.signupMode
	name := strings.TrimSpace(m.nameInput.Value())
	email := strings.TrimSpace(m.emailInput.Value())
	password := m.passwordInput.Value()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var (
			u   *user.User
			err error
		)
		if signup {
			u, err = client.Signup(ctx, name, email, password)
		} else {
			u, err = client.Login(ctx, email, password)
		}
		if err != nil {
			return errMsg{err: err}
		}
		return authDoneMsg{user: u}
	}
}

func (m model) connectSocket() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		socket, err := client.DialSocket(ctx)
		if err != nil {
			return socketErrMsg{err: err}
		}
		return socketConnectedMsg{socket: socket}
	}
}

// listenSocket blocks on one push event; the update loop re-issues it after
// every received event.
func listenSocket(socket *api.Socket) tea.Cmd {
	return func() tea.Msg {
		event, err := socket.Receive()
		if err != nil {
			return socketErrMsg{err: err}
		}
		return socketEventMsg{event: event}
	}
}

func (m model) refreshContacts() tea.Cmd {
	state := m.state
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := state.Refresh(ctx); err != nil {
			return errMsg{err: err}
		}
		return contactsRefreshedMsg{}
	}
}

func (m model) openConversation(peerID string) tea.Cmd {
	state := m.state
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := state.Open(ctx, peerID); err != nil {
			return errMsg{err: err}
		}
		return conversationOpenedMsg{peerID: peerID}
	}
}

func (m model) sendMessage(text string) tea.Cmd {
	state := m.state
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := state.Send(ctx, text, ""); err != nil {
			return errMsg{err: err}
		}
		return messageSentMsg{}
	}
}

func (m model) searchContacts(query string) tea.Cmd {
	state := m.state
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		users, err := state.Search(ctx, query)
		if err != nil {
			return errMsg{err: err}
		}
		return searchResultMsg{users: users}
	}
}

// --- Init ---

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

// --- Update ---

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chatViewport.Width = max(20, msg.Width-34)
		m.chatViewport.Height = max(5, msg.Height-6)
		m.renderChat()

	case authDoneMsg:
		m.self = msg.user
		m.state = chatstate.New(m.client, msg.user.ID)
		m.status = ""
		m.view = viewContacts
		cmds = append(cmds, m.connectSocket(), m.refreshContacts())

	case socketConnectedMsg:
		m.socket = msg.socket
		cmds = append(cmds, listenSocket(m.socket))

	case socketEventMsg:
		switch msg.event.Name {
		case chat.EventNewMessage:
			if msg.event.Message != nil {
				m.state.HandlePush(*msg.event.Message)
				m.renderChat()
			}
		case chat.EventOnlineUsers:
			m.state.SetOnline(msg.event.OnlineUsers)
		}
		cmds = append(cmds, listenSocket(m.socket))

	case socketErrMsg:
		m.status = "connection lost: " + msg.err.Error()
		m.socket = nil

	case conversationOpenedMsg:
		m.view = viewChat
		m.messageInput.Focus()
		m.renderChat()
		m.status = ""

	case contactsRefreshedMsg:
		for _, u := range m.state.Contacts() {
			m.peerName[u.ID] = u.FullName
		}

	case searchResultMsg:
		m.searchResults = msg.users
		m.selected = 0

	case messageSentMsg:
		m.renderChat()

	case errMsg:
		m.status = msg.err.Error()
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case viewAuth:
		return m.handleAuthKey(msg)
	case viewContacts:
		return m.handleContactsKey(msg)
	case viewChat:
		return m.handleChatKey(msg)
	}
	return m, nil
}

func (m model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab":
		m.signupMode = !m.signupMode
		m.authFocused = 0
		m.focusAuthField()
		return m, nil

	case "enter":
		last := 1
		if m.signupMode {
			last = 2
		}
		if m.authFocused < last {
			m.authFocused++
			m.focusAuthField()
			return m, nil
		}
		m.status = "signing in..."
		return m, m.authenticate()

	case "up":
		if m.authFocused > 0 {
			m.authFocused--
			m.focusAuthField()
		}
		return m, nil

	case "down":
		last := 1
		if m.signupMode {
			last = 2
		}
		if m.authFocused < last {
			m.authFocused++
			m.focusAuthField()
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focusedAuthField() {
	case "name":
		m.nameInput, cmd = m.nameInput.Update(msg)
	case "email":
		m.emailInput, cmd = m.emailInput.Update(msg)
	default:
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m *model) focusedAuthField() string {
	if m.signupMode {
		switch m.authFocused {
		case 0:
			return "name"
		case 1:
			return "email"
		default:
			return "password"
		}
	}
	if m.authFocused == 0 {
		return "email"
	}
	return "password"
}

func (m *model) focusAuthField() {
	m.nameInput.Blur()
	m.emailInput.Blur()
	m.passwordInput.Blur()

	switch m.focusedAuthField() {
	case "name":
		m.nameInput.Focus()
	case "email":
		m.emailInput.Focus()
	default:
		m.passwordInput.Focus()
	}
}

func (m model) handleContactsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchMode {
		switch msg.String() {
		case "esc":
			m.searchMode = false
			m.searchInput.Blur()
			m.searchInput.SetValue("")
			m.searchResults = nil
			m.selected = 0
			return m, nil
		case "enter":
			return m, m.searchContacts(strings.TrimSpace(m.searchInput.Value()))
		case "down", "up":
			m.moveSelection(msg.String(), len(m.visibleContacts()))
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		m.searchMode = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case "r":
		return m, m.refreshContacts()
	case "up", "down":
		m.moveSelection(msg.String(), len(m.visibleContacts()))
		return m, nil
	case "enter":
		contacts := m.visibleContacts()
		if m.selected < len(contacts) {
			peer := contacts[m.selected]
			m.peerName[peer.ID] = peer.FullName
			return m, m.openConversation(peer.ID)
		}
	}
	return m, nil
}

func (m *model) moveSelection(key string, total int) {
	if key == "up" && m.selected > 0 {
		m.selected--
	}
	if key == "down" && m.selected < total-1 {
		m.selected++
	}
}

func (m model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state.Close()
		m.messageInput.Blur()
		m.messageInput.SetValue("")
		m.view = viewContacts
		return m, m.refreshContacts()
	case "enter":
		text := strings.TrimSpace(m.messageInput.Value())
		if text == "" {
			return m, nil
		}
		m.messageInput.SetValue("")
		return m, m.sendMessage(text)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chatViewport, cmd = m.chatViewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.messageInput, cmd = m.messageInput.Update(msg)
	return m, cmd
}

// visibleContacts returns the search results when a query is active, otherwise
// the recency-ranked list.
func (m model) visibleContacts() []user.User {
	if m.searchMode && m.searchResults != nil {
		return m.searchResults
	}
	if m.state == nil {
		return nil
	}
	return m.state.Contacts()
}

func (m *model) renderChat() {
	if m.state == nil {
		return
	}

	var b strings.Builder
	for _, msg := range m.state.Messages() {
		stamp := mutedStyle.Render(msg.CreatedAt.Local().Format("15:04"))

		var line string
		if m.self != nil && msg.SenderID == m.self.ID {
			line = ownMessageStyle.Render("you: " + msg.Text)
		} else {
			name := m.peerName[msg.SenderID]
			if name == "" {
				name = "them"
			}
			line = otherMessageStyle.Render(name + ": " + msg.Text)
		}
		if msg.ImageURL != "" {
			line += mutedStyle.Render(" [image] " + msg.ImageURL)
		}

		b.WriteString(stamp + " " + line + "\n")
	}

	m.chatViewport.SetContent(b.String())
	m.chatViewport.GotoBottom()
}

// --- Views ---

func (m model) View() string {
	switch m.view {
	case viewAuth:
		return m.authView()
	case viewContacts:
		return m.contactsView()
	case viewChat:
		return m.chatView()
	}
	return ""
}

func (m model) authView() string {
	var b strings.Builder

	mode := "Log in"
	if m.signupMode {
		mode = "Sign up"
	}
	b.WriteString(titleStyle.Render("duochat · "+mode) + "\n\n")

	if m.signupMode {
		b.WriteString(m.nameInput.View() + "\n")
	}
	b.WriteString(m.emailInput.View() + "\n")
	b.WriteString(m.passwordInput.View() + "\n\n")

	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status) + "\n\n")
	}
	b.WriteString(helpStyle.Render("enter: next/submit · tab: switch login/signup · esc: quit"))

	return boxStyle.Render(b.String())
}

func (m model) contactsView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("duochat · contacts") + "\n\n")

	if m.searchMode {
		b.WriteString(m.searchInput.View() + "\n\n")
	}

	contacts := m.visibleContacts()
	if len(contacts) == 0 {
		b.WriteString(mutedStyle.Render("no conversations yet, press / to find someone") + "\n")
	}

	for i, u := range contacts {
		line := u.FullName
		if m.state != nil && m.state.IsOnline(u.ID) {
			line = onlineDotStyle.Render("● ") + line
		} else {
			line = mutedStyle.Render("○ ") + line
		}
		if m.state != nil {
			if n := m.state.Unseen(u.ID); n > 0 {
				line += badgeStyle.Render(fmt.Sprintf(" (%d)", n))
			}
		}

		if i == m.selected {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status) + "\n")
	}
	b.WriteString(helpStyle.Render("enter: open · /: search · r: refresh · q: quit"))

	return boxStyle.Render(b.String())
}

func (m model) chatView() string {
	peerID := m.state.OpenPeer()
	name := m.peerName[peerID]
	if name == "" {
		name = peerID
	}

	presence := mutedStyle.Render("offline")
	if m.state.IsOnline(peerID) {
		presence = onlineDotStyle.Render("online")
	}

	header := titleStyle.Render("duochat · "+name) + " " + presence

	sidebar := m.sidebarView()
	chatPane := m.chatViewport.View() + "\n" + m.messageInput.View()

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebarStyle.Render(sidebar), chatPane)

	footer := helpStyle.Render("enter: send · esc: back · ctrl+c: quit")
	if m.status != "" {
		footer = errorStyle.Render(m.status) + "  " + footer
	}

	return header + "\n" + body + "\n" + footer
}

func (m model) sidebarView() string {
	var b strings.Builder

	open := m.state.OpenPeer()
	for _, u := range m.state.Contacts() {
		line := u.FullName
		if n := m.state.Unseen(u.ID); n > 0 {
			line += badgeStyle.Render(fmt.Sprintf(" (%d)", n))
		}
		if u.ID == open {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

func main() {
	// Log lines would tear the alternate screen apart.
	zerolog.SetGlobalLevel(zerolog.Disabled)

	serverURL := os.Getenv("DUOCHAT_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	p := tea.NewProgram(initialModel(serverURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
