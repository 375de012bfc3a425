package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/minipy/lang"
	"github.com/ardnew/minipy/log"
	"github.com/ardnew/minipy/pkg"
)

// editDoneMsg is sent when an edited program ran successfully and replaced
// the session.
type editDoneMsg struct{}

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit a failing
// program.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the editor itself could not be run.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	contPrompt = "… "
	ctrlPrompt = " :"
)

// indentUnit is inserted at the start of a line that follows a block opener.
const indentUnit = "    "

const helpMessage = `
: Commands (press Esc to toggle mode):

  help     Print this message
  list     List global names
  edit     Edit the session in $EDITOR and run it again
  clear    Clear screen
  reset    Discard all globals
  quit     Exit REPL

Usage:
  Type a statement to run it; expression results are echoed
  A line ending in ':' opens a block; an empty line runs it
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`

// inputMode selects whether input is evaluated or treated as a command.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// prefix is the mode marker stored with each history line.
func (m inputMode) prefix() string {
	if m == modeCtrl {
		return "C:"
	}

	return "E:"
}

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// savedInput is the text and cursor of a mode's input line, restored when
// the user toggles back to it.
type savedInput struct {
	text   string
	cursor int
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *Session
	out          *bytes.Buffer // print output not yet shown
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // ranked completions for the current word
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int
	quitting     bool
	mode         inputMode
	saved        [2]savedInput
}

// Run starts the interactive REPL on the terminal. History is kept in
// cacheDir, which may be empty to disable persistence.
func Run(
	ctx context.Context,
	cacheDir string,
	logger log.Logger,
	opts ...lang.Option,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	historyPath := ""
	if cacheDir != "" {
		historyPath = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history",
			slog.String("path", historyPath),
			slog.Any("error", err),
		)
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("history", historyPath),
		slog.Int("entry_count", history.Len()),
	)

	out := new(bytes.Buffer)
	opts = append([]lang.Option{lang.WithOutput(out), lang.WithLogger(logger)}, opts...)

	m := newModel(ctx, NewSession(opts...), out, history, logger)

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return context.Cause(ctx)
	}

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	session *Session,
	out *bytes.Buffer,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    session,
		out:        out,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	banner := fmt.Sprintf("%s %s (press Esc then type help)", pkg.Name, pkg.Version)

	return tea.Batch(textinput.Blink, tea.Println(hintStyle.Render(banner)))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
			slog.Int("global_count", len(m.session.Interpreter().Globals().Local())),
		)
		m.setPrompt()

		return m, tea.Sequence(
			m.flushOutput(),
			tea.Println(resultStyle.Render("✔ session reloaded")),
		)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("🗴 editor failed: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	call := detectFunctionCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render(m.idleHint()))

	case call.inCall && m.mode == modeEval:
		signature, params := getSignature(m.session.Interpreter().Globals(), call.name)
		if signature != "" {
			b.WriteString(renderSignatureHint(signature, params, call.argIndex))
		} else {
			b.WriteString(m.candidateBar())
		}

	default:
		b.WriteString(m.candidateBar())
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) idleHint() string {
	switch {
	case m.mode == modeCtrl:
		return "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
	case m.session.Pending():
		return "Enter an empty line to run the block"
	default:
		return "Type a statement or press Esc for commands"
	}
}

func (m model) candidateBar() string {
	return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width, m.isFunction)
}

// isFunction reports whether name is bound to a function in the session.
func (m model) isFunction(name string) bool {
	v, ok := m.session.Interpreter().Globals().Get(name)
	if !ok {
		return false
	}

	_, ok = v.AsFunction()

	return ok
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" && !m.session.Pending() {
			m.quitting = true

			return m, tea.Quit
		}

		m.session.Discard()
		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.setPrompt()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.recall(-1, false), nil

	case tea.KeyDown:
		return m.recall(1, false), nil

	case tea.KeyShiftUp:
		return m.recall(-1, true), nil

	case tea.KeyShiftDown:
		return m.recall(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		if m.mode == modeEval {
			return m.switchToMode(modeCtrl), nil
		}

		return m.switchToMode(modeEval), nil

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Any other key (backspace, delete, arrows) edits without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping at either end. A single
// candidate is completed immediately.
func (m model) cycle(step int) model {
	if len(m.matches) == 0 {
		return m
	}

	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word in the input with replacement
// and moves the cursor to its end.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes completions for the current input. When
// autoConfirm is set and the typed word already equals the only candidate,
// the completion is accepted so that the bar disappears.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	line := m.input.Value()

	if m.mode == modeCtrl {
		line = strings.TrimSpace(line)
		if line == "" {
			return m, nil
		}

		m.saved[modeCtrl] = savedInput{}
		m.input.SetValue("")
		m.remember(line, modeCtrl)

		return m.executeCommand(line)
	}

	if strings.TrimSpace(line) == "" && !m.session.Pending() {
		return m, nil
	}

	prompt := evalPrompt
	if m.session.Pending() {
		prompt = contPrompt
	}

	echo := tea.Println(promptStyle.Render(prompt) + inputStyle.Render(line))

	m.saved[modeEval] = savedInput{}
	m.remember(line, modeEval)

	res, done := m.session.Feed(m.ctxFunc(), line)

	m.setPrompt()

	if !done {
		indent := nextIndent(line)
		m.input.SetValue(indent)
		m.input.SetCursor(len(indent))

		return m, echo
	}

	m.input.SetValue("")

	m.logger.TraceContext(m.ctxFunc(), "repl eval",
		slog.String("source", res.Source),
		slog.Bool("ok", res.Err == nil),
	)

	cmds := []tea.Cmd{echo, m.flushOutput()}

	if text := res.Echo(); text != "" {
		style := resultStyle
		if res.Err != nil {
			style = errorStyle
		}

		cmds = append(cmds, tea.Println(style.Render(text)))
	}

	return m, tea.Sequence(cmds...)
}

// remember records line in the history and resets the history cursor.
func (m *model) remember(line string, mode inputMode) {
	if err := m.history.Add(line, mode); err != nil {
		m.logger.DebugContext(m.ctxFunc(), "history write failed", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()
}

// flushOutput prints and clears any output written by print.
func (m model) flushOutput() tea.Cmd {
	text := strings.TrimSuffix(m.out.String(), "\n")
	m.out.Reset()

	if text == "" {
		return nil
	}

	return tea.Println(text)
}

// nextIndent returns the indentation to prefill after line inside a block.
func nextIndent(line string) string {
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	if opensBlock(line) {
		indent += indentUnit
	}

	return indent
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", parts[0]),
		slog.Any("args", parts[1:]),
	)

	switch parts[0] {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage))

	case "l", "list":
		return m, tea.Sequence(echo, tea.Println(m.listGlobals()))

	case "c", "clear":
		return m, tea.ClearScreen

	case "r", "reset":
		m.session.Reset()
		m.setPrompt()

		return m, tea.Sequence(echo, tea.Println(hintStyle.Render("globals discarded")))

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + parts[0] + " (try 'help')"),
		)
	}
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		session: m.session,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case !cmd.loaded:
			return editCancelledMsg{}
		default:
			return editDoneMsg{}
		}
	})
}

func (m model) listGlobals() string {
	globals := m.session.Interpreter().Globals()
	names := globals.Local()

	if len(names) == 0 {
		return hintStyle.Render("  (no globals)")
	}

	var b strings.Builder

	for _, name := range names {
		v, _ := globals.Get(name)
		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(preview(v)))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// recall moves through the history by step. If sameMode is set, entries from
// the other mode are skipped; otherwise the mode follows the entry.
func (m model) recall(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil {
			break
		}

		if sameMode && entry.Mode != m.mode {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

// switchToMode switches to mode, preserving each mode's input line.
func (m model) switchToMode(mode inputMode) model {
	m.saved[m.mode] = savedInput{text: m.input.Value(), cursor: m.input.Position()}
	m.mode = mode
	m.setPrompt()
	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	refreshMatches(&m, false)

	return m
}

// setPrompt selects the prompt for the current mode and block state.
func (m *model) setPrompt() {
	switch {
	case m.mode == modeCtrl:
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	case m.session.Pending():
		m.input.Prompt = promptStyle.Render(contPrompt)
	default:
		m.input.Prompt = promptStyle.Render(evalPrompt)
	}
}
