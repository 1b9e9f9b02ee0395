// Package tui is an interactive browser for scan findings.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/knoxsec/knox/internal/report"
	"github.com/knoxsec/knox/internal/types"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	emptyTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Align(lipgloss.Center)

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	sevCriticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	sevHighStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sevMedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sevLowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Sort orders, cycled with "s".
const (
	SortDefault  = ""
	SortSeverity = "severity"
	SortPath     = "path"
	SortPattern  = "pattern"
)

const defaultHelp = "q: quit | ?: help | j/k: navigate | /: search | b: baseline | i: ignore file | y: copy location"

// Options configures the browser.
type Options struct {
	// Baseline marks already-accepted findings; BaselinePath is where "b"
	// writes changes. An empty path disables baseline edits.
	Baseline     report.Baseline
	BaselinePath string
	// Rescan re-runs the scan for "r". Nil disables rescans.
	Rescan func() ([]types.Finding, error)
	// Prefs seeds the display settings; the zero value means defaults.
	Prefs Prefs
	// PersistPrefs saves settings changed in the browser.
	PersistPrefs bool
	// IgnoreRoot is the scan root whose .knoxignore "i" appends to. Empty
	// disables ignoring files.
	IgnoreRoot string
}

// severityText returns plain text for severity (ANSI codes break table truncation).
func severityText(s types.Severity) string {
	switch s {
	case types.SevCritical:
		return "CRIT"
	case types.SevHigh:
		return "HIGH"
	case types.SevMed:
		return "MED"
	case types.SevLow:
		return "LOW"
	default:
		return strings.ToUpper(string(s))
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

// Model is the browser state.
type Model struct {
	table       table.Model
	viewport    viewport.Model
	spinner     spinner.Model
	searchInput textinput.Model

	findings     []types.Finding
	visible      []int // indices into findings after filter and sort
	baseline     report.Baseline
	baselinePath string
	ignoreRoot   string
	rescanFunc   func() ([]types.Finding, error)
	prefs        Prefs
	persistPrefs bool

	width, height int
	ready         bool
	quitting      bool
	scanning      bool
	showHelp      bool
	lastScanTime  time.Time

	searchMode     bool
	searchQuery    string
	severityFilter types.Severity
	sortColumn     string

	statusMessage string
	statusTimeout *time.Time
}

// NewModel initializes the browser over findings.
func NewModel(findings []types.Finding, opts Options) Model {
	columns := []table.Column{
		{Title: "Sev", Width: 10},
		{Title: "Pattern", Width: 22},
		{Title: "Location", Width: 40},
		{Title: "Match", Width: 35},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)
	s.Cell = lipgloss.NewStyle().Padding(0, 1)
	t.SetStyles(s)

	// Line spinner avoids Braille characters that render poorly on some terminals
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	ti := textinput.New()
	ti.Placeholder = "Search path, pattern, or match..."
	ti.CharLimit = 100
	ti.Width = 50
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	prefs := opts.Prefs
	if prefs == (Prefs{}) {
		prefs = DefaultPrefs()
	}
	base := opts.Baseline
	if base.Items == nil {
		base.Items = map[string]bool{}
	}

	m := Model{
		table:         t,
		spinner:       sp,
		searchInput:   ti,
		findings:      findings,
		baseline:      base,
		baselinePath:  opts.BaselinePath,
		ignoreRoot:    opts.IgnoreRoot,
		rescanFunc:    opts.Rescan,
		prefs:         prefs,
		persistPrefs:  opts.PersistPrefs,
		lastScanTime:  time.Now(),
		statusMessage: defaultHelp,
	}
	m.rebuild()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

type findingsMsg []types.Finding

type statusMsg string

type baselineMsg struct {
	finding types.Finding
	added   bool
}

// ignoredMsg reports a path appended to the ignore file.
type ignoredMsg struct {
	path    string
	pattern string
}

// current returns the finding under the cursor.
func (m *Model) current() (types.Finding, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return types.Finding{}, false
	}
	return m.findings[m.visible[idx]], true
}

// rebuild recomputes the visible set from filters and sort order, then
// refreshes table rows and the detail pane.
func (m *Model) rebuild() {
	query := strings.ToLower(m.searchQuery)
	m.visible = make([]int, 0, len(m.findings))
	for i, f := range m.findings {
		if m.severityFilter != "" && f.Severity != m.severityFilter {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(f.Path), query) &&
			!strings.Contains(strings.ToLower(f.Pattern), query) &&
			!strings.Contains(strings.ToLower(f.Match), query) {
			continue
		}
		m.visible = append(m.visible, i)
	}
	m.sortVisible()

	rows := make([]table.Row, len(m.visible))
	for i, idx := range m.visible {
		f := m.findings[idx]
		sev := severityText(f.Severity)
		if m.baseline.Contains(f) {
			sev = "(b) " + sev
		}
		rows[i] = table.Row{sev, f.Pattern, fmt.Sprintf("%s:%d", f.Path, f.Line), m.displayMatch(f)}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) || m.table.Cursor() < 0 {
		m.table.SetCursor(0)
	}
	m.updateViewportContent()
}

func (m *Model) sortVisible() {
	var less func(a, b types.Finding) bool
	switch m.sortColumn {
	case SortSeverity:
		less = func(a, b types.Finding) bool { return a.Severity.Rank() > b.Severity.Rank() }
	case SortPath:
		less = func(a, b types.Finding) bool {
			if a.Path != b.Path {
				return a.Path < b.Path
			}
			return a.Line < b.Line
		}
	case SortPattern:
		less = func(a, b types.Finding) bool { return a.Pattern < b.Pattern }
	default:
		return
	}
	sort.SliceStable(m.visible, func(i, j int) bool {
		return less(m.findings[m.visible[i]], m.findings[m.visible[j]])
	})
}

func (m *Model) cycleSortColumn() {
	switch m.sortColumn {
	case SortDefault:
		m.sortColumn = SortSeverity
	case SortSeverity:
		m.sortColumn = SortPath
	case SortPath:
		m.sortColumn = SortPattern
	default:
		m.sortColumn = SortDefault
	}
	m.rebuild()
}

func (m *Model) displayMatch(f types.Finding) string {
	if m.prefs.HideSecrets && f.Category == "secrets" {
		return redactSecret(f.Match)
	}
	return f.Match
}

func (m *Model) setStatus(msg string, d time.Duration) {
	timeout := time.Now().Add(d)
	m.statusTimeout = &timeout
	m.statusMessage = msg
}

func (m *Model) updateViewportContent() {
	f, ok := m.current()
	if !ok || !m.ready {
		m.viewport.SetContent("")
		return
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Finding Details") + "\n\n")
	if m.baseline.Contains(f) {
		b.WriteString(dimStyle.Italic(true).Render("BASELINED: accepted finding. Press 'b' to remove it from the baseline."))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Path:"), f.Path)
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Pattern:"), f.Pattern)
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Severity:"), f.Severity)
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Category:"), f.Category)
	fmt.Fprintf(&b, "%s %d  %s %d\n", keyStyle.Render("Line:"), f.Line, keyStyle.Render("Column:"), f.Column)
	if f.Description != "" {
		fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Description:"), f.Description)
	}

	hint := fmt.Sprintf(" (+/- to expand/contract, showing %d lines)", m.prefs.ContextLines*2+1)
	fmt.Fprintf(&b, "\n%s%s\n", keyStyle.Render("Context:"), dimStyle.Render(hint))

	lines, start, err := readFileContext(f.Path, f.Line, m.prefs.ContextLines)
	if err != nil || len(lines) == 0 {
		b.WriteString(matchStyle.Render(m.displayMatch(f)))
		m.viewport.SetContent(b.String())
		return
	}
	highlightRow := lipgloss.NewStyle().Background(lipgloss.Color("236"))
	for i, line := range lines {
		n := start + i
		num := dimStyle.Render(fmt.Sprintf("%4d ", n))
		if n != f.Line {
			b.WriteString(num + highlightLine(line, f.Path) + "\n")
			continue
		}
		b.WriteString(num + highlightRow.Render(m.renderMatchLine(line, f)) + "\n")
	}
	m.viewport.SetContent(b.String())
}

// renderMatchLine highlights the source line with the match itself emphasized.
func (m *Model) renderMatchLine(line string, f types.Finding) string {
	end := f.Column + len(f.Match)
	if f.Match == "" || f.Column < 0 || end > len(line) || line[f.Column:end] != f.Match {
		return highlightLine(line, f.Path)
	}
	return highlightLine(line[:f.Column], f.Path) +
		matchStyle.Render(m.displayMatch(f)) +
		highlightLine(line[end:], f.Path)
}

func (m *Model) setContextLines(n int) {
	if n < 1 {
		n = 1
	}
	if n > maxContextLines {
		n = maxContextLines
	}
	m.prefs.ContextLines = n
	m.savePrefs()
	m.updateViewportContent()
}

func (m *Model) savePrefs() {
	if m.persistPrefs {
		_ = SavePrefs(m.prefs)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.searchMode {
			switch msg.String() {
			case "enter":
				m.searchMode = false
				m.searchInput.Blur()
				return m, nil
			case "esc":
				m.searchMode = false
				m.searchInput.Blur()
				m.searchQuery = ""
				m.searchInput.SetValue("")
				m.rebuild()
				return m, nil
			default:
				m.searchInput, cmd = m.searchInput.Update(msg)
				m.searchQuery = m.searchInput.Value()
				m.rebuild()
				return m, cmd
			}
		}
		if m.scanning {
			if msg.String() == "ctrl+c" {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "?":
			m.showHelp = true
			return m, nil
		case "/":
			m.searchMode = true
			m.searchInput.SetValue(m.searchQuery)
			return m, m.searchInput.Focus()
		case "1", "2", "3", "4":
			sev := map[string]types.Severity{"1": types.SevCritical, "2": types.SevHigh, "3": types.SevMed, "4": types.SevLow}[msg.String()]
			m.severityFilter = sev
			m.rebuild()
			m.setStatus(fmt.Sprintf("Showing %s severity only (Esc to clear)", severityText(sev)), 3*time.Second)
			return m, nil
		case "esc":
			if m.searchQuery != "" || m.severityFilter != "" {
				m.searchQuery = ""
				m.searchInput.SetValue("")
				m.severityFilter = ""
				m.rebuild()
				m.setStatus("Filters cleared", 3*time.Second)
			}
			return m, nil
		case "s":
			m.cycleSortColumn()
			label := m.sortColumn
			if label == SortDefault {
				label = "default"
			}
			m.setStatus("Sorted by "+label, 3*time.Second)
			return m, nil
		case "g", "home":
			m.table.GotoTop()
			m.updateViewportContent()
			return m, nil
		case "G", "end":
			m.table.GotoBottom()
			m.updateViewportContent()
			return m, nil
		case "+", "=":
			m.setContextLines(m.prefs.ContextLines + 2)
			return m, nil
		case "-":
			m.setContextLines(m.prefs.ContextLines - 2)
			return m, nil
		case "h":
			m.prefs.HideSecrets = !m.prefs.HideSecrets
			m.savePrefs()
			m.rebuild()
			if m.prefs.HideSecrets {
				m.setStatus("Secrets hidden", 3*time.Second)
			} else {
				m.setStatus("Secrets visible", 3*time.Second)
			}
			return m, nil
		case "b":
			return m, m.toggleBaseline()
		case "y":
			return m, m.copyLocation()
		case "i":
			return m, m.ignoreFile()
		case "r":
			if m.rescanFunc == nil {
				m.setStatus("Rescan not available", 3*time.Second)
				return m, nil
			}
			m.scanning = true
			return m, tea.Batch(m.spinner.Tick, m.rescan())
		case "pgdown", "pgup", "J", "K":
			key := tea.KeyMsg{Type: tea.KeyPgUp}
			if s := msg.String(); s == "J" || s == "pgdown" {
				key = tea.KeyMsg{Type: tea.KeyPgDown}
			}
			m.viewport, cmd = m.viewport.Update(key)
			return m, cmd
		}
		m.table, cmd = m.table.Update(msg)
		m.updateViewportContent()
		return m, cmd

	case findingsMsg:
		m.scanning = false
		m.findings = msg
		m.lastScanTime = time.Now()
		m.rebuild()
		m.setStatus(fmt.Sprintf("Rescan complete: %d findings", len(msg)), 5*time.Second)
		return m, nil

	case baselineMsg:
		if msg.added {
			m.baseline.Items[report.BaselineKey(msg.finding)] = true
			m.setStatus("Added finding to baseline", 3*time.Second)
		} else {
			delete(m.baseline.Items, report.BaselineKey(msg.finding))
			m.setStatus("Removed finding from baseline", 3*time.Second)
		}
		m.rebuild()
		return m, nil

	case ignoredMsg:
		kept := m.findings[:0:0]
		for _, f := range m.findings {
			if f.Path != msg.path {
				kept = append(kept, f)
			}
		}
		m.findings = kept
		m.rebuild()
		m.setStatus("Ignored "+msg.pattern, 3*time.Second)
		return m, nil

	case statusMsg:
		m.scanning = false
		m.setStatus(string(msg), 5*time.Second)
		return m, nil

	case spinner.TickMsg:
		if m.statusTimeout != nil && time.Now().After(*m.statusTimeout) {
			m.statusTimeout = nil
			m.statusMessage = defaultHelp
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		usable := m.width - 10
		sevWidth, patWidth := 10, 22
		remaining := usable - sevWidth - patWidth
		locWidth := int(float64(remaining) * 0.45)
		matchWidth := remaining - locWidth
		if locWidth < 25 {
			locWidth = 25
		}
		if matchWidth < 25 {
			matchWidth = 25
		}
		cols := m.table.Columns()
		cols[0].Width = sevWidth
		cols[1].Width = patWidth
		cols[2].Width = locWidth
		cols[3].Width = matchWidth
		m.table.SetColumns(cols)

		available := m.height - lipgloss.Height(statusStyle.Render("")) - 1
		tableHeight := int(float64(available) * 0.45)
		viewportHeight := available - tableHeight - detailPaneBorderStyle.GetVerticalFrameSize() - 1
		if viewportHeight < 1 {
			viewportHeight = 1
		}
		m.table.SetWidth(m.width)
		m.table.SetHeight(tableHeight)
		if m.viewport.Height == 0 {
			m.viewport = viewport.New(m.width, viewportHeight)
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}
	if m.scanning {
		box := popupStyle.Width(55).Align(lipgloss.Center).
			Render(fmt.Sprintf("%s  Rescanning...\n\nPlease wait", m.spinner.View()))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popupStyle.Render(helpText()))
	}

	var crit, high, med, low int
	for _, idx := range m.visible {
		switch m.findings[idx].Severity {
		case types.SevCritical:
			crit++
		case types.SevHigh:
			high++
		case types.SevMed:
			med++
		case types.SevLow:
			low++
		}
	}

	var stats string
	if len(m.findings) == 0 {
		stats = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("[OK] No issues found")
	} else {
		var extra []string
		if m.searchQuery != "" {
			extra = append(extra, fmt.Sprintf("search:'%s'", m.searchQuery))
		}
		if m.severityFilter != "" {
			extra = append(extra, "sev:"+severityText(m.severityFilter))
		}
		if m.sortColumn != SortDefault {
			extra = append(extra, "sort:"+m.sortColumn)
		}
		suffix := ""
		if len(extra) > 0 {
			suffix = "  [" + strings.Join(extra, ", ") + "]"
		}
		stats = fmt.Sprintf("Showing: %d/%d  |  %s %-4d  |  %s %-4d  |  %s %-4d  |  %s %-4d%s",
			len(m.visible), len(m.findings),
			sevCriticalStyle.Render("Crit:"), crit,
			sevHighStyle.Render("High:"), high,
			sevMedStyle.Render("Med:"), med,
			sevLowStyle.Render("Low:"), low,
			suffix)
	}
	statsHeader := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 2).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("237")).
		Render(stats)

	tableRender := tableBorderStyle.Width(m.width).Height(m.table.Height()).Render(m.table.View())

	var detail string
	if len(m.visible) == 0 {
		msg := "No findings to review.\n\nPress 'r' to rescan\nPress '?' for help"
		if len(m.findings) > 0 {
			msg = "No findings match filter.\n\nPress 'Esc' to clear filter"
		}
		detail = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, emptyTextStyle.Render(msg))
	} else {
		detail = m.viewport.View()
	}
	detailRender := detailPaneBorderStyle.Width(m.width).Height(m.viewport.Height).Render(detail)

	var bottom string
	if m.searchMode {
		bottom = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("15")).
			Width(m.width).
			Padding(0, 1).
			Render(m.searchInput.View() + fmt.Sprintf(" (%d matches)", len(m.visible)))
	} else {
		right := "Scanned: " + formatDuration(time.Since(m.lastScanTime)) + " ago"
		spacer := m.width - 4 - lipgloss.Width(m.statusMessage) - lipgloss.Width(right)
		if spacer < 1 {
			spacer = 1
		}
		bottom = statusStyle.Width(m.width).Padding(0, 2).
			Render(m.statusMessage + strings.Repeat(" ", spacer) + right)
	}

	return lipgloss.JoinVertical(lipgloss.Left, statsHeader, tableRender, detailRender, bottom)
}

func helpText() string {
	section := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	row := func(key, desc string) string {
		pad := 12 - len(key)
		if pad < 1 {
			pad = 1
		}
		return "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(key) +
			strings.Repeat(" ", pad) +
			lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Render(desc)
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Keyboard Shortcuts"),
		"",
		section.Render("Navigation"),
		row("j / k", "Move down / up"),
		row("g / G", "Top / bottom"),
		row("J / K", "Scroll details"),
		"",
		section.Render("Filter & Sort"),
		row("/", "Search path, pattern, match"),
		row("1-4", "Critical / high / medium / low only"),
		row("esc", "Clear filters"),
		row("s", "Cycle sort order"),
		"",
		section.Render("Actions"),
		row("b", "Toggle baseline for finding"),
		row("y", "Copy path:line"),
		row("i", "Add file to .knoxignore"),
		row("h", "Hide / show secrets"),
		row("+ / -", "More / less context"),
		row("r", "Rescan"),
		row("q", "Quit"),
	}
	return strings.Join(lines, "\n")
}
