package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobpulse/internal/model"
)

// Lines per listing in the list view (title + subtitle + blank separator).
const listingItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	snippetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// Pane is one titled column of listings.
type Pane struct {
	Title    string
	Listings []model.Listing
}

type browseModel struct {
	panes      [2]Pane
	viewports  [2]viewport.Model
	cursors    [2]int
	activePane int
	width      int
	height     int
	ready      bool

	view           viewState
	detail         model.Listing
	detailViewport viewport.Model

	openFn func(url string)
}

func newBrowseModel(left, right Pane) browseModel {
	return browseModel{
		panes:  [2]Pane{left, right},
		openFn: openURL,
	}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	case "o":
		if l, ok := m.selected(); ok {
			m.openFn(l.Link)
		}
		return m, nil
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	m.viewports[m.activePane], cmd = m.viewports[m.activePane].Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		m.openFn(m.detail.Link)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *browseModel) moveCursor(delta int) {
	p := m.activePane
	m.cursors[p] = clamp(m.cursors[p]+delta, 0, max(len(m.panes[p].Listings)-1, 0))
}

func (m *browseModel) ensureCursorVisible() {
	vp := &m.viewports[m.activePane]
	cursor := m.cursors[m.activePane]

	cursorTop := cursor * listingItemHeight
	cursorBottom := cursorTop + listingItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m browseModel) selected() (model.Listing, bool) {
	listings := m.panes[m.activePane].Listings
	if len(listings) == 0 {
		return model.Listing{}, false
	}
	return listings[m.cursors[m.activePane]], true
}

func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	l, ok := m.selected()
	if !ok {
		return m, nil
	}

	m.view = viewDetail
	m.detail = l
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *browseModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	for i := range m.viewports {
		if !m.ready {
			m.viewports[i] = viewport.New(paneWidth, paneHeight)
		} else {
			m.viewports[i].Width = paneWidth
			m.viewports[i].Height = paneHeight
		}
	}
	m.ready = true

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	for i := range m.viewports {
		m.viewports[i].SetContent(renderListings(m.panes[i].Listings, m.cursors[i], m.activePane == i))
	}
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m browseModel) viewList() string {
	paneWidth := m.viewports[0].Width

	var headers, panes [2]string
	for i, p := range m.panes {
		header := fmt.Sprintf(" %s (%d)", p.Title, len(p.Listings))
		if i == m.activePane {
			headers[i] = activeHeaderStyle.Render(header)
			panes[i] = activeBorderStyle.Width(paneWidth).Render(m.viewports[i].View())
		} else {
			headers[i] = inactiveHeaderStyle.Render(header)
			panes[i] = inactiveBorderStyle.Width(paneWidth).Render(m.viewports[i].View())
		}
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(headers[0]),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(headers[1]),
	)
	paneRow := lipgloss.JoinHorizontal(lipgloss.Top, panes[0], " ", panes[1])

	statusText := " ←/→/Tab switch  ↑/↓ cursor  Enter detail  o open link  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + paneRow + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Listing Details")

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusBar := statusBarStyle.Width(m.width).Render(" o open link  esc/backspace back  ↑/↓ scroll  q quit")

	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	l := m.detail
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", l.Title)
	addField("Company", l.Company)
	addField("Location", l.Location)
	addField("Found", l.DateFound)
	b.WriteByte('\n')
	addField("Link", l.Link)

	if l.Snippet != "" && l.Snippet != model.DefaultSnippet {
		wrapWidth := max(m.width-8, 20)
		label := "── Snippet "
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		b.WriteByte('\n')
		b.WriteString(dividerStyle.Render(label+fill) + "\n\n")
		b.WriteString(snippetStyle.Render(wordWrap(l.Snippet, wrapWidth)) + "\n")
	}

	return b.String()
}

func renderListings(listings []model.Listing, cursor int, isActive bool) string {
	if len(listings) == 0 {
		return "  (no listings)"
	}

	var b strings.Builder
	for i, l := range listings {
		isSelected := isActive && i == cursor

		titleSt := titleStyle
		subtitleSt := subtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(l.Title))
		b.WriteByte('\n')

		found := l.DateFound
		if found == "" {
			found = "n/a"
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", l.Company, l.City(), found)))
		b.WriteByte('\n')

		if i < len(listings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunBrowser launches the split-pane listing browser in the alternate screen.
func RunBrowser(left, right Pane) error {
	p := tea.NewProgram(newBrowseModel(left, right), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
