package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yugr/gaplan/pkg/goal"
	"github.com/yugr/gaplan/pkg/interval"
)

const minWidth = 40
const minHeight = 10

// View implements tea.Model.
func (m Model) View() string {
	w := m.width
	h := m.height
	if w < minWidth {
		w = minWidth
	}
	if h < minHeight {
		h = minHeight
	}

	if m.showHelpModal {
		return placeOverlay(m.renderHelpModal(), w, h)
	}
	if m.showWarningsModal {
		return placeOverlay(m.renderWarningsModal(w), w, h)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader(w))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")

	headerLines := 2
	footerLines := 2

	searchActive := m.isSearching || m.searchQuery != ""
	if searchActive {
		headerLines++
		b.WriteString(m.renderSearchBar(w))
		b.WriteString("\n")
	}

	contentHeight := h - headerLines - footerLines

	leftWidth := w / 3
	if leftWidth < 20 {
		leftWidth = 20
	}
	rightWidth := w - leftWidth - 1 // 1 char for divider
	if rightWidth < 20 {
		rightWidth = 20
	}

	leftPanel := m.renderTreePanel(leftWidth, contentHeight)
	rightPanel := m.renderDetailPanel(rightWidth, contentHeight)

	sepColor := ColorGrayDim
	if m.focusedPane == 1 {
		sepColor = ColorPurple
	}
	sep := lipgloss.NewStyle().Foreground(sepColor).Render("│")
	for i := 0; i < contentHeight; i++ {
		b.WriteString(getLine(leftPanel, i, leftWidth))
		b.WriteString(sep)
		b.WriteString(getLine(rightPanel, i, rightWidth))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(w))

	return b.String()
}

func (m Model) renderHeader(width int) string {
	name := "gaplan"
	if m.snap != nil && m.snap.Plan != nil && m.snap.Plan.Project != nil && m.snap.Plan.Project.Name != "" {
		name = m.snap.Plan.Project.Name
	}
	title := HeaderStyle.Render(name)

	var stats string
	if m.snap != nil {
		total, done := countGoals(m.goals())
		s := fmt.Sprintf("%d/%d goals done", done, total)
		if m.snap.Schedule != nil {
			s += ", finish " + interval.FormatDate(m.snap.Schedule.Finish())
		}
		if n := len(m.snap.Warnings); n > 0 {
			s += "  " + WarningStyle.Render(fmt.Sprintf("%d warning(s)", n))
		}
		stats = HeaderCountStyle.Render(s)
	}

	status := ""
	if m.statusMsg != "" && time.Now().Before(m.statusTimeout) {
		style := StatusStyle
		if m.loadErr != nil {
			style = ErrorStyle
		}
		status = "  " + style.Render(m.statusMsg) + "  "
	}

	gap := width - lipgloss.Width(title) - lipgloss.Width(stats) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}

	return title + strings.Repeat(" ", gap) + status + stats
}

func (m Model) renderSearchBar(width int) string {
	prefix := SearchBarStyle.Render(" / ")
	query := SearchBarStyle.Render(m.searchQuery)
	cursor := ""
	if m.isSearching {
		cursor = SearchBarStyle.Render("█")
	}

	countStr := ""
	if m.searchQuery != "" {
		countStr = SearchCountStyle.Render(fmt.Sprintf(" %d matches", len(m.searchMatchIDs)))
	}

	left := prefix + query + cursor
	padWidth := width - lipgloss.Width(left) - lipgloss.Width(countStr)
	if padWidth < 1 {
		padWidth = 1
	}

	return left + strings.Repeat(" ", padWidth) + countStr
}

func (m Model) renderTreePanel(width, height int) string {
	var lines []string

	// Reserve last line for the plan path
	treeHeight := height - 1
	if treeHeight < 1 {
		treeHeight = 1
	}

	if len(m.visibleItems) == 0 {
		msg := "No goals in plan."
		if m.snap == nil && m.loadErr != nil {
			msg = "Plan failed to load."
		}
		lines = append(lines, FooterStyle.Render(msg))
	}

	// Scrolling window
	startIdx := 0
	endIdx := len(m.visibleItems)
	if len(m.visibleItems) > treeHeight {
		startIdx = m.cursor - treeHeight/2
		if startIdx < 0 {
			startIdx = 0
		}
		endIdx = startIdx + treeHeight
		if endIdx > len(m.visibleItems) {
			endIdx = len(m.visibleItems)
			startIdx = endIdx - treeHeight
		}
	}

	for i := startIdx; i < endIdx; i++ {
		lines = append(lines, m.renderTreeItem(m.visibleItems[i], i == m.cursor, width))
	}

	for len(lines) < treeHeight {
		lines = append(lines, "")
	}

	if m.snap != nil && m.snap.Plan != nil && m.snap.Plan.Path != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(ColorGrayDim).Render(fileHyperlink(m.snap.Plan.Path)))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderTreeItem(item TreeItem, isSelected bool, width int) string {
	indent := strings.Repeat(DepthIndent, item.Depth)

	expandIcon := "  "
	if item.HasChildren {
		if item.IsExpanded {
			expandIcon = IconExpanded + " "
		} else {
			expandIcon = IconCollapsed + " "
		}
	}

	icon := statusStyle(item.Status).Render(statusIcon(item.Status))

	isSearchMatch := m.searchMatchIDs[item.ID]
	name := item.Name
	if isSearchMatch && m.searchQuery != "" {
		if isSelected {
			name = highlightMatch(name, m.searchQuery, SearchCharSelectedStyle, SelectedStyle)
		} else {
			name = highlightMatch(name, m.searchQuery, SearchCharStyle, SearchRowStyle)
		}
	}

	line := indent + expandIcon + icon + " " + name

	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		line += strings.Repeat(" ", width-lineWidth)
	}

	if isSearchMatch && !isSelected {
		line = SearchRowStyle.Render(line)
	} else if isSelected {
		line = SelectedStyle.Render(line)
	}

	return line
}

func (m Model) renderDetailPanel(width, height int) string {
	if m.snap == nil && m.loadErr != nil {
		return ErrorStyle.Render(" " + m.loadErr.Error())
	}
	item, ok := m.current()
	if !ok {
		return FooterStyle.Render(" Select a goal to view details")
	}

	lines := strings.Split(strings.TrimRight(m.goalDetails(item), "\n"), "\n")

	scroll := m.detailScroll
	if scroll > len(lines)-1 {
		scroll = len(lines) - 1
	}
	if scroll < 0 {
		scroll = 0
	}
	lines = lines[scroll:]

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// goalDetails renders the schedule data of one goal.
func (m Model) goalDetails(item TreeItem) string {
	g := item.Goal
	var b strings.Builder

	b.WriteString(" " + DetailTitleStyle.Render(item.Name) + "  " + statusStyle(item.Status).Render(statusLabel(item.Status)) + "\n\n")

	field := func(label, value string) {
		b.WriteString(" " + DetailLabelStyle.Render(label) + DetailValueStyle.Render(value) + "\n")
	}

	if g.Loc.Known() {
		field("Defined at", g.Loc.String())
	}
	if sched := m.schedule(); sched != nil {
		if gi, ok := sched.Goal(g.Name); ok {
			field("Completion", interval.FormatDate(gi.CompletionDate))
		}
	}
	if g.CompletionDate != nil {
		field("Completed", interval.FormatDate(*g.CompletionDate))
	}
	if g.Deadline != nil {
		field("Deadline", interval.FormatDate(*g.Deadline))
	}
	field("Complete", fmt.Sprintf("%d%%", g.Complete()))
	if g.Prio != nil {
		field("Priority", fmt.Sprint(*g.Prio))
	}
	if g.Risk != nil {
		field("Risk", fmt.Sprint(*g.Risk))
	}
	if g.Iter != nil {
		field("Iteration", fmt.Sprint(*g.Iter))
	}

	if len(g.Checks) > 0 {
		b.WriteString("\n " + DetailSectionStyle.Render("Checks") + "\n")
		for _, c := range g.Checks {
			mark := IncompleteStyle.Render("[ ]")
			if c.Done() {
				mark = CompleteStyle.Render("[x]")
			}
			b.WriteString("   " + mark + " " + c.Name + "\n")
		}
	}

	if len(g.Preds) > 0 {
		b.WriteString("\n " + DetailSectionStyle.Render("Activities") + "\n")
		for _, act := range g.Preds {
			m.writeActivity(&b, act)
		}
	}

	if parents := g.Parents(); len(parents) > 0 {
		var names []string
		for _, p := range parents {
			names = append(names, p.Name)
		}
		b.WriteString("\n")
		field("Part of", strings.Join(names, ", "))
	}

	return b.String()
}

func (m Model) writeActivity(b *strings.Builder, act *goal.Activity) {
	head := "(start)"
	if act.Head != nil && !act.Head.Dummy {
		head = "from " + act.Head.Name
	}
	b.WriteString("   " + DetailValueStyle.Render(act.Key()) + " " + FooterStyle.Render(head) + "\n")

	if sched := m.schedule(); sched != nil {
		if ai, ok := sched.Activity(act.Key()); ok {
			line := "     " + ai.Interval.String()
			if names := ai.ResourceNames(); len(names) > 0 {
				line += " @" + strings.Join(names, "/")
			}
			b.WriteString(line + "\n")
		}
	}
	if act.Effort.Defined() {
		b.WriteString("     effort " + act.Effort.String() + "\n")
	}
	if act.IsScheduled() {
		b.WriteString("     fixed " + act.Duration.String() + "\n")
	}
	prj := m.snap.Plan.Project
	for _, t := range act.Tasks {
		b.WriteString("     task " + prj.TaskURL(t) + "\n")
	}
	for _, pr := range act.PullRequests {
		b.WriteString("     PR " + prj.PullRequestURL(pr) + "\n")
	}
}

func (m Model) renderFooter(width int) string {
	help := m.keys.ShortHelp()
	if m.isSearching {
		help = "type to search  enter/↓ keep filter  esc clear"
	} else if m.searchQuery != "" {
		help = "esc/enter clear filter  ↑↓ nav"
	} else if m.focusedPane == 1 {
		help = "↑↓ scroll details  tab tree  ? help"
	}
	return FooterStyle.Render(help)
}

func (m Model) renderHelpModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(ColorBlue).Width(16)
	descStyle := lipgloss.NewStyle().Foreground(ColorWhite)

	for _, binding := range m.keys.FullHelp() {
		b.WriteString(keyStyle.Render(binding[0]))
		b.WriteString(descStyle.Render(binding[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or ? to close"))

	return ModalStyle.Render(b.String())
}

func (m Model) renderWarningsModal(width int) string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Warnings"))
	b.WriteString("\n\n")

	var warnings []string
	if m.snap != nil {
		for _, w := range m.snap.Warnings {
			warnings = append(warnings, w.String())
		}
	}
	if len(warnings) == 0 {
		b.WriteString(FooterStyle.Render("No warnings."))
		b.WriteString("\n")
	}
	textStyle := lipgloss.NewStyle().Foreground(ColorYellow).Width(width * 2 / 3)
	for _, w := range warnings {
		b.WriteString(textStyle.Render(w))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or w to close"))

	return ModalStyle.Render(b.String())
}

// highlightMatch splits name into before/match/after and styles the match portion
// with charStyle, and the rest with rowStyle. The match is case-insensitive.
func highlightMatch(name, query string, charStyle, rowStyle lipgloss.Style) string {
	lower := strings.ToLower(name)
	idx := strings.Index(lower, strings.ToLower(query))
	if idx < 0 {
		return rowStyle.Render(name)
	}
	before := name[:idx]
	match := name[idx : idx+len(query)]
	after := name[idx+len(query):]

	var result string
	if before != "" {
		result += rowStyle.Render(before)
	}
	result += charStyle.Render(match)
	if after != "" {
		result += rowStyle.Render(after)
	}
	return result
}

// fileHyperlink wraps a file path in an OSC 8 terminal hyperlink so it's clickable.
func fileHyperlink(path string) string {
	url := "file://" + path
	return fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", url, path)
}

func getLine(block string, idx int, width int) string {
	lines := strings.Split(block, "\n")
	if idx < len(lines) {
		line := lines[idx]
		lineWidth := lipgloss.Width(line)
		if lineWidth < width {
			return line + strings.Repeat(" ", width-lineWidth)
		}
		return line
	}
	return strings.Repeat(" ", width)
}

func placeOverlay(modal string, width, height int) string {
	modalLines := strings.Split(modal, "\n")

	topPadding := (height - len(modalLines)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	leftPadding := (width - lipgloss.Width(modalLines[0])) / 2
	if leftPadding < 0 {
		leftPadding = 0
	}

	var result strings.Builder
	for i := 0; i < topPadding; i++ {
		result.WriteString("\n")
	}

	for _, line := range modalLines {
		result.WriteString(strings.Repeat(" ", leftPadding))
		result.WriteString(line)
		result.WriteString("\n")
	}

	return result.String()
}

// countGoals counts named goals and how many of them are done.
func countGoals(goals []*goal.Goal) (total, done int) {
	for _, g := range goals {
		if g.Dummy {
			continue
		}
		total++
		if g.IsCompleted() {
			done++
		}
	}
	return total, done
}

func statusIcon(s Status) string {
	switch s {
	case StatusDone:
		return IconDone
	case StatusLate:
		return IconLate
	case StatusOnTrack:
		return IconOnTrack
	default:
		return IconUnscheduled
	}
}

func statusLabel(s Status) string {
	switch s {
	case StatusDone:
		return "done"
	case StatusLate:
		return "late"
	case StatusOnTrack:
		return "on track"
	default:
		return "unscheduled"
	}
}

func statusStyle(s Status) lipgloss.Style {
	switch s {
	case StatusDone:
		return CompleteStyle
	case StatusLate:
		return LateStyle
	case StatusOnTrack:
		return OnTrackStyle
	default:
		return IncompleteStyle
	}
}
