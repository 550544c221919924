package tui

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/goal"
	"github.com/yugr/gaplan/pkg/schedule"
	"github.com/yugr/gaplan/pkg/store"
)

// FileChangedMsg is sent when the file watcher detects changes.
type FileChangedMsg struct{}

// Snapshot is one scheduled state of the plan.
type Snapshot struct {
	Plan     *store.Plan
	Schedule *schedule.Schedule
	Warnings []diag.Warning
}

// Loader parses and schedules the plan from scratch.
type Loader func() (*Snapshot, error)

// Model is the Bubble Tea model for the schedule viewer.
type Model struct {
	load          Loader
	keys          KeyMap
	width         int
	height        int
	snap          *Snapshot
	loadErr       error
	visibleItems  []TreeItem
	expandedState map[string]bool
	cursor        int
	focusedPane   int // 0 = tree, 1 = details
	detailScroll  int

	// Modal state
	showHelpModal     bool
	showWarningsModal bool

	// Search state
	isSearching    bool
	searchQuery    string
	searchMatchIDs map[string]bool // IDs of items matching query
	searchAncIDs   map[string]bool // IDs of ancestor items (for context)

	// Status message
	statusMsg     string
	statusTimeout time.Time

	// Track whether all items are expanded for toggle
	allExpanded bool
}

// NewModel creates a new viewer model. The plan is loaded on the first
// window size message.
func NewModel(load Loader) Model {
	return Model{
		load:          load,
		keys:          DefaultKeyMap(),
		expandedState: make(map[string]bool),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.snap == nil && m.loadErr == nil {
			m.reload()
		}
		return m, tea.ClearScreen

	case FileChangedMsg:
		m.reload()
		if m.loadErr == nil {
			m.setStatus("Plan changed, rescheduled")
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Search input mode handling
	if m.isSearching {
		return m.handleSearchInput(msg)
	}

	// Help modal
	if m.showHelpModal {
		switch msg.String() {
		case "esc", "enter", "?", "q":
			m.showHelpModal = false
		}
		return m, nil
	}

	if m.showWarningsModal {
		switch msg.String() {
		case "esc", "enter", "w", "q":
			m.showWarningsModal = false
		}
		return m, nil
	}

	// If search filter is active (not typing), Esc/Enter clears it
	if m.searchQuery != "" && (msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter) {
		curID := m.currentID()
		m.clearSearch()
		m.rebuildVisible()
		m.moveCursorTo(curID)
		return m, nil
	}

	// Normal mode
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.focusedPane == 1 {
			if m.detailScroll > 0 {
				m.detailScroll--
			}
		} else {
			if m.cursor > 0 {
				m.cursor--
			}
			m.detailScroll = 0
		}

	case key.Matches(msg, m.keys.Down):
		if m.focusedPane == 1 {
			m.detailScroll++
		} else {
			if m.cursor < len(m.visibleItems)-1 {
				m.cursor++
			}
			m.detailScroll = 0
		}

	case key.Matches(msg, m.keys.Right):
		if item, ok := m.current(); ok && item.HasChildren {
			m.expandedState[item.ID] = true
			m.rebuildVisible()
		}

	case key.Matches(msg, m.keys.Left):
		if item, ok := m.current(); ok {
			if item.IsExpanded {
				m.expandedState[item.ID] = false
				m.rebuildVisible()
			} else if item.ParentID != "" {
				m.moveCursorTo(item.ParentID)
			}
		}

	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.current(); ok && item.HasChildren {
			m.expandedState[item.ID] = !m.expandedState[item.ID]
			m.rebuildVisible()
		}

	case key.Matches(msg, m.keys.Tab):
		m.focusedPane = (m.focusedPane + 1) % 2

	case key.Matches(msg, m.keys.ToggleExpand):
		if m.allExpanded {
			m.expandedState = make(map[string]bool)
			m.allExpanded = false
		} else {
			m.expandAll()
			m.allExpanded = true
		}
		m.rebuildVisible()

	case key.Matches(msg, m.keys.Reload):
		m.reload()
		if m.loadErr == nil {
			m.setStatus("Reloaded")
		}

	case key.Matches(msg, m.keys.Warnings):
		m.showWarningsModal = true

	case key.Matches(msg, m.keys.Search):
		m.isSearching = true
		m.clearSearch()

	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = !m.showHelpModal
	}

	return m, nil
}

// handleSearchInput handles key messages while typing in the search bar.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		// Exit search and clear filter
		m.isSearching = false
		m.clearSearch()
		m.rebuildVisible()
		return m, nil

	case tea.KeyEnter, tea.KeyDown, tea.KeyTab:
		// Exit search input but keep filter active
		m.isSearching = false
		return m, nil

	case tea.KeyBackspace:
		if len(m.searchQuery) > 0 {
			_, size := utf8.DecodeLastRuneInString(m.searchQuery)
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-size]
		}
		m.applySearchFilter()
		m.rebuildVisible()
		return m, nil

	default:
		if msg.Type == tea.KeyRunes {
			m.searchQuery += string(msg.Runes)
			m.applySearchFilter()
			m.rebuildVisible()
		}
		return m, nil
	}
}

func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.searchMatchIDs = nil
	m.searchAncIDs = nil
}

// applySearchFilter computes searchMatchIDs and searchAncIDs based on searchQuery.
func (m *Model) applySearchFilter() {
	if m.searchQuery == "" {
		m.searchMatchIDs = nil
		m.searchAncIDs = nil
		return
	}

	query := strings.ToLower(m.searchQuery)
	m.searchMatchIDs = make(map[string]bool)
	m.searchAncIDs = make(map[string]bool)

	// Search the fully expanded tree so collapsed goals are found too.
	all := make(map[string]bool)
	for _, g := range m.goals() {
		markExpandable(g, all)
	}
	allItems := FlattenVisibleItems(m.topGoals(), m.schedule(), all)

	for _, item := range allItems {
		if strings.Contains(strings.ToLower(item.Name), query) {
			m.searchMatchIDs[item.ID] = true
			m.addSearchAncestors(item.ParentID, allItems)
		}
	}
}

// addSearchAncestors walks up the tree adding ancestor IDs and auto-expanding them.
func (m *Model) addSearchAncestors(parentID string, allItems []TreeItem) {
	if parentID == "" || m.searchAncIDs[parentID] {
		return
	}
	m.searchAncIDs[parentID] = true
	m.expandedState[parentID] = true

	for _, item := range allItems {
		if item.ID == parentID {
			m.addSearchAncestors(item.ParentID, allItems)
			return
		}
	}
}

// reload runs the loader. On failure the previous snapshot stays on screen.
func (m *Model) reload() {
	snap, err := m.load()
	if err != nil {
		m.loadErr = err
		m.setStatus("Load error: " + err.Error())
		return
	}
	m.snap = snap
	m.loadErr = nil
	if m.searchQuery != "" {
		m.applySearchFilter()
	}
	m.rebuildVisible()
}

func (m *Model) rebuildVisible() {
	m.visibleItems = FlattenVisibleItems(m.topGoals(), m.schedule(), m.expandedState)

	// Apply search filter if active
	if m.searchQuery != "" && (m.searchMatchIDs != nil || m.searchAncIDs != nil) {
		m.visibleItems = FilterVisibleItems(m.visibleItems, m.searchMatchIDs, m.searchAncIDs)
	}

	// Clamp cursor
	if m.cursor >= len(m.visibleItems) {
		m.cursor = len(m.visibleItems) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) expandAll() {
	for _, g := range m.goals() {
		markExpandable(g, m.expandedState)
	}
}

func markExpandable(g *goal.Goal, state map[string]bool) {
	if len(g.Children) > 0 {
		state[g.Name] = true
	}
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTimeout = time.Now().Add(3 * time.Second)
}

func (m Model) current() (TreeItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visibleItems) {
		return TreeItem{}, false
	}
	return m.visibleItems[m.cursor], true
}

func (m Model) currentID() string {
	item, _ := m.current()
	return item.ID
}

// moveCursorTo positions the cursor on the given goal in the visible items.
func (m *Model) moveCursorTo(id string) {
	for i, item := range m.visibleItems {
		if item.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) goals() []*goal.Goal {
	if m.snap == nil || m.snap.Plan == nil || m.snap.Plan.Net == nil {
		return nil
	}
	return m.snap.Plan.Net.Goals()
}

func (m Model) topGoals() []*goal.Goal {
	if m.snap == nil || m.snap.Plan == nil || m.snap.Plan.Net == nil {
		return nil
	}
	return TopGoals(m.snap.Plan.Net)
}

func (m Model) schedule() *schedule.Schedule {
	if m.snap == nil {
		return nil
	}
	return m.snap.Schedule
}
