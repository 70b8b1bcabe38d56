package viewmodels

import (
	"softcenter/internal/ui/views"
)

// ViewModel transforms application state into view-ready data
type ViewModel struct {
	results *Results
	width   int
	height  int

	searchVisible bool
	searchInput   string
	query         string
	filter        string
	searching     bool
	spinner       string
	status        string
	statusKind    views.StatusKind
	help          string
	showHelp      bool
}

// NewViewModel creates a new view model over results
func NewViewModel(results *Results) *ViewModel {
	return &ViewModel{results: results}
}

// SetDimensions sets the current terminal dimensions
func (vm *ViewModel) SetDimensions(width, height int) {
	vm.width = width
	vm.height = height
}

// SetSearch sets the search bar visibility, its rendered input and the query being shown
func (vm *ViewModel) SetSearch(visible bool, input, query string) {
	vm.searchVisible = visible
	vm.searchInput = input
	vm.query = query
}

// SetFilter sets the population filter label
func (vm *ViewModel) SetFilter(filter string) {
	vm.filter = filter
}

// SetSearching sets the busy indicator
func (vm *ViewModel) SetSearching(searching bool, spinner string) {
	vm.searching = searching
	vm.spinner = spinner
}

// SetStatus sets the status line
func (vm *ViewModel) SetStatus(message string, kind views.StatusKind) {
	vm.status = message
	vm.statusKind = kind
}

// SetHelp sets the rendered key help
func (vm *ViewModel) SetHelp(show bool, help string) {
	vm.showHelp = show
	vm.help = help
}

// BuildViewState creates a ViewState for rendering
func (vm *ViewModel) BuildViewState() views.ViewState {
	visible := vm.results.Visible()
	rows := make([]views.Row, len(visible))
	for i, it := range visible {
		rows[i] = views.Row{
			ID:        it.ID,
			Name:      it.DisplayName(),
			Source:    it.Source,
			Installed: it.Installed,
			Selected:  vm.results.ViewportOffset()+i == vm.results.Cursor(),
		}
	}

	return views.ViewState{
		Width:          vm.width,
		Height:         vm.height,
		SearchVisible:  vm.searchVisible,
		SearchInput:    vm.searchInput,
		Query:          vm.query,
		Filter:         vm.filter,
		Searching:      vm.searching,
		Spinner:        vm.spinner,
		Rows:           rows,
		Total:          vm.results.Len(),
		ViewportOffset: vm.results.ViewportOffset(),
		StatusMessage:  vm.status,
		StatusKind:     vm.statusKind,
		ShowHelp:       vm.showHelp,
		Help:           vm.help,
	}
}
