package tui

import (
	"fmt"
	"strconv"

	"pautas-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
)

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, pickerDelegate{}, 0, 0)
	l.Title = title
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	// esc closes the modal around the list, not the program.
	l.KeyMap.Quit.SetKeys("ctrl+q")

	cursorUpKeys := append([]string{}, l.KeyMap.CursorUp.Keys()...)
	cursorUpKeys = append(cursorUpKeys, "ctrl+p")
	l.KeyMap.CursorUp.SetKeys(cursorUpKeys...)

	cursorDownKeys := append([]string{}, l.KeyMap.CursorDown.Keys()...)
	cursorDownKeys = append(cursorDownKeys, "ctrl+n")
	l.KeyMap.CursorDown.SetKeys(cursorDownKeys...)
	return l
}

// maintainerItem is one row of the assignment picker.
type maintainerItem struct {
	account model.Account
}

func (i maintainerItem) FilterValue() string {
	return i.account.Name + " " + strconv.Itoa(i.account.Code)
}

func (i maintainerItem) Title() string {
	return fmt.Sprintf("%-6d %s", i.account.Code, i.account.Name)
}

func (i maintainerItem) Detail() string { return i.account.SpecialtyName }

func maintainerItems(accounts []model.Account) []list.Item {
	out := make([]list.Item, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, maintainerItem{account: a})
	}
	return out
}

// choiceItem is a fixed option such as a role or a specialty.
type choiceItem struct {
	value  int
	label  string
	detail string
}

func (i choiceItem) FilterValue() string { return i.label }
func (i choiceItem) Title() string       { return fmt.Sprintf("%d  %s", i.value, i.label) }
func (i choiceItem) Detail() string      { return i.detail }

func roleItems() []list.Item {
	return []list.Item{
		choiceItem{value: int(model.RoleAdmin), label: model.RoleAdmin.DisplayName()},
		choiceItem{value: int(model.RoleSupervisor), label: model.RoleSupervisor.DisplayName()},
		choiceItem{value: int(model.RoleMaintainer), label: model.RoleMaintainer.DisplayName()},
	}
}

func specialtyItems(specialties []model.Specialty) []list.Item {
	out := make([]list.Item, 0, len(specialties))
	for _, s := range specialties {
		out = append(out, choiceItem{value: s.Code, label: s.Name, detail: s.Description})
	}
	return out
}
