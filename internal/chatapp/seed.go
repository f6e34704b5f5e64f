package chatapp

import (
	"teamchat/internal/directory"
	"teamchat/internal/ledger"
)

// seed populates the demo dataset used on first run: a small company
// directory, two groups, and a handful of conversation starters.
func (a *App) seed() {
	add := func(name, phone string, role directory.Role, avatar string, status directory.Status) *directory.User {
		u, err := a.dir.AddUser(name, phone, role, avatar)
		if err != nil {
			panic("seed user " + name + ": " + err.Error())
		}
		u.Status = status
		return u
	}

	john := add("John Admin", "+1234567890", directory.RoleAdmin, "👨‍💼", directory.StatusOnline)
	sarah := add("Sarah Manager", "+1234567891", directory.RoleMember, "👩‍💼", directory.StatusOnline)
	mike := add("Mike Developer", "+1234567892", directory.RoleMember, "👨‍💻", directory.StatusAway)
	lisa := add("Lisa Designer", "+1234567893", directory.RoleMember, "👩‍🎨", directory.StatusOnline)
	add("Tom Support", "+1234567894", directory.RoleMember, "👨‍🔧", directory.StatusOffline)

	dev, err := a.dir.CreateGroup(john.ID, "Development Team",
		[]string{mike.ID, lisa.ID}, "Main development team discussions")
	if err != nil {
		panic("seed group: " + err.Error())
	}
	mgmt, err := a.dir.CreateGroup(john.ID, "Management",
		[]string{sarah.ID}, "Management team coordination")
	if err != nil {
		panic("seed group: " + err.Error())
	}
	mgmt.Avatar = "🏢"

	post := func(from *directory.User, target ledger.Target, content string) {
		if _, err := a.ledger.AppendText(from.ID, target, content); err != nil {
			panic("seed message: " + err.Error())
		}
	}

	post(sarah, ledger.DirectTo(john.ID), "Hi John, can we schedule a meeting for tomorrow?")
	post(john, ledger.DirectTo(sarah.ID), "Sure Sarah! How about 2 PM?")
	post(mike, ledger.DirectTo(john.ID), "The new feature is ready for review @John Admin")
	post(lisa, ledger.GroupTarget(dev.ID), "I've updated the design mockups")
	post(john, ledger.GroupTarget(dev.ID), "Great work team! 🎉")

	a.settings = Settings{Name: DefaultCompanyName}
}
