package main

import (
	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// cliMessage resolves a localized CLI message from the workspace catalog.
// An explicit locale overrides the project report locale.
func cliMessage(ws *workspace.Workspace, project workspace.Project, locale, key string, args i18n.Args) string {
	if locale == "" {
		locale = project.I18n.ReportLocale
	}
	return i18n.NewCatalog(ws.MessagesDir()).Get(locale, key, args)
}
