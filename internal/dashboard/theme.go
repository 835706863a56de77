package dashboard

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of the dashboard. Colors are ANSI 256 codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	TabActive        lipgloss.Color
	TabInactive      lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	ErrorText        lipgloss.Color
	NoticeText       lipgloss.Color

	// Status colors, shared by vehicles, offers and contracts.
	StatusGood    lipgloss.Color // available, active
	StatusBusy    lipgloss.Color // leased, reserved, pending
	StatusWarning lipgloss.Color // in_service, draft
	StatusDone    lipgloss.Color // retired, expired, archived, completed, terminated
}

// DefaultTheme targets dark terminals.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),
	HeaderForeground:   lipgloss.Color("255"),
	TabActive:          lipgloss.Color("81"),
	TabInactive:        lipgloss.Color("245"),
	BorderColor:        lipgloss.Color("238"),
	HelpText:           lipgloss.Color("241"),
	ErrorText:          lipgloss.Color("203"),
	NoticeText:         lipgloss.Color("179"),
	StatusGood:         lipgloss.Color("114"),
	StatusBusy:         lipgloss.Color("75"),
	StatusWarning:      lipgloss.Color("221"),
	StatusDone:         lipgloss.Color("243"),
}

// StatusColor returns the color for a status value. Unknown values use
// NormalText.
func (theme Theme) StatusColor(status string) lipgloss.Color {
	switch status {
	case "available", "active":
		return theme.StatusGood
	case "leased", "reserved", "pending":
		return theme.StatusBusy
	case "in_service", "draft":
		return theme.StatusWarning
	case "retired", "expired", "archived", "completed", "terminated":
		return theme.StatusDone
	default:
		return theme.NormalText
	}
}
