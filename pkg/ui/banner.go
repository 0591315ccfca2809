package ui

import "strings"

const (
	reset      = "\033[0m"
	bold       = "\033[1m"
	mint       = "\033[38;5;121m"
	seafoam    = "\033[38;5;49m"
	cobalt     = "\033[38;5;33m"
	deepIndigo = "\033[38;5;61m"
	dimGray    = "\033[38;5;244m"
	warnAmber  = "\033[38;5;214m"
)

// Banner renders the colored itop wordmark.
func Banner() string {
	var b strings.Builder

	letters := [][]string{
		{"██╗", "██║", "██║", "██║", "██║", "╚═╝"},
		{"████████╗", "╚══██╔══╝", "   ██║   ", "   ██║   ", "   ██║   ", "   ╚═╝   "},
		{" ██████╗ ", "██╔═══██╗", "██║   ██║", "██║   ██║", "╚██████╔╝", " ╚═════╝ "},
		{"██████╗ ", "██╔══██╗", "██████╔╝", "██╔═══╝ ", "██║     ", "╚═╝     "},
	}
	gradient := []string{mint, seafoam, cobalt, deepIndigo}
	rows := make([]string, len(letters[0]))
	for i, letter := range letters {
		color := gradient[i%len(gradient)]
		for row := range letter {
			rows[row] += color + letter[row] + " "
		}
	}
	for _, line := range rows {
		b.WriteString(bold + line + reset + "\n")
	}

	b.WriteString("\n")
	b.WriteString(bold + seafoam + "itop" + reset + dimGray + "  •  interactive process monitor" + reset + "\n\n")

	return b.String()
}
