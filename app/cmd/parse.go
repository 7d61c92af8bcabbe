package cmd

import (
	"fmt"
	"io"

	"github.com/bobylevd/custom-match-bot/app/report"
	"github.com/bobylevd/custom-match-bot/app/roster"
)

// Parse is a command to parse a pasted roster and print the players.
type Parse struct {
	CommonOpts
	File string `long:"file" short:"f" description:"roster text file, stdin if not set"`
}

// Execute runs the command.
func (p *Parse) Execute([]string) error {
	in, err := p.input(p.File)
	if err != nil {
		return err
	}
	defer in.Close()

	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}

	_, err = io.WriteString(p.output(), report.Roster(roster.ParseRoster(string(text))))
	return err
}
