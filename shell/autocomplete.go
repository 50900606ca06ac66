package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"
)

// ShellCompleter completes command names, options and option values.
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"solve":   {Options: []string{"-weak"}},
	"best":    {Options: []string{"-weak"}},
	"analyze": {Options: []string{"-weak"}},
	"show":    {Options: []string{"-grid"}},
	"bench":   {Options: []string{"-workers", "-weak"}},
	"load":    {Args: []string{"moves", "grid"}},
	"set":     {Args: []string{"weak", "color"}},
	"help": {Args: []string{
		"play", "load", "solve", "best", "analyze", "bench", "random", "set", "scores",
	}},
}

var commandNames = []string{
	"new", "play", "undo", "load", "show", "solve", "best", "analyze",
	"clear", "bench", "random", "set", "help", "exit",
}

var boolValues = []string{"true", "false"}

// Do implements readline.AutoCompleter.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// unterminated quote
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		switch lastCompleteField {
		case "-weak", "-grid":
			completions = boolValues
		}
		if cmdName == "set" && len(fields) >= 2 && lastCompleteField != "set" {
			completions = boolValues
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	matches := lo.FilterMap(completions, func(completion string, _ int) ([]rune, bool) {
		if !strings.HasPrefix(completion, prefix) {
			return nil, false
		}
		// only the part still to be typed
		return []rune(completion[len(prefix):]), true
	})
	return matches, len(prefix)
}
