package ponder

import (
	"fmt"
	"regexp"
	"strings"
)

// Command identifiers understood by the controller grammar.
const (
	CommandPeek   = "PEEK"
	CommandSet    = "SET"
	CommandDelete = "DELETE"
	CommandAnswer = "ANSWER"
)

// Command is one parsed controller instruction. The set of implementations is
// closed: Peek, Set, Delete and Answer.
type Command interface {
	// Name returns the grammar identifier, e.g. "PEEK".
	Name() string
	command()
}

// Peek asks the retriever for passages matching Query.
type Peek struct {
	Query string
}

// Set stores Value under Key in the working memory.
type Set struct {
	Key   string
	Value string
}

// Delete removes Key from the working memory.
type Delete struct {
	Key string
}

// Answer ends the run with Text as the final answer.
type Answer struct {
	Text string
}

func (Peek) Name() string   { return CommandPeek }
func (Set) Name() string    { return CommandSet }
func (Delete) Name() string { return CommandDelete }
func (Answer) Name() string { return CommandAnswer }

func (Peek) command()   {}
func (Set) command()    {}
func (Delete) command() {}
func (Answer) command() {}

// String renders the command back into the controller grammar.
func (c Peek) String() string   { return FormatCommand(CommandPeek, c.Query) }
func (c Set) String() string    { return FormatCommand(CommandSet, c.Key, c.Value) }
func (c Delete) String() string { return FormatCommand(CommandDelete, c.Key) }
func (c Answer) String() string { return FormatCommand(CommandAnswer, c.Text) }

var commandPattern = regexp.MustCompile(`\b(PEEK|SET|DELETE|ANSWER)\(`)

// ParseCommand extracts the first command from controller output.
//
// Prose or code fences around the command are tolerated. Output without a
// command, or with the wrong number of arguments, yields an
// *UnrecognizedCommandError. A broken argument list yields the
// *MalformedArgumentError from ParseArgs.
func ParseCommand(output string) (Command, error) {
	name, raw, err := SplitCommand(output)
	if err != nil {
		return nil, err
	}

	args, err := ParseArgs(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	arity := func(want int) error {
		if len(args) != want {
			return &UnrecognizedCommandError{
				Output: output,
				Reason: fmt.Sprintf("%s takes %d argument(s), got %d", name, want, len(args)),
			}
		}
		return nil
	}

	switch name {
	case CommandPeek:
		if err := arity(1); err != nil {
			return nil, err
		}
		return Peek{Query: args[0]}, nil
	case CommandSet:
		if err := arity(2); err != nil {
			return nil, err
		}
		return Set{Key: args[0], Value: args[1]}, nil
	case CommandDelete:
		if err := arity(1); err != nil {
			return nil, err
		}
		return Delete{Key: args[0]}, nil
	default:
		if len(args) == 0 {
			return nil, &UnrecognizedCommandError{Output: output, Reason: "ANSWER takes at least 1 argument, got 0"}
		}
		// An unquoted answer containing commas arrives split; put it back.
		return Answer{Text: stripQuote(strings.Join(args, ", "))}, nil
	}
}

// SplitCommand locates the first command in output and returns its name and
// raw argument string, without tokenizing the arguments.
func SplitCommand(output string) (name, raw string, err error) {
	loc := commandPattern.FindStringSubmatchIndex(output)
	if loc == nil {
		return "", "", &UnrecognizedCommandError{Output: output, Reason: "no command found"}
	}
	name = output[loc[2]:loc[3]]
	body := output[loc[1]:]

	end, ok := closingParen(body)
	if !ok {
		return "", "", &UnrecognizedCommandError{Output: output, Reason: name + " is missing its closing parenthesis"}
	}
	return name, body[:end], nil
}

// closingParen finds the parenthesis closing an argument list, skipping quoted
// text and nested unquoted parentheses. As in ParseArgs, a double quote opens
// quoted text only at the start of an argument; elsewhere it is an ordinary
// character. When a quote is left open the whole remainder is returned so
// that ParseArgs can report where it started.
func closingParen(body string) (int, bool) {
	depth := 0
	inQuote := false
	argStart := true
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inQuote {
			switch {
			case c == '\\' && i+1 < len(body) && body[i+1] == '"':
				i++
			case c == '"':
				inQuote = false
			}
			continue
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '"':
			if argStart {
				inQuote = true
			}
		case ',':
			argStart = true
			continue
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return i, true
			}
			depth--
		}
		argStart = false
	}
	if inQuote {
		return len(body), true
	}
	return 0, false
}

// stripQuote removes one leading and one trailing quote character.
func stripQuote(s string) string {
	if s != "" && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if s != "" && (s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return s
}
