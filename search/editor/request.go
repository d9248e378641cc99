package editor

import (
	"strconv"
	"strings"

	"github.com/teranos/sqb/errors"
)

// ActionRequest is the wire form of an Action, used by the HTTP API and the CLI
type ActionRequest struct {
	Type     string `json:"type"`
	Index    int    `json:"index,omitempty"`
	Position int    `json:"position,omitempty"`
	Cursor   int    `json:"cursor,omitempty"`
	Text     string `json:"text,omitempty"`
	Query    string `json:"query,omitempty"`
}

// Action converts the request into an Action
func (r ActionRequest) Action() (Action, error) {
	switch strings.ToLower(r.Type) {
	case "focus":
		return FocusToken{Index: r.Index, Cursor: r.Cursor}, nil
	case "replace":
		return ReplaceToken{Index: r.Index, Text: r.Text}, nil
	case "insert":
		return InsertToken{Position: r.Position, Text: r.Text}, nil
	case "delete":
		return DeleteToken{Index: r.Index}, nil
	case "commit":
		return Commit{}, nil
	case "cancel":
		return Cancel{}, nil
	case "update":
		return UpdateQuery{Query: r.Query}, nil
	case "clear":
		return Clear{}, nil
	case "reclassify":
		return Reclassify{}, nil
	}
	return nil, errors.NewInvalidRequestError("unknown action type %q", r.Type)
}

// ParseCommand reads an action from command words, e.g.
//
//	replace 1 level:error
//	insert 0 "timed out"
//	delete 2
func ParseCommand(words []string) (Action, error) {
	if len(words) == 0 {
		return nil, errors.NewInvalidRequestError("empty command")
	}
	req := ActionRequest{Type: words[0]}
	args := words[1:]

	number := func(i int) (int, error) {
		if i >= len(args) {
			return 0, errors.NewInvalidRequestError("%s needs a token index", req.Type)
		}
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return 0, errors.WrapInvalidRequest(err, req.Type)
		}
		return n, nil
	}

	var err error
	switch strings.ToLower(req.Type) {
	case "focus":
		req.Index, err = number(0)
		if err == nil && len(args) > 1 {
			req.Cursor, err = number(1)
		}
	case "replace", "delete":
		req.Index, err = number(0)
		req.Text = strings.Join(args[min(1, len(args)):], " ")
	case "insert":
		req.Position, err = number(0)
		req.Text = strings.Join(args[min(1, len(args)):], " ")
	case "update":
		req.Query = strings.Join(args, " ")
	}
	if err != nil {
		return nil, err
	}
	return req.Action()
}
