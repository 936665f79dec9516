// internal/handler/views.go
package handler

import (
	"errors"

	"epl2-service/internal/model"
	"epl2-service/pkg/epl2"
)

// ItemView is the JSON form of one decoded item
type ItemView struct {
	Pos       int          `json:"pos"`
	Kind      string       `json:"kind,omitempty"`
	Tag       string       `json:"tag,omitempty"`
	Command   epl2.Command `json:"command,omitempty"`
	Canonical string       `json:"canonical,omitempty"`
	Error     *ErrorView   `json:"error,omitempty"`
}

// ErrorView describes a failed item
type ErrorView struct {
	Kind    string `json:"kind"`
	Pos     int    `json:"pos"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// NewItemView converts a decoded item
func NewItemView(item epl2.Item) ItemView {
	view := ItemView{Pos: int(item.Pos)}
	if item.Err != nil {
		ev := &ErrorView{Pos: int(item.Pos), Message: item.Err.Error()}
		var de *epl2.DecodeError
		if errors.As(item.Err, &de) {
			ev.Kind = de.Kind.String()
			ev.Pos = int(de.Pos)
			ev.Field = de.Field
			ev.Value = de.Value
			ev.Token = de.Token
		}
		view.Error = ev
		return view
	}

	view.Kind = item.Command.Kind().String()
	view.Tag = item.Command.Kind().Tag()
	view.Command = item.Command
	if canonical, err := epl2.AppendCommand(nil, item.Command); err == nil {
		view.Canonical = string(canonical)
	}
	return view
}

// DecodeResponse is returned by the stateless decode endpoint
type DecodeResponse struct {
	Status model.JobStatus  `json:"status"`
	Report *model.JobReport `json:"report"`
	Items  []ItemView       `json:"items,omitempty"`
}
