package llm

import "context"

// EchoProvider is the provider name of the Echo client.
const EchoProvider = "echo"

// Echo is an offline Client that repeats the user's message. It lets the
// HTTP surface run without provider credentials.
type Echo struct{}

var _ Client = Echo{}

// Provider returns "echo".
func (Echo) Provider() string { return EchoProvider }

// Complete returns "You said: <message>".
func (Echo) Complete(ctx context.Context, req Request) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Completion{Text: "You said: " + req.UserMessage, Model: req.Model}, nil
}
