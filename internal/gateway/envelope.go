package gateway

import (
	"encoding/json"
	"fmt"
)

// Envelope is the JSON body returned for every gateway call.
//
// On success Data is always an array and OutputParameters is null unless
// the call had OUTPUT parameters. On failure Data and OutputParameters are
// null and Error carries the message.
type Envelope struct {
	Success          bool      `json:"success"`
	Data             ResultSet `json:"data"`
	OutputParameters *Record   `json:"outputParameters"`
	Error            string    `json:"error,omitempty"`
}

func NewEnvelope(res Result, err error) Envelope {
	if err != nil {
		return Failure(err.Error())
	}
	env := Envelope{Success: true, Data: res.Rows}
	if env.Data == nil {
		env.Data = ResultSet{}
	}
	if res.Outputs.Len() > 0 {
		outputs := res.Outputs
		env.OutputParameters = &outputs
	}
	return env
}

func Failure(message string) Envelope {
	if message == "" {
		message = "unknown error"
	}
	return Envelope{Success: false, Error: message}
}

// Marshal renders the envelope as indented JSON. Every Value the gateway
// produces is representable, so a failure here is a bug and panics.
func (e Envelope) Marshal() []byte {
	out, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("gateway: marshal envelope: %v", err))
	}
	return out
}
