package msk

import (
	"encoding/json"
	"net/http"

	"github.com/aura-studio/mskrouter/route"
)

type Distribution struct {
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Large  int `json:"large"`
}

func distributionOf(groups route.Groups) Distribution {
	return Distribution{
		Small:  len(groups[route.Small]),
		Medium: len(groups[route.Medium]),
		Large:  len(groups[route.Large]),
	}
}

// Response is the structured result of one invocation. A response carrying
// Error is a handler fault and has no counts.
type Response struct {
	StatusCode        int
	ProcessedMessages int
	QueueDistribution Distribution
	Error             string
}

func newResponse(groups route.Groups, ok bool) Response {
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	return Response{
		StatusCode:        status,
		ProcessedMessages: groups.Len(),
		QueueDistribution: distributionOf(groups),
	}
}

func faultResponse(err error) Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Error:      err.Error(),
	}
}

func (r Response) Success() bool { return r.StatusCode == http.StatusOK }

func (r Response) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			StatusCode int    `json:"statusCode"`
			Error      string `json:"error"`
		}{r.StatusCode, r.Error})
	}
	return json.Marshal(struct {
		StatusCode        int          `json:"statusCode"`
		ProcessedMessages int          `json:"processedMessages"`
		QueueDistribution Distribution `json:"queueDistribution"`
	}{r.StatusCode, r.ProcessedMessages, r.QueueDistribution})
}

func (r *Response) UnmarshalJSON(b []byte) error {
	var v struct {
		StatusCode        int          `json:"statusCode"`
		ProcessedMessages int          `json:"processedMessages"`
		QueueDistribution Distribution `json:"queueDistribution"`
		Error             string       `json:"error"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Response(v)
	return nil
}
